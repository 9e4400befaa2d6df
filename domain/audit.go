package domain

import (
	"time"
)

// Audit carries the bookkeeping fields shared by every aggregate root:
// creation/modification stamps, the optimistic-concurrency version counter
// and the soft-delete marker. Version 0 means the aggregate has never been
// persisted; the repository sets it to 1 on first save and bumps it by one
// on every successful save after that.
type Audit struct {
	CreatedAt      time.Time  `json:"created_at"`
	CreatedBy      string     `json:"created_by"`
	LastModifiedAt *time.Time `json:"last_modified_at,omitempty"`
	LastModifiedBy *string    `json:"last_modified_by,omitempty"`
	Version        int        `json:"version"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// NewAudit initializes audit fields for a freshly created aggregate.
func NewAudit(createdBy string) Audit {
	return Audit{
		CreatedAt: time.Now().UTC(),
		CreatedBy: createdBy,
	}
}

// MarkModified records who touched the aggregate and when.
func (a *Audit) MarkModified(by string) {
	now := time.Now().UTC()
	a.LastModifiedAt = &now
	a.LastModifiedBy = &by
}

// SoftDelete marks the aggregate as deleted. Deleted aggregates are retained
// in storage but excluded from normal queries.
func (a *Audit) SoftDelete() {
	now := time.Now().UTC()
	a.DeletedAt = &now
}

// Restore clears the soft-delete marker.
func (a *Audit) Restore() {
	a.DeletedAt = nil
}

// Deleted reports whether the aggregate is soft-deleted.
func (a *Audit) Deleted() bool {
	return a.DeletedAt != nil
}
