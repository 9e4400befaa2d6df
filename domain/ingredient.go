package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceEntry is one record in an ingredient's append-only price ledger.
// Entries are immutable once created and live exactly as long as the owning
// ingredient. Position is the insertion index inside the ledger and breaks
// ties between entries sharing the same effective instant.
type PriceEntry struct {
	ID           string          `json:"id"`
	Price        decimal.Decimal `json:"price"`
	ChangedAt    time.Time       `json:"changed_at"`
	IngredientID string          `json:"ingredient_id"`
	Position     int             `json:"-"`
}

// Ingredient is the aggregate root for an ingredient and its price history.
type Ingredient struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Supplier     string       `json:"supplier"`
	PriceHistory []PriceEntry `json:"price_history,omitempty"`
	Audit
}

// NewIngredient validates name and supplier and returns a fresh aggregate
// with an empty ledger.
func NewIngredient(name, supplier, createdBy string) (*Ingredient, error) {
	if name == "" {
		return nil, NewInvalidArgument("name", "ingredient name is required")
	}
	if len(name) > 255 {
		return nil, NewInvalidArgument("name", "ingredient name must be at most 255 characters")
	}
	if supplier == "" {
		return nil, NewInvalidArgument("supplier", "supplier is required")
	}
	if len(supplier) > 255 {
		return nil, NewInvalidArgument("supplier", "supplier must be at most 255 characters")
	}
	return &Ingredient{
		ID:       uuid.NewString(),
		Name:     name,
		Supplier: supplier,
		Audit:    NewAudit(createdBy),
	}, nil
}

// AddPrice appends a price entry effective at the given instant. Multiple
// entries at the same instant are legal; LatestPrice resolves ties by
// insertion order.
func (i *Ingredient) AddPrice(price decimal.Decimal, changedAt time.Time) error {
	if !price.IsPositive() {
		return NewInvalidArgument("price", "price must be greater than zero")
	}
	i.PriceHistory = append(i.PriceHistory, PriceEntry{
		ID:           uuid.NewString(),
		Price:        price,
		ChangedAt:    changedAt,
		IngredientID: i.ID,
		Position:     len(i.PriceHistory),
	})
	return nil
}

// LatestPrice returns the entry with the maximum effective instant, or nil
// when the ledger is empty. On equal instants the most recently appended
// entry wins. Pure read, no side effects.
func (i *Ingredient) LatestPrice() *PriceEntry {
	if len(i.PriceHistory) == 0 {
		return nil
	}
	latest := &i.PriceHistory[0]
	for idx := 1; idx < len(i.PriceHistory); idx++ {
		e := &i.PriceHistory[idx]
		if !e.ChangedAt.Before(latest.ChangedAt) {
			latest = e
		}
	}
	return latest
}
