package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/costra/costra/application/port/outbound"
	"github.com/costra/costra/domain"
)

// IngredientRepository persists the Ingredient aggregate with raw SQL.
// The price ledger is owned by the aggregate: entries are appended inside
// the same transaction as the root row and never touched on their own.
type IngredientRepository struct{ db *sql.DB }

func NewIngredientRepository(db *sql.DB) outbound.IngredientRepository {
	return &IngredientRepository{db: db}
}

// Save inserts the aggregate on first save (version 0 in memory) and
// otherwise updates it guarded by the optimistic version check. Ledger rows
// are inserted with ON CONFLICT DO NOTHING so re-saving an aggregate never
// duplicates entries.
func (r *IngredientRepository) Save(ctx context.Context, ing *domain.Ingredient) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if ing.Version == 0 {
		query := `
            INSERT INTO ingredients (id, name, supplier, created_at, created_by, last_modified_at, last_modified_by, version, deleted_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, 1, $8)
        `
		if _, err := tx.ExecContext(ctx, query,
			ing.ID, ing.Name, ing.Supplier,
			ing.CreatedAt, ing.CreatedBy,
			ing.LastModifiedAt, ing.LastModifiedBy,
			ing.DeletedAt,
		); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrNameTaken
			}
			return fmt.Errorf("failed to insert ingredient: %w", err)
		}
		ing.Version = 1
	} else {
		query := `
            UPDATE ingredients
            SET name = $2, supplier = $3, last_modified_at = $4, last_modified_by = $5,
                deleted_at = $6, version = version + 1
            WHERE id = $1 AND version = $7
        `
		result, err := tx.ExecContext(ctx, query,
			ing.ID, ing.Name, ing.Supplier,
			ing.LastModifiedAt, ing.LastModifiedBy,
			ing.DeletedAt, ing.Version,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrNameTaken
			}
			return fmt.Errorf("failed to update ingredient: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return r.disambiguateStaleSave(ctx, tx, ing.ID)
		}
		ing.Version++
	}

	for _, entry := range ing.PriceHistory {
		query := `
            INSERT INTO price_entries (id, ingredient_id, price, changed_at, position)
            VALUES ($1, $2, $3, $4, $5)
            ON CONFLICT (id) DO NOTHING
        `
		if _, err := tx.ExecContext(ctx, query,
			entry.ID, entry.IngredientID, entry.Price, entry.ChangedAt, entry.Position,
		); err != nil {
			return fmt.Errorf("failed to insert price entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ingredient save: %w", err)
	}
	return nil
}

// disambiguateStaleSave tells a missing row apart from a stale version. The
// probe ignores the soft-delete filter: a deleted row still conflicts.
func (r *IngredientRepository) disambiguateStaleSave(ctx context.Context, tx *sql.Tx, id string) error {
	var stored int
	err := tx.QueryRowContext(ctx, `SELECT version FROM ingredients WHERE id = $1`, id).Scan(&stored)
	if err == sql.ErrNoRows {
		return domain.ErrIngredientNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to probe ingredient version: %w", err)
	}
	return domain.ErrVersionConflict
}

func (r *IngredientRepository) FindByID(ctx context.Context, id string) (*domain.Ingredient, error) {
	query := `
        SELECT id, name, supplier, created_at, created_by, last_modified_at, last_modified_by, version, deleted_at
        FROM ingredients
        WHERE id = $1 AND deleted_at IS NULL
    `
	ing, err := r.scanIngredient(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadLedgers(ctx, []*domain.Ingredient{ing}); err != nil {
		return nil, err
	}
	return ing, nil
}

func (r *IngredientRepository) FindByName(ctx context.Context, name string) (*domain.Ingredient, error) {
	query := `
        SELECT id, name, supplier, created_at, created_by, last_modified_at, last_modified_by, version, deleted_at
        FROM ingredients
        WHERE name = $1 AND deleted_at IS NULL
    `
	ing, err := r.scanIngredient(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		return nil, err
	}
	if err := r.loadLedgers(ctx, []*domain.Ingredient{ing}); err != nil {
		return nil, err
	}
	return ing, nil
}

// FindByIDs returns the matching non-deleted roots without their ledgers;
// callers use it for batch display-name lookups where price history is
// dead weight.
func (r *IngredientRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Ingredient, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
        SELECT id, name, supplier, created_at, created_by, last_modified_at, last_modified_by, version, deleted_at
        FROM ingredients
        WHERE id = ANY($1) AND deleted_at IS NULL
    `
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to find ingredients by ids: %w", err)
	}
	defer rows.Close()

	var items []*domain.Ingredient
	for rows.Next() {
		ing, err := r.scanIngredient(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ingredients: %w", err)
	}
	return items, nil
}

func (r *IngredientRepository) FindAll(ctx context.Context, page, limit int) ([]*domain.Ingredient, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ingredients WHERE deleted_at IS NULL`,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count ingredients: %w", err)
	}

	query := `
        SELECT id, name, supplier, created_at, created_by, last_modified_at, last_modified_by, version, deleted_at
        FROM ingredients
        WHERE deleted_at IS NULL
        ORDER BY created_at DESC
        LIMIT $1 OFFSET $2
    `
	rows, err := r.db.QueryContext(ctx, query, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list ingredients: %w", err)
	}
	defer rows.Close()

	var items []*domain.Ingredient
	for rows.Next() {
		ing, err := r.scanIngredient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate ingredients: %w", err)
	}

	if err := r.loadLedgers(ctx, items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// LatestPrice reads the freshest ledger entry straight from the store.
// Ties on changed_at resolve to the highest position, i.e. the entry
// appended last.
func (r *IngredientRepository) LatestPrice(ctx context.Context, id string) (decimal.Decimal, error) {
	query := `
        SELECT pe.price
        FROM price_entries pe
        JOIN ingredients i ON i.id = pe.ingredient_id
        WHERE i.id = $1 AND i.deleted_at IS NULL
        ORDER BY pe.changed_at DESC, pe.position DESC
        LIMIT 1
    `
	var price decimal.Decimal
	err := r.db.QueryRowContext(ctx, query, id).Scan(&price)
	if err == sql.ErrNoRows {
		return decimal.Zero, domain.ErrPriceNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read latest price: %w", err)
	}
	return price, nil
}

func (r *IngredientRepository) SoftDelete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE ingredients SET deleted_at = $2, version = version + 1 WHERE id = $1 AND deleted_at IS NULL`,
		id, time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to soft-delete ingredient: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *IngredientRepository) Restore(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE ingredients SET deleted_at = NULL, version = version + 1 WHERE id = $1 AND deleted_at IS NOT NULL`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to restore ingredient: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *IngredientRepository) scanIngredient(row rowScanner) (*domain.Ingredient, error) {
	var ing domain.Ingredient
	var lastModifiedAt, deletedAt sql.NullTime
	var lastModifiedBy sql.NullString
	err := row.Scan(
		&ing.ID, &ing.Name, &ing.Supplier,
		&ing.CreatedAt, &ing.CreatedBy,
		&lastModifiedAt, &lastModifiedBy,
		&ing.Version, &deletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrIngredientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan ingredient: %w", err)
	}
	if lastModifiedAt.Valid {
		ing.LastModifiedAt = &lastModifiedAt.Time
	}
	if lastModifiedBy.Valid {
		ing.LastModifiedBy = &lastModifiedBy.String
	}
	if deletedAt.Valid {
		ing.DeletedAt = &deletedAt.Time
	}
	return &ing, nil
}

// loadLedgers fetches the price history for a batch of roots in one query,
// preserving insertion order per ingredient.
func (r *IngredientRepository) loadLedgers(ctx context.Context, items []*domain.Ingredient) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, len(items))
	byID := make(map[string]*domain.Ingredient, len(items))
	for i, ing := range items {
		ids[i] = ing.ID
		byID[ing.ID] = ing
	}

	query := `
        SELECT id, ingredient_id, price, changed_at, position
        FROM price_entries
        WHERE ingredient_id = ANY($1)
        ORDER BY ingredient_id, position
    `
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load price entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry domain.PriceEntry
		if err := rows.Scan(&entry.ID, &entry.IngredientID, &entry.Price, &entry.ChangedAt, &entry.Position); err != nil {
			return fmt.Errorf("failed to scan price entry: %w", err)
		}
		ing := byID[entry.IngredientID]
		ing.PriceHistory = append(ing.PriceHistory, entry)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate price entries: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}
