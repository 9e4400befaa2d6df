package outbound

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/costra/costra/domain"
)

// IngredientRepository is the persistence contract for the Ingredient
// aggregate. All finders exclude soft-deleted rows. Save persists the
// aggregate and its price ledger atomically and must fail with
// domain.ErrVersionConflict when the stored version no longer matches the
// aggregate's version.
type IngredientRepository interface {
	Save(ctx context.Context, ingredient *domain.Ingredient) error
	FindByID(ctx context.Context, id string) (*domain.Ingredient, error)
	FindByIDs(ctx context.Context, ids []string) ([]*domain.Ingredient, error)
	FindByName(ctx context.Context, name string) (*domain.Ingredient, error)
	FindAll(ctx context.Context, page, limit int) ([]*domain.Ingredient, int, error)
	// LatestPrice reads the freshest price straight from the store,
	// bypassing any cache. Returns domain.ErrPriceNotFound when the
	// ingredient has no price entries.
	LatestPrice(ctx context.Context, id string) (decimal.Decimal, error)
	SoftDelete(ctx context.Context, id string) (bool, error)
	Restore(ctx context.Context, id string) (bool, error)
}
