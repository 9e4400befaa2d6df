package outbound

import (
	"context"

	"github.com/costra/costra/domain"
)

// RecipeRepository is the persistence contract for the Recipe aggregate.
// Finders exclude soft-deleted rows. Save rewrites the recipe's lines
// atomically with the root row and must fail with domain.ErrVersionConflict
// on a stale version.
type RecipeRepository interface {
	Save(ctx context.Context, recipe *domain.Recipe) error
	FindByID(ctx context.Context, id string) (*domain.Recipe, error)
	FindAll(ctx context.Context, page, limit int) ([]*domain.Recipe, int, error)
	SoftDelete(ctx context.Context, id string) (bool, error)
	Restore(ctx context.Context, id string) (bool, error)
}
