package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/costra/costra/application/port/outbound"
	"github.com/costra/costra/infrastructure/service/logger"
)

// PriceResolver answers "what is ingredient X's current unit price" while
// bounding load on the price store. Cached reads may be stale by up to the
// TTL; callers that need freshness pass useCache=false. A missing price is
// never cached, so a newly added price becomes visible on the next miss.
type PriceResolver struct {
	ingredientRepo outbound.IngredientRepository
	cache          outbound.PriceCache
	ttl            time.Duration
	logger         logger.Logger
}

func NewPriceResolver(
	ingredientRepo outbound.IngredientRepository,
	cache outbound.PriceCache,
	ttl time.Duration,
	log logger.Logger,
) *PriceResolver {
	return &PriceResolver{
		ingredientRepo: ingredientRepo,
		cache:          cache,
		ttl:            ttl,
		logger:         log,
	}
}

func cacheKey(ingredientID string) string {
	return fmt.Sprintf("price:%s", ingredientID)
}

// Resolve returns the latest unit price for the ingredient. With
// useCache=false it always reads the store; with useCache=true it serves a
// cache hit without touching the store and populates the cache on a miss.
// Returns domain.ErrPriceNotFound when the ingredient has no price entries.
func (r *PriceResolver) Resolve(ctx context.Context, ingredientID string, useCache bool) (decimal.Decimal, error) {
	if !useCache {
		return r.ingredientRepo.LatestPrice(ctx, ingredientID)
	}

	key := cacheKey(ingredientID)
	cached, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		return decimal.Zero, err
	}
	if ok {
		r.logger.Debug(ctx, "Price cache hit", map[string]interface{}{
			"ingredient_id": ingredientID,
		})
		return cached, nil
	}

	price, err := r.ingredientRepo.LatestPrice(ctx, ingredientID)
	if err != nil {
		return decimal.Zero, err
	}
	if err := r.cache.Set(ctx, key, price, r.ttl); err != nil {
		return decimal.Zero, err
	}
	r.logger.Debug(ctx, "Price cache populated", map[string]interface{}{
		"ingredient_id": ingredientID,
		"ttl":           r.ttl.String(),
	})
	return price, nil
}
