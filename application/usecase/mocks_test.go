package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/costra/costra/domain"
	"github.com/costra/costra/infrastructure/service/logger"
)

// Mock implementations

type mockIngredientRepository struct {
	ingredients map[string]*domain.Ingredient

	saveErr          error
	findByIDsErr     error
	latestPriceCalls int
}

func newMockIngredientRepository() *mockIngredientRepository {
	return &mockIngredientRepository{
		ingredients: make(map[string]*domain.Ingredient),
	}
}

func (m *mockIngredientRepository) Save(ctx context.Context, ing *domain.Ingredient) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if ing.Version == 0 {
		ing.Version = 1
	} else {
		stored, exists := m.ingredients[ing.ID]
		if !exists {
			return domain.ErrIngredientNotFound
		}
		if stored.Version != ing.Version {
			return domain.ErrVersionConflict
		}
		ing.Version++
	}
	copied := *ing
	m.ingredients[ing.ID] = &copied
	return nil
}

func (m *mockIngredientRepository) FindByID(ctx context.Context, id string) (*domain.Ingredient, error) {
	if ing, exists := m.ingredients[id]; exists && !ing.Deleted() {
		copied := *ing
		return &copied, nil
	}
	return nil, domain.ErrIngredientNotFound
}

func (m *mockIngredientRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Ingredient, error) {
	if m.findByIDsErr != nil {
		return nil, m.findByIDsErr
	}
	var items []*domain.Ingredient
	for _, id := range ids {
		if ing, exists := m.ingredients[id]; exists && !ing.Deleted() {
			copied := *ing
			items = append(items, &copied)
		}
	}
	return items, nil
}

func (m *mockIngredientRepository) FindByName(ctx context.Context, name string) (*domain.Ingredient, error) {
	for _, ing := range m.ingredients {
		if ing.Name == name && !ing.Deleted() {
			copied := *ing
			return &copied, nil
		}
	}
	return nil, domain.ErrIngredientNotFound
}

func (m *mockIngredientRepository) FindAll(ctx context.Context, page, limit int) ([]*domain.Ingredient, int, error) {
	var items []*domain.Ingredient
	for _, ing := range m.ingredients {
		if !ing.Deleted() {
			copied := *ing
			items = append(items, &copied)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })

	total := len(items)
	start := (page - 1) * limit
	if start >= total {
		return nil, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return items[start:end], total, nil
}

func (m *mockIngredientRepository) LatestPrice(ctx context.Context, id string) (decimal.Decimal, error) {
	m.latestPriceCalls++
	ing, exists := m.ingredients[id]
	if !exists || ing.Deleted() {
		return decimal.Zero, domain.ErrPriceNotFound
	}
	latest := ing.LatestPrice()
	if latest == nil {
		return decimal.Zero, domain.ErrPriceNotFound
	}
	return latest.Price, nil
}

func (m *mockIngredientRepository) SoftDelete(ctx context.Context, id string) (bool, error) {
	if ing, exists := m.ingredients[id]; exists && !ing.Deleted() {
		ing.SoftDelete()
		ing.Version++
		return true, nil
	}
	return false, nil
}

func (m *mockIngredientRepository) Restore(ctx context.Context, id string) (bool, error) {
	if ing, exists := m.ingredients[id]; exists && ing.Deleted() {
		ing.Restore()
		ing.Version++
		return true, nil
	}
	return false, nil
}

type mockRecipeRepository struct {
	recipes map[string]*domain.Recipe
	saveErr error
}

func newMockRecipeRepository() *mockRecipeRepository {
	return &mockRecipeRepository{recipes: make(map[string]*domain.Recipe)}
}

func (m *mockRecipeRepository) Save(ctx context.Context, recipe *domain.Recipe) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if recipe.Version == 0 {
		recipe.Version = 1
	} else {
		stored, exists := m.recipes[recipe.ID]
		if !exists {
			return domain.ErrRecipeNotFound
		}
		if stored.Version != recipe.Version {
			return domain.ErrVersionConflict
		}
		recipe.Version++
	}
	copied := *recipe
	m.recipes[recipe.ID] = &copied
	return nil
}

func (m *mockRecipeRepository) FindByID(ctx context.Context, id string) (*domain.Recipe, error) {
	if recipe, exists := m.recipes[id]; exists && !recipe.Deleted() {
		copied := *recipe
		return &copied, nil
	}
	return nil, domain.ErrRecipeNotFound
}

func (m *mockRecipeRepository) FindAll(ctx context.Context, page, limit int) ([]*domain.Recipe, int, error) {
	var items []*domain.Recipe
	for _, recipe := range m.recipes {
		if !recipe.Deleted() {
			copied := *recipe
			items = append(items, &copied)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })

	total := len(items)
	start := (page - 1) * limit
	if start >= total {
		return nil, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return items[start:end], total, nil
}

func (m *mockRecipeRepository) SoftDelete(ctx context.Context, id string) (bool, error) {
	if recipe, exists := m.recipes[id]; exists && !recipe.Deleted() {
		recipe.SoftDelete()
		recipe.Version++
		return true, nil
	}
	return false, nil
}

func (m *mockRecipeRepository) Restore(ctx context.Context, id string) (bool, error) {
	if recipe, exists := m.recipes[id]; exists && recipe.Deleted() {
		recipe.Restore()
		recipe.Version++
		return true, nil
	}
	return false, nil
}

// fakePriceCache is an in-memory cache with a manually advanced clock so TTL
// expiry can be tested without sleeping.
type fakePriceCache struct {
	now     time.Time
	entries map[string]fakeCacheEntry
	getErr  error
	setErr  error
}

type fakeCacheEntry struct {
	value     decimal.Decimal
	expiresAt time.Time
}

func newFakePriceCache() *fakePriceCache {
	return &fakePriceCache{
		now:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		entries: make(map[string]fakeCacheEntry),
	}
}

func (c *fakePriceCache) advance(d time.Duration) { c.now = c.now.Add(d) }

func (c *fakePriceCache) Get(ctx context.Context, key string) (decimal.Decimal, bool, error) {
	if c.getErr != nil {
		return decimal.Zero, false, c.getErr
	}
	entry, exists := c.entries[key]
	if !exists || !c.now.Before(entry.expiresAt) {
		return decimal.Zero, false, nil
	}
	return entry.value, true, nil
}

func (c *fakePriceCache) Set(ctx context.Context, key string, value decimal.Decimal, ttl time.Duration) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[key] = fakeCacheEntry{value: value, expiresAt: c.now.Add(ttl)}
	return nil
}

type nopLogger struct{}

func (nopLogger) Info(ctx context.Context, message string, fields map[string]interface{}) {}
func (nopLogger) Error(ctx context.Context, message string, err error, fields map[string]interface{}) {}
func (nopLogger) Warn(ctx context.Context, message string, fields map[string]interface{}) {}
func (nopLogger) Debug(ctx context.Context, message string, fields map[string]interface{}) {}
func (l nopLogger) WithFields(fields map[string]interface{}) logger.Logger { return l }
