package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/costra/costra/application/usecase"
	"github.com/costra/costra/domain"
	"github.com/costra/costra/infrastructure/http/response"
	"github.com/costra/costra/infrastructure/service/logger"
)

// In-memory repositories backing the handlers under test.

type memIngredientRepo struct {
	ingredients map[string]*domain.Ingredient
}

func newMemIngredientRepo() *memIngredientRepo {
	return &memIngredientRepo{ingredients: make(map[string]*domain.Ingredient)}
}

func (m *memIngredientRepo) Save(ctx context.Context, ing *domain.Ingredient) error {
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

func (m *memIngredientRepo) FindByID(ctx context.Context, id string) (*domain.Ingredient, error) {
	if ing, exists := m.ingredients[id]; exists && !ing.Deleted() {
		copied := *ing
		return &copied, nil
	}
	return nil, domain.ErrIngredientNotFound
}

func (m *memIngredientRepo) FindByIDs(ctx context.Context, ids []string) ([]*domain.Ingredient, error) {
	var items []*domain.Ingredient
	for _, id := range ids {
		if ing, exists := m.ingredients[id]; exists && !ing.Deleted() {
			copied := *ing
			items = append(items, &copied)
		}
	}
	return items, nil
}

func (m *memIngredientRepo) FindByName(ctx context.Context, name string) (*domain.Ingredient, error) {
	for _, ing := range m.ingredients {
		if ing.Name == name && !ing.Deleted() {
			copied := *ing
			return &copied, nil
		}
	}
	return nil, domain.ErrIngredientNotFound
}

func (m *memIngredientRepo) FindAll(ctx context.Context, page, limit int) ([]*domain.Ingredient, int, error) {
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

func (m *memIngredientRepo) LatestPrice(ctx context.Context, id string) (decimal.Decimal, error) {
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

func (m *memIngredientRepo) SoftDelete(ctx context.Context, id string) (bool, error) {
	if ing, exists := m.ingredients[id]; exists && !ing.Deleted() {
		ing.SoftDelete()
		ing.Version++
		return true, nil
	}
	return false, nil
}

func (m *memIngredientRepo) Restore(ctx context.Context, id string) (bool, error) {
	if ing, exists := m.ingredients[id]; exists && ing.Deleted() {
		ing.Restore()
		ing.Version++
		return true, nil
	}
	return false, nil
}

type memRecipeRepo struct {
	recipes map[string]*domain.Recipe
}

func newMemRecipeRepo() *memRecipeRepo {
	return &memRecipeRepo{recipes: make(map[string]*domain.Recipe)}
}

func (m *memRecipeRepo) Save(ctx context.Context, recipe *domain.Recipe) error {
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

func (m *memRecipeRepo) FindByID(ctx context.Context, id string) (*domain.Recipe, error) {
	if recipe, exists := m.recipes[id]; exists && !recipe.Deleted() {
		copied := *recipe
		return &copied, nil
	}
	return nil, domain.ErrRecipeNotFound
}

func (m *memRecipeRepo) FindAll(ctx context.Context, page, limit int) ([]*domain.Recipe, int, error) {
	var items []*domain.Recipe
	for _, recipe := range m.recipes {
		if !recipe.Deleted() {
			copied := *recipe
			items = append(items, &copied)
		}
	}
	total := len(items)
	return items, total, nil
}

func (m *memRecipeRepo) SoftDelete(ctx context.Context, id string) (bool, error) {
	if recipe, exists := m.recipes[id]; exists && !recipe.Deleted() {
		recipe.SoftDelete()
		recipe.Version++
		return true, nil
	}
	return false, nil
}

func (m *memRecipeRepo) Restore(ctx context.Context, id string) (bool, error) {
	if recipe, exists := m.recipes[id]; exists && recipe.Deleted() {
		recipe.Restore()
		recipe.Version++
		return true, nil
	}
	return false, nil
}

type memPriceCache struct {
	entries map[string]decimal.Decimal
}

func newMemPriceCache() *memPriceCache {
	return &memPriceCache{entries: make(map[string]decimal.Decimal)}
}

func (c *memPriceCache) Get(ctx context.Context, key string) (decimal.Decimal, bool, error) {
	value, exists := c.entries[key]
	return value, exists, nil
}

func (c *memPriceCache) Set(ctx context.Context, key string, value decimal.Decimal, ttl time.Duration) error {
	c.entries[key] = value
	return nil
}

type quietLogger struct{}

func (quietLogger) Info(ctx context.Context, message string, fields map[string]interface{}) {}
func (quietLogger) Error(ctx context.Context, message string, err error, fields map[string]interface{}) {
}
func (quietLogger) Warn(ctx context.Context, message string, fields map[string]interface{}) {}
func (quietLogger) Debug(ctx context.Context, message string, fields map[string]interface{}) {}
func (l quietLogger) WithFields(fields map[string]interface{}) logger.Logger { return l }

func newTestRouter(t *testing.T) (*mux.Router, *memIngredientRepo, *memRecipeRepo) {
	t.Helper()
	ingredientRepo := newMemIngredientRepo()
	recipeRepo := newMemRecipeRepo()
	resolver := usecase.NewPriceResolver(ingredientRepo, newMemPriceCache(), 300*time.Second, quietLogger{})
	calculator := usecase.NewCostCalculator(ingredientRepo, resolver, quietLogger{})

	router := mux.NewRouter()
	NewIngredientHandler(usecase.NewIngredientUseCase(ingredientRepo, quietLogger{})).RegisterRoutes(router)
	NewRecipeHandler(usecase.NewRecipeUseCase(recipeRepo, calculator, quietLogger{})).RegisterRoutes(router)
	return router, ingredientRepo, recipeRepo
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return env
}

func TestIngredientHandler_Create(t *testing.T) {
	router, repo, _ := newTestRouter(t)

	body := `{"name": "Flour", "supplier": "Mill & Co", "prices": [{"price": "1.50"}]}`
	req := httptest.NewRequest("POST", "/api/v1/ingredients", strings.NewReader(body))
	req.Header.Set("X-User-ID", "user123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if !env.Status {
		t.Error("Expected status true")
	}
	if len(repo.ingredients) != 1 {
		t.Fatalf("Expected 1 stored ingredient, got %d", len(repo.ingredients))
	}
	for _, ing := range repo.ingredients {
		if ing.CreatedBy != "user123" {
			t.Errorf("Expected actor from header, got %s", ing.CreatedBy)
		}
	}
}

func TestIngredientHandler_Create_InvalidBody(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest("POST", "/api/v1/ingredients", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestIngredientHandler_Create_DuplicateName(t *testing.T) {
	router, _, _ := newTestRouter(t)

	body := `{"name": "Flour", "supplier": "Mill & Co"}`
	first := httptest.NewRequest("POST", "/api/v1/ingredients", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, first)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", rec.Code)
	}

	second := httptest.NewRequest("POST", "/api/v1/ingredients", strings.NewReader(body))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, second)
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 for duplicate name, got %d", rec.Code)
	}
}

func TestIngredientHandler_Get_NotFound(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/api/v1/ingredients/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

func TestIngredientHandler_LatestPrice_NullForEmptyLedger(t *testing.T) {
	router, repo, _ := newTestRouter(t)

	ing, _ := domain.NewIngredient("Flour", "Mill & Co", "user123")
	repo.Save(context.Background(), ing)

	req := httptest.NewRequest("GET", "/api/v1/ingredients/"+ing.ID+"/latest-price", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	data := env.Data.(map[string]interface{})
	if data["latest_price"] != nil {
		t.Errorf("Expected null latest_price, got %v", data["latest_price"])
	}
}

func TestRecipeHandler_CostRounding(t *testing.T) {
	router, ingredientRepo, _ := newTestRouter(t)

	flour, _ := domain.NewIngredient("Flour", "Mill & Co", "user123")
	flour.AddPrice(decimal.RequireFromString("1.80"), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	ingredientRepo.Save(context.Background(), flour)

	body := `{"name": "Cake", "lines": [{"ingredient_id": "` + flour.ID + `", "quantity": "0.2"}]}`
	create := httptest.NewRequest("POST", "/api/v1/recipes", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, create)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	recipeID := env.Data.(map[string]interface{})["id"].(string)

	req := httptest.NewRequest("GET", "/api/v1/recipes/"+recipeID+"/cost?fresh=true", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	env = decodeEnvelope(t, rec)
	data := env.Data.(map[string]interface{})
	if data["total_cost"] != "0.36" {
		t.Errorf("Expected total_cost 0.36, got %v", data["total_cost"])
	}
	lines := data["lines"].([]interface{})
	line := lines[0].(map[string]interface{})
	if line["quantity"] != "0.2000" {
		t.Errorf("Expected quantity 0.2000, got %v", line["quantity"])
	}
	if line["unit_price"] != "1.80" {
		t.Errorf("Expected unit_price 1.80, got %v", line["unit_price"])
	}
}

func TestRecipeHandler_Cost_MissingPriceIs404(t *testing.T) {
	router, ingredientRepo, _ := newTestRouter(t)

	unpriced, _ := domain.NewIngredient("Saffron", "Spice Trader", "user123")
	ingredientRepo.Save(context.Background(), unpriced)

	body := `{"name": "Cake", "lines": [{"ingredient_id": "` + unpriced.ID + `", "quantity": "0.01"}]}`
	create := httptest.NewRequest("POST", "/api/v1/recipes", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, create)
	env := decodeEnvelope(t, rec)
	recipeID := env.Data.(map[string]interface{})["id"].(string)

	req := httptest.NewRequest("GET", "/api/v1/recipes/"+recipeID+"/cost", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unpriced ingredient, got %d", rec.Code)
	}
}
