package usecase

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/costra/costra/application/port/outbound"
	"github.com/costra/costra/domain"
	"github.com/costra/costra/infrastructure/service/logger"
)

// SeedPrice is an optional initial ledger entry supplied at creation time.
type SeedPrice struct {
	Price     decimal.Decimal `json:"price"`
	ChangedAt *time.Time      `json:"changed_at,omitempty"`
}

type CreateIngredientRequest struct {
	Name     string      `json:"name"`
	Supplier string      `json:"supplier"`
	Prices   []SeedPrice `json:"prices,omitempty"`
	ActorID  string      `json:"-"`
}

type CreateIngredientResult struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Supplier  string    `json:"supplier"`
	CreatedAt time.Time `json:"created_at"`
}

type AddPriceRequest struct {
	IngredientID string          `json:"-"`
	Price        decimal.Decimal `json:"price"`
	ChangedAt    *time.Time      `json:"changed_at,omitempty"`
	ActorID      string          `json:"-"`
}

type AddPriceResult struct {
	IngredientID string          `json:"ingredient_id"`
	Price        decimal.Decimal `json:"price"`
	ChangedAt    time.Time       `json:"changed_at"`
}

type LatestPriceResult struct {
	IngredientID string           `json:"ingredient_id"`
	LatestPrice  *decimal.Decimal `json:"latest_price"`
}

type ImportResult struct {
	ImportedCount int `json:"imported_count"`
	SkippedCount  int `json:"skipped_count"`
}

// IngredientUseCase carries the ingredient-side operations: creation,
// ledger appends, lookups, lifecycle and bulk import.
type IngredientUseCase struct {
	ingredientRepo outbound.IngredientRepository
	logger         logger.Logger
}

func NewIngredientUseCase(ingredientRepo outbound.IngredientRepository, log logger.Logger) *IngredientUseCase {
	return &IngredientUseCase{ingredientRepo: ingredientRepo, logger: log}
}

// CreateIngredient creates an ingredient, optionally seeded with initial
// price entries. The name must be unique among non-deleted ingredients.
func (uc *IngredientUseCase) CreateIngredient(ctx context.Context, req CreateIngredientRequest) (*CreateIngredientResult, error) {
	existing, err := uc.ingredientRepo.FindByName(ctx, strings.TrimSpace(req.Name))
	if err != nil && err != domain.ErrIngredientNotFound {
		return nil, fmt.Errorf("failed to check ingredient name: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrNameTaken
	}

	ingredient, err := domain.NewIngredient(strings.TrimSpace(req.Name), strings.TrimSpace(req.Supplier), req.ActorID)
	if err != nil {
		return nil, err
	}

	for _, seed := range req.Prices {
		changedAt := time.Now().UTC()
		if seed.ChangedAt != nil {
			changedAt = *seed.ChangedAt
		}
		if err := ingredient.AddPrice(seed.Price, changedAt); err != nil {
			return nil, err
		}
	}

	if err := uc.ingredientRepo.Save(ctx, ingredient); err != nil {
		return nil, err
	}

	uc.logger.Info(ctx, "Ingredient created", map[string]interface{}{
		"ingredient_id": ingredient.ID,
		"name":          ingredient.Name,
		"seed_prices":   len(req.Prices),
	})

	return &CreateIngredientResult{
		ID:        ingredient.ID,
		Name:      ingredient.Name,
		Supplier:  ingredient.Supplier,
		CreatedAt: ingredient.CreatedAt,
	}, nil
}

// AddPrice appends a price entry to an existing ingredient's ledger.
func (uc *IngredientUseCase) AddPrice(ctx context.Context, req AddPriceRequest) (*AddPriceResult, error) {
	if strings.TrimSpace(req.IngredientID) == "" {
		return nil, domain.NewInvalidArgument("ingredientId", "ingredient ID is required")
	}

	ingredient, err := uc.ingredientRepo.FindByID(ctx, req.IngredientID)
	if err != nil {
		return nil, err
	}

	changedAt := time.Now().UTC()
	if req.ChangedAt != nil {
		changedAt = *req.ChangedAt
	}
	if err := ingredient.AddPrice(req.Price, changedAt); err != nil {
		return nil, err
	}
	ingredient.MarkModified(req.ActorID)

	if err := uc.ingredientRepo.Save(ctx, ingredient); err != nil {
		return nil, err
	}

	uc.logger.Info(ctx, "Price added to ingredient", map[string]interface{}{
		"ingredient_id": ingredient.ID,
		"price":         req.Price.String(),
	})

	return &AddPriceResult{
		IngredientID: ingredient.ID,
		Price:        req.Price,
		ChangedAt:    changedAt,
	}, nil
}

// GetIngredient loads one ingredient with its full price history.
func (uc *IngredientUseCase) GetIngredient(ctx context.Context, id string) (*domain.Ingredient, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.NewInvalidArgument("id", "ingredient ID is required")
	}
	return uc.ingredientRepo.FindByID(ctx, id)
}

// GetLatestPrice checks the ingredient exists, then reads the freshest
// price straight from the store. An existing ingredient with an empty
// ledger yields a nil price, not an error.
func (uc *IngredientUseCase) GetLatestPrice(ctx context.Context, id string) (*LatestPriceResult, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.NewInvalidArgument("id", "ingredient ID is required")
	}

	if _, err := uc.ingredientRepo.FindByID(ctx, id); err != nil {
		return nil, err
	}

	price, err := uc.ingredientRepo.LatestPrice(ctx, id)
	if err == domain.ErrPriceNotFound {
		return &LatestPriceResult{IngredientID: id}, nil
	}
	if err != nil {
		return nil, err
	}
	return &LatestPriceResult{IngredientID: id, LatestPrice: &price}, nil
}

// ListIngredients returns one page plus the total count of non-deleted
// ingredients, newest first.
func (uc *IngredientUseCase) ListIngredients(ctx context.Context, page, limit int) ([]*domain.Ingredient, int, error) {
	if page < 1 {
		return nil, 0, domain.NewInvalidArgument("page", "page must be >= 1")
	}
	if limit < 1 {
		return nil, 0, domain.NewInvalidArgument("limit", "limit must be >= 1")
	}
	return uc.ingredientRepo.FindAll(ctx, page, limit)
}

// DeleteIngredient soft-deletes; the row is retained and restorable.
func (uc *IngredientUseCase) DeleteIngredient(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.NewInvalidArgument("id", "ingredient ID is required")
	}
	deleted, err := uc.ingredientRepo.SoftDelete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrIngredientNotFound
	}
	uc.logger.Info(ctx, "Ingredient soft-deleted", map[string]interface{}{"ingredient_id": id})
	return nil
}

// RestoreIngredient clears the soft-delete marker.
func (uc *IngredientUseCase) RestoreIngredient(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.NewInvalidArgument("id", "ingredient ID is required")
	}
	restored, err := uc.ingredientRepo.Restore(ctx, id)
	if err != nil {
		return err
	}
	if !restored {
		return domain.ErrIngredientNotFound
	}
	uc.logger.Info(ctx, "Ingredient restored", map[string]interface{}{"ingredient_id": id})
	return nil
}

// ImportIngredientsCSV reads name,supplier rows and creates the ingredients
// that don't exist yet. Rows with blank fields and names already present
// are counted as skipped.
func (uc *IngredientUseCase) ImportIngredientsCSV(ctx context.Context, r io.Reader, actorID string) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	nameIdx, supplierIdx := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "name":
			nameIdx = i
		case "supplier":
			supplierIdx = i
		}
	}
	if nameIdx < 0 || supplierIdx < 0 {
		return nil, domain.NewInvalidArgument("csv", "header must contain name and supplier columns")
	}

	result := &ImportResult{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		if nameIdx >= len(record) || supplierIdx >= len(record) {
			result.SkippedCount++
			continue
		}
		name := strings.TrimSpace(record[nameIdx])
		supplier := strings.TrimSpace(record[supplierIdx])
		if name == "" || supplier == "" {
			result.SkippedCount++
			continue
		}

		existing, err := uc.ingredientRepo.FindByName(ctx, name)
		if err != nil && err != domain.ErrIngredientNotFound {
			return nil, fmt.Errorf("failed to check ingredient name: %w", err)
		}
		if existing != nil {
			result.SkippedCount++
			continue
		}

		ingredient, err := domain.NewIngredient(name, supplier, actorID)
		if err != nil {
			result.SkippedCount++
			continue
		}
		if err := uc.ingredientRepo.Save(ctx, ingredient); err != nil {
			return nil, err
		}
		result.ImportedCount++
	}

	uc.logger.Info(ctx, "Ingredient CSV import finished", map[string]interface{}{
		"imported": result.ImportedCount,
		"skipped":  result.SkippedCount,
	})
	return result, nil
}

// PriceChangeItem is one ingredient's batch of historical price changes in
// the JSON import payload.
type PriceChangeItem struct {
	IngredientName string `json:"ingredient_name"`
	PriceChanges   []struct {
		Price     decimal.Decimal `json:"price"`
		ChangedAt time.Time       `json:"changed_at"`
	} `json:"price_changes"`
}

// ImportPriceChangesJSON appends historical price changes to existing
// ingredients, matched by name. Changes for unknown ingredients are skipped.
func (uc *IngredientUseCase) ImportPriceChangesJSON(ctx context.Context, r io.Reader, actorID string) (*ImportResult, error) {
	var items []PriceChangeItem
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, domain.NewInvalidArgument("json", fmt.Sprintf("invalid price change payload: %v", err))
	}

	result := &ImportResult{}
	for _, item := range items {
		ingredient, err := uc.ingredientRepo.FindByName(ctx, strings.TrimSpace(item.IngredientName))
		if err == domain.ErrIngredientNotFound {
			result.SkippedCount += len(item.PriceChanges)
			continue
		}
		if err != nil {
			return nil, err
		}

		appended := 0
		for _, change := range item.PriceChanges {
			if err := ingredient.AddPrice(change.Price, change.ChangedAt); err != nil {
				result.SkippedCount++
				continue
			}
			appended++
		}
		if appended == 0 {
			continue
		}
		ingredient.MarkModified(actorID)
		if err := uc.ingredientRepo.Save(ctx, ingredient); err != nil {
			return nil, err
		}
		result.ImportedCount += appended
	}

	uc.logger.Info(ctx, "Price change import finished", map[string]interface{}{
		"imported": result.ImportedCount,
		"skipped":  result.SkippedCount,
	})
	return result, nil
}
