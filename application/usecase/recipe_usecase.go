package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/costra/costra/application/port/outbound"
	"github.com/costra/costra/domain"
	"github.com/costra/costra/infrastructure/service/logger"
)

type RecipeLineRequest struct {
	IngredientID string          `json:"ingredient_id"`
	Quantity     decimal.Decimal `json:"quantity"`
}

type CreateRecipeRequest struct {
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Lines       []RecipeLineRequest `json:"lines"`
	ActorID     string              `json:"-"`
}

type CreateRecipeResult struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type UpdateRecipeRequest struct {
	ID          string  `json:"-"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	ActorID     string  `json:"-"`
}

type UpdateRecipeResult struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description,omitempty"`
	Version        int        `json:"version"`
	LastModifiedAt *time.Time `json:"last_modified_at,omitempty"`
}

// RecipeWithCost pairs a recipe snapshot with its cost breakdown.
type RecipeWithCost struct {
	Recipe    *domain.Recipe        `json:"recipe"`
	Breakdown *domain.CostBreakdown `json:"breakdown"`
}

// RecipeUseCase carries recipe CRUD, lifecycle and costing operations.
type RecipeUseCase struct {
	recipeRepo outbound.RecipeRepository
	calculator *CostCalculator
	logger     logger.Logger
}

func NewRecipeUseCase(recipeRepo outbound.RecipeRepository, calculator *CostCalculator, log logger.Logger) *RecipeUseCase {
	return &RecipeUseCase{recipeRepo: recipeRepo, calculator: calculator, logger: log}
}

// CreateRecipe builds and saves a recipe with its initial line set. At
// least one line is required; every line needs an ingredient reference and
// a positive quantity.
func (uc *RecipeUseCase) CreateRecipe(ctx context.Context, req CreateRecipeRequest) (*CreateRecipeResult, error) {
	if len(req.Lines) == 0 {
		return nil, domain.NewInvalidArgument("lines", "at least one ingredient line is required")
	}

	recipe, err := domain.NewRecipe(strings.TrimSpace(req.Name), strings.TrimSpace(req.Description), req.ActorID)
	if err != nil {
		return nil, err
	}
	for _, line := range req.Lines {
		if err := recipe.AddLine(strings.TrimSpace(line.IngredientID), line.Quantity); err != nil {
			return nil, err
		}
	}

	if err := uc.recipeRepo.Save(ctx, recipe); err != nil {
		return nil, err
	}

	uc.logger.Info(ctx, "Recipe created", map[string]interface{}{
		"recipe_id": recipe.ID,
		"name":      recipe.Name,
		"lines":     len(recipe.Lines),
	})

	return &CreateRecipeResult{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Description: recipe.Description,
		CreatedAt:   recipe.CreatedAt,
	}, nil
}

// UpdateRecipe renames a recipe and/or replaces its description. At least
// one field must be provided. The save is version-checked; a concurrent
// writer surfaces as domain.ErrVersionConflict for the caller to retry.
func (uc *RecipeUseCase) UpdateRecipe(ctx context.Context, req UpdateRecipeRequest) (*UpdateRecipeResult, error) {
	if strings.TrimSpace(req.ID) == "" {
		return nil, domain.NewInvalidArgument("id", "recipe ID is required")
	}
	if req.Name == nil && req.Description == nil {
		return nil, domain.NewInvalidArgument("request", "at least one of name or description must be provided")
	}

	recipe, err := uc.recipeRepo.FindByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if err := recipe.Rename(strings.TrimSpace(*req.Name)); err != nil {
			return nil, err
		}
	}
	if req.Description != nil {
		if err := recipe.SetDescription(strings.TrimSpace(*req.Description)); err != nil {
			return nil, err
		}
	}
	recipe.MarkModified(req.ActorID)

	if err := uc.recipeRepo.Save(ctx, recipe); err != nil {
		return nil, err
	}

	uc.logger.Info(ctx, "Recipe updated", map[string]interface{}{
		"recipe_id": recipe.ID,
		"version":   recipe.Version,
	})

	return &UpdateRecipeResult{
		ID:             recipe.ID,
		Name:           recipe.Name,
		Description:    recipe.Description,
		Version:        recipe.Version,
		LastModifiedAt: recipe.LastModifiedAt,
	}, nil
}

// GetRecipe loads one recipe with its lines.
func (uc *RecipeUseCase) GetRecipe(ctx context.Context, id string) (*domain.Recipe, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.NewInvalidArgument("id", "recipe ID is required")
	}
	return uc.recipeRepo.FindByID(ctx, id)
}

// ListRecipes returns one page plus the total count, newest first.
func (uc *RecipeUseCase) ListRecipes(ctx context.Context, page, limit int) ([]*domain.Recipe, int, error) {
	if page < 1 {
		return nil, 0, domain.NewInvalidArgument("page", "page must be >= 1")
	}
	if limit < 1 {
		return nil, 0, domain.NewInvalidArgument("limit", "limit must be >= 1")
	}
	return uc.recipeRepo.FindAll(ctx, page, limit)
}

// GetRecipeWithCost loads the recipe and prices it. fresh=true bypasses the
// price cache for read-after-write consistency at the cost of store load.
func (uc *RecipeUseCase) GetRecipeWithCost(ctx context.Context, id string, fresh bool) (*RecipeWithCost, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.NewInvalidArgument("id", "recipe ID is required")
	}

	recipe, err := uc.recipeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	breakdown, err := uc.calculator.Calculate(ctx, recipe, !fresh)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate recipe cost: %w", err)
	}

	uc.logger.Info(ctx, "Recipe cost calculated", map[string]interface{}{
		"recipe_id":  recipe.ID,
		"total_cost": breakdown.TotalCost.StringFixed(2),
		"cache":      !fresh,
	})

	return &RecipeWithCost{Recipe: recipe, Breakdown: breakdown}, nil
}

// DeleteRecipe soft-deletes; lines stay in place for a later restore.
func (uc *RecipeUseCase) DeleteRecipe(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.NewInvalidArgument("id", "recipe ID is required")
	}
	deleted, err := uc.recipeRepo.SoftDelete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrRecipeNotFound
	}
	uc.logger.Info(ctx, "Recipe soft-deleted", map[string]interface{}{"recipe_id": id})
	return nil
}

// RestoreRecipe clears the soft-delete marker.
func (uc *RecipeUseCase) RestoreRecipe(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.NewInvalidArgument("id", "recipe ID is required")
	}
	restored, err := uc.recipeRepo.Restore(ctx, id)
	if err != nil {
		return err
	}
	if !restored {
		return domain.ErrRecipeNotFound
	}
	uc.logger.Info(ctx, "Recipe restored", map[string]interface{}{"recipe_id": id})
	return nil
}
