package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/costra/costra/application/port/outbound"
	"github.com/costra/costra/domain"
	"github.com/costra/costra/infrastructure/service/logger"
)

// CostCalculator turns a recipe's ingredient lines into a cost breakdown
// and total. Pricing is all-or-nothing: one unresolvable price fails the
// whole calculation. Display-name lookup is the only tolerated partial
// failure and degrades to a placeholder.
type CostCalculator struct {
	ingredientRepo outbound.IngredientRepository
	resolver       *PriceResolver
	logger         logger.Logger
}

func NewCostCalculator(
	ingredientRepo outbound.IngredientRepository,
	resolver *PriceResolver,
	log logger.Logger,
) *CostCalculator {
	return &CostCalculator{
		ingredientRepo: ingredientRepo,
		resolver:       resolver,
		logger:         log,
	}
}

// Calculate prices every line of the recipe in line order. Duplicate
// ingredient references collapse to one price lookup but still produce one
// breakdown line each. Intermediate math keeps full decimal precision;
// rounding belongs to presentation.
func (c *CostCalculator) Calculate(ctx context.Context, recipe *domain.Recipe, useCache bool) (*domain.CostBreakdown, error) {
	names := c.fetchDisplayNames(ctx, recipe)

	prices := make(map[string]decimal.Decimal, len(names))
	lines := make([]domain.CostLine, 0, len(recipe.Lines))
	total := decimal.Zero

	for _, line := range recipe.Lines {
		unitPrice, seen := prices[line.IngredientID]
		if !seen {
			resolved, err := c.resolver.Resolve(ctx, line.IngredientID, useCache)
			if err != nil {
				return nil, err
			}
			unitPrice = resolved
			prices[line.IngredientID] = unitPrice
		}

		name, ok := names[line.IngredientID]
		if !ok {
			name = domain.UnknownIngredientName
		}

		lineCost := line.Quantity.Mul(unitPrice)
		total = total.Add(lineCost)

		lines = append(lines, domain.CostLine{
			IngredientID:   line.IngredientID,
			IngredientName: name,
			Quantity:       line.Quantity,
			UnitPrice:      unitPrice,
			LineCost:       lineCost,
		})
	}

	return &domain.CostBreakdown{
		RecipeID:  recipe.ID,
		Lines:     lines,
		TotalCost: total,
	}, nil
}

// fetchDisplayNames batch-loads names for the distinct ingredients the
// recipe references. A failed batch lookup degrades every name to the
// placeholder; it must never abort a calculation.
func (c *CostCalculator) fetchDisplayNames(ctx context.Context, recipe *domain.Recipe) map[string]string {
	distinct := make([]string, 0, len(recipe.Lines))
	seen := make(map[string]struct{}, len(recipe.Lines))
	for _, line := range recipe.Lines {
		if _, ok := seen[line.IngredientID]; ok {
			continue
		}
		seen[line.IngredientID] = struct{}{}
		distinct = append(distinct, line.IngredientID)
	}

	names := make(map[string]string, len(distinct))
	ingredients, err := c.ingredientRepo.FindByIDs(ctx, distinct)
	if err != nil {
		c.logger.Warn(ctx, "Display name lookup failed, using placeholders", map[string]interface{}{
			"recipe_id": recipe.ID,
			"error":     err.Error(),
		})
		return names
	}
	for _, ing := range ingredients {
		names[ing.ID] = ing.Name
	}
	return names
}
