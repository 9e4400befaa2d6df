package domain

import (
	"github.com/shopspring/decimal"
)

// UnknownIngredientName is the placeholder display name used when the
// ingredient referenced by a recipe line cannot be looked up.
const UnknownIngredientName = "Unknown"

// CostLine is the resolved cost of a single recipe line.
type CostLine struct {
	IngredientID   string          `json:"ingredient_id"`
	IngredientName string          `json:"ingredient_name"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	LineCost       decimal.Decimal `json:"line_cost"`
}

// CostBreakdown is the derived, never-persisted result of pricing a recipe.
// Lines keep the recipe's line order; TotalCost is the sum of line costs at
// full precision. Rounding happens only at presentation.
type CostBreakdown struct {
	RecipeID  string          `json:"recipe_id"`
	Lines     []CostLine      `json:"lines"`
	TotalCost decimal.Decimal `json:"total_cost"`
}
