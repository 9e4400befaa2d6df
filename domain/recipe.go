package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecipeLine binds a quantity of one ingredient to a recipe. Lines are owned
// by the recipe and are persisted and destroyed with it.
type RecipeLine struct {
	ID           string          `json:"id"`
	Quantity     decimal.Decimal `json:"quantity"`
	RecipeID     string          `json:"recipe_id"`
	IngredientID string          `json:"ingredient_id"`
}

// Recipe is the aggregate root for a recipe and its ingredient lines.
// Lines may reference ingredients that no longer exist; referential
// integrity is the storage layer's concern, not the aggregate's.
type Recipe struct {
	Name        string       `json:"name"`
	ID          string       `json:"id"`
	Description string       `json:"description,omitempty"`
	Lines       []RecipeLine `json:"lines"`
	Audit
}

// NewRecipe validates the name and description and returns a recipe with no
// lines yet. Callers must add at least one line before saving.
func NewRecipe(name, description, createdBy string) (*Recipe, error) {
	if name == "" {
		return nil, NewInvalidArgument("name", "recipe name is required")
	}
	if len(name) > 255 {
		return nil, NewInvalidArgument("name", "recipe name must be at most 255 characters")
	}
	if len(description) > 10000 {
		return nil, NewInvalidArgument("description", "description must be at most 10000 characters")
	}
	return &Recipe{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Audit:       NewAudit(createdBy),
	}, nil
}

// AddLine appends a line for the given ingredient.
func (r *Recipe) AddLine(ingredientID string, quantity decimal.Decimal) error {
	if ingredientID == "" {
		return NewInvalidArgument("ingredientId", "ingredient ID is required")
	}
	if !quantity.IsPositive() {
		return NewInvalidArgument("quantity", "quantity must be greater than zero")
	}
	r.Lines = append(r.Lines, RecipeLine{
		ID:           uuid.NewString(),
		Quantity:     quantity,
		RecipeID:     r.ID,
		IngredientID: ingredientID,
	})
	return nil
}

// RemoveLine drops the line with the given id. Removing a line that does not
// exist is a no-op, not an error.
func (r *Recipe) RemoveLine(lineID string) {
	for idx, line := range r.Lines {
		if line.ID == lineID {
			r.Lines = append(r.Lines[:idx], r.Lines[idx+1:]...)
			return
		}
	}
}

// Rename changes the recipe name.
func (r *Recipe) Rename(name string) error {
	if name == "" {
		return NewInvalidArgument("name", "recipe name is required")
	}
	if len(name) > 255 {
		return NewInvalidArgument("name", "recipe name must be at most 255 characters")
	}
	r.Name = name
	return nil
}

// SetDescription replaces the free-text description.
func (r *Recipe) SetDescription(description string) error {
	if len(description) > 10000 {
		return NewInvalidArgument("description", "description must be at most 10000 characters")
	}
	r.Description = description
	return nil
}
