package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/costra/costra/application/usecase"
	"github.com/costra/costra/domain"
	"github.com/costra/costra/infrastructure/persistence/postgres"
	"github.com/costra/costra/infrastructure/service/logger"
)

// Seeds a small demo catalog: a few priced ingredients and one recipe
// referencing them. Safe to re-run; existing names are left alone.
func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("failed to connect db: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("failed to ping db: %v", err)
	}

	ctx := context.Background()
	seedLogger := logger.New(logger.Config{Level: "info", Format: "text", ServiceName: "costra-seed"})
	ingredientRepo := postgres.NewIngredientRepository(db)
	recipeRepo := postgres.NewRecipeRepository(db)
	ingredients := usecase.NewIngredientUseCase(ingredientRepo, seedLogger)
	recipes := usecase.NewRecipeUseCase(recipeRepo, nil, seedLogger)

	const actor = "seed"
	now := time.Now().UTC()

	catalog := []struct {
		name     string
		supplier string
		price    string
	}{
		{"Flour", "Mill & Co", "1.50"},
		{"Sugar", "Sweet Supply", "0.90"},
		{"Butter", "Dairy Direct", "3.20"},
		{"Eggs", "Farm Fresh", "0.25"},
	}

	ids := make(map[string]string, len(catalog))
	for _, c := range catalog {
		existing, err := ingredientRepo.FindByName(ctx, c.name)
		if err != nil && err != domain.ErrIngredientNotFound {
			log.Fatalf("failed to check ingredient %q: %v", c.name, err)
		}
		if existing != nil {
			ids[c.name] = existing.ID
			fmt.Printf("Ingredient already present: %s (%s)\n", c.name, existing.ID)
			continue
		}

		created, err := ingredients.CreateIngredient(ctx, usecase.CreateIngredientRequest{
			Name:     c.name,
			Supplier: c.supplier,
			Prices: []usecase.SeedPrice{
				{Price: decimal.RequireFromString(c.price), ChangedAt: &now},
			},
			ActorID: actor,
		})
		if err != nil {
			log.Fatalf("failed to seed ingredient %q: %v", c.name, err)
		}
		ids[c.name] = created.ID
		fmt.Printf("Seeded ingredient: %s (%s)\n", created.Name, created.ID)
	}

	var recipeExists bool
	if err := db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM recipes WHERE name = $1 AND deleted_at IS NULL)",
		"Pound Cake").Scan(&recipeExists); err != nil {
		log.Fatalf("failed to check recipe: %v", err)
	}
	if recipeExists {
		fmt.Println("Recipe already present: Pound Cake")
		return
	}

	recipe, err := recipes.CreateRecipe(ctx, usecase.CreateRecipeRequest{
		Name:        "Pound Cake",
		Description: "Classic 1:1:1:1 pound cake.",
		Lines: []usecase.RecipeLineRequest{
			{IngredientID: ids["Flour"], Quantity: decimal.RequireFromString("0.5")},
			{IngredientID: ids["Sugar"], Quantity: decimal.RequireFromString("0.5")},
			{IngredientID: ids["Butter"], Quantity: decimal.RequireFromString("0.5")},
			{IngredientID: ids["Eggs"], Quantity: decimal.RequireFromString("4")},
		},
		ActorID: actor,
	})
	if err != nil {
		log.Fatalf("failed to seed recipe: %v", err)
	}
	fmt.Printf("Seeded recipe: %s (%s)\n", recipe.Name, recipe.ID)
}
