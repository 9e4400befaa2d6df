package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"

	"github.com/costra/costra/application/usecase"
	"github.com/costra/costra/infrastructure/persistence/postgres"
	"github.com/costra/costra/infrastructure/service/logger"
)

// Bulk importer for catalog data.
//
//	importer -kind ingredients -file data/ingredients.csv
//	importer -kind prices -file data/price_changes.json
func main() {
	kind := flag.String("kind", "ingredients", "import kind: ingredients (CSV) or prices (JSON)")
	file := flag.String("file", "", "path to the import file")
	actor := flag.String("actor", "importer", "actor recorded in the audit trail")
	flag.Parse()

	if *file == "" {
		log.Fatal("-file is required")
	}

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

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("failed to open %s: %v", *file, err)
	}
	defer f.Close()

	ctx := context.Background()
	importLogger := logger.New(logger.Config{Level: "info", Format: "text", ServiceName: "costra-importer"})
	ingredients := usecase.NewIngredientUseCase(postgres.NewIngredientRepository(db), importLogger)

	var result *usecase.ImportResult
	switch *kind {
	case "ingredients":
		result, err = ingredients.ImportIngredientsCSV(ctx, f, *actor)
	case "prices":
		result, err = ingredients.ImportPriceChangesJSON(ctx, f, *actor)
	default:
		log.Fatalf("unknown kind: %s", *kind)
	}
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}

	fmt.Printf("Import finished: imported=%d skipped=%d\n", result.ImportedCount, result.SkippedCount)
}
