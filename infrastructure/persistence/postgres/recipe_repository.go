package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/costra/costra/application/port/outbound"
	"github.com/costra/costra/domain"
)

// RecipeRepository persists the Recipe aggregate with raw SQL. Lines are
// rewritten wholesale inside the save transaction: the aggregate's in-memory
// line set is the source of truth, not individually managed rows.
type RecipeRepository struct{ db *sql.DB }

func NewRecipeRepository(db *sql.DB) outbound.RecipeRepository {
	return &RecipeRepository{db: db}
}

func (r *RecipeRepository) Save(ctx context.Context, recipe *domain.Recipe) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if recipe.Version == 0 {
		query := `
            INSERT INTO recipes (id, name, description, created_at, created_by, last_modified_at, last_modified_by, version, deleted_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, 1, $8)
        `
		if _, err := tx.ExecContext(ctx, query,
			recipe.ID, recipe.Name, nullableString(recipe.Description),
			recipe.CreatedAt, recipe.CreatedBy,
			recipe.LastModifiedAt, recipe.LastModifiedBy,
			recipe.DeletedAt,
		); err != nil {
			return fmt.Errorf("failed to insert recipe: %w", err)
		}
		recipe.Version = 1
	} else {
		query := `
            UPDATE recipes
            SET name = $2, description = $3, last_modified_at = $4, last_modified_by = $5,
                deleted_at = $6, version = version + 1
            WHERE id = $1 AND version = $7
        `
		result, err := tx.ExecContext(ctx, query,
			recipe.ID, recipe.Name, nullableString(recipe.Description),
			recipe.LastModifiedAt, recipe.LastModifiedBy,
			recipe.DeletedAt, recipe.Version,
		)
		if err != nil {
			return fmt.Errorf("failed to update recipe: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return r.disambiguateStaleSave(ctx, tx, recipe.ID)
		}
		recipe.Version++
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_lines WHERE recipe_id = $1`, recipe.ID); err != nil {
		return fmt.Errorf("failed to clear recipe lines: %w", err)
	}
	for position, line := range recipe.Lines {
		query := `
            INSERT INTO recipe_lines (id, recipe_id, ingredient_id, quantity, position)
            VALUES ($1, $2, $3, $4, $5)
        `
		if _, err := tx.ExecContext(ctx, query,
			line.ID, line.RecipeID, line.IngredientID, line.Quantity, position,
		); err != nil {
			return fmt.Errorf("failed to insert recipe line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recipe save: %w", err)
	}
	return nil
}

func (r *RecipeRepository) disambiguateStaleSave(ctx context.Context, tx *sql.Tx, id string) error {
	var stored int
	err := tx.QueryRowContext(ctx, `SELECT version FROM recipes WHERE id = $1`, id).Scan(&stored)
	if err == sql.ErrNoRows {
		return domain.ErrRecipeNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to probe recipe version: %w", err)
	}
	return domain.ErrVersionConflict
}

func (r *RecipeRepository) FindByID(ctx context.Context, id string) (*domain.Recipe, error) {
	query := `
        SELECT id, name, description, created_at, created_by, last_modified_at, last_modified_by, version, deleted_at
        FROM recipes
        WHERE id = $1 AND deleted_at IS NULL
    `
	recipe, err := r.scanRecipe(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadLines(ctx, []*domain.Recipe{recipe}); err != nil {
		return nil, err
	}
	return recipe, nil
}

func (r *RecipeRepository) FindAll(ctx context.Context, page, limit int) ([]*domain.Recipe, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recipes WHERE deleted_at IS NULL`,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}

	query := `
        SELECT id, name, description, created_at, created_by, last_modified_at, last_modified_by, version, deleted_at
        FROM recipes
        WHERE deleted_at IS NULL
        ORDER BY created_at DESC
        LIMIT $1 OFFSET $2
    `
	rows, err := r.db.QueryContext(ctx, query, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	var items []*domain.Recipe
	for rows.Next() {
		recipe, err := r.scanRecipe(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate recipes: %w", err)
	}

	if err := r.loadLines(ctx, items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *RecipeRepository) SoftDelete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE recipes SET deleted_at = $2, version = version + 1 WHERE id = $1 AND deleted_at IS NULL`,
		id, time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to soft-delete recipe: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *RecipeRepository) Restore(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE recipes SET deleted_at = NULL, version = version + 1 WHERE id = $1 AND deleted_at IS NOT NULL`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to restore recipe: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *RecipeRepository) scanRecipe(row rowScanner) (*domain.Recipe, error) {
	var recipe domain.Recipe
	var description sql.NullString
	var lastModifiedAt, deletedAt sql.NullTime
	var lastModifiedBy sql.NullString
	err := row.Scan(
		&recipe.ID, &recipe.Name, &description,
		&recipe.CreatedAt, &recipe.CreatedBy,
		&lastModifiedAt, &lastModifiedBy,
		&recipe.Version, &deletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrRecipeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan recipe: %w", err)
	}
	if description.Valid {
		recipe.Description = description.String
	}
	if lastModifiedAt.Valid {
		recipe.LastModifiedAt = &lastModifiedAt.Time
	}
	if lastModifiedBy.Valid {
		recipe.LastModifiedBy = &lastModifiedBy.String
	}
	if deletedAt.Valid {
		recipe.DeletedAt = &deletedAt.Time
	}
	return &recipe, nil
}

func (r *RecipeRepository) loadLines(ctx context.Context, items []*domain.Recipe) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, len(items))
	byID := make(map[string]*domain.Recipe, len(items))
	for i, recipe := range items {
		ids[i] = recipe.ID
		byID[recipe.ID] = recipe
	}

	query := `
        SELECT id, recipe_id, ingredient_id, quantity
        FROM recipe_lines
        WHERE recipe_id = ANY($1)
        ORDER BY recipe_id, position
    `
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load recipe lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.RecipeLine
		if err := rows.Scan(&line.ID, &line.RecipeID, &line.IngredientID, &line.Quantity); err != nil {
			return fmt.Errorf("failed to scan recipe line: %w", err)
		}
		recipe := byID[line.RecipeID]
		recipe.Lines = append(recipe.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate recipe lines: %w", err)
	}
	return nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
