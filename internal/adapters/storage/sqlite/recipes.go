package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hylla/famboard/internal/domain"
)

// recipeBody is the JSON column holding everything but the indexed fields.
type recipeBody struct {
	Description        string                     `json:"description,omitempty"`
	SourceURL          string                     `json:"source_url,omitempty"`
	ImageURLs          []string                   `json:"image_urls,omitempty"`
	IngredientSections []domain.IngredientSection `json:"ingredient_sections"`
	StepSections       []domain.StepSection       `json:"step_sections"`
}

// ListRecipes lists groupID's recipes, oldest first.
func (r *Repository) ListRecipes(ctx context.Context, groupID string) ([]domain.Recipe, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, body_json, created_at
		FROM recipes
		WHERE group_id = ?
		ORDER BY created_at ASC, id ASC
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Recipe{}
	for rows.Next() {
		var (
			rec        domain.Recipe
			bodyRaw    string
			createdRaw string
		)
		if err := rows.Scan(&rec.ID, &rec.Title, &bodyRaw, &createdRaw); err != nil {
			return nil, err
		}
		if strings.TrimSpace(bodyRaw) == "" {
			bodyRaw = "{}"
		}
		var body recipeBody
		if err := json.Unmarshal([]byte(bodyRaw), &body); err != nil {
			return nil, fmt.Errorf("decode recipes.body_json: %w", err)
		}
		rec.Description = body.Description
		rec.SourceURL = body.SourceURL
		rec.ImageURLs = body.ImageURLs
		rec.IngredientSections = body.IngredientSections
		rec.StepSections = body.StepSections
		rec.CreatedAt = parseTS(createdRaw)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SaveRecipe upserts recipe into groupID.
func (r *Repository) SaveRecipe(ctx context.Context, groupID string, recipe domain.Recipe) error {
	body, err := json.Marshal(recipeBody{
		Description:        recipe.Description,
		SourceURL:          recipe.SourceURL,
		ImageURLs:          recipe.ImageURLs,
		IngredientSections: recipe.IngredientSections,
		StepSections:       recipe.StepSections,
	})
	if err != nil {
		return fmt.Errorf("encode recipe body: %w", err)
	}
	createdAt := recipe.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO recipes(id, group_id, title, body_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			body_json = excluded.body_json,
			updated_at = excluded.updated_at
		WHERE recipes.group_id = excluded.group_id
	`, recipe.ID, groupID, recipe.Title, string(body), ts(createdAt), ts(r.now()))
	return err
}

// DeleteRecipe removes one recipe and drops it from groupID's categories.
func (r *Repository) DeleteRecipe(ctx context.Context, groupID, recipeID string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM recipes WHERE id = ? AND group_id = ?`, recipeID, groupID)
	if err != nil {
		return err
	}
	if err = translateNoRows(res); err != nil {
		return err
	}
	categories, err := listCategories(ctx, tx, groupID)
	if err != nil {
		return err
	}
	for _, c := range categories {
		kept := make([]string, 0, len(c.RecipeIDs))
		for _, id := range c.RecipeIDs {
			if id != recipeID {
				kept = append(kept, id)
			}
		}
		if len(kept) == len(c.RecipeIDs) {
			continue
		}
		c.RecipeIDs = kept
		if err = saveCategory(ctx, tx, groupID, c); err != nil {
			return err
		}
	}
	err = tx.Commit()
	return err
}

// ListCategories lists groupID's categories by name.
func (r *Repository) ListCategories(ctx context.Context, groupID string) ([]domain.Category, error) {
	return listCategories(ctx, r.db, groupID)
}

// SaveCategory upserts category into groupID.
func (r *Repository) SaveCategory(ctx context.Context, groupID string, category domain.Category) error {
	return saveCategory(ctx, r.db, groupID, category)
}

// ListShoppingItems lists groupID's shopping list in insertion order.
func (r *Repository) ListShoppingItems(ctx context.Context, groupID string) ([]domain.ShoppingItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, amount, checked, recipe_id
		FROM shopping_items
		WHERE group_id = ?
		ORDER BY created_at ASC, id ASC
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.ShoppingItem{}
	for rows.Next() {
		var item domain.ShoppingItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Amount, &item.Checked, &item.RecipeID); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// SaveShoppingItems upserts items into groupID.
func (r *Repository) SaveShoppingItems(ctx context.Context, groupID string, items []domain.ShoppingItem) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := r.now()
	for i, item := range items {
		// Items saved together keep their relative order.
		created := ts(now.Add(time.Duration(i)))
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO shopping_items(id, group_id, name, amount, checked, recipe_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				amount = excluded.amount,
				checked = excluded.checked,
				recipe_id = excluded.recipe_id
		`, item.ID, groupID, item.Name, item.Amount, item.Checked, item.RecipeID, created); err != nil {
			return err
		}
	}
	err = tx.Commit()
	return err
}

// DeleteShoppingItems removes ids from groupID; unknown ids are ignored.
func (r *Repository) DeleteShoppingItems(ctx context.Context, groupID string, ids []string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, id := range ids {
		if _, err = tx.ExecContext(ctx, `DELETE FROM shopping_items WHERE id = ? AND group_id = ?`, id, groupID); err != nil {
			return err
		}
	}
	err = tx.Commit()
	return err
}

func listCategories(ctx context.Context, q queryRower, groupID string) ([]domain.Category, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, recipe_ids_json
		FROM categories
		WHERE group_id = ?
		ORDER BY name COLLATE NOCASE ASC, id ASC
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Category{}
	for rows.Next() {
		var (
			c      domain.Category
			idsRaw string
		)
		if err := rows.Scan(&c.ID, &c.Name, &idsRaw); err != nil {
			return nil, err
		}
		if strings.TrimSpace(idsRaw) == "" {
			idsRaw = "[]"
		}
		if err := json.Unmarshal([]byte(idsRaw), &c.RecipeIDs); err != nil {
			return nil, fmt.Errorf("decode categories.recipe_ids_json: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func saveCategory(ctx context.Context, execer execerContext, groupID string, c domain.Category) error {
	ids := c.RecipeIDs
	if ids == nil {
		ids = []string{}
	}
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode category recipe ids: %w", err)
	}
	_, err = execer.ExecContext(ctx, `
		INSERT INTO categories(id, group_id, name, recipe_ids_json)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			recipe_ids_json = excluded.recipe_ids_json
		WHERE categories.group_id = excluded.group_id
	`, c.ID, groupID, strings.TrimSpace(c.Name), string(idsJSON))
	return err
}
