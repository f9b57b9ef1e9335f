package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jinzhu/gorm"

	"github.com/hn-son/let-him-cook-backend/internal/recipe"
	"github.com/hn-son/let-him-cook-backend/internal/storage"
	"github.com/hn-son/let-him-cook-backend/models"
)

const newestFirst = "created_at DESC, id DESC"

type RecipePostgresStorage struct {
	db *DB
}

func NewRecipePostgresStorage(db *DB) *RecipePostgresStorage {
	return &RecipePostgresStorage{db: db}
}

func (s *RecipePostgresStorage) CreateRecipe(ctx context.Context, r *models.Recipe) (*models.Recipe, error) {
	row := toRecipeRow(r)
	row.ID = uuid.NewString()

	if err := s.db.session(ctx).Create(row).Error; err != nil {
		return nil, fmt.Errorf("could not create recipe: %w", err)
	}
	return row.toModel(), nil
}

func (s *RecipePostgresStorage) GetRecipeByID(ctx context.Context, id string) (*models.Recipe, error) {
	var row recipeRow
	err := s.db.session(ctx).Where("id = ?", id).First(&row).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("could not load recipe: %w", err)
	}
	return row.toModel(), nil
}

func (s *RecipePostgresStorage) GetRecipesByIDs(ctx context.Context, ids []string) ([]*models.Recipe, error) {
	if len(ids) == 0 {
		return []*models.Recipe{}, nil
	}
	var rows []recipeRow
	if err := s.db.session(ctx).Where("id IN (?)", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("could not load recipes: %w", err)
	}

	// порядок ответа повторяет порядок ids
	byID := make(map[string]*models.Recipe, len(rows))
	for i := range rows {
		byID[rows[i].ID] = rows[i].toModel()
	}
	out := make([]*models.Recipe, 0, len(rows))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
			delete(byID, id)
		}
	}
	return out, nil
}

func (s *RecipePostgresStorage) ListRecipes(ctx context.Context, filter recipe.Filter) ([]*models.Recipe, error) {
	q := s.db.session(ctx)
	if filter.Approved != nil {
		q = q.Where("is_approved = ?", *filter.Approved)
	}
	if filter.AuthorID != "" {
		q = q.Where("author_id = ?", filter.AuthorID)
	}
	if len(filter.IngredientNames) > 0 {
		clauses := make([]string, 0, len(filter.IngredientNames))
		args := make([]interface{}, 0, len(filter.IngredientNames))
		for _, name := range filter.IngredientNames {
			name = strings.ToLower(strings.TrimSpace(name))
			clauses = append(clauses, `ingredient_names LIKE ? ESCAPE '\'`)
			args = append(args, "%|"+likePattern(name)+"|%")
		}
		q = q.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}
	return s.find(paged(q.Order(newestFirst), filter.Page))
}

func (s *RecipePostgresStorage) find(q *gorm.DB) ([]*models.Recipe, error) {
	var rows []recipeRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("could not list recipes: %w", err)
	}
	return toRecipes(rows), nil
}

func toRecipes(rows []recipeRow) []*models.Recipe {
	out := make([]*models.Recipe, len(rows))
	for i := range rows {
		out[i] = rows[i].toModel()
	}
	return out
}

func (s *RecipePostgresStorage) ListRecipeIDs(ctx context.Context, authorID string) ([]string, error) {
	q := s.db.session(ctx).Model(&recipeRow{})
	if authorID != "" {
		q = q.Where("author_id = ?", authorID)
	}
	ids := []string{}
	if err := q.Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("could not list recipe ids: %w", err)
	}
	return ids, nil
}

func (s *RecipePostgresStorage) ListOrphanedRecipeIDs(ctx context.Context, knownAuthorIDs []string) ([]string, error) {
	q := s.db.session(ctx).Model(&recipeRow{})
	if len(knownAuthorIDs) > 0 {
		q = q.Where("author_id NOT IN (?)", knownAuthorIDs)
	}
	ids := []string{}
	if err := q.Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("could not list orphaned recipes: %w", err)
	}
	return ids, nil
}

const textSearchSQL = `SELECT * FROM recipes
WHERE is_approved = ?
  AND to_tsvector('simple', title || ' ' || ingredient_names) @@ plainto_tsquery('simple', ?)
ORDER BY ts_rank(to_tsvector('simple', title || ' ' || ingredient_names), plainto_tsquery('simple', ?)) DESC, ` + newestFirst + `
LIMIT ? OFFSET ?`

func (s *RecipePostgresStorage) SearchText(ctx context.Context, query string, page models.Page) ([]*models.Recipe, error) {
	if !s.db.hasTextSearch() {
		return nil, storage.ErrNoTextIndex
	}

	var rows []recipeRow
	err := s.db.session(ctx).
		Raw(textSearchSQL, true, query, query, page.Limit, page.Offset).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("could not search recipes: %w", err)
	}
	return toRecipes(rows), nil
}

func (s *RecipePostgresStorage) SearchTitle(ctx context.Context, query string, page models.Page) ([]*models.Recipe, error) {
	pattern := "%" + likePattern(strings.ToLower(query)) + "%"
	q := s.db.session(ctx).
		Where("is_approved = ?", true).
		Where(`LOWER(title) LIKE ? ESCAPE '\'`, pattern).
		Order(newestFirst)
	return s.find(paged(q, page))
}

// UpdateRecipe не трогает автора и дату создания
func (s *RecipePostgresStorage) UpdateRecipe(ctx context.Context, r *models.Recipe) (*models.Recipe, error) {
	row := toRecipeRow(r)
	res := s.db.session(ctx).Model(&recipeRow{}).Where("id = ?", r.ID).UpdateColumns(map[string]interface{}{
		"title":            row.Title,
		"description":      row.Description,
		"ingredients":      row.Ingredients,
		"ingredient_names": row.IngredientNames,
		"steps":            row.Steps,
		"cooking_time":     row.CookingTime,
		"difficulty":       row.Difficulty,
		"image_url":        row.ImageURL,
		"is_approved":      row.IsApproved,
		"updated_at":       row.UpdatedAt,
	})
	if res.Error != nil {
		return nil, fmt.Errorf("could not update recipe: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, storage.ErrNotFound
	}
	return s.GetRecipeByID(ctx, r.ID)
}

func (s *RecipePostgresStorage) SetApproved(ctx context.Context, id string, approved bool) (*models.Recipe, error) {
	res := s.db.session(ctx).Model(&recipeRow{}).Where("id = ?", id).UpdateColumn("is_approved", approved)
	if res.Error != nil {
		return nil, fmt.Errorf("could not update recipe: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, storage.ErrNotFound
	}
	return s.GetRecipeByID(ctx, id)
}

func (s *RecipePostgresStorage) DeleteRecipe(ctx context.Context, id string) error {
	res := s.db.session(ctx).Where("id = ?", id).Delete(&recipeRow{})
	if res.Error != nil {
		return fmt.Errorf("could not delete recipe: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *RecipePostgresStorage) DeleteRecipes(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := s.db.session(ctx).Where("id IN (?)", ids).Delete(&recipeRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("could not delete recipes: %w", res.Error)
	}
	return res.RowsAffected, nil
}
