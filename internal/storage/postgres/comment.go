package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/gorm"

	"github.com/hn-son/let-him-cook-backend/internal/storage"
	"github.com/hn-son/let-him-cook-backend/models"
)

type CommentPostgresStorage struct {
	db *DB
}

func NewCommentPostgresStorage(db *DB) *CommentPostgresStorage {
	return &CommentPostgresStorage{db: db}
}

func (s *CommentPostgresStorage) CreateComment(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	row := toCommentRow(c)
	row.ID = uuid.NewString()

	if err := s.db.session(ctx).Create(row).Error; err != nil {
		return nil, fmt.Errorf("could not create comment: %w", err)
	}
	return row.toModel(), nil
}

func (s *CommentPostgresStorage) GetCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	var row commentRow
	err := s.db.session(ctx).Where("id = ?", id).First(&row).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("could not load comment: %w", err)
	}
	return row.toModel(), nil
}

func (s *CommentPostgresStorage) GetCommentsByIDs(ctx context.Context, ids []string) ([]*models.Comment, error) {
	if len(ids) == 0 {
		return []*models.Comment{}, nil
	}
	return s.find(s.db.session(ctx).Where("id IN (?)", ids).Order(newestFirst))
}

func (s *CommentPostgresStorage) ListCommentsByRecipe(ctx context.Context, recipeID string) ([]*models.Comment, error) {
	return s.find(s.db.session(ctx).Where("recipe_id = ?", recipeID).Order(newestFirst))
}

func (s *CommentPostgresStorage) find(q *gorm.DB) ([]*models.Comment, error) {
	var rows []commentRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("could not list comments: %w", err)
	}
	out := make([]*models.Comment, len(rows))
	for i := range rows {
		out[i] = rows[i].toModel()
	}
	return out, nil
}

func (s *CommentPostgresStorage) UpdateComment(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	res := s.db.session(ctx).Model(&commentRow{}).Where("id = ?", c.ID).UpdateColumns(map[string]interface{}{
		"content":    c.Content,
		"updated_at": c.UpdatedAt,
	})
	if res.Error != nil {
		return nil, fmt.Errorf("could not update comment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, storage.ErrNotFound
	}
	return s.GetCommentByID(ctx, c.ID)
}

func (s *CommentPostgresStorage) DeleteComment(ctx context.Context, id string) error {
	res := s.db.session(ctx).Where("id = ?", id).Delete(&commentRow{})
	if res.Error != nil {
		return fmt.Errorf("could not delete comment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *CommentPostgresStorage) DeleteCommentsByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return s.deleteWhere(ctx, "id IN (?)", ids)
}

func (s *CommentPostgresStorage) DeleteCommentsByRecipes(ctx context.Context, recipeIDs []string) (int64, error) {
	if len(recipeIDs) == 0 {
		return 0, nil
	}
	return s.deleteWhere(ctx, "recipe_id IN (?)", recipeIDs)
}

func (s *CommentPostgresStorage) DeleteCommentsByAuthor(ctx context.Context, authorID string) (int64, error) {
	return s.deleteWhere(ctx, "author_id = ?", authorID)
}

// DeleteOrphanedComments при пустом списке считает отсутствующими все рецепты (или всех авторов)
func (s *CommentPostgresStorage) DeleteOrphanedComments(ctx context.Context, recipeIDs, authorIDs []string, before time.Time) (int64, error) {
	if len(recipeIDs) == 0 || len(authorIDs) == 0 {
		return s.deleteWhere(ctx, "created_at < ?", before)
	}
	return s.deleteWhere(ctx, "created_at < ? AND (recipe_id NOT IN (?) OR author_id NOT IN (?))", before, recipeIDs, authorIDs)
}

func (s *CommentPostgresStorage) deleteWhere(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res := s.db.session(ctx).Where(query, args...).Delete(&commentRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("could not delete comments: %w", res.Error)
	}
	return res.RowsAffected, nil
}
