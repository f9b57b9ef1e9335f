package comment

import (
	"context"
	"time"

	"github.com/hn-son/let-him-cook-backend/models"
)

type CommentStorage interface {
	CreateComment(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	GetCommentByID(ctx context.Context, id string) (*models.Comment, error)
	GetCommentsByIDs(ctx context.Context, ids []string) ([]*models.Comment, error)
	// ListCommentsByRecipe сортирует от новых к старым
	ListCommentsByRecipe(ctx context.Context, recipeID string) ([]*models.Comment, error)
	UpdateComment(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	DeleteComment(ctx context.Context, id string) error

	DeleteCommentsByIDs(ctx context.Context, ids []string) (int64, error)
	DeleteCommentsByRecipes(ctx context.Context, recipeIDs []string) (int64, error)
	DeleteCommentsByAuthor(ctx context.Context, authorID string) (int64, error)
	// DeleteOrphanedComments удаляет комментарии к отсутствующим рецептам
	// и комментарии отсутствующих авторов; учитываются только созданные до before
	DeleteOrphanedComments(ctx context.Context, recipeIDs, authorIDs []string, before time.Time) (int64, error)
}
