package graph

import (
	"context"

	"github.com/hn-son/let-him-cook-backend/internal/comment"
	"github.com/hn-son/let-him-cook-backend/internal/favorite"
	"github.com/hn-son/let-him-cook-backend/internal/media"
	"github.com/hn-son/let-him-cook-backend/internal/policy"
	"github.com/hn-son/let-him-cook-backend/internal/recipe"
	"github.com/hn-son/let-him-cook-backend/internal/user"
	"github.com/hn-son/let-him-cook-backend/models"
)

// ImageUploader выдает ссылки для загрузки картинок рецептов
type ImageUploader interface {
	PresignUpload(ctx context.Context, actor *policy.Actor, contentType string) (*media.Upload, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context, actor *policy.Actor) (*models.ReconcileReport, error)
}

// Resolver служит корневой точкой для всех резолверов Query и Mutation.
// Зависимости внедряются при сборке сервера.
type Resolver struct {
	UserService     *user.Service
	RecipeService   *recipe.Service
	CommentService  *comment.Service
	FavoriteService *favorite.Service
	Cascade         Reconciler
	// Images может быть nil, если S3 не настроен
	Images ImageUploader
}
