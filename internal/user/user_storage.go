package user

import (
	"context"

	"github.com/hn-son/let-him-cook-backend/models"
)

type UserStorage interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// ListUsers сортирует по username и исключает excludeID
	ListUsers(ctx context.Context, excludeID string, page models.Page) ([]*models.User, error)
	ListUserIDs(ctx context.Context) ([]string, error)
	// UpdateUser перезаписывает username, email, пароль и роль
	UpdateUser(ctx context.Context, user *models.User) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error

	AddFavorite(ctx context.Context, userID, recipeID string) (*models.User, error)
	RemoveFavorite(ctx context.Context, userID, recipeID string) (*models.User, error)
	// RemoveFavoriteEverywhere убирает рецепты из избранного всех пользователей
	RemoveFavoriteEverywhere(ctx context.Context, recipeIDs []string) error
	// ListFavoriteRecipeIDs возвращает все рецепты, которые есть хоть у кого-то в избранном
	ListFavoriteRecipeIDs(ctx context.Context) ([]string, error)
	// PruneFavorites убирает из избранного удаленные рецепты,
	// возвращает число затронутых пользователей
	PruneFavorites(ctx context.Context, missingRecipeIDs []string) (int64, error)
}
