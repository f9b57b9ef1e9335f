package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/hn-son/let-him-cook-backend/models"
)

type UserStorage struct{ mock.Mock }

func userResult(args mock.Arguments) (*models.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserStorage) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	return userResult(m.Called(ctx, u))
}

func (m *UserStorage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return userResult(m.Called(ctx, id))
}

func (m *UserStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return userResult(m.Called(ctx, email))
}

func (m *UserStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return userResult(m.Called(ctx, username))
}

func (m *UserStorage) ListUsers(ctx context.Context, excludeID string, page models.Page) ([]*models.User, error) {
	args := m.Called(ctx, excludeID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *UserStorage) ListUserIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *UserStorage) UpdateUser(ctx context.Context, u *models.User) (*models.User, error) {
	return userResult(m.Called(ctx, u))
}

func (m *UserStorage) DeleteUser(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *UserStorage) AddFavorite(ctx context.Context, userID, recipeID string) (*models.User, error) {
	return userResult(m.Called(ctx, userID, recipeID))
}

func (m *UserStorage) RemoveFavorite(ctx context.Context, userID, recipeID string) (*models.User, error) {
	return userResult(m.Called(ctx, userID, recipeID))
}

func (m *UserStorage) RemoveFavoriteEverywhere(ctx context.Context, recipeIDs []string) error {
	return m.Called(ctx, recipeIDs).Error(0)
}

func (m *UserStorage) ListFavoriteRecipeIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *UserStorage) PruneFavorites(ctx context.Context, missingRecipeIDs []string) (int64, error) {
	args := m.Called(ctx, missingRecipeIDs)
	return args.Get(0).(int64), args.Error(1)
}
