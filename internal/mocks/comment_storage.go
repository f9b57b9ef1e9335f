package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/hn-son/let-him-cook-backend/models"
)

type CommentStorage struct{ mock.Mock }

func commentResult(args mock.Arguments) (*models.Comment, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comment), args.Error(1)
}

func commentsResult(args mock.Arguments) ([]*models.Comment, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Comment), args.Error(1)
}

func (m *CommentStorage) CreateComment(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	return commentResult(m.Called(ctx, c))
}

func (m *CommentStorage) GetCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	return commentResult(m.Called(ctx, id))
}

func (m *CommentStorage) GetCommentsByIDs(ctx context.Context, ids []string) ([]*models.Comment, error) {
	return commentsResult(m.Called(ctx, ids))
}

func (m *CommentStorage) ListCommentsByRecipe(ctx context.Context, recipeID string) ([]*models.Comment, error) {
	return commentsResult(m.Called(ctx, recipeID))
}

func (m *CommentStorage) UpdateComment(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	return commentResult(m.Called(ctx, c))
}

func (m *CommentStorage) DeleteComment(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *CommentStorage) DeleteCommentsByIDs(ctx context.Context, ids []string) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *CommentStorage) DeleteCommentsByRecipes(ctx context.Context, recipeIDs []string) (int64, error) {
	args := m.Called(ctx, recipeIDs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *CommentStorage) DeleteCommentsByAuthor(ctx context.Context, authorID string) (int64, error) {
	args := m.Called(ctx, authorID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *CommentStorage) DeleteOrphanedComments(ctx context.Context, recipeIDs, authorIDs []string, before time.Time) (int64, error) {
	args := m.Called(ctx, recipeIDs, authorIDs, before)
	return args.Get(0).(int64), args.Error(1)
}
