package comment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/hn-son/let-him-cook-backend/internal/apperror"
	"github.com/hn-son/let-him-cook-backend/internal/content"
	"github.com/hn-son/let-him-cook-backend/internal/policy"
	"github.com/hn-son/let-him-cook-backend/internal/storage"
	"github.com/hn-son/let-him-cook-backend/internal/subscription"
	"github.com/hn-son/let-him-cook-backend/internal/validation"
	"github.com/hn-son/let-him-cook-backend/models"
)

const maxContentLength = 2000

// RecipeFinder - то, что сервису нужно знать о рецептах
type RecipeFinder interface {
	GetRecipeByID(ctx context.Context, id string) (*models.Recipe, error)
}

type UserFinder interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

type DeleteResult struct {
	Success   bool
	Message   string
	DeletedBy models.Role
}

type BulkDeleteResult struct {
	Success      bool
	Message      string
	DeletedCount int64
	TargetUser   string
}

type Service struct {
	store   CommentStorage
	recipes RecipeFinder
	users   UserFinder
	events  subscription.Publisher
	now     func() time.Time
}

func NewService(store CommentStorage, recipes RecipeFinder, users UserFinder, events subscription.Publisher) *Service {
	return &Service{
		store:   store,
		recipes: recipes,
		users:   users,
		events:  events,
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

func (s *Service) Add(ctx context.Context, actor *policy.Actor, recipeID, text string) (*models.Comment, error) {
	if err := policy.IsAuthenticated(actor); err != nil {
		return nil, err
	}

	r, err := s.recipes.GetRecipeByID(ctx, recipeID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperror.NotFound("recipe not found")
	}
	if err != nil {
		return nil, apperror.Wrap(err, "failed to load recipe")
	}
	if !r.IsApproved {
		return nil, apperror.InvalidState("cannot comment on a recipe that is not approved")
	}

	text, err = cleanContent(text)
	if err != nil {
		return nil, err
	}

	now := s.now()
	created, err := s.store.CreateComment(ctx, &models.Comment{
		Content:   text,
		RecipeID:  recipeID,
		AuthorID:  actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, apperror.Wrap(err, "failed to create comment")
	}

	if s.events != nil {
		s.events.Publish(subscription.TopicCommentAdded, subscription.Event{
			RecipeID:  recipeID,
			CommentID: created.ID,
			ActorID:   actor.ID,
		})
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Comment, error) {
	c, err := s.store.GetCommentByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperror.NotFound("comment not found")
	}
	if err != nil {
		return nil, apperror.Wrap(err, "failed to load comment")
	}
	return c, nil
}

func (s *Service) Update(ctx context.Context, actor *policy.Actor, id, text string) (*models.Comment, error) {
	if err := policy.IsAuthenticated(actor); err != nil {
		return nil, err
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanModify(actor, existing.AuthorID); err != nil {
		return nil, err
	}

	text, err = cleanContent(text)
	if err != nil {
		return nil, err
	}

	updated := *existing
	updated.Content = text
	updated.UpdatedAt = s.now()

	saved, err := s.store.UpdateComment(ctx, &updated)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperror.NotFound("comment not found")
	}
	if err != nil {
		return nil, apperror.Wrap(err, "failed to update comment")
	}
	return saved, nil
}

func (s *Service) Delete(ctx context.Context, actor *policy.Actor, id string) (*DeleteResult, error) {
	if err := policy.IsAuthenticated(actor); err != nil {
		return nil, err
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanModify(actor, existing.AuthorID); err != nil {
		return nil, err
	}

	if err := s.store.DeleteComment(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperror.NotFound("comment not found")
		}
		return nil, apperror.Wrap(err, "failed to delete comment")
	}

	if existing.AuthorID != actor.ID {
		log.Printf("admin %s удалил комментарий %s пользователя %s", actor.ID, id, existing.AuthorID)
		return &DeleteResult{
			Success:   true,
			Message:   "Comment deleted by admin",
			DeletedBy: models.RoleAdmin,
		}, nil
	}
	return &DeleteResult{
		Success:   true,
		Message:   "Comment deleted successfully",
		DeletedBy: actor.Role,
	}, nil
}

// DeleteMany удаляет существующие из переданных комментариев; отсутствующие id не ошибка
func (s *Service) DeleteMany(ctx context.Context, actor *policy.Actor, ids []string) (*BulkDeleteResult, error) {
	if err := policy.CanModerate(actor); err != nil {
		return nil, err
	}

	found, err := s.store.GetCommentsByIDs(ctx, ids)
	if err != nil {
		return nil, apperror.Wrap(err, "failed to load comments")
	}
	if len(found) == 0 {
		return nil, apperror.NotFound("no comments found")
	}

	existing := make([]string, len(found))
	for i, c := range found {
		existing[i] = c.ID
	}
	deleted, err := s.store.DeleteCommentsByIDs(ctx, existing)
	if err != nil {
		return nil, apperror.Wrap(err, "failed to delete comments")
	}

	log.Printf("admin %s удалил комментариев: %d", actor.ID, deleted)
	return &BulkDeleteResult{
		Success:      true,
		Message:      fmt.Sprintf("%d comments deleted successfully", deleted),
		DeletedCount: deleted,
	}, nil
}

func (s *Service) DeleteByAuthor(ctx context.Context, actor *policy.Actor, authorID string) (*BulkDeleteResult, error) {
	if err := policy.CanModerate(actor); err != nil {
		return nil, err
	}

	author, err := s.users.GetUserByID(ctx, authorID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperror.NotFound("user not found")
	}
	if err != nil {
		return nil, apperror.Wrap(err, "failed to load user")
	}

	deleted, err := s.store.DeleteCommentsByAuthor(ctx, authorID)
	if err != nil {
		return nil, apperror.Wrap(err, "failed to delete comments")
	}

	log.Printf("admin %s удалил комментарии пользователя %s: %d", actor.ID, author.Username, deleted)
	return &BulkDeleteResult{
		Success:      true,
		Message:      fmt.Sprintf("Deleted %d comments from user %s", deleted, author.Username),
		DeletedCount: deleted,
		TargetUser:   author.Username,
	}, nil
}

func (s *Service) ListByRecipe(ctx context.Context, recipeID string) ([]*models.Comment, error) {
	comments, err := s.store.ListCommentsByRecipe(ctx, recipeID)
	if err != nil {
		return nil, apperror.Wrap(err, "failed to list comments")
	}
	return comments, nil
}

func cleanContent(text string) (string, error) {
	text = content.PlainText(text)
	if err := validation.Var("content", text, fmt.Sprintf("required,max=%d", maxContentLength)); err != nil {
		return "", err
	}
	return text, nil
}
