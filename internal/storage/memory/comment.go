package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hn-son/let-him-cook-backend/internal/storage"
	"github.com/hn-son/let-him-cook-backend/models"
)

type CommentMemoryStorage struct {
	mu       sync.RWMutex
	comments map[string]*models.Comment
	seq      map[string]int
	nextSeq  int
}

func NewCommentMemoryStorage() *CommentMemoryStorage {
	return &CommentMemoryStorage{
		comments: make(map[string]*models.Comment),
		seq:      make(map[string]int),
	}
}

func cloneComment(c *models.Comment) *models.Comment {
	cp := *c
	return &cp
}

func (s *CommentMemoryStorage) CreateComment(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := cloneComment(c)
	created.ID = uuid.NewString()
	s.comments[created.ID] = created
	s.seq[created.ID] = s.nextSeq
	s.nextSeq++

	return cloneComment(created), nil
}

func (s *CommentMemoryStorage) GetCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneComment(c), nil
}

func (s *CommentMemoryStorage) GetCommentsByIDs(ctx context.Context, ids []string) ([]*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Comment, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.comments[id]; ok {
			out = append(out, cloneComment(c))
		}
	}
	return out, nil
}

func (s *CommentMemoryStorage) ListCommentsByRecipe(ctx context.Context, recipeID string) ([]*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Comment, 0)
	for _, c := range s.comments {
		if c.RecipeID == recipeID {
			out = append(out, cloneComment(c))
		}
	}

	// От новых к старым, при одинаковом времени - по порядку вставки
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return s.seq[out[i].ID] > s.seq[out[j].ID]
	})
	return out, nil
}

func (s *CommentMemoryStorage) UpdateComment(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.comments[c.ID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	existing.Content = c.Content
	existing.UpdatedAt = c.UpdatedAt

	return cloneComment(existing), nil
}

func (s *CommentMemoryStorage) DeleteComment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[id]; !ok {
		return storage.ErrNotFound
	}
	s.remove(id)
	return nil
}

func (s *CommentMemoryStorage) DeleteCommentsByIDs(ctx context.Context, ids []string) (int64, error) {
	targets := toSet(ids)
	return s.deleteWhere(func(c *models.Comment) bool {
		_, ok := targets[c.ID]
		return ok
	}), nil
}

func (s *CommentMemoryStorage) DeleteCommentsByRecipes(ctx context.Context, recipeIDs []string) (int64, error) {
	recipes := toSet(recipeIDs)
	return s.deleteWhere(func(c *models.Comment) bool {
		_, ok := recipes[c.RecipeID]
		return ok
	}), nil
}

func (s *CommentMemoryStorage) DeleteCommentsByAuthor(ctx context.Context, authorID string) (int64, error) {
	return s.deleteWhere(func(c *models.Comment) bool {
		return c.AuthorID == authorID
	}), nil
}

func (s *CommentMemoryStorage) DeleteOrphanedComments(ctx context.Context, recipeIDs, authorIDs []string, before time.Time) (int64, error) {
	recipes := toSet(recipeIDs)
	authors := toSet(authorIDs)
	return s.deleteWhere(func(c *models.Comment) bool {
		if !c.CreatedAt.Before(before) {
			return false
		}
		_, recipeOK := recipes[c.RecipeID]
		_, authorOK := authors[c.AuthorID]
		return !recipeOK || !authorOK
	}), nil
}

func (s *CommentMemoryStorage) deleteWhere(match func(*models.Comment) bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, c := range s.comments {
		if match(c) {
			s.remove(id)
			deleted++
		}
	}
	return deleted
}

func (s *CommentMemoryStorage) remove(id string) {
	delete(s.comments, id)
	delete(s.seq, id)
}
