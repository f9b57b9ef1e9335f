package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/hn-son/let-him-cook-backend/internal/recipe"
	"github.com/hn-son/let-him-cook-backend/internal/storage"
	"github.com/hn-son/let-him-cook-backend/models"
)

type RecipeMemoryStorage struct {
	mu      sync.RWMutex
	recipes map[string]*models.Recipe
	seq     map[string]int // порядок вставки, различает рецепты с одинаковым CreatedAt
	nextSeq int
}

func NewRecipeMemoryStorage() *RecipeMemoryStorage {
	return &RecipeMemoryStorage{
		recipes: make(map[string]*models.Recipe),
		seq:     make(map[string]int),
	}
}

func cloneRecipe(r *models.Recipe) *models.Recipe {
	c := *r
	c.Ingredients = append([]models.Ingredient(nil), r.Ingredients...)
	c.Steps = append([]string(nil), r.Steps...)
	if r.CookingTime != nil {
		minutes := *r.CookingTime
		c.CookingTime = &minutes
	}
	return &c
}

func (s *RecipeMemoryStorage) CreateRecipe(ctx context.Context, r *models.Recipe) (*models.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := cloneRecipe(r)
	created.ID = uuid.NewString()
	s.recipes[created.ID] = created
	s.seq[created.ID] = s.nextSeq
	s.nextSeq++

	return cloneRecipe(created), nil
}

func (s *RecipeMemoryStorage) GetRecipeByID(ctx context.Context, id string) (*models.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.recipes[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneRecipe(r), nil
}

func (s *RecipeMemoryStorage) GetRecipesByIDs(ctx context.Context, ids []string) ([]*models.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Recipe, 0, len(ids))
	for _, id := range ids {
		if r, ok := s.recipes[id]; ok {
			out = append(out, cloneRecipe(r))
		}
	}
	return out, nil
}

func (s *RecipeMemoryStorage) ListRecipes(ctx context.Context, filter recipe.Filter) ([]*models.Recipe, error) {
	names := make(map[string]struct{}, len(filter.IngredientNames))
	for _, n := range filter.IngredientNames {
		names[strings.ToLower(strings.TrimSpace(n))] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.collect(func(r *models.Recipe) bool {
		if filter.Approved != nil && r.IsApproved != *filter.Approved {
			return false
		}
		if filter.AuthorID != "" && r.AuthorID != filter.AuthorID {
			return false
		}
		if len(names) > 0 && !hasIngredient(r, names) {
			return false
		}
		return true
	})
	return paginate(matched, filter.Page), nil
}

func hasIngredient(r *models.Recipe, names map[string]struct{}) bool {
	for _, ing := range r.Ingredients {
		if _, ok := names[strings.ToLower(ing.Name)]; ok {
			return true
		}
	}
	return false
}

// collect отбирает копии рецептов и сортирует от новых к старым; вызывать под блокировкой
func (s *RecipeMemoryStorage) collect(match func(*models.Recipe) bool) []*models.Recipe {
	out := make([]*models.Recipe, 0)
	for _, r := range s.recipes {
		if match(r) {
			out = append(out, cloneRecipe(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return s.seq[out[i].ID] > s.seq[out[j].ID]
	})
	return out
}

func (s *RecipeMemoryStorage) ListRecipeIDs(ctx context.Context, authorID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0)
	for id, r := range s.recipes {
		if authorID == "" || r.AuthorID == authorID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *RecipeMemoryStorage) ListOrphanedRecipeIDs(ctx context.Context, knownAuthorIDs []string) ([]string, error) {
	known := toSet(knownAuthorIDs)

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0)
	for id, r := range s.recipes {
		if _, ok := known[r.AuthorID]; !ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// SearchText недоступен: у хранилища в памяти нет полнотекстового индекса
func (s *RecipeMemoryStorage) SearchText(ctx context.Context, query string, page models.Page) ([]*models.Recipe, error) {
	return nil, storage.ErrNoTextIndex
}

func (s *RecipeMemoryStorage) SearchTitle(ctx context.Context, query string, page models.Page) ([]*models.Recipe, error) {
	needle := strings.ToLower(query)

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.collect(func(r *models.Recipe) bool {
		return r.IsApproved && strings.Contains(strings.ToLower(r.Title), needle)
	})
	return paginate(matched, page), nil
}

func (s *RecipeMemoryStorage) UpdateRecipe(ctx context.Context, r *models.Recipe) (*models.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.recipes[r.ID]
	if !ok {
		return nil, storage.ErrNotFound
	}

	updated := cloneRecipe(r)
	updated.AuthorID = existing.AuthorID
	updated.CreatedAt = existing.CreatedAt
	s.recipes[r.ID] = updated

	return cloneRecipe(updated), nil
}

func (s *RecipeMemoryStorage) SetApproved(ctx context.Context, id string, approved bool) (*models.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.recipes[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	r.IsApproved = approved
	return cloneRecipe(r), nil
}

func (s *RecipeMemoryStorage) DeleteRecipe(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.recipes[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.recipes, id)
	delete(s.seq, id)
	return nil
}

func (s *RecipeMemoryStorage) DeleteRecipes(ctx context.Context, ids []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for _, id := range ids {
		if _, ok := s.recipes[id]; ok {
			delete(s.recipes, id)
			delete(s.seq, id)
			deleted++
		}
	}
	return deleted, nil
}
