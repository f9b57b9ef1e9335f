package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/hn-son/let-him-cook-backend/internal/storage"
	"github.com/hn-son/let-him-cook-backend/models"
)

type UserMemoryStorage struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

func NewUserMemoryStorage() *UserMemoryStorage {
	return &UserMemoryStorage{
		users: make(map[string]*models.User),
	}
}

// наружу отдаются только копии, чтобы вызывающий не менял состояние хранилища
func cloneUser(u *models.User) *models.User {
	c := *u
	c.FavoriteRecipes = append(make([]string, 0, len(u.FavoriteRecipes)), u.FavoriteRecipes...)
	return &c
}

func (s *UserMemoryStorage) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.taken(user.Username, user.Email, "") {
		return nil, storage.ErrDuplicate
	}

	created := cloneUser(user)
	created.ID = uuid.NewString()
	if created.FavoriteRecipes == nil {
		created.FavoriteRecipes = []string{}
	}
	s.users[created.ID] = created

	return cloneUser(created), nil
}

// taken проверяет уникальность без учета записи selfID; вызывать под блокировкой
func (s *UserMemoryStorage) taken(username, email, selfID string) bool {
	for id, u := range s.users {
		if id == selfID {
			continue
		}
		if u.Username == username || strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (s *UserMemoryStorage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *UserMemoryStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *UserMemoryStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *UserMemoryStorage) ListUsers(ctx context.Context, excludeID string, page models.Page) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*models.User, 0, len(s.users))
	for id, u := range s.users {
		if id == excludeID {
			continue
		}
		users = append(users, cloneUser(u))
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].Username < users[j].Username
	})

	return paginate(users, page), nil
}

func (s *UserMemoryStorage) ListUserIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *UserMemoryStorage) UpdateUser(ctx context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if s.taken(user.Username, user.Email, user.ID) {
		return nil, storage.ErrDuplicate
	}

	existing.Username = user.Username
	existing.Email = user.Email
	existing.PasswordHash = user.PasswordHash
	existing.Role = user.Role

	return cloneUser(existing), nil
}

func (s *UserMemoryStorage) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *UserMemoryStorage) AddFavorite(ctx context.Context, userID, recipeID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if !u.HasFavorite(recipeID) {
		u.FavoriteRecipes = append(u.FavoriteRecipes, recipeID)
	}
	return cloneUser(u), nil
}

func (s *UserMemoryStorage) RemoveFavorite(ctx context.Context, userID, recipeID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	u.FavoriteRecipes = without(u.FavoriteRecipes, toSet([]string{recipeID}))
	return cloneUser(u), nil
}

func (s *UserMemoryStorage) RemoveFavoriteEverywhere(ctx context.Context, recipeIDs []string) error {
	if len(recipeIDs) == 0 {
		return nil
	}
	drop := toSet(recipeIDs)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		u.FavoriteRecipes = without(u.FavoriteRecipes, drop)
	}
	return nil
}

func (s *UserMemoryStorage) ListFavoriteRecipeIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	ids := []string{}
	for _, u := range s.users {
		for _, id := range u.FavoriteRecipes {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *UserMemoryStorage) PruneFavorites(ctx context.Context, missingRecipeIDs []string) (int64, error) {
	if len(missingRecipeIDs) == 0 {
		return 0, nil
	}
	drop := toSet(missingRecipeIDs)

	s.mu.Lock()
	defer s.mu.Unlock()

	var affected int64
	for _, u := range s.users {
		kept := without(u.FavoriteRecipes, drop)
		if len(kept) != len(u.FavoriteRecipes) {
			affected++
		}
		u.FavoriteRecipes = kept
	}
	return affected, nil
}

func without(ids []string, drop map[string]struct{}) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := drop[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func paginate[T any](items []T, page models.Page) []T {
	if page.Offset >= len(items) {
		return []T{}
	}
	items = items[page.Offset:]
	if page.Limit > 0 && page.Limit < len(items) {
		items = items[:page.Limit]
	}
	return items
}
