package graph

import (
	"context"
	"net/http"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hn-son/let-him-cook-backend/internal/apperror"
	"github.com/hn-son/let-him-cook-backend/internal/auth"
	"github.com/hn-son/let-him-cook-backend/models"
)

const loaderCacheSize = 256

// loaders кэширует авторов и рецепты в рамках одного запроса,
// чтобы списки комментариев не ходили в хранилище за каждым автором
type loaders struct {
	users   *lru.Cache[string, *models.User]
	recipes *lru.Cache[string, *models.Recipe]
}

type loadersKey struct{}

func newLoaders() *loaders {
	users, _ := lru.New[string, *models.User](loaderCacheSize)
	recipes, _ := lru.New[string, *models.Recipe](loaderCacheSize)
	return &loaders{users: users, recipes: recipes}
}

// WithLoaders создает свежий кэш на каждый HTTP-запрос
func WithLoaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), loadersKey{}, newLoaders())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loadersFrom(ctx context.Context) *loaders {
	l, _ := ctx.Value(loadersKey{}).(*loaders)
	return l
}

// loadUser возвращает nil без ошибки, если ссылка висячая
func (r *Resolver) loadUser(ctx context.Context, id string) (*models.User, error) {
	l := loadersFrom(ctx)
	if l != nil {
		if u, ok := l.users.Get(id); ok {
			return u, nil
		}
	}

	u, err := r.UserService.Get(ctx, id)
	if apperror.Is(err, apperror.KindNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if l != nil {
		l.users.Add(id, u)
	}
	return u, nil
}

// loadRecipe учитывает видимость рецепта для текущего актора
func (r *Resolver) loadRecipe(ctx context.Context, id string) (*models.Recipe, error) {
	l := loadersFrom(ctx)
	if l != nil {
		if rec, ok := l.recipes.Get(id); ok {
			return rec, nil
		}
	}

	rec, err := r.RecipeService.Get(ctx, auth.ActorFromContext(ctx), id)
	if apperror.Is(err, apperror.KindNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if l != nil {
		l.recipes.Add(id, rec)
	}
	return rec, nil
}

// remember кладет в кэш уже загруженные рецепты
func remember(ctx context.Context, recipes []*models.Recipe) {
	l := loadersFrom(ctx)
	if l == nil {
		return
	}
	for _, rec := range recipes {
		l.recipes.Add(rec.ID, rec)
	}
}
