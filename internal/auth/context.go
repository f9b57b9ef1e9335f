package auth

import (
	"context"

	"github.com/hn-son/let-him-cook-backend/internal/policy"
)

type contextKey string

const actorKey = contextKey("actor")

// Сохраняет пользователя запроса в контексте
func WithActor(ctx context.Context, actor *policy.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// Достает пользователя из контекста; nil - анонимный запрос
func ActorFromContext(ctx context.Context) *policy.Actor {
	actor, _ := ctx.Value(actorKey).(*policy.Actor)
	return actor
}
