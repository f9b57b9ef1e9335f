package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hn-son/let-him-cook-backend/internal/policy"
	"github.com/hn-son/let-him-cook-backend/internal/storage"
	"github.com/hn-son/let-him-cook-backend/models"
)

const testSecret = "test_jwt_secret"

var testUser = &models.User{ID: "u-1", Username: "cook", Email: "cook@example.com", Role: models.RoleAdmin}

func newTestTokens(t *testing.T) *TokenService {
	t.Helper()
	s, err := NewTokenService(testSecret, 0)
	require.NoError(t, err)
	return s
}

func TestWithActorAndActorFromContext(t *testing.T) {
	t.Run("Store and retrieve actor", func(t *testing.T) {
		actor := &policy.Actor{ID: "42"}
		ctx := WithActor(context.Background(), actor)
		assert.Same(t, actor, ActorFromContext(ctx))
	})

	t.Run("Anonymous context", func(t *testing.T) {
		assert.Nil(t, ActorFromContext(context.Background()))
	})

	t.Run("Wrong value type", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), actorKey, "not-an-actor")
		assert.Nil(t, ActorFromContext(ctx))
	})
}

func TestExtractTokenFromHeader(t *testing.T) {
	assert.Equal(t, "token123", extractTokenFromHeader("Bearer token123"))
	assert.Equal(t, "", extractTokenFromHeader("NotBearer token123"))
	assert.Equal(t, "", extractTokenFromHeader("Bearertoken123"))
	assert.Equal(t, "", extractTokenFromHeader(""))
}

func TestNewTokenService(t *testing.T) {
	_, err := NewTokenService("", time.Hour)
	assert.Error(t, err)

	s := newTestTokens(t)
	assert.Equal(t, DefaultTokenTTL, s.ttl)
}

func TestTokenService_RoundTrip(t *testing.T) {
	s := newTestTokens(t)

	token, err := s.IssueToken(testUser)
	require.NoError(t, err)

	actor := s.ResolveToken(token)
	require.NotNil(t, actor)
	assert.Equal(t, &policy.Actor{ID: "u-1", Username: "cook", Email: "cook@example.com", Role: models.RoleAdmin}, actor)
}

func TestTokenService_ResolveToken_Failures(t *testing.T) {
	s := newTestTokens(t)

	t.Run("Expired after one hour", func(t *testing.T) {
		issuedAt := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
		s.now = func() time.Time { return issuedAt }
		token, err := s.IssueToken(testUser)
		require.NoError(t, err)

		s.now = func() time.Time { return issuedAt.Add(59 * time.Minute) }
		assert.NotNil(t, s.ResolveToken(token))

		s.now = func() time.Time { return issuedAt.Add(time.Hour) }
		assert.Nil(t, s.ResolveToken(token))

		s.now = time.Now
	})

	t.Run("Wrong signature", func(t *testing.T) {
		other, err := NewTokenService("wrong_secret", time.Hour)
		require.NoError(t, err)
		token, err := other.IssueToken(testUser)
		require.NoError(t, err)
		assert.Nil(t, s.ResolveToken(token))
	})

	t.Run("Unexpected signing method", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u-1"})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		assert.Nil(t, s.ResolveToken(signed))
	})

	t.Run("Missing user id", func(t *testing.T) {
		token, err := s.IssueToken(&models.User{})
		require.NoError(t, err)
		assert.Nil(t, s.ResolveToken(token))
	})

	t.Run("Garbage", func(t *testing.T) {
		assert.Nil(t, s.ResolveToken("not.a.token"))
	})
}

func TestTokenService_Middleware(t *testing.T) {
	s := newTestTokens(t)

	// Тестовый обработчик печатает id пользователя из контекста
	handler := s.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actor := ActorFromContext(r.Context()); actor != nil {
			fmt.Fprintf(w, "User ID: %s", actor.ID)
			return
		}
		fmt.Fprint(w, "anonymous")
	}))

	valid, err := s.IssueToken(testUser)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "Valid token", header: "Bearer " + valid, want: "User ID: u-1"},
		{name: "Invalid token", header: "Bearer garbage", want: "anonymous"},
		{name: "Invalid header format", header: "InvalidFormat", want: "anonymous"},
		{name: "No token", header: "", want: "anonymous"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/query", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

type accountsMap map[string]*models.User

func (m accountsMap) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m[id]; ok {
		return u, nil
	}
	return nil, storage.ErrNotFound
}

type brokenAccounts struct{}

func (brokenAccounts) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return nil, errors.New("connection refused")
}

func TestTokenService_Middleware_ChecksAccount(t *testing.T) {
	issued, err := newTestTokens(t).IssueToken(testUser)
	require.NoError(t, err)

	serve := func(s *TokenService) string {
		handler := s.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if actor := ActorFromContext(r.Context()); actor != nil {
				fmt.Fprintf(w, "%s:%s", actor.ID, actor.Role)
				return
			}
			fmt.Fprint(w, "anonymous")
		}))
		req := httptest.NewRequest(http.MethodPost, "/query", nil)
		req.Header.Set("Authorization", "Bearer "+issued)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Body.String()
	}

	t.Run("Demoted user loses admin rights", func(t *testing.T) {
		demoted := *testUser
		demoted.Role = models.RoleUser
		s := newTestTokens(t).WithAccounts(accountsMap{testUser.ID: &demoted})
		assert.Equal(t, "u-1:user", serve(s))
	})

	t.Run("Deleted user is anonymous", func(t *testing.T) {
		s := newTestTokens(t).WithAccounts(accountsMap{})
		assert.Equal(t, "anonymous", serve(s))
	})

	t.Run("Lookup failure is anonymous", func(t *testing.T) {
		s := newTestTokens(t).WithAccounts(brokenAccounts{})
		assert.Equal(t, "anonymous", serve(s))
	})

	t.Run("Without accounts claims are trusted", func(t *testing.T) {
		assert.Equal(t, "u-1:admin", serve(newTestTokens(t)))
	})
}
