package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/hn-son/let-him-cook-backend/internal/policy"
	"github.com/hn-son/let-him-cook-backend/internal/storage"
	"github.com/hn-son/let-him-cook-backend/models"
)

const DefaultTokenTTL = time.Hour

type Claims struct {
	UserID   string      `json:"id"`
	Email    string      `json:"email"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Accounts - источник актуальных данных пользователя для уже выданных токенов
type Accounts interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

type TokenService struct {
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
	accounts Accounts
}

func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("JWT secret is not set")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// WithAccounts включает сверку токена с учетной записью на каждом запросе:
// роль берется из хранилища, токен удаленного пользователя не действует
func (s *TokenService) WithAccounts(accounts Accounts) *TokenService {
	s.accounts = accounts
	return s
}

func (s *TokenService) IssueToken(user *models.User) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ResolveToken возвращает nil для любого невалидного токена, ошибку наружу не отдает
func (s *TokenService) ResolveToken(tokenStr string) *policy.Actor {
	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, err := parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil
	}
	// срок проверяем сами, чтобы в тестах работали подмененные часы
	if claims.ExpiresAt == nil || !s.now().Before(claims.ExpiresAt.Time) {
		return nil
	}
	if claims.UserID == "" {
		return nil
	}

	return &policy.Actor{
		ID:       claims.UserID,
		Username: claims.Username,
		Email:    claims.Email,
		Role:     claims.Role,
	}
}

// Для извлечения пользователя из JWT и помещения в context
func (s *TokenService) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := extractTokenFromHeader(r.Header.Get("Authorization"))
		if tokenStr == "" {
			next.ServeHTTP(w, r) // неавторизованный доступ - пропускаем
			return
		}

		actor := s.ResolveToken(tokenStr)
		if actor != nil && s.accounts != nil {
			actor = s.current(r.Context(), actor)
		}
		if actor == nil {
			next.ServeHTTP(w, r) // если невалидный токен - пропускаем
			return
		}

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// current перечитывает пользователя; при любой ошибке запрос считается анонимным
func (s *TokenService) current(ctx context.Context, actor *policy.Actor) *policy.Actor {
	u, err := s.accounts.GetUserByID(ctx, actor.ID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("auth: не удалось загрузить пользователя %s: %v", actor.ID, err)
		}
		return nil
	}
	return &policy.Actor{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}

func extractTokenFromHeader(header string) string {
	parts := strings.Split(header, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}
