package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hn-son/let-him-cook-backend/internal/apperror"
	"github.com/hn-son/let-him-cook-backend/internal/policy"
	"github.com/hn-son/let-him-cook-backend/internal/storage"
	"github.com/hn-son/let-him-cook-backend/internal/validation"
	"github.com/hn-son/let-him-cook-backend/models"
)

const (
	defaultUsersLimit = 20
	maxUsersLimit     = 100
)

type TokenIssuer interface {
	IssueToken(user *models.User) (string, error)
}

// AccountRemover удаляет пользователя вместе со всем, что ему принадлежит
type AccountRemover interface {
	DeleteUser(ctx context.Context, user *models.User) (*models.DeletionReport, error)
}

type RegisterInput struct {
	Username string      `json:"username" validate:"required,min=3,max=32"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=6,max=72"`
	Role     models.Role `json:"role" validate:"omitempty,oneof=user admin"`
}

// Patch - явный набор изменяемых полей профиля; nil означает "не менять"
type Patch struct {
	Username *string      `json:"username" validate:"omitempty,min=3,max=32"`
	Email    *string      `json:"email" validate:"omitempty,email"`
	Password *string      `json:"password" validate:"omitempty,min=6,max=72"`
	Role     *models.Role `json:"role" validate:"omitempty,oneof=user admin"`
}

type AuthPayload struct {
	Token string
	User  *models.User
}

type AuthCheck struct {
	IsAuthenticated bool
	Message         string
	User            *models.User
}

type DeleteResult struct {
	Success bool
	Message string
	Report  models.DeletionReport
}

type Service struct {
	store   UserStorage
	hasher  PasswordHasher
	tokens  TokenIssuer
	remover AccountRemover
	now     func() time.Time
}

func NewService(store UserStorage, hasher PasswordHasher, tokens TokenIssuer, remover AccountRemover) *Service {
	return &Service{
		store:   store,
		hasher:  hasher,
		tokens:  tokens,
		remover: remover,
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthPayload, error) {
	user, err := s.createAccount(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.authPayload(user)
}

func (s *Service) createAccount(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	if err := s.ensureAvailable(ctx, "", &in.Username, &in.Email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash([]byte(in.Password))
	if err != nil {
		return nil, apperror.Wrap(err, "failed to hash password")
	}

	created, err := s.store.CreateUser(ctx, &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
		CreatedAt:    s.now(),
	})
	if errors.Is(err, storage.ErrDuplicate) {
		// гонка двух регистраций: уникальный индекс сработал позже проверки
		return nil, apperror.Conflict("email or username already exists")
	}
	if err != nil {
		return nil, apperror.Wrap(err, "failed to create user")
	}
	return created, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*AuthPayload, error) {
	user, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperror.NotFound("user not found")
	}
	if err != nil {
		return nil, apperror.Wrap(err, "failed to load user")
	}

	if err := s.hasher.Compare([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperror.InvalidCredential("password is incorrect")
	}
	return s.authPayload(user)
}

func (s *Service) authPayload(user *models.User) (*AuthPayload, error) {
	token, err := s.tokens.IssueToken(user)
	if err != nil {
		return nil, apperror.Wrap(err, "failed to issue token")
	}
	return &AuthPayload{Token: token, User: user}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperror.NotFound("user not found")
	}
	if err != nil {
		return nil, apperror.Wrap(err, "failed to load user")
	}
	return user, nil
}

func (s *Service) Me(ctx context.Context, actor *policy.Actor) (*models.User, error) {
	if err := policy.IsAuthenticated(actor); err != nil {
		return nil, err
	}
	return s.Get(ctx, actor.ID)
}

// CheckAuth никогда не возвращает ошибку: результат проверки описан в ответе
func (s *Service) CheckAuth(ctx context.Context, actor *policy.Actor) *AuthCheck {
	if policy.IsAuthenticated(actor) != nil {
		return &AuthCheck{Message: "Not authenticated"}
	}

	user, err := s.Get(ctx, actor.ID)
	switch {
	case apperror.Is(err, apperror.KindNotFound):
		return &AuthCheck{Message: "User not found"}
	case err != nil:
		return &AuthCheck{Message: "Authentication error"}
	}
	return &AuthCheck{IsAuthenticated: true, Message: "Authenticated", User: user}
}

func (s *Service) List(ctx context.Context, actor *policy.Actor, page models.Page) ([]*models.User, error) {
	if err := policy.IsAuthenticated(actor); err != nil {
		return nil, err
	}
	users, err := s.store.ListUsers(ctx, actor.ID, page.Clamp(defaultUsersLimit, maxUsersLimit))
	if err != nil {
		return nil, apperror.Wrap(err, "failed to list users")
	}
	return users, nil
}

func (s *Service) UpdateProfile(ctx context.Context, actor *policy.Actor, id string, patch Patch) (*models.User, error) {
	if err := policy.CanModify(actor, id); err != nil {
		return nil, err
	}

	target, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Username != nil {
		trimmed := strings.TrimSpace(*patch.Username)
		patch.Username = &trimmed
	}
	if patch.Email != nil {
		normalized := normalizeEmail(*patch.Email)
		patch.Email = &normalized
	}
	if err := validation.Struct(patch); err != nil {
		return nil, err
	}
	if patch.Role != nil && *patch.Role != target.Role && !actor.IsAdmin() {
		return nil, apperror.Forbidden("only admins can change roles")
	}

	var username, email *string
	if patch.Username != nil && *patch.Username != target.Username {
		username = patch.Username
	}
	if patch.Email != nil && *patch.Email != target.Email {
		email = patch.Email
	}
	if err := s.ensureAvailable(ctx, target.ID, username, email); err != nil {
		return nil, err
	}

	updated := *target
	if username != nil {
		updated.Username = *username
	}
	if email != nil {
		updated.Email = *email
	}
	if patch.Role != nil {
		updated.Role = *patch.Role
	}
	if patch.Password != nil {
		hash, err := s.hasher.Hash([]byte(*patch.Password))
		if err != nil {
			return nil, apperror.Wrap(err, "failed to hash password")
		}
		updated.PasswordHash = string(hash)
	}

	saved, err := s.store.UpdateUser(ctx, &updated)
	if errors.Is(err, storage.ErrDuplicate) {
		return nil, apperror.Conflict("email or username already exists")
	}
	if err != nil {
		return nil, apperror.Wrap(err, "failed to update user")
	}
	return saved, nil
}

func (s *Service) DeleteAccount(ctx context.Context, actor *policy.Actor, id string) (*DeleteResult, error) {
	if err := policy.CanModify(actor, id); err != nil {
		return nil, err
	}

	target, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	report, err := s.remover.DeleteUser(ctx, target)
	if err != nil {
		return nil, apperror.Wrap(err, "failed to delete user")
	}
	return &DeleteResult{
		Success: true,
		Message: "User deleted successfully",
		Report:  *report,
	}, nil
}

// EnsureAdmin создает учетную запись администратора или повышает существующую.
// Повышается только владелец email, знающий настроенный пароль.
func (s *Service) EnsureAdmin(ctx context.Context, username, email, password string) (*models.User, error) {
	existing, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	switch {
	case err == nil:
		if existing.IsAdmin() {
			return existing, nil
		}
		if err := s.hasher.Compare([]byte(existing.PasswordHash), []byte(password)); err != nil {
			return nil, apperror.Conflict("admin email is taken by an account with a different password")
		}
		promoted := *existing
		promoted.Role = models.RoleAdmin
		saved, err := s.store.UpdateUser(ctx, &promoted)
		if err != nil {
			return nil, apperror.Wrap(err, "failed to promote admin")
		}
		return saved, nil
	case !errors.Is(err, storage.ErrNotFound):
		return nil, apperror.Wrap(err, "failed to load user")
	}

	return s.createAccount(ctx, RegisterInput{
		Username: username,
		Email:    email,
		Password: password,
		Role:     models.RoleAdmin,
	})
}

// ensureAvailable проверяет уникальность username и email; nil-поля не проверяются
func (s *Service) ensureAvailable(ctx context.Context, selfID string, username, email *string) error {
	if username != nil {
		found, err := s.store.GetUserByUsername(ctx, *username)
		if err == nil && found.ID != selfID {
			return apperror.Conflict("username already exists")
		}
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return apperror.Wrap(err, "failed to check username")
		}
	}
	if email != nil {
		found, err := s.store.GetUserByEmail(ctx, *email)
		if err == nil && found.ID != selfID {
			return apperror.Conflict("email already exists")
		}
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return apperror.Wrap(err, "failed to check email")
		}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
