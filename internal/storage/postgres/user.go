package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jinzhu/gorm"

	"github.com/hn-son/let-him-cook-backend/internal/storage"
	"github.com/hn-son/let-him-cook-backend/models"
)

// UserPostgresStorage хранит пользователей; избранное лежит в отдельной таблице favorites
type UserPostgresStorage struct {
	db *DB
}

func NewUserPostgresStorage(db *DB) *UserPostgresStorage {
	return &UserPostgresStorage{db: db}
}

func (s *UserPostgresStorage) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	row := toUserRow(user)
	row.ID = uuid.NewString()

	if err := s.db.session(ctx).Create(row).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, storage.ErrDuplicate
		}
		return nil, fmt.Errorf("could not create user: %w", err)
	}
	return row.toModel(nil), nil
}

func (s *UserPostgresStorage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.findOne(ctx, "id = ?", id)
}

func (s *UserPostgresStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, "LOWER(email) = LOWER(?)", email)
}

func (s *UserPostgresStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, "username = ?", username)
}

func (s *UserPostgresStorage) findOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var row userRow
	err := s.db.session(ctx).Where(query, arg).First(&row).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("could not load user: %w", err)
	}

	favorites, err := s.favorites(ctx, []string{row.ID})
	if err != nil {
		return nil, err
	}
	return row.toModel(favorites[row.ID]), nil
}

// favorites возвращает избранное пользователей в порядке добавления
func (s *UserPostgresStorage) favorites(ctx context.Context, userIDs []string) (map[string][]string, error) {
	var rows []favoriteRow
	err := s.db.session(ctx).
		Where("user_id IN (?)", userIDs).
		Order("created_at, recipe_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("could not load favorites: %w", err)
	}

	out := make(map[string][]string, len(userIDs))
	for _, f := range rows {
		out[f.UserID] = append(out[f.UserID], f.RecipeID)
	}
	return out, nil
}

func (s *UserPostgresStorage) ListUsers(ctx context.Context, excludeID string, page models.Page) ([]*models.User, error) {
	q := s.db.session(ctx).Order("username")
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	q = paged(q, page)

	var rows []userRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("could not list users: %w", err)
	}
	if len(rows) == 0 {
		return []*models.User{}, nil
	}

	ids := make([]string, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	favorites, err := s.favorites(ctx, ids)
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, len(rows))
	for i := range rows {
		users[i] = rows[i].toModel(favorites[rows[i].ID])
	}
	return users, nil
}

func (s *UserPostgresStorage) ListUserIDs(ctx context.Context) ([]string, error) {
	ids := []string{}
	if err := s.db.session(ctx).Model(&userRow{}).Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("could not list user ids: %w", err)
	}
	return ids, nil
}

func (s *UserPostgresStorage) UpdateUser(ctx context.Context, user *models.User) (*models.User, error) {
	res := s.db.session(ctx).Model(&userRow{}).Where("id = ?", user.ID).UpdateColumns(map[string]interface{}{
		"username":      user.Username,
		"email":         user.Email,
		"password_hash": user.PasswordHash,
		"role":          string(user.Role),
	})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return nil, storage.ErrDuplicate
		}
		return nil, fmt.Errorf("could not update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, storage.ErrNotFound
	}
	return s.GetUserByID(ctx, user.ID)
}

func (s *UserPostgresStorage) DeleteUser(ctx context.Context, id string) error {
	return s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		session := s.db.session(ctx)
		if err := session.Where("user_id = ?", id).Delete(&favoriteRow{}).Error; err != nil {
			return fmt.Errorf("could not delete favorites: %w", err)
		}
		res := session.Where("id = ?", id).Delete(&userRow{})
		if res.Error != nil {
			return fmt.Errorf("could not delete user: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
}

func (s *UserPostgresStorage) AddFavorite(ctx context.Context, userID, recipeID string) (*models.User, error) {
	if _, err := s.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}

	err := s.db.session(ctx).Create(&favoriteRow{UserID: userID, RecipeID: recipeID}).Error
	if err != nil && !isUniqueViolation(err) {
		return nil, fmt.Errorf("could not add favorite: %w", err)
	}
	return s.GetUserByID(ctx, userID)
}

func (s *UserPostgresStorage) RemoveFavorite(ctx context.Context, userID, recipeID string) (*models.User, error) {
	if _, err := s.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}

	err := s.db.session(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&favoriteRow{}).Error
	if err != nil {
		return nil, fmt.Errorf("could not remove favorite: %w", err)
	}
	return s.GetUserByID(ctx, userID)
}

func (s *UserPostgresStorage) RemoveFavoriteEverywhere(ctx context.Context, recipeIDs []string) error {
	if len(recipeIDs) == 0 {
		return nil
	}
	err := s.db.session(ctx).Where("recipe_id IN (?)", recipeIDs).Delete(&favoriteRow{}).Error
	if err != nil {
		return fmt.Errorf("could not remove favorites: %w", err)
	}
	return nil
}

func (s *UserPostgresStorage) ListFavoriteRecipeIDs(ctx context.Context) ([]string, error) {
	ids := []string{}
	err := s.db.session(ctx).Model(&favoriteRow{}).Order("recipe_id").Pluck("DISTINCT recipe_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("could not list favorite recipes: %w", err)
	}
	return ids, nil
}

func (s *UserPostgresStorage) PruneFavorites(ctx context.Context, missingRecipeIDs []string) (int64, error) {
	if len(missingRecipeIDs) == 0 {
		return 0, nil
	}
	var affected int64
	err := s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		stale := s.db.session(ctx).Model(&favoriteRow{}).Where("recipe_id IN (?)", missingRecipeIDs)

		var users []string
		if err := stale.Pluck("DISTINCT user_id", &users).Error; err != nil {
			return fmt.Errorf("could not find stale favorites: %w", err)
		}
		if len(users) == 0 {
			return nil
		}

		if err := stale.Delete(&favoriteRow{}).Error; err != nil {
			return fmt.Errorf("could not prune favorites: %w", err)
		}
		affected = int64(len(users))
		return nil
	})
	return affected, err
}

// paged применяет offset/limit; нулевой лимит означает выборку без ограничения
func paged(q *gorm.DB, page models.Page) *gorm.DB {
	if page.Limit > 0 {
		q = q.Limit(page.Limit)
	}
	if page.Offset > 0 {
		q = q.Offset(page.Offset)
	}
	return q
}
