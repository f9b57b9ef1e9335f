package postgres

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hn-son/let-him-cook-backend/models"
)

type userRow struct {
	ID           string `gorm:"primary_key;type:varchar(36)"`
	Username     string `gorm:"unique_index;not null"`
	Email        string `gorm:"unique_index;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"type:varchar(16);not null"`
	CreatedAt    time.Time
}

func (userRow) TableName() string { return "users" }

type recipeRow struct {
	ID          string         `gorm:"primary_key;type:varchar(36)"`
	Title       string         `gorm:"not null"`
	Description string         `gorm:"type:text"`
	Ingredients ingredientList `gorm:"type:text"`
	// IngredientNames - названия ингредиентов в нижнем регистре в виде "|egg|milk|"
	IngredientNames string     `gorm:"type:text"`
	Steps           stringList `gorm:"type:text"`
	CookingTime     *int
	Difficulty      string `gorm:"type:varchar(16)"`
	ImageURL        string
	AuthorID        string `gorm:"type:varchar(36);index"`
	IsApproved      bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (recipeRow) TableName() string { return "recipes" }

type commentRow struct {
	ID        string `gorm:"primary_key;type:varchar(36)"`
	Content   string `gorm:"type:text"`
	RecipeID  string `gorm:"type:varchar(36)"`
	AuthorID  string `gorm:"type:varchar(36);index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (commentRow) TableName() string { return "comments" }

// favoriteRow - связь пользователя с рецептом из его избранного
type favoriteRow struct {
	UserID    string `gorm:"primary_key;type:varchar(36)"`
	RecipeID  string `gorm:"primary_key;type:varchar(36);index"`
	CreatedAt time.Time
}

func (favoriteRow) TableName() string { return "favorites" }

// ingredientList хранится в колонке как JSON
type ingredientList []models.Ingredient

func (l ingredientList) Value() (driver.Value, error) {
	if l == nil {
		l = ingredientList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *ingredientList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

type stringList []string

func (l stringList) Value() (driver.Value, error) {
	if l == nil {
		l = stringList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *stringList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

func scanJSON(src interface{}, dst interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported column type %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func toUserRow(u *models.User) *userRow {
	return &userRow{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
	}
}

func (r *userRow) toModel(favorites []string) *models.User {
	if favorites == nil {
		favorites = []string{}
	}
	return &models.User{
		ID:              r.ID,
		Username:        r.Username,
		Email:           r.Email,
		PasswordHash:    r.PasswordHash,
		Role:            models.Role(r.Role),
		FavoriteRecipes: favorites,
		CreatedAt:       r.CreatedAt,
	}
}

func toRecipeRow(r *models.Recipe) *recipeRow {
	return &recipeRow{
		ID:              r.ID,
		Title:           r.Title,
		Description:     r.Description,
		Ingredients:     ingredientList(r.Ingredients),
		IngredientNames: ingredientNames(r.Ingredients),
		Steps:           stringList(r.Steps),
		CookingTime:     r.CookingTime,
		Difficulty:      string(r.Difficulty),
		ImageURL:        r.ImageURL,
		AuthorID:        r.AuthorID,
		IsApproved:      r.IsApproved,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func (r *recipeRow) toModel() *models.Recipe {
	ingredients := []models.Ingredient(r.Ingredients)
	if ingredients == nil {
		ingredients = []models.Ingredient{}
	}
	steps := []string(r.Steps)
	if steps == nil {
		steps = []string{}
	}
	return &models.Recipe{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Ingredients: ingredients,
		Steps:       steps,
		CookingTime: r.CookingTime,
		Difficulty:  models.Difficulty(r.Difficulty),
		ImageURL:    r.ImageURL,
		AuthorID:    r.AuthorID,
		IsApproved:  r.IsApproved,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func ingredientNames(ingredients []models.Ingredient) string {
	if len(ingredients) == 0 {
		return ""
	}
	names := make([]string, len(ingredients))
	for i, ing := range ingredients {
		names[i] = strings.ReplaceAll(strings.ToLower(ing.Name), "|", " ")
	}
	return "|" + strings.Join(names, "|") + "|"
}

func toCommentRow(c *models.Comment) *commentRow {
	return &commentRow{
		ID:        c.ID,
		Content:   c.Content,
		RecipeID:  c.RecipeID,
		AuthorID:  c.AuthorID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (c *commentRow) toModel() *models.Comment {
	return &models.Comment{
		ID:        c.ID,
		Content:   c.Content,
		RecipeID:  c.RecipeID,
		AuthorID:  c.AuthorID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
