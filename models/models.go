package models

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type User struct {
	ID              string
	Username        string
	Email           string
	PasswordHash    string
	Role            Role
	FavoriteRecipes []string // слабые ссылки на рецепты, порядок не гарантируется
	CreatedAt       time.Time
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

func (u *User) HasFavorite(recipeID string) bool {
	for _, id := range u.FavoriteRecipes {
		if id == recipeID {
			return true
		}
	}
	return false
}

type Ingredient struct {
	Name     string `json:"name" validate:"required,max=200"`
	Quantity string `json:"quantity" validate:"required,max=100"`
	Unit     string `json:"unit" validate:"required,max=50"`
}

type Recipe struct {
	ID          string
	Title       string
	Description string
	Ingredients []Ingredient
	Steps       []string
	CookingTime *int // минуты
	Difficulty  Difficulty
	ImageURL    string
	AuthorID    string
	IsApproved  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Comment struct {
	ID        string
	Content   string
	RecipeID  string
	AuthorID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Page - пагинация offset/limit. Limit <= 0 означает "без ограничения".
type Page struct {
	Limit  int
	Offset int
}

// Clamp подставляет лимит по умолчанию и ограничивает его сверху
func (p Page) Clamp(def, max int) Page {
	if p.Limit <= 0 {
		p.Limit = def
	}
	if p.Limit > max {
		p.Limit = max
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// DeletionReport - итог каскадного удаления пользователя
type DeletionReport struct {
	DeletedRecipes  int64
	DeletedComments int64
}

// ReconcileReport - итог восстановления ссылочной целостности
type ReconcileReport struct {
	RemovedRecipes  int64
	RemovedComments int64
	PrunedFavorites int64
}
