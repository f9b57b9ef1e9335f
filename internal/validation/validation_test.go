package validation

import (
	"testing"

	"github.com/hn-son/let-him-cook-backend/internal/apperror"
	"github.com/hn-son/let-him-cook-backend/models"
	"github.com/stretchr/testify/assert"
)

type sample struct {
	Email       string              `json:"email" validate:"required,email"`
	Ingredients []models.Ingredient `json:"ingredients" validate:"required,min=1,dive"`
	Nick        *string             `json:"nick" validate:"omitempty,min=3"`
}

func TestStruct(t *testing.T) {
	valid := sample{
		Email:       "cook@example.com",
		Ingredients: []models.Ingredient{{Name: "salt", Quantity: "1", Unit: "tsp"}},
	}

	t.Run("Valid struct passes", func(t *testing.T) {
		assert.NoError(t, Struct(valid))
	})

	t.Run("Invalid email uses API field name", func(t *testing.T) {
		s := valid
		s.Email = "not-an-email"
		err := Struct(s)
		assert.True(t, apperror.Is(err, apperror.KindInvalidInput))
		assert.Contains(t, err.Error(), "invalid email")
	})

	t.Run("Nested ingredient field is reported with its path", func(t *testing.T) {
		s := valid
		s.Ingredients = []models.Ingredient{{Name: "salt", Quantity: "1"}}
		err := Struct(s)
		assert.True(t, apperror.Is(err, apperror.KindInvalidInput))
		assert.Contains(t, err.Error(), "invalid ingredients[0].unit: is required")
	})

	t.Run("Nil pointer is skipped, empty pointer is checked", func(t *testing.T) {
		s := valid
		assert.NoError(t, Struct(s))

		empty := ""
		s.Nick = &empty
		assert.Error(t, Struct(s))
	})
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var("imageUrl", "https://cdn.example.com/a.png", "url"))

	err := Var("imageUrl", "nope", "url")
	assert.True(t, apperror.Is(err, apperror.KindInvalidInput))
	assert.Contains(t, err.Error(), "invalid imageUrl: must be a valid URL")
}
