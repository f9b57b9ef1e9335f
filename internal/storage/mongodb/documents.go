package mongodb

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hn-son/let-him-cook-backend/models"
)

type userDoc struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty"`
	Username        string               `bson:"username"`
	Email           string               `bson:"email"`
	Password        string               `bson:"password"`
	Role            string               `bson:"role"`
	FavoriteRecipes []primitive.ObjectID `bson:"favoriteRecipes"`
	CreatedAt       time.Time            `bson:"createdAt"`
}

type ingredientDoc struct {
	Name     string `bson:"name"`
	Quantity string `bson:"quantity"`
	Unit     string `bson:"unit"`
}

type recipeDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Ingredients []ingredientDoc    `bson:"ingredients"`
	Steps       []string           `bson:"steps"`
	CookingTime *int               `bson:"cookingTime"`
	Difficulty  string             `bson:"difficulty"`
	ImageURL    string             `bson:"imageUrl,omitempty"`
	Author      primitive.ObjectID `bson:"author"`
	IsApproved  bool               `bson:"isApproved"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

type commentDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Content   string             `bson:"content"`
	Recipe    primitive.ObjectID `bson:"recipe"`
	Author    primitive.ObjectID `bson:"author"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

// objectIDs переводит строковые id в ObjectID; невалидные пропускаются,
// такие id все равно не могут совпасть ни с одним документом
func objectIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			out = append(out, oid)
		}
	}
	return out
}

func hexIDs(oids []primitive.ObjectID) []string {
	out := make([]string, len(oids))
	for i, oid := range oids {
		out[i] = oid.Hex()
	}
	return out
}

// mongo время хранит с точностью до миллисекунд
func normalizeTime(t time.Time) time.Time {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Truncate(time.Millisecond)
}

func toUserDoc(u *models.User) *userDoc {
	return &userDoc{
		Username:        u.Username,
		Email:           u.Email,
		Password:        u.PasswordHash,
		Role:            string(u.Role),
		FavoriteRecipes: objectIDs(u.FavoriteRecipes),
		CreatedAt:       normalizeTime(u.CreatedAt),
	}
}

func (d *userDoc) toModel() *models.User {
	return &models.User{
		ID:              d.ID.Hex(),
		Username:        d.Username,
		Email:           d.Email,
		PasswordHash:    d.Password,
		Role:            models.Role(d.Role),
		FavoriteRecipes: hexIDs(d.FavoriteRecipes),
		CreatedAt:       d.CreatedAt,
	}
}

func toRecipeDoc(r *models.Recipe) (*recipeDoc, error) {
	author, err := primitive.ObjectIDFromHex(r.AuthorID)
	if err != nil {
		return nil, errors.New("invalid author id")
	}

	ingredients := make([]ingredientDoc, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		ingredients[i] = ingredientDoc{Name: ing.Name, Quantity: ing.Quantity, Unit: ing.Unit}
	}
	steps := r.Steps
	if steps == nil {
		steps = []string{}
	}

	return &recipeDoc{
		Title:       r.Title,
		Description: r.Description,
		Ingredients: ingredients,
		Steps:       steps,
		CookingTime: r.CookingTime,
		Difficulty:  string(r.Difficulty),
		ImageURL:    r.ImageURL,
		Author:      author,
		IsApproved:  r.IsApproved,
		CreatedAt:   normalizeTime(r.CreatedAt),
		UpdatedAt:   normalizeTime(r.UpdatedAt),
	}, nil
}

func (d *recipeDoc) toModel() *models.Recipe {
	ingredients := make([]models.Ingredient, len(d.Ingredients))
	for i, ing := range d.Ingredients {
		ingredients[i] = models.Ingredient{Name: ing.Name, Quantity: ing.Quantity, Unit: ing.Unit}
	}
	steps := d.Steps
	if steps == nil {
		steps = []string{}
	}

	return &models.Recipe{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Ingredients: ingredients,
		Steps:       steps,
		CookingTime: d.CookingTime,
		Difficulty:  models.Difficulty(d.Difficulty),
		ImageURL:    d.ImageURL,
		AuthorID:    d.Author.Hex(),
		IsApproved:  d.IsApproved,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func toCommentDoc(c *models.Comment) (*commentDoc, error) {
	recipe, err := primitive.ObjectIDFromHex(c.RecipeID)
	if err != nil {
		return nil, errors.New("invalid recipe id")
	}
	author, err := primitive.ObjectIDFromHex(c.AuthorID)
	if err != nil {
		return nil, errors.New("invalid author id")
	}
	return &commentDoc{
		Content:   c.Content,
		Recipe:    recipe,
		Author:    author,
		CreatedAt: normalizeTime(c.CreatedAt),
		UpdatedAt: normalizeTime(c.UpdatedAt),
	}, nil
}

func (d *commentDoc) toModel() *models.Comment {
	return &models.Comment{
		ID:        d.ID.Hex(),
		Content:   d.Content,
		RecipeID:  d.Recipe.Hex(),
		AuthorID:  d.Author.Hex(),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// pageOptions - сортировка от новых к старым плюс offset/limit
func pageOptions(page models.Page) *options.FindOptions {
	opts := options.Find().SetSort(newestFirst)
	if page.Offset > 0 {
		opts.SetSkip(int64(page.Offset))
	}
	if page.Limit > 0 {
		opts.SetLimit(int64(page.Limit))
	}
	return opts
}

// textIndexMissing распознает ответ сервера об отсутствии текстового индекса
func textIndexMissing(err error) bool {
	var se mongo.ServerError
	if !errors.As(err, &se) {
		return false
	}
	return se.HasErrorCode(27) || se.HasErrorCode(323)
}
