package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hn-son/let-him-cook-backend/internal/recipe"
	"github.com/hn-son/let-him-cook-backend/internal/storage"
	"github.com/hn-son/let-him-cook-backend/models"
)

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

type RecipeMongoStorage struct {
	recipes *mongo.Collection
}

func NewRecipeMongoStorage(c *Client) *RecipeMongoStorage {
	return &RecipeMongoStorage{recipes: c.collection(recipesCollection)}
}

func (s *RecipeMongoStorage) CreateRecipe(ctx context.Context, r *models.Recipe) (*models.Recipe, error) {
	doc, err := toRecipeDoc(r)
	if err != nil {
		return nil, fmt.Errorf("could not create recipe: %w", err)
	}
	res, err := s.recipes.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("could not create recipe: %w", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toModel(), nil
}

func (s *RecipeMongoStorage) GetRecipeByID(ctx context.Context, id string) (*models.Recipe, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, storage.ErrNotFound
	}
	var doc recipeDoc
	err = s.recipes.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("could not load recipe: %w", err)
	}
	return doc.toModel(), nil
}

func (s *RecipeMongoStorage) GetRecipesByIDs(ctx context.Context, ids []string) ([]*models.Recipe, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []*models.Recipe{}, nil
	}
	found, err := s.find(ctx, bson.M{"_id": bson.M{"$in": oids}}, nil)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.Recipe, len(found))
	for _, r := range found {
		byID[r.ID] = r
	}
	out := make([]*models.Recipe, 0, len(found))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
			delete(byID, id)
		}
	}
	return out, nil
}

func (s *RecipeMongoStorage) find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]*models.Recipe, error) {
	cur, err := s.recipes.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("could not list recipes: %w", err)
	}
	var docs []recipeDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("could not decode recipes: %w", err)
	}
	out := make([]*models.Recipe, len(docs))
	for i := range docs {
		out[i] = docs[i].toModel()
	}
	return out, nil
}

func (s *RecipeMongoStorage) ListRecipes(ctx context.Context, filter recipe.Filter) ([]*models.Recipe, error) {
	return s.find(ctx, recipeFilter(filter), pageOptions(filter.Page))
}

func recipeFilter(filter recipe.Filter) bson.M {
	q := bson.M{}
	if filter.Approved != nil {
		q["isApproved"] = *filter.Approved
	}
	if filter.AuthorID != "" {
		// невалидный id не совпадет ни с одним рецептом
		oid, _ := primitive.ObjectIDFromHex(filter.AuthorID)
		q["author"] = oid
	}
	if len(filter.IngredientNames) > 0 {
		names := make([]interface{}, 0, len(filter.IngredientNames))
		for _, n := range filter.IngredientNames {
			n = strings.TrimSpace(n)
			names = append(names, primitive.Regex{Pattern: "^" + regexp.QuoteMeta(n) + "$", Options: "i"})
		}
		q["ingredients.name"] = bson.M{"$in": names}
	}
	return q
}

func (s *RecipeMongoStorage) ListRecipeIDs(ctx context.Context, authorID string) ([]string, error) {
	filter := bson.M{}
	if authorID != "" {
		oid, err := primitive.ObjectIDFromHex(authorID)
		if err != nil {
			return []string{}, nil
		}
		filter["author"] = oid
	}
	return distinctIDs(ctx, s.recipes, filter)
}

func (s *RecipeMongoStorage) ListOrphanedRecipeIDs(ctx context.Context, knownAuthorIDs []string) ([]string, error) {
	return distinctIDs(ctx, s.recipes, bson.M{"author": bson.M{"$nin": objectIDs(knownAuthorIDs)}})
}

func (s *RecipeMongoStorage) SearchText(ctx context.Context, query string, page models.Page) ([]*models.Recipe, error) {
	score := bson.M{"score": bson.M{"$meta": "textScore"}}
	opts := pageOptions(page).
		SetProjection(score).
		SetSort(bson.D{{Key: "score", Value: bson.M{"$meta": "textScore"}}, {Key: "createdAt", Value: -1}})

	found, err := s.find(ctx, bson.M{"$text": bson.M{"$search": query}, "isApproved": true}, opts)
	if textIndexMissing(err) {
		return nil, storage.ErrNoTextIndex
	}
	return found, err
}

func (s *RecipeMongoStorage) SearchTitle(ctx context.Context, query string, page models.Page) ([]*models.Recipe, error) {
	filter := bson.M{
		"isApproved": true,
		"title":      primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"},
	}
	return s.find(ctx, filter, pageOptions(page))
}

// UpdateRecipe не трогает автора и дату создания
func (s *RecipeMongoStorage) UpdateRecipe(ctx context.Context, r *models.Recipe) (*models.Recipe, error) {
	ingredients := make([]ingredientDoc, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		ingredients[i] = ingredientDoc{Name: ing.Name, Quantity: ing.Quantity, Unit: ing.Unit}
	}
	steps := r.Steps
	if steps == nil {
		steps = []string{}
	}

	return s.updateOne(ctx, r.ID, bson.M{"$set": bson.M{
		"title":       r.Title,
		"description": r.Description,
		"ingredients": ingredients,
		"steps":       steps,
		"cookingTime": r.CookingTime,
		"difficulty":  string(r.Difficulty),
		"imageUrl":    r.ImageURL,
		"isApproved":  r.IsApproved,
		"updatedAt":   normalizeTime(r.UpdatedAt),
	}})
}

func (s *RecipeMongoStorage) SetApproved(ctx context.Context, id string, approved bool) (*models.Recipe, error) {
	return s.updateOne(ctx, id, bson.M{"$set": bson.M{"isApproved": approved}})
}

func (s *RecipeMongoStorage) updateOne(ctx context.Context, id string, update bson.M) (*models.Recipe, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, storage.ErrNotFound
	}
	var doc recipeDoc
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err = s.recipes.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("could not update recipe: %w", err)
	}
	return doc.toModel(), nil
}

func (s *RecipeMongoStorage) DeleteRecipe(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return storage.ErrNotFound
	}
	res, err := s.recipes.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("could not delete recipe: %w", err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *RecipeMongoStorage) DeleteRecipes(ctx context.Context, ids []string) (int64, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return 0, nil
	}
	res, err := s.recipes.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return 0, fmt.Errorf("could not delete recipes: %w", err)
	}
	return res.DeletedCount, nil
}
