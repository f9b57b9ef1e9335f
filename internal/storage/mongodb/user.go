package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hn-son/let-him-cook-backend/internal/storage"
	"github.com/hn-son/let-him-cook-backend/models"
)

type UserMongoStorage struct {
	users *mongo.Collection
}

func NewUserMongoStorage(c *Client) *UserMongoStorage {
	return &UserMongoStorage{users: c.collection(usersCollection)}
}

func (s *UserMongoStorage) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	doc := toUserDoc(user)
	if doc.FavoriteRecipes == nil {
		doc.FavoriteRecipes = []primitive.ObjectID{}
	}

	res, err := s.users.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return nil, storage.ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("could not create user: %w", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toModel(), nil
}

func (s *UserMongoStorage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, storage.ErrNotFound
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

// GetUserByEmail - email хранится в нижнем регистре
func (s *UserMongoStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (s *UserMongoStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

func (s *UserMongoStorage) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDoc
	err := s.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("could not load user: %w", err)
	}
	return doc.toModel(), nil
}

func (s *UserMongoStorage) ListUsers(ctx context.Context, excludeID string, page models.Page) ([]*models.User, error) {
	filter := bson.M{}
	if oid, err := primitive.ObjectIDFromHex(excludeID); err == nil {
		filter["_id"] = bson.M{"$ne": oid}
	}

	opts := options.Find().SetSort(bson.D{{Key: "username", Value: 1}})
	if page.Offset > 0 {
		opts.SetSkip(int64(page.Offset))
	}
	if page.Limit > 0 {
		opts.SetLimit(int64(page.Limit))
	}

	cur, err := s.users.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("could not list users: %w", err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("could not decode users: %w", err)
	}

	users := make([]*models.User, len(docs))
	for i := range docs {
		users[i] = docs[i].toModel()
	}
	return users, nil
}

func (s *UserMongoStorage) ListUserIDs(ctx context.Context) ([]string, error) {
	return distinctIDs(ctx, s.users, bson.M{})
}

func (s *UserMongoStorage) UpdateUser(ctx context.Context, user *models.User) (*models.User, error) {
	return s.updateOne(ctx, user.ID, bson.M{"$set": bson.M{
		"username": user.Username,
		"email":    user.Email,
		"password": user.PasswordHash,
		"role":     string(user.Role),
	}})
}

func (s *UserMongoStorage) updateOne(ctx context.Context, id string, update bson.M) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, storage.ErrNotFound
	}

	var doc userDoc
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err = s.users.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, storage.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return nil, storage.ErrDuplicate
	case err != nil:
		return nil, fmt.Errorf("could not update user: %w", err)
	}
	return doc.toModel(), nil
}

func (s *UserMongoStorage) DeleteUser(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return storage.ErrNotFound
	}
	res, err := s.users.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("could not delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *UserMongoStorage) AddFavorite(ctx context.Context, userID, recipeID string) (*models.User, error) {
	rid, err := primitive.ObjectIDFromHex(recipeID)
	if err != nil {
		return nil, storage.ErrNotFound
	}
	return s.updateOne(ctx, userID, bson.M{"$addToSet": bson.M{"favoriteRecipes": rid}})
}

func (s *UserMongoStorage) RemoveFavorite(ctx context.Context, userID, recipeID string) (*models.User, error) {
	rid, err := primitive.ObjectIDFromHex(recipeID)
	if err != nil {
		// такого рецепта в избранном быть не может
		return s.GetUserByID(ctx, userID)
	}
	return s.updateOne(ctx, userID, bson.M{"$pull": bson.M{"favoriteRecipes": rid}})
}

func (s *UserMongoStorage) RemoveFavoriteEverywhere(ctx context.Context, recipeIDs []string) error {
	oids := objectIDs(recipeIDs)
	if len(oids) == 0 {
		return nil
	}
	_, err := s.users.UpdateMany(ctx,
		bson.M{"favoriteRecipes": bson.M{"$in": oids}},
		bson.M{"$pull": bson.M{"favoriteRecipes": bson.M{"$in": oids}}},
	)
	if err != nil {
		return fmt.Errorf("could not remove favorites: %w", err)
	}
	return nil
}

func (s *UserMongoStorage) ListFavoriteRecipeIDs(ctx context.Context) ([]string, error) {
	ids, err := distinctHex(ctx, s.users, "favoriteRecipes", bson.M{})
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *UserMongoStorage) PruneFavorites(ctx context.Context, missingRecipeIDs []string) (int64, error) {
	drop := objectIDs(missingRecipeIDs)
	if len(drop) == 0 {
		return 0, nil
	}
	res, err := s.users.UpdateMany(ctx,
		bson.M{"favoriteRecipes": bson.M{"$in": drop}},
		bson.M{"$pull": bson.M{"favoriteRecipes": bson.M{"$in": drop}}},
	)
	if err != nil {
		return 0, fmt.Errorf("could not prune favorites: %w", err)
	}
	return res.ModifiedCount, nil
}

// distinctIDs возвращает _id подходящих документов в виде hex-строк
func distinctIDs(ctx context.Context, coll *mongo.Collection, filter interface{}) ([]string, error) {
	return distinctHex(ctx, coll, "_id", filter)
}

// distinctHex собирает различные ObjectID из поля (в том числе из массивов)
func distinctHex(ctx context.Context, coll *mongo.Collection, field string, filter interface{}) ([]string, error) {
	values, err := coll.Distinct(ctx, field, filter)
	if err != nil {
		return nil, fmt.Errorf("could not list %s of %s: %w", field, coll.Name(), err)
	}
	ids := make([]string, 0, len(values))
	for _, v := range values {
		if oid, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, oid.Hex())
		}
	}
	return ids, nil
}
