package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hn-son/let-him-cook-backend/internal/storage"
	"github.com/hn-son/let-him-cook-backend/models"
)

type CommentMongoStorage struct {
	comments *mongo.Collection
}

func NewCommentMongoStorage(c *Client) *CommentMongoStorage {
	return &CommentMongoStorage{comments: c.collection(commentsCollection)}
}

func (s *CommentMongoStorage) CreateComment(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	doc, err := toCommentDoc(c)
	if err != nil {
		return nil, fmt.Errorf("could not create comment: %w", err)
	}
	res, err := s.comments.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("could not create comment: %w", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toModel(), nil
}

func (s *CommentMongoStorage) GetCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, storage.ErrNotFound
	}
	var doc commentDoc
	err = s.comments.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("could not load comment: %w", err)
	}
	return doc.toModel(), nil
}

func (s *CommentMongoStorage) GetCommentsByIDs(ctx context.Context, ids []string) ([]*models.Comment, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []*models.Comment{}, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": oids}})
}

func (s *CommentMongoStorage) ListCommentsByRecipe(ctx context.Context, recipeID string) ([]*models.Comment, error) {
	oid, err := primitive.ObjectIDFromHex(recipeID)
	if err != nil {
		return []*models.Comment{}, nil
	}
	return s.find(ctx, bson.M{"recipe": oid})
}

func (s *CommentMongoStorage) find(ctx context.Context, filter interface{}) ([]*models.Comment, error) {
	cur, err := s.comments.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("could not list comments: %w", err)
	}
	var docs []commentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("could not decode comments: %w", err)
	}
	out := make([]*models.Comment, len(docs))
	for i := range docs {
		out[i] = docs[i].toModel()
	}
	return out, nil
}

func (s *CommentMongoStorage) UpdateComment(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	oid, err := primitive.ObjectIDFromHex(c.ID)
	if err != nil {
		return nil, storage.ErrNotFound
	}
	update := bson.M{"$set": bson.M{"content": c.Content, "updatedAt": normalizeTime(c.UpdatedAt)}}

	var doc commentDoc
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err = s.comments.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("could not update comment: %w", err)
	}
	return doc.toModel(), nil
}

func (s *CommentMongoStorage) DeleteComment(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return storage.ErrNotFound
	}
	res, err := s.comments.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("could not delete comment: %w", err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *CommentMongoStorage) DeleteCommentsByIDs(ctx context.Context, ids []string) (int64, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return 0, nil
	}
	return s.deleteMany(ctx, bson.M{"_id": bson.M{"$in": oids}})
}

func (s *CommentMongoStorage) DeleteCommentsByRecipes(ctx context.Context, recipeIDs []string) (int64, error) {
	oids := objectIDs(recipeIDs)
	if len(oids) == 0 {
		return 0, nil
	}
	return s.deleteMany(ctx, bson.M{"recipe": bson.M{"$in": oids}})
}

func (s *CommentMongoStorage) DeleteCommentsByAuthor(ctx context.Context, authorID string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(authorID)
	if err != nil {
		return 0, nil
	}
	return s.deleteMany(ctx, bson.M{"author": oid})
}

func (s *CommentMongoStorage) DeleteOrphanedComments(ctx context.Context, recipeIDs, authorIDs []string, before time.Time) (int64, error) {
	return s.deleteMany(ctx, bson.M{
		"createdAt": bson.M{"$lt": before},
		"$or": bson.A{
			bson.M{"recipe": bson.M{"$nin": objectIDs(recipeIDs)}},
			bson.M{"author": bson.M{"$nin": objectIDs(authorIDs)}},
		},
	})
}

func (s *CommentMongoStorage) deleteMany(ctx context.Context, filter interface{}) (int64, error) {
	res, err := s.comments.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("could not delete comments: %w", err)
	}
	return res.DeletedCount, nil
}
