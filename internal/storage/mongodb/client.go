package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection    = "users"
	recipesCollection  = "recipes"
	commentsCollection = "comments"
)

type Config struct {
	URI      string
	Database string
}

// Client - подключение к базе и доступ к коллекциям
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect подключается к MongoDB и проверяет соединение
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongodb uri is empty")
	}
	if cfg.Database == "" {
		cfg.Database = "recipes"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	log.Printf("Connected to MongoDB database %s", cfg.Database)
	return &Client{client: client, db: client.Database(cfg.Database)}, nil
}

func (c *Client) collection(name string) *mongo.Collection {
	return c.db.Collection(name)
}

// EnsureIndexes создает индексы коллекций; повторный вызов безопасен
func (c *Client) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		recipesCollection: {
			{Keys: bson.D{{Key: "isApproved", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "isApproved", Value: 1}, {Key: "title", Value: 1}}},
			{Keys: bson.D{{Key: "ingredients.name", Value: "text"}, {Key: "title", Value: "text"}}},
			{Keys: bson.D{{Key: "author", Value: 1}}},
		},
		commentsCollection: {
			{Keys: bson.D{{Key: "recipe", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "author", Value: 1}}},
		},
	}

	for name, idx := range indexes {
		if _, err := c.collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to create indexes for %s: %w", name, err)
		}
	}
	return nil
}

// Close отключается от сервера
func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from mongodb: %w", err)
	}
	log.Println("MongoDB connection closed.")
	return nil
}

// WithinTransaction выполняет fn в транзакции. Нужен replica set;
// вложенный вызов использует уже открытую сессию.
func (c *Client) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	session, err := c.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// Drop удаляет базу целиком, нужен интеграционным тестам
func (c *Client) Drop(ctx context.Context) error {
	return c.db.Drop(ctx)
}
