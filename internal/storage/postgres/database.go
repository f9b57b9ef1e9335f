package postgres

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
)

type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode,
	)
}

// DB - соединение с базой; транзакция, если она открыта, передается через context
type DB struct {
	conn *gorm.DB
}

// Open подключается к базе данных PostgreSQL
func Open(cfg Config) (*DB, error) {
	conn, err := gorm.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}
	log.Println("Successfully connected to the database.")
	return &DB{conn: conn}, nil
}

// NewWithConnection для тестирования (позволяет инъекцию соединения БД)
func NewWithConnection(conn *gorm.DB) *DB {
	return &DB{conn: conn}
}

// Migrate создает таблицы и индексы. Полнотекстовый индекс есть только у postgres.
func (d *DB) Migrate() error {
	err := d.conn.AutoMigrate(&userRow{}, &recipeRow{}, &commentRow{}, &favoriteRow{}).Error
	if err != nil {
		return fmt.Errorf("failed to migrate database schema: %w", err)
	}

	indexes := []struct {
		model   interface{}
		name    string
		columns []string
	}{
		{&recipeRow{}, "idx_recipes_approved_created", []string{"is_approved", "created_at"}},
		{&recipeRow{}, "idx_recipes_approved_title", []string{"is_approved", "title"}},
		{&commentRow{}, "idx_comments_recipe_created", []string{"recipe_id", "created_at"}},
	}
	for _, idx := range indexes {
		if err := d.conn.Model(idx.model).AddIndex(idx.name, idx.columns...).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	if d.hasTextSearch() {
		err := d.conn.Exec(`CREATE INDEX IF NOT EXISTS idx_recipes_search ON recipes
			USING GIN (to_tsvector('simple', title || ' ' || ingredient_names))`).Error
		if err != nil {
			return fmt.Errorf("failed to create text index: %w", err)
		}
	}
	return nil
}

// Close закрывает соединение с базой данных
func (d *DB) Close() error {
	if d == nil || d.conn == nil {
		return nil
	}
	if err := d.conn.Close(); err != nil {
		return fmt.Errorf("failed to close the database connection: %w", err)
	}
	log.Println("Database connection closed.")
	return nil
}

type txKey struct{}

// WithinTransaction выполняет fn в транзакции; вложенный вызов использует уже открытую
func (d *DB) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}

	tx := d.conn.BeginTx(ctx, nil)
	if tx.Error != nil {
		return fmt.Errorf("begin transaction: %w", tx.Error)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			log.Printf("rollback failed: %v", rbErr)
		}
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// session возвращает открытую транзакцию из ctx или общее соединение
func (d *DB) session(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return d.conn
}

func (d *DB) hasTextSearch() bool {
	return d.conn.Dialect().GetName() == "postgres"
}

// isUniqueViolation распознает нарушение уникальности в postgres и sqlite
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}

// likePattern экранирует спецсимволы LIKE; шаблон используется с ESCAPE '\'
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
