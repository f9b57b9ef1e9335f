package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/hn-son/let-him-cook-backend/internal/media"
	"github.com/hn-son/let-him-cook-backend/internal/notify"
	"github.com/hn-son/let-him-cook-backend/internal/storage/mongodb"
	"github.com/hn-son/let-him-cook-backend/internal/storage/postgres"
)

type Admin struct {
	Username string
	Email    string
	Password string
}

type Config struct {
	Port    string
	Storage string

	Mongo             mongodb.Config
	MongoTransactions bool
	Postgres          postgres.Config

	JWTSecret string
	TokenTTL  time.Duration

	SMTP  notify.SMTPConfig
	S3    media.S3Config
	Admin Admin
}

func (c *Config) SMTPEnabled() bool  { return c.SMTP.Host != "" }
func (c *Config) S3Enabled() bool    { return c.S3.Bucket != "" }
func (c *Config) AdminEnabled() bool { return c.Admin.Email != "" }

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println(".env file not found")
	}
}

// source читает переменную окружения, а при ее отсутствии - значение из CONFIG_FILE
type source struct {
	defaults map[string]string
}

func (s source) get(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	if v, ok := s.defaults[key]; ok && v != "" {
		return v
	}
	return def
}

func loadDefaults(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	defaults := map[string]string{}
	if err := yaml.Unmarshal(raw, &defaults); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return defaults, nil
}

// Load собирает конфигурацию из окружения (.env подхватывается заранее через LoadEnv)
func Load() (*Config, error) {
	defaults, err := loadDefaults(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return nil, err
	}
	src := source{defaults: defaults}

	cfg := &Config{
		Port:    src.get("APP_PORT", "4000"),
		Storage: src.get("STORAGE", "memory"),
		Mongo: mongodb.Config{
			URI:      src.get("MONGODB_URI", ""),
			Database: src.get("DATABASE_NAME", "recipes"),
		},
		Postgres: postgres.Config{
			Host:     src.get("DB_HOST", "localhost"),
			Port:     src.get("DB_PORT", "5432"),
			User:     src.get("DB_USER", "postgres"),
			Password: src.get("DB_PASSWORD", ""),
			Name:     src.get("DB_NAME", "recipes"),
			SSLMode:  src.get("DB_SSLMODE", "disable"),
		},
		JWTSecret: src.get("JWT_SECRET", ""),
		SMTP: notify.SMTPConfig{
			Host:     src.get("SMTP_HOST", ""),
			Username: src.get("SMTP_USER", ""),
			Password: src.get("SMTP_PASSWORD", ""),
			From:     src.get("SMTP_FROM", ""),
		},
		S3: media.S3Config{
			Bucket:    src.get("AWS_S3_BUCKET", ""),
			Region:    src.get("AWS_S3_REGION", "us-east-1"),
			AccessKey: src.get("AWS_ACCESS_KEY", ""),
			SecretKey: src.get("AWS_SECRET_KEY", ""),
			PublicURL: src.get("AWS_S3_PUBLIC_URL", ""),
		},
		Admin: Admin{
			Username: src.get("ADMIN_USERNAME", "admin"),
			Email:    src.get("ADMIN_EMAIL", ""),
			Password: src.get("ADMIN_PASSWORD", ""),
		},
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("environment variable JWT_SECRET is not set")
	}

	if cfg.TokenTTL, err = time.ParseDuration(src.get("TOKEN_TTL", "1h")); err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	if cfg.SMTP.Port, err = strconv.Atoi(src.get("SMTP_PORT", "587")); err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}
	if cfg.MongoTransactions, err = strconv.ParseBool(src.get("MONGO_TRANSACTIONS", "false")); err != nil {
		return nil, fmt.Errorf("invalid MONGO_TRANSACTIONS: %w", err)
	}
	if cfg.AdminEnabled() && cfg.Admin.Password == "" {
		return nil, errors.New("ADMIN_PASSWORD is required when ADMIN_EMAIL is set")
	}
	return cfg, nil
}
