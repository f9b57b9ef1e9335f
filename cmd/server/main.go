package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hn-son/let-him-cook-backend/graph"
	"github.com/hn-son/let-him-cook-backend/internal/auth"
	"github.com/hn-son/let-him-cook-backend/internal/cascade"
	"github.com/hn-son/let-him-cook-backend/internal/comment"
	"github.com/hn-son/let-him-cook-backend/internal/config"
	"github.com/hn-son/let-him-cook-backend/internal/favorite"
	"github.com/hn-son/let-him-cook-backend/internal/media"
	"github.com/hn-son/let-him-cook-backend/internal/notify"
	"github.com/hn-son/let-him-cook-backend/internal/recipe"
	"github.com/hn-son/let-him-cook-backend/internal/storage/memory"
	"github.com/hn-son/let-him-cook-backend/internal/storage/mongodb"
	"github.com/hn-son/let-him-cook-backend/internal/storage/postgres"
	"github.com/hn-son/let-him-cook-backend/internal/subscription"
	"github.com/hn-son/let-him-cook-backend/internal/user"
)

type stores struct {
	recipes  recipe.RecipeStorage
	comments comment.CommentStorage
	users    user.UserStorage
	tx       cascade.Transactor
	close    func()
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.Storage {
	case "postgres":
		db, err := postgres.Open(cfg.Postgres)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, err
		}
		log.Println("Используется PostgreSQL хранилище")
		return &stores{
			recipes:  postgres.NewRecipePostgresStorage(db),
			comments: postgres.NewCommentPostgresStorage(db),
			users:    postgres.NewUserPostgresStorage(db),
			tx:       db,
			close: func() {
				if err := db.Close(); err != nil {
					log.Printf("Ошибка при закрытии PostgreSQL: %v", err)
				}
			},
		}, nil

	case "mongo":
		client, err := mongodb.Connect(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		if err := client.EnsureIndexes(ctx); err != nil {
			client.Close(context.Background())
			return nil, err
		}
		log.Println("Используется MongoDB хранилище")
		s := &stores{
			recipes:  mongodb.NewRecipeMongoStorage(client),
			comments: mongodb.NewCommentMongoStorage(client),
			users:    mongodb.NewUserMongoStorage(client),
			close: func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := client.Close(ctx); err != nil {
					log.Printf("Ошибка при закрытии MongoDB: %v", err)
				}
			},
		}
		// транзакции доступны только на replica set
		if cfg.MongoTransactions {
			s.tx = client
		}
		return s, nil

	case "memory":
		log.Println("Используется in-memory хранилище")
		return &stores{
			recipes:  memory.NewRecipeMemoryStorage(),
			comments: memory.NewCommentMemoryStorage(),
			users:    memory.NewUserMemoryStorage(),
			close:    func() {},
		}, nil

	default:
		return nil, errors.New("неизвестный тип хранилища: " + cfg.Storage)
	}
}

func main() {
	storageType := flag.String("storage", "", "Тип хранилища: memory, postgres или mongo")
	flag.Parse()

	// загружаем .env из нашего config.go
	config.LoadEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка конфигурации: %v", err)
	}
	if *storageType != "" {
		cfg.Storage = *storageType
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatalf("Ошибка подключения к хранилищу: %v", err)
	}
	defer st.close()

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		log.Fatalf("Ошибка настройки JWT: %v", err)
	}
	tokens.WithAccounts(st.users)
	events := subscription.NewSubscriptionManager()

	var images *media.S3Images
	opts := []cascade.Option{}
	recipeOpts := []recipe.Option{}
	if st.tx != nil {
		opts = append(opts, cascade.WithTransactor(st.tx))
	}
	if cfg.S3Enabled() {
		images, err = media.NewS3Images(ctx, cfg.S3)
		if err != nil {
			log.Fatalf("Ошибка настройки S3: %v", err)
		}
		opts = append(opts, cascade.WithImageRemover(images))
		recipeOpts = append(recipeOpts, recipe.WithImageGuard(images))
		log.Printf("Картинки рецептов хранятся в бакете %s", cfg.S3.Bucket)
	}
	coordinator := cascade.NewCoordinator(st.recipes, st.comments, st.users, opts...)

	resolver := &graph.Resolver{
		UserService:     user.NewService(st.users, user.BcryptHasher{}, tokens, coordinator),
		RecipeService:   recipe.NewService(st.recipes, coordinator, events, recipeOpts...),
		CommentService:  comment.NewService(st.comments, st.recipes, st.users, events),
		FavoriteService: favorite.NewService(st.users, st.recipes),
		Cascade:         coordinator,
	}
	if images != nil {
		resolver.Images = images
	}

	if cfg.AdminEnabled() {
		admin, err := resolver.UserService.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password)
		if err != nil {
			log.Fatalf("Ошибка создания администратора: %v", err)
		}
		log.Printf("Администратор: %s", admin.Email)
	}

	waitNotifier := func() {}
	if cfg.SMTPEnabled() {
		notifier := notify.NewNotifier(events, st.recipes, st.comments, st.users, notify.NewSMTPMailer(cfg.SMTP))
		waitNotifier = notifier.Start(ctx)
		log.Printf("Уведомления отправляются через %s", cfg.SMTP.Host)
	}

	schema, err := graph.NewSchema(resolver)
	if err != nil {
		log.Fatalf("Ошибка сборки схемы: %v", err)
	}

	// HTTP сервер
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           graph.NewHandler(schema, tokens),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Сервер запущен на http://localhost:%s/", cfg.Port)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Ошибка сервера: %v", err)
		}
	}()

	<-ctx.Done() // ждет SIGINT/SIGTERM
	log.Println("Завершение...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Ошибка при завершении сервера: %v", err)
	}
	waitNotifier()

	log.Println("Сервер остановлен корректно")
}
