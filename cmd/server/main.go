package main

import (
	"context"
	"encoding/base64"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"scanstock-backend/internal/config"
	"scanstock-backend/internal/db"
	"scanstock-backend/internal/handler"
	"scanstock-backend/internal/ports"
	"scanstock-backend/internal/repository"
	"scanstock-backend/internal/server"
	"scanstock-backend/internal/service"
	"scanstock-backend/internal/storage"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	if cfg.IsProduction() {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect database", "err", err)
		os.Exit(1)
	}
	defer pg.Close()

	if cfg.AutoMigrate {
		if err := pg.Migrate(ctx); err != nil {
			logger.Error("failed to apply schema", "err", err)
			os.Exit(1)
		}
	}

	// Firebase (optional): Google sign-in and the profile picture bucket.
	var (
		firebaseAuth *auth.Client
		objects      ports.ObjectStorage = storage.Local{Dir: cfg.UploadDir, BaseURL: cfg.PublicBaseURL}
	)
	if cfg.FirebaseProjectID != "" {
		app, err := firebase.NewApp(ctx, &firebase.Config{
			ProjectID:     cfg.FirebaseProjectID,
			StorageBucket: cfg.StorageBucket,
		}, firebaseOptions(cfg)...)
		if err != nil {
			logger.Error("failed to init firebase app", "err", err)
			os.Exit(1)
		}
		client, err := app.Auth(ctx)
		if err != nil {
			logger.Error("failed to init firebase auth", "err", err)
			os.Exit(1)
		}
		firebaseAuth = client

		if cfg.StorageBucket != "" {
			bucket, err := storage.NewBucket(ctx, app, cfg.StorageBucket)
			if err != nil {
				logger.Error("failed to init storage bucket", "err", err)
				os.Exit(1)
			}
			objects = bucket
			logger.Info("profile pictures stored in bucket", "bucket", cfg.StorageBucket)
		}
	}

	// repositories
	userRepo := repository.UserRepository{DB: pg}
	businessRepo := repository.BusinessRepository{DB: pg}
	categoryRepo := repository.CategoryRepository{DB: pg}
	productRepo := repository.ProductRepository{DB: pg}
	saleRepo := repository.SaleRepository{DB: pg}
	activityRepo := repository.ActivityLogRepository{DB: pg}
	appUpdateRepo := repository.AppUpdateRepository{DB: pg}

	// services
	activitySvc := service.ActivityService{Store: activityRepo, Logger: logger}
	authSvc := service.AuthService{Config: cfg, Users: userRepo, Logger: logger, FirebaseAuth: firebaseAuth}
	userSvc := service.UserService{Users: userRepo, Storage: objects, Logger: logger}
	productSvc := service.ProductService{Tx: pg, Products: productRepo, Categories: categoryRepo, Activity: activitySvc}
	saleSvc := service.SaleService{Tx: pg, Sales: saleRepo, Products: productRepo, Stock: productSvc, Activity: activitySvc}
	categorySvc := service.CategoryService{Categories: categoryRepo}
	businessSvc := service.BusinessService{Businesses: businessRepo}
	appUpdateSvc := service.AppUpdateService{Config: cfg, Updates: appUpdateRepo}

	router := server.NewRouter(cfg, logger, server.Handlers{
		Health:     handler.HealthHandler{DB: pg},
		Docs:       handler.DocsHandler{},
		Auth:       handler.AuthHandler{Service: &authSvc},
		Users:      handler.UserHandler{Service: &userSvc},
		Products:   handler.ProductHandler{Service: &productSvc},
		Sales:      handler.SaleHandler{Service: &saleSvc, Businesses: &businessSvc},
		Categories: handler.CategoryHandler{Service: &categorySvc},
		Business:   handler.BusinessHandler{Service: &businessSvc},
		Activities: handler.ActivityHandler{Service: &activitySvc},
		AppUpdates: handler.AppUpdateHandler{Service: &appUpdateSvc},
	})

	if err := server.Start(ctx, cfg, router, logger); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}

func firebaseOptions(cfg config.Config) []option.ClientOption {
	if cfg.FirebaseCredFile == "" {
		return nil
	}

	cred := cfg.FirebaseCredFile
	// Allow inline JSON or base64-encoded JSON in env to avoid writing a file.
	if strings.HasPrefix(strings.TrimSpace(cred), "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cred))}
	}
	if decoded, err := base64.StdEncoding.DecodeString(cred); err == nil && strings.HasPrefix(strings.TrimSpace(string(decoded)), "{") {
		return []option.ClientOption{option.WithCredentialsJSON(decoded)}
	}

	return []option.ClientOption{option.WithCredentialsFile(cred)}
}
