package main

import (
	"context"
	"fmt"
	"log"

	"QH_quranhabits/internal/api"
	"QH_quranhabits/internal/metrics"
	"QH_quranhabits/internal/middleware"
	"QH_quranhabits/internal/quran"
	"QH_quranhabits/internal/repository"
	"QH_quranhabits/internal/service"
	"QH_quranhabits/internal/store"
	"QH_quranhabits/pkg/auth"
	"QH_quranhabits/pkg/logger"
	"go.uber.org/zap"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using config file and environment")
	}

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	err = logger.Initialize(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	ctx := context.Background()

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	if err := repo.Migrate(ctx); err != nil {
		zapLogger.Fatal("Failed to migrate database", zap.Error(err))
	}

	local, err := openLocalCache(cfg.Local)
	if err != nil {
		zapLogger.Fatal("Failed to open local cache", zap.Error(err))
	}
	defer local.Close()

	tokens, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		zapLogger.Fatal("Failed to initialize token issuer", zap.Error(err))
	}
	notifier := auth.NewNotifier(16)

	mailer, err := service.NewEmailService(ctx, cfg.Email)
	if err != nil {
		zapLogger.Fatal("Failed to initialize email service", zap.Error(err))
	}
	if !mailer.IsEnabled() {
		zapLogger.Warn("Email service disabled, password reset emails will not be sent")
	}

	content := quran.NewClient(cfg.Quran)
	factory := store.NewFactory(local, repo)

	authService := service.NewAuthService(repo, mailer, tokens, notifier, service.AuthConfig{
		ResetTTL: cfg.Auth.ResetTTL,
		HashCost: cfg.Auth.HashCost,
	})
	svc := service.NewService(
		service.NewChallengeService(content),
		service.NewProgressService(),
		authService,
	)

	metrics.Register(prometheus.DefaultRegisterer)

	router := api.NewRouter(api.Dependencies{
		Challenges: svc.ChallengeService,
		Progress:   svc.ProgressService,
		Auth:       svc.AuthService,
		Content:    content,
		Sync:       repo,
		Session:    middleware.NewSession(authService, factory),
		Metrics:    promhttp.Handler(),
	})

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	zapLogger.Info("Starting server", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		zapLogger.Fatal("Failed to start server", zap.Error(err))
	}
}

type closableCache interface {
	store.LocalCache
	Close() error
}

func openLocalCache(cfg LocalConfig) (closableCache, error) {
	switch cfg.Driver {
	case "memory":
		logger.Logger().Info("Using in-memory local cache")
		return store.NewMemoryCache(), nil
	case "sqlite", "":
		logger.Logger().Info("Using sqlite local cache", zap.String("path", cfg.Path))
		return store.NewSQLiteCache(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown local cache driver %q", cfg.Driver)
	}
}
