package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/userhub/user-management/internal/api"
	"github.com/userhub/user-management/internal/core/security"
	"github.com/userhub/user-management/internal/core/service"
	"github.com/userhub/user-management/internal/infrastructure/config"
	mongodb "github.com/userhub/user-management/internal/infrastructure/db/mongo"
	redisdb "github.com/userhub/user-management/internal/infrastructure/db/redis"
	"github.com/userhub/user-management/internal/infrastructure/email"
	"github.com/userhub/user-management/internal/infrastructure/queue"
	"github.com/userhub/user-management/pkg/logger"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Service: "user-management",
		Pretty:  cfg.Env == "development",
	})

	// --- Stores ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("redis close")
		}
	}()

	userRepo := mongodb.NewUserRepository(db)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		return err
	}

	// --- Email pipeline ---
	sender := email.NewSMTPSender(email.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	dispatcher := queue.NewDispatcher(0, sender, log)
	dispatcher.Start(ctx)

	// --- Core services ---
	codec := security.NewJWTCodec(cfg.JWTSecret, cfg.TokenTTL)
	users := service.NewUserService(
		userRepo,
		security.NewBcryptHasher(0),
		codec,
		dispatcher,
		redisdb.NewVerificationStore(rdb),
		service.Options{
			MaxLoginAttempts: cfg.MaxLoginAttempts,
			TokenTTL:         cfg.TokenTTL,
			BaseURL:          cfg.BaseURL,
		},
		log,
	)

	e := api.NewRouter(api.Dependencies{
		Users: users,
		Codec: codec,
		Mongo: db,
		Redis: rdb,
		Log:   log,
	})

	// --- Serve ---
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting http server")
		errCh <- e.Start(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}

	return nil
}
