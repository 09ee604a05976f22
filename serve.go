package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/app"
	"storefront/internal/services"
	"storefront/internal/storage"
	"storefront/pkg/rabbitmq"

	"github.com/spf13/cobra"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the storefront API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(parent context.Context) error {
	if err := cfg.RequireServerSecrets(); err != nil {
		return err
	}

	db, err := app.OpenDatabase(cfg)
	if err != nil {
		return err
	}
	if err := app.Migrate(db); err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	defer sqlDB.Close()

	store, err := storage.New(parent, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	deps := app.Deps{
		DB:        db,
		JWTSecret: cfg.JWTSecret,
		Storage:   store,
		Logger:    logger,
	}
	if cfg.Storage.Driver == "local" {
		deps.StaticDir = cfg.Storage.Dir
		deps.StaticPrefix = cfg.Storage.URLPrefix
	}

	// Events are optional; the API works without a broker.
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, logger)
		if err != nil {
			logger.Warn("running without events", zap.Error(err))
		} else {
			defer mqClient.Close()
			deps.Events = services.EventPublisher(mqClient)
			if err := mqClient.Consume("storefront.activity", "#", logEvent); err != nil {
				logger.Warn("activity consumer not started", zap.Error(err))
			}
		}
	}

	fiberApp, _ := app.New(deps)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", zap.String("addr", cfg.AppPort))
		if err := fiberApp.Listen(cfg.AppPort); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down server")
		return fiberApp.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("server gracefully stopped")
	return nil
}

// logEvent records every storefront event; it is the activity feed operators
// tail while no downstream consumer exists.
func logEvent(msg amqp.Delivery) error {
	var event map[string]interface{}
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		// Malformed events would be redelivered forever.
		logger.Warn("dropping malformed event", zap.String("routing_key", msg.RoutingKey), zap.Error(err))
		return nil
	}
	logger.Info("event", zap.String("routing_key", msg.RoutingKey), zap.Any("payload", event))
	return nil
}
