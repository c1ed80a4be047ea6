package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	"github.com/example/grillhouse/internal/handlers"
	"github.com/example/grillhouse/internal/logger"
	"github.com/example/grillhouse/internal/metrics"
	"github.com/example/grillhouse/internal/redisx"
	"github.com/example/grillhouse/internal/routes"
)

const shutdownTimeout = 10 * time.Second

// grillhouse serve: start the HTTP server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, db, err := boot()
	if err != nil {
		return err
	}
	defer closeDB(db)

	rdb, err := redisx.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	app := fiber.New(fiber.Config{
		AppName:      "Grillhouse Backend",
		ErrorHandler: handlers.ErrorHandler(cfg.IsProduction()),
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(metrics.Middleware())

	routes.Register(app, db, rdb, cfg)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "port", cfg.AppPort, "env", cfg.AppEnv)
		errCh <- app.Listen(":" + cfg.AppPort)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	return app.ShutdownWithTimeout(shutdownTimeout)
}
