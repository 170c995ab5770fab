package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/neumonitor/triage-api/internal/api"
	"github.com/neumonitor/triage-api/internal/infrastructure/config"
	mongodb "github.com/neumonitor/triage-api/internal/infrastructure/db/mongo"
	redisdb "github.com/neumonitor/triage-api/internal/infrastructure/db/redis"
	"github.com/neumonitor/triage-api/internal/infrastructure/inference"
	"github.com/neumonitor/triage-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// serveCmd starts the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the triage API server",
	Long: `Starts the triage API server. Usage:

	triage-api serve
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		log := logger.Init(logger.Options{
			Level:  cfg.LogLevel,
			Pretty: cfg.Env == "development",
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			return err
		}
		defer func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := mongoClient.Disconnect(disconnectCtx); err != nil {
				log.Error().Err(err).Msg("mongo disconnect failed")
			}
		}()

		rdb, err := redisdb.Connect(ctx, redisdb.Config{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Error().Err(err).Msg("redis close failed")
			}
		}()

		inferenceClient := inference.NewClient(nil, inference.Config{
			BaseURL:      cfg.Inference.BaseURL,
			SharedSecret: cfg.Inference.SharedSecret,
		})

		e := api.NewRouter(api.Deps{
			Mongo:     db,
			Redis:     rdb,
			Inference: inferenceClient,
			Config:    cfg,
			Logger:    log,
		})

		go func() {
			log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting server")
			if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("server stopped")
				stop()
			}
		}()

		<-ctx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
