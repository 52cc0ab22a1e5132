package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/uninest/uninest/internal/auth"
	"github.com/uninest/uninest/internal/config"
	"github.com/uninest/uninest/internal/logging"
	"github.com/uninest/uninest/internal/storage"
	"github.com/uninest/uninest/internal/web"
)

func newServeCmd() *cobra.Command {
	var (
		port    int
		envFile string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: "Start the UniNest HTTP API. Configuration comes from UNINEST_ environment variables, " +
			"optionally loaded from an env file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on (overrides UNINEST_PORT)")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "env file to load before reading the environment")

	return cmd
}

func runServe(ctx context.Context, cfg config.Config) error {
	logging.Setup(cfg.DevMode)

	database, err := openDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer closeDB(database)

	var opts []web.Option
	if cfg.RedisURL != "" {
		sessions, err := auth.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer func() {
			if err := sessions.Close(); err != nil {
				slog.Warn("closing redis", "err", err)
			}
		}()
		opts = append(opts, web.WithSessions(sessions))
		slog.Info("sessions in redis")
	}
	if cfg.UseMinio() {
		files, err := storage.NewMinio(ctx, cfg.Minio)
		if err != nil {
			return fmt.Errorf("connecting to object store: %w", err)
		}
		opts = append(opts, web.WithFileBackend(files))
		slog.Info("files in object store", "endpoint", cfg.Minio.Endpoint, "bucket", cfg.Minio.Bucket)
	} else {
		slog.Warn("no object store configured, uploads are kept in memory")
	}
	if cfg.DevMode {
		slog.Warn("dev mode: emails are logged, not sent")
	}

	srv, err := web.NewServer(database, cfg.Auth, opts...)
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx, fmt.Sprintf(":%d", cfg.Port))
}
