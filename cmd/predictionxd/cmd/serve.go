package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cosmossdk.io/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/openalpha/predictionx/api"
	"github.com/openalpha/predictionx/internal/app"
	"github.com/openalpha/predictionx/internal/store"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP/WebSocket API server",
		RunE:  runServe,
	}
	cmd.Flags().String("dsn", "", "Postgres connection string (env PREDICTIONX_DSN)")
	cmd.Flags().String("host", "0.0.0.0", "listen host")
	cmd.Flags().String("port", "8080", "listen port")
	_ = viper.BindPFlag("dsn", cmd.Flags().Lookup("dsn"))
	_ = viper.BindPFlag("host", cmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("port", cmd.Flags().Lookup("port"))
	viper.SetEnvPrefix("predictionx")
	viper.AutomaticEnv()
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := log.NewLogger(os.Stdout)

	dsn := viper.GetString("dsn")
	if dsn == "" {
		return fmt.Errorf("serve: --dsn (or PREDICTIONX_DSN) is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.NewPool(ctx, dsn)
	if err != nil {
		return fmt.Errorf("serve: connecting to postgres: %w", err)
	}
	defer pool.Close()

	if err := pool.Migrate(ctx); err != nil {
		return fmt.Errorf("serve: running schema migration: %w", err)
	}

	wired := app.New(pool, logger)

	cfg := api.DefaultConfig()
	if h := viper.GetString("host"); h != "" {
		cfg.Host = h
	}
	if p := viper.GetString("port"); p != "" {
		cfg.Port = p
	}

	server := api.NewServer(wired, cfg)
	logger.Info("predictionxd listening", "addr", cfg.Host+":"+cfg.Port)
	return server.Start(ctx)
}
