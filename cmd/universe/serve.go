// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Universe Contributors

package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shoprag/universe/internal/config"
	"github.com/shoprag/universe/internal/embed"
	openaiprov "github.com/shoprag/universe/internal/embed/openai"
	voyageprov "github.com/shoprag/universe/internal/embed/voyage"
	indexsqlite "github.com/shoprag/universe/internal/index/sqlite"
	"github.com/shoprag/universe/internal/server"
	"github.com/shoprag/universe/internal/universe"
	unierr "github.com/shoprag/universe/pkg/errors"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the universe server",
		Long:  "Load configuration, wire the embedding provider and universe store, and serve the HTTP API.",
		RunE:  runServe,
	}

	cmd.Flags().String("listen", "", "override listen address (host:port)")
	_ = viper.BindPFlag("listen", cmd.Flags().Lookup("listen"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	// Apply flag overrides that Viper resolved.
	if cmd.Flags().Changed("listen") {
		cfg.Listen = viper.GetString("listen")
	}
	if cmd.Root().PersistentFlags().Changed("data-dir") {
		cfg.DataDir = viper.GetString("data_dir")
	}

	logger := newLogger(viper.GetBool("verbose"))
	slog.SetDefault(logger)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return unierr.Wrapf(err, unierr.CodeCLISetupFailure, "creating data directory %s", cfg.DataDir)
	}

	provider, err := newProvider(cfg.Provider)
	if err != nil {
		return err
	}

	registry := universe.NewRegistry(cfg.DataDir, provider.Dimensions(), indexsqlite.Open)
	defer func() {
		if err := registry.Close(); err != nil {
			logger.Warn("closing universe handles", "error", err)
		}
	}()

	store := universe.NewStore(registry, provider, logger)

	srv, err := server.New(server.Config{
		ListenAddr:  cfg.Listen,
		CORSOrigins: cfg.CORSOrigins,
	}, store, logger)
	if err != nil {
		return unierr.Wrap(err, unierr.CodeServerStartFailure, "creating server")
	}

	logger.Info("starting universe",
		"listen", cfg.Listen,
		"data_dir", cfg.DataDir,
		"provider", provider.Name(),
		"dimensions", provider.Dimensions(),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Start(ctx)
}

// newProvider constructs the configured embedding provider.
func newProvider(cfg config.ProviderConfig) (embed.Provider, error) {
	switch cfg.Name {
	case "openai":
		return openaiprov.New(openaiprov.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			BaseURL:    cfg.Endpoint,
		})
	case "voyage":
		return voyageprov.New(voyageprov.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			BaseURL:    cfg.Endpoint,
		})
	default:
		return nil, unierr.Errorf(unierr.CodeProviderConfigInvalid,
			"unknown provider %q", cfg.Name)
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
