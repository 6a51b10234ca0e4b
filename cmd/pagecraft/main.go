// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the pagecraft server. The serve
// command loads configuration, connects to services, sets up routing, and
// starts the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"pagecraft/internal/config"
	"pagecraft/internal/logging"
)

// rootOptions holds the global flags.
type rootOptions struct {
	ConfigFile string
	EnvFile    string
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "pagecraft",
		Short:         "Template versioning, snapshot, and publish service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "pagecraft.yaml", "path to the YAML config file (skipped when missing)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", config.EnvFileFromEnviron(), "path to a .env file (skipped when missing)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))

	return cmd
}

// setup loads the configuration and installs the default logger. The
// returned closer flushes the log file sink.
func setup(opts *rootOptions) (*config.Config, io.Closer, error) {
	cfg, err := config.Load(config.Options{File: opts.ConfigFile, EnvFile: opts.EnvFile})
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	logger, closer, err := logging.New(os.Stdout, logging.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.LogFormat(),
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init logging: %w", err)
	}
	slog.SetDefault(logger)

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"driver", cfg.Database.Driver,
	)
	return cfg, closer, nil
}
