// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pagecraft/internal/config"
	"pagecraft/internal/database"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long: `Apply all pending goose migrations to the configured PostgreSQL
database and exit. With --seed the demo template is inserted as well.

Example:
  pagecraft migrate --config ./pagecraft.yaml
  PAGECRAFT_DATABASE__HOST=db pagecraft migrate --seed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closer, err := setup(opts)
			if err != nil {
				return err
			}
			defer closer.Close()

			if cfg.Database.Driver != config.DriverPostgres {
				return fmt.Errorf("migrate needs the %s driver, got %q", config.DriverPostgres, cfg.Database.Driver)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			db, err := database.Connect(ctx, cfg.DSN(), poolFromConfig(cfg))
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Migrate(db); err != nil {
				return err
			}
			if seed {
				return database.Seed(ctx, db)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&seed, "seed", false, "insert the demo template after migrating")
	return cmd
}

func poolFromConfig(cfg *config.Config) database.Pool {
	return database.Pool{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}
}
