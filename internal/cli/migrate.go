package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"careerquest-service/internal/config"
	pgmigrations "careerquest-service/internal/infra/postgres/migrations"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// NewMigrateCmd creates or upgrades the progress schema.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the progress tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return runMigrationsWithConfig(cmd.Context(), cfg)
		},
	}
}

// runMigrationsWithConfig is also run by start before the progress pool is opened.
func runMigrationsWithConfig(ctx context.Context, cfg config.Config) error {
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres.url not configured; progress is kept in memory")
	}

	db := bun.NewDB(sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL))), pgdialect.New())
	defer db.Close()

	group, err := pgmigrations.Apply(ctx, db)
	if err != nil {
		return fmt.Errorf("migrate progress schema: %w", err)
	}
	if group.IsZero() {
		log.Printf("[migrate] progress schema is up to date")
		return nil
	}
	log.Printf("[migrate] applied %s", group)
	return nil
}
