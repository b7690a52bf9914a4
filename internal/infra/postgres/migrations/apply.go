package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

const (
	tableName      = "careerquest_migrations"
	locksTableName = "careerquest_migration_locks"
)

// Apply brings the progress schema up to date under the migration lock. A zero group means
// nothing was pending.
func Apply(ctx context.Context, db *bun.DB) (migrate.MigrationGroup, error) {
	migrator := migrate.NewMigrator(db, Migrations,
		migrate.WithTableName(tableName),
		migrate.WithLocksTableName(locksTableName),
	)
	if err := migrator.Init(ctx); err != nil {
		return migrate.MigrationGroup{}, fmt.Errorf("init migration tables: %w", err)
	}
	if err := migrator.Lock(ctx); err != nil {
		return migrate.MigrationGroup{}, fmt.Errorf("lock migrations: %w", err)
	}
	defer migrator.Unlock(ctx)

	group, err := migrator.Migrate(ctx)
	if group == nil {
		return migrate.MigrationGroup{}, err
	}
	return *group, err
}
