package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/diewo77/go-bistro/internal/models"
	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate creates the tables from the models, then applies the SQL
// migrations that AutoMigrate cannot express (composite and partial indexes).
func Migrate(ctx context.Context, conn *gorm.DB) error {
	if err := conn.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return runSQLMigrations(ctx, conn)
}

func runSQLMigrations(ctx context.Context, conn *gorm.DB) error {
	dialect, err := gooseDialect(conn.Dialector.Name())
	if err != nil {
		return err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	sub, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(dialect, sqlDB, sub)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

func gooseDialect(name string) (goose.Dialect, error) {
	switch name {
	case "sqlite":
		return goose.DialectSQLite3, nil
	case "postgres":
		return goose.DialectPostgres, nil
	}
	return "", fmt.Errorf("no goose dialect for %q", name)
}
