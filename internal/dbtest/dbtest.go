// Package dbtest opens migrated in-memory sqlite databases for tests.
package dbtest

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/diewo77/go-bistro/internal/config"
	"github.com/diewo77/go-bistro/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Open returns a fresh schema private to the calling test.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", name)
	conn, err := db.Open(context.Background(), config.DBConfig{Driver: config.DriverSQLite, URL: dsn}, nil)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background(), conn))
	t.Cleanup(func() { _ = db.Close(conn) })
	return conn
}

// Seeded is Open plus the permission and profile seed.
func Seeded(t testing.TB) *gorm.DB {
	t.Helper()
	conn := Open(t)
	require.NoError(t, db.SeedProfiles(context.Background(), conn))
	return conn
}
