// Package databasetest opens migrated throwaway databases for tests.
package databasetest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/wayakart27/ecommerce-sub002/internal/database"
)

// Open returns a migrated SQLite database in a temp dir. The pool holds a
// single connection so concurrent transactions queue behind each other the
// way row locks serialize them on MySQL.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000"
	db, err := database.Open(sqlite.Open(dsn), zaptest.NewLogger(t))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))
	return db
}
