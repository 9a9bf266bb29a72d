package probe

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackgen/stackgen/pkg/models"
)

const todoSchema = `CREATE TABLE IF NOT EXISTS todos (id INTEGER PRIMARY KEY, title TEXT NOT NULL);`

func TestBootstrapSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", SQLiteFile)
	require.NoError(t, BootstrapSQLite(context.Background(), path, todoSchema))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'todos'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "todos", name)

	// Re-running against an existing file is harmless.
	require.NoError(t, BootstrapSQLite(context.Background(), path, todoSchema))
}

func TestBootstrapSQLiteBadSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), SQLiteFile)
	err := BootstrapSQLite(context.Background(), path, "CREATE TABLE (")
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	t.Run("sqlite", func(t *testing.T) {
		dir := t.TempDir()
		cfg := &models.ProjectConfig{Database: models.DatabaseSQLite}
		report, err := New().Run(context.Background(), cfg, dir, todoSchema)
		require.NoError(t, err)
		require.Len(t, report.Checks, 1)
		assert.Equal(t, StatusOK, report.Checks[0].Status)
		assert.FileExists(t, filepath.Join(dir, SQLiteFile))
	})

	t.Run("no_driver_skipped", func(t *testing.T) {
		cfg := &models.ProjectConfig{Database: models.DatabasePostgres, DatabaseURL: "postgres://localhost/app"}
		report, err := New().Run(context.Background(), cfg, t.TempDir(), "")
		require.NoError(t, err)
		require.Len(t, report.Checks, 1)
		assert.Equal(t, StatusSkipped, report.Checks[0].Status)
	})

	t.Run("none", func(t *testing.T) {
		report, err := New().Run(context.Background(), &models.ProjectConfig{Database: models.DatabaseNone}, t.TempDir(), "")
		require.NoError(t, err)
		assert.Empty(t, report.Checks)
	})

	t.Run("unreachable_redis", func(t *testing.T) {
		cfg := &models.ProjectConfig{Database: models.DatabaseNone, RedisURL: "redis://:hunter2@127.0.0.1:1/0"}
		report, err := New(WithTimeout(500*time.Millisecond)).Run(context.Background(), cfg, t.TempDir(), "")
		require.Error(t, err)
		require.Len(t, report.Failed(), 1)
		assert.NotContains(t, report.Checks[0].Target, "hunter2")
	})
}

func TestMySQLInvalidTarget(t *testing.T) {
	err := New().MySQL(context.Background(), "not a dsn")
	assert.ErrorIs(t, err, ErrInvalidTarget)

	err = New().MySQL(context.Background(), "mysql://")
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestMySQLUnreachable(t *testing.T) {
	err := New(WithTimeout(500*time.Millisecond)).MySQL(context.Background(), "root:secret@tcp(127.0.0.1:1)/app")
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestRedisInvalidURL(t *testing.T) {
	err := New().Redis(context.Background(), "http://example.com")
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestMySQLDSN(t *testing.T) {
	dsn, err := mysqlDSN("mysql://app:pw@db.internal/shop")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dsn, "app:pw@tcp(db.internal:3306)/shop"), dsn)

	dsn, err = mysqlDSN("root@tcp(localhost:3307)/app")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dsn, "root@tcp(localhost:3307)/app"), dsn)
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "redis://:xxxxx@localhost:6379/0", redact("redis://:pw@localhost:6379/0"))
	assert.Equal(t, "redis://localhost:6379", redact("redis://localhost:6379"))
	assert.NotContains(t, redact("root:secret@tcp(localhost:3306)/app"), "secret")
}
