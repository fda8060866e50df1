package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodcourt/internal/common/config"
)

func TestOpen_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "court.db")
	db, err := Open(context.Background(), config.Storage{Driver: DriverSQLite, Path: path}, config.DB{MaxRetries: 1})
	require.NoError(t, err)
	defer db.Close()

	var one int
	require.NoError(t, db.QueryRow("SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.Storage{Driver: "oracle"}, config.DB{})
	assert.Error(t, err)
}

func TestOpen_PgxUnreachableGivesUp(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := Open(ctx, config.Storage{Driver: DriverPgx}, config.DB{
		Host: "127.0.0.1", Port: 1, User: "u", Name: "n",
		MaxRetries: 2, RetryDelay: 10 * time.Millisecond,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
}
