package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrations_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	version, err := RunMigrations(db.Writer)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
}

func TestRollbackMigrations(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, RollbackMigrations(db.Writer))

	var n int
	err := db.Reader.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'records'`).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = RunMigrations(db.Writer)
	require.NoError(t, err)
}
