package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildSQLiteDSNExplicitDSNWins(t *testing.T) {
	dsn, err := buildSQLiteDSN(Config{
		DSN:  "file:custom?mode=memory",
		Path: "./ignored.sqlite",
	})
	require.NoError(t, err)
	require.Equal(t, "file:custom?mode=memory", dsn)
}

func TestBuildSQLiteDSNMemoryFallback(t *testing.T) {
	for _, path := range []string{"", ":memory:", ":MEMORY:"} {
		dsn, err := buildSQLiteDSN(Config{Path: path})
		require.NoError(t, err)
		require.Equal(t, memorySQLiteDSN, dsn)
	}
}

func TestBuildSQLiteDSNFilePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "atelier.sqlite")

	dsn, err := buildSQLiteDSN(Config{Path: path})
	require.NoError(t, err)
	require.Contains(t, dsn, filepath.ToSlash(path))
	require.Contains(t, dsn, "_journal_mode=WAL")
	require.Contains(t, dsn, "_busy_timeout=5000")

	// The parent directory is created on the way.
	require.DirExists(t, filepath.Dir(path))
}
