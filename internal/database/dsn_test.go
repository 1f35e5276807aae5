package database

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildPostgresDSNDefaults(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{User: "atelier", Name: "atelier"})
	require.NoError(t, err)
	require.Equal(t, "host=localhost port=5432 user=atelier dbname=atelier sslmode=disable", dsn)
}

func TestBuildPostgresDSNOverrides(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{
		Host:     "db.internal",
		Port:     5433,
		User:     "atelier",
		Password: "s3cret",
		Name:     "atelier_prod",
		Options:  map[string]string{"sslmode": "require", "application_name": "atelier"},
	})
	require.NoError(t, err)
	require.Equal(t, "host=db.internal port=5433 user=atelier dbname=atelier_prod password=s3cret application_name=atelier sslmode=require", dsn)
}

func TestBuildPostgresDSNRequiresUserAndName(t *testing.T) {
	_, err := buildPostgresDSN(Config{User: "atelier"})
	require.Error(t, err)

	_, err = buildPostgresDSN(Config{Name: "atelier"})
	require.Error(t, err)
}

func TestBuildPostgresDSNPassthrough(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{DSN: "host=custom"})
	require.NoError(t, err)
	require.Equal(t, "host=custom", dsn)
}

func TestBuildMySQLDSNDefaults(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{User: "atelier", Name: "atelier"})
	require.NoError(t, err)
	require.Equal(t, "atelier@tcp(127.0.0.1:3306)/atelier?charset=utf8mb4&loc=UTC&parseTime=True", dsn)
}

func TestBuildMySQLDSNWithPasswordAndOptions(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{
		Host:     "db.internal",
		Port:     3307,
		User:     "atelier",
		Password: "s3cret",
		Name:     "atelier_prod",
		Options:  map[string]string{"loc": "Local"},
	})
	require.NoError(t, err)
	require.Equal(t, "atelier:s3cret@tcp(db.internal:3307)/atelier_prod?charset=utf8mb4&loc=Local&parseTime=True", dsn)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.Error(t, err)
}
