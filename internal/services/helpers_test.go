package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/atelierhq/backend/internal/database"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrateAndSeed(db))
	return db
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Residential":            "residential",
		"Atelier HQ Offices":     "atelier-hq-offices",
		"  Mixed_Use / Retail  ": "mixed-use-retail",
		"Café №5":                "caf-5",
	}

	for input, want := range cases {
		require.Equal(t, want, slugify(input), "slugify(%q)", input)
	}
}
