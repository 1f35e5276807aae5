package maintenance

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/atelierhq/backend/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Role{}, &models.User{}, &models.QuoteRequest{}))
	return db
}

func seedUserWithTokens(t *testing.T, db *gorm.DB, email string, expiresAt time.Time) *models.User {
	t.Helper()

	activation := "activation-" + email
	reset := "reset-" + email
	refresh := "refresh-" + email
	user := &models.User{
		Email:                    email,
		Password:                 "hash",
		ActivationToken:          &activation,
		ActivationTokenExpiresAt: &expiresAt,
		ResetToken:               &reset,
		ResetTokenExpiresAt:      &expiresAt,
		RefreshToken:             &refresh,
		RefreshTokenExpiresAt:    &expiresAt,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestScrubExpiredTokens(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	expired := seedUserWithTokens(t, db, "expired@example.com", now.Add(-time.Minute))
	live := seedUserWithTokens(t, db, "live@example.com", now.Add(time.Hour))
	// Boundary: a token expiring exactly now is expired and gets scrubbed.
	boundary := seedUserWithTokens(t, db, "boundary@example.com", now)

	stats, err := ScrubExpiredTokens(context.Background(), db, now)
	require.NoError(t, err)
	require.EqualValues(t, 2, stats.Activation)
	require.EqualValues(t, 2, stats.Reset)
	require.EqualValues(t, 2, stats.Refresh)

	var scrubbed models.User
	require.NoError(t, db.Take(&scrubbed, "id = ?", expired.ID).Error)
	require.Nil(t, scrubbed.ActivationToken)
	require.Nil(t, scrubbed.ResetToken)
	require.Nil(t, scrubbed.RefreshToken)

	scrubbed = models.User{}
	require.NoError(t, db.Take(&scrubbed, "id = ?", boundary.ID).Error)
	require.Nil(t, scrubbed.RefreshToken)

	var untouched models.User
	require.NoError(t, db.Take(&untouched, "id = ?", live.ID).Error)
	require.NotNil(t, untouched.ActivationToken)
	require.NotNil(t, untouched.ResetToken)
	require.NotNil(t, untouched.RefreshToken)
}

func TestPruneClosedQuotes(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	oldClosed := models.QuoteRequest{Name: "Old", Email: "old@example.com", Status: models.QuoteStatusClosed}
	require.NoError(t, db.Create(&oldClosed).Error)
	require.NoError(t, db.Model(&oldClosed).UpdateColumn("updated_at", now.AddDate(0, 0, -400)).Error)

	oldPending := models.QuoteRequest{Name: "Pending", Email: "pending@example.com", Status: models.QuoteStatusPending}
	require.NoError(t, db.Create(&oldPending).Error)
	require.NoError(t, db.Model(&oldPending).UpdateColumn("updated_at", now.AddDate(0, 0, -400)).Error)

	recentClosed := models.QuoteRequest{Name: "Recent", Email: "recent@example.com", Status: models.QuoteStatusClosed}
	require.NoError(t, db.Create(&recentClosed).Error)

	pruned, err := PruneClosedQuotes(context.Background(), db, now, 365)
	require.NoError(t, err)
	require.EqualValues(t, 1, pruned)

	var remaining []models.QuoteRequest
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 2)
}

func TestRunOnce(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	seedUserWithTokens(t, db, "expired@example.com", now.Add(-time.Hour))

	cleaner := NewCleaner(db, WithNow(func() time.Time { return now }))
	require.NoError(t, cleaner.RunOnce(context.Background()))

	var user models.User
	require.NoError(t, db.Take(&user, "email = ?", "expired@example.com").Error)
	require.Nil(t, user.RefreshToken)
}

func TestRunOnceNilDB(t *testing.T) {
	cleaner := NewCleaner(nil)
	require.NoError(t, cleaner.RunOnce(context.Background()))
}
