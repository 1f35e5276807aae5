package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/atelierhq/backend/internal/models"
	"github.com/atelierhq/backend/pkg/logger"
)

const (
	defaultQuoteRetentionDays = 365
	defaultTokenSpec          = "@hourly"
	defaultQuoteSpec          = "@daily"
)

// Cleaner coordinates background maintenance tasks: scrubbing expired token
// fields off credential records and pruning old closed quote requests.
type Cleaner struct {
	db        *gorm.DB
	cron      *cron.Cron
	now       func() time.Time
	log       *zap.Logger
	retention int

	tokenSchedule string
	quoteSchedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for cleanup comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithTokenSchedule overrides the cron specification for token field cleanup.
func WithTokenSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.tokenSchedule = spec
		}
	}
}

// WithQuoteRetentionDays adjusts how long closed quote requests are retained.
// Zero or negative disables pruning.
func WithQuoteRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		cleaner.retention = days
	}
}

// NewCleaner constructs a Cleaner with sensible defaults.
func NewCleaner(db *gorm.DB, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		db:            db,
		now:           time.Now,
		retention:     defaultQuoteRetentionDays,
		tokenSchedule: defaultTokenSpec,
		quoteSchedule: defaultQuoteSpec,
		log:           logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Start registers cleanup jobs with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if c.db == nil {
		return nil
	}

	if _, err := c.cron.AddFunc(c.tokenSchedule, func() {
		if _, err := ScrubExpiredTokens(context.Background(), c.db, c.now()); err != nil {
			c.log.Warn("token field cleanup failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	if c.retention > 0 {
		if _, err := c.cron.AddFunc(c.quoteSchedule, func() {
			if _, err := PruneClosedQuotes(context.Background(), c.db, c.now(), c.retention); err != nil {
				c.log.Warn("quote request pruning failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured cleanup routines sequentially. Primarily
// used in tests and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if c.db == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if _, err := ScrubExpiredTokens(ctx, c.db, c.now()); err != nil {
		errs = multierr.Append(errs, err)
	}

	if c.retention > 0 {
		if _, err := PruneClosedQuotes(ctx, c.db, c.now(), c.retention); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}

// TokenScrubStats captures the number of credential rows scrubbed per token class.
type TokenScrubStats struct {
	Activation int64
	Reset      int64
	Refresh    int64
}

// ScrubExpiredTokens clears expired single-use token fields off credential
// records. Expired tokens are already unusable; scrubbing just keeps dead
// secrets out of the table.
func ScrubExpiredTokens(ctx context.Context, db *gorm.DB, now time.Time) (TokenScrubStats, error) {
	if db == nil {
		return TokenScrubStats{}, errors.New("scrub tokens: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	stats := TokenScrubStats{}
	columns := []struct {
		name  string
		count *int64
	}{
		{"activation_token", &stats.Activation},
		{"reset_token", &stats.Reset},
		{"refresh_token", &stats.Refresh},
	}

	for _, col := range columns {
		result := db.WithContext(ctx).
			Model(&models.User{}).
			Where(col.name+" IS NOT NULL AND "+col.name+"_expires_at <= ?", now).
			Updates(map[string]any{
				col.name:                 nil,
				col.name + "_expires_at": nil,
			})
		if result.Error != nil {
			return stats, fmt.Errorf("scrub tokens: %s: %w", col.name, result.Error)
		}
		*col.count = result.RowsAffected
	}

	return stats, nil
}

// PruneClosedQuotes deletes closed quote requests older than the retention window.
func PruneClosedQuotes(ctx context.Context, db *gorm.DB, now time.Time, retentionDays int) (int64, error) {
	if db == nil {
		return 0, errors.New("prune quotes: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cutoff := now.AddDate(0, 0, -retentionDays)
	result := db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", models.QuoteStatusClosed, cutoff).
		Delete(&models.QuoteRequest{})
	if result.Error != nil {
		return 0, fmt.Errorf("prune quotes: %w", result.Error)
	}
	return result.RowsAffected, nil
}
