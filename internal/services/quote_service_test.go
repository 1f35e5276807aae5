package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atelierhq/backend/internal/models"
	apperrors "github.com/atelierhq/backend/pkg/errors"
	pkgmail "github.com/atelierhq/backend/pkg/mail"
)

type captureMailer struct {
	messages []pkgmail.Message
	fail     bool
}

func (m *captureMailer) Send(_ context.Context, msg pkgmail.Message) error {
	if m.fail {
		return errors.New("smtp down")
	}
	m.messages = append(m.messages, msg)
	return nil
}

func TestQuoteSubmit(t *testing.T) {
	db := openTestDB(t)
	mailer := &captureMailer{}
	svc, err := NewQuoteService(db, mailer, "studio@atelier.example.com")
	require.NoError(t, err)

	quote, err := svc.Submit(context.Background(), QuoteInput{
		Name:    "Jordan Veld",
		Email:   "jordan@example.com",
		Message: "Looking for a studio extension.",
		Details: map[string]any{"budget": "50-100k", "timeline": "6 months"},
	})
	require.NoError(t, err)
	require.Equal(t, models.QuoteStatusPending, quote.Status)

	var details map[string]any
	require.NoError(t, json.Unmarshal(quote.Details, &details))
	require.Equal(t, "50-100k", details["budget"])

	require.Len(t, mailer.messages, 1)
	require.Equal(t, []string{"studio@atelier.example.com"}, mailer.messages[0].To)
	require.Contains(t, mailer.messages[0].Body, "Jordan Veld")
}

func TestQuoteSubmitValidation(t *testing.T) {
	db := openTestDB(t)
	svc, err := NewQuoteService(db, nil, "")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.Submit(ctx, QuoteInput{Email: "jordan@example.com"})
	require.Error(t, err)

	_, err = svc.Submit(ctx, QuoteInput{Name: "Jordan", Email: "not-an-email"})
	require.Error(t, err)
}

func TestQuoteSubmitSurvivesNotificationFailure(t *testing.T) {
	db := openTestDB(t)
	svc, err := NewQuoteService(db, &captureMailer{fail: true}, "studio@atelier.example.com")
	require.NoError(t, err)

	quote, err := svc.Submit(context.Background(), QuoteInput{
		Name:  "Jordan Veld",
		Email: "jordan@example.com",
	})
	require.NoError(t, err)
	require.NotEmpty(t, quote.ID)
}

func TestQuoteListAndStatus(t *testing.T) {
	db := openTestDB(t)
	svc, err := NewQuoteService(db, nil, "")
	require.NoError(t, err)
	ctx := context.Background()

	first, err := svc.Submit(ctx, QuoteInput{Name: "First", Email: "first@example.com"})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, QuoteInput{Name: "Second", Email: "second@example.com"})
	require.NoError(t, err)

	reviewed, err := svc.UpdateStatus(ctx, first.ID, models.QuoteStatusReviewed)
	require.NoError(t, err)
	require.Equal(t, models.QuoteStatusReviewed, reviewed.Status)

	_, err = svc.UpdateStatus(ctx, first.ID, "archived")
	require.Error(t, err)

	page, err := svc.List(ctx, ListQuotesOptions{Status: models.QuoteStatusPending})
	require.NoError(t, err)
	require.EqualValues(t, 1, page.Total)
	require.Equal(t, "Second", page.Quotes[0].Name)

	_, err = svc.List(ctx, ListQuotesOptions{Status: "bogus"})
	require.Error(t, err)

	_, err = svc.Get(ctx, "missing")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}
