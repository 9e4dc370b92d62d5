package billing_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goodswim/backend/pkg/billing"
	"github.com/goodswim/backend/pkg/email"
)

type captureSender struct {
	mu   sync.Mutex
	sent []email.SendEmailParams
	err  error
}

func (s *captureSender) SendEmail(ctx context.Context, params email.SendEmailParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, params)
	return nil
}

func (s *captureSender) all() []email.SendEmailParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]email.SendEmailParams(nil), s.sent...)
}

func staticRecipient(addr string) billing.RecipientResolverFunc {
	return func(ctx context.Context, teamID uuid.UUID) (string, error) {
		return addr, nil
	}
}

func TestTrialReminder_RunOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)

	store := billing.NewMemoryStore()
	ending := billing.NewTrialSubscription(uuid.New(), now.AddDate(0, 0, -12))
	require.NoError(t, store.Save(ctx, ending))
	fresh := billing.NewTrialSubscription(uuid.New(), now)
	require.NoError(t, store.Save(ctx, fresh))

	sender := &captureSender{}
	reminder := billing.NewTrialReminder(store, sender, staticRecipient("owner@club.test"),
		billing.WithReminderAppURL("https://app.test"))

	reminder.RunOnce(ctx, now)

	sent := sender.all()
	require.Len(t, sent, 1)
	assert.Equal(t, "owner@club.test", sent[0].SendTo)
	assert.Equal(t, "trial-reminder", sent[0].Tag)
	assert.Contains(t, sent[0].Subject, "2 days")
	assert.Contains(t, sent[0].BodyHTML, "https://app.test/app?view=billing")
}

func TestTrialReminder_Deduplicates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)

	store := billing.NewMemoryStore()
	sub := billing.NewTrialSubscription(uuid.New(), now.AddDate(0, 0, -12))
	require.NoError(t, store.Save(ctx, sub))

	sender := &captureSender{}
	reminder := billing.NewTrialReminder(store, sender, staticRecipient("owner@club.test"))

	reminder.RunOnce(ctx, now)
	reminder.RunOnce(ctx, now.Add(time.Hour))
	reminder.RunOnce(ctx, now.Add(2*time.Hour))

	assert.Len(t, sender.all(), 1)
}

func TestTrialReminder_RetriesAfterSendFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)

	store := billing.NewMemoryStore()
	sub := billing.NewTrialSubscription(uuid.New(), now.AddDate(0, 0, -12))
	require.NoError(t, store.Save(ctx, sub))

	sender := &captureSender{err: errors.New("smtp down")}
	reminder := billing.NewTrialReminder(store, sender, staticRecipient("owner@club.test"))

	// Failed sends are not marked notified; the next scan retries.
	reminder.RunOnce(ctx, now)
	assert.Empty(t, sender.all())

	sender.mu.Lock()
	sender.err = nil
	sender.mu.Unlock()

	reminder.RunOnce(ctx, now.Add(time.Hour))
	assert.Len(t, sender.all(), 1)
}
