package billing

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goodswim/backend/pkg/email"
	"github.com/goodswim/backend/pkg/logger"
)

// RecipientResolverFunc maps a team to the email address its trial reminder
// should go to, typically the team owner's address.
type RecipientResolverFunc func(ctx context.Context, teamID uuid.UUID) (string, error)

// TrialReminder periodically emails teams whose trial window is about to end.
// Deduplication is in-memory per process: one reminder per team per trial
// window, lost on restart. A restarted process may re-send at most one
// reminder, which is acceptable for a courtesy notice.
type TrialReminder struct {
	lister    TrialLister
	sender    email.EmailSender
	recipient RecipientResolverFunc
	log       *slog.Logger

	leadTime time.Duration
	interval time.Duration
	appURL   string

	mu       sync.Mutex
	notified map[uuid.UUID]time.Time
}

// ReminderOption configures a TrialReminder.
type ReminderOption func(*TrialReminder)

// WithReminderLeadTime sets how far ahead of trial end the reminder fires.
func WithReminderLeadTime(d time.Duration) ReminderOption {
	return func(r *TrialReminder) {
		if d > 0 {
			r.leadTime = d
		}
	}
}

// WithReminderInterval sets how often ending trials are scanned for.
func WithReminderInterval(d time.Duration) ReminderOption {
	return func(r *TrialReminder) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithReminderAppURL sets the base URL used for the upgrade link.
func WithReminderAppURL(u string) ReminderOption {
	return func(r *TrialReminder) {
		if u != "" {
			r.appURL = u
		}
	}
}

// WithReminderLogger sets the structured logger. Defaults to slog.Default().
func WithReminderLogger(log *slog.Logger) ReminderOption {
	return func(r *TrialReminder) {
		if log != nil {
			r.log = log
		}
	}
}

// NewTrialReminder builds the reminder job. Panics on nil dependencies to
// fail fast during initialization.
func NewTrialReminder(lister TrialLister, sender email.EmailSender, recipient RecipientResolverFunc, opts ...ReminderOption) *TrialReminder {
	if lister == nil {
		panic("billing: TrialLister is required")
	}
	if sender == nil {
		panic("billing: EmailSender is required")
	}
	if recipient == nil {
		panic("billing: RecipientResolverFunc is required")
	}

	r := &TrialReminder{
		lister:    lister,
		sender:    sender,
		recipient: recipient,
		log:       slog.Default(),
		leadTime:  3 * 24 * time.Hour,
		interval:  time.Hour,
		appURL:    "https://goodswim.io",
		notified:  make(map[uuid.UUID]time.Time),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run scans on the configured interval until ctx is cancelled. One scan runs
// immediately on start so a freshly deployed instance does not wait a full
// interval before catching already-ending trials.
func (r *TrialReminder) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.RunOnce(ctx, time.Now().UTC())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RunOnce(ctx, time.Now().UTC())
		}
	}
}

// RunOnce performs a single scan at the given time. Exported so callers can
// trigger a scan directly, and deterministic for tests.
func (r *TrialReminder) RunOnce(ctx context.Context, now time.Time) {
	subs, err := r.lister.ListTrialsEndingBetween(ctx, now, now.Add(r.leadTime))
	if err != nil {
		r.log.ErrorContext(ctx, "failed to list ending trials", logger.Error(err))
		return
	}

	for _, sub := range subs {
		if sub.TrialEnd == nil {
			continue
		}
		if r.alreadyNotified(sub.TeamID, *sub.TrialEnd) {
			continue
		}
		if err := r.notify(ctx, sub, now); err != nil {
			r.log.ErrorContext(ctx, "failed to send trial reminder",
				logger.TeamID(sub.TeamID), logger.Error(err))
			continue
		}
		r.markNotified(sub.TeamID, *sub.TrialEnd)
	}
}

func (r *TrialReminder) notify(ctx context.Context, sub Subscription, now time.Time) error {
	addr, err := r.recipient(ctx, sub.TeamID)
	if err != nil {
		return fmt.Errorf("resolve recipient for team %s: %w", sub.TeamID, err)
	}

	days := sub.TrialDaysLeftAt(now)
	err = r.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   addr,
		Subject:  trialReminderSubject(days),
		BodyHTML: trialReminderBody(days, r.appURL),
		Tag:      "trial-reminder",
	})
	if err != nil {
		return err
	}

	r.log.InfoContext(ctx, "trial reminder sent",
		logger.TeamID(sub.TeamID), "days_left", days)
	return nil
}

func (r *TrialReminder) alreadyNotified(teamID uuid.UUID, trialEnd time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	sent, ok := r.notified[teamID]
	return ok && sent.Equal(trialEnd)
}

func (r *TrialReminder) markNotified(teamID uuid.UUID, trialEnd time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notified[teamID] = trialEnd
}

func trialReminderSubject(days int) string {
	if days <= 1 {
		return "Your GoodSwim trial ends tomorrow"
	}
	return fmt.Sprintf("Your GoodSwim trial ends in %d days", days)
}

func trialReminderBody(days int, appURL string) string {
	when := "tomorrow"
	if days > 1 {
		when = fmt.Sprintf("in %d days", days)
	}
	return fmt.Sprintf(`<html><body>
<p>Your GoodSwim trial ends %s.</p>
<p>Pick a plan to keep your roster, attendance and video analysis going
without interruption.</p>
<p><a href="%s/app?view=billing">Choose a plan</a></p>
</body></html>`, when, appURL)
}
