package billing

import (
	"time"

	"github.com/google/uuid"
)

// Subscription is the single billing record a team owns. It is created on the
// first billing-relevant event (or synthesized as a virtual trial) and never
// deleted: cancellation is a status/tier transition, not a row removal.
type Subscription struct {
	TeamID uuid.UUID // primary key - one record per team
	Status Status
	Tier   Tier

	TrialEnd           *time.Time // meaningful only while Tier == trial
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool

	// Opaque references into the payment processor's object model.
	ExternalCustomerID     string
	ExternalSubscriptionID string
	ExternalPriceID        string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTrialSubscription builds the record that represents a team which has
// never touched billing: trialing on the trial tier with a 14-day window.
// Callers decide whether to persist it or keep it virtual.
func NewTrialSubscription(teamID uuid.UUID, now time.Time) *Subscription {
	now = now.UTC()
	trialEnd := now.AddDate(0, 0, TrialDays)
	return &Subscription{
		TeamID:    teamID,
		Status:    StatusTrialing,
		Tier:      TierTrial,
		TrialEnd:  &trialEnd,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsActive reports whether the processor considers the subscription paid up.
func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive
}

// IsCanceled reports whether the subscription has been canceled.
func (s *Subscription) IsCanceled() bool {
	return s.Status == StatusCanceled
}

// OnTrialTier reports whether the nominal tier is the trial tier. This says
// nothing about whether the trial window is still open.
func (s *Subscription) OnTrialTier() bool {
	return s.Tier == TierTrial
}

// TrialExpiredAt reports whether the trial window had closed by now.
// A missing TrialEnd never expires by itself; the resolver still expires
// delinquent records through the status rule.
func (s *Subscription) TrialExpiredAt(now time.Time) bool {
	if s.Tier != TierTrial || s.TrialEnd == nil {
		return false
	}
	return s.TrialEnd.Before(now)
}

// TrialDaysLeftAt returns the number of whole-or-partial days remaining in the
// trial window at now, floored at 0. Partial days round up, matching what the
// product shows in the trial banner. Returns 0 when the team is not on the
// trial tier or no window is recorded.
func (s *Subscription) TrialDaysLeftAt(now time.Time) int {
	if s.Tier != TierTrial || s.TrialEnd == nil {
		return 0
	}
	remaining := s.TrialEnd.Sub(now)
	if remaining <= 0 {
		return 0
	}
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// TrialDaysLeft is TrialDaysLeftAt evaluated at the current time.
func (s *Subscription) TrialDaysLeft() int {
	return s.TrialDaysLeftAt(time.Now().UTC())
}
