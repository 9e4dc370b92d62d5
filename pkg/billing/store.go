package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SubscriptionStore persists the one-record-per-team subscription state.
//
// Save is an idempotent upsert keyed by TeamID: re-applying the same record
// leaves the stored state unchanged. It is deliberately not ordering-safe
// across distinct events - concurrent writers for the same team converge to
// whichever write commits last (see DESIGN.md).
type SubscriptionStore interface {
	// Get returns the team's record or ErrSubscriptionNotFound.
	Get(ctx context.Context, teamID uuid.UUID) (*Subscription, error)

	// Save creates or fully replaces the team's record.
	Save(ctx context.Context, sub *Subscription) error

	// FindByCustomerID locates a team by the processor's customer reference.
	// Returns ErrTeamNotFound when the reference is untracked.
	FindByCustomerID(ctx context.Context, customerID string) (*Subscription, error)

	// FindBySubscriptionID locates a team by the processor's subscription
	// reference. Returns ErrTeamNotFound when untracked.
	FindBySubscriptionID(ctx context.Context, subscriptionID string) (*Subscription, error)

	// ClaimCustomerID atomically records customerID for the team unless one is
	// already stored, and returns the id that won. Two concurrent first-time
	// checkout calls both create a processor customer, but only one reference
	// survives; the loser adopts the returned winner.
	ClaimCustomerID(ctx context.Context, teamID uuid.UUID, customerID string) (string, error)
}

// TrialLister is the narrow read interface the trial reminder needs. Both
// provided stores implement it alongside SubscriptionStore.
type TrialLister interface {
	// ListTrialsEndingBetween returns records still on the trial tier whose
	// trial window ends within [from, to).
	ListTrialsEndingBetween(ctx context.Context, from, to time.Time) ([]Subscription, error)
}
