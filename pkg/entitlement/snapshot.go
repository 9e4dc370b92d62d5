package entitlement

import (
	"time"

	"github.com/goodswim/backend/pkg/billing"
	"github.com/goodswim/backend/pkg/limits"
)

// State distinguishes "not yet known" from "known". The original safe-default
// pattern conflated the two; callers that care (onboarding flows, billing
// pages) can now tell them apart while gating queries still degrade safely.
type State int

const (
	// StateUnknown is the zero value: no data has been loaded for the team.
	// Queries on an unknown snapshot return the documented trial-shaped
	// defaults and never block.
	StateUnknown State = iota
	// StateLoaded means the snapshot reflects a successful fetch (including
	// the "no record exists" case, which is a valid virtual-trial state).
	StateLoaded
)

// Snapshot is the cached read model for one team: the subscription record (or
// nil for a never-synthesized virtual trial), its limit record, and the
// current swimmer count. All queries are pure over the snapshot plus a
// caller-supplied clock; none perform I/O.
type Snapshot struct {
	State        State
	Subscription *billing.Subscription
	Limits       *limits.FeatureLimits
	SwimmerCount int64
	LoadedAt     time.Time
}

// EffectiveTierAt derives the gating tier. Unknown snapshots report trial.
func (s Snapshot) EffectiveTierAt(now time.Time) billing.EffectiveTier {
	if s.State == StateUnknown {
		return billing.EffectiveTrial
	}
	return billing.Resolve(s.Subscription, now)
}

// HasFeatureAt reports feature availability, fail-closed: false when limits
// are unknown and false for expired teams regardless of the stored flag -
// the fallback trial record never grants an expired team anything.
func (s Snapshot) HasFeatureAt(f limits.Feature, now time.Time) bool {
	if s.Limits == nil {
		return false
	}
	if s.EffectiveTierAt(now).Expired() {
		return false
	}
	return s.Limits.Has(f)
}

// CanAddSwimmerAt reports whether another swimmer fits under the ceiling.
// Unknown snapshots allow the add (trial-shaped default); loaded snapshots
// without limits, and expired teams, do not.
func (s Snapshot) CanAddSwimmerAt(now time.Time) bool {
	if s.State == StateUnknown {
		return true
	}
	if s.Limits == nil {
		return false
	}
	if s.EffectiveTierAt(now).Expired() {
		return false
	}
	ceiling := s.Limits.SwimmerCeiling()
	if ceiling == limits.Unlimited {
		return true
	}
	return s.SwimmerCount < ceiling
}

// RemainingSwimmers returns how many swimmers can still be added, or
// limits.Unlimited when the tier has no ceiling. Unknown snapshots report
// Unlimited; loaded snapshots without limit data report 0.
func (s Snapshot) RemainingSwimmers() int64 {
	if s.State == StateUnknown {
		return limits.Unlimited
	}
	if s.Limits == nil {
		return 0
	}
	ceiling := s.Limits.SwimmerCeiling()
	if ceiling == limits.Unlimited {
		return limits.Unlimited
	}
	return max(0, ceiling-s.SwimmerCount)
}

// TrialDaysLeftAt returns the rounded-up days left in the trial window,
// floored at 0. Teams not on the nominal trial tier report 0; unknown
// snapshots report the full window.
func (s Snapshot) TrialDaysLeftAt(now time.Time) int {
	if s.State == StateUnknown || s.Subscription == nil {
		return billing.TrialDays
	}
	return s.Subscription.TrialDaysLeftAt(now)
}

// IsTrialExpiringSoonAt reports whether the nominal tier is trial with 1-3
// days left in the window.
func (s Snapshot) IsTrialExpiringSoonAt(now time.Time) bool {
	if s.State == StateUnknown || s.Subscription == nil {
		return false
	}
	if s.Subscription.Tier != billing.TierTrial {
		return false
	}
	days := s.Subscription.TrialDaysLeftAt(now)
	return days >= 1 && days <= 3
}

// IsPaidAt reports whether the effective tier is a paid one.
func (s Snapshot) IsPaidAt(now time.Time) bool {
	return billing.Tier(s.EffectiveTierAt(now)).Paid()
}

// IsExpiredAt reports whether the team has lost access.
func (s Snapshot) IsExpiredAt(now time.Time) bool {
	return s.EffectiveTierAt(now).Expired()
}

// IsTrialAt reports whether the team is on a live (non-expired) trial.
func (s Snapshot) IsTrialAt(now time.Time) bool {
	if s.Subscription != nil && s.Subscription.Tier != billing.TierTrial {
		return false
	}
	return s.EffectiveTierAt(now) == billing.EffectiveTrial
}
