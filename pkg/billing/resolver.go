package billing

import "time"

// Resolve computes the effective tier for a subscription record at now.
// It is total, deterministic and side-effect free: the only value the rest of
// the product is allowed to gate on.
//
// Rule order:
//  1. nil record means the team never touched billing: a virtual trial.
//  2. the nominal tier defaults to trial when unset.
//  3. a trial whose recorded window has closed resolves to expired.
//  4. a delinquent status (canceled, unpaid, past_due) resolves to expired and
//     overrides everything above - payment health dominates the nominal tier.
//     In particular a canceled record whose tier was reset to trial with no
//     TrialEnd still expires here; a missing window is not an open-ended one.
//  5. otherwise the nominal tier stands.
func Resolve(s *Subscription, now time.Time) EffectiveTier {
	if s == nil {
		return EffectiveTrial
	}

	base := s.Tier
	if base == "" {
		base = TierTrial
	}

	effective := EffectiveTier(base)
	if base == TierTrial && s.TrialEnd != nil && s.TrialEnd.Before(now) {
		effective = EffectiveExpired
	}
	if s.Status.Delinquent() {
		effective = EffectiveExpired
	}
	return effective
}

// ResolveNow is Resolve evaluated at the current time.
func ResolveNow(s *Subscription) EffectiveTier {
	return Resolve(s, time.Now().UTC())
}
