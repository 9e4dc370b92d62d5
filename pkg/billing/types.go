package billing

// Tier is the nominal plan a team is on, independent of payment health.
type Tier string

const (
	TierTrial   Tier = "trial"
	TierStarter Tier = "starter"
	TierPro     Tier = "pro"
	TierClub    Tier = "club"
)

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierTrial, TierStarter, TierPro, TierClub:
		return true
	}
	return false
}

// Paid reports whether t is a tier that can be purchased through checkout.
func (t Tier) Paid() bool {
	switch t {
	case TierStarter, TierPro, TierClub:
		return true
	}
	return false
}

// PaidTiers lists the tiers accepted by StartCheckout.
func PaidTiers() []Tier {
	return []Tier{TierStarter, TierPro, TierClub}
}

// EffectiveTier is the derived gating value: a Tier plus the synthetic
// "expired" state. It is never persisted; it is recomputed from the stored
// record and the current time (see Resolve).
type EffectiveTier string

const (
	EffectiveTrial   EffectiveTier = EffectiveTier(TierTrial)
	EffectiveStarter EffectiveTier = EffectiveTier(TierStarter)
	EffectivePro     EffectiveTier = EffectiveTier(TierPro)
	EffectiveClub    EffectiveTier = EffectiveTier(TierClub)
	EffectiveExpired EffectiveTier = "expired"
)

// Expired reports whether the effective tier is the synthetic expired state.
func (e EffectiveTier) Expired() bool {
	return e == EffectiveExpired
}

// Status is the raw subscription status signal from the payment processor.
type Status string

const (
	StatusTrialing   Status = "trialing"
	StatusActive     Status = "active"
	StatusPastDue    Status = "past_due"
	StatusCanceled   Status = "canceled"
	StatusUnpaid     Status = "unpaid"
	StatusIncomplete Status = "incomplete"
)

// Delinquent reports whether the status alone forces the expired effective
// tier, regardless of the nominal tier or trial window.
func (s Status) Delinquent() bool {
	switch s {
	case StatusCanceled, StatusUnpaid, StatusPastDue:
		return true
	}
	return false
}

// TrialDays is the length of the trial window granted to a team that has
// never touched billing.
const TrialDays = 14
