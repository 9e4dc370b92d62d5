package limits

import (
	"context"
	"errors"
	"fmt"

	"github.com/goodswim/backend/pkg/billing"
)

// Registry holds the per-tier feature limit records, loaded once at startup
// and immutable afterwards.
type Registry struct {
	records map[billing.Tier]FeatureLimits
}

// NewRegistry loads and validates the limit records from src.
// Every tier must have a record; the trial record doubles as the fallback for
// the expired effective tier, so a missing trial record would leave expired
// teams without any limit data.
func NewRegistry(ctx context.Context, src Source) (*Registry, error) {
	if src == nil {
		panic("limits: Source is required")
	}

	records, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadLimits, err)
	}

	for _, tier := range []billing.Tier{billing.TierTrial, billing.TierStarter, billing.TierPro, billing.TierClub} {
		rec, ok := records[tier]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrTierNotDefined, tier)
		}
		if rec.Tier != tier {
			return nil, errors.Join(ErrInvalidConfiguration,
				fmt.Errorf("record keyed %q declares tier %q", tier, rec.Tier))
		}
	}

	return &Registry{records: records}, nil
}

// ForTier returns the limit record gating an effective tier. The expired
// state is forced onto the trial record (the most restrictive defined tier);
// callers still must treat every flag as unavailable when expired - that hard
// rule lives in the entitlement layer.
func (r *Registry) ForTier(effective billing.EffectiveTier) (FeatureLimits, error) {
	key := billing.Tier(effective)
	if effective.Expired() {
		key = billing.TierTrial
	}
	rec, ok := r.records[key]
	if !ok {
		return FeatureLimits{}, fmt.Errorf("%w: %q", ErrTierNotDefined, key)
	}
	return rec, nil
}
