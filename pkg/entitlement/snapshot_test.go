package entitlement_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/goodswim/backend/pkg/billing"
	"github.com/goodswim/backend/pkg/entitlement"
	"github.com/goodswim/backend/pkg/limits"
)

func timePtr(t time.Time) *time.Time { return &t }

func trialLimits() *limits.FeatureLimits {
	rec := limits.Defaults()[billing.TierTrial]
	return &rec
}

func proLimits() *limits.FeatureLimits {
	rec := limits.Defaults()[billing.TierPro]
	return &rec
}

func clubLimits() *limits.FeatureLimits {
	rec := limits.Defaults()[billing.TierClub]
	return &rec
}

func TestSnapshot_UnknownDefaults(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	var snap entitlement.Snapshot

	assert.Equal(t, entitlement.StateUnknown, snap.State)
	assert.Equal(t, billing.EffectiveTrial, snap.EffectiveTierAt(now))
	assert.False(t, snap.HasFeatureAt(limits.FeatureAIVideoAnalysis, now))
	assert.True(t, snap.CanAddSwimmerAt(now))
	assert.Equal(t, limits.Unlimited, snap.RemainingSwimmers())
	assert.Equal(t, billing.TrialDays, snap.TrialDaysLeftAt(now))
	assert.False(t, snap.IsTrialExpiringSoonAt(now))
	assert.False(t, snap.IsPaidAt(now))
	assert.False(t, snap.IsExpiredAt(now))
	assert.True(t, snap.IsTrialAt(now))
}

func TestSnapshot_LoadedVirtualTrial(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	snap := entitlement.Snapshot{
		State:  entitlement.StateLoaded,
		Limits: trialLimits(),
	}

	// A loaded snapshot with no record is the virtual trial: trial-tier
	// gating backed by real limit data.
	assert.Equal(t, billing.EffectiveTrial, snap.EffectiveTierAt(now))
	assert.True(t, snap.HasFeatureAt(limits.FeatureAIVideoAnalysis, now))
	assert.False(t, snap.HasFeatureAt(limits.FeatureSD3Import, now))
	assert.True(t, snap.CanAddSwimmerAt(now))
	assert.Equal(t, int64(5), snap.RemainingSwimmers())
	assert.Equal(t, billing.TrialDays, snap.TrialDaysLeftAt(now))
}

func TestSnapshot_HasFeatureAt(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	t.Run("nil limits fail closed", func(t *testing.T) {
		t.Parallel()
		snap := entitlement.Snapshot{
			State: entitlement.StateLoaded,
			Subscription: &billing.Subscription{
				Tier: billing.TierPro, Status: billing.StatusActive,
			},
		}
		assert.False(t, snap.HasFeatureAt(limits.FeatureSD3Import, now))
	})

	t.Run("expired team has no features regardless of record", func(t *testing.T) {
		t.Parallel()
		snap := entitlement.Snapshot{
			State: entitlement.StateLoaded,
			Subscription: &billing.Subscription{
				Tier: billing.TierPro, Status: billing.StatusUnpaid,
			},
			// Even a full-featured record grants nothing once expired.
			Limits: clubLimits(),
		}
		assert.False(t, snap.HasFeatureAt(limits.FeatureAIVideoAnalysis, now))
		assert.True(t, snap.IsExpiredAt(now))
	})

	t.Run("active paid tier", func(t *testing.T) {
		t.Parallel()
		snap := entitlement.Snapshot{
			State: entitlement.StateLoaded,
			Subscription: &billing.Subscription{
				Tier: billing.TierPro, Status: billing.StatusActive,
			},
			Limits: proLimits(),
		}
		assert.True(t, snap.HasFeatureAt(limits.FeatureSD3Import, now))
		assert.False(t, snap.HasFeatureAt(limits.FeaturePrioritySupport, now))
		assert.True(t, snap.IsPaidAt(now))
	})
}

func TestSnapshot_CanAddSwimmerAt(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	active := &billing.Subscription{Tier: billing.TierPro, Status: billing.StatusActive}

	tests := []struct {
		name string
		snap entitlement.Snapshot
		want bool
	}{
		{
			name: "under ceiling",
			snap: entitlement.Snapshot{
				State: entitlement.StateLoaded, Subscription: active,
				Limits: proLimits(), SwimmerCount: 74,
			},
			want: true,
		},
		{
			name: "at ceiling",
			snap: entitlement.Snapshot{
				State: entitlement.StateLoaded, Subscription: active,
				Limits: proLimits(), SwimmerCount: 75,
			},
			want: false,
		},
		{
			name: "unlimited tier",
			snap: entitlement.Snapshot{
				State:        entitlement.StateLoaded,
				Subscription: &billing.Subscription{Tier: billing.TierClub, Status: billing.StatusActive},
				Limits:       clubLimits(), SwimmerCount: 100000,
			},
			want: true,
		},
		{
			name: "expired blocks adds",
			snap: entitlement.Snapshot{
				State:        entitlement.StateLoaded,
				Subscription: &billing.Subscription{Tier: billing.TierPro, Status: billing.StatusPastDue},
				Limits:       proLimits(), SwimmerCount: 0,
			},
			want: false,
		},
		{
			name: "loaded without limits fails closed",
			snap: entitlement.Snapshot{
				State: entitlement.StateLoaded, Subscription: active,
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.snap.CanAddSwimmerAt(now))
		})
	}
}

func TestSnapshot_RemainingSwimmers(t *testing.T) {
	t.Parallel()

	active := &billing.Subscription{Tier: billing.TierPro, Status: billing.StatusActive}

	snap := entitlement.Snapshot{
		State: entitlement.StateLoaded, Subscription: active,
		Limits: proLimits(), SwimmerCount: 70,
	}
	assert.Equal(t, int64(5), snap.RemainingSwimmers())

	// Overshoot floors at zero rather than going negative.
	snap.SwimmerCount = 80
	assert.Equal(t, int64(0), snap.RemainingSwimmers())

	club := entitlement.Snapshot{
		State:        entitlement.StateLoaded,
		Subscription: &billing.Subscription{Tier: billing.TierClub, Status: billing.StatusActive},
		Limits:       clubLimits(), SwimmerCount: 500,
	}
	assert.Equal(t, limits.Unlimited, club.RemainingSwimmers())

	noLimits := entitlement.Snapshot{State: entitlement.StateLoaded, Subscription: active}
	assert.Equal(t, int64(0), noLimits.RemainingSwimmers())
}

func TestSnapshot_TrialExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	t.Run("expiring soon window is one to three days", func(t *testing.T) {
		t.Parallel()
		mk := func(daysLeft time.Duration) entitlement.Snapshot {
			return entitlement.Snapshot{
				State: entitlement.StateLoaded,
				Subscription: &billing.Subscription{
					Tier: billing.TierTrial, Status: billing.StatusTrialing,
					TrialEnd: timePtr(now.Add(daysLeft)),
				},
				Limits: trialLimits(),
			}
		}

		assert.False(t, mk(10*24*time.Hour).IsTrialExpiringSoonAt(now))
		assert.True(t, mk(3*24*time.Hour).IsTrialExpiringSoonAt(now))
		assert.True(t, mk(12*time.Hour).IsTrialExpiringSoonAt(now))
		assert.False(t, mk(-time.Hour).IsTrialExpiringSoonAt(now))
	})

	t.Run("expired trial", func(t *testing.T) {
		t.Parallel()
		snap := entitlement.Snapshot{
			State: entitlement.StateLoaded,
			Subscription: &billing.Subscription{
				Tier: billing.TierTrial, Status: billing.StatusTrialing,
				TrialEnd: timePtr(now.Add(-time.Hour)),
			},
			Limits: trialLimits(),
		}

		assert.True(t, snap.IsExpiredAt(now))
		assert.False(t, snap.IsTrialAt(now))
		assert.False(t, snap.HasFeatureAt(limits.FeatureAIVideoAnalysis, now))
		assert.False(t, snap.CanAddSwimmerAt(now))
		assert.Equal(t, 0, snap.TrialDaysLeftAt(now))
	})
}
