package billing_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/goodswim/backend/pkg/billing"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestResolve(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)

	tests := []struct {
		name string
		sub  *billing.Subscription
		want billing.EffectiveTier
	}{
		{
			name: "nil record is a virtual trial",
			sub:  nil,
			want: billing.EffectiveTrial,
		},
		{
			name: "empty tier defaults to trial",
			sub:  &billing.Subscription{Status: billing.StatusTrialing},
			want: billing.EffectiveTrial,
		},
		{
			name: "trial within window",
			sub: &billing.Subscription{
				Tier:     billing.TierTrial,
				Status:   billing.StatusTrialing,
				TrialEnd: timePtr(future),
			},
			want: billing.EffectiveTrial,
		},
		{
			name: "trial past window expires",
			sub: &billing.Subscription{
				Tier:     billing.TierTrial,
				Status:   billing.StatusTrialing,
				TrialEnd: timePtr(past),
			},
			want: billing.EffectiveExpired,
		},
		{
			name: "trial without window never self-expires",
			sub: &billing.Subscription{
				Tier:   billing.TierTrial,
				Status: billing.StatusTrialing,
			},
			want: billing.EffectiveTrial,
		},
		{
			name: "active paid tier stands",
			sub: &billing.Subscription{
				Tier:   billing.TierPro,
				Status: billing.StatusActive,
			},
			want: billing.EffectivePro,
		},
		{
			name: "trialing paid tier stands",
			sub: &billing.Subscription{
				Tier:   billing.TierClub,
				Status: billing.StatusTrialing,
			},
			want: billing.EffectiveClub,
		},
		{
			name: "past_due overrides paid tier",
			sub: &billing.Subscription{
				Tier:   billing.TierPro,
				Status: billing.StatusPastDue,
			},
			want: billing.EffectiveExpired,
		},
		{
			name: "unpaid overrides paid tier",
			sub: &billing.Subscription{
				Tier:   billing.TierStarter,
				Status: billing.StatusUnpaid,
			},
			want: billing.EffectiveExpired,
		},
		{
			name: "canceled record reset to trial without window expires through status",
			sub: &billing.Subscription{
				Tier:   billing.TierTrial,
				Status: billing.StatusCanceled,
			},
			want: billing.EffectiveExpired,
		},
		{
			name: "canceled overrides open trial window",
			sub: &billing.Subscription{
				Tier:     billing.TierTrial,
				Status:   billing.StatusCanceled,
				TrialEnd: timePtr(future),
			},
			want: billing.EffectiveExpired,
		},
		{
			name: "incomplete status does not expire",
			sub: &billing.Subscription{
				Tier:   billing.TierTrial,
				Status: billing.StatusIncomplete,
				// Window still open.
				TrialEnd: timePtr(future),
			},
			want: billing.EffectiveTrial,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, billing.Resolve(tt.sub, now))
		})
	}
}

func TestResolve_Deterministic(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	sub := &billing.Subscription{
		TeamID:   uuid.New(),
		Tier:     billing.TierTrial,
		Status:   billing.StatusTrialing,
		TrialEnd: timePtr(now.Add(-time.Minute)),
	}

	first := billing.Resolve(sub, now)
	for range 10 {
		assert.Equal(t, first, billing.Resolve(sub, now))
	}
}

func TestResolve_WindowBoundary(t *testing.T) {
	t.Parallel()

	end := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	sub := &billing.Subscription{
		Tier:     billing.TierTrial,
		Status:   billing.StatusTrialing,
		TrialEnd: timePtr(end),
	}

	// Exactly at the boundary the trial is still live; expiry needs
	// trial_end strictly before now.
	assert.Equal(t, billing.EffectiveTrial, billing.Resolve(sub, end))
	assert.Equal(t, billing.EffectiveExpired, billing.Resolve(sub, end.Add(time.Nanosecond)))
}
