package entitlement_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goodswim/backend/pkg/billing"
	"github.com/goodswim/backend/pkg/entitlement"
	"github.com/goodswim/backend/pkg/limits"
)

func newTestRegistry(t *testing.T) *limits.Registry {
	t.Helper()
	registry, err := limits.NewRegistry(context.Background(), limits.NewInMemSource(limits.Defaults()))
	require.NoError(t, err)
	return registry
}

func TestClient_SnapshotUnknownBeforeRefresh(t *testing.T) {
	t.Parallel()

	client := entitlement.NewClient(billing.NewMemoryStore(), newTestRegistry(t))
	teamID := uuid.New()

	snap := client.Snapshot(teamID)
	assert.Equal(t, entitlement.StateUnknown, snap.State)

	// Unknown-state queries degrade to the trial-shaped defaults.
	assert.True(t, client.CanAddSwimmer(teamID))
	assert.False(t, client.HasFeature(teamID, limits.FeatureSD3Import))
	assert.Equal(t, limits.Unlimited, client.RemainingSwimmers(teamID))
	assert.Equal(t, billing.TrialDays, client.TrialDaysLeft(teamID))
	assert.Equal(t, billing.EffectiveTrial, client.EffectiveTier(teamID))
}

func TestClient_Refresh(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("missing record is a loaded virtual trial", func(t *testing.T) {
		t.Parallel()
		client := entitlement.NewClient(billing.NewMemoryStore(), newTestRegistry(t))
		teamID := uuid.New()

		snap, err := client.Refresh(ctx, teamID)
		require.NoError(t, err)
		assert.Equal(t, entitlement.StateLoaded, snap.State)
		assert.Nil(t, snap.Subscription)
		require.NotNil(t, snap.Limits)
		assert.Equal(t, billing.TierTrial, snap.Limits.Tier)
	})

	t.Run("stored record loads with its tier limits", func(t *testing.T) {
		t.Parallel()
		store := billing.NewMemoryStore()
		teamID := uuid.New()

		sub := billing.NewTrialSubscription(teamID, time.Now().UTC())
		sub.Tier = billing.TierPro
		sub.Status = billing.StatusActive
		require.NoError(t, store.Save(ctx, sub))

		client := entitlement.NewClient(store, newTestRegistry(t),
			entitlement.WithSwimmerCounter(func(ctx context.Context, id uuid.UUID) (int64, error) {
				return 42, nil
			}))

		snap, err := client.Refresh(ctx, teamID)
		require.NoError(t, err)
		assert.Equal(t, billing.TierPro, snap.Limits.Tier)
		assert.Equal(t, int64(42), snap.SwimmerCount)
		assert.True(t, client.HasFeature(teamID, limits.FeatureSD3Import))
		assert.Equal(t, int64(33), client.RemainingSwimmers(teamID))
	})

	t.Run("counter failure keeps the snapshot usable", func(t *testing.T) {
		t.Parallel()
		store := billing.NewMemoryStore()
		teamID := uuid.New()
		require.NoError(t, store.Save(ctx, billing.NewTrialSubscription(teamID, time.Now().UTC())))

		client := entitlement.NewClient(store, newTestRegistry(t),
			entitlement.WithSwimmerCounter(func(ctx context.Context, id uuid.UUID) (int64, error) {
				return 0, errors.New("product db down")
			}))

		snap, err := client.Refresh(ctx, teamID)
		require.NoError(t, err)
		assert.Equal(t, entitlement.StateLoaded, snap.State)
		assert.Equal(t, int64(0), snap.SwimmerCount)
	})
}

// A fresh trial team keeps its entitlements through the window and loses them
// once the window closes, with nothing but the clock moving.
func TestClient_TrialLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := billing.NewMemoryStore()
	teamID := uuid.New()
	start := time.Now().UTC()

	require.NoError(t, store.Save(ctx, billing.NewTrialSubscription(teamID, start)))

	client := entitlement.NewClient(store, newTestRegistry(t))
	snap, err := client.Refresh(ctx, teamID)
	require.NoError(t, err)

	// One day in: 13 of 14 days left, trial features available.
	dayOne := start.Add(24 * time.Hour)
	assert.Equal(t, 13, snap.TrialDaysLeftAt(dayOne))
	assert.Equal(t, billing.EffectiveTrial, snap.EffectiveTierAt(dayOne))
	assert.True(t, snap.HasFeatureAt(limits.FeatureAIVideoAnalysis, dayOne))
	assert.True(t, snap.CanAddSwimmerAt(dayOne))

	// Day 15: the window has closed and access is gone, even though the
	// stored limit record still carries the trial flags.
	dayFifteen := start.AddDate(0, 0, 15)
	assert.Equal(t, billing.EffectiveExpired, snap.EffectiveTierAt(dayFifteen))
	assert.Equal(t, 0, snap.TrialDaysLeftAt(dayFifteen))
	assert.False(t, snap.HasFeatureAt(limits.FeatureAIVideoAnalysis, dayFifteen))
	assert.False(t, snap.CanAddSwimmerAt(dayFifteen))
	assert.True(t, snap.IsExpiredAt(dayFifteen))
}

func TestClient_Invalidate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := entitlement.NewClient(billing.NewMemoryStore(), newTestRegistry(t))
	teamID := uuid.New()

	_, err := client.Refresh(ctx, teamID)
	require.NoError(t, err)
	assert.Equal(t, entitlement.StateLoaded, client.Snapshot(teamID).State)

	client.Invalidate(teamID)
	assert.Equal(t, entitlement.StateUnknown, client.Snapshot(teamID).State)
}

func TestClient_RunRefreshesOnChange(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := billing.NewMemoryStore()
	teamID := uuid.New()
	require.NoError(t, store.Save(ctx, billing.NewTrialSubscription(teamID, time.Now().UTC())))

	client := entitlement.NewClient(store, newTestRegistry(t))
	hub := entitlement.NewHub(8)
	defer hub.Close()

	// Prime the cache; Run only refreshes teams already cached.
	_, err := client.Refresh(ctx, teamID)
	require.NoError(t, err)
	assert.Equal(t, billing.EffectiveTrial, client.EffectiveTier(teamID))

	done := make(chan struct{})
	go func() {
		defer close(done)
		client.Run(ctx, hub)
	}()

	// Upgrade lands through a webhook, then the change is published.
	sub, err := store.Get(ctx, teamID)
	require.NoError(t, err)
	sub.Tier = billing.TierClub
	sub.Status = billing.StatusActive
	require.NoError(t, store.Save(ctx, sub))
	hub.Publish(ctx, teamID)

	require.Eventually(t, func() bool {
		return client.EffectiveTier(teamID) == billing.EffectiveClub
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on context cancellation")
	}
}

func TestClient_RunIgnoresUncachedTeams(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := billing.NewMemoryStore()
	client := entitlement.NewClient(store, newTestRegistry(t))
	hub := entitlement.NewHub(8)
	defer hub.Close()

	go client.Run(ctx, hub)

	teamID := uuid.New()
	require.NoError(t, store.Save(ctx, billing.NewTrialSubscription(teamID, time.Now().UTC())))
	hub.Publish(ctx, teamID)

	// Never cached, so the change is dropped and the snapshot stays unknown.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, entitlement.StateUnknown, client.Snapshot(teamID).State)
}
