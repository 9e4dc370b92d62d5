package entitlement

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goodswim/backend/pkg/billing"
	"github.com/goodswim/backend/pkg/limits"
	"github.com/goodswim/backend/pkg/logger"
)

// SwimmerCounterFunc returns the team's current swimmer count. Called on every
// snapshot refresh, so it should be a cheap aggregate or cached value.
type SwimmerCounterFunc func(ctx context.Context, teamID uuid.UUID) (int64, error)

// ChangeSource delivers subscription-change notifications, either from the
// in-process Hub or from the Redis broadcaster when multiple instances run.
type ChangeSource interface {
	Subscribe(ctx context.Context) <-chan Change
}

// Client is the read-side entitlement cache. It holds one Snapshot per team,
// recomputed on change notification or explicit refresh; the query helpers
// never block on network I/O - they answer from whatever is cached, degrading
// to the documented trial-shaped defaults for teams never loaded.
type Client struct {
	store    billing.SubscriptionStore
	registry *limits.Registry
	counter  SwimmerCounterFunc
	log      *slog.Logger

	mu    sync.RWMutex
	cache map[uuid.UUID]Snapshot
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithSwimmerCounter wires the swimmer count into snapshots. Without it,
// counts stay 0 and ceilings effectively gate nothing.
func WithSwimmerCounter(fn SwimmerCounterFunc) ClientOption {
	return func(c *Client) {
		if fn != nil {
			c.counter = fn
		}
	}
}

// WithClientLogger sets the structured logger. Defaults to slog.Default().
func WithClientLogger(log *slog.Logger) ClientOption {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient builds the cache over the subscription store and limit registry.
// Panics if either is nil to fail fast during initialization.
func NewClient(store billing.SubscriptionStore, registry *limits.Registry, opts ...ClientOption) *Client {
	if store == nil {
		panic("entitlement: SubscriptionStore is required")
	}
	if registry == nil {
		panic("entitlement: limits.Registry is required")
	}

	c := &Client{
		store:    store,
		registry: registry,
		log:      slog.Default(),
		cache:    make(map[uuid.UUID]Snapshot),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the cached read model for a team without any I/O.
// A team that was never loaded gets the zero Snapshot (StateUnknown).
func (c *Client) Snapshot(teamID uuid.UUID) Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cache[teamID]
}

// Refresh fetches the team's record, limits and swimmer count and replaces
// the cached snapshot. A missing record is a valid state (virtual trial), not
// an error. On failure the previous snapshot stays in place so readers keep a
// consistent, possibly stale view.
func (c *Client) Refresh(ctx context.Context, teamID uuid.UUID) (Snapshot, error) {
	sub, err := c.store.Get(ctx, teamID)
	if err != nil && !errors.Is(err, billing.ErrSubscriptionNotFound) {
		return c.Snapshot(teamID), err
	}

	now := time.Now().UTC()
	snap := Snapshot{
		State:        StateLoaded,
		Subscription: sub,
		LoadedAt:     now,
	}

	if rec, err := c.registry.ForTier(billing.Resolve(sub, now)); err == nil {
		snap.Limits = &rec
	} else {
		// Leaving Limits nil fails closed on every feature check.
		c.log.ErrorContext(ctx, "no limit record for tier", logger.TeamID(teamID), logger.Error(err))
	}

	if c.counter != nil {
		if count, err := c.counter(ctx, teamID); err == nil {
			snap.SwimmerCount = count
		} else {
			c.log.WarnContext(ctx, "swimmer count unavailable", logger.TeamID(teamID), logger.Error(err))
		}
	}

	c.mu.Lock()
	c.cache[teamID] = snap
	c.mu.Unlock()
	return snap, nil
}

// Invalidate drops a team's cached snapshot, returning it to StateUnknown.
func (c *Client) Invalidate(teamID uuid.UUID) {
	c.mu.Lock()
	delete(c.cache, teamID)
	c.mu.Unlock()
}

// Run consumes change notifications until ctx is cancelled or the source
// closes, re-deriving snapshots for teams that are already cached. Readers
// converge within the propagation delay of the channel; until then they see
// the previous effective tier (eventual consistency, not linearizable reads).
func (c *Client) Run(ctx context.Context, src ChangeSource) {
	ch := src.Subscribe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-ch:
			if !ok {
				return
			}
			c.mu.RLock()
			_, cached := c.cache[change.TeamID]
			c.mu.RUnlock()
			if !cached {
				continue
			}
			if _, err := c.Refresh(ctx, change.TeamID); err != nil {
				c.log.WarnContext(ctx, "snapshot refresh failed, keeping stale view",
					logger.TeamID(change.TeamID), logger.Error(err))
			}
		}
	}
}

// Query helpers over the cached state, evaluated at the current time.
// All are non-blocking; see Snapshot for the unknown-state defaults.

func (c *Client) HasFeature(teamID uuid.UUID, f limits.Feature) bool {
	return c.Snapshot(teamID).HasFeatureAt(f, time.Now().UTC())
}

func (c *Client) CanAddSwimmer(teamID uuid.UUID) bool {
	return c.Snapshot(teamID).CanAddSwimmerAt(time.Now().UTC())
}

func (c *Client) RemainingSwimmers(teamID uuid.UUID) int64 {
	return c.Snapshot(teamID).RemainingSwimmers()
}

func (c *Client) TrialDaysLeft(teamID uuid.UUID) int {
	return c.Snapshot(teamID).TrialDaysLeftAt(time.Now().UTC())
}

func (c *Client) IsTrialExpiringSoon(teamID uuid.UUID) bool {
	return c.Snapshot(teamID).IsTrialExpiringSoonAt(time.Now().UTC())
}

func (c *Client) EffectiveTier(teamID uuid.UUID) billing.EffectiveTier {
	return c.Snapshot(teamID).EffectiveTierAt(time.Now().UTC())
}
