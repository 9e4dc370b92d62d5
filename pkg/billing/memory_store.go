package billing

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory SubscriptionStore for tests and local
// development. All methods are safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]Subscription
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[uuid.UUID]Subscription)}
}

func (s *MemoryStore) Get(ctx context.Context, teamID uuid.UUID) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[teamID]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	return copySub(sub), nil
}

func (s *MemoryStore) Save(ctx context.Context, sub *Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *sub
	if existing, ok := s.subs[sub.TeamID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.subs[sub.TeamID] = stored
	return nil
}

func (s *MemoryStore) FindByCustomerID(ctx context.Context, customerID string) (*Subscription, error) {
	if customerID == "" {
		return nil, ErrTeamNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.subs {
		if sub.ExternalCustomerID == customerID {
			return copySub(sub), nil
		}
	}
	return nil, ErrTeamNotFound
}

func (s *MemoryStore) FindBySubscriptionID(ctx context.Context, subscriptionID string) (*Subscription, error) {
	if subscriptionID == "" {
		return nil, ErrTeamNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.subs {
		if sub.ExternalSubscriptionID == subscriptionID {
			return copySub(sub), nil
		}
	}
	return nil, ErrTeamNotFound
}

func (s *MemoryStore) ClaimCustomerID(ctx context.Context, teamID uuid.UUID, customerID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	sub, ok := s.subs[teamID]
	if !ok {
		sub = Subscription{
			TeamID:    teamID,
			Status:    StatusIncomplete,
			Tier:      TierTrial,
			CreatedAt: now,
		}
	}
	if sub.ExternalCustomerID == "" {
		sub.ExternalCustomerID = customerID
		sub.UpdatedAt = now
		s.subs[teamID] = sub
	}
	return sub.ExternalCustomerID, nil
}

func (s *MemoryStore) ListTrialsEndingBetween(ctx context.Context, from, to time.Time) ([]Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Subscription
	for _, sub := range s.subs {
		if sub.Tier != TierTrial || sub.TrialEnd == nil {
			continue
		}
		if !sub.TrialEnd.Before(from) && sub.TrialEnd.Before(to) {
			out = append(out, *copySub(sub))
		}
	}
	return out, nil
}

// copySub deep-copies a record so callers cannot mutate stored state
// through returned pointers.
func copySub(sub Subscription) *Subscription {
	c := sub
	if sub.TrialEnd != nil {
		t := *sub.TrialEnd
		c.TrialEnd = &t
	}
	if sub.CurrentPeriodStart != nil {
		t := *sub.CurrentPeriodStart
		c.CurrentPeriodStart = &t
	}
	if sub.CurrentPeriodEnd != nil {
		t := *sub.CurrentPeriodEnd
		c.CurrentPeriodEnd = &t
	}
	return &c
}
