package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the production SubscriptionStore backed by pgx.
// Single-record consistency relies on the atomic upsert-by-key below; there is
// no in-process locking around webhook handling.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an existing connection pool. The schema is managed by
// the goose migrations under migrations/.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const subscriptionColumns = `team_id, status, tier, trial_end,
	current_period_start, current_period_end, cancel_at_period_end,
	external_customer_id, external_subscription_id, external_price_id,
	created_at, updated_at`

func (s *PostgresStore) Get(ctx context.Context, teamID uuid.UUID) (*Subscription, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE team_id = $1`, teamID)
	return scanSubscription(row)
}

func (s *PostgresStore) FindByCustomerID(ctx context.Context, customerID string) (*Subscription, error) {
	if customerID == "" {
		return nil, ErrTeamNotFound
	}
	row := s.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE external_customer_id = $1`, customerID)
	return asTeamLookup(scanSubscription(row))
}

func (s *PostgresStore) FindBySubscriptionID(ctx context.Context, subscriptionID string) (*Subscription, error) {
	if subscriptionID == "" {
		return nil, ErrTeamNotFound
	}
	row := s.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE external_subscription_id = $1`, subscriptionID)
	return asTeamLookup(scanSubscription(row))
}

// asTeamLookup translates a row miss into the external-reference sentinel:
// lookups by processor id answer "which team owns this reference".
func asTeamLookup(sub *Subscription, err error) (*Subscription, error) {
	if errors.Is(err, ErrSubscriptionNotFound) {
		return nil, ErrTeamNotFound
	}
	return sub, err
}

// Save upserts the full record by team id. Re-applying identical fields yields
// identical stored state; concurrent writers converge to the last commit.
func (s *PostgresStore) Save(ctx context.Context, sub *Subscription) error {
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO subscriptions (
			team_id, status, tier, trial_end,
			current_period_start, current_period_end, cancel_at_period_end,
			external_customer_id, external_subscription_id, external_price_id,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), $11, $12)
		ON CONFLICT (team_id) DO UPDATE SET
			status                   = EXCLUDED.status,
			tier                     = EXCLUDED.tier,
			trial_end                = EXCLUDED.trial_end,
			current_period_start     = EXCLUDED.current_period_start,
			current_period_end       = EXCLUDED.current_period_end,
			cancel_at_period_end     = EXCLUDED.cancel_at_period_end,
			external_customer_id     = EXCLUDED.external_customer_id,
			external_subscription_id = EXCLUDED.external_subscription_id,
			external_price_id        = EXCLUDED.external_price_id,
			updated_at               = EXCLUDED.updated_at`,
		sub.TeamID, sub.Status, sub.Tier, sub.TrialEnd,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.CancelAtPeriodEnd,
		sub.ExternalCustomerID, sub.ExternalSubscriptionID, sub.ExternalPriceID,
		now, now)
	if err != nil {
		return fmt.Errorf("save subscription for team %s: %w", sub.TeamID, err)
	}
	return nil
}

// ClaimCustomerID lets concurrent first-time checkout calls race safely: the
// COALESCE keeps an already-stored customer id and the RETURNING clause hands
// the winner back to the loser.
func (s *PostgresStore) ClaimCustomerID(ctx context.Context, teamID uuid.UUID, customerID string) (string, error) {
	now := time.Now().UTC()
	var winner string
	err := s.pool.QueryRow(ctx, `
		INSERT INTO subscriptions (team_id, status, tier, cancel_at_period_end, external_customer_id, created_at, updated_at)
		VALUES ($1, $2, $3, FALSE, $4, $5, $5)
		ON CONFLICT (team_id) DO UPDATE SET
			external_customer_id = COALESCE(subscriptions.external_customer_id, EXCLUDED.external_customer_id),
			updated_at           = $5
		RETURNING external_customer_id`,
		teamID, StatusIncomplete, TierTrial, customerID, now).Scan(&winner)
	if err != nil {
		return "", fmt.Errorf("claim customer id for team %s: %w", teamID, err)
	}
	return winner, nil
}

func (s *PostgresStore) ListTrialsEndingBetween(ctx context.Context, from, to time.Time) ([]Subscription, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE tier = $1 AND trial_end >= $2 AND trial_end < $3
		ORDER BY trial_end`, TierTrial, from, to)
	if err != nil {
		return nil, fmt.Errorf("list ending trials: %w", err)
	}
	defer rows.Close()

	var out []Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list ending trials: %w", err)
	}
	return out, nil
}

type pgxRow interface {
	Scan(dest ...any) error
}

func scanSubscription(row pgxRow) (*Subscription, error) {
	var (
		sub        Subscription
		customerID *string
		subID      *string
		priceID    *string
	)
	err := row.Scan(
		&sub.TeamID, &sub.Status, &sub.Tier, &sub.TrialEnd,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &sub.CancelAtPeriodEnd,
		&customerID, &subID, &priceID,
		&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("scan subscription: %w", err)
	}
	if customerID != nil {
		sub.ExternalCustomerID = *customerID
	}
	if subID != nil {
		sub.ExternalSubscriptionID = *subID
	}
	if priceID != nil {
		sub.ExternalPriceID = *priceID
	}
	return &sub, nil
}
