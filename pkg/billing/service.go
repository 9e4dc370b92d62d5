package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/google/uuid"

	"github.com/goodswim/backend/pkg/logger"
)

// Service is the write side of the entitlement engine: it ingests billing
// webhooks and initiates checkout/portal sessions. It is the only expected
// mutation path for subscription records besides the customer-id backfill.
type Service interface {
	// HandleWebhook authenticates and dispatches one billing event.
	// A nil return means the event was processed or deliberately acknowledged
	// as a no-op; an ErrInvalidSignature return must map to a client error and
	// anything else to a server error so the sender redelivers.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error

	// StartCheckout returns a hosted checkout redirect for a paid tier,
	// creating and persisting a billing customer on first use.
	StartCheckout(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)

	// StartPortal returns a customer-portal redirect for a team that already
	// has a billing customer.
	StartPortal(ctx context.Context, params PortalParams) (*PortalSession, error)

	// Subscription returns the team's stored record, or
	// ErrSubscriptionNotFound when the team never touched billing.
	Subscription(ctx context.Context, teamID uuid.UUID) (*Subscription, error)
}

// CheckoutParams carries a checkout request from the product UI.
type CheckoutParams struct {
	TeamID       uuid.UUID
	UserID       uuid.UUID
	Tier         Tier
	SwimmerCount int64
	Email        string
}

// PortalParams carries a portal request from the product UI. UserID records
// who asked for the portal; the session itself is scoped to the team's
// billing customer.
type PortalParams struct {
	TeamID uuid.UUID
	UserID uuid.UUID
}

// ChangePublisher is notified after every committed subscription mutation so
// read-side caches can recompute. Publishing is best-effort; a lost
// notification delays convergence but never corrupts state.
type ChangePublisher interface {
	Publish(ctx context.Context, teamID uuid.UUID)
}

type eventHandler func(ctx context.Context, ev *Event) error

type service struct {
	store    SubscriptionStore
	provider PaymentProvider
	prices   PriceMap
	appURL   string
	log      *slog.Logger
	notifier ChangePublisher

	// handlers is the closed dispatch table over EventKind; kinds outside it
	// are acknowledged without touching state.
	handlers map[EventKind]eventHandler
}

// NewService wires the webhook dispatcher and session initiator.
// Panics if store or provider is nil to fail fast during initialization.
func NewService(store SubscriptionStore, provider PaymentProvider, prices PriceMap, opts ...ServiceOption) Service {
	if store == nil {
		panic("billing: SubscriptionStore is required")
	}
	if provider == nil {
		panic("billing: PaymentProvider is required")
	}

	s := &service{
		store:    store,
		provider: provider,
		prices:   prices,
		appURL:   "https://goodswim.io",
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.handlers = map[EventKind]eventHandler{
		EventCheckoutCompleted:       s.applyCheckoutCompleted,
		EventSubscriptionUpdated:     s.applySubscriptionUpdated,
		EventSubscriptionDeleted:     s.applySubscriptionDeleted,
		EventInvoicePaymentSucceeded: s.applyInvoicePaymentSucceeded,
		EventInvoicePaymentFailed:    s.applyInvoicePaymentFailed,
	}
	return s
}

func (s *service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if len(payload) == 0 {
		return ErrMissingPayload
	}

	ev, err := s.provider.ParseWebhook(ctx, payload, signature)
	if err != nil {
		return err
	}

	handler, ok := s.handlers[ev.Kind]
	if !ok {
		// Forward-compatible no-op: acknowledged so the sender stops
		// redelivering.
		s.log.DebugContext(ctx, "ignoring billing event", logger.EventType(ev.ProviderEvent))
		return nil
	}

	if err := handler(ctx, ev); err != nil {
		if errors.Is(err, ErrTeamNotFound) {
			// Events for objects we do not track yet are expected; escalating
			// them would make the sender redeliver forever.
			s.log.InfoContext(ctx, "billing event for untracked object",
				logger.EventType(ev.ProviderEvent),
				"customer_id", ev.CustomerID, "subscription_id", ev.SubscriptionID)
			return nil
		}
		return err
	}
	return nil
}

// applyCheckoutCompleted establishes the subscription record from the tier
// choice made at checkout. This is the only path that ties the external
// customer id to an intended tier.
func (s *service) applyCheckoutCompleted(ctx context.Context, ev *Event) error {
	if ev.TeamID == uuid.Nil || !ev.IntendedTier.Valid() || ev.SubscriptionID == "" {
		// The session was not one of ours (no team metadata); acknowledge.
		s.log.WarnContext(ctx, "checkout event without team metadata", logger.EventType(ev.ProviderEvent))
		return nil
	}

	detail, err := s.provider.GetSubscription(ctx, ev.SubscriptionID)
	if err != nil {
		return errors.Join(ErrProviderUnavailable, err)
	}

	sub, err := s.store.Get(ctx, ev.TeamID)
	switch {
	case errors.Is(err, ErrSubscriptionNotFound):
		sub = &Subscription{TeamID: ev.TeamID}
	case err != nil:
		return err
	}

	sub.Status = detail.Status
	sub.Tier = ev.IntendedTier
	sub.CurrentPeriodStart = detail.PeriodStart
	sub.CurrentPeriodEnd = detail.PeriodEnd
	sub.CancelAtPeriodEnd = detail.CancelAtPeriodEnd
	if ev.CustomerID != "" {
		sub.ExternalCustomerID = ev.CustomerID
	} else if detail.CustomerID != "" {
		sub.ExternalCustomerID = detail.CustomerID
	}
	sub.ExternalSubscriptionID = detail.SubscriptionID
	sub.ExternalPriceID = detail.PriceID

	if err := s.store.Save(ctx, sub); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "subscription established from checkout",
		logger.TeamID(ev.TeamID), logger.Tier(ev.IntendedTier), "status", detail.Status)
	s.notifyChanged(ctx, ev.TeamID)
	return nil
}

func (s *service) applySubscriptionUpdated(ctx context.Context, ev *Event) error {
	sub, err := s.store.FindByCustomerID(ctx, ev.CustomerID)
	if err != nil {
		return err
	}

	tier, fellBack := s.prices.ResolveTier(ev.PriceID, ev.IntendedTier)
	if fellBack {
		// Silent business default flagged for catalogue reconciliation.
		s.log.WarnContext(ctx, "unmapped price id, defaulting tier to starter",
			logger.TeamID(sub.TeamID), "price_id", ev.PriceID)
	}

	sub.Status = ev.Status
	sub.Tier = tier
	if ev.SubscriptionID != "" {
		sub.ExternalSubscriptionID = ev.SubscriptionID
	}
	sub.ExternalPriceID = ev.PriceID
	sub.CurrentPeriodStart = ev.PeriodStart
	sub.CurrentPeriodEnd = ev.PeriodEnd
	sub.CancelAtPeriodEnd = ev.CancelAtPeriodEnd

	if err := s.store.Save(ctx, sub); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "subscription updated",
		logger.TeamID(sub.TeamID), logger.Tier(tier), "status", ev.Status)
	s.notifyChanged(ctx, sub.TeamID)
	return nil
}

// applySubscriptionDeleted reverts the team to the trial tier in canceled
// status. TrialEnd is deliberately left as-is (possibly absent); the resolver
// expires the record through the status rule, not the trial window.
func (s *service) applySubscriptionDeleted(ctx context.Context, ev *Event) error {
	sub, err := s.store.FindBySubscriptionID(ctx, ev.SubscriptionID)
	if err != nil {
		return err
	}

	sub.Status = StatusCanceled
	sub.Tier = TierTrial
	sub.CancelAtPeriodEnd = false

	if err := s.store.Save(ctx, sub); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "subscription canceled", logger.TeamID(sub.TeamID))
	s.notifyChanged(ctx, sub.TeamID)
	return nil
}

func (s *service) applyInvoicePaymentSucceeded(ctx context.Context, ev *Event) error {
	return s.setStatusBySubscriptionID(ctx, ev.SubscriptionID, StatusActive)
}

func (s *service) applyInvoicePaymentFailed(ctx context.Context, ev *Event) error {
	return s.setStatusBySubscriptionID(ctx, ev.SubscriptionID, StatusPastDue)
}

func (s *service) setStatusBySubscriptionID(ctx context.Context, subscriptionID string, status Status) error {
	sub, err := s.store.FindBySubscriptionID(ctx, subscriptionID)
	if err != nil {
		return err
	}

	sub.Status = status
	if err := s.store.Save(ctx, sub); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "subscription status changed", logger.TeamID(sub.TeamID), "status", status)
	s.notifyChanged(ctx, sub.TeamID)
	return nil
}

func (s *service) StartCheckout(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	if params.TeamID == uuid.Nil || params.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: team_id and user_id are required", ErrMissingField)
	}
	if !params.Tier.Paid() {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidTier, params.Tier)
	}

	priceID, err := s.prices.PriceFor(params.Tier)
	if err != nil {
		return nil, err
	}

	customerID, err := s.ensureCustomer(ctx, params)
	if err != nil {
		return nil, err
	}

	session, err := s.provider.CreateCheckoutSession(ctx, CheckoutRequest{
		TeamID:       params.TeamID,
		UserID:       params.UserID,
		CustomerID:   customerID,
		PriceID:      priceID,
		Tier:         params.Tier,
		SwimmerCount: params.SwimmerCount,
		SuccessURL:   s.appURL + "/app?billing=success&tier=" + url.QueryEscape(string(params.Tier)),
		CancelURL:    s.appURL + "/app?billing=cancelled",
	})
	if err != nil {
		return nil, errors.Join(ErrProviderUnavailable, err)
	}

	s.log.InfoContext(ctx, "checkout session created",
		logger.TeamID(params.TeamID), logger.Tier(params.Tier), "session_id", session.SessionID)
	return session, nil
}

// ensureCustomer reuses the stored external customer id or creates one and
// persists it before the redirect session is created, so a second concurrent
// call observes the persisted id. The remaining first-call race is settled by
// the store's atomic claim: one created customer wins, the loser adopts it.
func (s *service) ensureCustomer(ctx context.Context, params CheckoutParams) (string, error) {
	sub, err := s.store.Get(ctx, params.TeamID)
	switch {
	case err == nil && sub.ExternalCustomerID != "":
		return sub.ExternalCustomerID, nil
	case err != nil && !errors.Is(err, ErrSubscriptionNotFound):
		return "", err
	}

	created, err := s.provider.CreateCustomer(ctx, CreateCustomerRequest{
		TeamID: params.TeamID,
		UserID: params.UserID,
		Email:  params.Email,
	})
	if err != nil {
		return "", errors.Join(ErrProviderUnavailable, err)
	}

	winner, err := s.store.ClaimCustomerID(ctx, params.TeamID, created)
	if err != nil {
		return "", err
	}
	if winner != created {
		// A concurrent first-time checkout won the claim; the customer we
		// created is an orphan on the processor side.
		s.log.WarnContext(ctx, "concurrent checkout created duplicate customer, adopting winner",
			logger.TeamID(params.TeamID), "orphan_customer_id", created, "customer_id", winner)
	}
	s.notifyChanged(ctx, params.TeamID)
	return winner, nil
}

func (s *service) StartPortal(ctx context.Context, params PortalParams) (*PortalSession, error) {
	if params.TeamID == uuid.Nil || params.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: team_id and user_id are required", ErrMissingField)
	}

	sub, err := s.store.Get(ctx, params.TeamID)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			return nil, ErrNoCustomer
		}
		return nil, err
	}
	if sub.ExternalCustomerID == "" {
		return nil, ErrNoCustomer
	}

	session, err := s.provider.CreatePortalSession(ctx, sub.ExternalCustomerID, s.appURL+"/app?view=billing")
	if err != nil {
		return nil, errors.Join(ErrProviderUnavailable, err)
	}

	s.log.InfoContext(ctx, "portal session created",
		logger.TeamID(params.TeamID), logger.UserID(params.UserID))
	return session, nil
}

func (s *service) Subscription(ctx context.Context, teamID uuid.UUID) (*Subscription, error) {
	return s.store.Get(ctx, teamID)
}

func (s *service) notifyChanged(ctx context.Context, teamID uuid.UUID) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(ctx, teamID)
}
