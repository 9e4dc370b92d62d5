package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

// StripeConfig holds configuration for the Stripe payment provider.
type StripeConfig struct {
	APIKey        string `env:"STRIPE_SECRET_KEY,required"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET,required"`
}

// StripeProvider implements PaymentProvider on top of the official Stripe SDK.
type StripeProvider struct {
	api    *client.API
	config StripeConfig
}

// NewStripeProvider creates a Stripe payment provider.
func NewStripeProvider(cfg StripeConfig) (*StripeProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	api := &client.API{}
	api.Init(cfg.APIKey, nil)

	return &StripeProvider{api: api, config: cfg}, nil
}

func (p *StripeProvider) SignatureHeader() string {
	return "Stripe-Signature"
}

// ParseWebhook verifies the Stripe-Signature header over the raw payload and
// normalizes the event. Verification failure is an authentication error; a
// recognized-but-unhandled event type comes back as EventIgnored.
func (p *StripeProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*Event, error) {
	stripeEvent, err := webhook.ConstructEvent(payload, signature, p.config.WebhookSecret)
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}

	switch stripeEvent.Type {
	case "checkout.session.completed":
		return parseCheckoutCompleted(stripeEvent)
	case "customer.subscription.updated":
		return parseSubscriptionEvent(stripeEvent, EventSubscriptionUpdated)
	case "customer.subscription.deleted":
		return parseSubscriptionEvent(stripeEvent, EventSubscriptionDeleted)
	case "invoice.payment_succeeded":
		return parseInvoiceEvent(stripeEvent, EventInvoicePaymentSucceeded)
	case "invoice.payment_failed":
		return parseInvoiceEvent(stripeEvent, EventInvoicePaymentFailed)
	default:
		return &Event{Kind: EventIgnored, ProviderEvent: string(stripeEvent.Type)}, nil
	}
}

func parseCheckoutCompleted(stripeEvent stripe.Event) (*Event, error) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(stripeEvent.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("parse checkout session: %w", err)
	}

	ev := &Event{
		Kind:          EventCheckoutCompleted,
		ProviderEvent: string(stripeEvent.Type),
	}
	// Only subscription-mode checkouts carry billing state we track.
	if session.Mode != stripe.CheckoutSessionModeSubscription || session.Subscription == nil {
		ev.Kind = EventIgnored
		return ev, nil
	}

	ev.SubscriptionID = session.Subscription.ID
	if session.Customer != nil {
		ev.CustomerID = session.Customer.ID
	}
	if teamID, err := uuid.Parse(session.Metadata["team_id"]); err == nil {
		ev.TeamID = teamID
	}
	ev.IntendedTier = Tier(session.Metadata["tier"])
	return ev, nil
}

func parseSubscriptionEvent(stripeEvent stripe.Event, kind EventKind) (*Event, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(stripeEvent.Data.Raw, &sub); err != nil {
		return nil, fmt.Errorf("parse subscription object: %w", err)
	}

	ev := &Event{
		Kind:              kind,
		ProviderEvent:     string(stripeEvent.Type),
		SubscriptionID:    sub.ID,
		Status:            mapStripeStatus(sub.Status),
		IntendedTier:      Tier(sub.Metadata["tier"]),
		PeriodStart:       unixTime(sub.CurrentPeriodStart),
		PeriodEnd:         unixTime(sub.CurrentPeriodEnd),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		ev.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		ev.PriceID = sub.Items.Data[0].Price.ID
	}
	return ev, nil
}

func parseInvoiceEvent(stripeEvent stripe.Event, kind EventKind) (*Event, error) {
	var invoice stripe.Invoice
	if err := json.Unmarshal(stripeEvent.Data.Raw, &invoice); err != nil {
		return nil, fmt.Errorf("parse invoice object: %w", err)
	}

	ev := &Event{Kind: kind, ProviderEvent: string(stripeEvent.Type)}
	if invoice.Subscription == nil {
		// One-off invoices have no subscription to sync.
		ev.Kind = EventIgnored
		return ev, nil
	}
	ev.SubscriptionID = invoice.Subscription.ID
	if invoice.Customer != nil {
		ev.CustomerID = invoice.Customer.ID
	}
	return ev, nil
}

func (p *StripeProvider) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (string, error) {
	params := &stripe.CustomerParams{
		Params: stripe.Params{Context: ctx},
	}
	if req.Email != "" {
		params.Email = stripe.String(req.Email)
	}
	params.AddMetadata("team_id", req.TeamID.String())
	params.AddMetadata("user_id", req.UserID.String())

	customer, err := p.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("create stripe customer: %w", err)
	}
	return customer.ID, nil
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Params:             stripe.Params{Context: ctx},
		Customer:           stripe.String(req.CustomerID),
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(req.PriceID),
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				"team_id":       req.TeamID.String(),
				"user_id":       req.UserID.String(),
				"tier":          string(req.Tier),
				"swimmer_count": strconv.FormatInt(req.SwimmerCount, 10),
			},
		},
		AllowPromotionCodes:      stripe.Bool(true),
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionAuto)),
	}
	params.AddMetadata("team_id", req.TeamID.String())
	params.AddMetadata("user_id", req.UserID.String())
	params.AddMetadata("tier", string(req.Tier))

	session, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create stripe checkout session: %w", err)
	}
	if session.URL == "" {
		return nil, ErrNoCheckoutURL
	}
	return &CheckoutSession{URL: session.URL, SessionID: session.ID}, nil
}

func (p *StripeProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (*PortalSession, error) {
	session, err := p.api.BillingPortalSessions.New(&stripe.BillingPortalSessionParams{
		Params:    stripe.Params{Context: ctx},
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	})
	if err != nil {
		return nil, fmt.Errorf("create stripe portal session: %w", err)
	}
	if session.URL == "" {
		return nil, ErrNoPortalURL
	}
	return &PortalSession{URL: session.URL}, nil
}

func (p *StripeProvider) GetSubscription(ctx context.Context, subscriptionID string) (*SubscriptionDetail, error) {
	sub, err := p.api.Subscriptions.Get(subscriptionID, &stripe.SubscriptionParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch stripe subscription %s: %w", subscriptionID, err)
	}

	detail := &SubscriptionDetail{
		SubscriptionID:    sub.ID,
		Status:            mapStripeStatus(sub.Status),
		PeriodStart:       unixTime(sub.CurrentPeriodStart),
		PeriodEnd:         unixTime(sub.CurrentPeriodEnd),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		detail.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		detail.PriceID = sub.Items.Data[0].Price.ID
	}
	return detail, nil
}

func mapStripeStatus(status stripe.SubscriptionStatus) Status {
	switch status {
	case stripe.SubscriptionStatusTrialing:
		return StatusTrialing
	case stripe.SubscriptionStatusActive:
		return StatusActive
	case stripe.SubscriptionStatusPastDue:
		return StatusPastDue
	case stripe.SubscriptionStatusCanceled:
		return StatusCanceled
	case stripe.SubscriptionStatusUnpaid:
		return StatusUnpaid
	case stripe.SubscriptionStatusIncomplete, stripe.SubscriptionStatusIncompleteExpired:
		return StatusIncomplete
	default:
		return Status(status)
	}
}

func unixTime(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
