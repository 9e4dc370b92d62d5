package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
	"github.com/google/uuid"
)

// PaddleConfig holds configuration for the Paddle payment provider.
type PaddleConfig struct {
	APIKey        string `env:"PADDLE_API_KEY,required"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET,required"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
}

// PaddleProvider implements PaymentProvider for Paddle. It maps Paddle's
// transaction/subscription events onto the same closed EventKind union the
// Stripe provider produces, so the dispatcher never sees processor specifics.
type PaddleProvider struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
	config   PaddleConfig
}

// NewPaddleProvider creates a Paddle payment provider.
func NewPaddleProvider(cfg PaddleConfig) (*PaddleProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	var client *paddle.SDK
	var err error
	switch strings.ToLower(cfg.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(cfg.APIKey)
	case "production", "":
		client, err = paddle.New(cfg.APIKey)
	default:
		return nil, fmt.Errorf("invalid paddle environment: %s", cfg.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("create paddle client: %w", err)
	}

	return &PaddleProvider{
		client:   client,
		verifier: paddle.NewWebhookVerifier(cfg.WebhookSecret),
		config:   cfg,
	}, nil
}

func (p *PaddleProvider) SignatureHeader() string {
	return "Paddle-Signature"
}

func (p *PaddleProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*Event, error) {
	// The Paddle verifier works on an http.Request, so rebuild one around the
	// raw payload before checking the signature.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhook", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build verification request: %w", err)
	}
	req.Header.Set("Paddle-Signature", signature)

	valid, err := p.verifier.Verify(req)
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}
	if !valid {
		return nil, ErrInvalidSignature
	}

	var paddleEvent struct {
		EventType string         `json:"event_type"`
		Data      map[string]any `json:"data"`
	}
	if err := json.Unmarshal(payload, &paddleEvent); err != nil {
		return nil, fmt.Errorf("parse paddle payload: %w", err)
	}

	ev := &Event{
		Kind:          mapPaddleEventKind(paddleEvent.EventType),
		ProviderEvent: paddleEvent.EventType,
	}
	if ev.Kind == EventIgnored {
		return ev, nil
	}

	data := paddleEvent.Data
	if customData, ok := data["custom_data"].(map[string]any); ok {
		if raw, ok := customData["team_id"].(string); ok {
			if teamID, err := uuid.Parse(raw); err == nil {
				ev.TeamID = teamID
			}
		}
		if tier, ok := customData["tier"].(string); ok {
			ev.IntendedTier = Tier(tier)
		}
	}
	if customerID, ok := data["customer_id"].(string); ok {
		ev.CustomerID = customerID
	}
	if status, ok := data["status"].(string); ok {
		ev.Status = mapPaddleStatus(status)
	}

	if strings.HasPrefix(paddleEvent.EventType, "subscription.") {
		if id, ok := data["id"].(string); ok {
			ev.SubscriptionID = id
		}
		if items, ok := data["items"].([]any); ok && len(items) > 0 {
			if item, ok := items[0].(map[string]any); ok {
				if price, ok := item["price"].(map[string]any); ok {
					if priceID, ok := price["id"].(string); ok {
						ev.PriceID = priceID
					}
				}
			}
		}
		if period, ok := data["current_billing_period"].(map[string]any); ok {
			ev.PeriodStart = parsePaddleTime(period["starts_at"])
			ev.PeriodEnd = parsePaddleTime(period["ends_at"])
		}
		// Paddle models cancel-at-period-end as a scheduled change.
		if change, ok := data["scheduled_change"].(map[string]any); ok {
			if action, ok := change["action"].(string); ok && action == "cancel" {
				ev.CancelAtPeriodEnd = true
			}
		}
	}

	if strings.HasPrefix(paddleEvent.EventType, "transaction.") {
		if subID, ok := data["subscription_id"].(string); ok {
			ev.SubscriptionID = subID
		}
	}

	return ev, nil
}

func (p *PaddleProvider) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (string, error) {
	customer, err := p.client.CustomersClient.CreateCustomer(ctx, &paddle.CreateCustomerRequest{
		Email: req.Email,
		CustomData: paddle.CustomData{
			"team_id": req.TeamID.String(),
			"user_id": req.UserID.String(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("create paddle customer: %w", err)
	}
	return customer.ID, nil
}

func (p *PaddleProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  req.PriceID,
		Quantity: 1,
	})

	transactionReq := &paddle.CreateTransactionRequest{
		Items:      []paddle.CreateTransactionItems{*item},
		CustomerID: paddle.PtrTo(req.CustomerID),
		CustomData: paddle.CustomData{
			"team_id": req.TeamID.String(),
			"user_id": req.UserID.String(),
			"tier":    string(req.Tier),
		},
		Checkout: &paddle.TransactionCheckout{
			URL: paddle.PtrTo(req.SuccessURL),
		},
	}

	transaction, err := p.client.TransactionsClient.CreateTransaction(ctx, transactionReq)
	if err != nil {
		return nil, fmt.Errorf("create paddle transaction: %w", err)
	}
	if transaction.Checkout == nil || transaction.Checkout.URL == nil {
		return nil, ErrNoCheckoutURL
	}
	return &CheckoutSession{URL: *transaction.Checkout.URL, SessionID: transaction.ID}, nil
}

func (p *PaddleProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (*PortalSession, error) {
	session, err := p.client.CustomerPortalSessionsClient.CreateCustomerPortalSession(ctx, &paddle.CreateCustomerPortalSessionRequest{
		CustomerID: customerID,
	})
	if err != nil {
		return nil, fmt.Errorf("create paddle portal session: %w", err)
	}
	if session.URLs.General.Overview == "" {
		return nil, ErrNoPortalURL
	}
	return &PortalSession{URL: session.URLs.General.Overview}, nil
}

func (p *PaddleProvider) GetSubscription(ctx context.Context, subscriptionID string) (*SubscriptionDetail, error) {
	sub, err := p.client.SubscriptionsClient.GetSubscription(ctx, &paddle.GetSubscriptionRequest{
		SubscriptionID: subscriptionID,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch paddle subscription %s: %w", subscriptionID, err)
	}

	detail := &SubscriptionDetail{
		SubscriptionID: sub.ID,
		CustomerID:     sub.CustomerID,
		Status:         mapPaddleStatus(string(sub.Status)),
	}
	if len(sub.Items) > 0 {
		detail.PriceID = sub.Items[0].Price.ID
	}
	if sub.CurrentBillingPeriod != nil {
		detail.PeriodStart = parsePaddleTime(sub.CurrentBillingPeriod.StartsAt)
		detail.PeriodEnd = parsePaddleTime(sub.CurrentBillingPeriod.EndsAt)
	}
	if sub.ScheduledChange != nil && sub.ScheduledChange.Action == paddle.ScheduledChangeActionCancel {
		detail.CancelAtPeriodEnd = true
	}
	return detail, nil
}

func mapPaddleEventKind(paddleEvent string) EventKind {
	switch paddleEvent {
	case "transaction.completed":
		return EventCheckoutCompleted
	case "subscription.updated", "subscription.resumed":
		return EventSubscriptionUpdated
	case "subscription.canceled":
		return EventSubscriptionDeleted
	case "transaction.payment_succeeded":
		return EventInvoicePaymentSucceeded
	case "transaction.payment_failed":
		return EventInvoicePaymentFailed
	default:
		return EventIgnored
	}
}

func mapPaddleStatus(paddleStatus string) Status {
	switch strings.ToLower(paddleStatus) {
	case "trialing":
		return StatusTrialing
	case "active":
		return StatusActive
	case "past_due":
		return StatusPastDue
	case "canceled", "cancelled":
		return StatusCanceled
	case "unpaid":
		return StatusUnpaid
	default:
		return StatusIncomplete
	}
}

func parsePaddleTime(v any) *time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
