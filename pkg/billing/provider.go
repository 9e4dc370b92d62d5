package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PaymentProvider abstracts the payment processor (Stripe in production,
// Paddle as an alternative). Providers own signature verification and the
// mapping from their wire events to the closed EventKind union; everything
// past ParseWebhook is processor-agnostic.
type PaymentProvider interface {
	// ParseWebhook authenticates the raw payload against the signature and
	// returns a normalized event. A verification failure wraps
	// ErrInvalidSignature; unrecognized event kinds come back as
	// EventIgnored so the dispatcher can acknowledge them.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*Event, error)

	// SignatureHeader names the HTTP header the processor signs with.
	SignatureHeader() string

	// CreateCustomer creates a billing customer and returns the processor's
	// reference for it.
	CreateCustomer(ctx context.Context, req CreateCustomerRequest) (string, error)

	// CreateCheckoutSession creates a hosted checkout redirect.
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)

	// CreatePortalSession creates a hosted customer-portal redirect.
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (*PortalSession, error)

	// GetSubscription fetches the full subscription object; checkout events
	// carry only a reference, the detail fetch fills in status, price and
	// period bounds.
	GetSubscription(ctx context.Context, subscriptionID string) (*SubscriptionDetail, error)
}

// EventKind enumerates the billing-lifecycle events the dispatcher handles.
// The set is closed: the dispatcher carries an exhaustive handler table over
// these kinds and acknowledges everything else without touching state.
type EventKind string

const (
	EventCheckoutCompleted       EventKind = "checkout_completed"
	EventSubscriptionUpdated     EventKind = "subscription_updated"
	EventSubscriptionDeleted     EventKind = "subscription_deleted"
	EventInvoicePaymentSucceeded EventKind = "invoice_payment_succeeded"
	EventInvoicePaymentFailed    EventKind = "invoice_payment_failed"

	// EventIgnored marks event kinds we acknowledge but do not act on.
	EventIgnored EventKind = "ignored"
)

// Event is a normalized, authenticated billing notification. Which fields are
// populated depends on the kind; absent identifiers are zero values.
type Event struct {
	Kind          EventKind
	ProviderEvent string // processor's original event name

	// TeamID and IntendedTier come from checkout metadata and are only set on
	// checkout_completed (and, for IntendedTier, as the metadata fallback on
	// subscription_updated).
	TeamID       uuid.UUID
	IntendedTier Tier

	CustomerID     string
	SubscriptionID string
	PriceID        string

	Status            Status
	PeriodStart       *time.Time
	PeriodEnd         *time.Time
	CancelAtPeriodEnd bool
}

// CreateCustomerRequest carries the data attached to a new billing customer.
type CreateCustomerRequest struct {
	TeamID uuid.UUID
	UserID uuid.UUID
	Email  string
}

// CheckoutRequest describes a hosted checkout session for a paid tier.
type CheckoutRequest struct {
	TeamID       uuid.UUID
	UserID       uuid.UUID
	CustomerID   string // processor's customer reference, already claimed
	PriceID      string
	Tier         Tier
	SwimmerCount int64
	SuccessURL   string
	CancelURL    string
}

// CheckoutSession is a transient hosted-checkout redirect.
type CheckoutSession struct {
	URL       string
	SessionID string
}

// PortalSession is a transient customer-portal redirect.
type PortalSession struct {
	URL string
}

// SubscriptionDetail is the processor's full view of a subscription, fetched
// after checkout completion.
type SubscriptionDetail struct {
	SubscriptionID    string
	CustomerID        string
	PriceID           string
	Status            Status
	PeriodStart       *time.Time
	PeriodEnd         *time.Time
	CancelAtPeriodEnd bool
}
