package billing

import "errors"

var (
	// Authentication: rejected before any handler runs, never retried.
	ErrInvalidSignature = errors.New("webhook signature verification failed")

	// Validation: the caller must not retry the request unmodified.
	ErrMissingField   = errors.New("missing required field")
	ErrInvalidTier    = errors.New("tier must be one of starter, pro or club")
	ErrMissingPayload = errors.New("webhook payload is empty")

	// Lookup miss: an expected, non-fatal condition - events for objects we
	// do not track yet are acknowledged as no-ops.
	ErrTeamNotFound = errors.New("no team found for external billing reference")

	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrNoCustomer           = errors.New("no billing account exists for this team yet")

	// Configuration: surfaced with enough detail to fix the price catalogue,
	// never silently defaulted to another tier's price.
	ErrPriceNotConfigured = errors.New("no price configured for tier")

	// Upstream: payment processor call failed; the caller owns the retry.
	ErrProviderUnavailable = errors.New("payment provider request failed")

	ErrMissingAPIKey        = errors.New("payment provider API key is required")
	ErrMissingWebhookSecret = errors.New("payment provider webhook secret is required")
	ErrNoCheckoutURL        = errors.New("no checkout URL returned by provider")
	ErrNoPortalURL          = errors.New("no portal URL returned by provider")
)
