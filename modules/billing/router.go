package billing

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/goodswim/backend/pkg/billing"
)

// RouterOptions configures the billing HTTP module.
type RouterOptions struct {
	// Service handles webhook ingestion and session creation. Required.
	Service billing.Service
	// SignatureHeader is the request header the processor signs webhooks
	// with, e.g. the value of PaymentProvider.SignatureHeader. Required.
	SignatureHeader string
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Router mounts the billing endpoints:
//
//	POST /webhook   processor webhook ingestion
//	POST /checkout  hosted checkout session for a paid tier
//	POST /portal    customer portal session
//	GET  /subscription/{teamID}  stored subscription record
//
// Example:
//
//	r := chi.NewRouter()
//	r.Mount("/billing", billinghttp.Router(billinghttp.RouterOptions{
//	    Service:         svc,
//	    SignatureHeader: provider.SignatureHeader(),
//	}))
func Router(opts RouterOptions) chi.Router {
	if opts.Service == nil {
		panic("billing module: Service is required")
	}
	if opts.SignatureHeader == "" {
		panic("billing module: SignatureHeader is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	h := &handlers{
		svc:       opts.Service,
		sigHeader: opts.SignatureHeader,
		log:       opts.Logger,
	}

	r := chi.NewRouter()
	r.Post("/webhook", h.handleWebhook)
	r.Post("/checkout", h.handleCheckout)
	r.Post("/portal", h.handlePortal)
	r.Get("/subscription/{teamID}", h.handleSubscription)
	return r
}
