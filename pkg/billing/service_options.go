package billing

import "log/slog"

// ServiceOption configures a Service instance.
type ServiceOption func(*service)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithChangePublisher registers the notifier invoked after every committed
// subscription mutation. Without one, read-side caches rely on explicit
// refreshes only.
func WithChangePublisher(n ChangePublisher) ServiceOption {
	return func(s *service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithAppURL sets the base URL used to build checkout success/cancel and
// portal return redirects. Defaults to the production app URL.
func WithAppURL(appURL string) ServiceOption {
	return func(s *service) {
		if appURL != "" {
			s.appURL = appURL
		}
	}
}
