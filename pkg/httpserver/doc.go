// Package httpserver wraps net/http with graceful shutdown and probe
// handlers.
//
//	srv := httpserver.New(cfg, log)
//	if err := srv.Run(ctx, router); err != nil {
//	    log.Error("server failed", "error", err)
//	}
//
// Run blocks until the context is cancelled, a termination signal arrives, or
// the listener fails. HealthCheckHandler builds liveness and readiness
// endpoints over dependency check closures such as pg.Healthcheck and
// redis.Healthcheck.
package httpserver
