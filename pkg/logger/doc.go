// Package logger provides a thin factory around Go's slog package with
// functional options and helper attribute constructors.
//
// The single factory New creates a *slog.Logger configured by Option
// functions: output format (text or json), minimum level, static attributes,
// and environment presets that bundle sensible defaults:
//
//	log := logger.New(logger.WithEnvironment(appEnv, "billing"))
//	logger.SetAsDefault(log)
//
//	log.Info("webhook processed",
//	    logger.TeamID(teamID),
//	    logger.EventType("subscription_updated"),
//	)
//
// Helper constructors in attr.go keep attribute naming consistent across the
// codebase.
package logger
