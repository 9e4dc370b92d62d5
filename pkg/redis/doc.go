// Package redis provides connection helpers for the go-redis client:
// a Connect with retry suitable for service startup and a health-check
// closure for liveness probes.
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    os.Exit(1)
//	}
//	defer client.Close()
//
// The entitlement package uses the returned client for cross-instance
// subscription-change pub/sub.
package redis
