// Package entitlement is the read side of billing: a per-team cached Snapshot
// answering "what can this team do right now" without blocking on the store.
//
// The Client keeps one Snapshot per team, rebuilt when a subscription change
// notification arrives (in-process Hub, or RedisBroadcaster across instances)
// or when Refresh is called explicitly. All query helpers are non-blocking and
// degrade to trial-shaped defaults for teams that were never loaded:
//
//	client := entitlement.NewClient(store, registry,
//	    entitlement.WithSwimmerCounter(countSwimmers),
//	)
//	go client.Run(ctx, hub)
//
//	if !client.CanAddSwimmer(teamID) {
//	    // surface upgrade prompt
//	}
//
// Reads are eventually consistent: after a webhook lands, queries converge
// once the change notification has been consumed. Callers needing the
// authoritative record should go to the SubscriptionStore directly.
package entitlement
