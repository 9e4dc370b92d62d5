// Package billing is the subscription entitlement engine for swim teams.
//
// It reconciles asynchronous, possibly duplicated, possibly out-of-order
// billing-lifecycle events from the payment processor into a single local
// subscription record per team, and derives from that record the one value the
// rest of the product is allowed to gate on: the effective tier.
//
// # Components
//
//   - Resolve: pure effective-tier derivation from (record, now)
//   - SubscriptionStore: one-record-per-team persistence with idempotent
//     upsert and external-id lookups (Postgres and in-memory implementations)
//   - Service: the webhook dispatcher and checkout/portal session initiator
//   - PaymentProvider: processor abstraction with Stripe and Paddle
//     implementations
//   - PriceMap: the static price-id to tier catalogue mapping
//
// # Webhook processing
//
// Every inbound event is authenticated by the provider over the raw payload
// before any handler runs. Handlers upsert by team id with the event's own
// field values, so redelivery of an already-processed event is safe: same
// inputs yield the same stored state. No ordering guarantee exists across
// distinct events for the same team; the store is last-write-wins.
//
//	svc := billing.NewService(store, provider, prices,
//		billing.WithLogger(log),
//		billing.WithChangePublisher(hub),
//	)
//	err := svc.HandleWebhook(ctx, payload, r.Header.Get(provider.SignatureHeader()))
//
// # Gating
//
// Raw tier and status must never leak into feature decisions; always resolve:
//
//	switch billing.Resolve(sub, time.Now().UTC()) {
//	case billing.EffectiveExpired:
//		// block access, show upgrade prompt
//	}
//
// The read-side cache and query helpers live in pkg/entitlement.
package billing
