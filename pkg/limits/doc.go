// Package limits provides the static per-tier feature and ceiling records.
//
// One FeatureLimits record exists per tier. Records are reference data:
// seeded out of band (YAML file, SQL seed, or the embedded Defaults) and
// immutable at runtime. The Registry resolves an effective tier to its
// record, forcing the synthetic expired state onto the trial record so
// callers always receive limit data.
//
//	registry, err := limits.NewRegistry(ctx, limits.NewYAMLSource("config/feature_limits.yml"))
//	rec, err := registry.ForTier(billing.EffectivePro)
//	if rec.Has(limits.FeatureSD3Import) { ... }
//
// Gating decisions should not use Has directly: the entitlement layer applies
// the hard rule that an expired team has no features regardless of what the
// fallback record allows.
package limits
