package limits

import (
	"context"

	"github.com/goodswim/backend/pkg/billing"
)

// Source loads feature limit records into a Registry. Implementations exist
// for YAML files and in-memory maps; the Postgres seed in migrations/ mirrors
// the same records for direct SQL consumers.
type Source interface {
	Load(ctx context.Context) (map[billing.Tier]FeatureLimits, error)
}
