package limits

import (
	"context"
	"maps"

	"github.com/goodswim/backend/pkg/billing"
)

type inMemSource struct {
	records map[billing.Tier]FeatureLimits
}

// NewInMemSource returns an in-memory Source with a copy of the given
// records. Useful in tests and for embedding the defaults.
func NewInMemSource(records map[billing.Tier]FeatureLimits) Source {
	return &inMemSource{records: maps.Clone(records)}
}

func (s *inMemSource) Load(ctx context.Context) (map[billing.Tier]FeatureLimits, error) {
	return maps.Clone(s.records), nil
}
