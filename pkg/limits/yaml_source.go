package limits

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/goodswim/backend/pkg/billing"
)

type yamlSource struct {
	path string
}

// NewYAMLSource returns a Source reading limit records from a YAML file:
//
//	tiers:
//	  - tier: trial
//	    max_swimmers: 5
//	    ai_video_analysis: true
//	    ai_video_monthly_limit: 3
//	  - tier: club
//	    max_swimmers: null   # unlimited
//	    ...
func NewYAMLSource(path string) Source {
	return &yamlSource{path: path}
}

func (s *yamlSource) Load(ctx context.Context) (map[billing.Tier]FeatureLimits, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	var doc struct {
		Tiers []FeatureLimits `yaml:"tiers"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}

	records := make(map[billing.Tier]FeatureLimits, len(doc.Tiers))
	for _, rec := range doc.Tiers {
		if !rec.Tier.Valid() {
			return nil, fmt.Errorf("%w: unknown tier %q in %s", ErrInvalidConfiguration, rec.Tier, s.path)
		}
		if _, dup := records[rec.Tier]; dup {
			return nil, fmt.Errorf("%w: duplicate tier %q in %s", ErrInvalidConfiguration, rec.Tier, s.path)
		}
		records[rec.Tier] = rec
	}
	return records, nil
}
