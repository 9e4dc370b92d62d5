package limits

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goodswim/backend/pkg/billing"
)

type pgSource struct {
	pool *pgxpool.Pool
}

// NewPGSource returns a Source reading limit records from the feature_limits
// table seeded by the migrations. This is the production source; YAML and
// in-memory sources exist for tests and environments without a database.
func NewPGSource(pool *pgxpool.Pool) Source {
	return &pgSource{pool: pool}
}

func (s *pgSource) Load(ctx context.Context) (map[billing.Tier]FeatureLimits, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT tier, max_swimmers, max_coaches,
			ai_video_analysis, ai_video_monthly_limit,
			sd3_import, meet_entries, progress_reports,
			attendance_tracking, priority_support, custom_branding
		FROM feature_limits`)
	if err != nil {
		return nil, fmt.Errorf("query feature_limits: %w", err)
	}
	defer rows.Close()

	records := make(map[billing.Tier]FeatureLimits)
	for rows.Next() {
		var rec FeatureLimits
		err := rows.Scan(
			&rec.Tier, &rec.MaxSwimmers, &rec.MaxCoaches,
			&rec.AIVideoAnalysis, &rec.AIVideoMonthlyLimit,
			&rec.SD3Import, &rec.MeetEntries, &rec.ProgressReports,
			&rec.AttendanceTracking, &rec.PrioritySupport, &rec.CustomBranding)
		if err != nil {
			return nil, fmt.Errorf("scan feature_limits row: %w", err)
		}
		if _, dup := records[rec.Tier]; dup {
			return nil, fmt.Errorf("%w: duplicate tier %q in feature_limits", ErrInvalidConfiguration, rec.Tier)
		}
		records[rec.Tier] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read feature_limits: %w", err)
	}
	return records, nil
}
