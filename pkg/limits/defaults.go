package limits

import "github.com/goodswim/backend/pkg/billing"

// Defaults returns the shipped limit records, mirroring the feature_limits
// seed in migrations/. Kept in code so tests and local development work
// without a database or config file.
func Defaults() map[billing.Tier]FeatureLimits {
	return map[billing.Tier]FeatureLimits{
		billing.TierTrial: {
			Tier:                billing.TierTrial,
			MaxSwimmers:         ptr(5),
			MaxCoaches:          ptr(1),
			AIVideoAnalysis:     true,
			AIVideoMonthlyLimit: ptr(3),
			ProgressReports:     true,
		},
		billing.TierStarter: {
			Tier:                billing.TierStarter,
			MaxSwimmers:         ptr(20),
			MaxCoaches:          ptr(2),
			AIVideoAnalysis:     true,
			AIVideoMonthlyLimit: ptr(10),
			ProgressReports:     true,
			AttendanceTracking:  true,
		},
		billing.TierPro: {
			Tier:                billing.TierPro,
			MaxSwimmers:         ptr(75),
			MaxCoaches:          ptr(5),
			AIVideoAnalysis:     true,
			AIVideoMonthlyLimit: ptr(50),
			SD3Import:           true,
			MeetEntries:         true,
			ProgressReports:     true,
			AttendanceTracking:  true,
		},
		billing.TierClub: {
			Tier:               billing.TierClub,
			AIVideoAnalysis:    true,
			SD3Import:          true,
			MeetEntries:        true,
			ProgressReports:    true,
			AttendanceTracking: true,
			PrioritySupport:    true,
			CustomBranding:     true,
		},
	}
}

func ptr(v int64) *int64 {
	return &v
}
