package limits

import "github.com/goodswim/backend/pkg/billing"

// Unlimited is the sentinel ceiling-style queries return for tiers without a
// cap (-1 chosen for SQL compatibility).
const Unlimited int64 = -1

// Feature is a tier-specific capability flag. The set is closed: adding a
// flag means touching FeatureLimits.Has, which keeps new capabilities a
// compile-time-visible change rather than a silent map miss.
type Feature string

const (
	FeatureAIVideoAnalysis    Feature = "ai_video_analysis"
	FeatureSD3Import          Feature = "sd3_import"
	FeatureMeetEntries        Feature = "meet_entries"
	FeatureProgressReports    Feature = "progress_reports"
	FeatureAttendanceTracking Feature = "attendance_tracking"
	FeaturePrioritySupport    Feature = "priority_support"
	FeatureCustomBranding     Feature = "custom_branding"
)

// FeatureLimits is the static capability/ceiling record for one tier.
// Records are reference data seeded out of band and immutable at runtime.
// Nil ceilings mean unlimited.
type FeatureLimits struct {
	Tier billing.Tier `yaml:"tier"`

	MaxSwimmers *int64 `yaml:"max_swimmers"`
	MaxCoaches  *int64 `yaml:"max_coaches"`

	AIVideoAnalysis     bool   `yaml:"ai_video_analysis"`
	AIVideoMonthlyLimit *int64 `yaml:"ai_video_monthly_limit"`
	SD3Import           bool   `yaml:"sd3_import"`
	MeetEntries         bool   `yaml:"meet_entries"`
	ProgressReports     bool   `yaml:"progress_reports"`
	AttendanceTracking  bool   `yaml:"attendance_tracking"`
	PrioritySupport     bool   `yaml:"priority_support"`
	CustomBranding      bool   `yaml:"custom_branding"`
}

// Has returns the stored flag value for a feature. Callers gating access must
// go through the entitlement layer, which also applies the expired hard rule.
func (l FeatureLimits) Has(f Feature) bool {
	switch f {
	case FeatureAIVideoAnalysis:
		return l.AIVideoAnalysis
	case FeatureSD3Import:
		return l.SD3Import
	case FeatureMeetEntries:
		return l.MeetEntries
	case FeatureProgressReports:
		return l.ProgressReports
	case FeatureAttendanceTracking:
		return l.AttendanceTracking
	case FeaturePrioritySupport:
		return l.PrioritySupport
	case FeatureCustomBranding:
		return l.CustomBranding
	}
	return false
}

// SwimmerCeiling returns the swimmer limit, or Unlimited when none is set.
func (l FeatureLimits) SwimmerCeiling() int64 {
	if l.MaxSwimmers == nil {
		return Unlimited
	}
	return *l.MaxSwimmers
}
