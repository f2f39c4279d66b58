package models

import "time"

// ActivityType is the kind of logged activity.
type ActivityType string

const (
	ActivityWork     ActivityType = "work"
	ActivityBreak    ActivityType = "break"
	ActivityExercise ActivityType = "exercise"
	ActivityMeeting  ActivityType = "meeting"
)

// ValidActivityType reports whether t is one of the known activity types.
func ValidActivityType(t ActivityType) bool {
	switch t {
	case ActivityWork, ActivityBreak, ActivityExercise, ActivityMeeting:
		return true
	}
	return false
}

// FocusLevel is the self-reported focus during an activity.
type FocusLevel string

const (
	FocusLow    FocusLevel = "low"
	FocusMedium FocusLevel = "medium"
	FocusHigh   FocusLevel = "high"
)

// ValidFocusLevel reports whether f is one of the known focus levels.
func ValidFocusLevel(f FocusLevel) bool {
	switch f {
	case FocusLow, FocusMedium, FocusHigh:
		return true
	}
	return false
}

// User is an account that owns activity records.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivityRecord is a single logged activity. Immutable once stored.
type ActivityRecord struct {
	ID                int64        `json:"id"`
	UserID            int64        `json:"user_id"`
	Timestamp         time.Time    `json:"timestamp"`
	ActivityType      ActivityType `json:"activity_type"`
	DurationMinutes   int          `json:"duration"`
	ProductivityScore int          `json:"productivity_score"`
	FocusLevel        FocusLevel   `json:"focus_level"`
	Notes             string       `json:"notes,omitempty"`
}

// DailyFeatureVector is one day of aggregated behavior, the feature row
// every model consumes. Recomputed on each aggregation, never cached.
type DailyFeatureVector struct {
	Date            time.Time `json:"date"`
	TotalWorkHours  float64   `json:"total_work_hours"`
	AvgProductivity float64   `json:"avg_productivity"`
	BreakCount      int       `json:"break_count"`
	LateWorkHours   float64   `json:"late_work_hours"`
	ActivityCount   int       `json:"activity_count"`
}

// HourlyProfileSize is the fixed length of an HourlyProfile.
const HourlyProfileSize = 24

// HourlyProfile holds the mean productivity score per hour of day.
// A value of 0.0 means no data for that hour, not low productivity.
type HourlyProfile [HourlyProfileSize]float64

// ForecastPoint is one predicted hour of productivity.
type ForecastPoint struct {
	Timestamp      time.Time `json:"timestamp"`
	Hour           int       `json:"hour"`
	PredictedScore float64   `json:"predicted_score"`
	LowerBound     float64   `json:"lower_bound"`
	UpperBound     float64   `json:"upper_bound"`
	Confidence     float64   `json:"confidence"`
}

// PatternLabel is a named behavioral archetype.
type PatternLabel string

const (
	PatternMorningPerson    PatternLabel = "Morning Person"
	PatternNightOwl         PatternLabel = "Night Owl"
	PatternConsistentWorker PatternLabel = "Consistent Worker"
	PatternUnknown          PatternLabel = "Unknown"
)

// PatternProfile describes which archetype a user's hourly profile
// belongs to, plus direct statistics of the profile itself.
type PatternProfile struct {
	PatternType      PatternLabel `json:"pattern_type"`
	ClusterID        int          `json:"cluster_id"`
	PeakHours        []int        `json:"peak_hours"`
	LowEnergyHours   []int        `json:"low_energy_hours"`
	AvgProductivity  float64      `json:"avg_productivity"`
	PeakProductivity float64      `json:"peak_productivity"`
	LowProductivity  float64      `json:"low_productivity"`
}

// AlertKind identifies a rule-derived alert.
type AlertKind string

const (
	AlertOverwork        AlertKind = "overwork"
	AlertNoBreaks        AlertKind = "no_breaks"
	AlertLateWork        AlertKind = "late_work"
	AlertLowProductivity AlertKind = "low_productivity"
)

// AlertSeverity is how serious an alert is.
type AlertSeverity string

const (
	SeverityMedium AlertSeverity = "medium"
	SeverityHigh   AlertSeverity = "high"
)

// Alert is a human-readable reason attached to an anomaly report.
type Alert struct {
	Type     AlertKind     `json:"type"`
	Severity AlertSeverity `json:"severity"`
	Message  string        `json:"message"`
}

// RiskLevel is the combined burnout risk tier.
type RiskLevel string

const (
	RiskNormal   RiskLevel = "normal"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// DayMetrics is the latest day's raw aggregates echoed in a report.
type DayMetrics struct {
	WorkHours    float64 `json:"work_hours"`
	Productivity float64 `json:"productivity"`
	Breaks       int     `json:"breaks"`
	LateWork     float64 `json:"late_work"`
}

// AnomalyReport is the outcome of scoring the most recent day against
// the learned distribution of normal days. AnomalyScore follows the
// isolation-forest convention: more negative means more anomalous.
type AnomalyReport struct {
	IsAnomaly    bool       `json:"is_anomaly"`
	AnomalyScore float64    `json:"anomaly_score"`
	RiskLevel    RiskLevel  `json:"risk_level"`
	Alerts       []Alert    `json:"alerts"`
	Metrics      DayMetrics `json:"metrics"`
}

// RecommendationCategory groups recommendations by what they address.
type RecommendationCategory string

const (
	RecTiming        RecommendationCategory = "timing"
	RecPattern       RecommendationCategory = "pattern"
	RecHealth        RecommendationCategory = "health"
	RecBreak         RecommendationCategory = "break"
	RecEncouragement RecommendationCategory = "encouragement"
	RecExercise      RecommendationCategory = "exercise"
)

// Priority orders recommendations in the final list.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// PriorityRank maps a priority to its sort rank. Unknown priorities
// sort last.
func PriorityRank(p Priority) int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 99
}

// RecommendationData is the typed payload attached to a recommendation.
// Each category carries its own concrete type so consumers get checked
// field access instead of untyped map lookups.
type RecommendationData interface {
	recommendationData()
}

// TimingData backs timing recommendations.
type TimingData struct {
	Hour  int     `json:"hour"`
	Score float64 `json:"score,omitempty"`
}

// PatternData backs pattern recommendations.
type PatternData struct {
	Pattern PatternProfile `json:"pattern"`
}

// HealthData backs health recommendations.
type HealthData struct {
	AlertType AlertKind  `json:"alert_type,omitempty"`
	RiskLevel RiskLevel  `json:"risk_level"`
	Metrics   DayMetrics `json:"metrics"`
}

// BreakData backs break recommendations.
type BreakData struct {
	WorkHours float64 `json:"work_hours"`
	Breaks    int     `json:"breaks"`
}

// EncouragementData backs encouragement recommendations.
type EncouragementData struct {
	Score float64 `json:"score"`
}

// ExerciseData backs exercise recommendations.
type ExerciseData struct {
	DaysSinceExercise int `json:"days_since_exercise"`
}

func (TimingData) recommendationData()        {}
func (PatternData) recommendationData()       {}
func (HealthData) recommendationData()        {}
func (BreakData) recommendationData()         {}
func (EncouragementData) recommendationData() {}
func (ExerciseData) recommendationData()      {}

// Recommendation is one ranked, human-readable piece of guidance.
type Recommendation struct {
	Type     RecommendationCategory `json:"type"`
	Priority Priority               `json:"priority"`
	Icon     string                 `json:"icon"`
	Title    string                 `json:"title"`
	Message  string                 `json:"message"`
	Action   string                 `json:"action"`
	Data     RecommendationData     `json:"data,omitempty"`
}
