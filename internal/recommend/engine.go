package recommend

import (
	"fmt"
	"sort"
	"strings"

	"rehabit/internal/features"
	"rehabit/internal/models"
)

// TodaySummary is the latest day's raw aggregates, the only part of a
// recommendation run that bypasses the fitted models.
type TodaySummary struct {
	WorkHours       float64
	Breaks          int
	AvgProductivity float64
	ExerciseCount   int
}

// TodayFromRecords summarizes the most recent calendar date present in
// records. Returns nil when there are no records at all.
func TodayFromRecords(records []models.ActivityRecord) *TodaySummary {
	days := features.DailyVectors(records)
	if len(days) == 0 {
		return nil
	}
	latest := days[len(days)-1]

	var exercise int
	for _, rec := range records {
		if rec.ActivityType == models.ActivityExercise && sameDate(rec, latest) {
			exercise++
		}
	}
	return &TodaySummary{
		WorkHours:       latest.TotalWorkHours,
		Breaks:          latest.BreakCount,
		AvgProductivity: latest.AvgProductivity,
		ExerciseCount:   exercise,
	}
}

func sameDate(rec models.ActivityRecord, day models.DailyFeatureVector) bool {
	y1, m1, d1 := rec.Timestamp.Date()
	y2, m2, d2 := day.Date.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// Input carries the model outputs a synthesis run fuses. Any field may
// be nil/empty when the corresponding model is unavailable; the rules
// it feeds are simply skipped.
type Input struct {
	Forecast []models.ForecastPoint
	Pattern  *models.PatternProfile
	Anomaly  *models.AnomalyReport
	Today    *TodaySummary
}

const lowEnergyScore = 6

// Generate fuses forecast, pattern, anomaly, and today's raw aggregates
// into one deduplicated, ranked list. Entries are sorted by priority
// with a stable sort, so equal priorities keep their generation order.
func Generate(in Input) []models.Recommendation {
	recs := []models.Recommendation{}
	recs = append(recs, fromForecast(in.Forecast)...)
	recs = append(recs, fromPattern(in.Pattern)...)
	recs = append(recs, fromAnomaly(in.Anomaly)...)
	recs = append(recs, fromToday(in.Today)...)

	sort.SliceStable(recs, func(i, j int) bool {
		return models.PriorityRank(recs[i].Priority) < models.PriorityRank(recs[j].Priority)
	})
	return recs
}

func fromForecast(points []models.ForecastPoint) []models.Recommendation {
	if len(points) == 0 {
		return nil
	}

	peak, low := points[0], points[0]
	for _, p := range points[1:] {
		if p.PredictedScore > peak.PredictedScore {
			peak = p
		}
		if p.PredictedScore < low.PredictedScore {
			low = p
		}
	}

	recs := []models.Recommendation{{
		Type:     models.RecTiming,
		Priority: models.PriorityHigh,
		Icon:     "🎯",
		Title:    "Schedule Your Most Important Task",
		Message: fmt.Sprintf("Your productivity peaks at %d:00 with a predicted score of %.1f/10. Schedule deep work then!",
			peak.Hour, peak.PredictedScore),
		Action: "schedule_deep_work",
		Data:   models.TimingData{Hour: peak.Hour, Score: peak.PredictedScore},
	}}

	if low.PredictedScore < lowEnergyScore {
		recs = append(recs, models.Recommendation{
			Type:     models.RecTiming,
			Priority: models.PriorityMedium,
			Icon:     "📅",
			Title:    "Avoid Deep Work During Low Energy",
			Message:  fmt.Sprintf("Your energy dips at %d:00. Schedule meetings or light tasks then.", low.Hour),
			Action:   "schedule_light_work",
			Data:     models.TimingData{Hour: low.Hour},
		})
	}
	return recs
}

func fromPattern(pattern *models.PatternProfile) []models.Recommendation {
	if pattern == nil {
		return nil
	}
	switch pattern.PatternType {
	case models.PatternMorningPerson:
		return []models.Recommendation{{
			Type:     models.RecPattern,
			Priority: models.PriorityHigh,
			Icon:     "🌅",
			Title:    "You're a Morning Person!",
			Message:  fmt.Sprintf("Your peak hours are %v. Block these for creative work.", pattern.PeakHours),
			Action:   "block_peak_hours",
			Data:     models.PatternData{Pattern: *pattern},
		}}
	case models.PatternNightOwl:
		return []models.Recommendation{{
			Type:     models.RecPattern,
			Priority: models.PriorityHigh,
			Icon:     "🌙",
			Title:    "You're a Night Owl!",
			Message:  "You work best in the evening. Consider flexible hours.",
			Action:   "flexible_hours",
			Data:     models.PatternData{Pattern: *pattern},
		}}
	}
	// Consistent workers and unknown patterns generate nothing here.
	return nil
}

func fromAnomaly(report *models.AnomalyReport) []models.Recommendation {
	if report == nil {
		return nil
	}

	var recs []models.Recommendation
	if report.IsAnomaly && (report.RiskLevel == models.RiskHigh || report.RiskLevel == models.RiskCritical) {
		recs = append(recs, models.Recommendation{
			Type:     models.RecHealth,
			Priority: models.PriorityCritical,
			Icon:     "🚨",
			Title:    "Burnout Risk Detected!",
			Message:  "Take a break today. Your wellbeing matters more than work.",
			Action:   "take_day_off",
			Data:     models.HealthData{RiskLevel: report.RiskLevel, Metrics: report.Metrics},
		})
	}

	for _, alert := range report.Alerts {
		if alert.Severity != models.SeverityHigh {
			continue
		}
		recs = append(recs, models.Recommendation{
			Type:     models.RecHealth,
			Priority: models.PriorityHigh,
			Icon:     "⚠️",
			Title:    alertTitle(alert.Type),
			Message:  alert.Message,
			Action:   "fix_" + string(alert.Type),
			Data:     models.HealthData{AlertType: alert.Type, RiskLevel: report.RiskLevel, Metrics: report.Metrics},
		})
	}
	return recs
}

func fromToday(today *TodaySummary) []models.Recommendation {
	if today == nil {
		return nil
	}

	var recs []models.Recommendation
	if today.WorkHours > 2 && today.Breaks < 2 {
		recs = append(recs, models.Recommendation{
			Type:     models.RecBreak,
			Priority: models.PriorityMedium,
			Icon:     "☕",
			Title:    "Time for a Break",
			Message: fmt.Sprintf("You've worked %.1f hours with only %d breaks. Take a 5-10 minute break!",
				today.WorkHours, today.Breaks),
			Action: "take_break",
			Data:   models.BreakData{WorkHours: today.WorkHours, Breaks: today.Breaks},
		})
	}

	if today.AvgProductivity > 7 {
		recs = append(recs, models.Recommendation{
			Type:     models.RecEncouragement,
			Priority: models.PriorityLow,
			Icon:     "🎉",
			Title:    "Great Work Today!",
			Message: fmt.Sprintf("Your productivity is %.1f/10 - above your average! Keep it up!",
				today.AvgProductivity),
			Action: "celebrate",
			Data:   models.EncouragementData{Score: today.AvgProductivity},
		})
	}

	if today.ExerciseCount == 0 {
		recs = append(recs, models.Recommendation{
			Type:     models.RecExercise,
			Priority: models.PriorityMedium,
			Icon:     "🏃",
			Title:    "Get Moving",
			Message:  "A 10-minute walk can boost your productivity by 20%.",
			Action:   "exercise",
			Data:     models.ExerciseData{},
		})
	}
	return recs
}

// alertTitle turns an alert kind like "no_breaks" into "No Breaks".
func alertTitle(kind models.AlertKind) string {
	words := strings.Split(string(kind), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
