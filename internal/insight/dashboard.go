package insight

import (
	"rehabit/internal/features"
	"rehabit/internal/models"
)

// Stats are the headline numbers on the dashboard, computed straight
// from the raw history rather than any fitted model.
type Stats struct {
	CurrentProductivity   float64 `json:"current_productivity"`
	ProductivityChange    float64 `json:"productivity_change"`
	WorkTimeToday         int     `json:"work_time_today"`
	StreakDays            int     `json:"streak_days"`
	AvgWeeklyProductivity float64 `json:"avg_weekly_productivity"`
}

// Dashboard is the complete payload the serving layer returns. Each
// model section may be nil when that model is unavailable; Available
// tells the client which sections degraded.
type Dashboard struct {
	Stats           Stats                   `json:"stats"`
	Predictions     []models.ForecastPoint  `json:"predictions"`
	Pattern         *models.PatternProfile  `json:"pattern"`
	Anomaly         *models.AnomalyReport   `json:"anomaly"`
	Recommendations []models.Recommendation `json:"recommendations"`
	Available       Availability            `json:"available"`
}

// BuildDashboard assembles stats, all three model outputs, and the
// fused recommendation list for one user's history. Unavailable models
// leave their section nil instead of failing the call.
func (s *Service) BuildDashboard(records []models.ActivityRecord) Dashboard {
	d := Dashboard{
		Stats:     computeStats(records),
		Available: s.Available(),
	}

	if points, err := s.Forecast(s.opts.ForecastPeriods); err == nil {
		d.Predictions = points
	}
	if p, err := s.Pattern(records); err == nil {
		d.Pattern = &p
	}
	if report, err := s.Anomaly(records); err == nil {
		d.Anomaly = &report
	}
	d.Recommendations = s.Recommendations(records)
	return d
}

func computeStats(records []models.ActivityRecord) Stats {
	days := features.DailyVectors(records)
	if len(days) == 0 {
		return Stats{}
	}

	latest := days[len(days)-1]
	stats := Stats{
		CurrentProductivity: latest.AvgProductivity,
		WorkTimeToday:       int(latest.TotalWorkHours * 60),
		StreakDays:          streak(days),
	}

	if len(days) > 1 {
		prev := days[len(days)-2].AvgProductivity
		if prev > 0 {
			stats.ProductivityChange = (latest.AvgProductivity - prev) / prev * 100
		}
	}

	week := days
	if len(week) > 7 {
		week = week[len(week)-7:]
	}
	var sum float64
	for _, day := range week {
		sum += day.AvgProductivity
	}
	stats.AvgWeeklyProductivity = sum / float64(len(week))
	return stats
}

// streak counts consecutive calendar days with logged activity, ending
// at the most recent day present.
func streak(days []models.DailyFeatureVector) int {
	count := 1
	for i := len(days) - 1; i > 0; i-- {
		if !days[i].Date.AddDate(0, 0, -1).Equal(days[i-1].Date) {
			break
		}
		count++
	}
	return count
}
