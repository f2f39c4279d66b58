package features

import (
	"sort"
	"time"

	"rehabit/internal/models"
)

// lateWorkStartHour is the local hour from which work counts as late.
const lateWorkStartHour = 20

// DailyVectors groups records by local calendar date and reduces each
// day to a fixed-shape feature vector, ordered by date ascending.
// An empty input yields an empty slice: that is a valid "insufficient
// data" state, not an error.
func DailyVectors(records []models.ActivityRecord) []models.DailyFeatureVector {
	if len(records) == 0 {
		return nil
	}

	byDay := make(map[time.Time][]models.ActivityRecord)
	for _, rec := range records {
		day := dateOf(rec.Timestamp)
		byDay[day] = append(byDay[day], rec)
	}

	days := make([]time.Time, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	vectors := make([]models.DailyFeatureVector, 0, len(days))
	for _, day := range days {
		vectors = append(vectors, dayVector(day, byDay[day]))
	}
	return vectors
}

func dayVector(day time.Time, recs []models.ActivityRecord) models.DailyFeatureVector {
	var workMinutes, lateMinutes, scoreSum int
	var breaks int
	for _, rec := range recs {
		scoreSum += rec.ProductivityScore
		switch rec.ActivityType {
		case models.ActivityWork:
			workMinutes += rec.DurationMinutes
			if rec.Timestamp.Hour() >= lateWorkStartHour {
				lateMinutes += rec.DurationMinutes
			}
		case models.ActivityBreak:
			breaks++
		}
	}
	return models.DailyFeatureVector{
		Date:            day,
		TotalWorkHours:  float64(workMinutes) / 60,
		AvgProductivity: float64(scoreSum) / float64(len(recs)),
		BreakCount:      breaks,
		LateWorkHours:   float64(lateMinutes) / 60,
		ActivityCount:   len(recs),
	}
}

// Profile averages productivity per hour of day across all records,
// regardless of date. Hours with no observations stay 0.0 and must be
// read as "no data" downstream.
func Profile(records []models.ActivityRecord) models.HourlyProfile {
	var sums, counts [models.HourlyProfileSize]float64
	for _, rec := range records {
		h := rec.Timestamp.Hour()
		sums[h] += float64(rec.ProductivityScore)
		counts[h]++
	}

	var profile models.HourlyProfile
	for h := range profile {
		if counts[h] > 0 {
			profile[h] = sums[h] / counts[h]
		}
	}
	return profile
}

// FeatureRow flattens a daily vector into the 5-dimensional row the
// anomaly detector trains on.
func FeatureRow(v models.DailyFeatureVector) []float64 {
	return []float64{
		v.TotalWorkHours,
		v.AvgProductivity,
		float64(v.BreakCount),
		v.LateWorkHours,
		float64(v.ActivityCount),
	}
}

func dateOf(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, ts.Location())
}
