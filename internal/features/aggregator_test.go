package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rehabit/internal/models"
)

func rec(ts time.Time, kind models.ActivityType, minutes, score int) models.ActivityRecord {
	return models.ActivityRecord{
		Timestamp:         ts,
		ActivityType:      kind,
		DurationMinutes:   minutes,
		ProductivityScore: score,
		FocusLevel:        models.FocusMedium,
	}
}

func TestDailyVectorsEmpty(t *testing.T) {
	assert.Empty(t, DailyVectors(nil))
	assert.Empty(t, DailyVectors([]models.ActivityRecord{}))
}

func TestDailyVectorsGroupsByDate(t *testing.T) {
	day1 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	records := []models.ActivityRecord{
		rec(day1, models.ActivityWork, 120, 8),
		rec(day1.Add(2*time.Hour), models.ActivityBreak, 15, 5),
		rec(day1.Add(3*time.Hour), models.ActivityWork, 60, 7),
		rec(day2, models.ActivityWork, 90, 6),
	}

	vectors := DailyVectors(records)
	require.Len(t, vectors, 2)

	first := vectors[0]
	assert.True(t, first.Date.Before(vectors[1].Date))
	assert.InDelta(t, 3.0, first.TotalWorkHours, 1e-9)
	assert.InDelta(t, (8.0+5+7)/3, first.AvgProductivity, 1e-9)
	assert.Equal(t, 1, first.BreakCount)
	assert.Equal(t, 3, first.ActivityCount)
	assert.Zero(t, first.LateWorkHours)

	assert.InDelta(t, 1.5, vectors[1].TotalWorkHours, 1e-9)
	assert.Equal(t, 1, vectors[1].ActivityCount)
}

func TestDailyVectorsLateWork(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	records := []models.ActivityRecord{
		rec(day.Add(9*time.Hour), models.ActivityWork, 60, 7),
		rec(day.Add(20*time.Hour), models.ActivityWork, 90, 6),
		rec(day.Add(22*time.Hour), models.ActivityWork, 30, 5),
		rec(day.Add(19*time.Hour), models.ActivityWork, 60, 6),
	}

	vectors := DailyVectors(records)
	require.Len(t, vectors, 1)
	assert.InDelta(t, 2.0, vectors[0].LateWorkHours, 1e-9)
	assert.InDelta(t, 4.0, vectors[0].TotalWorkHours, 1e-9)
}

func TestDailyVectorsBreaksExcludedFromWork(t *testing.T) {
	day := time.Date(2026, 3, 2, 21, 0, 0, 0, time.UTC)
	records := []models.ActivityRecord{
		rec(day, models.ActivityBreak, 60, 5),
		rec(day, models.ActivityExercise, 45, 6),
	}

	vectors := DailyVectors(records)
	require.Len(t, vectors, 1)
	assert.Zero(t, vectors[0].TotalWorkHours)
	assert.Zero(t, vectors[0].LateWorkHours)
	assert.Equal(t, 1, vectors[0].BreakCount)
}

func TestProfileEmpty(t *testing.T) {
	profile := Profile(nil)
	for h := range profile {
		assert.Zero(t, profile[h], "hour %d", h)
	}
}

func TestProfileAveragesPerHour(t *testing.T) {
	day1 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	records := []models.ActivityRecord{
		rec(day1, models.ActivityWork, 60, 8),
		rec(day2, models.ActivityWork, 60, 6),
		rec(day1.Add(5*time.Hour), models.ActivityWork, 60, 4),
	}

	profile := Profile(records)
	assert.InDelta(t, 7.0, profile[9], 1e-9)
	assert.InDelta(t, 4.0, profile[14], 1e-9)
	assert.Zero(t, profile[10])
}

func TestFeatureRowShape(t *testing.T) {
	v := models.DailyFeatureVector{
		TotalWorkHours:  6.5,
		AvgProductivity: 7.2,
		BreakCount:      3,
		LateWorkHours:   0.5,
		ActivityCount:   9,
	}
	row := FeatureRow(v)
	require.Len(t, row, 5)
	assert.Equal(t, []float64{6.5, 7.2, 3, 0.5, 9}, row)
}
