package anomaly

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rehabit/internal/ml"
	"rehabit/internal/models"
)

// trainingDays is a tight cluster of ordinary working days.
func trainingDays() []models.DailyFeatureVector {
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	rows := [][5]float64{
		{7.5, 7.0, 3, 0, 8},
		{7.0, 6.8, 2, 0, 7},
		{8.0, 7.2, 4, 0.5, 10},
		{7.2, 7.1, 3, 0, 9},
		{7.8, 6.9, 3, 0, 8},
		{7.5, 7.3, 2, 0, 8},
		{7.1, 7.0, 4, 0.5, 9},
		{7.6, 6.8, 3, 0, 7},
		{7.3, 7.2, 3, 0, 8},
		{7.9, 7.0, 2, 0, 9},
		{7.4, 7.1, 3, 0, 8},
		{7.7, 6.9, 4, 0, 10},
		{7.2, 7.0, 3, 0.5, 8},
		{7.5, 7.2, 3, 0, 9},
	}
	days := make([]models.DailyFeatureVector, len(rows))
	for i, s := range rows {
		days[i] = models.DailyFeatureVector{
			Date:            base.AddDate(0, 0, i),
			TotalWorkHours:  s[0],
			AvgProductivity: s[1],
			BreakCount:      int(s[2]),
			LateWorkHours:   s[3],
			ActivityCount:   int(s[4]),
		}
	}
	return days
}

func trainedDetector(t *testing.T) *Detector {
	t.Helper()
	var d Detector
	require.NoError(t, d.Train(trainingDays(), DefaultContamination, DefaultSeed))
	return &d
}

// healthyDayRecords reproduces a typical training day: 7.5 work hours,
// three breaks, average score 7, nothing late.
func healthyDayRecords() []models.ActivityRecord {
	day := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)
	var records []models.ActivityRecord
	for i := 0; i < 5; i++ {
		records = append(records, models.ActivityRecord{
			Timestamp:         day.Add(time.Duration(9+i) * time.Hour),
			ActivityType:      models.ActivityWork,
			DurationMinutes:   90,
			ProductivityScore: 7,
		})
	}
	for i := 0; i < 3; i++ {
		records = append(records, models.ActivityRecord{
			Timestamp:         day.Add(time.Duration(10+2*i) * time.Hour).Add(45 * time.Minute),
			ActivityType:      models.ActivityBreak,
			DurationMinutes:   15,
			ProductivityScore: 7,
		})
	}
	return records
}

// extremeDayRecords is a burnout day: 12 work hours, no breaks, three
// of them late, average score 3.
func extremeDayRecords() []models.ActivityRecord {
	day := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)
	var records []models.ActivityRecord
	for i := 0; i < 6; i++ {
		records = append(records, models.ActivityRecord{
			Timestamp:         day.Add(time.Duration(9+i) * time.Hour),
			ActivityType:      models.ActivityWork,
			DurationMinutes:   90,
			ProductivityScore: 3,
		})
	}
	records = append(records,
		models.ActivityRecord{
			Timestamp:         day.Add(20 * time.Hour),
			ActivityType:      models.ActivityWork,
			DurationMinutes:   90,
			ProductivityScore: 3,
		},
		models.ActivityRecord{
			Timestamp:         day.Add(21*time.Hour + 30*time.Minute),
			ActivityType:      models.ActivityWork,
			DurationMinutes:   90,
			ProductivityScore: 3,
		},
	)
	return records
}

func TestTrainRejectsShortHistory(t *testing.T) {
	var d Detector
	err := d.Train(trainingDays()[:5], DefaultContamination, DefaultSeed)
	var dataErr *ml.TrainingDataError
	require.ErrorAs(t, err, &dataErr)
	assert.False(t, d.Trained())
}

func TestTrainRejectsBadContamination(t *testing.T) {
	var d Detector
	var dataErr *ml.TrainingDataError
	assert.ErrorAs(t, d.Train(trainingDays(), 0, DefaultSeed), &dataErr)
	assert.ErrorAs(t, d.Train(trainingDays(), 0.5, DefaultSeed), &dataErr)
}

func TestDetectUntrained(t *testing.T) {
	var d Detector
	_, err := d.Detect(healthyDayRecords())
	assert.ErrorIs(t, err, ml.ErrUntrained)

	var nilDetector *Detector
	assert.False(t, nilDetector.Trained())
}

func TestDetectEmptyHistory(t *testing.T) {
	d := trainedDetector(t)

	report, err := d.Detect(nil)
	require.NoError(t, err)
	assert.False(t, report.IsAnomaly)
	assert.Zero(t, report.AnomalyScore)
	assert.Equal(t, models.RiskNormal, report.RiskLevel)
	assert.Empty(t, report.Alerts)
	assert.NotNil(t, report.Alerts)
}

func TestDetectHealthyDay(t *testing.T) {
	d := trainedDetector(t)

	report, err := d.Detect(healthyDayRecords())
	require.NoError(t, err)
	assert.False(t, report.IsAnomaly)
	assert.Equal(t, models.RiskNormal, report.RiskLevel)
	assert.Empty(t, report.Alerts)
	assert.Negative(t, report.AnomalyScore)
	assert.InDelta(t, 7.5, report.Metrics.WorkHours, 1e-9)
	assert.Equal(t, 3, report.Metrics.Breaks)
}

func TestDetectExtremeDay(t *testing.T) {
	d := trainedDetector(t)

	report, err := d.Detect(extremeDayRecords())
	require.NoError(t, err)

	assert.True(t, report.IsAnomaly)
	assert.Equal(t, models.RiskCritical, report.RiskLevel)
	assert.Less(t, report.AnomalyScore, d.Forest.Threshold)

	kinds := make(map[models.AlertKind]models.AlertSeverity)
	for _, alert := range report.Alerts {
		kinds[alert.Type] = alert.Severity
	}
	assert.Equal(t, models.SeverityHigh, kinds[models.AlertOverwork])
	assert.Equal(t, models.SeverityHigh, kinds[models.AlertNoBreaks])
	assert.Equal(t, models.SeverityMedium, kinds[models.AlertLateWork])
	assert.Equal(t, models.SeverityMedium, kinds[models.AlertLowProductivity])

	assert.InDelta(t, 12.0, report.Metrics.WorkHours, 1e-9)
	assert.InDelta(t, 3.0, report.Metrics.LateWork, 1e-9)
}

func TestDetectScoresOnlyLatestDay(t *testing.T) {
	d := trainedDetector(t)

	// An extreme day followed by a healthy one: only the healthy day
	// is scored.
	past := extremeDayRecords()
	for i := range past {
		past[i].Timestamp = past[i].Timestamp.AddDate(0, 0, -1)
	}
	records := append(past, healthyDayRecords()...)

	report, err := d.Detect(records)
	require.NoError(t, err)
	assert.False(t, report.IsAnomaly)
	assert.Empty(t, report.Alerts)
}

func TestCustomThresholds(t *testing.T) {
	d := &Detector{Thresholds: Thresholds{
		OverworkHours:      6,
		MinBreaks:          4,
		LateWorkHours:      0.25,
		LowProductivity:    8,
		CriticalAlertCount: 3,
		HighAlertCount:     2,
	}}
	require.NoError(t, d.Train(trainingDays(), DefaultContamination, DefaultSeed))

	// Under the stricter cutoffs even the healthy day trips every rule.
	report, err := d.Detect(healthyDayRecords())
	require.NoError(t, err)
	assert.Len(t, report.Alerts, 4)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	d := trainedDetector(t)

	path := filepath.Join(t.TempDir(), "anomaly.json")
	require.NoError(t, d.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, d.Thresholds, loaded.Thresholds)

	want, err := d.Detect(extremeDayRecords())
	require.NoError(t, err)
	got, err := loaded.Detect(extremeDayRecords())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadMissingArtifact(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	var artErr *ml.ArtifactError
	assert.ErrorAs(t, err, &artErr)
}
