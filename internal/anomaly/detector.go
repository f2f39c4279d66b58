package anomaly

import (
	"fmt"

	"rehabit/internal/features"
	"rehabit/internal/ml"
	"rehabit/internal/models"
)

const (
	modelName     = "anomaly"
	schemaVersion = 1

	// DefaultContamination is the fraction of training days assumed
	// anomalous when nothing else is configured.
	DefaultContamination = 0.1

	// DefaultSeed keeps ensemble training reproducible.
	DefaultSeed = 42

	// MinTrainingDays is the smallest history the detector accepts.
	MinTrainingDays = 7
)

// Thresholds are the rule-alert cutoffs and risk-tier alert counts.
// The source treats these as empirical constants, not principled
// invariants, so they stay configurable.
type Thresholds struct {
	OverworkHours      float64 `json:"overwork_hours" yaml:"overwork_hours"`
	MinBreaks          int     `json:"min_breaks" yaml:"min_breaks"`
	LateWorkHours      float64 `json:"late_work_hours" yaml:"late_work_hours"`
	LowProductivity    float64 `json:"low_productivity" yaml:"low_productivity"`
	CriticalAlertCount int     `json:"critical_alert_count" yaml:"critical_alert_count"`
	HighAlertCount     int     `json:"high_alert_count" yaml:"high_alert_count"`
}

// DefaultThresholds returns the cutoffs the system ships with.
func DefaultThresholds() Thresholds {
	return Thresholds{
		OverworkHours:      10,
		MinBreaks:          2,
		LateWorkHours:      2,
		LowProductivity:    5,
		CriticalAlertCount: 3,
		HighAlertCount:     2,
	}
}

// Detector flags days whose aggregate behavior deviates from a learned
// distribution of normal days, and attaches rule-derived reasons so a
// flagged day can be explained, not just reported.
type Detector struct {
	Meta       ml.ArtifactMeta   `json:"meta"`
	Scaler     ml.StandardScaler `json:"scaler"`
	Forest     isoForest         `json:"forest"`
	Thresholds Thresholds        `json:"thresholds"`
}

// Trained reports whether the detector holds a fitted ensemble.
func (d *Detector) Trained() bool {
	return d != nil && len(d.Forest.Trees) > 0
}

// Train fits the scaler and isolation ensemble over the daily feature
// corpus. Histories shorter than MinTrainingDays are rejected with a
// TrainingDataError and the detector is left unchanged.
func (d *Detector) Train(days []models.DailyFeatureVector, contamination float64, seed int64) error {
	if len(days) < MinTrainingDays {
		return &ml.TrainingDataError{
			Reason: fmt.Sprintf("need at least %d days, have %d", MinTrainingDays, len(days)),
		}
	}
	if contamination <= 0 || contamination >= 0.5 {
		return &ml.TrainingDataError{
			Reason: fmt.Sprintf("contamination %.3f outside (0, 0.5)", contamination),
		}
	}

	rows := make([][]float64, len(days))
	for i, day := range days {
		rows[i] = features.FeatureRow(day)
	}

	d.Scaler.Fit(rows)
	d.Forest.fit(d.Scaler.TransformAll(rows), contamination, seed)
	if d.Thresholds == (Thresholds{}) {
		d.Thresholds = DefaultThresholds()
	}
	d.Meta = ml.NewArtifactMeta(modelName, schemaVersion)
	return nil
}

// Detect aggregates records to daily vectors and scores the most recent
// day against the learned distribution. Zero records is a valid "no
// signal" state: a normal report with score 0.0 and no alerts, never an
// error. The statistical flag and the rule alerts are derived
// independently so the report explains why a day was flagged.
func (d *Detector) Detect(records []models.ActivityRecord) (models.AnomalyReport, error) {
	if !d.Trained() {
		return models.AnomalyReport{}, ml.ErrUntrained
	}

	days := features.DailyVectors(records)
	if len(days) == 0 {
		return models.AnomalyReport{
			IsAnomaly: false,
			RiskLevel: models.RiskNormal,
			Alerts:    []models.Alert{},
		}, nil
	}

	latest := days[len(days)-1]
	score := d.Forest.scoreSample(d.Scaler.Transform(features.FeatureRow(latest)))
	isAnomaly := d.Forest.outlier(score)

	alerts := d.alerts(latest)
	return models.AnomalyReport{
		IsAnomaly:    isAnomaly,
		AnomalyScore: score,
		RiskLevel:    d.riskLevel(isAnomaly, len(alerts)),
		Alerts:       alerts,
		Metrics: models.DayMetrics{
			WorkHours:    latest.TotalWorkHours,
			Productivity: latest.AvgProductivity,
			Breaks:       latest.BreakCount,
			LateWork:     latest.LateWorkHours,
		},
	}, nil
}

func (d *Detector) alerts(day models.DailyFeatureVector) []models.Alert {
	alerts := []models.Alert{}
	t := d.Thresholds

	if day.TotalWorkHours > t.OverworkHours {
		alerts = append(alerts, models.Alert{
			Type:     models.AlertOverwork,
			Severity: models.SeverityHigh,
			Message:  fmt.Sprintf("Working %.1f hours - that's too much!", day.TotalWorkHours),
		})
	}
	if day.BreakCount < t.MinBreaks {
		alerts = append(alerts, models.Alert{
			Type:     models.AlertNoBreaks,
			Severity: models.SeverityHigh,
			Message:  fmt.Sprintf("Only %d breaks today - take more breaks!", day.BreakCount),
		})
	}
	if day.LateWorkHours > t.LateWorkHours {
		alerts = append(alerts, models.Alert{
			Type:     models.AlertLateWork,
			Severity: models.SeverityMedium,
			Message:  fmt.Sprintf("Worked %.1f hours after 8 PM", day.LateWorkHours),
		})
	}
	if day.AvgProductivity < t.LowProductivity {
		alerts = append(alerts, models.Alert{
			Type:     models.AlertLowProductivity,
			Severity: models.SeverityMedium,
			Message:  fmt.Sprintf("Productivity at %.1f/10 - below your average", day.AvgProductivity),
		})
	}
	return alerts
}

func (d *Detector) riskLevel(isAnomaly bool, alertCount int) models.RiskLevel {
	t := d.Thresholds
	switch {
	case isAnomaly && alertCount >= t.CriticalAlertCount:
		return models.RiskCritical
	case isAnomaly && alertCount >= t.HighAlertCount:
		return models.RiskHigh
	case alertCount >= 1:
		return models.RiskMedium
	}
	return models.RiskNormal
}

// Save writes the fitted detector as a JSON artifact.
func (d *Detector) Save(path string) error {
	if !d.Trained() {
		return ml.ErrUntrained
	}
	return ml.SaveArtifact(path, d)
}

// Load replaces the detector with the artifact at path.
func Load(path string) (*Detector, error) {
	var d Detector
	if err := ml.LoadArtifact(path, &d); err != nil {
		return nil, err
	}
	if err := ml.CheckMeta(path, d.Meta, modelName, schemaVersion); err != nil {
		return nil, err
	}
	if !d.Trained() {
		return nil, &ml.ArtifactError{Path: path, Err: fmt.Errorf("artifact holds no trees")}
	}
	return &d, nil
}
