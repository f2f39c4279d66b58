package insight

import (
	"path/filepath"
	"sync/atomic"
	"time"

	"rehabit/internal/anomaly"
	"rehabit/internal/features"
	"rehabit/internal/forecast"
	"rehabit/internal/metrics"
	"rehabit/internal/ml"
	"rehabit/internal/models"
	"rehabit/internal/pattern"
	"rehabit/internal/recommend"
)

// Artifact file names inside the artifacts directory.
const (
	ForecastArtifact = "forecast.json"
	PatternArtifact  = "pattern.json"
	AnomalyArtifact  = "anomaly.json"
)

// Options configures a Service.
type Options struct {
	ArtifactsDir    string
	ForecastPeriods int
	Contamination   float64
	Seed            int64
	Thresholds      anomaly.Thresholds
}

// Service is the explicit composition point over the three fitted
// models. Each model sits behind an atomic pointer: inference reads
// whatever artifact is currently published, and a retrain or reload
// replaces it with one pointer swap, so readers see the fully-old or
// fully-new model and never a partial one. A nil pointer means that
// model is unavailable and its outputs degrade instead of failing the
// whole dashboard.
type Service struct {
	opts Options

	forecaster atomic.Pointer[forecast.Model]
	classifier atomic.Pointer[pattern.Classifier]
	detector   atomic.Pointer[anomaly.Detector]
}

// New builds a Service with no models published yet.
func New(opts Options) *Service {
	if opts.ForecastPeriods <= 0 {
		opts.ForecastPeriods = 24
	}
	if opts.Contamination <= 0 {
		opts.Contamination = anomaly.DefaultContamination
	}
	if opts.Seed == 0 {
		opts.Seed = anomaly.DefaultSeed
	}
	if opts.Thresholds == (anomaly.Thresholds{}) {
		opts.Thresholds = anomaly.DefaultThresholds()
	}
	return &Service{opts: opts}
}

// ModelReport carries one error per model; a nil entry means that model
// is fine. Callers decide the degraded-mode policy, the service never
// hides a failure.
type ModelReport struct {
	Forecast error
	Pattern  error
	Anomaly  error
}

// AllFailed reports whether no model succeeded.
func (r ModelReport) AllFailed() bool {
	return r.Forecast != nil && r.Pattern != nil && r.Anomaly != nil
}

// LoadArtifacts loads each persisted model independently and publishes
// the ones that load cleanly. A missing or corrupt blob degrades only
// that model.
func (s *Service) LoadArtifacts() ModelReport {
	var report ModelReport

	if m, err := forecast.Load(filepath.Join(s.opts.ArtifactsDir, ForecastArtifact)); err != nil {
		report.Forecast = err
	} else {
		s.forecaster.Store(m)
	}
	if c, err := pattern.Load(filepath.Join(s.opts.ArtifactsDir, PatternArtifact)); err != nil {
		report.Pattern = err
	} else {
		s.classifier.Store(c)
	}
	if d, err := anomaly.Load(filepath.Join(s.opts.ArtifactsDir, AnomalyArtifact)); err != nil {
		report.Anomaly = err
	} else {
		s.detector.Store(d)
	}
	return report
}

// Train fits all three models from one user's ordered history, saves
// each artifact, and publishes each model only after its training and
// save both succeeded. Models that fail keep their previously published
// artifact, if any.
func (s *Service) Train(records []models.ActivityRecord) ModelReport {
	var report ModelReport

	start := time.Now()
	m := &forecast.Model{}
	obs := make([]forecast.Observation, len(records))
	for i, rec := range records {
		obs[i] = forecast.Observation{Timestamp: rec.Timestamp, Score: float64(rec.ProductivityScore)}
	}
	if err := m.Train(obs); err != nil {
		report.Forecast = err
	} else if err := m.Save(filepath.Join(s.opts.ArtifactsDir, ForecastArtifact)); err != nil {
		report.Forecast = err
	} else {
		s.forecaster.Store(m)
		metrics.ModelLoaded.WithLabelValues("forecast").Set(1)
	}
	metrics.TrainingDuration.WithLabelValues("forecast").Observe(time.Since(start).Seconds())

	start = time.Now()
	c := &pattern.Classifier{}
	if err := c.Train(features.Profile(records)); err != nil {
		report.Pattern = err
	} else if err := c.Save(filepath.Join(s.opts.ArtifactsDir, PatternArtifact)); err != nil {
		report.Pattern = err
	} else {
		s.classifier.Store(c)
		metrics.ModelLoaded.WithLabelValues("pattern").Set(1)
	}
	metrics.TrainingDuration.WithLabelValues("pattern").Observe(time.Since(start).Seconds())

	start = time.Now()
	d := &anomaly.Detector{Thresholds: s.opts.Thresholds}
	if err := d.Train(features.DailyVectors(records), s.opts.Contamination, s.opts.Seed); err != nil {
		report.Anomaly = err
	} else if err := d.Save(filepath.Join(s.opts.ArtifactsDir, AnomalyArtifact)); err != nil {
		report.Anomaly = err
	} else {
		s.detector.Store(d)
		metrics.ModelLoaded.WithLabelValues("anomaly").Set(1)
	}
	metrics.TrainingDuration.WithLabelValues("anomaly").Observe(time.Since(start).Seconds())

	return report
}

// Availability reports which models are currently published.
type Availability struct {
	Forecast bool `json:"forecast"`
	Pattern  bool `json:"pattern"`
	Anomaly  bool `json:"anomaly"`
}

// Available returns the current per-model availability.
func (s *Service) Available() Availability {
	return Availability{
		Forecast: s.forecaster.Load().Trained(),
		Pattern:  s.classifier.Load().Trained(),
		Anomaly:  s.detector.Load().Trained(),
	}
}

// Forecast projects the next periods hours. ErrUntrained when no
// forecast artifact is published.
func (s *Service) Forecast(periods int) ([]models.ForecastPoint, error) {
	m := s.forecaster.Load()
	if !m.Trained() {
		return nil, ml.ErrUntrained
	}
	if periods <= 0 {
		periods = s.opts.ForecastPeriods
	}
	return m.Predict(periods)
}

// Pattern classifies the hourly profile of the given history.
func (s *Service) Pattern(records []models.ActivityRecord) (models.PatternProfile, error) {
	c := s.classifier.Load()
	if !c.Trained() {
		return models.PatternProfile{}, ml.ErrUntrained
	}
	return c.Classify(features.Profile(records))
}

// Anomaly scores the most recent day of the given history.
func (s *Service) Anomaly(records []models.ActivityRecord) (models.AnomalyReport, error) {
	d := s.detector.Load()
	if !d.Trained() {
		return models.AnomalyReport{}, ml.ErrUntrained
	}
	return d.Detect(records)
}

// Recommendations fuses whatever models are available with today's raw
// aggregates. An unavailable model simply contributes no rules; this is
// the one place where degradation is a deliberate policy rather than an
// error.
func (s *Service) Recommendations(records []models.ActivityRecord) []models.Recommendation {
	var in recommend.Input

	if points, err := s.Forecast(s.opts.ForecastPeriods); err == nil {
		in.Forecast = points
	}
	if p, err := s.Pattern(records); err == nil {
		in.Pattern = &p
	}
	if report, err := s.Anomaly(records); err == nil {
		in.Anomaly = &report
	}
	in.Today = recommend.TodayFromRecords(records)

	return recommend.Generate(in)
}
