package forecast

import (
	"fmt"
	"math"
	"sort"
	"time"

	"rehabit/internal/ml"
	"rehabit/internal/models"
)

const (
	modelName     = "forecast"
	schemaVersion = 1

	// Seasonal structure: daily and weekly periodicity only. There is
	// never enough history to estimate a yearly component.
	dailyPeriodHours  = 24
	weeklyPeriodHours = 168
	dailyOrder        = 3
	weeklyOrder       = 2

	// Ridge term keeps the normal equations well conditioned when the
	// history covers few distinct hours.
	ridgeLambda = 0.1

	// z-value for an 80% prediction interval.
	intervalZ = 1.2816

	// MinTrainingPoints is the smallest usable number of hourly buckets.
	MinTrainingPoints = 24

	maxScore = 10
)

// Observation is one historical (timestamp, productivity score) pair.
type Observation struct {
	Timestamp time.Time
	Score     float64
}

// Model is a seasonal regression over hourly productivity scores:
// intercept + linear trend + daily and weekly Fourier terms. The fitted
// model is immutable; Predict is safe for concurrent use.
type Model struct {
	Meta       ml.ArtifactMeta `json:"meta"`
	Coeffs     []float64       `json:"coeffs"`
	Sigma      float64         `json:"sigma"`
	TrainStart int64           `json:"train_start"` // unix seconds, first hourly bucket
	TrainEnd   int64           `json:"train_end"`   // unix seconds, last hourly bucket
	ZoneOffset int             `json:"zone_offset"` // seconds east of UTC at train end
}

// Trained reports whether the model holds a fitted artifact.
func (m *Model) Trained() bool {
	return m != nil && len(m.Coeffs) > 0
}

// Train fits the model on a historical series. Observations are floored
// to the hour and scores in the same bucket are averaged, so several
// records inside one hour collapse to a single training point. A series
// with fewer than MinTrainingPoints hourly buckets is rejected with a
// TrainingDataError and the model is left unchanged.
func (m *Model) Train(obs []Observation) error {
	type bucket struct {
		sum   float64
		count int
	}
	buckets := make(map[int64]*bucket)
	var zoneOffset int
	var latest time.Time
	for _, o := range obs {
		hour := o.Timestamp.Truncate(time.Hour).Unix()
		b := buckets[hour]
		if b == nil {
			b = &bucket{}
			buckets[hour] = b
		}
		b.sum += o.Score
		b.count++
		if o.Timestamp.After(latest) {
			latest = o.Timestamp
			_, zoneOffset = o.Timestamp.Zone()
		}
	}

	if len(buckets) < MinTrainingPoints {
		return &ml.TrainingDataError{
			Reason: fmt.Sprintf("need at least %d hourly points, have %d", MinTrainingPoints, len(buckets)),
		}
	}

	hours := make([]int64, 0, len(buckets))
	for h := range buckets {
		hours = append(hours, h)
	}
	sort.Slice(hours, func(i, j int) bool { return hours[i] < hours[j] })

	t0 := hours[0]
	n := len(hours)
	p := numCoeffs()
	if n <= p {
		return &ml.TrainingDataError{
			Reason: fmt.Sprintf("series is degenerate: %d points for %d coefficients", n, p),
		}
	}

	X := make([][]float64, n)
	y := make([]float64, n)
	for i, h := range hours {
		b := buckets[h]
		X[i] = featureRow(float64(h-t0) / 3600)
		y[i] = b.sum / float64(b.count)
	}

	coeffs, err := ridgeSolve(X, y, ridgeLambda)
	if err != nil {
		return &ml.TrainingDataError{Reason: err.Error()}
	}

	var ssr float64
	for i := range X {
		r := y[i] - dot(X[i], coeffs)
		ssr += r * r
	}
	sigma := math.Sqrt(ssr / float64(n-p))

	m.Meta = ml.NewArtifactMeta(modelName, schemaVersion)
	m.Coeffs = coeffs
	m.Sigma = sigma
	m.TrainStart = t0
	m.TrainEnd = hours[n-1]
	m.ZoneOffset = zoneOffset
	return nil
}

// Predict projects the next periods hours, one point per hour starting
// immediately after the last training bucket. Scores and bounds are
// clamped to [0, 10] after the unconstrained regression, and confidence
// shrinks as the interval widens: 1 - (upper-lower)/10, clamped to [0,1].
func (m *Model) Predict(periods int) ([]models.ForecastPoint, error) {
	if !m.Trained() {
		return nil, ml.ErrUntrained
	}
	if periods <= 0 {
		return nil, fmt.Errorf("periods must be positive, got %d", periods)
	}

	zone := time.FixedZone("", m.ZoneOffset)
	points := make([]models.ForecastPoint, 0, periods)
	for i := 1; i <= periods; i++ {
		sec := m.TrainEnd + int64(i)*3600
		t := float64(sec-m.TrainStart) / 3600
		yhat := dot(featureRow(t), m.Coeffs)

		lower := clampScore(yhat - intervalZ*m.Sigma)
		upper := clampScore(yhat + intervalZ*m.Sigma)
		pred := clampScore(yhat)
		conf := clamp01(1 - (upper-lower)/maxScore)

		ts := time.Unix(sec, 0).In(zone)
		points = append(points, models.ForecastPoint{
			Timestamp:      ts,
			Hour:           ts.Hour(),
			PredictedScore: pred,
			LowerBound:     lower,
			UpperBound:     upper,
			Confidence:     conf,
		})
	}
	return points, nil
}

// Save writes the fitted model as a JSON artifact.
func (m *Model) Save(path string) error {
	if !m.Trained() {
		return ml.ErrUntrained
	}
	return ml.SaveArtifact(path, m)
}

// Load replaces the model with the artifact at path.
func Load(path string) (*Model, error) {
	var m Model
	if err := ml.LoadArtifact(path, &m); err != nil {
		return nil, err
	}
	if err := ml.CheckMeta(path, m.Meta, modelName, schemaVersion); err != nil {
		return nil, err
	}
	if !m.Trained() {
		return nil, &ml.ArtifactError{Path: path, Err: fmt.Errorf("artifact holds no coefficients")}
	}
	return &m, nil
}

func numCoeffs() int {
	return 2 + 2*dailyOrder + 2*weeklyOrder
}

// featureRow builds the regression basis for a point t hours after the
// first training bucket.
func featureRow(t float64) []float64 {
	row := make([]float64, 0, numCoeffs())
	row = append(row, 1, t)
	for k := 1; k <= dailyOrder; k++ {
		phase := 2 * math.Pi * float64(k) * t / dailyPeriodHours
		row = append(row, math.Sin(phase), math.Cos(phase))
	}
	for k := 1; k <= weeklyOrder; k++ {
		phase := 2 * math.Pi * float64(k) * t / weeklyPeriodHours
		row = append(row, math.Sin(phase), math.Cos(phase))
	}
	return row
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func clampScore(v float64) float64 {
	return math.Min(maxScore, math.Max(0, v))
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
