package pattern

import (
	"fmt"
	"sort"

	"rehabit/internal/ml"
	"rehabit/internal/models"
)

const (
	modelName     = "pattern"
	schemaVersion = 1
	numClusters   = 3
)

// Classifier assigns an hourly productivity profile to one of a small
// fixed set of behavioral archetypes. The cluster-index to label table
// is part of the artifact, versioned alongside the centroids, so a
// retrained model can never silently relabel archetypes.
type Classifier struct {
	Meta     ml.ArtifactMeta             `json:"meta"`
	Scaler   ml.StandardScaler           `json:"scaler"`
	Clusters kMeans                      `json:"clusters"`
	Labels   map[int]models.PatternLabel `json:"labels"`
}

// defaultLabels is the training-time convention: the corpus is built as
// [base profile, +8h shifted copy, flattened copy] in that order.
func defaultLabels() map[int]models.PatternLabel {
	return map[int]models.PatternLabel{
		0: models.PatternMorningPerson,
		1: models.PatternNightOwl,
		2: models.PatternConsistentWorker,
	}
}

// Trained reports whether the classifier holds fitted centroids.
func (c *Classifier) Trained() bool {
	return c != nil && len(c.Clusters.Centroids) > 0
}

// Train builds the synthetic corpus from one observed profile and fits
// scaler and centroids. The corpus holds the profile itself, a copy
// shifted forward 8 hours (a delayed-schedule worker), and a copy
// flattened to the profile's mean over observed hours (a consistent
// worker). A profile with no observed hours is rejected.
func (c *Classifier) Train(profile models.HourlyProfile) error {
	mean, observed := observedMean(profile)
	if observed == 0 {
		return &ml.TrainingDataError{Reason: "hourly profile has no observed hours"}
	}

	shifted := shiftHours(profile, 8)
	flat := profile
	for h := range flat {
		if flat[h] > 0 {
			flat[h] = mean
		}
	}

	corpus := [][]float64{profile[:], shifted[:], flat[:]}
	c.Scaler.Fit(corpus)
	c.Clusters.fit(c.Scaler.TransformAll(corpus), numClusters)
	c.Labels = defaultLabels()
	c.Meta = ml.NewArtifactMeta(modelName, schemaVersion)
	return nil
}

// Classify standardizes the query profile with the fitted scaler,
// assigns it to the nearest centroid, and reports the mapped label.
// Peak and low hours are direct statistics of the profile, independent
// of the cluster assignment; hours without data are skipped.
func (c *Classifier) Classify(profile models.HourlyProfile) (models.PatternProfile, error) {
	if !c.Trained() {
		return models.PatternProfile{}, ml.ErrUntrained
	}

	cluster := c.Clusters.nearest(c.Scaler.Transform(profile[:]))
	label, ok := c.Labels[cluster]
	if !ok {
		label = models.PatternUnknown
	}

	observed := observedHours(profile)
	peak := topHours(profile, observed, true)
	low := topHours(profile, observed, false)

	result := models.PatternProfile{
		PatternType:    label,
		ClusterID:      cluster,
		PeakHours:      peak,
		LowEnergyHours: low,
	}
	if len(observed) > 0 {
		mean, _ := observedMean(profile)
		result.AvgProductivity = mean
		result.PeakProductivity = profile[peak[0]]
		result.LowProductivity = profile[low[0]]
	}
	return result, nil
}

// Save writes the fitted classifier as a JSON artifact.
func (c *Classifier) Save(path string) error {
	if !c.Trained() {
		return ml.ErrUntrained
	}
	return ml.SaveArtifact(path, c)
}

// Load replaces the classifier with the artifact at path.
func Load(path string) (*Classifier, error) {
	var c Classifier
	if err := ml.LoadArtifact(path, &c); err != nil {
		return nil, err
	}
	if err := ml.CheckMeta(path, c.Meta, modelName, schemaVersion); err != nil {
		return nil, err
	}
	if !c.Trained() {
		return nil, &ml.ArtifactError{Path: path, Err: fmt.Errorf("artifact holds no centroids")}
	}
	return &c, nil
}

func shiftHours(p models.HourlyProfile, by int) models.HourlyProfile {
	var out models.HourlyProfile
	for h, v := range p {
		out[(h+by)%models.HourlyProfileSize] = v
	}
	return out
}

func observedHours(p models.HourlyProfile) []int {
	var hours []int
	for h, v := range p {
		if v > 0 {
			hours = append(hours, h)
		}
	}
	return hours
}

func observedMean(p models.HourlyProfile) (mean float64, observed int) {
	var sum float64
	for _, v := range p {
		if v > 0 {
			sum += v
			observed++
		}
	}
	if observed == 0 {
		return 0, 0
	}
	return sum / float64(observed), observed
}

// topHours returns up to three observed hours sorted by productivity,
// descending when desc is true. Ties break toward the earlier hour so
// the result is deterministic.
func topHours(p models.HourlyProfile, observed []int, desc bool) []int {
	hours := append([]int(nil), observed...)
	sort.SliceStable(hours, func(i, j int) bool {
		if p[hours[i]] == p[hours[j]] {
			return hours[i] < hours[j]
		}
		if desc {
			return p[hours[i]] > p[hours[j]]
		}
		return p[hours[i]] < p[hours[j]]
	})
	if len(hours) > 3 {
		hours = hours[:3]
	}
	return hours
}
