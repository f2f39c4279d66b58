package anomaly

import (
	"math"
	"math/rand"
	"sort"
)

// treeNode is one node of an isolation tree. Leaves carry the number of
// points that ended up in them so scoring can add the expected depth of
// an unbuilt subtree.
type treeNode struct {
	Feature   int       `json:"f"`
	Threshold float64   `json:"t"`
	Left      *treeNode `json:"l,omitempty"`
	Right     *treeNode `json:"r,omitempty"`
	Size      int       `json:"n,omitempty"`
}

func (n *treeNode) leaf() bool {
	return n.Left == nil
}

// isoForest is an ensemble of random partitioning trees. Points that
// separate from the rest in fewer splits score as more anomalous.
type isoForest struct {
	Trees     []*treeNode `json:"trees"`
	Subsample int         `json:"subsample"`
	Threshold float64     `json:"threshold"`
	Seed      int64       `json:"seed"`
}

const (
	numTrees     = 100
	maxSubsample = 256
)

// fit builds the ensemble over rows and fixes the outlier threshold at
// the contamination quantile of the training scores. The seed makes
// training reproducible.
func (f *isoForest) fit(rows [][]float64, contamination float64, seed int64) {
	f.Seed = seed
	f.Subsample = len(rows)
	if f.Subsample > maxSubsample {
		f.Subsample = maxSubsample
	}

	rng := rand.New(rand.NewSource(seed))
	maxDepth := int(math.Ceil(math.Log2(float64(f.Subsample)))) + 1

	f.Trees = make([]*treeNode, numTrees)
	for i := range f.Trees {
		sample := sampleRows(rows, f.Subsample, rng)
		f.Trees[i] = buildTree(sample, 0, maxDepth, rng)
	}

	scores := make([]float64, len(rows))
	for i, row := range rows {
		scores[i] = f.scoreSample(row)
	}
	f.Threshold = quantile(scores, contamination)
}

// scoreSample returns the negated anomaly measure: values lie in
// (-1, 0] and more negative means more anomalous.
func (f *isoForest) scoreSample(row []float64) float64 {
	var depth float64
	for _, t := range f.Trees {
		depth += pathLength(t, row, 0)
	}
	depth /= float64(len(f.Trees))
	return -math.Pow(2, -depth/avgPathLength(f.Subsample))
}

// outlier reports whether the score falls below the fitted threshold.
func (f *isoForest) outlier(score float64) bool {
	return score < f.Threshold
}

func sampleRows(rows [][]float64, size int, rng *rand.Rand) [][]float64 {
	if size >= len(rows) {
		return rows
	}
	picked := make([][]float64, size)
	for i, idx := range rng.Perm(len(rows))[:size] {
		picked[i] = rows[idx]
	}
	return picked
}

func buildTree(rows [][]float64, depth, maxDepth int, rng *rand.Rand) *treeNode {
	if len(rows) <= 1 || depth >= maxDepth {
		return &treeNode{Size: len(rows)}
	}

	feature, lo, hi, ok := splittableFeature(rows, rng)
	if !ok {
		// All remaining points are identical.
		return &treeNode{Size: len(rows)}
	}
	threshold := lo + rng.Float64()*(hi-lo)

	var left, right [][]float64
	for _, row := range rows {
		if row[feature] < threshold {
			left = append(left, row)
		} else {
			right = append(right, row)
		}
	}
	return &treeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      buildTree(left, depth+1, maxDepth, rng),
		Right:     buildTree(right, depth+1, maxDepth, rng),
	}
}

// splittableFeature picks a random feature whose values are not all
// equal, returning its value range.
func splittableFeature(rows [][]float64, rng *rand.Rand) (feature int, lo, hi float64, ok bool) {
	dim := len(rows[0])
	for _, feature := range rng.Perm(dim) {
		lo, hi := rows[0][feature], rows[0][feature]
		for _, row := range rows[1:] {
			lo = math.Min(lo, row[feature])
			hi = math.Max(hi, row[feature])
		}
		if hi > lo {
			return feature, lo, hi, true
		}
	}
	return 0, 0, 0, false
}

func pathLength(n *treeNode, row []float64, depth int) float64 {
	if n.leaf() {
		return float64(depth) + avgPathLength(n.Size)
	}
	if row[n.Feature] < n.Threshold {
		return pathLength(n.Left, row, depth+1)
	}
	return pathLength(n.Right, row, depth+1)
}

const eulerGamma = 0.5772156649

// avgPathLength is the expected path length of an unsuccessful BST
// search in a tree of n points.
func avgPathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	}
	h := math.Log(float64(n-1)) + eulerGamma
	return 2*h - 2*float64(n-1)/float64(n)
}

// quantile returns the q-th quantile of values with linear
// interpolation between order statistics.
func quantile(values []float64, q float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
