package pattern

import "math"

// kMeans is plain Lloyd's algorithm. Centroids are seeded with the
// first k points in corpus order, which keeps the cluster-index to
// label mapping stable across retrainings of the same corpus shape.
type kMeans struct {
	Centroids [][]float64 `json:"centroids"`
}

const maxIterations = 100

func (k *kMeans) fit(points [][]float64, clusters int) {
	k.Centroids = make([][]float64, clusters)
	for i := 0; i < clusters; i++ {
		k.Centroids[i] = append([]float64(nil), points[i%len(points)]...)
	}

	assignments := make([]int, len(points))
	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, pt := range points {
			c := k.nearest(pt)
			if c != assignments[i] {
				assignments[i] = c
				changed = true
			}
		}
		if iter > 0 && !changed {
			break
		}

		for c := range k.Centroids {
			var members int
			sum := make([]float64, len(k.Centroids[c]))
			for i, pt := range points {
				if assignments[i] != c {
					continue
				}
				members++
				for j, v := range pt {
					sum[j] += v
				}
			}
			// Empty clusters keep their previous centroid.
			if members == 0 {
				continue
			}
			for j := range sum {
				sum[j] /= float64(members)
			}
			k.Centroids[c] = sum
		}
	}
}

func (k *kMeans) nearest(pt []float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range k.Centroids {
		d := sqDist(pt, centroid)
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func sqDist(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}
