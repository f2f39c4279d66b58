package ml

import "math"

// StandardScaler rescales each feature to zero mean and unit variance
// using statistics fixed at fit time. A feature with zero variance is
// left unscaled (divisor 1) so constant columns pass through centered.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Fit computes per-feature mean and standard deviation over rows.
// All rows must have the same length.
func (s *StandardScaler) Fit(rows [][]float64) {
	if len(rows) == 0 {
		s.Mean, s.Scale = nil, nil
		return
	}
	dim := len(rows[0])
	s.Mean = make([]float64, dim)
	s.Scale = make([]float64, dim)

	for _, row := range rows {
		for j, v := range row {
			s.Mean[j] += v
		}
	}
	for j := range s.Mean {
		s.Mean[j] /= float64(len(rows))
	}

	for _, row := range rows {
		for j, v := range row {
			d := v - s.Mean[j]
			s.Scale[j] += d * d
		}
	}
	for j := range s.Scale {
		s.Scale[j] = math.Sqrt(s.Scale[j] / float64(len(rows)))
		if s.Scale[j] == 0 {
			s.Scale[j] = 1
		}
	}
}

// Transform standardizes a single row with the fitted statistics.
func (s *StandardScaler) Transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out
}

// TransformAll standardizes every row.
func (s *StandardScaler) TransformAll(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = s.Transform(row)
	}
	return out
}
