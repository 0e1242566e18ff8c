package model

import "fmt"

type scalerSpec struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Scaler applies the standard-score transform the models were trained
// behind: (x - mean) / scale. Zero scale entries divide by one.
type Scaler struct {
	mean  []float64
	scale []float64
}

func NewScaler(mean, scale []float64) (*Scaler, error) {
	if len(mean) == 0 {
		return nil, fmt.Errorf("model: scaler has no mean vector")
	}
	if len(mean) != len(scale) {
		return nil, fmt.Errorf("model: scaler mean/scale length mismatch: %d vs %d", len(mean), len(scale))
	}
	s := &Scaler{
		mean:  append([]float64(nil), mean...),
		scale: append([]float64(nil), scale...),
	}
	return s, nil
}

// Transform returns the scaled copy of v.
func (s *Scaler) Transform(v []float64) ([]float64, error) {
	if len(v) != len(s.mean) {
		return nil, fmt.Errorf("model: scaler expects %d features, got %d", len(s.mean), len(v))
	}
	out := make([]float64, len(v))
	for i, x := range v {
		scale := s.scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (x - s.mean[i]) / scale
	}
	return out, nil
}

// Len reports the feature width the scaler was fitted on.
func (s *Scaler) Len() int {
	return len(s.mean)
}
