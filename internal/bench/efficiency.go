package bench

// Efficiency compares the predict-then-compress path against the
// measured sequential sweep.
type Efficiency struct {
	PredictionSeconds  float64 `json:"prediction_seconds"`
	RecommendedSeconds float64 `json:"recommended_seconds"`
	SmartSeconds       float64 `json:"smart_seconds"`
	BruteForceSeconds  float64 `json:"brute_force_seconds"`
	SavedSeconds       float64 `json:"saved_seconds"`
	SavedPercent       float64 `json:"saved_percent"`
}

// NewEfficiency derives the time-saved figures for one benchmarked
// file. The brute-force baseline is the report's measured sweep time,
// not an estimate.
func NewEfficiency(predictionSeconds float64, report *Report) *Efficiency {
	var recommendedSeconds float64
	if res, ok := report.Result(report.Recommended); ok {
		recommendedSeconds = res.Seconds
	}

	e := &Efficiency{
		PredictionSeconds:  predictionSeconds,
		RecommendedSeconds: recommendedSeconds,
		SmartSeconds:       predictionSeconds + recommendedSeconds,
		BruteForceSeconds:  report.Seconds,
	}
	e.SavedSeconds = e.BruteForceSeconds - e.SmartSeconds
	if e.BruteForceSeconds > 0 {
		e.SavedPercent = e.SavedSeconds / e.BruteForceSeconds * 100
	}
	return e
}
