// internal/bench/report.go
package bench

import (
	"fmt"
	"sort"
	"strings"
)

// Report ranks every tool's outcome for one input file.
type Report struct {
	OriginalSize int64 `json:"original_size"`
	// Results are sorted by descending ratio.
	Results     []Result `json:"results"`
	Recommended Tool     `json:"recommended,omitempty"`
	Chart       *Chart   `json:"chart"`
	Summary     string   `json:"summary"`
	// Seconds is the sequential sweep's wall-clock total, the
	// brute-force baseline.
	Seconds float64 `json:"seconds"`
}

// NewReport sorts the results and renders the chart and summary.
func NewReport(originalSize int64, results []Result, recommended Tool) *Report {
	sorted := append([]Result(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Ratio > sorted[j].Ratio
	})

	report := &Report{
		OriginalSize: originalSize,
		Results:      sorted,
		Recommended:  recommended,
	}
	report.Chart = buildChart(sorted, recommended)
	report.Summary = buildSummary(originalSize, sorted)
	return report
}

// Result returns the entry for one tool, if present.
func (r *Report) Result(tool Tool) (Result, bool) {
	for _, res := range r.Results {
		if res.Tool == tool {
			return res, true
		}
	}
	return Result{}, false
}

// DisplaySize reports the compressed size implied by a result's ratio,
// falling back to the original size when the tool never compressed.
func (r *Report) DisplaySize(res Result) float64 {
	if res.Ratio > 0 {
		return float64(r.OriginalSize) / res.Ratio
	}
	return float64(r.OriginalSize)
}

func buildSummary(originalSize int64, sorted []Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Original File Size: %.2f KB\n\n", float64(originalSize)/1024)
	fmt.Fprintf(&b, "%-8s%10s%14s\n", "Tool", "Ratio", "Size (KB)")
	for _, res := range sorted {
		size := float64(originalSize)
		if res.Ratio > 0 {
			size = float64(originalSize) / res.Ratio
		}
		fmt.Fprintf(&b, "%-8s%10.2f%14.2f\n", string(res.Tool), res.Ratio, size/1024)
	}
	return strings.TrimRight(b.String(), "\n")
}
