package bench

// Bar palette, matched to the presentation layer's.
const (
	barColor       = "#1f77b4"
	highlightColor = "#ff7f0e"
)

// Chart is a renderer-agnostic bar chart description the presentation
// layer can draw without knowing anything about benchmarking.
type Chart struct {
	Type   string    `json:"type"`
	Title  string    `json:"title"`
	XTitle string    `json:"x_title"`
	YTitle string    `json:"y_title"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
	Colors []string  `json:"colors"`
}

// buildChart renders the ranked results as bars, with the recommended
// tool's bar in the accent color.
func buildChart(sorted []Result, recommended Tool) *Chart {
	chart := &Chart{
		Type:   "bar",
		Title:  "Compression Ratio Comparison (Higher is Better)",
		XTitle: "Compression Tool",
		YTitle: "Compression Ratio",
		Labels: make([]string, len(sorted)),
		Values: make([]float64, len(sorted)),
		Colors: make([]string, len(sorted)),
	}
	for i, res := range sorted {
		chart.Labels[i] = string(res.Tool)
		chart.Values[i] = res.Ratio
		if res.Tool == recommended {
			chart.Colors[i] = highlightColor
		} else {
			chart.Colors[i] = barColor
		}
	}
	return chart
}
