package models

// ChartSeries is one labeled line of a burndown chart.
type ChartSeries struct {
	Data  []float64 `json:"data"`
	Label string    `json:"label"`
}

// ChartData is the burndown payload: the actual progress series, the ideal
// forecast series, and one label per calendar day of the sprint.
type ChartData struct {
	Data   []ChartSeries `json:"data"`
	Labels []string      `json:"labels"`
}
