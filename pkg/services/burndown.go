package services

import (
	"math"
	"time"

	"github.com/scrumdeck/scrumdeck-engine/pkg/apperrors"
	"github.com/scrumdeck/scrumdeck-engine/pkg/models"
)

// Chart series labels.
const (
	SeriesProgress = "Progress"
	SeriesForecast = "Forecast"
)

// DateRange returns every calendar date from start to end inclusive as
// "YYYY-MM-DD" labels.
func DateRange(start, end time.Time) []string {
	cur := models.ToDate(start)
	last := models.ToDate(end)

	labels := []string{models.DateLabel(cur)}
	for cur.Before(last) {
		cur = cur.AddDate(0, 0, 1)
		labels = append(labels, models.DateLabel(cur))
	}
	return labels
}

// Burndown computes a sprint's chart: the actual remaining-weight series and
// the ideal linear forecast over the sprint's date range.
//
// The actual series starts every day at the total weight, subtracts each
// finished task's weight on its done date, then walks the days in order
// clamping any value above the running minimum. Subtraction order is not
// date-ordered, so without the clamp a day could show more remaining work
// than the day before; the clamp makes the series non-increasing.
//
// Tasks finished outside the sprint's range are a caller precondition
// violation; their weight is ignored rather than subtracted out of range.
func Burndown(sprint *models.Sprint) (*models.ChartData, error) {
	if models.ToDate(sprint.EndDate).Before(models.ToDate(sprint.StartDate)) {
		return nil, apperrors.NewValidation("empty_sprint_range",
			"sprint end date precedes its start date")
	}

	labels := DateRange(sprint.StartDate, sprint.EndDate)

	totalWeight := 0
	for _, t := range sprint.Tasks {
		totalWeight += t.Weight
	}

	remaining := make(map[string]float64, len(labels))
	for _, label := range labels {
		remaining[label] = float64(totalWeight)
	}
	for _, t := range sprint.Tasks {
		if t.DoneDate == nil {
			continue
		}
		label := models.DateLabel(*t.DoneDate)
		if _, ok := remaining[label]; ok {
			remaining[label] -= float64(t.Weight)
		}
	}

	progress := make([]float64, len(labels))
	currentWeight := float64(totalWeight)
	for i, label := range labels {
		value := remaining[label]
		if value < currentWeight {
			currentWeight = value
		}
		progress[i] = currentWeight
	}

	// A single-day sprint has no decay steps; the forecast is the flat
	// total rather than a division by zero.
	forecast := make([]float64, len(labels))
	if len(labels) == 1 {
		forecast[0] = float64(totalWeight)
	} else {
		step := float64(totalWeight) / float64(len(labels)-1)
		for i := range forecast {
			forecast[i] = round3(float64(totalWeight) - step*float64(i))
		}
	}

	return &models.ChartData{
		Data: []models.ChartSeries{
			{Data: progress, Label: SeriesProgress},
			{Data: forecast, Label: SeriesForecast},
		},
		Labels: labels,
	}, nil
}

// round3 rounds to 3 decimal places.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
