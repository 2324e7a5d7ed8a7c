package models

import (
	"time"

	"github.com/google/uuid"
)

// Sprint is a fixed-length time box within a project. EndDate is computed
// once at creation from the project's sprint length and is not recomputed
// when the start date changes later.
type Sprint struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	// Tasks is the sprint's task snapshot when loaded with detail.
	Tasks []*Task `json:"tasks,omitempty"`
}

// Contains reports whether day falls within the sprint's closed
// [StartDate, EndDate] range. Only the calendar date is considered.
func (s *Sprint) Contains(day time.Time) bool {
	d := ToDate(day)
	return !d.Before(ToDate(s.StartDate)) && !d.After(ToDate(s.EndDate))
}

// ToDate truncates t to midnight UTC so DATE columns and label math compare
// on calendar days only.
func ToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateLabel formats t the way chart labels and DATE values are rendered.
func DateLabel(t time.Time) string {
	return t.Format("2006-01-02")
}
