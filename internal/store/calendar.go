package store

import (
	"context"
	"fmt"
	"time"

	"planar/internal/domain"
	appErrors "planar/internal/errors"
)

// CalendarLayout is the span a calendar view shows.
type CalendarLayout string

const (
	LayoutMonth CalendarLayout = "month"
	LayoutWeek  CalendarLayout = "week"
)

// ParseCalendarLayout maps a config value to a layout.
func ParseCalendarLayout(raw string) (CalendarLayout, error) {
	switch CalendarLayout(raw) {
	case LayoutMonth, "":
		return LayoutMonth, nil
	case LayoutWeek:
		return LayoutWeek, nil
	default:
		return "", appErrors.New(appErrors.CodeValidation, fmt.Sprintf("unknown calendar layout %q", raw), nil)
	}
}

// CalendarWindow is the date range a calendar view fetches and the weeks
// it renders.
type CalendarWindow struct {
	After   string
	Before  string
	PerPage int
	// Weeks lists the displayed days, one row per week starting Sunday.
	// Saturdays and Sundays are omitted unless weekends are shown.
	Weeks [][]time.Time
}

// CalendarRange computes the window for layout around anchor. A month
// spans the full weeks that cover it; a week is the week holding anchor.
func CalendarRange(layout CalendarLayout, anchor time.Time, showWeekends bool) CalendarWindow {
	day := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, time.UTC)

	var start, end time.Time
	perPage := 30
	if layout == LayoutWeek {
		start = startOfWeek(day)
		end = start.AddDate(0, 0, 6)
	} else {
		perPage = 4
		first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		last := first.AddDate(0, 1, -1)
		start = startOfWeek(first)
		end = startOfWeek(last).AddDate(0, 0, 6)
	}

	var weeks [][]time.Time
	for w := start; !w.After(end); w = w.AddDate(0, 0, 7) {
		var row []time.Time
		for i := 0; i < 7; i++ {
			d := w.AddDate(0, 0, i)
			if !showWeekends && (d.Weekday() == time.Saturday || d.Weekday() == time.Sunday) {
				continue
			}
			row = append(row, d)
		}
		weeks = append(weeks, row)
	}

	return CalendarWindow{
		After:   start.Format(domain.DateLayout),
		Before:  end.Format(domain.DateLayout),
		PerPage: perPage,
		Weeks:   weeks,
	}
}

func startOfWeek(d time.Time) time.Time {
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// CalendarParams returns the fetch parameters for a calendar window.
func CalendarParams(w CalendarWindow) Params {
	return Params{
		CanGroup:     true,
		GroupedBy:    domain.GroupByTargetDate,
		PerPageCount: w.PerPage,
		After:        w.After,
		Before:       w.Before,
	}
}

// HandleCalendarDrop moves an issue to another day. Missing ids or an
// unchanged date do nothing.
func (s *Store) HandleCalendarDrop(ctx context.Context, issueID, sourceDate, destinationDate string) error {
	if issueID == "" || sourceDate == "" || destinationDate == "" || sourceDate == destinationDate {
		return nil
	}
	issue, ok := s.Issue(issueID)
	if !ok {
		err := appErrors.New(appErrors.CodeValidation, fmt.Sprintf("issue %s is not on the calendar", issueID), nil)
		s.notifyError("Error moving issue", err)
		return err
	}
	return s.UpdateIssue(ctx, issue.ProjectID, issueID, domain.IssuePatch{TargetDate: domain.String(destinationDate)})
}
