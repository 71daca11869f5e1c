// Package agenda implements the date-windowed event retrieval and
// formatting pipeline: it turns the stored feed plus an inclusive date
// range into a grouped, human-readable schedule.
package agenda

import (
	"errors"
	"fmt"
	"time"

	"agendabot/internal/ics"
)

// ErrFeedUnavailable is returned when no parsable feed is present: the
// store is missing, empty, or holds a malformed calendar.
var ErrFeedUnavailable = errors.New("calendar feed unavailable")

// DateRange is an inclusive pair of calendar dates. Only the date portion
// of its bounds is meaningful; comparisons ignore time of day.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// SingleDay returns the range covering just t's calendar date.
func SingleDay(t time.Time) DateRange {
	return DateRange{Start: t, End: t}
}

// DaysFrom returns the range [t, t+n days], inclusive on both ends.
func DaysFrom(t time.Time, n int) DateRange {
	return DateRange{Start: t, End: t.AddDate(0, 0, n)}
}

// Contains reports whether t's calendar date falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	d := dayKey(t)
	return d >= dayKey(r.Start) && d <= dayKey(r.End)
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Service reads the feed store and answers schedule queries. It holds no
// mutable state; every query re-reads the store, so the result is a pure
// function of (store contents, range).
type Service struct {
	store *ics.Store
	loc   *time.Location
}

// NewService creates a Service reading from store, with dates interpreted
// in loc.
func NewService(store *ics.Store, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{store: store, loc: loc}
}

// Location returns the display timezone used for date windows.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Filter returns the occurrences whose start date falls inside r,
// in feed order. An event spanning midnight is included when its start
// date is in range, regardless of where it ends.
func (s *Service) Filter(r DateRange) ([]ics.Occurrence, error) {
	body, err := s.store.Load()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}

	events, err := ics.ParseFeed(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}

	from := startOfDay(r.Start, s.loc)
	to := startOfDay(r.End, s.loc).AddDate(0, 0, 1)

	occs := ics.Expand(events, from, to, s.loc)

	out := make([]ics.Occurrence, 0, len(occs))
	for _, occ := range occs {
		if r.Contains(occ.Start) {
			out = append(out, occ)
		}
	}
	return out, nil
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
