package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "agendabot/internal/log"
)

// maxOccurrencesPerEvent caps RRULE expansion so a pathological rule cannot
// blow up a query.
const maxOccurrencesPerEvent = 1000

// Occurrence is a single concrete instance of an event inside a query
// window, with Start/End converted to the display location.
type Occurrence struct {
	UID string

	Summary     string
	Description string
	Location    string

	Start  time.Time
	End    time.Time
	AllDay bool
}

// Expand turns parsed events into concrete occurrences whose start falls
// inside the half-open window [from, to), converted into loc. Non-recurring
// events contribute at most one occurrence; RRULE events are expanded with
// their EXDATEs applied and the original duration preserved.
//
// Events are processed in input order and each event's occurrences are
// emitted chronologically, so feed order survives as the tie-break for a
// later stable sort.
func Expand(events []Event, from, to time.Time, loc *time.Location) []Occurrence {
	if loc == nil {
		loc = time.Local
	}

	out := make([]Occurrence, 0, len(events))

	for _, ev := range events {
		if ev.RawRRule == "" {
			start := ev.Start.In(loc)
			if inWindow(start, from, to) {
				out = append(out, makeOccurrence(ev, ev.Start, ev.End, loc))
			}
			continue
		}

		out = append(out, expandRecurring(ev, from, to, loc)...)
	}

	return out
}

func expandRecurring(ev Event, from, to time.Time, loc *time.Location) []Occurrence {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("rrule parse failed", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Between is evaluated in the event's own zone; the window check below
	// is what actually decides membership.
	evLoc := ev.Start.Location()
	times := set.Between(from.In(evLoc), to.In(evLoc), true)

	if len(times) > maxOccurrencesPerEvent {
		appLog.Error("rrule expansion truncated", errors.New("max occurrences reached"),
			"uid", ev.UID, "cap", maxOccurrencesPerEvent)
		times = times[:maxOccurrencesPerEvent]
	}

	dur := ev.End.Sub(ev.Start)
	out := make([]Occurrence, 0, len(times))

	for _, start := range times {
		if !inWindow(start.In(loc), from, to) {
			continue
		}
		var end time.Time
		if ev.AllDay {
			day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
			start = day
			end = day.AddDate(0, 0, 1)
		} else {
			end = start.Add(dur)
		}
		out = append(out, makeOccurrence(ev, start, end, loc))
	}

	return out
}

func makeOccurrence(ev Event, start, end time.Time, loc *time.Location) Occurrence {
	return Occurrence{
		UID:         ev.UID,
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		Start:       start.In(loc),
		End:         end.In(loc),
		AllDay:      ev.AllDay,
	}
}

func inWindow(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}
