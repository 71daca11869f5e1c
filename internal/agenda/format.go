package agenda

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"agendabot/internal/ics"
)

// Modality marker words. The feed flags remote/in-person days with
// placeholder events carrying these words; they annotate the title and are
// suppressed from the rendered body.
const (
	ModalityRemote   = "DISTANCIEL"
	ModalityInPerson = "PRESENTIEL"
)

// DaySection is one rendered day: a French header plus the concatenated
// event blocks for that day.
type DaySection struct {
	Date    time.Time
	Heading string
	Body    string
}

// Rendered is a formatted schedule: a title and one section per day, or an
// apology when the range holds no events.
type Rendered struct {
	Title   string
	Apology string
	Days    []DaySection
}

// Empty reports whether the rendering carries no day sections.
func (r Rendered) Empty() bool {
	return len(r.Days) == 0
}

// Format renders occurrences into a schedule. label is the caller-supplied
// range description (e.g. "pour aujourd'hui") and appears verbatim in the
// title and in the empty-range apology.
//
// Format is deterministic: same occurrences and label, same rendering.
func Format(occs []ics.Occurrence, label string) Rendered {
	title := "📅 Agenda " + label
	if tags := modalityTags(occs); len(tags) > 0 {
		title += " (" + strings.Join(tags, ", ") + ")"
	}

	if len(occs) == 0 {
		return Rendered{
			Title:   title,
			Apology: fmt.Sprintf("Bonjour ! Il n'y a pas de cours prévu %s !", label),
		}
	}

	byDay := make(map[string][]ics.Occurrence)
	for _, occ := range occs {
		key := dayKey(occ.Start)
		byDay[key] = append(byDay[key], occ)
	}

	keys := make([]string, 0, len(byDay))
	for key := range byDay {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	days := make([]DaySection, 0, len(keys))
	for _, key := range keys {
		group := byDay[key]
		// Stable: same-time events keep feed order.
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Start.Before(group[j].Start)
		})

		var body strings.Builder
		for _, occ := range group {
			if isModalityPlaceholder(occ.Summary) {
				continue
			}
			writeEventBlock(&body, occ)
		}

		date := group[0].Start
		days = append(days, DaySection{
			Date:    date,
			Heading: frenchDayHeading(date),
			Body:    body.String(),
		})
	}

	return Rendered{Title: title, Days: days}
}

func writeEventBlock(b *strings.Builder, occ ics.Occurrence) {
	b.WriteString("\n**" + occ.Summary + "**\n")
	b.WriteString("De " + occ.Start.Format("15:04") + " à " + occ.End.Format("15:04") + "\n")
	if occ.Description != "" {
		b.WriteString("Description: " + occ.Description + "\n")
	}
	if occ.Location != "" {
		b.WriteString("Lieu: " + occ.Location + "\n")
	}
}

// modalityTags collects the modality markers present across event names,
// matching exact whitespace-delimited words. Order is fixed: remote first.
func modalityTags(occs []ics.Occurrence) []string {
	words := make(map[string]struct{})
	for _, occ := range occs {
		for _, w := range strings.Fields(occ.Summary) {
			words[w] = struct{}{}
		}
	}

	var tags []string
	if _, ok := words[ModalityRemote]; ok {
		tags = append(tags, ModalityRemote)
	}
	if _, ok := words[ModalityInPerson]; ok {
		tags = append(tags, ModalityInPerson)
	}
	return tags
}

// isModalityPlaceholder reports whether a name marks a modality flag entry
// rather than a real session. Deliberately a substring match, looser than
// the word match used for title tags: placeholder names in the feed vary
// ("DISTANCIEL", "Cours DISTANCIEL", ...) and none of them are sessions.
func isModalityPlaceholder(name string) bool {
	return strings.Contains(name, ModalityRemote) || strings.Contains(name, ModalityInPerson)
}

var frenchWeekdays = [7]string{
	"Dimanche", "Lundi", "Mardi", "Mercredi", "Jeudi", "Vendredi", "Samedi",
}

var frenchMonths = [12]string{
	"Janvier", "Février", "Mars", "Avril", "Mai", "Juin",
	"Juillet", "Août", "Septembre", "Octobre", "Novembre", "Décembre",
}

// frenchDayHeading renders a date as a capitalized French header,
// e.g. "Lundi 3 Juin 2024". The stdlib has no locale data and the tables
// are small enough to carry here.
func frenchDayHeading(t time.Time) string {
	return fmt.Sprintf("%s %d %s %d",
		frenchWeekdays[t.Weekday()],
		t.Day(),
		frenchMonths[t.Month()-1],
		t.Year(),
	)
}
