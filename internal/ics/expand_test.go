package ics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func utc(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func TestExpandNonRecurring(t *testing.T) {
	events := []Event{
		{UID: "in", Summary: "Maths", Start: utc(2024, 6, 3, 8), End: utc(2024, 6, 3, 10)},
		{UID: "out", Summary: "Projet", Start: utc(2024, 7, 1, 8), End: utc(2024, 7, 1, 10)},
	}

	occs := Expand(events, utc(2024, 6, 3, 0), utc(2024, 6, 4, 0), time.UTC)
	require.Len(t, occs, 1)
	assert.Equal(t, "Maths", occs[0].Summary)
	assert.Equal(t, utc(2024, 6, 3, 8), occs[0].Start)
	assert.Equal(t, utc(2024, 6, 3, 10), occs[0].End)
}

func TestExpandWeeklyRecurrence(t *testing.T) {
	events := []Event{
		{
			UID:      "tp",
			Summary:  "TP Réseaux",
			Start:    utc(2024, 6, 3, 8),
			End:      utc(2024, 6, 3, 10),
			RawRRule: "FREQ=WEEKLY;COUNT=4",
		},
	}

	// June window catches all four Mondays: 3, 10, 17, 24.
	occs := Expand(events, utc(2024, 6, 1, 0), utc(2024, 7, 1, 0), time.UTC)
	require.Len(t, occs, 4)
	assert.Equal(t, utc(2024, 6, 3, 8), occs[0].Start)
	assert.Equal(t, utc(2024, 6, 24, 8), occs[3].Start)

	// Duration carries over to every instance.
	for _, occ := range occs {
		assert.Equal(t, 2*time.Hour, occ.End.Sub(occ.Start))
	}

	// Narrow window keeps only the instance starting inside it.
	occs = Expand(events, utc(2024, 6, 10, 0), utc(2024, 6, 11, 0), time.UTC)
	require.Len(t, occs, 1)
	assert.Equal(t, utc(2024, 6, 10, 8), occs[0].Start)
}

func TestExpandAppliesExDates(t *testing.T) {
	events := []Event{
		{
			UID:      "tp",
			Summary:  "TP Réseaux",
			Start:    utc(2024, 6, 3, 8),
			End:      utc(2024, 6, 3, 10),
			RawRRule: "FREQ=WEEKLY;COUNT=4",
			ExDates:  []time.Time{utc(2024, 6, 10, 8)},
		},
	}

	occs := Expand(events, utc(2024, 6, 1, 0), utc(2024, 7, 1, 0), time.UTC)
	require.Len(t, occs, 3)
	for _, occ := range occs {
		assert.NotEqual(t, utc(2024, 6, 10, 8), occ.Start)
	}
}

func TestExpandInvalidRRuleIsSkipped(t *testing.T) {
	events := []Event{
		{UID: "bad", Summary: "Cassé", Start: utc(2024, 6, 3, 8), End: utc(2024, 6, 3, 9), RawRRule: "FREQ=NOPE"},
		{UID: "ok", Summary: "Maths", Start: utc(2024, 6, 3, 10), End: utc(2024, 6, 3, 12)},
	}

	occs := Expand(events, utc(2024, 6, 3, 0), utc(2024, 6, 4, 0), time.UTC)
	require.Len(t, occs, 1)
	assert.Equal(t, "Maths", occs[0].Summary)
}

func TestExpandConvertsToDisplayLocation(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	events := []Event{
		// 08:00 UTC is 10:00 in Paris during June (CEST).
		{UID: "m", Summary: "Maths", Start: utc(2024, 6, 3, 8), End: utc(2024, 6, 3, 10)},
	}

	occs := Expand(events, utc(2024, 6, 3, 0), utc(2024, 6, 4, 0), paris)
	require.Len(t, occs, 1)
	assert.Equal(t, "10:00", occs[0].Start.Format("15:04"))
	assert.Equal(t, paris, occs[0].Start.Location())
}

func TestExpandPreservesInputOrder(t *testing.T) {
	events := []Event{
		{UID: "b", Summary: "Second", Start: utc(2024, 6, 3, 8), End: utc(2024, 6, 3, 9)},
		{UID: "a", Summary: "First", Start: utc(2024, 6, 3, 8), End: utc(2024, 6, 3, 9)},
	}

	occs := Expand(events, utc(2024, 6, 3, 0), utc(2024, 6, 4, 0), time.UTC)
	require.Len(t, occs, 2)
	assert.Equal(t, "Second", occs[0].Summary)
	assert.Equal(t, "First", occs[1].Summary)
}
