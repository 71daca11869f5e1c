package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveQuery(t *testing.T) {
	now := time.Date(2024, 6, 3, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		command   string
		wantStart string
		wantEnd   string
		wantLabel string
	}{
		{"today", "2024-06-03", "2024-06-03", "pour aujourd'hui"},
		{"tomorrow", "2024-06-04", "2024-06-04", "pour demain"},
		{"3days", "2024-06-03", "2024-06-06", "pour les 3 prochains jours"},
		{"week", "2024-06-03", "2024-06-10", "pour cette semaine"},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			q, ok := resolveQuery(tt.command, now)
			require.True(t, ok)
			assert.Equal(t, tt.wantStart, q.dateRange.Start.Format("2006-01-02"))
			assert.Equal(t, tt.wantEnd, q.dateRange.End.Format("2006-01-02"))
			assert.Equal(t, tt.wantLabel, q.label)
		})
	}
}

func TestResolveQueryUnknownCommand(t *testing.T) {
	_, ok := resolveQuery("ping", time.Now())
	assert.False(t, ok)

	_, ok = resolveQuery("nope", time.Now())
	assert.False(t, ok)
}
