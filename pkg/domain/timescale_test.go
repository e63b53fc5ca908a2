package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeTimescale(t *testing.T) {
	// Wednesday mid-month, so the week and month boundaries both matter.
	now := time.Date(2026, time.March, 11, 15, 0, 0, 0, time.UTC)

	millis := func(t time.Time) *int64 {
		v := t.UnixMilli()
		return &v
	}

	tests := []struct {
		name string
		due  *int64
		done bool
		want EntryTimescale
	}{
		{"completed wins", millis(now), true, TimescaleCompleted},
		{"no due date", nil, false, TimescaleSomeday},
		{"yesterday", millis(now.AddDate(0, 0, -1)), false, TimescaleOverdue},
		{"later today", millis(now.Add(2 * time.Hour)), false, TimescaleToday},
		{"sunday same week", millis(time.Date(2026, time.March, 15, 9, 0, 0, 0, time.UTC)), false, TimescaleThisWeek},
		{"monday next week", millis(time.Date(2026, time.March, 16, 9, 0, 0, 0, time.UTC)), false, TimescaleThisMonth},
		{"last day of month", millis(time.Date(2026, time.March, 31, 9, 0, 0, 0, time.UTC)), false, TimescaleThisMonth},
		{"next month", millis(time.Date(2026, time.April, 1, 9, 0, 0, 0, time.UTC)), false, TimescaleLater},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeTimescale(tt.due, tt.done, now))
		})
	}
}

func TestTimescaleRankUnknownLast(t *testing.T) {
	assert.Greater(t, EntryTimescale("NextQuarter").Rank(), TimescaleCompleted.Rank())
}
