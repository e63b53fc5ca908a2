package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(v int64) *int64 { return &v }

func TestSortEntriesByTimescaleRank(t *testing.T) {
	entries := []Entry{
		{ID: 1, Timescale: TimescaleCompleted},
		{ID: 2, Timescale: TimescaleSomeday},
		{ID: 3, Timescale: TimescaleOverdue},
		{ID: 4, Timescale: TimescaleToday},
		{ID: 5, Timescale: TimescaleThisMonth},
		{ID: 6, Timescale: TimescaleThisWeek},
		{ID: 7, Timescale: TimescaleLater},
	}
	SortEntries(entries)

	var got []uint64
	for _, e := range entries {
		got = append(got, e.ID)
	}
	assert.Equal(t, []uint64{3, 4, 6, 5, 7, 2, 1}, got)
}

func TestSortEntriesLowerRankAlwaysFirst(t *testing.T) {
	// Rank dominates regardless of id or due date.
	entries := []Entry{
		{ID: 1, Timescale: TimescaleToday, DueTS: ts(10)},
		{ID: 99, Timescale: TimescaleOverdue, DueTS: ts(999999)},
	}
	SortEntries(entries)
	require.Equal(t, uint64(99), entries[0].ID)
}

func TestSortEntriesDueBeforeUndated(t *testing.T) {
	entries := []Entry{
		{ID: 1, Timescale: TimescaleThisWeek},
		{ID: 2, Timescale: TimescaleThisWeek, DueTS: ts(500)},
		{ID: 3, Timescale: TimescaleThisWeek, DueTS: ts(100)},
	}
	SortEntries(entries)
	require.Equal(t, uint64(3), entries[0].ID)
	require.Equal(t, uint64(2), entries[1].ID)
	require.Equal(t, uint64(1), entries[2].ID)
}

func TestSortEntriesTotalOrder(t *testing.T) {
	// Identical rank and due date fall through to id, so no two distinct
	// entries ever compare equal and the order is stable across re-sorts.
	entries := []Entry{
		{ID: 8, Timescale: TimescaleSomeday},
		{ID: 4, Timescale: TimescaleSomeday},
		{ID: 6, Timescale: TimescaleSomeday},
	}
	SortEntries(entries)
	SortEntries(entries)

	var got []uint64
	for _, e := range entries {
		got = append(got, e.ID)
	}
	assert.Equal(t, []uint64{4, 6, 8}, got)
}

func TestSortNotesPinnedFirstThenRecency(t *testing.T) {
	notes := []Note{
		{ID: 1, LastEditedTS: 300},
		{ID: 2, Pinned: true, LastEditedTS: 100},
		{ID: 3, LastEditedTS: 200},
		{ID: 4, Pinned: true, LastEditedTS: 400},
	}
	SortNotes(notes)

	var got []uint64
	for _, n := range notes {
		got = append(got, n.ID)
	}
	assert.Equal(t, []uint64{4, 2, 1, 3}, got)
}
