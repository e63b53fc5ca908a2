package domain

import "sort"

// SortEntries orders entries by timescale rank, then by due timestamp
// ascending with dated entries before undated ones, then by id. The ordering
// is total: no two distinct entries compare equal, which keeps presentation
// stable across re-renders.
func SortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if ra, rb := a.Timescale.Rank(), b.Timescale.Rank(); ra != rb {
			return ra < rb
		}
		switch {
		case a.DueTS != nil && b.DueTS != nil:
			if *a.DueTS != *b.DueTS {
				return *a.DueTS < *b.DueTS
			}
		case a.DueTS != nil:
			return true
		case b.DueTS != nil:
			return false
		}
		return a.ID < b.ID
	})
}

// SortNotes orders notes pinned-first, then by last-edited timestamp
// descending, then by id as a final tie-break.
func SortNotes(notes []Note) {
	sort.Slice(notes, func(i, j int) bool {
		a, b := notes[i], notes[j]
		if a.Pinned != b.Pinned {
			return a.Pinned
		}
		if a.LastEditedTS != b.LastEditedTS {
			return a.LastEditedTS > b.LastEditedTS
		}
		return a.ID < b.ID
	})
}
