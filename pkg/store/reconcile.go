package store

import "github.com/taskdeck/taskdeck-go/pkg/domain"

// replaceLocked swaps in a full snapshot. Collections are re-sorted on every
// replacement, not just on load.
func (s *Store) replaceLocked(entries []domain.Entry, notes []domain.Note) {
	s.entries = append([]domain.Entry(nil), entries...)
	s.notes = append([]domain.Note(nil), notes...)
	s.sortLocked()
}

// upsertEntryLocked replaces or inserts an entry by id and restores display
// order.
func (s *Store) upsertEntryLocked(entry domain.Entry) {
	if i := s.entryIndexLocked(entry.ID); i >= 0 {
		s.entries[i] = entry
	} else {
		s.entries = append(s.entries, entry)
	}
	s.sortLocked()
}

// upsertNoteLocked replaces or inserts a note by id, then reconciles every
// entry's note links against the note's linked entries. This is the only
// place where one entity's push mutates another.
func (s *Store) upsertNoteLocked(note domain.Note) {
	if i := s.noteIndexLocked(note.ID); i >= 0 {
		s.notes[i] = note
	} else {
		s.notes = append(s.notes, note)
	}
	s.reconcileNoteLinksLocked(note)
	s.sortLocked()
}

// removeEntryLocked drops an entry, strips it from every note's links, and
// clears the selection if it pointed at the entry.
func (s *Store) removeEntryLocked(id uint64) {
	if i := s.entryIndexLocked(id); i >= 0 {
		s.entries = append(s.entries[:i], s.entries[i+1:]...)
	}
	for i := range s.notes {
		s.notes[i].LinkedEntryIDs = removeID(s.notes[i].LinkedEntryIDs, id)
	}
	if s.selectedEntryID != nil && *s.selectedEntryID == id {
		s.selectedEntryID = nil
	}
}

// removeNoteLocked drops a note, strips its id from every entry's note_ids,
// and clears the selection if it pointed at the note.
func (s *Store) removeNoteLocked(id uint64) {
	if i := s.noteIndexLocked(id); i >= 0 {
		s.notes = append(s.notes[:i], s.notes[i+1:]...)
	}
	for i := range s.entries {
		s.entries[i].NoteIDs = removeID(s.entries[i].NoteIDs, id)
	}
	if s.selectedNoteID != nil && *s.selectedNoteID == id {
		s.selectedNoteID = nil
	}
}

// reconcileNoteLinksLocked makes each entry's note_ids agree with the note's
// linked_entry_ids: the note id is added where linked and removed where not.
// Entries already in agreement are left untouched.
func (s *Store) reconcileNoteLinksLocked(note domain.Note) {
	linked := make(map[uint64]bool, len(note.LinkedEntryIDs))
	for _, id := range note.LinkedEntryIDs {
		linked[id] = true
	}
	for i := range s.entries {
		entry := &s.entries[i]
		has := containsID(entry.NoteIDs, note.ID)
		switch {
		case linked[entry.ID] && !has:
			entry.NoteIDs = append(entry.NoteIDs, note.ID)
		case !linked[entry.ID] && has:
			entry.NoteIDs = removeID(entry.NoteIDs, note.ID)
		}
	}
}

func (s *Store) sortLocked() {
	domain.SortEntries(s.entries)
	domain.SortNotes(s.notes)
}

func (s *Store) entryIndexLocked(id uint64) int {
	for i, e := range s.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) noteIndexLocked(id uint64) int {
	for i, n := range s.notes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func containsID(ids []uint64, id uint64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// removeID filters id out of ids, returning the input untouched when absent.
func removeID(ids []uint64, id uint64) []uint64 {
	if !containsID(ids, id) {
		return ids
	}
	out := make([]uint64, 0, len(ids)-1)
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
