package wire

import (
	"encoding/json"
	"fmt"

	"github.com/taskdeck/taskdeck-go/pkg/domain"
)

// PushFrame is one inbound frame on the realtime entity feed, externally
// tagged: exactly one field is non-nil.
type PushFrame struct {
	Snapshot     *SnapshotPush     `json:"snapshot,omitempty"`
	EntryUpdated *EntryUpdatedPush `json:"entryUpdated,omitempty"`
	EntryRemoved *EntryRemovedPush `json:"entryRemoved,omitempty"`
	NoteUpdated  *NoteUpdatedPush  `json:"noteUpdated,omitempty"`
	NoteRemoved  *NoteRemovedPush  `json:"noteRemoved,omitempty"`
}

// SnapshotPush replaces the full entry/note collections.
type SnapshotPush struct {
	Entries []domain.Entry `json:"entries"`
	Notes   []domain.Note  `json:"notes"`
}

// EntryUpdatedPush upserts one entry.
type EntryUpdatedPush struct {
	Entry domain.Entry `json:"entry"`
}

// EntryRemovedPush removes one entry by id.
type EntryRemovedPush struct {
	EntryID uint64 `json:"entryId"`
}

// NoteUpdatedPush upserts one note.
type NoteUpdatedPush struct {
	Note domain.Note `json:"note"`
}

// NoteRemovedPush removes one note by id.
type NoteRemovedPush struct {
	NoteID uint64 `json:"noteId"`
}

// ParsePushFrame decodes one entity-feed frame, requiring exactly one tag.
func ParsePushFrame(data []byte) (PushFrame, error) {
	var frame PushFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return PushFrame{}, fmt.Errorf("decoding push frame: %w", err)
	}

	tags := 0
	for _, set := range []bool{
		frame.Snapshot != nil,
		frame.EntryUpdated != nil,
		frame.EntryRemoved != nil,
		frame.NoteUpdated != nil,
		frame.NoteRemoved != nil,
	} {
		if set {
			tags++
		}
	}
	if tags != 1 {
		return PushFrame{}, fmt.Errorf("push frame carries %d tags, want 1", tags)
	}
	return frame, nil
}

// Client messages on the entity feed.
const (
	FeedSubscribe = "subscribe"
	FeedPing      = "ping"
)

// FeedClientFrame is an outbound entity-feed message. Subscribe is answered
// with a fresh snapshot, so every connection epoch starts from known state.
type FeedClientFrame struct {
	Type string `json:"type"`
}
