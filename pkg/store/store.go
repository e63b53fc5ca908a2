// Package store holds the authoritative client-side copy of entries and
// notes. Local optimistic mutations and inbound realtime pushes are routed
// through the same upsert/remove primitives, so there is one reconciliation
// algorithm regardless of origin.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/taskdeck/taskdeck-go/pkg/domain"
	"github.com/taskdeck/taskdeck-go/pkg/gateway"
	"github.com/taskdeck/taskdeck-go/pkg/transport"
	"github.com/taskdeck/taskdeck-go/pkg/wire"
)

// ErrNotFound is returned for mutations against ids absent from the store.
var ErrNotFound = errors.New("not found")

// Gateway is the slice of the RPC surface the store uses.
type Gateway interface {
	Bootstrap(ctx context.Context) (*gateway.Bootstrap, error)
	SaveEntry(ctx context.Context, draft domain.EntryDraft) (*domain.Entry, error)
	DeleteEntry(ctx context.Context, id uint64) (bool, error)
	ToggleEntryCompletion(ctx context.Context, id uint64, completed bool) (*domain.Entry, error)
	SaveNote(ctx context.Context, draft domain.NoteDraft) (*domain.Note, error)
	DeleteNote(ctx context.Context, id uint64) (bool, error)
	SearchAll(ctx context.Context, query string) (*gateway.SearchResult, error)
}

// Feed is the slice of the transport the store uses for realtime pushes.
type Feed interface {
	Send(v any) error
	AddHandler(h transport.Handler) int
	RemoveHandler(id int)
}

// Store is the entity sync store.
type Store struct {
	log *slog.Logger
	gw  Gateway

	mu              sync.Mutex
	entries         []domain.Entry
	notes           []domain.Note
	publicMode      bool
	selectedEntryID *uint64
	selectedNoteID  *uint64
	errMsg          string
	onUpdate        func()
	feed            Feed
	handle          int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithOnUpdate registers a callback invoked after every state change.
func WithOnUpdate(fn func()) Option {
	return func(s *Store) { s.onUpdate = fn }
}

// New creates a store backed by the given gateway.
func New(gw Gateway, opts ...Option) *Store {
	s := &Store{
		log: slog.Default(),
		gw:  gw,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attach subscribes the store to the realtime entity feed. Call Subscribe
// after (and on every reconnect of) the underlying connection.
func (s *Store) Attach(feed Feed) {
	s.mu.Lock()
	s.feed = feed
	s.mu.Unlock()
	handle := feed.AddHandler(s.handleFrame)
	s.mu.Lock()
	s.handle = handle
	s.mu.Unlock()
}

// Detach removes the store's feed handler.
func (s *Store) Detach() {
	s.mu.Lock()
	feed := s.feed
	handle := s.handle
	s.feed = nil
	s.mu.Unlock()
	if feed != nil {
		feed.RemoveHandler(handle)
	}
}

// Subscribe asks the feed for a fresh snapshot. Safe to call on every
// connection epoch; the answering snapshot replaces local collections.
func (s *Store) Subscribe() error {
	s.mu.Lock()
	feed := s.feed
	s.mu.Unlock()
	if feed == nil {
		return nil
	}
	return feed.Send(wire.FeedClientFrame{Type: wire.FeedSubscribe})
}

// Bootstrap replaces both collections with a full server snapshot.
func (s *Store) Bootstrap(ctx context.Context) error {
	snapshot, err := s.gw.Bootstrap(ctx)
	if err != nil {
		s.setError(err)
		return err
	}
	s.mu.Lock()
	s.replaceLocked(snapshot.Entries, snapshot.Notes)
	s.publicMode = snapshot.IsPublicMode
	s.mu.Unlock()
	s.notify()
	return nil
}

// SaveEntry sends the draft and upserts the canonical returned entry. The
// draft is never merged with the response; the server's shape is ground
// truth.
func (s *Store) SaveEntry(ctx context.Context, draft domain.EntryDraft) (*domain.Entry, error) {
	saved, err := s.gw.SaveEntry(ctx, draft)
	if err != nil {
		s.setError(err)
		return nil, err
	}
	s.mu.Lock()
	s.upsertEntryLocked(*saved)
	s.mu.Unlock()
	s.notify()
	return saved, nil
}

// SaveNote sends the draft and upserts the canonical returned note,
// reconciling every entry's note links against it.
func (s *Store) SaveNote(ctx context.Context, draft domain.NoteDraft) (*domain.Note, error) {
	saved, err := s.gw.SaveNote(ctx, draft)
	if err != nil {
		s.setError(err)
		return nil, err
	}
	s.mu.Lock()
	s.upsertNoteLocked(*saved)
	s.mu.Unlock()
	s.notify()
	return saved, nil
}

// ToggleEntryCompletion flips completion optimistically, rebucketing the
// entry's timescale locally so it moves to its new position before the RPC
// resolves. The canonical server entry replaces the optimistic shape on
// success; on failure the captured prior entry is restored exactly.
func (s *Store) ToggleEntryCompletion(ctx context.Context, id uint64, completed bool) error {
	now := time.Now()
	s.mu.Lock()
	idx := s.entryIndexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	prev := s.entries[idx]
	s.entries[idx].IsCompleted = completed
	if completed {
		completedAt := now.UnixMilli()
		s.entries[idx].CompletedAtTS = &completedAt
	} else {
		s.entries[idx].CompletedAtTS = nil
	}
	s.entries[idx].Timescale = domain.ComputeTimescale(s.entries[idx].DueTS, completed, now)
	s.sortLocked()
	s.mu.Unlock()
	s.notify()

	saved, err := s.gw.ToggleEntryCompletion(ctx, id, completed)
	if err != nil {
		s.mu.Lock()
		if i := s.entryIndexLocked(id); i >= 0 {
			s.entries[i] = prev
			s.sortLocked()
		}
		s.errMsg = err.Error()
		s.mu.Unlock()
		s.notify()
		return err
	}
	s.mu.Lock()
	s.upsertEntryLocked(*saved)
	s.mu.Unlock()
	s.notify()
	return nil
}

// ArchiveEntry optimistically flips the entry to Archived before the RPC
// resolves, then upserts the canonical server entry on success. On RPC
// failure the captured prior status is restored exactly.
func (s *Store) ArchiveEntry(ctx context.Context, id uint64) error {
	s.mu.Lock()
	idx := s.entryIndexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	prev := s.entries[idx].Status
	s.entries[idx].Status = domain.StatusArchived
	draft := entryDraft(s.entries[idx])
	s.sortLocked()
	s.mu.Unlock()
	s.notify()

	saved, err := s.gw.SaveEntry(ctx, draft)
	if err != nil {
		s.mu.Lock()
		if i := s.entryIndexLocked(id); i >= 0 {
			s.entries[i].Status = prev
			s.sortLocked()
		}
		s.errMsg = err.Error()
		s.mu.Unlock()
		s.notify()
		return err
	}
	s.mu.Lock()
	s.upsertEntryLocked(*saved)
	s.mu.Unlock()
	s.notify()
	return nil
}

// DeleteEntry removes the entry via RPC, then locally. Selection is cleared
// if the deleted entry was selected.
func (s *Store) DeleteEntry(ctx context.Context, id uint64) error {
	if _, err := s.gw.DeleteEntry(ctx, id); err != nil {
		s.setError(err)
		return err
	}
	s.mu.Lock()
	s.removeEntryLocked(id)
	s.mu.Unlock()
	s.notify()
	return nil
}

// DeleteNote removes the note via RPC, then locally, stripping its id from
// every entry's note links. Selection is cleared if it pointed at the note.
func (s *Store) DeleteNote(ctx context.Context, id uint64) error {
	if _, err := s.gw.DeleteNote(ctx, id); err != nil {
		s.setError(err)
		return err
	}
	s.mu.Lock()
	s.removeNoteLocked(id)
	s.mu.Unlock()
	s.notify()
	return nil
}

// Search queries the server without mutating local state.
func (s *Store) Search(ctx context.Context, query string) (*gateway.SearchResult, error) {
	result, err := s.gw.SearchAll(ctx, query)
	if err != nil {
		s.setError(err)
		return nil, err
	}
	return result, nil
}

// ApplyPush folds one realtime push frame into the store using the same
// primitives as the local mutation paths.
func (s *Store) ApplyPush(frame wire.PushFrame) {
	s.mu.Lock()
	switch {
	case frame.Snapshot != nil:
		s.replaceLocked(frame.Snapshot.Entries, frame.Snapshot.Notes)
	case frame.EntryUpdated != nil:
		s.upsertEntryLocked(frame.EntryUpdated.Entry)
	case frame.EntryRemoved != nil:
		s.removeEntryLocked(frame.EntryRemoved.EntryID)
	case frame.NoteUpdated != nil:
		s.upsertNoteLocked(frame.NoteUpdated.Note)
	case frame.NoteRemoved != nil:
		s.removeNoteLocked(frame.NoteRemoved.NoteID)
	}
	s.mu.Unlock()
	s.notify()
}

// handleFrame is the transport handler for the entity feed. Frames outside
// the push vocabulary are dropped silently.
func (s *Store) handleFrame(raw json.RawMessage) {
	frame, err := wire.ParsePushFrame(raw)
	if err != nil {
		s.log.Debug("Ignoring non-push frame", "error", err)
		return
	}
	s.ApplyPush(frame)
}

// --- Selection ---

// SelectEntry marks an entry as selected.
func (s *Store) SelectEntry(id uint64) {
	s.mu.Lock()
	s.selectedEntryID = &id
	s.mu.Unlock()
	s.notify()
}

// SelectNote marks a note as selected.
func (s *Store) SelectNote(id uint64) {
	s.mu.Lock()
	s.selectedNoteID = &id
	s.mu.Unlock()
	s.notify()
}

// SelectedEntryID returns the selected entry id, or nil.
func (s *Store) SelectedEntryID() *uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedEntryID
}

// SelectedNoteID returns the selected note id, or nil.
func (s *Store) SelectedNoteID() *uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedNoteID
}

// --- Read model ---

// Entries returns a copy of the entry collection in display order.
func (s *Store) Entries() []domain.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Notes returns a copy of the note collection in display order.
func (s *Store) Notes() []domain.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Note, len(s.notes))
	copy(out, s.notes)
	return out
}

// PublicMode reports the server's public-mode flag from bootstrap.
func (s *Store) PublicMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.publicMode
}

// Err returns the current user-visible error message, if any.
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// ClearError dismisses the current error message.
func (s *Store) ClearError() {
	s.mu.Lock()
	s.errMsg = ""
	s.mu.Unlock()
	s.notify()
}

func (s *Store) setError(err error) {
	s.mu.Lock()
	s.errMsg = err.Error()
	s.mu.Unlock()
	s.notify()
}

func (s *Store) notify() {
	if s.onUpdate != nil {
		s.onUpdate()
	}
}

// entryDraft rebuilds the request shape from a stored entry, for mutations
// that round-trip an existing entity (archive).
func entryDraft(e domain.Entry) domain.EntryDraft {
	id := e.ID
	return domain.EntryDraft{
		ID:           &id,
		Title:        e.Title,
		Summary:      e.Summary,
		Description:  e.Description,
		Project:      e.Project,
		Status:       e.Status,
		Priority:     e.Priority,
		DueTS:        e.DueTS,
		StartTS:      e.StartTS,
		Dependencies: e.Dependencies,
		NoteIDs:      e.NoteIDs,
		Assignees:    e.Assignees,
	}
}
