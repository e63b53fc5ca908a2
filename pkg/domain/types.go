package domain

// Entry is a task tracked by the planner. IDs are assigned by the server and
// stable for the lifetime of the entry; the client never invents them.
type Entry struct {
	ID            uint64         `json:"id"`
	Title         string         `json:"title"`
	Summary       string         `json:"summary"`
	Description   string         `json:"description"`
	Project       *string        `json:"project"`
	Status        EntryStatus    `json:"status"`
	Timescale     EntryTimescale `json:"timescale"`
	Priority      EntryPriority  `json:"priority"`
	DueTS         *int64         `json:"due_ts"`
	StartTS       *int64         `json:"start_ts"`
	Dependencies  []uint64       `json:"dependencies"`
	NoteIDs       []uint64       `json:"note_ids"`
	Assignees     []string       `json:"assignees"`
	IsCompleted   bool           `json:"is_completed"`
	CompletedAtTS *int64         `json:"completed_at_ts"`
}

// EntryDraft is the request shape for creating or updating an entry.
// A nil ID creates; a set ID updates.
type EntryDraft struct {
	ID           *uint64       `json:"id"`
	Title        string        `json:"title"`
	Summary      string        `json:"summary"`
	Description  string        `json:"description"`
	Project      *string       `json:"project"`
	Status       EntryStatus   `json:"status"`
	Priority     EntryPriority `json:"priority"`
	DueTS        *int64        `json:"due_ts"`
	StartTS      *int64        `json:"start_ts"`
	Dependencies []uint64      `json:"dependencies"`
	NoteIDs      []uint64      `json:"note_ids"`
	Assignees    []string      `json:"assignees"`
}

// Note is a free-form text note, optionally linked to entries. The server
// keeps Note.LinkedEntryIDs and Entry.NoteIDs bidirectionally consistent;
// the client store mirrors that reconciliation on every note upsert.
type Note struct {
	ID             uint64   `json:"id"`
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	Pinned         bool     `json:"pinned"`
	Tags           []string `json:"tags"`
	LinkedEntryIDs []uint64 `json:"linked_entry_ids"`
	Summary        string   `json:"summary"`
	Accent         string   `json:"accent"`
	LastEditedTS   int64    `json:"last_edited_ts"`
}

// NoteDraft is the request shape for creating or updating a note.
type NoteDraft struct {
	ID             *uint64  `json:"id"`
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	Pinned         bool     `json:"pinned"`
	Tags           []string `json:"tags"`
	LinkedEntryIDs []uint64 `json:"linked_entry_ids"`
	Accent         *string  `json:"accent"`
}

// EntryStatus is the workflow state of an entry.
type EntryStatus string

const (
	StatusBacklog    EntryStatus = "Backlog"
	StatusUpNext     EntryStatus = "UpNext"
	StatusInProgress EntryStatus = "InProgress"
	StatusBlocked    EntryStatus = "Blocked"
	StatusReview     EntryStatus = "Review"
	StatusDone       EntryStatus = "Done"
	// StatusArchived is the soft-delete state; archived entries stay in the
	// collection but are excluded from active views by presentation.
	StatusArchived EntryStatus = "Archived"
)

// EntryPriority indicates urgency independent of due date.
type EntryPriority string

const (
	PriorityHigh   EntryPriority = "High"
	PriorityMedium EntryPriority = "Medium"
	PriorityLow    EntryPriority = "Low"
)

// EntryTimescale buckets an entry by due-date urgency. It is derived
// server-side from the due date and completion state; the client treats it as
// authoritative and only uses it for ordering.
type EntryTimescale string

const (
	TimescaleOverdue   EntryTimescale = "Overdue"
	TimescaleToday     EntryTimescale = "Today"
	TimescaleThisWeek  EntryTimescale = "ThisWeek"
	TimescaleThisMonth EntryTimescale = "ThisMonth"
	TimescaleLater     EntryTimescale = "Later"
	TimescaleSomeday   EntryTimescale = "Someday"
	TimescaleCompleted EntryTimescale = "Completed"
)

var timescaleRanks = map[EntryTimescale]int{
	TimescaleOverdue:   0,
	TimescaleToday:     1,
	TimescaleThisWeek:  2,
	TimescaleThisMonth: 3,
	TimescaleLater:     4,
	TimescaleSomeday:   5,
	TimescaleCompleted: 6,
}

// Rank returns the sort position of the timescale, lowest first. Unknown
// values rank after every known bucket so a new server-side bucket degrades
// to "last" rather than panicking.
func (t EntryTimescale) Rank() int {
	if r, ok := timescaleRanks[t]; ok {
		return r
	}
	return len(timescaleRanks)
}
