// Package gateway is the request/response RPC surface of the server:
// authenticated mutations returning canonical entities, session endpoints,
// and the HTTP fallback for the chat path.
package gateway

import (
	"context"

	"github.com/taskdeck/taskdeck-go/pkg/domain"
	"github.com/taskdeck/taskdeck-go/pkg/wire"
)

// Bootstrap is the full application snapshot.
type Bootstrap struct {
	Entries      []domain.Entry `json:"entries"`
	Notes        []domain.Note  `json:"notes"`
	IsPublicMode bool           `json:"is_public_mode"`
}

// SearchResult holds entries and notes matching a query.
type SearchResult struct {
	Entries []domain.Entry `json:"entries"`
	Notes   []domain.Note  `json:"notes"`
}

// SessionInfo is the result of opening an assistant session.
type SessionInfo struct {
	APIKey string `json:"api_key"`
}

// SessionStatus reports assistant session availability.
type SessionStatus struct {
	Connected       bool `json:"connected"`
	HasAPIKey       bool `json:"has_api_key"`
	SpiderAvailable bool `json:"spider_available"`
}

// Gateway is the RPC surface the client consumes. Mutations return the
// canonical server entity, which callers upsert verbatim; drafts are never
// merged with responses.
type Gateway interface {
	Bootstrap(ctx context.Context) (*Bootstrap, error)
	SaveEntry(ctx context.Context, draft domain.EntryDraft) (*domain.Entry, error)
	DeleteEntry(ctx context.Context, id uint64) (bool, error)
	ToggleEntryCompletion(ctx context.Context, id uint64, completed bool) (*domain.Entry, error)
	SaveNote(ctx context.Context, draft domain.NoteDraft) (*domain.Note, error)
	DeleteNote(ctx context.Context, id uint64) (bool, error)
	SearchAll(ctx context.Context, query string) (*SearchResult, error)

	ConnectSession(ctx context.Context, forceNew bool) (*SessionInfo, error)
	Status(ctx context.Context) (*SessionStatus, error)
	MCPServers(ctx context.Context, apiKey string) ([]wire.MCPServer, error)
	Chat(ctx context.Context, payload wire.ChatPayload) (*wire.ChatCompleteFrame, error)
}
