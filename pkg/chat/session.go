// Package chat folds inbound assistant frames into a single growing
// conversation. Frames arrive either incrementally over the transport or
// atomically as the HTTP fallback response; both paths feed one reducer, so
// the conversation shape does not depend on the delivery route.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck-go/pkg/domain"
	"github.com/taskdeck/taskdeck-go/pkg/gateway"
	"github.com/taskdeck/taskdeck-go/pkg/transport"
	"github.com/taskdeck/taskdeck-go/pkg/wire"
)

// Conn is the slice of the transport the session uses.
type Conn interface {
	Connect(ctx context.Context) error
	Authenticate(ctx context.Context, apiKey string) error
	Send(v any) error
	AddHandler(h transport.Handler) int
	RemoveHandler(id int)
	Ready() bool
}

// Gateway is the slice of the RPC surface the session uses: session
// bootstrap plus the request/response chat path.
type Gateway interface {
	ConnectSession(ctx context.Context, forceNew bool) (*gateway.SessionInfo, error)
	MCPServers(ctx context.Context, apiKey string) ([]wire.MCPServer, error)
	Chat(ctx context.Context, payload wire.ChatPayload) (*wire.ChatCompleteFrame, error)
}

// Placement records where a tool call first appeared in the conversation and
// whether some result has referenced it since. Rendering shows each call
// exactly once at its original index even when the result physically arrives
// on a later message.
type Placement struct {
	Index    int
	Resolved bool
}

// Session is the conversation assembler.
type Session struct {
	log  *slog.Logger
	conn Conn
	gw   Gateway

	mu             sync.Mutex
	conversationID string
	apiKey         string
	llmProvider    string
	model          string
	mcpServers     []wire.MCPServer
	messages       []domain.Message
	placements     map[string]Placement
	lastTS         int64
	loading        bool
	status         string
	errMsg         string
	rateLimit      *wire.RateLimitError
	fallback       bool
	handle         int
	attached       bool
	onUpdate       func()
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Session) { s.log = log }
}

// WithModel selects the provider and model sent on chat payloads.
func WithModel(provider, model string) Option {
	return func(s *Session) { s.llmProvider = provider; s.model = model }
}

// WithOnUpdate registers a callback invoked after every state change, for
// presentation to re-read the session.
func WithOnUpdate(fn func()) Option {
	return func(s *Session) { s.onUpdate = fn }
}

// New creates a session over the given transport and gateway. A nil conn
// starts the session in the request/response path permanently.
func New(conn Conn, gw Gateway, opts ...Option) *Session {
	s := &Session{
		log:            slog.Default(),
		conn:           conn,
		gw:             gw,
		conversationID: uuid.New().String(),
		placements:     make(map[string]Placement),
	}
	for _, opt := range opts {
		opt(s)
	}
	if conn == nil {
		s.fallback = true
	} else {
		s.handle = conn.AddHandler(s.handleFrame)
		s.attached = true
	}
	return s
}

// Close detaches the session from the transport. It does not close the
// transport itself, which may carry other feeds.
func (s *Session) Close() {
	s.mu.Lock()
	attached := s.attached
	handle := s.handle
	s.attached = false
	s.mu.Unlock()
	if attached {
		s.conn.RemoveHandler(handle)
	}
}

// Start opens the assistant session: obtains a credential, connects and
// authenticates the socket, and loads the tool-server list. Socket or auth
// failure is not fatal; the session downgrades to the request/response path
// for its remaining lifetime.
func (s *Session) Start(ctx context.Context) error {
	info, err := s.gw.ConnectSession(ctx, false)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.apiKey = info.APIKey
	s.mu.Unlock()

	if servers, err := s.gw.MCPServers(ctx, info.APIKey); err == nil {
		s.mu.Lock()
		s.mcpServers = servers
		s.mu.Unlock()
	}

	if s.conn == nil {
		return nil
	}
	if err := s.conn.Connect(ctx); err != nil {
		s.log.Warn("Socket connect failed, using request path", "error", err)
		s.setFallback()
		return nil
	}
	if err := s.conn.Authenticate(ctx, info.APIKey); err != nil {
		s.log.Warn("Socket auth failed, using request path", "error", err)
		s.setFallback()
		return nil
	}
	return nil
}

// Send appends a user turn (priming the conversation first if it is empty)
// and delivers it over the socket when ready, else over the request path.
// A socket send failure downgrades the session to the request path for good.
func (s *Session) Send(ctx context.Context, text string) error {
	s.mu.Lock()
	s.errMsg = ""
	s.rateLimit = nil
	s.status = ""
	s.loading = true
	if len(s.messages) == 0 {
		for _, m := range primingMessages() {
			m.Timestamp = s.nextTSLocked()
			s.messages = append(s.messages, m)
		}
	}
	s.messages = append(s.messages, domain.Message{
		Role:      domain.RoleUser,
		Content:   domain.Content{Text: text},
		Timestamp: s.nextTSLocked(),
	})
	payload := s.payloadLocked()
	useSocket := !s.fallback && s.conn != nil && s.conn.Ready()
	s.mu.Unlock()
	s.notify()

	if useSocket {
		err := s.conn.Send(wire.ChatFrame{Type: wire.TypeChat, Payload: payload})
		if err == nil {
			return nil
		}
		s.log.Warn("Socket send failed, falling back to request path", "error", err)
		s.setFallback()
	}

	result, err := s.gw.Chat(ctx, payload)
	if err != nil {
		s.fail(err)
		return err
	}
	s.mu.Lock()
	s.applyCompleteLocked(result)
	s.mu.Unlock()
	s.notify()
	return nil
}

// Cancel clears the local loading state immediately and sends a cancel frame
// when the socket is ready. It never waits for server acknowledgement.
func (s *Session) Cancel() {
	s.mu.Lock()
	useSocket := !s.fallback && s.conn != nil && s.conn.Ready()
	s.loading = false
	s.status = ""
	s.mu.Unlock()

	if useSocket {
		if err := s.conn.Send(wire.ControlFrame{Type: wire.TypeCancel}); err != nil {
			s.log.Debug("Cancel frame not sent", "error", err)
		}
	}
	s.notify()
}

// handleFrame is the transport handler. Frames outside the chat vocabulary
// are dropped silently; the same socket may carry other feeds.
func (s *Session) handleFrame(raw json.RawMessage) {
	frame, err := wire.ParseServerFrame(raw)
	if err != nil {
		s.log.Debug("Ignoring non-chat frame", "error", err)
		return
	}

	s.mu.Lock()
	switch frame.Type {
	case wire.FrameStream:
		s.applyDeltaLocked(frame.Stream)
	case wire.FrameMessage:
		s.appendWireLocked(frame.Message.Message)
	case wire.FrameStatus:
		s.status = frame.Status.Status
	case wire.FrameChatComplete:
		s.applyCompleteLocked(frame.ChatComplete)
	case wire.FrameError:
		s.loading = false
		if rl, ok := frame.Error.RateLimit(); ok {
			s.rateLimit = rl
		} else {
			s.errMsg = frame.Error.Text()
		}
	case wire.FrameAuthSuccess, wire.FrameAuthError, wire.FramePong:
		// Transport-level; nothing to fold into the conversation.
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Session) payloadLocked() wire.ChatPayload {
	messages := make([]wire.Message, len(s.messages))
	for i, m := range s.messages {
		messages[i] = wire.EncodeMessage(m)
	}
	return wire.ChatPayload{
		Messages:       messages,
		LLMProvider:    s.llmProvider,
		Model:          s.model,
		MCPServers:     s.mcpServers,
		ConversationID: s.conversationID,
	}
}

func (s *Session) setFallback() {
	s.mu.Lock()
	s.fallback = true
	s.mu.Unlock()
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	s.loading = false
	var rl *wire.RateLimitError
	if errors.As(err, &rl) {
		s.rateLimit = rl
	} else {
		s.errMsg = err.Error()
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Session) notify() {
	if s.onUpdate != nil {
		s.onUpdate()
	}
}

// nextTSLocked produces the next message timestamp, strictly increasing
// within the session even when the clock does not advance between events.
func (s *Session) nextTSLocked() int64 {
	now := time.Now().UnixMilli()
	if now <= s.lastTS {
		now = s.lastTS + 1
	}
	s.lastTS = now
	return now
}

// --- Read model ---

// Messages returns a copy of the full conversation, hidden turns included.
func (s *Session) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Visible returns the user-visible conversation: hidden priming turns and
// suppressed status-only turns are excluded.
func (s *Session) Visible() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Message
	for _, m := range s.messages {
		if m.Hidden || Suppressed(m) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Placements returns the tool-call placement map keyed by call id.
func (s *Session) Placements() map[string]Placement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Placement, len(s.placements))
	for id, p := range s.placements {
		out[id] = p
	}
	return out
}

// Loading reports whether a chat request is in flight.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Status returns the most recent progress status line, if any.
func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Err returns the current user-visible error message, if any.
func (s *Session) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// RateLimit returns the active rate-limit condition, if any.
func (s *Session) RateLimit() *wire.RateLimitError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rateLimit
}

// Fallback reports whether the session has downgraded to the request path.
// The downgrade is one-way for the lifetime of the session.
func (s *Session) Fallback() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fallback
}

// ConversationID returns the session's conversation id.
func (s *Session) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// APIKey returns the current credential, including any refresh received on a
// completion payload.
func (s *Session) APIKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apiKey
}
