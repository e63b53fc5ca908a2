package wire

import (
	"encoding/json"
	"fmt"
)

// Client frame types on the persistent connection.
const (
	TypeAuth   = "auth"
	TypeChat   = "chat"
	TypeCancel = "cancel"
	TypePing   = "ping"
)

// AuthFrame authenticates the connection.
type AuthFrame struct {
	Type   string `json:"type"`
	APIKey string `json:"apiKey"`
}

// ChatFrame carries a chat request over the socket. The same payload shape is
// posted to the HTTP fallback endpoint.
type ChatFrame struct {
	Type    string      `json:"type"`
	Payload ChatPayload `json:"payload"`
}

// ControlFrame is a bodyless client frame (cancel, ping).
type ControlFrame struct {
	Type string `json:"type"`
}

// ChatPayload is the chat request body.
type ChatPayload struct {
	Messages       []Message      `json:"messages"`
	LLMProvider    string         `json:"llmProvider,omitempty"`
	Model          string         `json:"model,omitempty"`
	MCPServers     []MCPServer    `json:"mcpServers,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	ConversationID string         `json:"conversationId,omitempty"`
}

// MCPServer describes a tool server made available to the assistant.
type MCPServer struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Server frame types on the persistent connection.
type FrameType string

const (
	FrameAuthSuccess  FrameType = "auth_success"
	FrameAuthError    FrameType = "auth_error"
	FrameStatus       FrameType = "status"
	FrameStream       FrameType = "stream"
	FrameMessage      FrameType = "message"
	FrameChatComplete FrameType = "chat_complete"
	FrameError        FrameType = "error"
	FramePong         FrameType = "pong"
)

// ServerFrame is the decoded form of one inbound frame. Exactly one body
// field matching Type is set; Pong has no body.
type ServerFrame struct {
	Type         FrameType
	AuthSuccess  *AuthSuccessFrame
	AuthError    *AuthErrorFrame
	Status       *StatusFrame
	Stream       *StreamFrame
	Message      *MessageFrame
	ChatComplete *ChatCompleteFrame
	Error        *ErrorFrame
}

// AuthSuccessFrame acknowledges authentication.
type AuthSuccessFrame struct {
	Message string `json:"message"`
}

// AuthErrorFrame rejects authentication with a server-supplied reason.
type AuthErrorFrame struct {
	Error string `json:"error"`
}

// StatusFrame is a progress ping while a chat request runs.
type StatusFrame struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// StreamFrame is a partial update to the in-progress assistant turn. ToolCalls
// at the frame level, when present, replaces the turn's tool-call list.
type StreamFrame struct {
	Iteration int     `json:"iteration"`
	Message   Message `json:"message"`
	ToolCalls string  `json:"tool_calls,omitempty"`
}

// MessageFrame delivers one complete message.
type MessageFrame struct {
	Message Message `json:"message"`
}

// ChatCompleteFrame terminates a chat request. AllMessages, when present, is
// the authoritative transcript from the most recent user turn onward;
// otherwise Response is the single message to append. A non-empty APIKey is a
// refreshed credential replacing the session's stored one.
type ChatCompleteFrame struct {
	Response    *Message  `json:"response,omitempty"`
	AllMessages []Message `json:"allMessages,omitempty"`
	APIKey      string    `json:"apiKey,omitempty"`
}

// ErrorFrame reports a request failure. The body may be a bare string or a
// structured object (see RateLimit).
type ErrorFrame struct {
	Error json.RawMessage `json:"error"`
}

// Text extracts a human-readable error string from the frame body.
func (f *ErrorFrame) Text() string {
	var s string
	if err := json.Unmarshal(f.Error, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(f.Error, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	return string(f.Error)
}

// RateLimit reports whether the error body matches the structured rate-limit
// shape, and returns it if so.
func (f *ErrorFrame) RateLimit() (*RateLimitError, bool) {
	return ParseRateLimit(f.Error)
}

// ParseServerFrame decodes one inbound frame from the persistent connection.
// Unknown or missing type tags are an error; callers log and drop such
// frames.
func ParseServerFrame(data []byte) (ServerFrame, error) {
	var envelope struct {
		Type FrameType `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return ServerFrame{}, fmt.Errorf("decoding frame envelope: %w", err)
	}

	frame := ServerFrame{Type: envelope.Type}
	var body any

	switch envelope.Type {
	case FrameAuthSuccess:
		frame.AuthSuccess = &AuthSuccessFrame{}
		body = frame.AuthSuccess
	case FrameAuthError:
		frame.AuthError = &AuthErrorFrame{}
		body = frame.AuthError
	case FrameStatus:
		frame.Status = &StatusFrame{}
		body = frame.Status
	case FrameStream:
		frame.Stream = &StreamFrame{}
		body = frame.Stream
	case FrameMessage:
		frame.Message = &MessageFrame{}
		body = frame.Message
	case FrameChatComplete:
		frame.ChatComplete = &ChatCompleteFrame{}
		body = &struct {
			Payload *ChatCompleteFrame `json:"payload"`
		}{Payload: frame.ChatComplete}
	case FrameError:
		frame.Error = &ErrorFrame{}
		body = frame.Error
	case FramePong:
		return frame, nil
	default:
		return ServerFrame{}, fmt.Errorf("unknown frame type %q", envelope.Type)
	}

	if err := json.Unmarshal(data, body); err != nil {
		return ServerFrame{}, fmt.Errorf("decoding %s frame: %w", envelope.Type, err)
	}
	return frame, nil
}
