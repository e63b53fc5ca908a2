package domain

import "encoding/json"

// Role defines the sender of a conversation message.
type Role string

const (
	// RoleUser indicates a message from the user.
	RoleUser Role = "user"
	// RoleAssistant indicates a message from the model/assistant.
	RoleAssistant Role = "assistant"
)

// Content is the flattened in-memory content of a message. On the wire the
// content is a tagged object carrying exactly one variant; in memory all
// fields coexist so streaming deltas can update them independently.
type Content struct {
	Text     string
	AudioB64 string
	Audio    []byte
}

// HasAudio reports whether the content carries audio in either encoding.
func (c Content) HasAudio() bool {
	return c.AudioB64 != "" || len(c.Audio) > 0
}

// Message is one turn of the conversation. The timestamp doubles as message
// identity and is strictly increasing within a session; the assembler only
// ever appends or replaces the last element, never reorders.
type Message struct {
	Role    Role
	Content Content

	// ToolCallsJSON and ToolResultsJSON hold the serialized tool-call and
	// tool-result lists as received; malformed JSON degrades to an empty
	// list at parse time rather than failing the render.
	ToolCallsJSON   string
	ToolResultsJSON string

	Timestamp int64

	// Hidden messages prime assistant context and are excluded from
	// user-visible rendering.
	Hidden bool

	// PreservedText holds the last textual content before an audio-only
	// delta overwrote it, so assistant prose survives audio updates.
	PreservedText string
}

// ToolCall represents a tool invocation by the assistant.
type ToolCall struct {
	ID         string          `json:"id"`
	ToolName   string          `json:"tool_name"`
	Parameters json.RawMessage `json:"parameters"`
}

// ToolResult represents the outcome of a tool call execution.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Result     string `json:"result"`
}

// ParseToolCalls decodes a serialized tool-call list. Empty or malformed
// input yields nil.
func ParseToolCalls(s string) []ToolCall {
	if s == "" {
		return nil
	}
	var calls []ToolCall
	if err := json.Unmarshal([]byte(s), &calls); err != nil {
		return nil
	}
	return calls
}

// ParseToolResults decodes a serialized tool-result list. Empty or malformed
// input yields nil.
func ParseToolResults(s string) []ToolResult {
	if s == "" {
		return nil
	}
	var results []ToolResult
	if err := json.Unmarshal([]byte(s), &results); err != nil {
		return nil
	}
	return results
}
