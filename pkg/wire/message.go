// Package wire defines the frame vocabularies exchanged with the server: the
// type-tagged frames of the persistent assistant connection and the
// externally-tagged push frames of the realtime entity feed. Parsing is
// strict about the tag and lenient about everything else; a malformed frame
// is an error for the caller to log and drop, never a panic.
package wire

import "github.com/taskdeck/taskdeck-go/pkg/domain"

// Content is the tagged wire shape of message content. Outbound messages set
// exactly one variant; inbound stream deltas may carry any subset, and absent
// fields leave the in-memory content untouched.
type Content struct {
	Text             *string `json:"Text,omitempty"`
	BaseSixFourAudio *string `json:"BaseSixFourAudio,omitempty"`
	Audio            []byte  `json:"Audio,omitempty"`
}

// HasAudio reports whether the delta carries audio in either encoding.
func (c Content) HasAudio() bool {
	return c.BaseSixFourAudio != nil || len(c.Audio) > 0
}

// Message is the wire shape of a conversation message.
type Message struct {
	Role        string  `json:"role"`
	Content     Content `json:"content"`
	ToolCalls   string  `json:"tool_calls,omitempty"`
	ToolResults string  `json:"tool_results,omitempty"`
	Hidden      bool    `json:"hidden,omitempty"`
	Timestamp   int64   `json:"timestamp,omitempty"`
}

// EncodeMessage converts an in-memory message to its wire shape. The
// flattened content collapses to the tagged form: text wins if present,
// then encoded audio, then raw audio.
func EncodeMessage(m domain.Message) Message {
	w := Message{
		Role:        string(m.Role),
		ToolCalls:   m.ToolCallsJSON,
		ToolResults: m.ToolResultsJSON,
		Hidden:      m.Hidden,
		Timestamp:   m.Timestamp,
	}
	switch {
	case m.Content.Text != "":
		text := m.Content.Text
		w.Content.Text = &text
	case m.Content.AudioB64 != "":
		b64 := m.Content.AudioB64
		w.Content.BaseSixFourAudio = &b64
	case len(m.Content.Audio) > 0:
		w.Content.Audio = m.Content.Audio
	}
	return w
}

// DecodeMessage converts a wire message to the flattened in-memory shape.
func DecodeMessage(w Message) domain.Message {
	m := domain.Message{
		Role:            domain.Role(w.Role),
		ToolCallsJSON:   w.ToolCalls,
		ToolResultsJSON: w.ToolResults,
		Hidden:          w.Hidden,
		Timestamp:       w.Timestamp,
	}
	if w.Content.Text != nil {
		m.Content.Text = *w.Content.Text
	}
	if w.Content.BaseSixFourAudio != nil {
		m.Content.AudioB64 = *w.Content.BaseSixFourAudio
	}
	if len(w.Content.Audio) > 0 {
		m.Content.Audio = w.Content.Audio
	}
	return m
}
