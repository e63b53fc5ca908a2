package chat

import (
	"github.com/taskdeck/taskdeck-go/pkg/domain"
	"github.com/taskdeck/taskdeck-go/pkg/wire"
)

// applyDeltaLocked folds one stream frame into the conversation. This is an
// append-only reducer over the last element: when the last message is not an
// assistant turn a new one is seeded from the frame, otherwise the delta
// merges into the last message and no earlier element is ever touched.
func (s *Session) applyDeltaLocked(frame *wire.StreamFrame) {
	delta := frame.Message.Content

	if n := len(s.messages); n == 0 || s.messages[n-1].Role != domain.RoleAssistant {
		seeded := wire.DecodeMessage(frame.Message)
		seeded.Role = domain.RoleAssistant
		seeded.Hidden = false
		if frame.ToolCalls != "" {
			seeded.ToolCallsJSON = frame.ToolCalls
		}
		seeded.Timestamp = s.nextTSLocked()
		s.messages = append(s.messages, seeded)
		s.updatePlacementsLocked()
		return
	}

	last := &s.messages[len(s.messages)-1]

	// An audio-only delta would clobber streamed prose; park the current
	// text first, once, so the user never loses it.
	if delta.HasAudio() && delta.Text == nil &&
		last.Content.Text != "" && last.PreservedText == "" {
		last.PreservedText = last.Content.Text
	}

	// Apply each field present in the delta; absent fields stay untouched.
	if delta.Text != nil {
		last.Content.Text = *delta.Text
	}
	if delta.BaseSixFourAudio != nil {
		last.Content.AudioB64 = *delta.BaseSixFourAudio
	}
	if len(delta.Audio) > 0 {
		last.Content.Audio = delta.Audio
	}
	if frame.ToolCalls != "" {
		last.ToolCallsJSON = frame.ToolCalls
	}
	if frame.Message.ToolResults != "" {
		last.ToolResultsJSON = frame.Message.ToolResults
	}

	s.updatePlacementsLocked()
}

// appendWireLocked appends one complete message from a message frame.
func (s *Session) appendWireLocked(m wire.Message) {
	decoded := wire.DecodeMessage(m)
	decoded.Timestamp = s.nextTSLocked()
	s.messages = append(s.messages, decoded)
	s.updatePlacementsLocked()
}

// applyCompleteLocked handles a terminal chat_complete payload, arriving over
// the socket or as the resolved request path value. When the payload carries
// the authoritative transcript, everything from the most recent user turn
// onward (including locally-buffered streaming deltas) is replaced by it.
func (s *Session) applyCompleteLocked(payload *wire.ChatCompleteFrame) {
	if payload == nil {
		s.loading = false
		return
	}

	if len(payload.AllMessages) > 0 {
		idx := -1
		for i := len(s.messages) - 1; i >= 0; i-- {
			if s.messages[i].Role == domain.RoleUser {
				idx = i
				break
			}
		}
		if idx >= 0 {
			s.messages = s.messages[:idx]
		} else {
			s.messages = s.messages[:0]
		}
		for _, wm := range payload.AllMessages {
			decoded := wire.DecodeMessage(wm)
			decoded.Timestamp = s.nextTSLocked()
			s.messages = append(s.messages, decoded)
		}
	} else if payload.Response != nil {
		decoded := wire.DecodeMessage(*payload.Response)
		decoded.Timestamp = s.nextTSLocked()
		s.messages = append(s.messages, decoded)
	}

	if payload.APIKey != "" {
		s.apiKey = payload.APIKey
	}

	s.loading = false
	s.status = ""
	s.updatePlacementsLocked()
}

// updatePlacementsLocked recomputes the tool-call placement map. A call is
// placed at the first message index where it appears and marked resolved once
// any result references its id; the placement index never moves afterwards.
func (s *Session) updatePlacementsLocked() {
	placements := make(map[string]Placement)
	for i, m := range s.messages {
		for _, tc := range domain.ParseToolCalls(m.ToolCallsJSON) {
			if _, ok := placements[tc.ID]; !ok {
				placements[tc.ID] = Placement{Index: i}
			}
		}
		for _, tr := range domain.ParseToolResults(m.ToolResultsJSON) {
			if p, ok := placements[tr.ToolCallID]; ok {
				p.Resolved = true
				placements[tr.ToolCallID] = p
			}
		}
	}
	s.placements = placements
}
