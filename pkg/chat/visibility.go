package chat

import (
	"strings"

	"github.com/taskdeck/taskdeck-go/pkg/domain"
)

// statusPrefixes are the pure progress lines the server inlines into the
// message stream. They drive loading affordances, never the transcript.
var statusPrefixes = []string{
	"processing iteration",
	"executing tool call",
	"tool execution results",
}

func isStatusLine(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return false
	}
	for _, p := range statusPrefixes {
		if strings.HasPrefix(t, p) {
			return true
		}
	}
	return false
}

// Suppressed reports whether a message is excluded from the visible log
// entirely. Raw frames are never discarded; suppression applies at render
// time only. A message survives if it carries audio or tool calls; otherwise
// it is dropped when its only text is a status line, or when it has neither
// text nor tool results.
func Suppressed(m domain.Message) bool {
	if m.Content.HasAudio() {
		return false
	}
	if len(domain.ParseToolCalls(m.ToolCallsJSON)) > 0 {
		return false
	}
	text := strings.TrimSpace(m.Content.Text)
	if text != "" {
		return isStatusLine(text)
	}
	return len(domain.ParseToolResults(m.ToolResultsJSON)) == 0
}

// DisplayText returns the text to render for a non-suppressed message. It is
// empty when the text is a status line, or when it is the literal "."
// placeholder anchoring a tool-only turn.
func DisplayText(m domain.Message) string {
	text := m.Content.Text
	if isStatusLine(text) {
		return ""
	}
	if strings.TrimSpace(text) == "." {
		if len(domain.ParseToolCalls(m.ToolCallsJSON)) > 0 ||
			len(domain.ParseToolResults(m.ToolResultsJSON)) > 0 {
			return ""
		}
	}
	return text
}
