package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskdeck/taskdeck-go/pkg/domain"
)

const (
	sampleCalls   = `[{"id":"tc1","tool_name":"save_entry","parameters":{}}]`
	sampleResults = `[{"tool_call_id":"tc1","result":"ok"}]`
)

func msg(text string) domain.Message {
	return domain.Message{Role: domain.RoleAssistant, Content: domain.Content{Text: text}}
}

func TestSuppressed(t *testing.T) {
	tests := []struct {
		name string
		m    domain.Message
		want bool
	}{
		{"plain text", msg("here is the plan"), false},
		{"status line", msg("Processing iteration 3 of 5"), true},
		{"status line lowercase", msg("executing tool call save_entry"), true},
		{"status results line", msg("Tool execution results attached"), true},
		{"status prefix mid-sentence survives", msg("The processing iteration count is 3"), false},
		{"empty", msg(""), true},
		{"whitespace only", msg("   "), true},
		{"empty with results", domain.Message{
			Content:         domain.Content{},
			ToolResultsJSON: sampleResults,
		}, false},
		{"status text but audio survives", domain.Message{
			Content: domain.Content{Text: "processing iteration 1", AudioB64: "QUJD"},
		}, false},
		{"status text but tool calls survive", domain.Message{
			Content:       domain.Content{Text: "executing tool call"},
			ToolCallsJSON: sampleCalls,
		}, false},
		{"malformed tool results do not rescue", domain.Message{
			Content:         domain.Content{},
			ToolResultsJSON: "{broken",
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Suppressed(tt.m))
		})
	}
}

func TestDisplayText(t *testing.T) {
	tests := []struct {
		name string
		m    domain.Message
		want string
	}{
		{"plain text passes through", msg("here is the plan"), "here is the plan"},
		{"status line blanks", msg("executing tool call save_entry"), ""},
		{"dot placeholder with calls blanks", domain.Message{
			Content:       domain.Content{Text: "."},
			ToolCallsJSON: sampleCalls,
		}, ""},
		{"dot placeholder with results blanks", domain.Message{
			Content:         domain.Content{Text: "."},
			ToolResultsJSON: sampleResults,
		}, ""},
		{"bare dot without tool context stays", msg("."), "."},
		{"dot inside prose stays", msg("Done."), "Done."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayText(tt.m))
		})
	}
}
