package chat

import "github.com/taskdeck/taskdeck-go/pkg/domain"

// primingInstructions establishes the assistant's role before the first real
// user turn. The user never sees it.
const primingInstructions = `You are the planning assistant embedded in a task and notes workspace. You help the user create, update, and reason about entries (tasks) and notes through the tools made available to you.

Guidelines:
- Keep responses short and concrete; the user is working, not chatting.
- When the user refers to a task or note by name, resolve it against the workspace before acting.
- Prefer updating existing entries over creating duplicates.`

const primingToolCallID = "ctx-0"

// primingMessages returns the four hidden turns inserted once per session
// before the first user send: an instruction, a feigned workspace-load tool
// call, its feigned result, and a feigned acknowledgement. Callers assign
// timestamps.
func primingMessages() []domain.Message {
	return []domain.Message{
		{
			Role:    domain.RoleUser,
			Content: domain.Content{Text: primingInstructions},
			Hidden:  true,
		},
		{
			Role:          domain.RoleAssistant,
			Content:       domain.Content{Text: "."},
			ToolCallsJSON: `[{"id":"` + primingToolCallID + `","tool_name":"load_workspace","parameters":{}}]`,
			Hidden:        true,
		},
		{
			Role:            domain.RoleUser,
			ToolResultsJSON: `[{"tool_call_id":"` + primingToolCallID + `","result":"Workspace loaded."}]`,
			Hidden:          true,
		},
		{
			Role:    domain.RoleAssistant,
			Content: domain.Content{Text: "Understood. I have the workspace context and am ready to help."},
			Hidden:  true,
		},
	}
}
