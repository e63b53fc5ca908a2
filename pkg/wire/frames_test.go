package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck-go/pkg/domain"
)

func TestParseServerFrameAuth(t *testing.T) {
	f, err := ParseServerFrame([]byte(`{"type":"auth_success","message":"welcome"}`))
	require.NoError(t, err)
	require.Equal(t, FrameAuthSuccess, f.Type)
	assert.Equal(t, "welcome", f.AuthSuccess.Message)

	f, err = ParseServerFrame([]byte(`{"type":"auth_error","error":"bad key"}`))
	require.NoError(t, err)
	require.Equal(t, FrameAuthError, f.Type)
	assert.Equal(t, "bad key", f.AuthError.Error)
}

func TestParseServerFrameStream(t *testing.T) {
	data := []byte(`{
		"type": "stream",
		"iteration": 2,
		"message": {"role": "assistant", "content": {"Text": "hel"}},
		"tool_calls": "[{\"id\":\"tc1\",\"tool_name\":\"x\",\"parameters\":{}}]"
	}`)
	f, err := ParseServerFrame(data)
	require.NoError(t, err)
	require.Equal(t, FrameStream, f.Type)
	assert.Equal(t, 2, f.Stream.Iteration)
	require.NotNil(t, f.Stream.Message.Content.Text)
	assert.Equal(t, "hel", *f.Stream.Message.Content.Text)
	assert.NotEmpty(t, f.Stream.ToolCalls)
}

func TestParseServerFrameChatComplete(t *testing.T) {
	data := []byte(`{
		"type": "chat_complete",
		"payload": {
			"allMessages": [
				{"role": "user", "content": {"Text": "hi"}},
				{"role": "assistant", "content": {"Text": "hello"}}
			],
			"apiKey": "fresh-key"
		}
	}`)
	f, err := ParseServerFrame(data)
	require.NoError(t, err)
	require.Equal(t, FrameChatComplete, f.Type)
	require.Len(t, f.ChatComplete.AllMessages, 2)
	assert.Equal(t, "fresh-key", f.ChatComplete.APIKey)
	assert.Nil(t, f.ChatComplete.Response)
}

func TestParseServerFramePongHasNoBody(t *testing.T) {
	f, err := ParseServerFrame([]byte(`{"type":"pong"}`))
	require.NoError(t, err)
	assert.Equal(t, FramePong, f.Type)
}

func TestParseServerFrameRejectsUnknownType(t *testing.T) {
	_, err := ParseServerFrame([]byte(`{"type":"upgrade"}`))
	require.Error(t, err)

	_, err = ParseServerFrame([]byte(`{"snapshot":{"entries":[],"notes":[]}}`))
	require.Error(t, err)
}

func TestErrorFrameText(t *testing.T) {
	f, err := ParseServerFrame([]byte(`{"type":"error","error":"boom"}`))
	require.NoError(t, err)
	assert.Equal(t, "boom", f.Error.Text())

	f, err = ParseServerFrame([]byte(`{"type":"error","error":{"message":"nested boom"}}`))
	require.NoError(t, err)
	assert.Equal(t, "nested boom", f.Error.Text())
}

func TestErrorFrameRateLimit(t *testing.T) {
	body := `{"type":"error","error":{"error_type":"OutOfRequests","message":"slow down","retry_after_seconds":120}}`
	f, err := ParseServerFrame([]byte(body))
	require.NoError(t, err)

	rl, ok := f.Error.RateLimit()
	require.True(t, ok)
	assert.Equal(t, 120, rl.RetryAfterSeconds)
	assert.Equal(t, "slow down", rl.Message)

	_, ok = ParseRateLimit([]byte(`{"error_type":"Other"}`))
	assert.False(t, ok)
	_, ok = ParseRateLimit([]byte(`plain text failure`))
	assert.False(t, ok)
}

func TestParsePushFrame(t *testing.T) {
	f, err := ParsePushFrame([]byte(`{"entryRemoved":{"entryId":42}}`))
	require.NoError(t, err)
	require.NotNil(t, f.EntryRemoved)
	assert.Equal(t, uint64(42), f.EntryRemoved.EntryID)

	f, err = ParsePushFrame([]byte(`{"snapshot":{"entries":[{"id":1,"title":"t"}],"notes":[]}}`))
	require.NoError(t, err)
	require.NotNil(t, f.Snapshot)
	require.Len(t, f.Snapshot.Entries, 1)
}

func TestParsePushFrameRequiresExactlyOneTag(t *testing.T) {
	_, err := ParsePushFrame([]byte(`{}`))
	require.Error(t, err)

	_, err = ParsePushFrame([]byte(`{"entryRemoved":{"entryId":1},"noteRemoved":{"noteId":2}}`))
	require.Error(t, err)

	// Chat frames are not push frames.
	_, err = ParsePushFrame([]byte(`{"type":"pong"}`))
	require.Error(t, err)
}

func TestEncodeMessagePicksOneVariant(t *testing.T) {
	m := domain.Message{
		Role: domain.RoleAssistant,
		Content: domain.Content{
			Text:     "prose",
			AudioB64: "AAAA",
		},
	}
	w := EncodeMessage(m)
	require.NotNil(t, w.Content.Text)
	assert.Equal(t, "prose", *w.Content.Text)
	assert.Nil(t, w.Content.BaseSixFourAudio)
	assert.Empty(t, w.Content.Audio)
}

func TestDecodeMessageFlattens(t *testing.T) {
	text := "hi"
	b64 := "AAAA"
	m := DecodeMessage(Message{
		Role:    "assistant",
		Content: Content{Text: &text, BaseSixFourAudio: &b64},
		Hidden:  true,
	})
	assert.Equal(t, domain.RoleAssistant, m.Role)
	assert.Equal(t, "hi", m.Content.Text)
	assert.Equal(t, "AAAA", m.Content.AudioB64)
	assert.True(t, m.Hidden)
}
