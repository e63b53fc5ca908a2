package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/taskdeck/taskdeck-go/pkg/domain"
	"github.com/taskdeck/taskdeck-go/pkg/wire"
)

// HTTPClient implements Gateway over the server's JSON API.
type HTTPClient struct {
	baseURL string
	httpc   *http.Client
}

var _ Gateway = (*HTTPClient)(nil)

// NewHTTPClient creates a gateway client rooted at baseURL (e.g.
// "http://localhost:8080"). A nil httpc uses http.DefaultClient.
func NewHTTPClient(baseURL string, httpc *http.Client) *HTTPClient {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   httpc,
	}
}

func (c *HTTPClient) Bootstrap(ctx context.Context) (*Bootstrap, error) {
	var out Bootstrap
	if err := c.post(ctx, "bootstrap", struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) SaveEntry(ctx context.Context, draft domain.EntryDraft) (*domain.Entry, error) {
	var out domain.Entry
	if err := c.post(ctx, "save_entry", draft, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) DeleteEntry(ctx context.Context, id uint64) (bool, error) {
	var out bool
	req := struct {
		EntryID uint64 `json:"entry_id"`
	}{EntryID: id}
	if err := c.post(ctx, "delete_entry", req, &out); err != nil {
		return false, err
	}
	return out, nil
}

func (c *HTTPClient) ToggleEntryCompletion(ctx context.Context, id uint64, completed bool) (*domain.Entry, error) {
	var out domain.Entry
	req := struct {
		EntryID   uint64 `json:"entry_id"`
		Completed bool   `json:"completed"`
	}{EntryID: id, Completed: completed}
	if err := c.post(ctx, "toggle_entry_completion", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) SaveNote(ctx context.Context, draft domain.NoteDraft) (*domain.Note, error) {
	var out domain.Note
	if err := c.post(ctx, "save_note", draft, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) DeleteNote(ctx context.Context, id uint64) (bool, error) {
	var out bool
	req := struct {
		NoteID uint64 `json:"note_id"`
	}{NoteID: id}
	if err := c.post(ctx, "delete_note", req, &out); err != nil {
		return false, err
	}
	return out, nil
}

func (c *HTTPClient) SearchAll(ctx context.Context, query string) (*SearchResult, error) {
	var out SearchResult
	req := struct {
		Query string `json:"query,omitempty"`
	}{Query: query}
	if err := c.post(ctx, "search_all", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ConnectSession(ctx context.Context, forceNew bool) (*SessionInfo, error) {
	var out SessionInfo
	req := struct {
		ForceNew bool `json:"force_new"`
	}{ForceNew: forceNew}
	if err := c.post(ctx, "connect", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Status(ctx context.Context) (*SessionStatus, error) {
	var out SessionStatus
	if err := c.post(ctx, "status", struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) MCPServers(ctx context.Context, apiKey string) ([]wire.MCPServer, error) {
	var out struct {
		Servers []wire.MCPServer `json:"servers"`
	}
	req := struct {
		APIKey string `json:"api_key"`
	}{APIKey: apiKey}
	if err := c.post(ctx, "mcp_servers", req, &out); err != nil {
		return nil, err
	}
	return out.Servers, nil
}

func (c *HTTPClient) Chat(ctx context.Context, payload wire.ChatPayload) (*wire.ChatCompleteFrame, error) {
	var out wire.ChatCompleteFrame
	if err := c.post(ctx, "chat", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// post performs one JSON round trip. Non-2xx responses become a
// *wire.RateLimitError when the body matches the structured rate-limit
// shape, otherwise an *RPCError.
func (c *HTTPClient) post(ctx context.Context, endpoint string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", endpoint, err)
	}

	url := c.baseURL + "/api/" + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s response: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if rl, ok := wire.ParseRateLimit(respBody); ok {
			return rl
		}
		return &RPCError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(respBody),
		}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decoding %s response: %w", endpoint, err)
		}
	}
	return nil
}

func errorMessage(body []byte) string {
	var obj struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &obj); err == nil {
		if obj.Error != "" {
			return obj.Error
		}
		if obj.Message != "" {
			return obj.Message
		}
	}
	return strings.TrimSpace(string(body))
}
