package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/taskdeck/taskdeck-go/pkg/domain"
	"github.com/taskdeck/taskdeck-go/pkg/wire"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL, srv.Client())
}

func TestSaveEntryRoundTrip(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/save_entry" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		var draft domain.EntryDraft
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			t.Fatalf("decoding draft: %v", err)
		}
		if draft.Title != "ship it" {
			t.Errorf("Title = %q", draft.Title)
		}
		json.NewEncoder(w).Encode(domain.Entry{
			ID:        42,
			Title:     draft.Title,
			Status:    domain.StatusBacklog,
			Timescale: domain.TimescaleSomeday,
		})
	})

	entry, err := c.SaveEntry(context.Background(), domain.EntryDraft{Title: "ship it"})
	if err != nil {
		t.Fatalf("SaveEntry: %v", err)
	}
	if entry.ID != 42 || entry.Timescale != domain.TimescaleSomeday {
		t.Errorf("entry = %+v", entry)
	}
}

func TestBootstrapDecodesSnapshot(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/bootstrap" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"entries":[{"id":1,"title":"a"}],"notes":[{"id":2,"title":"n"}],"is_public_mode":true}`))
	})

	got, err := c.Bootstrap(context.Background())
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if len(got.Entries) != 1 || len(got.Notes) != 1 || !got.IsPublicMode {
		t.Errorf("bootstrap = %+v", got)
	}
}

func TestConnectSessionReturnsCredential(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ForceNew bool `json:"force_new"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if !req.ForceNew {
			t.Error("force_new not forwarded")
		}
		w.Write([]byte(`{"api_key":"k-123"}`))
	})

	info, err := c.ConnectSession(context.Background(), true)
	if err != nil {
		t.Fatalf("ConnectSession: %v", err)
	}
	if info.APIKey != "k-123" {
		t.Errorf("APIKey = %q", info.APIKey)
	}
}

func TestRateLimitBodyBecomesTypedError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error_type":"OutOfRequests","message":"daily cap","retry_after_seconds":120}`))
	})

	_, err := c.Chat(context.Background(), wire.ChatPayload{})
	var rl *wire.RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("err = %v, want *wire.RateLimitError", err)
	}
	if rl.RetryAfterSeconds != 120 {
		t.Errorf("RetryAfterSeconds = %d, want 120", rl.RetryAfterSeconds)
	}
}

func TestServerErrorBecomesRPCError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"database unavailable"}`))
	})

	_, err := c.Bootstrap(context.Background())
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("err = %v, want *RPCError", err)
	}
	if rpcErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d", rpcErr.StatusCode)
	}
	if rpcErr.Message != "database unavailable" {
		t.Errorf("Message = %q", rpcErr.Message)
	}
	if rpcErr.Endpoint != "bootstrap" {
		t.Errorf("Endpoint = %q", rpcErr.Endpoint)
	}
}

func TestNonJSONErrorBodyIsPreserved(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream timeout\n"))
	})

	_, err := c.Status(context.Background())
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("err = %v, want *RPCError", err)
	}
	if rpcErr.Message != "upstream timeout" {
		t.Errorf("Message = %q", rpcErr.Message)
	}
}

func TestDeleteEntrySendsID(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			EntryID uint64 `json:"entry_id"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.EntryID != 7 {
			t.Errorf("entry_id = %d", req.EntryID)
		}
		w.Write([]byte("true"))
	})

	ok, err := c.DeleteEntry(context.Background(), 7)
	if err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	if !ok {
		t.Error("DeleteEntry = false, want true")
	}
}

func TestMCPServersUnwrapsList(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"servers":[{"name":"planner","url":"http://localhost:9000/sse"}]}`))
	})

	servers, err := c.MCPServers(context.Background(), "k")
	if err != nil {
		t.Fatalf("MCPServers: %v", err)
	}
	if len(servers) != 1 || servers[0].Name != "planner" {
		t.Errorf("servers = %+v", servers)
	}
}

func TestChatDecodesCompletion(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"allMessages":[{"role":"assistant","content":{"Text":"done"}}],"apiKey":"fresh"}`))
	})

	result, err := c.Chat(context.Background(), wire.ChatPayload{ConversationID: "c1"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if len(result.AllMessages) != 1 || result.APIKey != "fresh" {
		t.Errorf("result = %+v", result)
	}
}
