// Command taskdeck is a line-oriented client for a taskdeck server: it
// bootstraps the entry/note store, keeps it synchronized over the realtime
// feed, and relays chat input to the assistant session.
//
// Usage:
//
//	export TASKDECK_BASE_URL="http://localhost:8080"
//	go run cmd/taskdeck/main.go
//
// Commands:
//
//	/entries  - List entries
//	/notes    - List notes
//	/status   - Show assistant session status
//	/search q - Search entries and notes
//	/cancel   - Cancel the in-flight chat request
//	/exit     - Exit the program
//	<message> - Send a message to the assistant
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/taskdeck/taskdeck-go/pkg/chat"
	"github.com/taskdeck/taskdeck-go/pkg/domain"
	"github.com/taskdeck/taskdeck-go/pkg/gateway"
	"github.com/taskdeck/taskdeck-go/pkg/store"
	"github.com/taskdeck/taskdeck-go/pkg/transport"
)

func main() {
	// Setup logger.
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
	slog.SetDefault(logger)

	// Config.
	baseURL := os.Getenv("TASKDECK_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	wsURL := os.Getenv("TASKDECK_WS_URL")
	if wsURL == "" {
		wsURL = "ws" + strings.TrimPrefix(baseURL, "http") + "/ws"
	}

	ctx := context.Background()
	gw := gateway.NewHTTPClient(baseURL, nil)

	st := store.New(gw)
	conn := transport.New(wsURL, transport.WithOnOpen(func() {
		if err := st.Subscribe(); err != nil {
			slog.Warn("Feed subscribe failed", "error", err)
		}
	}))
	defer conn.Disconnect()
	st.Attach(conn)

	if err := st.Bootstrap(ctx); err != nil {
		slog.Error("Bootstrap failed", "error", err)
		os.Exit(1)
	}

	session := chat.New(conn, gw)
	defer session.Close()
	if err := session.Start(ctx); err != nil {
		slog.Error("Assistant session unavailable", "error", err)
	}

	fmt.Printf("taskdeck: %d entries, %d notes loaded\n", len(st.Entries()), len(st.Notes()))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case line == "/exit":
			return
		case line == "/cancel":
			session.Cancel()
		case line == "/entries":
			printEntries(st.Entries())
		case line == "/notes":
			printNotes(st.Notes())
		case line == "/status":
			printStatus(ctx, gw, session)
		case strings.HasPrefix(line, "/search "):
			result, err := st.Search(ctx, strings.TrimPrefix(line, "/search "))
			if err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			printEntries(result.Entries)
			printNotes(result.Notes)
		default:
			sendChat(ctx, session, line)
		}
	}
}

func sendChat(ctx context.Context, session *chat.Session, text string) {
	before := len(session.Visible())
	if err := session.Send(ctx, text); err != nil {
		if rl := session.RateLimit(); rl != nil {
			fmt.Printf("rate limited, retry in %ds\n", rl.RetryAfterSeconds)
		} else {
			fmt.Printf("error: %v\n", err)
		}
		return
	}

	// Socket delivery streams in asynchronously; wait for the turn to finish.
	for session.Loading() {
		time.Sleep(100 * time.Millisecond)
	}
	if msg := session.Err(); msg != "" {
		fmt.Printf("error: %s\n", msg)
		return
	}
	visible := session.Visible()
	if before > len(visible) {
		before = 0
	}
	for _, m := range visible[before:] {
		if m.Role != domain.RoleAssistant {
			continue
		}
		if text := chat.DisplayText(m); text != "" {
			fmt.Println(text)
		} else if m.Content.HasAudio() {
			fmt.Println("[audio response]")
		}
	}
}

func printStatus(ctx context.Context, gw *gateway.HTTPClient, session *chat.Session) {
	status, err := gw.Status(ctx)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	path := "socket"
	if session.Fallback() {
		path = "http"
	}
	fmt.Printf("connected=%v api_key=%v path=%s\n", status.Connected, status.HasAPIKey, path)
}

func printEntries(entries []domain.Entry) {
	for _, e := range entries {
		fmt.Printf("%4d  %-10s %-8s %s\n", e.ID, e.Timescale, e.Status, e.Title)
	}
}

func printNotes(notes []domain.Note) {
	for _, n := range notes {
		pin := " "
		if n.Pinned {
			pin = "*"
		}
		fmt.Printf("%4d %s %s\n", n.ID, pin, n.Title)
	}
}
