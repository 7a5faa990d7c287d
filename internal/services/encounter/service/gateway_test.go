package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/websocket"

	"github.com/louisbranch/initiative-engine/internal/services/encounter/app"
)

func TestGatewayHealthz(t *testing.T) {
	registry := newTestRegistry(t)
	server := httptest.NewServer(NewGateway(registry))
	defer server.Close()

	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /healthz status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "OK" {
		t.Errorf("GET /healthz body = %q, want OK", body)
	}
}

func TestGatewayWatchValidation(t *testing.T) {
	registry := newTestRegistry(t)
	server := httptest.NewServer(NewGateway(registry))
	defer server.Close()

	resp, err := http.Get(server.URL + "/watch/nope")
	if err != nil {
		t.Fatalf("GET /watch/nope error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET /watch/nope status = %d, want 404", resp.StatusCode)
	}

	resp, err = http.Post(server.URL+"/watch/nope", "text/plain", strings.NewReader(""))
	if err != nil {
		t.Fatalf("POST /watch/nope error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("POST /watch/nope status = %d, want 405", resp.StatusCode)
	}
}

func TestGatewayStreamsSessionEvents(t *testing.T) {
	registry := newTestRegistry(t)
	sessionID := startTestSession(t, registry)
	server := httptest.NewServer(NewGateway(registry))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/watch/" + sessionID
	conn, err := websocket.Dial(wsURL, "", server.URL)
	if err != nil {
		t.Fatalf("websocket dial error = %v", err)
	}
	defer conn.Close()

	// The server subscribes after the handshake, so keep publishing
	// until the stream delivers.
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			_, _, _ = TurnStartHandler(registry)(context.Background(), nil, TurnStartInput{
				SessionID:       sessionID,
				ActiveCharacter: "pc-aria",
				Content:         "I kick the door open",
			})
			select {
			case <-done:
				return
			case <-time.After(50 * time.Millisecond):
			}
		}
	}()

	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	var event app.Event
	if err := json.NewDecoder(conn).Decode(&event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if event.Session != sessionID {
		t.Errorf("event.Session = %q, want %q", event.Session, sessionID)
	}
	if event.Kind != app.EventTurnStarted {
		t.Errorf("event.Kind = %q, want %q", event.Kind, app.EventTurnStarted)
	}
}
