package service

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"golang.org/x/net/websocket"

	"github.com/louisbranch/initiative-engine/internal/services/encounter/app"
)

// NewGateway creates the HTTP routes for the session event feed: a
// health probe at /healthz and a one-way websocket stream of session
// events at /watch/{session_id}.
func NewGateway(registry *app.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("/watch/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		sessionID := strings.TrimPrefix(r.URL.Path, "/watch/")
		if sessionID == "" || strings.Contains(sessionID, "/") {
			http.Error(w, "session id is required", http.StatusBadRequest)
			return
		}
		session, err := registry.Get(sessionID)
		if err != nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}

		wsHandler := websocket.Handler(func(conn *websocket.Conn) {
			watchSession(conn, session)
		})
		wsHandler.ServeHTTP(w, r)
	})

	return mux
}

// watchSession streams one session's events to a websocket peer until
// the session closes or the peer disconnects.
func watchSession(conn *websocket.Conn, session *app.Session) {
	defer func() {
		_ = conn.Close()
	}()

	events, cancel := session.Subscribe()
	defer cancel()

	// The stream is one-way; reading only detects the peer hanging up.
	peerGone := make(chan struct{})
	go func() {
		defer close(peerGone)
		buf := make([]byte, 512)
		for {
			if _, err := conn.Read(buf); err != nil {
				return
			}
		}
	}()

	encoder := json.NewEncoder(conn)
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := encoder.Encode(event); err != nil {
				if err != io.EOF {
					log.Printf("watch write session=%s err=%v", session.ID(), err)
				}
				return
			}
		case <-peerGone:
			return
		}
	}
}
