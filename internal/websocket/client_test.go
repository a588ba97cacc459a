// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// serveHub upgrades every request and attaches the connection to hub.
func serveHub(t *testing.T, hub *Hub, origins []string) *httptest.Server {
	t.Helper()
	upgrader := NewUpgrader(origins)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewClient(hub, conn, "viewer-1")
		hub.Register <- c
		c.Start()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, resp, err
}

func TestNewClient(t *testing.T) {
	hub := NewHub()
	a := NewClient(hub, nil, "v")
	b := NewClient(hub, nil, "")
	if a.ID() >= b.ID() {
		t.Errorf("client ids should increase: %d then %d", a.ID(), b.ID())
	}
	if cap(a.send) != sendBuffer {
		t.Errorf("expected send buffer %d, got %d", sendBuffer, cap(a.send))
	}
	if a.viewerID != "v" {
		t.Errorf("viewer id not set")
	}
}

func TestClient_ReceivesBroadcast(t *testing.T) {
	hub := startHub(t)
	srv := serveHub(t, hub, []string{"*"})

	conn, _, err := dial(t, srv, "http://map.example")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitForClients(t, hub, 1)

	hub.Broadcast(Message{Type: MessageTypeLeaderboardRebuilt, Data: map[string]int{"entries": 3}})

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != MessageTypeLeaderboardRebuilt {
		t.Errorf("expected %s, got %s", MessageTypeLeaderboardRebuilt, msg.Type)
	}
}

func TestClient_PingPong(t *testing.T) {
	hub := startHub(t)
	srv := serveHub(t, hub, []string{"*"})

	conn, _, err := dial(t, srv, "http://map.example")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(Message{Type: MessageTypePing}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != MessageTypePong {
		t.Errorf("expected pong, got %s", msg.Type)
	}
}

func TestClient_DisconnectUnregisters(t *testing.T) {
	hub := startHub(t)
	srv := serveHub(t, hub, []string{"*"})

	conn, _, err := dial(t, srv, "http://map.example")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	waitForClients(t, hub, 1)

	_ = conn.Close()
	waitForClients(t, hub, 0)
}

func TestUpgrader_CheckOrigin(t *testing.T) {
	hub := startHub(t)
	srv := serveHub(t, hub, []string{"https://spotmap.example"})

	tests := []struct {
		name   string
		origin string
		ok     bool
	}{
		{"allowed origin", "https://spotmap.example", true},
		{"other origin", "https://evil.example", false},
		{"missing origin", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, resp, err := dial(t, srv, tt.origin)
			if tt.ok {
				if err != nil {
					t.Fatalf("expected upgrade, got %v", err)
				}
				_ = conn.Close()
				return
			}
			if err == nil {
				_ = conn.Close()
				t.Fatal("expected upgrade to be rejected")
			}
			if resp == nil || resp.StatusCode != http.StatusForbidden {
				t.Errorf("expected 403, got %v", resp)
			}
		})
	}
}
