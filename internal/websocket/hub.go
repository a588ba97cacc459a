// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

// Package websocket pushes live notifications to map clients: leaderboard
// rebuilds and engagement on individual spots. Clients use them as hints to
// refetch; nothing is guaranteed to be delivered.
package websocket

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/spotmap/internal/logging"
	"github.com/tomtom215/spotmap/internal/metrics"
	"github.com/tomtom215/spotmap/internal/models"
)

// Message types.
const (
	MessageTypePing               = "ping"
	MessageTypePong               = "pong"
	MessageTypeLeaderboardRebuilt = "leaderboard_rebuilt"
	MessageTypeSpotEngagement     = "spot_engagement"
)

// leaderboardPreview is the number of top entries included in a
// leaderboard_rebuilt notification.
const leaderboardPreview = 10

// Message is the envelope for every frame.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// LeaderboardRebuiltData is sent after a successful rebuild.
type LeaderboardRebuiltData struct {
	Timestamp string                    `json:"timestamp"`
	Entries   int                       `json:"entries"`
	Top       []models.LeaderboardEntry `json:"top"`
}

// SpotEngagementData is sent after an engagement event was applied.
type SpotEngagementData struct {
	SpotID     string                `json:"spotId"`
	Kind       models.EngagementKind `json:"kind"`
	OccurredAt int64                 `json:"occurredAt"`
}

// Hub tracks connected clients and fans messages out to them.
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub returns a hub. Call RunWithContext to start it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// RunWithContext processes registrations and broadcasts until ctx is done,
// then disconnects every client. Lifecycle events are drained before
// broadcasts so a message never races a registration.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		default:
		}

		select {
		case c := <-h.Register:
			h.add(c)
			continue
		case c := <-h.Unregister:
			h.remove(c)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		case c := <-h.Register:
			h.add(c)
		case c := <-h.Unregister:
			h.remove(c)
		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.WebSocketConnections.Set(float64(n))
	logging.Debug().Int("total_clients", n).Msg("websocket client connected")
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.WebSocketConnections.Set(float64(n))
	logging.Debug().Int("total_clients", n).Msg("websocket client disconnected")
}

// sortedClients returns the clients in id order. Must hold mu.
func (h *Hub) sortedClients() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	slices.SortFunc(clients, func(a, b *Client) int {
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	})
	return clients
}

// fanOut delivers msg to every client. Clients whose buffer is full are
// dropped.
func (h *Hub) fanOut(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.sortedClients() {
		select {
		case c.send <- msg:
		default:
			close(c.send)
			delete(h.clients, c)
			logging.Warn().Uint64("client_id", c.id).Msg("websocket client too slow, disconnected")
		}
	}
	metrics.WebSocketConnections.Set(float64(len(h.clients)))
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	n := len(h.clients)
	for _, c := range h.sortedClients() {
		close(c.send)
		delete(h.clients, c)
	}
	h.mu.Unlock()
	metrics.WebSocketConnections.Set(0)

	logging.Info().Str("component", "websocket-hub").Int("clients_closed", n).Msg("websocket hub stopped")
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues msg for every client. It never blocks; when the queue
// is full the message is dropped.
func (h *Hub) Broadcast(msg Message) bool {
	select {
	case h.broadcast <- msg:
		return true
	default:
		logging.Warn().Str("message_type", msg.Type).Msg("broadcast channel full, dropping message")
		return false
	}
}

// BroadcastLeaderboardRebuilt announces a new leaderboard snapshot with a
// preview of its top entries.
func (h *Hub) BroadcastLeaderboardRebuilt(entries []models.LeaderboardEntry) {
	top := entries[:min(len(entries), leaderboardPreview)]
	h.Broadcast(Message{
		Type: MessageTypeLeaderboardRebuilt,
		Data: LeaderboardRebuiltData{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Entries:   len(entries),
			Top:       slices.Clone(top),
		},
	})
}

// BroadcastEngagement announces an applied engagement event.
func (h *Hub) BroadcastEngagement(ev *models.EngagementEvent) {
	h.Broadcast(Message{
		Type: MessageTypeSpotEngagement,
		Data: SpotEngagementData{
			SpotID:     ev.SpotID,
			Kind:       ev.Kind,
			OccurredAt: ev.OccurredAt.UnixMilli(),
		},
	})
}

// MarshalMessage encodes msg as JSON.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
