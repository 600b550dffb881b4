// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	// pingPeriod keeps idle dashboard connections alive through proxies.
	pingPeriod = 30 * time.Second

	// sendBuffer bounds per-client outgoing messages. A client that
	// cannot drain this many events is dropped.
	sendBuffer = 16
)

// Event is the server-to-client websocket message. The dashboard only
// ever receives notifications; it re-fetches /cases itself.
type Event struct {
	Type    string `json:"type"`
	SavedAt string `json:"saved_at,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard is served from the same process; cross-origin
	// embedding of the board page is expected on office displays.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans save notifications out to connected dashboard clients.
//
// # Thread Safety
//
// Safe for concurrent use. Run must be started exactly once; all map
// mutation happens on its goroutine under the mutex.
type Hub struct {
	mu         sync.Mutex
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func newHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 8),
	}
}

// Run owns the client set until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			slog.Debug("dashboard client connected", "clients", h.ClientCount())

		case c := <-h.unregister:
			h.drop(c)

		case msg := <-h.broadcast:
			h.mu.Lock()
			recipients := make([]*client, 0, len(h.clients))
			for c := range h.clients {
				recipients = append(recipients, c)
			}
			h.mu.Unlock()

			for _, c := range recipients {
				select {
				case c.send <- msg:
				default:
					// Send buffer full: the client is lagging, cut it
					// loose rather than block the hub.
					slog.Warn("dropping slow dashboard client")
					h.drop(c)
				}
			}

		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// ClientCount reports connected dashboard clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// NotifyCasesUpdated broadcasts a cases_updated event. savedAt is the
// marker stamp of the save that triggered it. Non-blocking: if the hub
// is saturated or not running the event is dropped, the dashboard
// catches up on its next poll.
func (h *Hub) NotifyCasesUpdated(savedAt string) {
	payload, err := json.Marshal(Event{Type: "cases_updated", SavedAt: savedAt})
	if err != nil {
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		slog.Warn("dashboard broadcast dropped, hub saturated")
	}
}

// serveWS upgrades the request and registers the connection.
func (h *Hub) serveWS() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("failed to upgrade the websocket", "error", err)
			return
		}

		cl := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
		h.register <- cl

		go cl.writePump()
		go cl.readPump()
	}
}

// readPump drains client frames until the connection dies. The
// dashboard never sends meaningful messages; this loop exists to
// observe the close.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Debug("dashboard client read error", "error", err)
			}
			break
		}
	}
}

// writePump forwards hub messages and pings on an interval.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
