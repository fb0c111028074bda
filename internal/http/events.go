package http

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/jgesser/mobilecloud-15/internal/transfer"
)

// transferFinishedMessage is the only message sent on /events. It carries
// no transfer data; clients re-query the cache when they receive it.
var transferFinishedMessage = []byte(`{"event":"transfer_finished"}`)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// EventsHub relays transfer completion signals to websocket clients.
type EventsHub struct {
	mu    sync.RWMutex
	conns map[*websocket.Conn]*sync.Mutex
}

func NewEventsHub() *EventsHub {
	return &EventsHub{conns: make(map[*websocket.Conn]*sync.Mutex)}
}

func (h *EventsHub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = &sync.Mutex{}
	log.WithField("conns", len(h.conns)).Debug("events: client registered")
}

func (h *EventsHub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[conn]; ok {
		delete(h.conns, conn)
		conn.Close()
		log.WithField("conns", len(h.conns)).Debug("events: client unregistered")
	}
}

// Count returns the number of connected clients.
func (h *EventsHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Broadcast writes msg to every connected client.
func (h *EventsHub) Broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.conns) == 0 {
		return
	}
	for conn, writeMu := range h.conns {
		writeMu.Lock()
		err := conn.WriteMessage(websocket.TextMessage, msg)
		writeMu.Unlock()
		if err != nil {
			log.WithError(err).Debug("events: write failed")
		}
	}
}

// Run forwards completion signals from events until ctx is done.
func (h *EventsHub) Run(ctx context.Context, events *transfer.Broadcaster) {
	finished, unsubscribe := events.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-finished:
			if !ok {
				return
			}
			h.Broadcast(transferFinishedMessage)
		}
	}
}

// Serve handles GET /events by upgrading to a websocket and keeping the
// client registered until it disconnects.
func (h *EventsHub) Serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Warn("events: upgrade failed")
		return
	}
	h.Register(conn)
	defer h.Unregister(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
