package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/pkg/logger"
)

const (
	writeWait     = 10 * time.Second
	pingPeriod    = 30 * time.Second
	clientBacklog = 16
)

// EventHub broadcasts risk events to websocket subscribers
// ⭐ SSOT: 리스크 이벤트 실시간 전파는 이 허브에서만
type EventHub struct {
	logger   *logger.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*hubClient]struct{}

	broadcast chan contracts.RiskEvent
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

type hubClient struct {
	conn *websocket.Conn
	send chan contracts.RiskEvent
}

// NewEventHub creates an event hub
func NewEventHub(log *logger.Logger) *EventHub {
	return &EventHub{
		logger: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients:   make(map[*hubClient]struct{}),
		broadcast: make(chan contracts.RiskEvent, 64),
		stopCh:    make(chan struct{}),
	}
}

// Run pumps broadcast events to connected clients until ctx is done
func (h *EventHub) Run(ctx context.Context) {
	h.wg.Add(1)
	defer h.wg.Done()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-h.stopCh:
			h.closeAll()
			return
		case event := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- event:
				default:
					// 느린 구독자는 끊는다
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Stop disconnects all clients and stops the hub
func (h *EventHub) Stop() {
	close(h.stopCh)
	h.wg.Wait()
}

// Notify queues an event for broadcast. Implements the notifier
// contract so the hub can sit in a notification fanout.
func (h *EventHub) Notify(ctx context.Context, event contracts.RiskEvent) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("Event hub broadcast buffer full, dropping event")
	}
}

// ServeWS upgrades the connection and streams risk events
// GET /api/ws/events
func (h *EventHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upgrade websocket")
		return
	}

	client := &hubClient{
		conn: conn,
		send: make(chan contracts.RiskEvent, clientBacklog),
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.WithField("clients", count).Debug("Websocket client connected")

	go h.writePump(client)
	go h.readPump(client)
}

// writePump delivers events and keepalive pings to one client
func (h *EventHub) writePump(c *hubClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				h.drop(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.drop(c)
				return
			}
		}
	}
}

// readPump discards inbound frames and detects disconnects
func (h *EventHub) readPump(c *hubClient) {
	defer func() {
		h.drop(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *EventHub) drop(c *hubClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *EventHub) closeAll() {
	h.mu.Lock()
	for client := range h.clients {
		close(client.send)
		client.conn.Close()
		delete(h.clients, client)
	}
	h.mu.Unlock()
}
