package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/sirupsen/logrus"

	"github.com/transdoc/api/internal/model"
)

// Client represents a WebSocket client
type Client struct {
	Handle string
	Conn   *websocket.Conn
	Send   chan []byte
}

// Hub maintains active WebSocket connections
type Hub struct {
	// Clients grouped by session handle
	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
	done       chan struct{}

	mu sync.RWMutex
}

// BroadcastMessage is a payload addressed to one session handle
type BroadcastMessage struct {
	Handle  string
	Message []byte
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.Handle] == nil {
				h.clients[client.Handle] = make(map[*Client]bool)
			}
			h.clients[client.Handle][client] = true
			h.mu.Unlock()
			logrus.WithField("socketId", client.Handle).Debug("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
			logrus.WithField("socketId", client.Handle).Debug("client unregistered")

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients[msg.Handle] {
				select {
				case client.Send <- msg.Message:
				default:
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Stop ends the main loop.
func (h *Hub) Stop() {
	close(h.done)
}

func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.Handle]
	if !ok {
		return
	}
	if _, ok := clients[client]; ok {
		delete(clients, client)
		close(client.Send)
		if len(clients) == 0 {
			delete(h.clients, client.Handle)
		}
	}
}

// Register adds a new client. It is a no-op once the hub is stopped.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes a client. It is a no-op once the hub is stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Connected reports how many clients are listening on handle.
func (h *Hub) Connected(handle string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[handle])
}

// Notify sends an event to every connection of handle. Messages for
// unknown handles are dropped, as are messages when the queue is full.
func (h *Hub) Notify(handle, event string, payload interface{}) {
	if handle == "" {
		return
	}
	data, err := json.Marshal(model.WSMessage{Event: event, Data: payload})
	if err != nil {
		logrus.WithError(err).Warn("failed to marshal notification")
		return
	}
	select {
	case h.broadcast <- &BroadcastMessage{Handle: handle, Message: data}:
	default:
		logrus.WithField("socketId", handle).Warn("notification queue full, dropping event")
	}
}

// HandleConnection handles a WebSocket connection
func (h *Hub) HandleConnection(c *websocket.Conn, handle string) {
	client := &Client{
		Handle: handle,
		Conn:   c,
		Send:   make(chan []byte, 256),
	}

	h.Register(client)
	defer h.Unregister(client)

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case message, ok := <-client.Send:
				if !ok {
					c.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := c.WriteMessage(websocket.TextMessage, message); err != nil {
					return
				}

			case <-ticker.C:
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	h.Notify(handle, model.EventConnected, model.Connected{SocketID: handle})

	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).Warn("websocket error")
			}
			break
		}

		var msg model.WSInbound
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if msg.Event == model.EventPing {
			h.Notify(handle, model.EventPong, nil)
		}
	}
}
