package controllers

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"camion_tracker/internal/middleware"
	"camion_tracker/internal/models"
)

// upgrader configures the WebSocket connection. Clients authenticate with a token.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// EventType names a truck mutation pushed to dashboards.
type EventType string

const (
	EventEntry     EventType = "entree"
	EventLoaded    EventType = "charge"
	EventValidated EventType = "valide"
	EventExit      EventType = "sortie"
)

// YardEvent is the message written to every dashboard connection.
type YardEvent struct {
	Type  EventType    `json:"type"`
	Truck models.Truck `json:"camion"`
	At    time.Time    `json:"date"`
}

const writeWait = 5 * time.Second

// YardHub keeps the open dashboard connections and fans truck events out to them.
type YardHub struct {
	clients   map[*websocket.Conn]bool
	broadcast chan YardEvent
	mu        sync.Mutex
}

// NewYardHub creates a hub and starts its broadcast loop.
func NewYardHub() *YardHub {
	hub := &YardHub{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan YardEvent, 100),
	}
	go hub.run()
	return hub
}

// run writes each event to every client in turn. A connection has a single
// writer, so writes happen here and nowhere else.
func (h *YardHub) run() {
	for event := range h.broadcast {
		h.mu.Lock()
		for conn := range h.clients {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				logrus.WithError(err).WithField("conn_ptr", fmt.Sprintf("%p", conn)).
					Info("Dashboard unreachable during broadcast, unregistering.")
				delete(h.clients, conn)
				conn.Close()
			}
		}
		h.mu.Unlock()
	}
}

func (h *YardHub) RegisterClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
	logrus.WithField("conn_ptr", fmt.Sprintf("%p", conn)).Info("Dashboard registered with YardHub.")
}

func (h *YardHub) UnregisterClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
	logrus.WithField("conn_ptr", fmt.Sprintf("%p", conn)).Info("Dashboard unregistered from YardHub.")
}

// ClientCount is the number of connected dashboards.
func (h *YardHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish queues an event without blocking the calling handler.
func (h *YardHub) Publish(kind EventType, truck models.Truck) {
	select {
	case h.broadcast <- YardEvent{Type: kind, Truck: truck, At: now()}:
	default:
		logrus.WithField("type", kind).Warn("Yard broadcast channel full, dropping event.")
	}
}

var yardHub = NewYardHub()

// HandleYardWebSocket upgrades an authenticated dashboard to the live feed.
// Browsers cannot set headers on a WebSocket handshake so the token comes
// in the query string.
func HandleYardWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Accès refusé, token manquant"})
		return
	}
	claims, err := middleware.ValidateToken(token)
	if err != nil {
		middleware.Log(c).WithError(err).Warn("WebSocket connection attempt with invalid token")
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Token invalide ou expiré", "error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		middleware.Log(c).WithError(err).Error("Failed to upgrade WebSocket connection.")
		return
	}
	defer conn.Close()

	log := logrus.WithFields(logrus.Fields{"user_id": claims.UserID, "role": claims.Role})
	log.Info("Dashboard WebSocket connection established.")

	yardHub.RegisterClient(conn)
	defer yardHub.UnregisterClient(conn)

	// The feed is one-way; reading only detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Debug("Dashboard WebSocket read ended.")
			}
			break
		}
	}
	log.Info("Dashboard WebSocket connection closed.")
}
