package handlers

import (
	"net/http"

	"presentation-coach/internal/services"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// WebSocketHandler upgrades HTTP requests and hands connections to the hub.
type WebSocketHandler struct {
	hub      *services.WebSocketService
	upgrader websocket.Upgrader
	logger   *log.Logger
}

// NewWebSocketHandler creates a new websocket handler.
func NewWebSocketHandler(hub *services.WebSocketService, logger *log.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Clients are served from arbitrary dev origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger.With("component", "ws-handler"),
	}
}

// HandleWebSocket upgrades the connection and serves it until it closes.
// GET /ws
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "err", err)
		return
	}

	client := services.NewClient(h.hub, conn)
	h.hub.Register(client)
	go client.Serve()
}
