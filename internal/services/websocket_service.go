package services

import (
	"encoding/json"
	"fmt"

	"presentation-coach/internal/models"

	"github.com/charmbracelet/log"
)

// Inbound message types.
const (
	MessageJoin     = "join_presentation"
	MessageAdvance  = "advance_slide"
	MessagePrevious = "previous_slide"
)

// Outbound message types.
const (
	MessageState        = "presentation_state"
	MessageSlideChanged = "slide_changed"
)

// ClientMessage is the wire format for messages from clients.
type ClientMessage struct {
	Type           string `json:"type"`
	PresentationID int    `json:"presentationId"`
	NewIndex       int    `json:"newIndex"`
}

// ServerMessage is the wire format for the join reply and slide broadcasts.
type ServerMessage struct {
	Type              string `json:"type"`
	PresentationID    int    `json:"presentationId"`
	CurrentSlideIndex int    `json:"currentSlideIndex"`
}

type inbound struct {
	client  *Client
	message ClientMessage
}

// WebSocketService groups connected clients into rooms keyed by presentation
// id and relays slide-position changes between them. All room and session
// mutations happen on the Run loop, so handlers for one event run to
// completion before the next is dispatched.
type WebSocketService struct {
	registry *SessionRegistry
	activity *ActivityService
	logger   *log.Logger

	rooms map[int]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	messages   chan inbound
}

// NewWebSocketService creates the hub. The activity service may be nil.
func NewWebSocketService(registry *SessionRegistry, activity *ActivityService, logger *log.Logger) *WebSocketService {
	return &WebSocketService{
		registry:   registry,
		activity:   activity,
		logger:     logger.With("component", "ws"),
		rooms:      make(map[int]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		messages:   make(chan inbound),
	}
}

// Register hands a new connection to the hub.
func (ws *WebSocketService) Register(c *Client) {
	ws.register <- c
}

// Run dispatches connection and message events. Call in its own goroutine.
func (ws *WebSocketService) Run() {
	for {
		select {
		case client := <-ws.register:
			ws.logger.Info("client connected", "conn", client.ID)

		case client := <-ws.unregister:
			ws.removeClient(client)

		case in := <-ws.messages:
			ws.handleMessage(in.client, in.message)
		}
	}
}

// handleMessage routes one decoded client message. Nothing here ever sends an
// error back to the client: unknown types are dropped and a missing
// presentationId is processed as id 0, matching the permissive contract of
// the realtime surface.
func (ws *WebSocketService) handleMessage(client *Client, msg ClientMessage) {
	switch msg.Type {
	case MessageJoin:
		ws.joinPresentation(client, msg.PresentationID)
	case MessageAdvance, MessagePrevious:
		ws.changeSlide(msg.PresentationID, msg.NewIndex)
	default:
		ws.logger.Warn("dropping unknown message type", "type", msg.Type, "conn", client.ID)
	}
}

// joinPresentation adds the client to the presentation's room and replies to
// the joining client only with the current index snapshot.
func (ws *WebSocketService) joinPresentation(client *Client, presentationID int) {
	room, ok := ws.rooms[presentationID]
	if !ok {
		room = make(map[*Client]bool)
		ws.rooms[presentationID] = room
	}
	room[client] = true

	index := ws.registry.EnsureSession(presentationID)
	client.enqueue(ServerMessage{
		Type:              MessageState,
		PresentationID:    presentationID,
		CurrentSlideIndex: index,
	})

	ws.logger.Info("client joined presentation", "conn", client.ID, "presentation", presentationID)
}

// changeSlide records the new index and fans it out to every member of the
// room, including the sender (speakers update optimistically and tolerate
// their own echo). The index is broadcast verbatim; there is no bounds check.
func (ws *WebSocketService) changeSlide(presentationID, newIndex int) {
	ws.registry.SetCurrentIndex(presentationID, newIndex)

	out := ServerMessage{
		Type:              MessageSlideChanged,
		PresentationID:    presentationID,
		CurrentSlideIndex: newIndex,
	}
	for client := range ws.rooms[presentationID] {
		client.enqueue(out)
	}

	if ws.activity != nil {
		ws.activity.Record(presentationID, models.EventSlideChanged, fmt.Sprintf("index=%d", newIndex))
	}
	ws.logger.Info("slide changed", "presentation", presentationID, "index", newIndex)
}

// removeClient drops the connection from every room it joined. The session's
// tracked index is left in place for the next joiner.
func (ws *WebSocketService) removeClient(client *Client) {
	for id, room := range ws.rooms {
		if room[client] {
			delete(room, client)
			if len(room) == 0 {
				delete(ws.rooms, id)
			}
		}
	}
	client.closeSend()
	ws.logger.Info("client disconnected", "conn", client.ID)
}

// dispatch decodes and queues one raw frame from a client's read pump.
// Malformed JSON is logged and dropped; the connection stays up.
func (ws *WebSocketService) dispatch(client *Client, raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		ws.logger.Warn("dropping malformed message", "conn", client.ID, "err", err)
		return
	}
	ws.messages <- inbound{client: client, message: msg}
}
