package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"tourchat-backend/internal/dto"
	"tourchat-backend/internal/model"
	"tourchat-backend/internal/service/auth"
	"tourchat-backend/internal/service/chat"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Handler struct {
	hub      *Hub
	presence *Registry
	chat     *chat.Service
}

func NewHandler(hub *Hub, presence *Registry, chatService *chat.Service) *Handler {
	return &Handler{
		hub:      hub,
		presence: presence,
		chat:     chatService,
	}
}

// ServeWS authenticates the upgrade via the token query parameter and
// starts the connection pumps. Event handling happens in the read loop.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.IdentityFromAccessToken(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	cl := &WSClient{
		Conn:     conn,
		Message:  make(chan []byte, 16),
		ID:       uuid.NewString(),
		UserID:   identity.UserID,
		UserName: identity.Name,
		Role:     identity.Role,
		done:     make(chan struct{}),
	}

	go cl.keepAlive()
	go cl.writeMessage()
	go h.readLoop(cl, chat.Identity{
		UserID: identity.UserID,
		Name:   identity.Name,
		Email:  identity.Email,
		Role:   identity.Role,
	})
}

func (h *Handler) readLoop(cl *WSClient, identity chat.Identity) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic in readLoop: %v", r)
		}

		cl.Shutdown()
		h.presence.Remove(cl.UserID, cl)
		if room := cl.Room(); room != "" {
			h.hub.Unregister <- RoomSubscription{Client: cl, ConversationID: room}
		}
		log.Printf("Client %s disconnected", cl.ID)
	}()

	cl.Conn.SetReadLimit(64 * 1024)

	for {
		_, raw, err := cl.Conn.ReadMessage()
		if err != nil {
			if closeErr, ok := err.(*websocket.CloseError); ok {
				if closeErr.Code == websocket.CloseNormalClosure ||
					closeErr.Code == websocket.CloseGoingAway ||
					closeErr.Code == websocket.CloseNoStatusReceived {
					break
				}
			}
			log.Printf("Error reading message from client %s: %v", cl.ID, err)
			break
		}

		var envelope Envelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			h.sendError(cl, "validation_error", "malformed event")
			continue
		}

		h.dispatch(context.Background(), cl, identity, envelope)
	}
}

func (h *Handler) dispatch(ctx context.Context, cl *WSClient, identity chat.Identity, envelope Envelope) {
	countEvent(envelope.Event)

	switch envelope.Event {
	case EventJoin:
		h.handleJoin(ctx, cl, identity, envelope.Data)
	case EventSendMessage:
		h.handleSendMessage(ctx, cl, identity, envelope.Data)
	case EventMarkAsRead:
		h.handleMarkAsRead(ctx, cl, identity, envelope.Data)
	case EventTyping:
		h.handleTyping(cl, envelope.Data)
	default:
		h.sendError(cl, "validation_error", "unknown event")
	}
}

func (h *Handler) handleJoin(ctx context.Context, cl *WSClient, identity chat.Identity, data json.RawMessage) {
	var payload JoinPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		h.sendError(cl, "validation_error", "malformed join payload")
		return
	}

	// The identity is bound at upgrade, the payload may not switch it.
	if payload.UserID != identity.UserID {
		h.sendError(cl, "unauthorized", "join user does not match connection identity")
		return
	}

	// Customers always land in their default conversation. Staff may
	// join without one: the connection then carries presence only and
	// receives conversation_updated pushes for the dashboard.
	conversationID := payload.ConversationID
	if !identity.IsStaff() {
		conversation, err := h.chat.EnsureDefaultConversation(ctx, identity)
		if err != nil {
			h.sendServiceError(cl, err)
			return
		}
		conversationID = conversation.ConversationID
	}

	var joined JoinedPayload
	if conversationID != "" {
		result, err := h.chat.ListMessages(ctx, conversationID, identity, 0)
		if err != nil {
			h.sendServiceError(cl, err)
			return
		}
		conversation := dto.NewConversationResponse(result.Conversation)
		joined.Conversation = &conversation
		joined.Messages = dto.NewMessageResponses(result.Messages)
	}

	if replaced := h.presence.Register(cl.UserID, cl); replaced != nil {
		replaced.Shutdown()
		if room := replaced.Room(); room != "" {
			h.hub.Unregister <- RoomSubscription{Client: replaced, ConversationID: room}
		}
	}

	if previous := cl.Room(); previous != "" && previous != conversationID {
		h.hub.Unregister <- RoomSubscription{Client: cl, ConversationID: previous}
	}
	cl.setRoom(conversationID)
	if conversationID != "" {
		h.hub.Register <- RoomSubscription{Client: cl, ConversationID: conversationID}
	}

	h.send(cl, EventJoined, joined)
}

func (h *Handler) handleSendMessage(ctx context.Context, cl *WSClient, identity chat.Identity, data json.RawMessage) {
	var payload SendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		h.sendError(cl, "validation_error", "malformed send_message payload")
		return
	}

	result, err := h.chat.PostMessage(ctx, payload.ConversationID, identity, payload.Content)
	if err != nil {
		h.sendServiceError(cl, err)
		return
	}

	h.broadcast(result.Conversation.ConversationID, nil, EventNewMessage, dto.NewMessageResponse(result.Message))
	h.notifyParticipants(result.Conversation)
}

func (h *Handler) handleMarkAsRead(ctx context.Context, cl *WSClient, identity chat.Identity, data json.RawMessage) {
	var payload MarkAsReadPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		h.sendError(cl, "validation_error", "malformed mark_as_read payload")
		return
	}

	conversation, err := h.chat.MarkConversationRead(ctx, payload.ConversationID, identity)
	if err != nil {
		h.sendServiceError(cl, err)
		return
	}

	// The ack goes only to the reader; everyone else learns the new
	// count through conversation_updated.
	h.send(cl, EventMarkedAsRead, MarkedAsReadPayload{
		ConversationID: conversation.ConversationID,
		ReaderID:       identity.UserID,
		UnreadCount:    conversation.UnreadCount,
	})
	h.notifyParticipants(conversation)
}

// handleTyping relays the indicator to everyone else in the room.
// Nothing is persisted.
func (h *Handler) handleTyping(cl *WSClient, data json.RawMessage) {
	var payload TypingPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		h.sendError(cl, "validation_error", "malformed typing payload")
		return
	}

	room := cl.Room()
	if room == "" || room != payload.ConversationID {
		h.sendError(cl, "validation_error", "typing outside the joined conversation")
		return
	}

	h.broadcast(room, cl, EventUserTyping, UserTypingPayload{
		ConversationID: room,
		UserID:         cl.UserID,
		UserName:       cl.UserName,
		IsTyping:       payload.IsTyping,
	})
}

// notifyParticipants pushes the refreshed conversation to every
// participant with a live connection, wherever they are connected.
func (h *Handler) notifyParticipants(conversation model.ConversationItem) {
	frame, err := marshalEnvelope(EventConversationUpdated, dto.NewConversationResponse(conversation))
	if err != nil {
		log.Printf("Error marshaling %s event: %v", EventConversationUpdated, err)
		return
	}
	for _, participant := range conversation.Participants {
		if client, ok := h.presence.Get(participant.UserID); ok {
			client.Deliver(frame)
		}
	}
}

func (h *Handler) send(cl *WSClient, event string, payload interface{}) {
	frame, err := marshalEnvelope(event, payload)
	if err != nil {
		log.Printf("Error marshaling %s event: %v", event, err)
		return
	}
	cl.Deliver(frame)
}

func (h *Handler) broadcast(conversationID string, exclude *WSClient, event string, payload interface{}) {
	frame, err := marshalEnvelope(event, payload)
	if err != nil {
		log.Printf("Error marshaling %s event: %v", event, err)
		return
	}
	h.hub.Broadcast <- &RoomMessage{
		ConversationID: conversationID,
		Payload:        frame,
		Exclude:        exclude,
	}
}

func (h *Handler) sendServiceError(cl *WSClient, err error) {
	var svcErr *chat.Error
	if errors.As(err, &svcErr) {
		h.sendError(cl, string(svcErr.Code), svcErr.Message)
		return
	}
	h.sendError(cl, "internal_error", "internal error")
}

// sendError goes only to the connection that triggered the failure.
func (h *Handler) sendError(cl *WSClient, code, message string) {
	h.send(cl, EventError, ErrorPayload{Code: code, Message: message})
}
