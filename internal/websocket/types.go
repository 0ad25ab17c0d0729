package websocket

import (
	"encoding/json"

	"tourchat-backend/internal/dto"
)

// Inbound events.
const (
	EventJoin        = "join"
	EventSendMessage = "send_message"
	EventMarkAsRead  = "mark_as_read"
	EventTyping      = "typing"
)

// Outbound events.
const (
	EventJoined              = "joined"
	EventNewMessage          = "new_message"
	EventConversationUpdated = "conversation_updated"
	EventMarkedAsRead        = "marked_as_read"
	EventUserTyping          = "user_typing"
	EventError               = "error"
)

type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type JoinPayload struct {
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId,omitempty"`
}

type SendMessagePayload struct {
	ConversationID string `json:"conversationId"`
	Content        string `json:"content"`
}

type MarkAsReadPayload struct {
	ConversationID string `json:"conversationId"`
}

type TypingPayload struct {
	ConversationID string `json:"conversationId"`
	IsTyping       bool   `json:"isTyping"`
}

// JoinedPayload acks a join. Conversation is nil for a presence-only
// join (staff with no conversation open yet).
type JoinedPayload struct {
	Conversation *dto.ConversationResponse `json:"conversation,omitempty"`
	Messages     []dto.MessageResponse     `json:"messages,omitempty"`
}

type MarkedAsReadPayload struct {
	ConversationID string `json:"conversationId"`
	ReaderID       string `json:"readerId"`
	UnreadCount    int    `json:"unreadCount"`
}

type UserTypingPayload struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	UserName       string `json:"userName"`
	IsTyping       bool   `json:"isTyping"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func marshalEnvelope(event string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}
