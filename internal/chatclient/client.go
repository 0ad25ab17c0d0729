package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"tourchat-backend/internal/dto"
	ws "tourchat-backend/internal/websocket"

	"github.com/gorilla/websocket"
)

// Conn is the slice of a websocket connection the client needs. Tests
// inject fakes, production code wraps *websocket.Conn.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type Dialer func(ctx context.Context, url string) (Conn, error)

func gorillaDialer(ctx context.Context, url string) (Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

type Config struct {
	// WebsocketURL is the push channel endpoint without the token query.
	WebsocketURL string
	// APIBaseURL is the HTTP API root used for the send fallback.
	APIBaseURL string
	// Token is the identity access token. The client refuses to start
	// without one.
	Token  string
	UserID string

	// Dial and HTTPClient default to gorilla's dialer and
	// http.DefaultClient.
	Dial       Dialer
	HTTPClient *http.Client

	OnMessage      func(dto.MessageResponse)
	OnConversation func(dto.ConversationResponse)
	OnTyping       func(ws.UserTypingPayload)
	OnError        func(code, message string)
}

type Client struct {
	cfg Config

	mu             sync.Mutex
	conn           Conn
	conversations  []dto.ConversationResponse
	messages       []dto.MessageResponse
	seen           map[string]bool
	conversationID string

	typing *typingDebouncer
}

var ErrNoToken = errors.New("chatclient: identity token is required")

func New(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, ErrNoToken
	}
	if cfg.Dial == nil {
		cfg.Dial = gorillaDialer
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}

	c := &Client{
		cfg:  cfg,
		seen: make(map[string]bool),
	}
	c.typing = newTypingDebouncer(time.AfterFunc, c.sendTyping)
	return c, nil
}

// Connect dials the push channel, joins, and starts consuming frames.
// It returns once the connection is established; frames are handled on
// a background goroutine until the socket drops.
func (c *Client) Connect(ctx context.Context) error {
	conn, err := c.cfg.Dial(ctx, c.cfg.WebsocketURL+"?token="+c.cfg.Token)
	if err != nil {
		return fmt.Errorf("dial push channel: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	conversationID := c.conversationID
	c.mu.Unlock()

	join := ws.JoinPayload{
		UserID:         c.cfg.UserID,
		ConversationID: conversationID,
	}
	if err := c.writeEvent(ws.EventJoin, join); err != nil {
		conn.Close()
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		return fmt.Errorf("join conversation: %w", err)
	}

	go c.readLoop(conn)
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	c.typing.stop()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

func (c *Client) Conversations() []dto.ConversationResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]dto.ConversationResponse(nil), c.conversations...)
}

func (c *Client) Messages() []dto.MessageResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]dto.MessageResponse(nil), c.messages...)
}

func (c *Client) ConversationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conversationID
}

// SendMessage pushes through the socket when it is up and falls back
// to the HTTP endpoint otherwise. Either way the local log stays
// consistent: socket sends reconcile when the broadcast echoes back,
// fallback sends append the stored message immediately and the echo is
// deduplicated by message id.
func (c *Client) SendMessage(ctx context.Context, content string) error {
	c.mu.Lock()
	conn := c.conn
	conversationID := c.conversationID
	c.mu.Unlock()

	if conversationID == "" {
		return errors.New("chatclient: no open conversation")
	}

	if conn != nil {
		err := c.writeEvent(ws.EventSendMessage, ws.SendMessagePayload{
			ConversationID: conversationID,
			Content:        content,
		})
		if err == nil {
			return nil
		}
	}

	return c.sendFallback(ctx, conversationID, content)
}

func (c *Client) sendFallback(ctx context.Context, conversationID, content string) error {
	body, err := json.Marshal(dto.SendMessageRequest{
		ConversationID: conversationID,
		Content:        content,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIBaseURL+"/chat/send", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	res, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("send fallback: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusCreated {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(res.Body).Decode(&apiErr)
		return fmt.Errorf("send fallback: status %d: %s", res.StatusCode, apiErr.Message)
	}

	var resp dto.SendMessageResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return fmt.Errorf("send fallback: decode response: %w", err)
	}

	c.appendMessage(resp.Message)
	c.patchConversation(resp.Conversation)
	return nil
}

// Typing reports keyboard activity. The debouncer turns a burst of
// calls into a single typing:true and a trailing typing:false.
func (c *Client) Typing() {
	c.mu.Lock()
	conversationID := c.conversationID
	conn := c.conn
	c.mu.Unlock()
	if conn == nil || conversationID == "" {
		return
	}
	c.typing.keystroke()
}

func (c *Client) MarkAsRead() error {
	c.mu.Lock()
	conversationID := c.conversationID
	c.mu.Unlock()
	if conversationID == "" {
		return errors.New("chatclient: no open conversation")
	}
	return c.writeEvent(ws.EventMarkAsRead, ws.MarkAsReadPayload{ConversationID: conversationID})
}

func (c *Client) sendTyping(isTyping bool) {
	c.mu.Lock()
	conversationID := c.conversationID
	c.mu.Unlock()
	if conversationID == "" {
		return
	}
	_ = c.writeEvent(ws.EventTyping, ws.TypingPayload{
		ConversationID: conversationID,
		IsTyping:       isTyping,
	})
}

func (c *Client) writeEvent(event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(ws.Envelope{Event: event, Data: data})
	if err != nil {
		return err
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.New("chatclient: not connected")
	}
	return conn.WriteMessage(websocket.TextMessage, frame)
}

func (c *Client) readLoop(conn Conn) {
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			c.mu.Unlock()
			return
		}
		c.handleFrame(frame)
	}
}

func (c *Client) handleFrame(frame []byte) {
	var env ws.Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return
	}

	switch env.Event {
	case ws.EventJoined:
		var payload ws.JoinedPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return
		}
		c.handleJoined(payload)
	case ws.EventNewMessage:
		var message dto.MessageResponse
		if err := json.Unmarshal(env.Data, &message); err != nil {
			return
		}
		c.appendMessage(message)
	case ws.EventConversationUpdated:
		var conversation dto.ConversationResponse
		if err := json.Unmarshal(env.Data, &conversation); err != nil {
			return
		}
		c.patchConversation(conversation)
	case ws.EventMarkedAsRead:
		var payload ws.MarkedAsReadPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return
		}
		c.handleMarkedAsRead(payload)
	case ws.EventUserTyping:
		var payload ws.UserTypingPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return
		}
		if c.cfg.OnTyping != nil {
			c.cfg.OnTyping(payload)
		}
	case ws.EventError:
		var payload ws.ErrorPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return
		}
		if c.cfg.OnError != nil {
			c.cfg.OnError(payload.Code, payload.Message)
		}
	}
}

func (c *Client) handleJoined(payload ws.JoinedPayload) {
	// A presence-only ack carries no conversation; the local view is
	// left untouched.
	if payload.Conversation == nil {
		return
	}

	c.mu.Lock()
	c.conversationID = payload.Conversation.ConversationID
	c.messages = append([]dto.MessageResponse(nil), payload.Messages...)
	c.seen = make(map[string]bool, len(payload.Messages))
	for _, message := range payload.Messages {
		c.seen[message.MessageID] = true
	}
	c.mu.Unlock()

	c.patchConversation(*payload.Conversation)
}

// appendMessage adds a pushed or fallback-stored message to the open
// conversation's log. Frames for other conversations and ids already
// in the log are ignored.
func (c *Client) appendMessage(message dto.MessageResponse) {
	c.mu.Lock()
	if message.ConversationID != c.conversationID || c.seen[message.MessageID] {
		c.mu.Unlock()
		return
	}
	c.seen[message.MessageID] = true
	c.messages = append(c.messages, message)
	c.mu.Unlock()

	if c.cfg.OnMessage != nil {
		c.cfg.OnMessage(message)
	}
}

// patchConversation updates the sidebar entry in place, inserting it
// at the front when the conversation is not known yet.
func (c *Client) patchConversation(conversation dto.ConversationResponse) {
	c.mu.Lock()
	found := false
	for i := range c.conversations {
		if c.conversations[i].ConversationID == conversation.ConversationID {
			c.conversations[i] = conversation
			found = true
			break
		}
	}
	if !found {
		c.conversations = append([]dto.ConversationResponse{conversation}, c.conversations...)
	}
	c.mu.Unlock()

	if c.cfg.OnConversation != nil {
		c.cfg.OnConversation(conversation)
	}
}

func (c *Client) handleMarkedAsRead(payload ws.MarkedAsReadPayload) {
	c.mu.Lock()
	for i := range c.conversations {
		if c.conversations[i].ConversationID == payload.ConversationID {
			c.conversations[i].UnreadCount = payload.UnreadCount
			break
		}
	}
	if payload.ConversationID == c.conversationID {
		for i := range c.messages {
			if c.messages[i].SenderID != payload.ReaderID {
				c.messages[i].IsRead = true
			}
		}
	}
	c.mu.Unlock()
}
