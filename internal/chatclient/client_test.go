package chatclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"tourchat-backend/internal/dto"
	ws "tourchat-backend/internal/websocket"
)

type fakeConn struct {
	mu      sync.Mutex
	written [][]byte
	frames  chan []byte
	closed  bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{frames: make(chan []byte, 16)}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	frame, ok := <-f.frames
	if !ok {
		return 0, nil, errors.New("connection closed")
	}
	return 1, frame, nil
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("connection closed")
	}
	f.written = append(f.written, append([]byte(nil), data...))
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.frames)
	}
	return nil
}

func (f *fakeConn) writtenEnvelopes(t *testing.T) []ws.Envelope {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	envs := make([]ws.Envelope, 0, len(f.written))
	for _, frame := range f.written {
		var env ws.Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			t.Fatalf("unmarshal written frame: %v", err)
		}
		envs = append(envs, env)
	}
	return envs
}

type fakeTimer struct {
	mu     sync.Mutex
	fn     func()
	resets int
}

func (f *fakeTimer) Reset(d time.Duration) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	return true
}

func (f *fakeTimer) Stop() bool { return true }

func (f *fakeTimer) fire() {
	f.fn()
}

func newConnectedClient(t *testing.T, cfg Config) (*Client, *fakeConn) {
	t.Helper()

	conn := newFakeConn()
	cfg.Token = "token1"
	cfg.UserID = "cust-1"
	cfg.WebsocketURL = "ws://example/api/ws/v1/ws"
	cfg.Dial = func(ctx context.Context, url string) (Conn, error) {
		return conn, nil
	}

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect error: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return client, conn
}

func joinedFrame(t *testing.T, conversationID string, messages ...dto.MessageResponse) []byte {
	t.Helper()
	payload := ws.JoinedPayload{
		Conversation: &dto.ConversationResponse{ConversationID: conversationID, LastMessage: "hello"},
		Messages:     messages,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal joined payload: %v", err)
	}
	frame, err := json.Marshal(ws.Envelope{Event: ws.EventJoined, Data: data})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return frame
}

func eventFrame(t *testing.T, event string, payload interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	frame, err := json.Marshal(ws.Envelope{Event: event, Data: data})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return frame
}

func TestNewRequiresToken(t *testing.T) {
	if _, err := New(Config{WebsocketURL: "ws://example/ws"}); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
}

func TestConnectSendsJoin(t *testing.T) {
	var dialedURL string
	conn := newFakeConn()
	client, err := New(Config{
		Token:        "token1",
		UserID:       "cust-1",
		WebsocketURL: "ws://example/api/ws/v1/ws",
		Dial: func(ctx context.Context, url string) (Conn, error) {
			dialedURL = url
			return conn, nil
		},
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect error: %v", err)
	}
	defer client.Close()

	if dialedURL != "ws://example/api/ws/v1/ws?token=token1" {
		t.Fatalf("expected token in dial url, got %s", dialedURL)
	}

	envs := conn.writtenEnvelopes(t)
	if len(envs) != 1 || envs[0].Event != ws.EventJoin {
		t.Fatalf("expected a join frame, got %+v", envs)
	}
	var join ws.JoinPayload
	if err := json.Unmarshal(envs[0].Data, &join); err != nil {
		t.Fatalf("unmarshal join payload: %v", err)
	}
	if join.UserID != "cust-1" {
		t.Fatalf("expected join as cust-1, got %s", join.UserID)
	}
}

func TestNewMessageDeduplicatedById(t *testing.T) {
	var delivered []dto.MessageResponse
	client, _ := newConnectedClient(t, Config{
		OnMessage: func(message dto.MessageResponse) {
			delivered = append(delivered, message)
		},
	})

	client.handleFrame(joinedFrame(t, "conv-1"))

	message := dto.MessageResponse{
		MessageID:      "msg-1",
		ConversationID: "conv-1",
		Content:        "Hi",
	}
	client.handleFrame(eventFrame(t, ws.EventNewMessage, message))
	client.handleFrame(eventFrame(t, ws.EventNewMessage, message))

	if len(client.Messages()) != 1 {
		t.Fatalf("expected one message after duplicate push, got %d", len(client.Messages()))
	}
	if len(delivered) != 1 {
		t.Fatalf("expected one callback, got %d", len(delivered))
	}
}

func TestNewMessageIgnoresOtherConversations(t *testing.T) {
	client, _ := newConnectedClient(t, Config{})
	client.handleFrame(joinedFrame(t, "conv-1"))

	client.handleFrame(eventFrame(t, ws.EventNewMessage, dto.MessageResponse{
		MessageID:      "msg-9",
		ConversationID: "conv-other",
		Content:        "not for this view",
	}))

	if len(client.Messages()) != 0 {
		t.Fatalf("expected no messages, got %d", len(client.Messages()))
	}
}

func TestConversationUpdatedPatchesInPlace(t *testing.T) {
	client, _ := newConnectedClient(t, Config{})
	client.handleFrame(joinedFrame(t, "conv-1"))

	client.handleFrame(eventFrame(t, ws.EventConversationUpdated, dto.ConversationResponse{
		ConversationID: "conv-1",
		LastMessage:    "latest preview",
		UnreadCount:    3,
	}))

	conversations := client.Conversations()
	if len(conversations) != 1 {
		t.Fatalf("expected one conversation, got %d", len(conversations))
	}
	if conversations[0].LastMessage != "latest preview" || conversations[0].UnreadCount != 3 {
		t.Fatalf("expected patched preview, got %+v", conversations[0])
	}

	client.handleFrame(eventFrame(t, ws.EventConversationUpdated, dto.ConversationResponse{
		ConversationID: "conv-2",
		LastMessage:    "another customer",
	}))

	conversations = client.Conversations()
	if len(conversations) != 2 {
		t.Fatalf("expected unknown conversation to be inserted, got %d", len(conversations))
	}
	if conversations[0].ConversationID != "conv-2" {
		t.Fatalf("expected new conversation first, got %s", conversations[0].ConversationID)
	}
}

func TestTypingDebounce(t *testing.T) {
	client, conn := newConnectedClient(t, Config{})
	client.handleFrame(joinedFrame(t, "conv-1"))

	timer := &fakeTimer{}
	client.typing = newTypingDebouncerWithTimer(func(d time.Duration, fn func()) Timer {
		timer.fn = fn
		return timer
	}, client.sendTyping)

	client.Typing()
	client.Typing()
	client.Typing()

	envs := conn.writtenEnvelopes(t)
	typingFrames := 0
	for _, env := range envs {
		if env.Event == ws.EventTyping {
			typingFrames++
		}
	}
	if typingFrames != 1 {
		t.Fatalf("expected a single typing frame for the burst, got %d", typingFrames)
	}
	if timer.resets != 2 {
		t.Fatalf("expected two timer resets, got %d", timer.resets)
	}

	timer.fire()

	envs = conn.writtenEnvelopes(t)
	var last ws.TypingPayload
	for _, env := range envs {
		if env.Event == ws.EventTyping {
			if err := json.Unmarshal(env.Data, &last); err != nil {
				t.Fatalf("unmarshal typing payload: %v", err)
			}
		}
	}
	if last.IsTyping {
		t.Fatal("expected trailing typing:false after idle")
	}
}

func TestSendMessageFallsBackToHTTP(t *testing.T) {
	stored := dto.SendMessageResponse{
		Message: dto.MessageResponse{
			MessageID:      "msg-5",
			ConversationID: "conv-1",
			Content:        "posted over http",
		},
		Conversation: dto.ConversationResponse{
			ConversationID: "conv-1",
			LastMessage:    "posted over http",
			UnreadCount:    1,
		},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/send" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer token1" {
			t.Fatalf("expected bearer token, got %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(stored)
	}))
	defer server.Close()

	client, conn := newConnectedClient(t, Config{})
	client.cfg.APIBaseURL = server.URL
	client.handleFrame(joinedFrame(t, "conv-1"))

	// Drop the socket so the send has to take the HTTP path.
	conn.Close()
	client.mu.Lock()
	client.conn = nil
	client.mu.Unlock()

	if err := client.SendMessage(context.Background(), "posted over http"); err != nil {
		t.Fatalf("SendMessage error: %v", err)
	}

	messages := client.Messages()
	if len(messages) != 1 || messages[0].MessageID != "msg-5" {
		t.Fatalf("expected fallback message in log, got %+v", messages)
	}

	// A later broadcast of the same stored message must not duplicate.
	client.handleFrame(eventFrame(t, ws.EventNewMessage, stored.Message))
	if len(client.Messages()) != 1 {
		t.Fatalf("expected echo to deduplicate, got %d messages", len(client.Messages()))
	}
}

func TestErrorEventReachesCallback(t *testing.T) {
	var code, message string
	client, _ := newConnectedClient(t, Config{
		OnError: func(c, m string) {
			code = c
			message = m
		},
	})

	client.handleFrame(eventFrame(t, ws.EventError, ws.ErrorPayload{
		Code:    "validation_error",
		Message: "message content is required",
	}))

	if code != "validation_error" || message != "message content is required" {
		t.Fatalf("expected error callback, got %q %q", code, message)
	}
}
