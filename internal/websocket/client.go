package websocket

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type WSClient struct {
	Conn     *websocket.Conn
	Message  chan []byte
	ID       string
	UserID   string
	UserName string
	Role     string

	done      chan struct{}
	closeOnce sync.Once

	// mu guards conn writes, isClosed, and the current room binding.
	mu             sync.Mutex
	isClosed       bool
	conversationID string
}

// Room returns the conversation this connection currently subscribes
// to, "" when the client has not joined one.
func (cl *WSClient) Room() string {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.conversationID
}

func (cl *WSClient) setRoom(conversationID string) {
	cl.mu.Lock()
	cl.conversationID = conversationID
	cl.mu.Unlock()
}

// Shutdown releases the connection. The Message channel is never
// closed, writers race-free drop into it until done is observed.
func (cl *WSClient) Shutdown() {
	cl.closeOnce.Do(func() {
		close(cl.done)
		cl.mu.Lock()
		cl.isClosed = true
		if cl.Conn != nil {
			cl.Conn.Close()
		}
		cl.mu.Unlock()
	})
}

// Deliver queues a frame for the write pump without blocking. It
// reports false for a shut down or back-pressured client.
func (cl *WSClient) Deliver(payload []byte) bool {
	select {
	case <-cl.done:
		return false
	default:
	}
	select {
	case cl.Message <- payload:
		return true
	default:
		return false
	}
}

func (cl *WSClient) keepAlive() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-cl.done:
			return
		case <-ticker.C:
			cl.mu.Lock()
			if cl.isClosed {
				cl.mu.Unlock()
				return
			}
			err := cl.Conn.WriteMessage(websocket.PingMessage, nil)
			cl.mu.Unlock()

			if err != nil {
				log.Printf("Ping error for client %s: %v", cl.ID, err)
				return
			}
		}
	}
}

func (cl *WSClient) writeMessage() {
	defer cl.Shutdown()

	for {
		select {
		case <-cl.done:
			return
		case payload := <-cl.Message:
			cl.mu.Lock()
			if cl.isClosed {
				cl.mu.Unlock()
				return
			}
			err := cl.Conn.WriteMessage(websocket.TextMessage, payload)
			cl.mu.Unlock()

			if err != nil {
				log.Printf("Error sending message to client %s: %v", cl.ID, err)
				return
			}
		}
	}
}
