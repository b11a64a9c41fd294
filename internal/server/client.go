package server

import (
	"encoding/json"
	"errors"
	"log"
	"sync"

	"skullking-game/internal/protocol"

	"github.com/gorilla/websocket"
)

// Client represents a single WebSocket connection.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	session *Session
	Id      string // Unique identifier for the connection

	mu     sync.Mutex
	closed bool
	send   chan []byte
}

// Send enqueues a message for the write pump. It fails once the connection
// has been closed.
func (c *Client) Send(message []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("connection is closed")
	}
	select {
	case c.send <- message:
		return nil
	default:
		return errors.New("send buffer is full")
	}
}

// Close shuts the connection down and releases the write pump. Safe to call
// more than once.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	c.conn.Close()
	if c.session != nil {
		c.session.Close()
	}
}

// ReadPump handles incoming messages from the WebSocket connection.
// Acceptances and rejections are dispatched inline so they can wake a
// blocked notification send; commands are queued to the session's worker.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
	}()

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			log.Printf("Read error from client %s: %v", c.Id, err)
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Unexpected close error: %v", err)
			}
			break
		}

		var msg protocol.Message
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			log.Printf("Error unmarshalling message from client %s: %v", c.Id, err)
			continue
		}

		c.session.HandleMessage(msg)
	}
}

// WritePump handles outgoing messages to the WebSocket connection.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("Write error to client %s: %v", c.Id, err)
			break
		}
	}
}
