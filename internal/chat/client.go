package chat

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 << 10
)

// Client is one websocket connection. A client may sit in several rooms.
type Client struct {
	ID       string
	UserID   string
	UserName string

	conn      *websocket.Conn
	hub       *Hub
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	logger    logrus.FieldLogger
}

// NewClient registers a connection with hub. UserID and UserName are empty
// for unauthenticated connections. conn may be nil in tests that read the
// outbound queue directly.
func NewClient(hub *Hub, conn *websocket.Conn, userID, userName string, buffer int) *Client {
	if buffer <= 0 {
		buffer = 64
	}
	id := uuid.New().String()
	return &Client{
		ID:       id,
		UserID:   userID,
		UserName: userName,
		conn:     conn,
		hub:      hub,
		send:     make(chan []byte, buffer),
		done:     make(chan struct{}),
		logger:   hub.logger.WithFields(logrus.Fields{"client_id": id, "user_id": userID}),
	}
}

// Authenticated reports whether the connection carries a session identity.
func (c *Client) Authenticated() bool {
	return c.UserID != ""
}

// Emit queues an event for this client only. It never blocks; false means
// the event was dropped.
func (c *Client) Emit(event string, data any) bool {
	payload, err := encode(event, data)
	if err != nil {
		c.logger.WithError(err).WithField("event", event).Error("failed to encode chat event")
		return false
	}
	return c.enqueue(payload)
}

// EmitError queues an error event for this client.
func (c *Client) EmitError(code, message string) bool {
	return c.Emit(EventError, ErrorPayload{Code: code, Message: message})
}

func (c *Client) enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// Close detaches the client from every room and stops its pumps.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.hub.Unsubscribe(c)
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// ReadPump decodes inbound frames and passes them to handle until the
// connection fails or closes. It closes the client on return.
func (c *Client) ReadPump(handle func(*Client, Envelope)) {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.WithError(err).Warn("chat connection closed unexpectedly")
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
			c.EmitError(CodeInvalidPayload, "frame must be {\"event\": ..., \"data\": ...}")
			continue
		}
		handle(c, env)
	}
}

// WritePump drains the outbound queue to the connection and keeps it alive
// with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
