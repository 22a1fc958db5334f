package ws

import (
	"time"

	"chessroom/internal/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 30 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 256

	// inbound flood control per connection
	frameRate  = 20
	frameBurst = 40
)

type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte

	hub     *Hub
	limiter *rate.Limiter

	// owned by the hub loop
	clientID string
	name     string
	roomCode string
	closed   bool
}

func NewClient(conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		ID:      uuid.NewString(),
		Conn:    conn,
		Send:    make(chan []byte, sendBuffer),
		hub:     hub,
		limiter: rate.NewLimiter(rate.Limit(frameRate), frameBurst),
	}
}

// Run registers the client and blocks until the connection is gone.
func (c *Client) Run() {
	if !c.hub.enqueue(event{kind: eventRegister, client: c}) {
		_ = c.Conn.Close()
		return
	}
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.enqueue(event{kind: eventUnregister, client: c})
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("ws read failed", "conn", c.ID, "error", err)
			}
			return
		}
		if !c.limiter.Allow() {
			FramesDropped.WithLabelValues("inbound").Inc()
			logger.Debug("inbound frame dropped", "conn", c.ID)
			continue
		}
		if !c.hub.enqueue(event{kind: eventFrame, client: c, data: msg}) {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Warn("ws write failed", "conn", c.ID, "error", err)
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
