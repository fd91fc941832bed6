package websocket

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/thereayou/presence-relay/internal/relay"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer
	pongWait = 60 * time.Second

	// Send pings with this period, must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound frame size
	maxMessageSize = 64 * 1024
)

// ClientMessageHandler turns inbound envelopes into dispatcher events.
type ClientMessageHandler interface {
	// HandleMessage returns the ack to send back, or nil for events without one.
	HandleMessage(client *Client, env *Envelope) *relay.Ack
	Disconnect(client *Client, reason string)
}

// Client is one websocket connection. It satisfies relay.Peer.
type Client struct {
	id   string
	Conn *websocket.Conn
	Send chan []byte
	log  *slog.Logger

	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn, bufferSize int, log *slog.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		id:   id,
		Conn: conn,
		Send: make(chan []byte, bufferSize),
		log:  log.With("connection_id", id),
	}
}

func (c *Client) ID() string {
	return c.id
}

// Deliver enqueues out without blocking.
func (c *Client) Deliver(out relay.Outbound) error {
	data, err := encode(out.Type, "", out.Data)
	if err != nil {
		return err
	}
	return c.enqueue(data)
}

// Close asks the peer to go away and closes the socket, which ends ReadPump.
func (c *Client) Close() error {
	return c.closeWith(websocket.CloseGoingAway, "server shutting down")
}

func (c *Client) closeWith(code int, text string) error {
	var err error
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(code, text)
		_ = c.Conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		err = c.Conn.Close()
	})
	return err
}

func (c *Client) enqueue(data []byte) error {
	select {
	case c.Send <- data:
		return nil
	default:
		return ErrClientQueueFull
	}
}

// ReadPump reads envelopes until the connection fails, then disconnects the
// client from the handler exactly once.
func (c *Client) ReadPump(handler ClientMessageHandler) {
	reason := "transport close"
	defer func() {
		handler.Disconnect(c, reason)
		close(c.Send)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("WebSocket error", "error", err)
			}
			reason = closeReason(err)
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Type == "" {
			c.SendError(ErrInvalidMessage.Error())
			continue
		}

		ack := handler.HandleMessage(c, &env)
		if ack == nil {
			continue
		}
		if !c.reply(env.Type, env.AckID, *ack) {
			reason = "slow consumer"
			return
		}
	}
}

// reply queues the ack for an event. A client whose queue cannot take it is
// closed as a slow consumer.
func (c *Client) reply(msgType relay.EventType, ackID string, ack relay.Ack) bool {
	err := c.SendAck(ackID, ack)
	if err == nil {
		return true
	}
	c.log.Warn("Ack not queued, closing client", "type", msgType, "error", err)
	_ = c.closeWith(websocket.ClosePolicyViolation, "send queue full")
	return false
}

// WritePump writes queued messages and pings until Send is closed.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) SendAck(ackID string, ack relay.Ack) error {
	data, err := encode(TypeAck, ackID, ack)
	if err != nil {
		return err
	}
	return c.enqueue(data)
}

func (c *Client) SendError(errorMsg string) {
	data, err := encode(TypeError, "", map[string]string{"error": errorMsg})
	if err != nil {
		return
	}
	if err := c.enqueue(data); err != nil {
		c.log.Warn("Failed to send error", "error", err)
	}
}

func closeReason(err error) string {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		if closeErr.Text != "" {
			return closeErr.Text
		}
		switch closeErr.Code {
		case websocket.CloseNormalClosure:
			return "client disconnect"
		case websocket.CloseGoingAway:
			return "going away"
		}
		return "transport close"
	}
	return "transport error"
}
