package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/concord-chat/chatbox/internal/protocol"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Size of client send buffer
	sendBufferSize = 256
)

// Client is one websocket session on the relay
type Client struct {
	// The WebSocket connection
	conn *websocket.Conn

	// The hub this client is connected to
	hub *Hub

	// Buffered channel of outbound frames, closed by the hub
	send     chan *protocol.Message
	sendMu   sync.Mutex
	sendDone bool

	// Assigned on connect
	SessionID string

	nick   string
	nickMu sync.RWMutex

	handlers       *Handlers
	maxMessageSize int64
	logger         *zap.Logger
}

// NewClient creates a session for conn with a fresh session ID
func NewClient(conn *websocket.Conn, hub *Hub, handlers *Handlers, maxMessageSize int64, logger *zap.Logger) *Client {
	id := uuid.New().String()
	return &Client{
		conn:           conn,
		hub:            hub,
		send:           make(chan *protocol.Message, sendBufferSize),
		SessionID:      id,
		handlers:       handlers,
		maxMessageSize: maxMessageSize,
		logger:         logger.With(zap.String("session", id)),
	}
}

// Nick returns the session's nickname, empty until one is claimed
func (c *Client) Nick() string {
	c.nickMu.RLock()
	defer c.nickMu.RUnlock()
	return c.nick
}

func (c *Client) setNick(nick string) {
	c.nickMu.Lock()
	c.nick = nick
	c.nickMu.Unlock()
}

// ReadPump pumps frames from the websocket to the handlers. It unregisters
// the client when the connection ends.
func (c *Client) ReadPump() {
	defer func() {
		c.handlers.HandleDisconnect(c)
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("WebSocket error", zap.Error(err))
			}
			return
		}

		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Debug("Failed to parse frame", zap.Error(err))
			c.sendError(protocol.ErrorCodeInvalidPayload, "Invalid message format")
			continue
		}

		c.handleMessage(&msg)
	}
}

// WritePump pumps frames from the send queue to the websocket
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(msg)
			if err != nil {
				c.logger.Error("Failed to marshal frame", zap.Error(err))
				continue
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug("Failed to write frame", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendHello sends the session ID to the peer
func (c *Client) SendHello() {
	msg, err := protocol.NewMessage(protocol.OpHello, &protocol.HelloPayload{
		SessionID: c.SessionID,
	})
	if err != nil {
		c.logger.Error("Failed to create hello frame", zap.Error(err))
		return
	}
	c.Send(msg)
}

func (c *Client) handleMessage(msg *protocol.Message) {
	switch msg.Op {
	case protocol.OpNick:
		c.handlers.HandleNick(c, msg)

	case protocol.OpJoin:
		c.handlers.HandleJoin(c, msg)

	case protocol.OpPart:
		c.handlers.HandlePart(c, msg)

	case protocol.OpSay:
		c.handlers.HandleSay(c, msg)

	default:
		c.logger.Debug("Unknown opcode", zap.Stringer("op", msg.Op))
		c.sendError(protocol.ErrorCodeUnknown, "Unknown operation")
	}
}

func (c *Client) sendError(code int, message string) {
	msg, err := protocol.NewMessage(protocol.OpError, &protocol.ErrorPayload{
		Code:    code,
		Message: message,
	})
	if err != nil {
		return
	}
	c.Send(msg)
}

func (c *Client) sendNotice(channel, text string) {
	msg, err := protocol.NewMessage(protocol.OpNotice, &protocol.NoticePayload{
		Channel: channel,
		Text:    text,
	})
	if err != nil {
		return
	}
	c.Send(msg)
}

// Send queues a frame for this client, dropping it if the buffer is full
func (c *Client) Send(msg *protocol.Message) {
	if !c.enqueue(msg) {
		c.logger.Warn("Client send buffer full, dropping frame", zap.Stringer("op", msg.Op))
	}
}

// enqueue reports false when the frame could not be queued
func (c *Client) enqueue(msg *protocol.Message) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.sendDone {
		return true
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.sendDone {
		c.sendDone = true
		close(c.send)
	}
}
