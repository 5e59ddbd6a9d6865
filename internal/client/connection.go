package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/concord-chat/chatbox/internal/protocol"
)

var (
	// ErrNotConnected is returned when sending without a live connection
	ErrNotConnected = errors.New("not connected")

	// ErrSendBufferFull is returned when the outbound queue is full
	ErrSendBufferFull = errors.New("send buffer full")

	// ErrAlreadyConnected is returned by Connect on a live connection
	ErrAlreadyConnected = errors.New("already connected")
)

const (
	connWriteWait  = 10 * time.Second
	connPongWait   = 60 * time.Second
	connPingPeriod = (connPongWait * 9) / 10
	connReadLimit  = 512 * 1024
	connSendBuffer = 256
)

// ConnectionHandlers receive events from the connection's reader goroutine.
// They must not call Close.
type ConnectionHandlers struct {
	// OnMessage receives every frame, hello included
	OnMessage func(*protocol.Message)

	// OnDisconnect fires once when the connection is lost without Close
	OnDisconnect func(err error)
}

// Connection is a websocket session with the relay
type Connection struct {
	conn       *websocket.Conn
	serverAddr string
	handlers   ConnectionHandlers

	connected bool
	closing   bool
	sessionID string

	send     chan *protocol.Message
	done     chan struct{}
	doneOnce *sync.Once
	wg       sync.WaitGroup

	mu     sync.RWMutex
	logger *zap.Logger
}

// NewConnection creates a connection to serverAddr, which may be given as
// host:port or as an http, https, ws or wss URL
func NewConnection(serverAddr string, logger *zap.Logger) *Connection {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Connection{
		serverAddr: serverAddr,
		logger:     logger,
	}
}

// SetHandlers sets the event handlers. Call before Connect.
func (c *Connection) SetHandlers(h ConnectionHandlers) {
	c.mu.Lock()
	c.handlers = h
	c.mu.Unlock()
}

// Address returns the relay address
func (c *Connection) Address() string {
	return c.serverAddr
}

// WebSocketURL turns a relay address into the websocket endpoint URL
func WebSocketURL(addr string) (string, error) {
	if addr == "" {
		return "", fmt.Errorf("empty relay address")
	}
	u, err := url.Parse(addr)
	if err != nil || u.Host == "" {
		u, err = url.Parse("ws://" + addr)
		if err != nil {
			return "", fmt.Errorf("invalid relay address %q: %w", addr, err)
		}
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("invalid relay address %q: unsupported scheme %q", addr, u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	return u.String(), nil
}

// Connect dials the relay and starts the read and write pumps
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return ErrAlreadyConnected
	}

	endpoint, err := WebSocketURL(c.serverAddr)
	if err != nil {
		return err
	}

	dialer := &websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		Proxy:            http.ProxyFromEnvironment,
	}
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}

	c.conn = conn
	c.connected = true
	c.closing = false
	c.sessionID = ""
	c.send = make(chan *protocol.Message, connSendBuffer)
	c.done = make(chan struct{})
	c.doneOnce = &sync.Once{}

	c.wg.Add(2)
	go c.readPump(conn, c.send, c.done, c.doneOnce)
	go c.writePump(conn, c.send, c.done)

	c.logger.Info("Connected to relay", zap.String("url", endpoint))
	return nil
}

// Close shuts the connection down and waits for its goroutines
func (c *Connection) Close() error {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		c.wg.Wait()
		return nil
	}
	c.closing = true
	c.connected = false
	done, once := c.done, c.doneOnce
	c.mu.Unlock()

	once.Do(func() { close(done) })
	c.wg.Wait()
	c.logger.Info("Disconnected from relay")
	return nil
}

// IsConnected returns the connection state
func (c *Connection) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// SessionID returns the ID the relay assigned, empty before hello
func (c *Connection) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// Send queues a frame
func (c *Connection) Send(msg *protocol.Message) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return ErrNotConnected
	}

	select {
	case c.send <- msg:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Nick requests a nickname
func (c *Connection) Nick(nick string) error {
	return c.sendPayload(protocol.OpNick, &protocol.NickPayload{Nick: nick})
}

// Join joins a channel
func (c *Connection) Join(channel string) error {
	return c.sendPayload(protocol.OpJoin, &protocol.ChannelPayload{Channel: channel})
}

// Part leaves a channel
func (c *Connection) Part(channel string) error {
	return c.sendPayload(protocol.OpPart, &protocol.ChannelPayload{Channel: channel})
}

// Say sends a chat line
func (c *Connection) Say(channel, text string) error {
	return c.sendPayload(protocol.OpSay, &protocol.SayPayload{
		Channel: channel,
		Text:    text,
		Nonce:   uuid.New().String(),
	})
}

func (c *Connection) sendPayload(op protocol.OpCode, payload interface{}) error {
	msg, err := protocol.NewMessage(op, payload)
	if err != nil {
		return err
	}
	return c.Send(msg)
}

func (c *Connection) readPump(conn *websocket.Conn, send chan *protocol.Message, done chan struct{}, once *sync.Once) {
	defer c.wg.Done()

	conn.SetReadLimit(connReadLimit)
	conn.SetReadDeadline(time.Now().Add(connPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(connPongWait))
		return nil
	})

	var readErr error
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			readErr = err
			break
		}

		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Debug("Failed to parse frame", zap.Error(err))
			continue
		}
		c.handleMessage(&msg)
	}

	once.Do(func() { close(done) })

	c.mu.Lock()
	lost := !c.closing && c.send == send
	if lost {
		c.connected = false
	}
	onDisconnect := c.handlers.OnDisconnect
	c.mu.Unlock()

	if lost {
		c.logger.Warn("Relay connection lost", zap.Error(readErr))
		if onDisconnect != nil {
			onDisconnect(readErr)
		}
	}
}

func (c *Connection) writePump(conn *websocket.Conn, send chan *protocol.Message, done chan struct{}) {
	ticker := time.NewTicker(connPingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
		c.wg.Done()
	}()

	for {
		select {
		case msg := <-send:
			data, err := json.Marshal(msg)
			if err != nil {
				c.logger.Error("Failed to marshal frame", zap.Error(err))
				continue
			}

			conn.SetWriteDeadline(time.Now().Add(connWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug("Failed to write frame", zap.Error(err))
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(connWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			conn.SetWriteDeadline(time.Now().Add(connWriteWait))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *Connection) handleMessage(msg *protocol.Message) {
	if msg.Op == protocol.OpHello {
		var payload protocol.HelloPayload
		if err := msg.Decode(&payload); err == nil {
			c.mu.Lock()
			c.sessionID = payload.SessionID
			c.mu.Unlock()
		}
	}

	c.mu.RLock()
	onMessage := c.handlers.OnMessage
	c.mu.RUnlock()
	if onMessage != nil {
		onMessage(msg)
	}
}
