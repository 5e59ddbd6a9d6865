package server

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/concord-chat/chatbox/internal/protocol"
)

// Hub maintains the set of connected clients, their nicknames and channel
// memberships, and fans frames out to them
type Hub struct {
	// Connected clients by session ID
	clients map[string]*Client

	// Clients by nickname
	nicks map[string]*Client

	// Members by channel, then session ID
	channels map[string]map[string]*Client

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Outbound frames
	broadcast chan *BroadcastMessage

	// Closed when Run returns
	quit chan struct{}

	mu     sync.RWMutex
	logger *zap.Logger
}

// BroadcastMessage is a frame addressed to a channel's members
type BroadcastMessage struct {
	Channel string

	// Exclude this session from the broadcast (usually the sender)
	ExcludeSession string

	Message *protocol.Message
}

// NewHub creates a new Hub instance
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		nicks:      make(map[string]*Client),
		channels:   make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
		quit:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the hub's main loop and blocks until ctx is done. On return
// every client's send queue is closed.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.broadcastMessage(msg)

		case <-ctx.Done():
			return
		}
	}
}

// Register adds a client. It returns false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.quit:
		return false
	}
}

// Unregister removes a client and closes its send queue
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

// Broadcast queues a frame for a channel's members
func (h *Hub) Broadcast(msg *BroadcastMessage) {
	select {
	case h.broadcast <- msg:
	case <-h.quit:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.SessionID] = client
	h.logger.Info("Client registered", zap.String("session", client.SessionID))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.SessionID]; !ok {
		return
	}

	delete(h.clients, client.SessionID)
	if nick := client.Nick(); nick != "" && h.nicks[nick] == client {
		delete(h.nicks, nick)
	}
	for channel, members := range h.channels {
		delete(members, client.SessionID)
		if len(members) == 0 {
			delete(h.channels, channel)
		}
	}

	client.closeSend()
	h.logger.Info("Client unregistered",
		zap.String("session", client.SessionID),
		zap.String("nick", client.Nick()))
}

func (h *Hub) broadcastMessage(msg *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, client := range h.channels[msg.Channel] {
		if id == msg.ExcludeSession {
			continue
		}

		if !client.enqueue(msg.Message) {
			h.logger.Warn("Client buffer full, dropping frame",
				zap.String("session", id),
				zap.Stringer("op", msg.Message.Op))
		}
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	close(h.quit)
	for id, client := range h.clients {
		client.closeSend()
		delete(h.clients, id)
	}
	h.nicks = make(map[string]*Client)
	h.channels = make(map[string]map[string]*Client)
}

// ClaimNick assigns nick to client, releasing the client's previous nickname.
// It reports false when another client holds nick.
func (h *Hub) ClaimNick(client *Client, nick string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if holder, ok := h.nicks[nick]; ok && holder != client {
		return false
	}
	if old := client.Nick(); old != "" {
		delete(h.nicks, old)
	}
	h.nicks[nick] = client
	client.setNick(nick)
	return true
}

// JoinChannel adds a client to a channel. It reports false if the client was
// already a member.
func (h *Hub) JoinChannel(client *Client, channel string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	members := h.channels[channel]
	if members == nil {
		members = make(map[string]*Client)
		h.channels[channel] = members
	}
	if _, ok := members[client.SessionID]; ok {
		return false
	}
	members[client.SessionID] = client
	return true
}

// LeaveChannel removes a client from a channel. It reports false if the
// client was not a member.
func (h *Hub) LeaveChannel(client *Client, channel string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	members := h.channels[channel]
	if _, ok := members[client.SessionID]; !ok {
		return false
	}
	delete(members, client.SessionID)
	if len(members) == 0 {
		delete(h.channels, channel)
	}
	return true
}

// IsMember reports whether the client has joined channel
func (h *Hub) IsMember(client *Client, channel string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.channels[channel][client.SessionID]
	return ok
}

// ChannelsOf returns the channels a client has joined, sorted
func (h *Hub) ChannelsOf(client *Client) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []string
	for channel, members := range h.channels {
		if _, ok := members[client.SessionID]; ok {
			out = append(out, channel)
		}
	}
	sort.Strings(out)
	return out
}

// Members returns the nicknames in channel, sorted
func (h *Hub) Members(channel string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []string
	for _, client := range h.channels[channel] {
		out = append(out, client.Nick())
	}
	sort.Strings(out)
	return out
}

// BroadcastToChannel sends a frame to every member of channel except the
// excluded session
func (h *Hub) BroadcastToChannel(channel string, op protocol.OpCode, data interface{}, excludeSession string) error {
	msg, err := protocol.NewMessage(op, data)
	if err != nil {
		return err
	}

	h.Broadcast(&BroadcastMessage{
		Channel:        channel,
		ExcludeSession: excludeSession,
		Message:        msg,
	})
	return nil
}

// NoticeToChannel sends a system notice to every member of channel
func (h *Hub) NoticeToChannel(channel, text string) error {
	return h.BroadcastToChannel(channel, protocol.OpNotice, &protocol.NoticePayload{
		Channel: channel,
		Text:    text,
	}, "")
}
