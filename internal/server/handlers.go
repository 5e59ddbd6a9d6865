package server

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/concord-chat/chatbox/internal/protocol"
)

const (
	// Longest accepted channel name, in characters
	maxChannelLength = 64

	// Longest accepted chat line, in characters
	maxLineLength = 2000
)

// Handlers process client frames against the hub
type Handlers struct {
	hub    *Hub
	logger *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(hub *Hub, logger *zap.Logger) *Handlers {
	return &Handlers{
		hub:    hub,
		logger: logger,
	}
}

// HandleNick claims a nickname. A nickname held by another session is
// answered with a session notice instead of an error so the client shows it
// in its transcript.
func (h *Handlers) HandleNick(c *Client, msg *protocol.Message) {
	var payload protocol.NickPayload
	if err := msg.Decode(&payload); err != nil {
		c.sendError(protocol.ErrorCodeInvalidPayload, "Invalid nick payload")
		return
	}

	nick := strings.TrimSpace(payload.Nick)
	if err := validateNick(nick); err != nil {
		c.sendError(protocol.ErrorCodeInvalidNick, err.Error())
		return
	}

	old := c.Nick()
	if nick == old {
		return
	}
	if !h.hub.ClaimNick(c, nick) {
		h.logger.Debug("Nickname in use", zap.String("session", c.SessionID), zap.String("nick", nick))
		c.sendNotice("", nick+protocol.NicknameUsedSuffix)
		return
	}

	h.logger.Info("Nickname claimed",
		zap.String("session", c.SessionID),
		zap.String("old", old),
		zap.String("nick", nick))

	if old == "" {
		return
	}
	for _, channel := range h.hub.ChannelsOf(c) {
		if err := h.hub.NoticeToChannel(channel, fmt.Sprintf("%s is now known as %s", old, nick)); err != nil {
			h.logger.Error("Failed to broadcast nick change", zap.String("channel", channel), zap.Error(err))
		}
	}
}

// HandleJoin adds the client to a channel and announces it to the members
func (h *Handlers) HandleJoin(c *Client, msg *protocol.Message) {
	var payload protocol.ChannelPayload
	if err := msg.Decode(&payload); err != nil {
		c.sendError(protocol.ErrorCodeInvalidPayload, "Invalid join payload")
		return
	}

	nick := c.Nick()
	if nick == "" {
		c.sendError(protocol.ErrorCodeNoNick, "Choose a nickname first")
		return
	}
	if err := validateChannel(payload.Channel); err != nil {
		c.sendError(protocol.ErrorCodeInvalidChannel, err.Error())
		return
	}

	if !h.hub.JoinChannel(c, payload.Channel) {
		return
	}
	h.logger.Info("Channel joined", zap.String("nick", nick), zap.String("channel", payload.Channel))

	if err := h.hub.NoticeToChannel(payload.Channel, fmt.Sprintf("%s has joined %s", nick, payload.Channel)); err != nil {
		h.logger.Error("Failed to broadcast join", zap.Error(err))
	}
}

// HandlePart removes the client from a channel and tells the remaining members
func (h *Handlers) HandlePart(c *Client, msg *protocol.Message) {
	var payload protocol.ChannelPayload
	if err := msg.Decode(&payload); err != nil {
		c.sendError(protocol.ErrorCodeInvalidPayload, "Invalid part payload")
		return
	}

	if !h.hub.LeaveChannel(c, payload.Channel) {
		c.sendError(protocol.ErrorCodeNotMember, "Not in channel "+payload.Channel)
		return
	}
	h.logger.Info("Channel left", zap.String("nick", c.Nick()), zap.String("channel", payload.Channel))

	if err := h.hub.NoticeToChannel(payload.Channel, fmt.Sprintf("%s has left %s", c.Nick(), payload.Channel)); err != nil {
		h.logger.Error("Failed to broadcast part", zap.Error(err))
	}
}

// HandleSay relays a chat line to the other members of its channel. The
// sender is excluded since clients echo their own lines.
func (h *Handlers) HandleSay(c *Client, msg *protocol.Message) {
	var payload protocol.SayPayload
	if err := msg.Decode(&payload); err != nil {
		c.sendError(protocol.ErrorCodeInvalidPayload, "Invalid say payload")
		return
	}

	if !h.hub.IsMember(c, payload.Channel) {
		c.sendError(protocol.ErrorCodeNotMember, "Not in channel "+payload.Channel)
		return
	}
	if utf8.RuneCountInString(payload.Text) > maxLineLength {
		c.sendError(protocol.ErrorCodeInvalidPayload,
			fmt.Sprintf("Message too long (max %d characters)", maxLineLength))
		return
	}

	out := &protocol.SayPayload{
		Channel: payload.Channel,
		Nick:    c.Nick(),
		Text:    payload.Text,
		Nonce:   payload.Nonce,
	}
	if err := h.hub.BroadcastToChannel(payload.Channel, protocol.OpSay, out, c.SessionID); err != nil {
		h.logger.Error("Failed to relay line", zap.Error(err))
	}
}

// HandleDisconnect tells the client's channels that it quit
func (h *Handlers) HandleDisconnect(c *Client) {
	nick := c.Nick()
	if nick == "" {
		return
	}
	for _, channel := range h.hub.ChannelsOf(c) {
		notice := &protocol.NoticePayload{Channel: channel, Text: nick + " has quit"}
		if err := h.hub.BroadcastToChannel(channel, protocol.OpNotice, notice, c.SessionID); err != nil {
			h.logger.Error("Failed to broadcast quit", zap.Error(err))
		}
	}
}

func validateNick(nick string) error {
	switch {
	case nick == "":
		return fmt.Errorf("nickname cannot be empty")
	case utf8.RuneCountInString(nick) > protocol.MaxNickLength:
		return fmt.Errorf("nickname too long (max %d characters)", protocol.MaxNickLength)
	case strings.IndexFunc(nick, unicode.IsSpace) >= 0:
		return fmt.Errorf("nickname cannot contain spaces")
	}
	return nil
}

func validateChannel(channel string) error {
	switch {
	case channel == "":
		return fmt.Errorf("channel name cannot be empty")
	case utf8.RuneCountInString(channel) > maxChannelLength:
		return fmt.Errorf("channel name too long (max %d characters)", maxChannelLength)
	case strings.IndexFunc(channel, unicode.IsSpace) >= 0:
		return fmt.Errorf("channel name cannot contain spaces")
	}
	return nil
}
