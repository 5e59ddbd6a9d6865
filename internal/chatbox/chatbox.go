// Package chatbox is the controller a view host drives: it owns the local
// nickname, the transcript store and the formatter, and reports user intent
// back to the host through Handlers.
package chatbox

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/concord-chat/chatbox/internal/formatter"
	"github.com/concord-chat/chatbox/internal/transcript"
)

const (
	// ConnectionErrorNotice is the system notice a host posts when its
	// connection drops. Receiving it stops input on that channel.
	ConnectionErrorNotice = "Connection error"

	// NicknameUsedSuffix follows the nickname in the notice a relay sends
	// when the requested nickname is taken
	NicknameUsedSuffix = " is already in use"
)

// Handlers are the events the controller reports to its host. Any field may
// be nil.
type Handlers struct {
	SendMessage      func(channel, text string)
	NicknameChanged  func(nick string)
	Stop             func(channel string)
	NicknameRejected func(nick string)
}

// ChatBox ties the store and formatter to a local identity
type ChatBox struct {
	nick      string
	store     *transcript.Store
	formatter *formatter.Formatter
	handlers  Handlers
	logger    *zap.Logger
}

// New creates a controller around store. A nil formatter gets the defaults,
// a nil logger discards output.
func New(store *transcript.Store, f *formatter.Formatter, h Handlers, logger *zap.Logger) *ChatBox {
	if f == nil {
		f = formatter.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatBox{
		store:     store,
		formatter: f,
		handlers:  h,
		logger:    logger,
	}
}

// Store returns the underlying transcript store
func (c *ChatBox) Store() *transcript.Store {
	return c.store
}

// Nickname returns the local nickname
func (c *ChatBox) Nickname() string {
	return c.nick
}

// SetFormatter swaps the formatter, for example after the keyword list changed
func (c *ChatBox) SetFormatter(f *formatter.Formatter) {
	if f != nil {
		c.formatter = f
	}
}

// SetNickname changes the local nickname and reports the change
func (c *ChatBox) SetNickname(nick string) {
	if nick == c.nick {
		return
	}
	c.logger.Info("Nickname changed", zap.String("from", c.nick), zap.String("to", nick))
	c.nick = nick
	if c.handlers.NicknameChanged != nil {
		c.handlers.NicknameChanged(nick)
	}
}

// Submit sends text to the active channel and echoes it locally. Without an
// active channel nothing happens.
func (c *ChatBox) Submit(text string) error {
	channel, ok := c.store.Active()
	if !ok {
		return nil
	}
	if c.handlers.SendMessage != nil {
		c.handlers.SendMessage(channel, text)
	}
	if err := c.formatter.FormatChatMessage(c.store, channel, c.nick, text, c.nick, true); err != nil {
		return fmt.Errorf("echo to %s: %w", channel, err)
	}
	return nil
}

// Receive appends a line another participant sent to channel
func (c *ChatBox) Receive(channel, nick, text string) error {
	return c.formatter.FormatChatMessage(c.store, channel, nick, text, c.nick, false)
}

// Notice appends a system notice to channel. A connection error notice stops
// the channel and a nickname-in-use notice for the local nickname reports a
// rejection.
func (c *ChatBox) Notice(channel, text string) error {
	if err := c.formatter.FormatSystemMessage(c.store, channel, text); err != nil {
		return err
	}

	switch {
	case text == ConnectionErrorNotice:
		c.logger.Warn("Connection error notice", zap.String("channel", channel))
		if c.handlers.Stop != nil {
			c.handlers.Stop(channel)
		}
	case c.nick != "" && text == c.nick+NicknameUsedSuffix:
		c.logger.Warn("Nickname rejected", zap.String("nick", c.nick))
		if c.handlers.NicknameRejected != nil {
			c.handlers.NicknameRejected(c.nick)
		}
	}
	return nil
}

// AddChannel adds a channel
func (c *ChatBox) AddChannel(channel string) {
	c.store.AddChannel(channel)
}

// RemoveChannel removes a channel and its scrollback
func (c *ChatBox) RemoveChannel(channel string) {
	c.store.RemoveChannel(channel)
}

// SwitchChannel makes channel active
func (c *ChatBox) SwitchChannel(channel string) error {
	return c.store.SetActive(channel)
}
