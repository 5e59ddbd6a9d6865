package client

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/concord-chat/chatbox/internal/protocol"
)

// Relay is the transport the App talks to. *Connection implements it.
type Relay interface {
	Connect(ctx context.Context) error
	Close() error
	IsConnected() bool
	Nick(nick string) error
	Join(channel string) error
	Part(channel string) error
	Say(channel, text string) error
}

// --- Messages delivered to the update loop ---

// ConnectedMsg reports that the relay greeted the session
type ConnectedMsg struct {
	SessionID string
}

// ConnectFailedMsg reports a failed dial
type ConnectFailedMsg struct {
	Err error
}

// DisconnectedMsg reports an unexpected connection loss
type DisconnectedMsg struct {
	Err error
}

// LineMsg is a chat line relayed from another participant
type LineMsg struct {
	Channel string
	Nick    string
	Text    string
}

// NoticeMsg is a system notice. An empty Channel addresses the session.
type NoticeMsg struct {
	Channel string
	Text    string
}

// RelayErrorMsg is a request the relay rejected
type RelayErrorMsg struct {
	Code    int
	Message string
}

type reconnectMsg struct{}

// Bridge routes the connection's events into the update loop through send,
// which is normally tea.Program.Send. Frames arrive on the connection's
// reader goroutine; send hands them to the UI goroutine so the transcript is
// only touched there.
func Bridge(conn *Connection, send func(tea.Msg), logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	conn.SetHandlers(ConnectionHandlers{
		OnMessage: func(msg *protocol.Message) {
			if m := frameToMsg(msg, logger); m != nil {
				send(m)
			}
		},
		OnDisconnect: func(err error) {
			send(DisconnectedMsg{Err: err})
		},
	})
}

func frameToMsg(msg *protocol.Message, logger *zap.Logger) tea.Msg {
	switch msg.Op {
	case protocol.OpHello:
		var p protocol.HelloPayload
		if err := msg.Decode(&p); err != nil {
			break
		}
		return ConnectedMsg{SessionID: p.SessionID}

	case protocol.OpSay:
		var p protocol.SayPayload
		if err := msg.Decode(&p); err != nil {
			break
		}
		return LineMsg{Channel: p.Channel, Nick: p.Nick, Text: p.Text}

	case protocol.OpNotice:
		var p protocol.NoticePayload
		if err := msg.Decode(&p); err != nil {
			break
		}
		return NoticeMsg{Channel: p.Channel, Text: p.Text}

	case protocol.OpError:
		var p protocol.ErrorPayload
		if err := msg.Decode(&p); err != nil {
			break
		}
		return RelayErrorMsg{Code: p.Code, Message: p.Message}

	default:
		logger.Debug("Ignoring frame", zap.Stringer("op", msg.Op))
		return nil
	}

	logger.Warn("Malformed frame", zap.Stringer("op", msg.Op), zap.ByteString("data", msg.Data))
	return nil
}
