// Package protocol defines the JSON frames exchanged between a chatbox client
// and the relay server over a websocket.
package protocol

import (
	"encoding/json"
	"fmt"
)

// OpCode identifies the kind of frame
type OpCode int

const (
	// Client -> Server operations
	OpJoin OpCode = 1 // Join a channel
	OpPart OpCode = 2 // Leave a channel
	OpSay  OpCode = 3 // Send a chat line
	OpNick OpCode = 4 // Request a nickname

	// Server -> Client operations
	OpHello  OpCode = 10 // Session established
	OpNotice OpCode = 11 // System notice
	OpError  OpCode = 12 // Request rejected

	// OpSay is also relayed server -> client, carrying the speaker's nick
)

func (op OpCode) String() string {
	switch op {
	case OpJoin:
		return "join"
	case OpPart:
		return "part"
	case OpSay:
		return "say"
	case OpNick:
		return "nick"
	case OpHello:
		return "hello"
	case OpNotice:
		return "notice"
	case OpError:
		return "error"
	default:
		return fmt.Sprintf("op(%d)", int(op))
	}
}

// Message is the frame envelope
type Message struct {
	Op   OpCode          `json:"op"`
	Data json.RawMessage `json:"d,omitempty"`
}

// NewMessage creates a frame with data marshalled as its payload
func NewMessage(op OpCode, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", op, err)
		}
	}
	return &Message{
		Op:   op,
		Data: rawData,
	}, nil
}

// Decode unmarshals the frame payload into v
func (m *Message) Decode(v interface{}) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("%s frame has no payload", m.Op)
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", m.Op, err)
	}
	return nil
}

// --- Client -> Server Payloads ---

// ChannelPayload is sent with join and part
type ChannelPayload struct {
	Channel string `json:"channel"`
}

// NickPayload requests a nickname
type NickPayload struct {
	Nick string `json:"nick"`
}

// SayPayload carries a chat line. Nick is filled in by the server when the
// line is relayed.
type SayPayload struct {
	Channel string `json:"channel"`
	Nick    string `json:"nick,omitempty"`
	Text    string `json:"text"`
	Nonce   string `json:"nonce,omitempty"` // Client-generated ID
}

// --- Server -> Client Payloads ---

// HelloPayload is sent when the connection is accepted
type HelloPayload struct {
	SessionID string `json:"session_id"`
}

// NoticePayload is a system notice. An empty channel addresses the session
// rather than a channel.
type NoticePayload struct {
	Channel string `json:"channel,omitempty"`
	Text    string `json:"text"`
}

// --- Error Payloads ---

// ErrorPayload represents an error response
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrorCodeUnknown        = 0
	ErrorCodeInvalidPayload = 4002
	ErrorCodeNotMember      = 4003
	ErrorCodeInvalidChannel = 4004
	ErrorCodeInvalidNick    = 4005
	ErrorCodeNoNick         = 4006
)

// MaxNickLength bounds nicknames, matching the client's entry field
const MaxNickLength = 16

// NicknameUsedSuffix follows the nickname in the session notice sent when a
// requested nickname is taken
const NicknameUsedSuffix = " is already in use"
