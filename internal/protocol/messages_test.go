package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnvelopeWireFormat(t *testing.T) {
	req := require.New(t)

	msg, err := NewMessage(OpSay, &SayPayload{Channel: "#go", Text: "hi"})
	req.NoError(err)

	data, err := json.Marshal(msg)
	req.NoError(err)
	req.JSONEq(`{"op":3,"d":{"channel":"#go","text":"hi"}}`, string(data))

	var decoded Message
	req.NoError(json.Unmarshal(data, &decoded))
	var say SayPayload
	req.NoError(decoded.Decode(&say))
	req.Equal(SayPayload{Channel: "#go", Text: "hi"}, say)
}

func TestDecodeErrors(t *testing.T) {
	req := require.New(t)

	empty, err := NewMessage(OpJoin, nil)
	req.NoError(err)
	req.Nil(empty.Data)
	req.Error(empty.Decode(&ChannelPayload{}))

	bad := &Message{Op: OpJoin, Data: json.RawMessage(`{"channel":7}`)}
	err = bad.Decode(&ChannelPayload{})
	req.ErrorContains(err, "decode join payload")
}

func TestOpCodeString(t *testing.T) {
	req := require.New(t)
	req.Equal("notice", OpNotice.String())
	req.Equal("op(99)", OpCode(99).String())
}
