package chatbox

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/concord-chat/chatbox/internal/transcript"
)

type recorder struct {
	sent     [][2]string
	nicks    []string
	stopped  []string
	rejected []string
}

func (r *recorder) handlers() Handlers {
	return Handlers{
		SendMessage:      func(ch, text string) { r.sent = append(r.sent, [2]string{ch, text}) },
		NicknameChanged:  func(n string) { r.nicks = append(r.nicks, n) },
		Stop:             func(ch string) { r.stopped = append(r.stopped, ch) },
		NicknameRejected: func(n string) { r.rejected = append(r.rejected, n) },
	}
}

func newChatBox(t *testing.T) (*ChatBox, *recorder) {
	t.Helper()
	rec := &recorder{}
	cb := New(transcript.NewStore(), nil, rec.handlers(), zap.NewNop())
	return cb, rec
}

func text(t *testing.T, cb *ChatBox, channel string) string {
	t.Helper()
	doc, err := cb.Store().Document(channel)
	require.NoError(t, err)
	return doc.Text()
}

func TestSetNickname(t *testing.T) {
	req := require.New(t)
	cb, rec := newChatBox(t)

	cb.SetNickname("alice")
	cb.SetNickname("alice")
	cb.SetNickname("bob")

	req.Equal("bob", cb.Nickname())
	req.Equal([]string{"alice", "bob"}, rec.nicks)
}

func TestSubmit_NoActiveChannel(t *testing.T) {
	req := require.New(t)
	cb, rec := newChatBox(t)
	cb.SetNickname("alice")
	cb.AddChannel("#go")

	req.NoError(cb.Submit("hello"))
	req.Empty(rec.sent)
	req.Empty(text(t, cb, "#go"))
}

func TestSubmit_SendsAndEchoes(t *testing.T) {
	req := require.New(t)
	cb, rec := newChatBox(t)
	cb.SetNickname("alice")
	cb.AddChannel("#go")
	req.NoError(cb.SwitchChannel("#go"))

	req.NoError(cb.Submit("hi, I am alice"))
	req.NoError(cb.Submit(""))

	req.Equal([][2]string{{"#go", "hi, I am alice"}, {"#go", ""}}, rec.sent)
	req.Equal("alice: hi, I am alice\n       \n", text(t, cb, "#go"))
}

func TestReceive(t *testing.T) {
	req := require.New(t)
	cb, _ := newChatBox(t)
	cb.SetNickname("alice")
	cb.AddChannel("#go")

	req.NoError(cb.Receive("#go", "bob", "hey alice"))
	req.NoError(cb.Receive("#go", "bob", "you there?"))
	req.Equal("bob: hey alice\n     you there?\n", text(t, cb, "#go"))

	err := cb.Receive("#rust", "bob", "hi")
	req.ErrorIs(err, transcript.ErrUnknownChannel)
}

func TestNotice(t *testing.T) {
	tests := []struct {
		name     string
		nick     string
		notice   string
		stopped  []string
		rejected []string
	}{
		{
			name:   "Plain notice",
			nick:   "alice",
			notice: "bob joined",
		},
		{
			name:    "Connection error stops the channel",
			nick:    "alice",
			notice:  ConnectionErrorNotice,
			stopped: []string{"#go"},
		},
		{
			name:     "Own nickname in use",
			nick:     "alice",
			notice:   "alice" + NicknameUsedSuffix,
			rejected: []string{"alice"},
		},
		{
			name:   "Someone else's nickname in use",
			nick:   "alice",
			notice: "bob" + NicknameUsedSuffix,
		},
		{
			name:   "No nickname yet",
			nick:   "",
			notice: NicknameUsedSuffix,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			cb, rec := newChatBox(t)
			cb.SetNickname(tt.nick)
			cb.AddChannel("#go")

			req.NoError(cb.Notice("#go", tt.notice))
			req.Equal(tt.notice+"\n", text(t, cb, "#go"))
			req.Equal(tt.stopped, rec.stopped)
			req.Equal(tt.rejected, rec.rejected)
		})
	}
}

func TestNotice_UnknownChannel(t *testing.T) {
	req := require.New(t)
	cb, rec := newChatBox(t)

	err := cb.Notice("#gone", ConnectionErrorNotice)
	req.ErrorIs(err, transcript.ErrUnknownChannel)
	req.Empty(rec.stopped)
}

func TestChannels(t *testing.T) {
	req := require.New(t)
	cb, _ := newChatBox(t)

	cb.AddChannel("#a")
	cb.AddChannel("#b")
	req.NoError(cb.SwitchChannel("#b"))
	req.ErrorIs(cb.SwitchChannel("#c"), transcript.ErrUnknownChannel)

	cb.RemoveChannel("#b")
	req.Equal([]string{"#a"}, cb.Store().Channels())
	_, ok := cb.Store().Active()
	req.False(ok)
}

func TestNilHandlers(t *testing.T) {
	req := require.New(t)
	cb := New(transcript.NewStore(), nil, Handlers{}, nil)
	cb.SetNickname("alice")
	cb.AddChannel("#go")
	req.NoError(cb.SwitchChannel("#go"))

	req.NoError(cb.Submit("hi"))
	req.NoError(cb.Notice("#go", ConnectionErrorNotice))
	req.NoError(cb.Notice("#go", "alice"+NicknameUsedSuffix))
}
