// Package formatter turns chat lines and system notices into styled runs
// appended to a channel's transcript.
package formatter

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/concord-chat/chatbox/internal/highlight"
	"github.com/concord-chat/chatbox/internal/models"
)

// Terminator ends every appended line
const Terminator = "\n"

// Store is the per-channel state the formatter reads and appends to.
// transcript.Store satisfies it.
type Store interface {
	AppendRun(channel string, runs ...models.StyledRun) (int, error)
	LastSpeaker(channel string) (models.Speaker, error)
	SetLastSpeaker(channel string, speaker models.Speaker) error
}

// Formatter decides which runs a chat line or notice turns into. It keeps no
// state between calls; grouping state lives in the Store.
type Formatter struct {
	urls     highlight.URLMatcher
	keywords *highlight.KeywordMatcher
	logger   *zap.Logger
}

// Option configures a Formatter
type Option func(*Formatter)

// WithURLMatcher replaces the default link matcher
func WithURLMatcher(m highlight.URLMatcher) Option {
	return func(f *Formatter) {
		f.urls = m
	}
}

// WithKeywords highlights extra words the same way as the local nickname
func WithKeywords(k *highlight.KeywordMatcher) Option {
	return func(f *Formatter) {
		f.keywords = k
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(f *Formatter) {
		f.logger = l
	}
}

// New creates a formatter
func New(opts ...Option) *Formatter {
	f := &Formatter{
		urls:   highlight.DefaultURLMatcher,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FormatChatMessage appends a chat line from speaker to channel.
//
// The speaker label is shown unless the line comes from selfNick and force is
// false. A shown label collapses into blank padding when the same speaker
// said the previous line. Mentions of selfNick (and configured keywords) are
// tagged self unless the channel's last speaker is selfNick, and links are
// tagged url on top of that.
func (f *Formatter) FormatChatMessage(store Store, channel, speaker, text, selfNick string, force bool) error {
	last, err := store.LastSpeaker(channel)
	if err != nil {
		return err
	}

	if speaker != selfNick || force {
		var label string
		if last.IsNick(speaker) {
			label = padding(speaker)
		} else {
			label = speaker + ": "
			last = models.NickSpeaker(speaker)
			if err := store.SetLastSpeaker(channel, last); err != nil {
				return err
			}
		}
		if _, err := store.AppendRun(channel, models.NewRun(label, models.TagNick)); err != nil {
			return err
		}
	}

	var layers []highlight.Layer
	if !last.IsNick(selfNick) {
		if spans := f.mentions(text, selfNick); len(spans) > 0 {
			layers = append(layers, highlight.Layer{Tag: models.TagSelf, Spans: spans})
		}
	}
	if spans := f.urls.FindAll(text); len(spans) > 0 {
		layers = append(layers, highlight.Layer{Tag: models.TagURL, Spans: spans})
	}

	runs := highlight.Split(text+Terminator, models.TagMessage, layers...)
	msgStart, err := store.AppendRun(channel, runs...)
	if err != nil {
		return err
	}

	f.logger.Debug("Chat line appended",
		zap.String("channel", channel),
		zap.String("speaker", speaker),
		zap.Int("offset", msgStart),
		zap.Int("runs", len(runs)),
		zap.Int("highlights", len(layers)))
	return nil
}

// FormatSystemMessage appends a system notice to channel. Notices are never
// highlighted and always reset speaker grouping.
func (f *Formatter) FormatSystemMessage(store Store, channel, message string) error {
	if err := store.SetLastSpeaker(channel, models.SystemSpeaker()); err != nil {
		return err
	}
	msgStart, err := store.AppendRun(channel, models.NewRun(message+Terminator, models.TagSystem))
	if err != nil {
		return err
	}
	f.logger.Debug("System notice appended",
		zap.String("channel", channel),
		zap.Int("offset", msgStart))
	return nil
}

// mentions returns the self spans of text: every occurrence of nick plus
// every configured keyword, without overlaps
func (f *Formatter) mentions(text, nick string) []highlight.Span {
	spans := highlight.Literal(text, nick)
	if f.keywords == nil {
		return spans
	}
	return highlight.NonOverlapping(append(spans, f.keywords.FindAll(text)...))
}

// padding aligns a continuation line under the previous "nick: " label
func padding(nick string) string {
	return strings.Repeat(" ", utf8.RuneCountInString(nick)+2)
}
