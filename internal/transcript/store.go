package transcript

import (
	"github.com/samber/lo"

	"github.com/concord-chat/chatbox/internal/models"
)

// ChannelState is the observable channel selector state
type ChannelState struct {
	Channels  []string // Insertion order
	Active    string
	HasActive bool
}

// Observer receives store notifications. Either callback may be nil.
type Observer struct {
	// ChannelsChanged fires when the channel list or active channel changes
	ChannelsChanged func(state ChannelState)

	// RunsAppended fires after runs are appended; from is the index of the
	// first new run in the channel's Document
	RunsAppended func(channel string, from int)
}

// Store owns the per-channel transcript state: the channel list, the active
// channel, and one Document and last speaker per channel.
//
// Store is not safe for concurrent use. Callers serialize mutations, which a
// UI event loop does naturally.
type Store struct {
	// Channel identifiers in insertion order
	channels []string

	// Per-channel state, keyed by channel identifier
	docs     map[string]*Document
	speakers map[string]models.Speaker

	// Active channel, valid only when hasActive is set
	active    string
	hasActive bool

	observers []Observer
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		channels: make([]string, 0),
		docs:     make(map[string]*Document),
		speakers: make(map[string]models.Speaker),
	}
}

// Observe registers an observer
func (s *Store) Observe(o Observer) {
	s.observers = append(s.observers, o)
}

// AddChannel registers a channel with an empty Document. It is a no-op if
// the channel already exists.
func (s *Store) AddChannel(id string) {
	if s.Has(id) {
		return
	}
	s.channels = append(s.channels, id)
	s.docs[id] = &Document{}
	s.speakers[id] = models.NoSpeaker()
	s.notifyChannels()
}

// RemoveChannel discards a channel and its Document. It is a no-op if the
// channel is absent. Removing the active channel leaves no channel active.
func (s *Store) RemoveChannel(id string) {
	if !s.Has(id) {
		return
	}
	s.channels = lo.Without(s.channels, id)
	delete(s.docs, id)
	delete(s.speakers, id)
	if s.hasActive && s.active == id {
		s.active = ""
		s.hasActive = false
	}
	s.notifyChannels()
}

// SetActive makes id the active channel. Setting the already active channel
// changes nothing and notifies nobody.
func (s *Store) SetActive(id string) error {
	if !s.Has(id) {
		return unknownChannel(id)
	}
	if s.hasActive && s.active == id {
		return nil
	}
	s.active = id
	s.hasActive = true
	s.notifyChannels()
	return nil
}

// Active returns the active channel, if any
func (s *Store) Active() (string, bool) {
	return s.active, s.hasActive
}

// Has reports whether id is in the channel list
func (s *Store) Has(id string) bool {
	_, ok := s.docs[id]
	return ok
}

// Channels returns a copy of the channel list in insertion order
func (s *Store) Channels() []string {
	out := make([]string, len(s.channels))
	copy(out, s.channels)
	return out
}

// State returns the current channel selector state
func (s *Store) State() ChannelState {
	return ChannelState{
		Channels:  s.Channels(),
		Active:    s.active,
		HasActive: s.hasActive,
	}
}

// AppendRun appends runs to the channel's Document and returns the text
// offset at which the first of them starts.
func (s *Store) AppendRun(id string, runs ...models.StyledRun) (int, error) {
	doc, ok := s.docs[id]
	if !ok {
		return 0, unknownChannel(id)
	}
	from := doc.Len()
	start := doc.append(runs...)
	if len(runs) > 0 {
		s.notifyRuns(id, from)
	}
	return start, nil
}

// Document returns the channel's Document
func (s *Store) Document(id string) (*Document, error) {
	doc, ok := s.docs[id]
	if !ok {
		return nil, unknownChannel(id)
	}
	return doc, nil
}

// LastSpeaker returns the channel's last recorded speaker
func (s *Store) LastSpeaker(id string) (models.Speaker, error) {
	sp, ok := s.speakers[id]
	if !ok {
		return models.Speaker{}, unknownChannel(id)
	}
	return sp, nil
}

// SetLastSpeaker records the channel's last speaker
func (s *Store) SetLastSpeaker(id string, speaker models.Speaker) error {
	if !s.Has(id) {
		return unknownChannel(id)
	}
	s.speakers[id] = speaker
	return nil
}

func (s *Store) notifyChannels() {
	if len(s.observers) == 0 {
		return
	}
	state := s.State()
	for _, o := range s.observers {
		if o.ChannelsChanged != nil {
			o.ChannelsChanged(state)
		}
	}
}

func (s *Store) notifyRuns(id string, from int) {
	for _, o := range s.observers {
		if o.RunsAppended != nil {
			o.RunsAppended(id, from)
		}
	}
}
