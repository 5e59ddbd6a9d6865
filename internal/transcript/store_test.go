package transcript

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/concord-chat/chatbox/internal/models"
)

func TestStore_AddRemoveChannels(t *testing.T) {
	tests := []struct {
		name     string
		add      []string
		remove   []string
		expected []string
	}{
		{
			name:     "Insertion order is kept",
			add:      []string{"#go", "#rust", "#zig"},
			expected: []string{"#go", "#rust", "#zig"},
		},
		{
			name:     "Duplicates are ignored",
			add:      []string{"#go", "#go", "#rust", "#go"},
			expected: []string{"#go", "#rust"},
		},
		{
			name:     "Removed channels disappear",
			add:      []string{"#go", "#rust", "#zig"},
			remove:   []string{"#rust"},
			expected: []string{"#go", "#zig"},
		},
		{
			name:     "Removing an absent channel is a no-op",
			add:      []string{"#go"},
			remove:   []string{"#nope", "#nope"},
			expected: []string{"#go"},
		},
		{
			name:     "Everything removed",
			add:      []string{"#go", "#rust"},
			remove:   []string{"#go", "#rust"},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			s := NewStore()
			for _, id := range tt.add {
				s.AddChannel(id)
			}
			for _, id := range tt.remove {
				s.RemoveChannel(id)
			}
			req.Equal(tt.expected, append([]string{}, s.Channels()...))
			for _, id := range tt.expected {
				req.True(s.Has(id))
				_, err := s.Document(id)
				req.NoError(err)
				sp, err := s.LastSpeaker(id)
				req.NoError(err)
				req.True(sp.IsUnset())
			}
		})
	}
}

func TestStore_ReAddStartsFresh(t *testing.T) {
	req := require.New(t)
	s := NewStore()
	s.AddChannel("#go")
	_, err := s.AppendRun("#go", models.NewRun("hello\n", models.TagMessage))
	req.NoError(err)
	req.NoError(s.SetLastSpeaker("#go", models.NickSpeaker("bob")))

	s.RemoveChannel("#go")
	s.AddChannel("#go")

	doc, err := s.Document("#go")
	req.NoError(err)
	req.Equal(0, doc.Len())
	sp, err := s.LastSpeaker("#go")
	req.NoError(err)
	req.True(sp.IsUnset())
}

func TestStore_SetActive(t *testing.T) {
	req := require.New(t)
	s := NewStore()
	s.AddChannel("#go")
	s.AddChannel("#rust")

	_, ok := s.Active()
	req.False(ok)

	req.NoError(s.SetActive("#rust"))
	before := s.State()
	req.NoError(s.SetActive("#rust"))
	req.Equal(before, s.State())

	active, ok := s.Active()
	req.True(ok)
	req.Equal("#rust", active)

	err := s.SetActive("#zig")
	req.ErrorIs(err, ErrUnknownChannel)
	active, _ = s.Active()
	req.Equal("#rust", active)
}

func TestStore_RemoveActiveClearsIt(t *testing.T) {
	req := require.New(t)
	s := NewStore()
	s.AddChannel("#go")
	s.AddChannel("#rust")
	req.NoError(s.SetActive("#go"))

	s.RemoveChannel("#rust")
	active, ok := s.Active()
	req.True(ok)
	req.Equal("#go", active)

	s.RemoveChannel("#go")
	_, ok = s.Active()
	req.False(ok)
}

func TestStore_UnknownChannel(t *testing.T) {
	s := NewStore()
	s.AddChannel("#gone")
	s.RemoveChannel("#gone")

	ops := map[string]func(id string) error{
		"AppendRun": func(id string) error {
			_, err := s.AppendRun(id, models.NewRun("x", models.TagMessage))
			return err
		},
		"Document": func(id string) error {
			_, err := s.Document(id)
			return err
		},
		"LastSpeaker": func(id string) error {
			_, err := s.LastSpeaker(id)
			return err
		},
		"SetLastSpeaker": func(id string) error {
			return s.SetLastSpeaker(id, models.SystemSpeaker())
		},
		"SetActive": s.SetActive,
	}

	for name, op := range ops {
		for _, id := range []string{"#never", "#gone"} {
			t.Run(name+"/"+id, func(t *testing.T) {
				req := require.New(t)
				err := op(id)
				req.ErrorIs(err, ErrUnknownChannel)

				var uce *UnknownChannelError
				req.True(errors.As(err, &uce))
				req.Equal(id, uce.ID)
			})
		}
	}
}

func TestStore_AppendPreservesOrder(t *testing.T) {
	req := require.New(t)
	s := NewStore()
	s.AddChannel("#go")

	runs := []models.StyledRun{
		models.NewRun("alice: ", models.TagNick),
		models.NewRun("hi\n", models.TagMessage),
		models.NewRun("joined\n", models.TagSystem),
		models.NewRun("", models.TagMessage),
		models.NewRun("see ", models.TagMessage),
		models.NewRun("www.go.dev", models.TagURL),
		models.NewRun("\n", models.TagMessage),
	}

	var want string
	offsets := make([]int, 0, len(runs))
	for _, r := range runs {
		off, err := s.AppendRun("#go", r)
		req.NoError(err)
		offsets = append(offsets, off)
		want += r.Text
	}

	doc, err := s.Document("#go")
	req.NoError(err)
	req.Equal(want, doc.Text())
	req.Equal(len(want), doc.Size())
	req.Equal([]int{0, 7, 10, 17, 17, 21, 31}, offsets)
	if diff := cmp.Diff(runs, doc.Runs()); diff != "" {
		t.Fatalf("document runs mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_ChannelsAreIndependent(t *testing.T) {
	req := require.New(t)
	s := NewStore()
	s.AddChannel("#a")
	s.AddChannel("#b")

	_, err := s.AppendRun("#a", models.NewRun("one\n", models.TagMessage))
	req.NoError(err)
	req.NoError(s.SetLastSpeaker("#a", models.NickSpeaker("alice")))

	docB, err := s.Document("#b")
	req.NoError(err)
	req.Equal(0, docB.Len())
	sp, err := s.LastSpeaker("#b")
	req.NoError(err)
	req.True(sp.IsUnset())
}

func TestStore_Observer(t *testing.T) {
	req := require.New(t)
	s := NewStore()

	var states []ChannelState
	var appended []int
	s.Observe(Observer{
		ChannelsChanged: func(state ChannelState) { states = append(states, state) },
		RunsAppended: func(channel string, from int) {
			req.Equal("#go", channel)
			appended = append(appended, from)
		},
	})

	s.AddChannel("#go")
	s.AddChannel("#go")
	req.NoError(s.SetActive("#go"))
	req.NoError(s.SetActive("#go"))

	_, err := s.AppendRun("#go",
		models.NewRun("bob: ", models.TagNick),
		models.NewRun("hey\n", models.TagMessage))
	req.NoError(err)
	_, err = s.AppendRun("#go")
	req.NoError(err)
	_, err = s.AppendRun("#go", models.NewRun("bye\n", models.TagSystem))
	req.NoError(err)

	s.RemoveChannel("#go")

	req.Equal([]ChannelState{
		{Channels: []string{"#go"}},
		{Channels: []string{"#go"}, Active: "#go", HasActive: true},
		{Channels: []string{}},
	}, states)
	req.Equal([]int{0, 2}, appended)
}

func TestDocument_Since(t *testing.T) {
	req := require.New(t)
	s := NewStore()
	s.AddChannel("#go")
	_, err := s.AppendRun("#go",
		models.NewRun("a", models.TagNick),
		models.NewRun("b", models.TagMessage),
		models.NewRun("c", models.TagURL))
	req.NoError(err)

	doc, err := s.Document("#go")
	req.NoError(err)
	req.Equal([]models.StyledRun{models.NewRun("c", models.TagURL)}, doc.Since(2))
	req.Nil(doc.Since(3))
	req.Len(doc.Since(-1), 3)

	// Mutating a returned copy leaves the document untouched
	runs := doc.Runs()
	runs[0].Text = "z"
	req.Equal("abc", doc.Text())
}
