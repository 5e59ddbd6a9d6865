package models

// SpeakerKind represents the state of a channel's last speaker
type SpeakerKind int

const (
	SpeakerUnset  SpeakerKind = iota // Nobody has spoken yet
	SpeakerSystem                    // Last line was a system notice
	SpeakerNick                      // Last line carried a nickname label
)

// SystemSpeakerName is how the system speaker is displayed
const SystemSpeakerName = "<SYSTEM>"

// Speaker is the most recent author recorded for a channel. It drives the
// label-or-padding decision for the next chat line.
type Speaker struct {
	Kind SpeakerKind
	Name string
}

// NoSpeaker returns the initial speaker state of a new channel
func NoSpeaker() Speaker {
	return Speaker{Kind: SpeakerUnset}
}

// SystemSpeaker returns the speaker recorded after a system notice
func SystemSpeaker() Speaker {
	return Speaker{Kind: SpeakerSystem, Name: SystemSpeakerName}
}

// NickSpeaker returns the speaker recorded after a labelled chat line
func NickSpeaker(nick string) Speaker {
	return Speaker{Kind: SpeakerNick, Name: nick}
}

// IsNick returns true if the speaker is the given nickname.
// The system speaker never matches, even against a nick spelled "<SYSTEM>".
func (s Speaker) IsNick(nick string) bool {
	return s.Kind == SpeakerNick && s.Name == nick
}

// IsSystem returns true if the last line was a system notice
func (s Speaker) IsSystem() bool {
	return s.Kind == SpeakerSystem
}

// IsUnset returns true if nothing has been recorded yet
func (s Speaker) IsUnset() bool {
	return s.Kind == SpeakerUnset
}

func (s Speaker) String() string {
	switch s.Kind {
	case SpeakerSystem:
		return SystemSpeakerName
	case SpeakerNick:
		return s.Name
	default:
		return ""
	}
}
