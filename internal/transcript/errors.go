package transcript

import (
	"errors"
	"fmt"
)

// ErrUnknownChannel is returned by every per-channel operation given an
// identifier that is not in the channel list. Callers should treat it as a
// contract violation rather than a transient failure.
var ErrUnknownChannel = errors.New("unknown channel")

// UnknownChannelError carries the offending channel identifier
type UnknownChannelError struct {
	ID string
}

func (e *UnknownChannelError) Error() string {
	return fmt.Sprintf("unknown channel %q", e.ID)
}

func (e *UnknownChannelError) Unwrap() error {
	return ErrUnknownChannel
}

func unknownChannel(id string) error {
	return &UnknownChannelError{ID: id}
}
