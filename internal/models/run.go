package models

import "unicode/utf8"

// Tag is the semantic style category carried by a run of transcript text.
// Hosts map tags to colors; only the tag names are part of the contract.
type Tag string

const (
	TagNick    Tag = "nick"    // Speaker label or continuation padding
	TagSelf    Tag = "self"    // Mention of the local user
	TagMessage Tag = "message" // Chat message text
	TagSystem  Tag = "system"  // System notice
	TagURL     Tag = "url"     // Link inside a chat message
)

// Tags lists every tag in a stable order
var Tags = []Tag{TagNick, TagSelf, TagMessage, TagSystem, TagURL}

// Valid reports whether t is one of the known tags
func (t Tag) Valid() bool {
	switch t {
	case TagNick, TagSelf, TagMessage, TagSystem, TagURL:
		return true
	}
	return false
}

// StyledRun is a contiguous span of text carrying one tag
type StyledRun struct {
	Text string `json:"text"`
	Tag  Tag    `json:"tag"`
}

// NewRun creates a styled run
func NewRun(text string, tag Tag) StyledRun {
	return StyledRun{Text: text, Tag: tag}
}

// Len returns the length of the run text in bytes
func (r StyledRun) Len() int {
	return len(r.Text)
}

// Width returns the number of characters in the run text
func (r StyledRun) Width() int {
	return utf8.RuneCountInString(r.Text)
}
