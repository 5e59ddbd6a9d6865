package highlight

import "regexp"

// URLMatcher finds link-like spans in chat text. The formatter only relies on
// the returned spans being non-overlapping and ordered left to right.
type URLMatcher interface {
	FindAll(text string) []Span
}

// urlRegexp matches a token starting with a recognized scheme or "www.",
// leaving trailing sentence punctuation out of the link.
var urlRegexp = regexp.MustCompile(`(?i)(?:https?://|www\.)[^\s<>"]*[^\s<>"'.,;:!?()\[\]{}]`)

// RegexpURLMatcher is a URLMatcher backed by a regular expression
type RegexpURLMatcher struct {
	re *regexp.Regexp
}

// DefaultURLMatcher matches http://, https:// and www. links
var DefaultURLMatcher = &RegexpURLMatcher{re: urlRegexp}

// NewRegexpURLMatcher compiles a custom link pattern
func NewRegexpURLMatcher(pattern string) (*RegexpURLMatcher, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &RegexpURLMatcher{re: re}, nil
}

// FindAll implements URLMatcher
func (m *RegexpURLMatcher) FindAll(text string) []Span {
	positions := m.re.FindAllStringIndex(text, -1)
	if len(positions) == 0 {
		return nil
	}
	spans := make([]Span, len(positions))
	for i, pos := range positions {
		spans[i] = Span{Start: pos[0], End: pos[1]}
	}
	return spans
}
