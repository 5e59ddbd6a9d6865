package highlight

import (
	"fmt"
	"sort"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"
)

// KeywordMatcher finds any of a fixed set of highlight words in one pass
// using an Aho-Corasick automaton. Matching is case-sensitive and literal.
type KeywordMatcher struct {
	machine  *goahocorasick.Machine
	keywords []string
}

// NewKeywordMatcher builds the automaton. Empty and duplicate keywords are
// ignored; a matcher without keywords never matches.
func NewKeywordMatcher(keywords []string) (*KeywordMatcher, error) {
	words := lo.Uniq(lo.Filter(keywords, func(w string, _ int) bool {
		return w != ""
	}))
	if len(words) == 0 {
		return &KeywordMatcher{}, nil
	}
	sort.Strings(words)

	patterns := make([][]rune, len(words))
	for i, w := range words {
		patterns[i] = []rune(w)
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, fmt.Errorf("failed to build keyword matcher: %w", err)
	}
	return &KeywordMatcher{machine: m, keywords: words}, nil
}

// Keywords returns the deduplicated keyword list, sorted
func (k *KeywordMatcher) Keywords() []string {
	if k == nil {
		return nil
	}
	return append([]string(nil), k.keywords...)
}

// FindAll returns the non-overlapping keyword matches in text, left to right
func (k *KeywordMatcher) FindAll(text string) []Span {
	if k == nil || k.machine == nil || text == "" {
		return nil
	}

	runes := []rune(text)
	offsets := byteOffsets(text, len(runes))

	terms := k.machine.MultiPatternSearch(runes, false)
	if len(terms) == 0 {
		return nil
	}

	spans := make([]Span, 0, len(terms))
	for _, term := range terms {
		start := term.Pos
		end := start + len(term.Word)
		if start < 0 || end > len(runes) {
			continue
		}
		spans = append(spans, Span{Start: offsets[start], End: offsets[end]})
	}
	return NonOverlapping(spans)
}

// byteOffsets maps rune index i to its byte offset in text; index n maps to
// len(text)
func byteOffsets(text string, n int) []int {
	offsets := make([]int, 0, n+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	return append(offsets, len(text))
}
