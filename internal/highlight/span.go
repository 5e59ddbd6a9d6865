// Package highlight finds the spans of chat text that deserve a style of
// their own (mentions of the local user, links) and splits text into styled
// runs along those spans.
package highlight

import (
	"sort"
	"strings"
)

// Span is a half-open byte range [Start, End) of a text
type Span struct {
	Start int
	End   int
}

// Len returns the span length in bytes
func (s Span) Len() int {
	return s.End - s.Start
}

// Text returns the spanned part of text
func (s Span) Text(text string) string {
	return text[s.Start:s.End]
}

// Literal returns every non-overlapping occurrence of needle in text, left to
// right. Scanning resumes right after each match. An empty needle matches
// nothing.
func Literal(text, needle string) []Span {
	if needle == "" {
		return nil
	}
	var spans []Span
	from := 0
	for {
		i := strings.Index(text[from:], needle)
		if i < 0 {
			break
		}
		start := from + i
		end := start + len(needle)
		spans = append(spans, Span{Start: start, End: end})
		from = end
	}
	return spans
}

// NonOverlapping keeps the leftmost match at every position, preferring the
// longest one when several start together, and drops any match that overlaps
// one already kept.
func NonOverlapping(spans []Span) []Span {
	if len(spans) < 2 {
		return spans
	}
	sorted := make([]Span, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End > sorted[j].End
	})

	kept := sorted[:0:0]
	lastEnd := -1
	for _, sp := range sorted {
		if sp.Start < lastEnd {
			continue
		}
		kept = append(kept, sp)
		lastEnd = sp.End
	}
	return kept
}
