package highlight

import (
	"sort"

	"github.com/concord-chat/chatbox/internal/models"
)

// Layer re-tags a set of spans
type Layer struct {
	Tag   models.Tag
	Spans []Span
}

// Split cuts text into runs tagged base and re-tags the spans of each layer.
// Layers apply in order, so a later layer wins where spans of different
// layers overlap. Text outside every span is kept verbatim under base, and
// separate matches stay separate runs even when they touch.
//
// Empty text yields a single empty run so callers always append something.
func Split(text string, base models.Tag, layers ...Layer) []models.StyledRun {
	if text == "" {
		return []models.StyledRun{models.NewRun("", base)}
	}

	valid := make([]Layer, len(layers))
	cuts := []int{0, len(text)}
	for i, l := range layers {
		valid[i].Tag = l.Tag
		for _, sp := range l.Spans {
			if sp.Start < 0 || sp.End > len(text) || sp.Start >= sp.End {
				continue
			}
			valid[i].Spans = append(valid[i].Spans, sp)
			cuts = append(cuts, sp.Start, sp.End)
		}
	}
	sort.Ints(cuts)

	type owner struct {
		tag   models.Tag
		layer int
		span  int
	}

	var runs []models.StyledRun
	var last owner
	for i := 0; i+1 < len(cuts); i++ {
		a, b := cuts[i], cuts[i+1]
		if a == b {
			continue
		}

		o := owner{tag: base, layer: -1, span: -1}
		for li, l := range valid {
			for si, sp := range l.Spans {
				if sp.Start <= a && b <= sp.End {
					o = owner{tag: l.Tag, layer: li, span: si}
					break
				}
			}
		}

		// Segments cut out of the same match, or plain text, join back up
		if len(runs) > 0 && o == last {
			runs[len(runs)-1].Text += text[a:b]
			continue
		}
		runs = append(runs, models.NewRun(text[a:b], o.tag))
		last = o
	}
	return runs
}
