package transcript

import (
	"strings"

	"github.com/concord-chat/chatbox/internal/models"
)

// Document is the append-only scrollback of one channel. Runs are never
// mutated or reordered once appended, so the concatenated run text is always
// the transcript in arrival order.
type Document struct {
	runs []models.StyledRun
	size int // total text length in bytes
}

// Len returns the number of runs
func (d *Document) Len() int {
	return len(d.runs)
}

// Size returns the total text length in bytes
func (d *Document) Size() int {
	return d.size
}

// Run returns the run at index i
func (d *Document) Run(i int) models.StyledRun {
	return d.runs[i]
}

// Runs returns a copy of every run in order
func (d *Document) Runs() []models.StyledRun {
	return d.Since(0)
}

// Since returns a copy of the runs starting at index from. Hosts use it with
// the index reported by RunsAppended to render only what is new.
func (d *Document) Since(from int) []models.StyledRun {
	if from < 0 {
		from = 0
	}
	if from >= len(d.runs) {
		return nil
	}
	out := make([]models.StyledRun, len(d.runs)-from)
	copy(out, d.runs[from:])
	return out
}

// Text returns the concatenated text of all runs
func (d *Document) Text() string {
	var b strings.Builder
	b.Grow(d.size)
	for _, r := range d.runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// append adds runs and returns the text offset of the first one
func (d *Document) append(runs ...models.StyledRun) int {
	start := d.size
	for _, r := range runs {
		d.runs = append(d.runs, r)
		d.size += len(r.Text)
	}
	return start
}
