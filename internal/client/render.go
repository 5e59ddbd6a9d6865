package client

import (
	"strings"

	"github.com/concord-chat/chatbox/internal/themes"
	"github.com/concord-chat/chatbox/internal/transcript"
)

// renderCache keeps each channel's transcript rendered to styled text and
// extends it run by run as the store reports appends
type renderCache struct {
	styles   *themes.Styles
	rendered map[string]*strings.Builder
	runs     map[string]int // Runs already rendered per channel
}

func newRenderCache(styles *themes.Styles) *renderCache {
	return &renderCache{
		styles:   styles,
		rendered: make(map[string]*strings.Builder),
		runs:     make(map[string]int),
	}
}

// extend renders the runs of doc not yet in the cache. from is the first
// appended run; a gap means the cache missed an append and starts over.
func (c *renderCache) extend(channel string, doc *transcript.Document, from int) {
	b, ok := c.rendered[channel]
	if !ok || from != c.runs[channel] {
		b = &strings.Builder{}
		c.rendered[channel] = b
		c.runs[channel] = 0
	}

	for _, run := range doc.Since(c.runs[channel]) {
		b.WriteString(c.styles.Render(run))
	}
	c.runs[channel] = doc.Len()
}

// content returns the rendered transcript, rendering it first if needed
func (c *renderCache) content(channel string, doc *transcript.Document) string {
	if c.runs[channel] != doc.Len() || c.rendered[channel] == nil {
		c.extend(channel, doc, c.runs[channel])
	}
	return c.rendered[channel].String()
}

// forget drops a channel
func (c *renderCache) forget(channel string) {
	delete(c.rendered, channel)
	delete(c.runs, channel)
}

// restyle drops everything so the next content call renders with styles
func (c *renderCache) restyle(styles *themes.Styles) {
	c.styles = styles
	c.rendered = make(map[string]*strings.Builder)
	c.runs = make(map[string]int)
}
