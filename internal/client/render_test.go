package client

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/concord-chat/chatbox/internal/models"
	"github.com/concord-chat/chatbox/internal/themes"
	"github.com/concord-chat/chatbox/internal/transcript"
)

func TestRenderCache(t *testing.T) {
	req := require.New(t)
	store := transcript.NewStore()
	store.AddChannel("#go")
	doc, err := store.Document("#go")
	req.NoError(err)

	cache := newRenderCache(themes.DefaultTheme().BuildStyles())
	req.Empty(cache.content("#go", doc))

	start, err := store.AppendRun("#go",
		models.NewRun("bob: ", models.TagNick),
		models.NewRun("hi\n", models.TagMessage))
	req.NoError(err)
	req.Equal(0, start)
	cache.extend("#go", doc, 0)
	req.Contains(cache.content("#go", doc), "hi")
	req.Equal(2, cache.runs["#go"])

	// An append the cache never saw is picked up by content
	_, err = store.AppendRun("#go", models.NewRun("server restarting\n", models.TagSystem))
	req.NoError(err)
	req.Contains(cache.content("#go", doc), "server restarting")
	req.Equal(3, cache.runs["#go"])

	// A gap restarts the channel from scratch
	cache.extend("#go", doc, 7)
	req.Equal(3, cache.runs["#go"])
	req.Contains(cache.content("#go", doc), "bob")

	cache.forget("#go")
	req.NotContains(cache.rendered, "#go")

	cache.restyle(themes.DefaultTheme().BuildStyles())
	req.Empty(cache.rendered)
	req.Contains(cache.content("#go", doc), "server restarting")
}
