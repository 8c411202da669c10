package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/srcview/internal/codeintel"
)

func TestParseRoute(t *testing.T) {
	tests := []struct {
		location string
		view     View
		id       string
		repo     string
		state    string
		query    string
	}{
		{location: "", view: ViewSearchPrompt},
		{location: "/", view: ViewSearchPrompt},
		{location: "/nowhere", view: ViewSearchPrompt},
		{location: "/search?q=a&repos=active", view: ViewSearch},
		{location: "/indexes", view: ViewIndexes},
		{location: "/indexes/", view: ViewIndexes},
		{location: "/indexes?state=ERRORED&query=api", view: ViewIndexes, state: "ERRORED", query: "api"},
		{location: "/indexes?state=bogus", view: ViewIndexes},
		{location: "/indexes/SW5kZXg6MQ==", view: ViewIndex, id: "SW5kZXg6MQ=="},
		{location: "/indexes/a%2Fb?repo=github.com%2Facme%2Fapi", view: ViewIndex, id: "a/b", repo: "github.com/acme/api"},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			r := parseRoute(tt.location)
			assert.Equal(t, tt.view, r.view)
			assert.Equal(t, tt.id, r.indexID)
			assert.Equal(t, tt.repo, r.repo)
			assert.Equal(t, tt.query, r.query)
			if tt.state == "" {
				assert.Nil(t, r.state)
				return
			}
			require.NotNil(t, r.state)
			assert.Equal(t, tt.state, r.state.String())
		})
	}
}

func TestUnknownRouteFallsBackToRoot(t *testing.T) {
	assert.Equal(t, RootPath, parseRoute("/nowhere").path)
}

func TestIndexPathRoundTrip(t *testing.T) {
	p := indexPath("a/b", "github.com/acme/api")
	assert.Equal(t, "/indexes/a%2Fb?repo=github.com%2Facme%2Fapi", p)

	r := parseRoute(p)
	assert.Equal(t, "a/b", r.indexID)
	assert.Equal(t, "github.com/acme/api", r.repo)

	assert.Equal(t, "/indexes/x", indexPath("x", ""))
}

func TestIndexesPath(t *testing.T) {
	assert.Equal(t, IndexesPath, indexesPath(nil))
	st := codeintel.StateProcessing
	assert.Equal(t, "/indexes?state=processing", indexesPath(&st))
}
