package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pders01/srcview/internal/codeintel"
)

func TestIndexTableMarkdownPlaceholders(t *testing.T) {
	idx := testIndex(codeintel.StateQueued)

	md := IndexTableMarkdown(idx, "github.com/acme/api", "https://sg.example.com")

	assert.Contains(t, md, "| Repository | github.com/acme/api |")
	assert.Contains(t, md, "| Commit | deadbeefcafebabe |")
	assert.Contains(t, md, "| Queued | 2020-05-01 12:00:00 UTC |")
	assert.Contains(t, md, "| Began processing | _"+MsgIndexNotStarted+"_ |")
	assert.Contains(t, md, "| Finished processing | _"+MsgIndexNotDone+"_ |")
}

func TestIndexTableMarkdownLinks(t *testing.T) {
	started := time.Date(2020, 5, 1, 12, 5, 0, 0, time.UTC)
	finished := started.Add(time.Minute)
	idx := testIndex(codeintel.StateErrored)
	idx.StartedAt = &started
	idx.FinishedAt = &finished
	idx.ProjectRoot = &codeintel.ProjectRoot{
		Path: "cmd/api",
		Commit: codeintel.Commit{
			OID:            "deadbeefcafebabe",
			AbbreviatedOID: "deadbee",
			URL:            "/github.com/acme/api/-/commit/deadbeefcafebabe",
			Repository:     codeintel.Repository{Name: "github.com/acme/api", URL: "/github.com/acme/api"},
		},
	}

	md := IndexTableMarkdown(idx, "ignored", "https://sg.example.com/")

	assert.Contains(t, md, "[github.com/acme/api](https://sg.example.com/github.com/acme/api)")
	assert.Contains(t, md, "[`deadbeefcafebabe`](https://sg.example.com/github.com/acme/api/-/commit/deadbeefcafebabe)")
	assert.Contains(t, md, "| Began processing | 2020-05-01 12:05:00 UTC |")
	assert.Contains(t, md, "| Failed processing | 2020-05-01 12:06:00 UTC |")
	assert.NotContains(t, md, "ignored")
}

func TestIndexPageHeading(t *testing.T) {
	p := newIndexPage("x", "")
	p.index = testIndex(codeintel.StateCompleted)
	assert.Equal(t, "Auto-index record for commit deadbee rooted at /", p.heading())

	p.index.ProjectRoot = &codeintel.ProjectRoot{Path: "lib/", Commit: codeintel.Commit{AbbreviatedOID: "cafe123"}}
	assert.Equal(t, "Auto-index record for commit cafe123 rooted at lib/", p.heading())
}

func TestIndexPageSpinning(t *testing.T) {
	p := newIndexPage("x", "")
	assert.True(t, p.spinning(), "spins while loading")

	p.apply(codeintel.Update{Index: testIndex(codeintel.StateQueued)})
	assert.False(t, p.spinning())

	p.apply(codeintel.Update{Index: testIndex(codeintel.StateProcessing)})
	assert.True(t, p.spinning())

	p.apply(codeintel.Update{Err: errors.New("gone")})
	assert.False(t, p.spinning())
	assert.False(t, p.canDelete())
}

func TestExactlyOneStateBanner(t *testing.T) {
	banners := []string{MsgIndexProcessing, MsgIndexCompleted, "Index failed to complete", "Index is queued"}

	for _, st := range codeintel.States {
		t.Run(st.String(), func(t *testing.T) {
			p := newIndexPage("x", "")
			p.index = testIndex(st)
			out := p.stateBanner(80)

			n := 0
			for _, b := range banners {
				if strings.Contains(out, b) {
					n++
				}
			}
			assert.Equal(t, 1, n, out)
		})
	}
}

func TestServiceIndexPath(t *testing.T) {
	assert.Equal(t, "/site-admin/code-intelligence/indexes/a%2Fb", serviceIndexPath("a/b"))
}
