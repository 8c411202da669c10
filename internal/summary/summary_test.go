package summary

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type repoStats struct {
	Branches int
	Tags     int
	Private  bool
}

func descriptors() []Descriptor[repoStats] {
	return []Descriptor[repoStats]{
		{
			Noun:  "branch",
			Icon:  "⎇",
			Count: func(s repoStats) int { return s.Branches },
			URL:   ConstURL[repoStats]("/branches"),
		},
		{
			Noun:      "tag",
			Icon:      "#",
			Count:     func(s repoStats) int { return s.Tags },
			Condition: func(s repoStats) bool { return s.Tags > 0 },
		},
		{
			Noun:       "access policy",
			PluralNoun: "access policies",
			Count:      ConstCount[repoStats](2),
			URL: func(s repoStats) string {
				if s.Private {
					return "/settings/access"
				}
				return ""
			},
		},
	}
}

func TestResolve(t *testing.T) {
	t.Run("all conditions pass", func(t *testing.T) {
		items := Resolve(descriptors(), repoStats{Branches: 1, Tags: 4, Private: true})
		require.Len(t, items, 3)

		assert.Equal(t, Item{Icon: "⎇", Count: 1, Label: "branch", URL: "/branches"}, items[0])
		assert.Equal(t, Item{Icon: "#", Count: 4, Label: "tags"}, items[1])
		assert.Equal(t, Item{Count: 2, Label: "access policies", URL: "/settings/access"}, items[2])
	})

	t.Run("false condition drops item and keeps order", func(t *testing.T) {
		items := Resolve(descriptors(), repoStats{Branches: 3})
		require.Len(t, items, 2)

		assert.Equal(t, "branches", items[0].Label)
		assert.Equal(t, "access policies", items[1].Label)
		assert.False(t, items[1].HasLink())
	})

	t.Run("nil count resolves to zero", func(t *testing.T) {
		items := Resolve([]Descriptor[int]{{Noun: "file"}}, 0)
		require.Len(t, items, 1)
		assert.Equal(t, 0, items[0].Count)
		assert.Equal(t, "files", items[0].Label)
	})

	t.Run("no descriptors", func(t *testing.T) {
		assert.Empty(t, Resolve[int](nil, 0))
	})
}

func TestPluralize(t *testing.T) {
	tests := []struct {
		noun   string
		count  int
		plural string
		want   string
	}{
		{"index", 1, "indexes", "index"},
		{"index", 0, "indexes", "indexes"},
		{"index", 2, "indexes", "indexes"},
		{"commit", 1, "", "commit"},
		{"commit", 7, "", "commits"},
		{"commit", -1, "", "commits"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Pluralize(tt.noun, tt.count, tt.plural), "Pluralize(%q, %d, %q)", tt.noun, tt.count, tt.plural)
	}
}

func TestBarView(t *testing.T) {
	items := Resolve(descriptors(), repoStats{Branches: 1, Tags: 2})
	out := NewBar(80).View(items)

	for _, want := range []string{"branch", "tags", "access policies", "⎇", "#"} {
		assert.Contains(t, out, want)
	}
	assert.Less(t, strings.Index(out, "branch"), strings.Index(out, "tags"), "bar order follows descriptors")
	assert.Contains(t, out, "/branches", "linked items carry their target")

	assert.Empty(t, NewBar(80).View(nil))
}

func TestBarAbsoluteLinks(t *testing.T) {
	b := NewBar(40)
	b.BaseURL = "https://sg.example/"

	assert.Equal(t, "https://sg.example/indexes", b.absolute("/indexes"))
	assert.Equal(t, "https://other.example/x", b.absolute("https://other.example/x"))
}

func TestPlain(t *testing.T) {
	items := []Item{
		{Icon: "◷", Count: 3, Label: "queued indexes"},
		{Count: 1, Label: "failed index"},
	}
	assert.Equal(t, "◷ 3 queued indexes · 1 failed index", Plain(items))
}
