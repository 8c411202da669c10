package searchparams

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapStore map[string]string

func (m mapStore) Get(key string) string { return m[key] }

func (m mapStore) Set(key, value string) error {
	m[key] = value
	return nil
}

type failingStore struct{ calls int }

func (f *failingStore) Set(string, string) error {
	f.calls++
	return errors.New("disk full")
}

func TestFromURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want Params
	}{
		{
			name: "empty url",
			url:  "",
			want: Params{Repos: "active"},
		},
		{
			name: "all fields",
			url:  "https://sourcegraph.example/search?q=foo%20bar&repos=r1,r2&files=*.go&matchCase=true&matchWord=true&matchRegex=true",
			want: Params{Query: "foo bar", Repos: "r1,r2", Files: "*.go", MatchCase: true, MatchWord: true, MatchRegex: true},
		},
		{
			name: "relative path",
			url:  "/search?q=x&repos=r",
			want: Params{Query: "x", Repos: "r"},
		},
		{
			name: "flags only accept literal true",
			url:  "/search?q=x&matchCase=TRUE&matchWord=1&matchRegex=yes",
			want: Params{Query: "x", Repos: "active"},
		},
		{
			name: "plus decodes to space",
			url:  "/search?q=a+b",
			want: Params{Query: "a b", Repos: "active"},
		},
		{
			name: "empty repos falls back",
			url:  "/search?q=x&repos=",
			want: Params{Query: "x", Repos: "active"},
		},
		{
			name: "unknown keys ignored",
			url:  "/search?q=x&utm_source=mail",
			want: Params{Query: "x", Repos: "active"},
		},
		{
			name: "bad escape keeps other pairs",
			url:  "/search?q=%zz&repos=kept",
			want: Params{Repos: "kept"},
		},
		{
			name: "keys are case sensitive",
			url:  "/search?Q=upper&MATCHCASE=true&Repos=mine",
			want: Params{Repos: "active"},
		},
		{
			name: "exact key wins over other casing",
			url:  "/search?q=lower&Q=upper&REPOS=x&repos=r",
			want: Params{Query: "lower", Repos: "r"},
		},
		{
			name: "unparseable url",
			url:  "http://[::1:80/search?q=x",
			want: Params{Repos: "active"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Repeat so map iteration order cannot hide a mixed-case key.
			for range 20 {
				got := FromURL(tt.url)
				if diff := cmp.Diff(tt.want, got); diff != "" {
					t.Errorf("FromURL(%q) mismatch (-want +got):\n%s", tt.url, diff)
					break
				}
			}
		})
	}
}

func TestFromStore(t *testing.T) {
	t.Run("nil store", func(t *testing.T) {
		assert.Equal(t, Defaults(), FromStore(nil))
	})

	t.Run("empty store", func(t *testing.T) {
		assert.Equal(t, Params{Repos: "active"}, FromStore(mapStore{}))
	})

	t.Run("all slots", func(t *testing.T) {
		kv := mapStore{
			KeyQuery:      "needle",
			KeyRepoScope:  "all",
			KeyFileScope:  "cmd/",
			KeyMatchCase:  "true",
			KeyMatchWord:  "false",
			KeyMatchRegex: "true",
		}
		want := Params{Query: "needle", Repos: "all", Files: "cmd/", MatchCase: true, MatchRegex: true}
		if diff := cmp.Diff(want, FromStore(kv)); diff != "" {
			t.Errorf("FromStore mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("invalid flag is defaulted", func(t *testing.T) {
		got := FromStore(mapStore{KeyMatchWord: "on"})
		assert.False(t, got.MatchWord)
	})
}

func TestSaveRoundTrip(t *testing.T) {
	kv := mapStore{}
	p := Params{Query: "q", Repos: "r", Files: "f", MatchWord: true}
	require.NoError(t, Save(kv, p))

	assert.Equal(t, "false", kv[KeyMatchCase])
	assert.Equal(t, "true", kv[KeyMatchWord])
	assert.Equal(t, p, FromStore(kv))
}

func TestSaveStopsOnError(t *testing.T) {
	kv := &failingStore{}
	err := Save(kv, Defaults())
	require.Error(t, err)
	assert.Equal(t, 1, kv.calls)
}

func TestPath(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		want   string
	}{
		{
			name:   "minimal",
			params: Params{Query: "foo bar", Repos: "active"},
			want:   "/search?q=foo%20bar&repos=active",
		},
		{
			name:   "skips unset flags",
			params: Params{Query: "x", Repos: "r", Files: "*.go", MatchCase: true, MatchRegex: true},
			want:   "/search?q=x&repos=r&files=*.go&matchCase=true&matchRegex=true",
		},
		{
			name:   "fixed segment order",
			params: Params{Query: "x", Repos: "r", Files: "f", MatchCase: true, MatchWord: true, MatchRegex: true},
			want:   "/search?q=x&repos=r&files=f&matchCase=true&matchWord=true&matchRegex=true",
		},
		{
			name:   "reserved characters",
			params: Params{Query: "a&b=c/d?e#f+g", Repos: "github.com/x"},
			want:   "/search?q=a%26b%3Dc%2Fd%3Fe%23f%2Bg&repos=github.com%2Fx",
		},
		{
			name:   "non ascii",
			params: Params{Query: "über", Repos: "active"},
			want:   "/search?q=%C3%BCber&repos=active",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Path(tt.params))
		})
	}
}

func TestPathRoundTrip(t *testing.T) {
	cases := []Params{
		{Query: "foo bar", Repos: "active"},
		{Query: "func (s *Store)", Repos: "github.com/pders01/srcview", Files: "*.go", MatchCase: true},
		{Query: "^import \\(", Repos: "all", MatchRegex: true, MatchWord: true},
		{Query: "100% + 1", Repos: "r", Files: "a b/c", MatchCase: true, MatchWord: true, MatchRegex: true},
		{Query: "日本語", Repos: "active", Files: "'quoted'"},
	}

	for _, p := range cases {
		path := Path(p)
		if diff := cmp.Diff(p, FromURL(path)); diff != "" {
			t.Errorf("round trip through %q (-want +got):\n%s", path, diff)
		}
	}
}

func TestEncodeComponent(t *testing.T) {
	assert.Equal(t, "", EncodeComponent(""))
	assert.Equal(t, "AZaz09-_.!~*'()", EncodeComponent("AZaz09-_.!~*'()"))
	assert.Equal(t, "%20%22%25%3C%3E", EncodeComponent(` "%<>`))
}

func TestIsSearchPath(t *testing.T) {
	assert.True(t, IsSearchPath("/search"))
	assert.True(t, IsSearchPath("/search?q=x"))
	assert.False(t, IsSearchPath("/searches"))
	assert.False(t, IsSearchPath("/indexes"))
}
