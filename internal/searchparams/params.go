// Package searchparams converts between the typed search parameters and
// their two external forms: the query string of a search location and the
// per-field preference slots kept in the local store.
package searchparams

import (
	"net/url"
	"strings"

	"github.com/gorilla/schema"

	"github.com/pders01/srcview/internal/debuglog"
)

// DefaultRepos is the repository scope used when none is given.
const DefaultRepos = "active"

// SearchPath is the route every search location lives under.
const SearchPath = "/search"

// Preference keys, one slot per field.
const (
	KeyQuery      = "searchQuery"
	KeyRepoScope  = "searchRepoScope"
	KeyFileScope  = "searchFileScope"
	KeyMatchCase  = "searchMatchCase"
	KeyMatchWord  = "searchMatchWord"
	KeyMatchRegex = "searchMatchRegex"
)

// Params describes a search. All six fields are always present; a zero
// value with Repos set to DefaultRepos is the empty search.
type Params struct {
	Query      string
	Repos      string
	Files      string
	MatchCase  bool
	MatchWord  bool
	MatchRegex bool
}

// Defaults returns the parameters used when nothing is known.
func Defaults() Params {
	return Params{Repos: DefaultRepos}
}

// Getter reads a preference slot. Missing slots return "".
type Getter interface {
	Get(key string) string
}

// Setter writes a preference slot.
type Setter interface {
	Set(key, value string) error
}

// rawQuery mirrors the query string before the flags are interpreted, so
// that only the literal "true" enables a flag.
type rawQuery struct {
	Q          string `schema:"q"`
	Repos      string `schema:"repos"`
	Files      string `schema:"files"`
	MatchCase  string `schema:"matchCase"`
	MatchWord  string `schema:"matchWord"`
	MatchRegex string `schema:"matchRegex"`
}

// queryKeys are the query string keys read by FromURL.
var queryKeys = []string{"q", "repos", "files", "matchCase", "matchWord", "matchRegex"}

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// FromURL reads search parameters from the query string of rawURL.
// Unparseable input yields defaults for whatever could not be read.
func FromURL(rawURL string) Params {
	var raw rawQuery
	if err := decoder.Decode(&raw, queryValues(rawURL)); err != nil {
		debuglog.Debugf("searchparams: decoding %q: %v", rawURL, err)
	}
	return fromStrings(raw)
}

// FromStore reads search parameters from the preference slots in kv.
// A nil store yields defaults.
func FromStore(kv Getter) Params {
	if kv == nil {
		return Defaults()
	}
	return fromStrings(rawQuery{
		Q:          kv.Get(KeyQuery),
		Repos:      kv.Get(KeyRepoScope),
		Files:      kv.Get(KeyFileScope),
		MatchCase:  kv.Get(KeyMatchCase),
		MatchWord:  kv.Get(KeyMatchWord),
		MatchRegex: kv.Get(KeyMatchRegex),
	})
}

// Save writes every field of p to its own preference slot.
func Save(kv Setter, p Params) error {
	slots := []struct {
		key, value string
	}{
		{KeyQuery, p.Query},
		{KeyRepoScope, p.Repos},
		{KeyFileScope, p.Files},
		{KeyMatchCase, formatFlag(p.MatchCase)},
		{KeyMatchWord, formatFlag(p.MatchWord)},
		{KeyMatchRegex, formatFlag(p.MatchRegex)},
	}
	for _, s := range slots {
		if err := kv.Set(s.key, s.value); err != nil {
			return err
		}
	}
	return nil
}

// Path builds the search location for p. Optional segments are appended in
// a fixed order: files, matchCase, matchWord, matchRegex.
func Path(p Params) string {
	var b strings.Builder
	b.WriteString(SearchPath)
	b.WriteString("?q=")
	b.WriteString(EncodeComponent(p.Query))
	b.WriteString("&repos=")
	b.WriteString(EncodeComponent(p.Repos))
	if p.Files != "" {
		b.WriteString("&files=")
		b.WriteString(EncodeComponent(p.Files))
	}
	if p.MatchCase {
		b.WriteString("&matchCase=true")
	}
	if p.MatchWord {
		b.WriteString("&matchWord=true")
	}
	if p.MatchRegex {
		b.WriteString("&matchRegex=true")
	}
	return b.String()
}

// IsSearchPath reports whether path addresses a search location.
func IsSearchPath(path string) bool {
	return path == SearchPath || strings.HasPrefix(path, SearchPath+"?")
}

func fromStrings(raw rawQuery) Params {
	p := Params{
		Query:      raw.Q,
		Repos:      raw.Repos,
		Files:      raw.Files,
		MatchCase:  raw.MatchCase == "true",
		MatchWord:  raw.MatchWord == "true",
		MatchRegex: raw.MatchRegex == "true",
	}
	if p.Repos == "" {
		p.Repos = DefaultRepos
	}
	return p
}

func queryValues(rawURL string) url.Values {
	u, err := url.Parse(rawURL)
	if err != nil {
		return url.Values{}
	}
	// ParseQuery keeps every pair it could read alongside the first error.
	values, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		debuglog.Debugf("searchparams: partial query %q: %v", u.RawQuery, err)
	}

	// schema matches aliases case-insensitively; only the exact keys count.
	exact := url.Values{}
	for _, key := range queryKeys {
		if v, ok := values[key]; ok {
			exact[key] = v
		}
	}
	return exact
}

func formatFlag(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
