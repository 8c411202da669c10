package tui

import (
	"net/url"
	"strings"

	"github.com/pders01/srcview/internal/codeintel"
	"github.com/pders01/srcview/internal/searchparams"
)

type View int

const (
	ViewSearchPrompt View = iota
	ViewSearch
	ViewIndexes
	ViewIndex
)

const (
	RootPath    = "/"
	IndexesPath = "/indexes"
)

// route is a parsed app location.
type route struct {
	view    View
	path    string
	indexID string
	// repo names the repository an index page was reached from
	repo  string
	state *codeintel.State
	query string
}

// parseRoute maps a location to its view. Unknown paths fall back to the
// search prompt.
func parseRoute(location string) route {
	if location == "" {
		location = RootPath
	}
	u, err := url.Parse(location)
	if err != nil {
		return route{view: ViewSearchPrompt, path: RootPath}
	}

	r := route{path: location}
	q := u.Query()
	switch {
	case searchparams.IsSearchPath(u.Path):
		r.view = ViewSearch
	case u.Path == IndexesPath:
		r.view = ViewIndexes
		r.query = q.Get("query")
		if st, err := codeintel.ParseState(q.Get("state")); err == nil {
			r.state = &st
		}
	case strings.HasPrefix(u.Path, IndexesPath+"/"):
		id := strings.TrimPrefix(u.EscapedPath(), IndexesPath+"/")
		if unescaped, err := url.PathUnescape(id); err == nil {
			id = unescaped
		}
		if id == "" {
			r.view = ViewIndexes
			break
		}
		r.view = ViewIndex
		r.indexID = id
		r.repo = q.Get("repo")
	default:
		r.view = ViewSearchPrompt
		r.path = RootPath
	}
	return r
}

// indexPath builds the location of an index page. repo may be empty.
func indexPath(id, repo string) string {
	p := IndexesPath + "/" + url.PathEscape(id)
	if repo != "" {
		p += "?repo=" + searchparams.EncodeComponent(repo)
	}
	return p
}

// indexesPath builds the location of the index list filtered by state.
func indexesPath(st *codeintel.State) string {
	if st == nil {
		return IndexesPath
	}
	return IndexesPath + "?state=" + strings.ToLower(st.String())
}
