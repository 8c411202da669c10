package search

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/srcview/internal/debuglog"
	"github.com/pders01/srcview/internal/storage"
)

// BleveEngine indexes submitted searches so they can be found again by any
// word of their query, repository scope or file scope.
type BleveEngine struct {
	store *storage.Store
	idx   bleve.Index
}

// NewBleveEngine creates or opens a Bleve index at indexPath and indexes the
// current history. An empty indexPath keeps the index in memory.
func NewBleveEngine(store *storage.Store, indexPath string) (*BleveEngine, error) {
	var idx bleve.Index
	var err error

	if indexPath == "" {
		idx, err = bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, err
		}
	} else {
		if mkErr := os.MkdirAll(filepath.Dir(indexPath), 0o755); mkErr != nil {
			debuglog.Warnf("creating index directory: %v", mkErr)
		}

		// Try open first
		idx, err = bleve.Open(indexPath)
		if err != nil {
			idx, err = bleve.New(indexPath, buildIndexMapping())
			if err != nil {
				return nil, err
			}
		}
	}

	be := &BleveEngine{store: store, idx: idx}
	if err := be.reindexAll(); err != nil {
		_ = idx.Close()
		return nil, err
	}
	return be, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	query := bleve.NewTextFieldMapping()
	query.Analyzer = standard.Name
	query.Store = true
	query.IncludeTermVectors = true

	repos := bleve.NewTextFieldMapping()
	repos.Analyzer = standard.Name
	repos.Store = true

	files := bleve.NewTextFieldMapping()
	files.Analyzer = standard.Name
	files.Store = true

	// Stored verbatim so a hit can be navigated to even if the record is gone.
	path := bleve.NewTextFieldMapping()
	path.Analyzer = keyword.Name
	path.Store = true
	path.Index = false

	dm.AddFieldMappingsAt("query", query)
	dm.AddFieldMappingsAt("repos", repos)
	dm.AddFieldMappingsAt("files", files)
	dm.AddFieldMappingsAt("path", path)

	im.DefaultMapping = dm
	return im
}

func document(rec *storage.SearchRecord) map[string]any {
	return map[string]any{
		"query": rec.Query,
		"repos": rec.Repos,
		"files": rec.Files,
		"path":  rec.Path,
	}
}

func (b *BleveEngine) reindexAll() error {
	recs, err := b.store.RecentSearches(0)
	if err != nil {
		return err
	}

	batch := b.idx.NewBatch()
	for _, rec := range recs {
		_ = batch.Index(rec.ID, document(rec))
	}
	return b.idx.Batch(batch)
}

// Search matches query against indexed history, best match first. Queries
// shorter than two characters return no results.
func (b *BleveEngine) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	// OR of per-term matches across fields with boosts
	var qs []bleveQuery.Query
	for _, tok := range tokenize(query) {
		for _, f := range []struct {
			name  string
			boost float64
		}{
			{"query", 4.0},
			{"files", 2.0},
			{"repos", 1.0},
		} {
			qm := bleve.NewMatchQuery(tok)
			qm.SetField(f.name)
			qm.SetBoost(f.boost)
			qs = append(qs, qm)

			qp := bleve.NewPrefixQuery(tok)
			qp.SetField(f.name)
			qp.SetBoost(f.boost * 0.8)
			qs = append(qs, qp)
		}
	}
	if len(qs) == 0 {
		return []*Result{}, nil
	}

	srch := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	srch.Fields = []string{"query", "repos", "files", "path"}
	res, err := b.idx.Search(srch)
	if err != nil {
		return nil, err
	}

	out := make([]*Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		rec, err := b.store.GetSearch(h.ID)
		if err != nil {
			rec = &storage.SearchRecord{ID: h.ID}
			if q, ok := h.Fields["query"].(string); ok {
				rec.Query = q
			}
			if r, ok := h.Fields["repos"].(string); ok {
				rec.Repos = r
			}
			if f, ok := h.Fields["files"].(string); ok {
				rec.Files = f
			}
			if p, ok := h.Fields["path"].(string); ok {
				rec.Path = p
			}
		}
		out = append(out, &Result{Record: rec, Score: h.Score})
	}
	return out, nil
}

// OnSearchSaved indexes a newly recorded search.
func (b *BleveEngine) OnSearchSaved(rec *storage.SearchRecord) {
	if rec == nil || rec.ID == "" {
		return
	}
	if err := b.idx.Index(rec.ID, document(rec)); err != nil {
		debuglog.Warnf("indexing search %s: %v", rec.ID, err)
	}
}

// OnHistoryCleared drops every indexed document.
func (b *BleveEngine) OnHistoryCleared() {
	size := 1000
	for {
		req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), size, 0, false)
		res, err := b.idx.Search(req)
		if err != nil || res == nil || len(res.Hits) == 0 {
			return
		}
		batch := b.idx.NewBatch()
		for _, h := range res.Hits {
			batch.Delete(h.ID)
		}
		if err := b.idx.Batch(batch); err != nil {
			debuglog.Warnf("clearing search index: %v", err)
			return
		}
	}
}

// DocCount reports total documents in the index.
func (b *BleveEngine) DocCount() (int, error) {
	n, err := b.idx.DocCount()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (b *BleveEngine) Close() error {
	return b.idx.Close()
}

// tokenize lowercases text and splits it on anything that is not a letter
// or digit, dropping single characters.
func tokenize(text string) []string {
	var terms []string
	current := strings.Builder{}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else if current.Len() > 0 {
			if term := current.String(); len(term) > 1 {
				terms = append(terms, term)
			}
			current.Reset()
		}
	}

	if current.Len() > 1 {
		terms = append(terms, current.String())
	}

	return terms
}
