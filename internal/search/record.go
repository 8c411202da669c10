package search

import (
	"fmt"
	"time"

	"github.com/pders01/srcview/internal/searchparams"
	"github.com/pders01/srcview/internal/storage"
)

// Record stores the search at location: its parameters go to the preference
// slots and a history entry is saved and handed to idx when idx keeps an
// index of its own. idx may be nil.
func Record(store *storage.Store, idx Searcher, location string) (*storage.SearchRecord, error) {
	p := searchparams.FromURL(location)
	if err := searchparams.Save(store.Prefs(), p); err != nil {
		return nil, fmt.Errorf("saving search preferences: %w", err)
	}

	rec := &storage.SearchRecord{
		Query:      p.Query,
		Repos:      p.Repos,
		Files:      p.Files,
		MatchCase:  p.MatchCase,
		MatchWord:  p.MatchWord,
		MatchRegex: p.MatchRegex,
		Path:       searchparams.Path(p),
		SearchedAt: time.Now(),
	}
	if err := store.SaveSearch(rec); err != nil {
		return nil, fmt.Errorf("saving search history: %w", err)
	}
	if l, ok := idx.(UpdateListener); ok {
		l.OnSearchSaved(rec)
	}
	return rec, nil
}

// Clear drops the whole history and tells idx about it. It returns the
// number of removed entries.
func Clear(store *storage.Store, idx Searcher) (int, error) {
	n, err := store.ClearHistory()
	if err != nil {
		return 0, fmt.Errorf("clearing search history: %w", err)
	}
	if l, ok := idx.(DeleteListener); ok {
		l.OnHistoryCleared()
	}
	return n, nil
}
