package search

import "github.com/pders01/srcview/internal/storage"

// Result is a history record matched by a query.
type Result struct {
	Record *storage.SearchRecord
	Score  float64
}

// Searcher defines the minimal search API used by the TUI and CLI.
type Searcher interface {
	Search(query string, limit int) ([]*Result, error)
}

// UpdateListener can be implemented by search engines that maintain
// an external index and want to be notified about new history entries.
type UpdateListener interface {
	OnSearchSaved(rec *storage.SearchRecord)
}

// DeleteListener can be implemented to get notified when history is cleared.
type DeleteListener interface {
	OnHistoryCleared()
}

// DebugStatser provides lightweight stats for visibility/debugging.
// Implemented by engines that can report index doc counts, etc.
type DebugStatser interface {
	DocCount() (int, error)
}
