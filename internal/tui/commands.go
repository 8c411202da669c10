package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/srcview/internal/browser"
	"github.com/pders01/srcview/internal/codeintel"
	"github.com/pders01/srcview/internal/debuglog"
	"github.com/pders01/srcview/internal/storage"
)

const historyDebounce = 150 * time.Millisecond

type indexesLoadedMsg struct {
	gen  int
	list *codeintel.IndexList
	err  error
}

// indexUpdateMsg carries one watcher update. ok is false once the watcher
// closed its channel.
type indexUpdateMsg struct {
	gen    int
	update codeintel.Update
	ok     bool
}

type indexDeletedMsg struct {
	gen      int
	deletion codeintel.Deletion
}

type historyLoadedMsg struct {
	seq     int
	records []*storage.SearchRecord
}

type historyDebounceMsg struct {
	seq int
}

type openedMsg struct {
	target string
}

type errorMsg struct {
	err error
}

func (a *App) requestContext() (context.Context, context.CancelFunc) {
	timeout := a.config.Server.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(a.ctx, timeout)
}

func (a *App) loadIndexes(gen int, opts codeintel.ListOptions) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := a.requestContext()
		defer cancel()
		list, err := a.service.Indexes(ctx, opts)
		if err != nil {
			return indexesLoadedMsg{gen: gen, err: wrapErr("load indexes", err)}
		}
		return indexesLoadedMsg{gen: gen, list: list}
	}
}

// waitForUpdate blocks on the next watcher update.
func waitForUpdate(gen int, updates <-chan codeintel.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-updates
		return indexUpdateMsg{gen: gen, update: u, ok: ok}
	}
}

// deleteIndex runs the delete once the page already asked for
// confirmation.
func (a *App) deleteIndex(gen int, idx *codeintel.Index) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := a.requestContext()
		defer cancel()
		d, err := codeintel.Delete(ctx, a.service, idx, nil, nil)
		if err != nil {
			d = codeintel.Deletion{Phase: codeintel.DeletionFailed, Err: err}
		}
		if d.Failed() {
			debuglog.Warnf("delete index %s: %v", idx.ID, d.Err)
		}
		return indexDeletedMsg{gen: gen, deletion: d}
	}
}

func (a *App) openExternal(target string) tea.Cmd {
	return func() tea.Msg {
		if a.opener == nil {
			return errorMsg{err: wrapErr("open "+target, browser.ErrNoOpener)}
		}
		if err := a.opener.Open(target); err != nil {
			return errorMsg{err: wrapErr("open "+target, err)}
		}
		return openedMsg{target: target}
	}
}

// loadHistory lists past searches. Queries of two or more characters go
// through the full-text index when one is configured.
func (a *App) loadHistory(seq int, query string) tea.Cmd {
	limit := a.config.Search.HistoryLimit
	return func() tea.Msg {
		if a.history != nil && len([]rune(query)) > 1 {
			results, err := a.history.Search(query, limit)
			if err != nil {
				return errorMsg{err: wrapErr("search history", err)}
			}
			recs := make([]*storage.SearchRecord, 0, len(results))
			for _, r := range results {
				recs = append(recs, r.Record)
			}
			return historyLoadedMsg{seq: seq, records: recs}
		}
		recs, err := a.store.RecentSearches(limit)
		if err != nil {
			return errorMsg{err: wrapErr("load history", err)}
		}
		return historyLoadedMsg{seq: seq, records: recs}
	}
}

// scheduleHistory debounces history lookups while the user types.
func (a *App) scheduleHistory() tea.Cmd {
	a.historySeq++
	seq := a.historySeq
	return tea.Tick(historyDebounce, func(time.Time) tea.Msg {
		return historyDebounceMsg{seq: seq}
	})
}
