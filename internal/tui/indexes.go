package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/srcview/internal/codeintel"
	"github.com/pders01/srcview/internal/summary"
)

// stateDescriptors declares the count bar above the index list. The
// failure entry only shows up when something failed.
func stateDescriptors() []summary.Descriptor[*codeintel.IndexList] {
	count := func(st codeintel.State) func(*codeintel.IndexList) int {
		return func(l *codeintel.IndexList) int { return l.Count(st) }
	}
	link := func(st codeintel.State) func(*codeintel.IndexList) string {
		return summary.ConstURL[*codeintel.IndexList](indexesPath(&st))
	}

	return []summary.Descriptor[*codeintel.IndexList]{
		{
			Noun:       "queued index",
			PluralNoun: "queued indexes",
			Icon:       "◷",
			Count:      count(codeintel.StateQueued),
			URL:        link(codeintel.StateQueued),
		},
		{
			Noun:       "processing index",
			PluralNoun: "processing indexes",
			Icon:       "⟳",
			Count:      count(codeintel.StateProcessing),
			URL:        link(codeintel.StateProcessing),
		},
		{
			Noun:       "completed index",
			PluralNoun: "completed indexes",
			Icon:       "✓",
			Count:      count(codeintel.StateCompleted),
			URL:        link(codeintel.StateCompleted),
		},
		{
			Noun:       "failed index",
			PluralNoun: "failed indexes",
			Icon:       "✗",
			Count:      count(codeintel.StateErrored),
			URL:        link(codeintel.StateErrored),
			Condition:  func(l *codeintel.IndexList) bool { return l.Count(codeintel.StateErrored) > 0 },
		},
	}
}

type indexItem struct {
	index codeintel.Index
}

func (i indexItem) Title() string {
	repo := i.index.RepositoryName("")
	return fmt.Sprintf("%s · %s", i.index.AbbreviatedCommit(), repo)
}

func (i indexItem) Description() string {
	desc := strings.ToLower(i.index.State.String())
	switch i.index.State {
	case codeintel.StateQueued:
		desc += fmt.Sprintf(" (#%d)", i.index.QueuePosition())
	case codeintel.StateErrored:
		desc += ": " + truncateEnd(i.index.FailureMessage(), 60)
	}
	if !i.index.QueuedAt.IsZero() {
		desc += TimeStyle.Render(" • queued " + i.index.QueuedAt.UTC().Format("Jan 2, 15:04"))
	}
	return lipgloss.NewStyle().Foreground(MutedColor).Render(desc)
}

func (i indexItem) FilterValue() string {
	return i.index.InputCommit + " " + i.index.RepositoryName("")
}

func newIndexList() list.Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "› auto-indexing"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)
	return l
}

func (a *App) setIndexes(l *codeintel.IndexList) {
	a.indexes = l
	items := make([]list.Item, len(l.Indexes))
	for i, idx := range l.Indexes {
		items[i] = indexItem{index: idx}
	}
	a.indexList.SetItems(items)
}

// IndexCounts resolves the per-state count entries for l.
func IndexCounts(l *codeintel.IndexList) []summary.Item {
	return summary.Resolve(stateDescriptors(), l)
}

// countItems resolves the count bar for the loaded list.
func (a *App) countItems() []summary.Item {
	if a.indexes == nil {
		return nil
	}
	return IndexCounts(a.indexes)
}

func (a *App) renderIndexes(width, height int) string {
	if a.indexes == nil {
		return renderCentered(width, height, renderMuted(MsgLoadingIndexes))
	}

	bar := a.countBar
	bar.Width = width
	header := bar.View(a.countItems())

	subtitle := "all states"
	if a.route.state != nil {
		subtitle = "state: " + strings.ToLower(a.route.state.String())
	}
	if a.route.query != "" {
		subtitle += " • query: " + a.route.query
	}

	a.indexList.SetSize(width, max(height-lipgloss.Height(header)-2, 3))
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		renderMuted(subtitle),
		a.indexList.View(),
	)
}
