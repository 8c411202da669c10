package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/srcview/internal/debuglog"
	"github.com/pders01/srcview/internal/search"
	"github.com/pders01/srcview/internal/searchparams"
	"github.com/pders01/srcview/internal/storage"
)

type historyItem struct {
	record *storage.SearchRecord
}

func (i historyItem) Title() string {
	if i.record.Query == "" {
		return "(empty query)"
	}
	return i.record.Query
}

func (i historyItem) Description() string {
	desc := searchSummary(searchparams.Params{
		Repos:      i.record.Repos,
		Files:      i.record.Files,
		MatchCase:  i.record.MatchCase,
		MatchWord:  i.record.MatchWord,
		MatchRegex: i.record.MatchRegex,
	})
	if i.record.Count > 1 {
		desc += fmt.Sprintf(" • %d×", i.record.Count)
	}
	if !i.record.SearchedAt.IsZero() {
		desc += TimeStyle.Render(" • " + i.record.SearchedAt.Local().Format("Jan 2, 15:04"))
	}
	return lipgloss.NewStyle().Foreground(MutedColor).Render(desc)
}

func (i historyItem) FilterValue() string { return i.record.Query }

func newHistoryList() list.Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "› recent searches"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	return l
}

func newSearchInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "Search code..."
	ti.CharLimit = 512
	ti.Focus()
	return ti
}

// searchSummary describes the scope and flags of a search in one line.
func searchSummary(p searchparams.Params) string {
	parts := []string{"repos:" + p.Repos}
	if p.Files != "" {
		parts = append(parts, "files:"+p.Files)
	}
	if p.MatchCase {
		parts = append(parts, "case")
	}
	if p.MatchWord {
		parts = append(parts, "word")
	}
	if p.MatchRegex {
		parts = append(parts, "regex")
	}
	return strings.Join(parts, " ")
}

func (a *App) setHistory(recs []*storage.SearchRecord) {
	items := make([]list.Item, 0, len(recs))
	for _, r := range recs {
		if r == nil {
			continue
		}
		items = append(items, historyItem{record: r})
	}
	a.historyList.SetItems(items)
}

// recordSearch keeps the preference slots and the history in step with the
// search location just entered.
func (a *App) recordSearch(location string) {
	if _, err := search.Record(a.store, a.history, location); err != nil {
		debuglog.Warnf("record search %s: %v", location, err)
		a.setStatus(err.Error(), StatusError)
	}
}

// toggleFlag flips one match flag of the current search and reloads it.
func (a *App) toggleFlag(flip func(*searchparams.Params)) tea.Cmd {
	if a.view != ViewSearch {
		return nil
	}
	p := searchparams.FromURL(a.location)
	flip(&p)
	return a.redirect(searchparams.Path(p))
}

func (a *App) renderSearch(width, height int) string {
	inputWidth := max(width-8, 10)
	a.searchInput.Width = inputWidth
	input := renderInputFrame(a.searchInput.View(), a.searchInput.Focused(), inputWidth)

	var help string
	switch {
	case a.searchInput.Focused() && a.view == ViewSearch:
		help = "Enter: search • alt+enter: open in browser • alt+c/w/r: toggle flags • Tab: history"
	case a.searchInput.Focused():
		help = "Enter: search • alt+enter: open in browser • Tab: history"
	case len(a.historyList.Items()) > 0:
		help = "↑↓: navigate • Enter: repeat search • Tab/↑: search box"
	default:
		help = MsgNoHistory + " • Tab: search box"
	}

	if a.view == ViewSearchPrompt && len(a.historyList.Items()) == 0 && a.searchInput.Value() == "" {
		welcome := lipgloss.JoinVertical(lipgloss.Center, GetWelcomeMessage(), "", input)
		return renderCentered(width, height, welcome)
	}

	subtitle := ""
	if a.view == ViewSearch {
		subtitle = searchSummary(searchparams.FromURL(a.location))
	}
	header := renderHeader("› search", subtitle, width)

	used := lipgloss.Height(header) + lipgloss.Height(input) + 2
	a.historyList.SetSize(width, max(height-used, 3))

	return ContentWrapper(width, height).Render(lipgloss.JoinVertical(lipgloss.Left,
		header,
		input,
		renderHelp(truncateEnd(help, width-2)),
		"",
		a.historyList.View(),
	))
}
