package summary

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Bar renders resolved items side by side inside a bordered box.
type Bar struct {
	Width int
	// BaseURL is prefixed to relative item URLs when building terminal
	// hyperlinks, so links stay clickable outside the app.
	BaseURL string

	BorderColor lipgloss.TerminalColor
	IconStyle   lipgloss.Style
	CountStyle  lipgloss.Style
	LabelStyle  lipgloss.Style
	LinkStyle   lipgloss.Style
}

// NewBar returns a bar with muted labels and bold counts.
func NewBar(width int) Bar {
	muted := lipgloss.Color("#94A3B8")
	return Bar{
		Width:       width,
		BorderColor: muted,
		IconStyle:   lipgloss.NewStyle().Foreground(muted),
		CountStyle:  lipgloss.NewStyle().Bold(true),
		LabelStyle:  lipgloss.NewStyle().Foreground(muted),
		LinkStyle:   lipgloss.NewStyle().Underline(true),
	}
}

// View renders items. An empty slice renders as an empty string.
func (b Bar) View(items []Item) string {
	if len(items) == 0 {
		return ""
	}

	inner := b.Width - 2
	if inner < len(items) {
		inner = 0
	}
	cellWidth := 0
	if inner > 0 {
		cellWidth = inner / len(items)
	}

	cells := make([]string, len(items))
	for i, item := range items {
		cell := lipgloss.NewStyle().Align(lipgloss.Center)
		if cellWidth > 0 {
			cell = cell.Width(cellWidth)
		} else {
			cell = cell.Padding(0, 1)
		}
		cells[i] = cell.Render(b.renderItem(item))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(b.BorderColor).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
}

// Plain renders items without styling, one "icon count label" group per
// item separated by " · ".
func Plain(items []Item) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = strings.TrimSpace(item.Icon + " " + strconv.Itoa(item.Count) + " " + item.Label)
	}
	return strings.Join(parts, " · ")
}

func (b Bar) renderItem(item Item) string {
	label := b.LabelStyle.Render(item.Label)
	if item.HasLink() {
		label = termenv.Hyperlink(b.absolute(item.URL), b.LinkStyle.Inherit(b.LabelStyle).Render(item.Label))
	}

	var parts []string
	if item.Icon != "" {
		parts = append(parts, b.IconStyle.Render(item.Icon))
	}
	parts = append(parts, b.CountStyle.Render(strconv.Itoa(item.Count)), label)
	return strings.Join(parts, " ")
}

func (b Bar) absolute(url string) string {
	if b.BaseURL == "" || !strings.HasPrefix(url, "/") {
		return url
	}
	return strings.TrimRight(b.BaseURL, "/") + url
}
