package tui

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/srcview/internal/codeintel"
)

const timestampLayout = "2006-01-02 15:04:05 UTC"

// serviceIndexesPath is where the service's own UI lists index records.
const serviceIndexesPath = "/site-admin/code-intelligence/indexes"

// indexPage is the state of the index status view. index holds the last
// snapshot the watcher delivered; fetchErr is set once polling stopped on an
// error.
type indexPage struct {
	id           string
	repoFallback string

	index    *codeintel.Index
	fetchErr error

	deletion   codeintel.Deletion
	confirming bool

	spinner spinner.Model
	// ticking is set while a spinner tick is scheduled.
	ticking bool
}

func newIndexPage(id, repo string) *indexPage {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(InfoColor)
	return &indexPage{id: id, repoFallback: repo, spinner: s}
}

func (p *indexPage) apply(u codeintel.Update) {
	if u.Err != nil {
		p.fetchErr = u.Err
		return
	}
	p.index = u.Index
}

// canDelete reports whether a delete may be requested: a record is loaded
// without error and no delete is running.
func (p *indexPage) canDelete() bool {
	return p.index != nil && p.fetchErr == nil && !p.deletion.Loading()
}

// spinning reports whether the spinner is visible.
func (p *indexPage) spinning() bool {
	if p.fetchErr != nil {
		return false
	}
	return p.index == nil || p.index.State == codeintel.StateProcessing || p.deletion.Loading()
}

// openPath is the page's location on the service.
func (p *indexPage) openPath() string {
	return serviceIndexPath(p.id)
}

func serviceIndexPath(id string) string {
	return serviceIndexesPath + "/" + url.PathEscape(id)
}

// stateBanner picks exactly one banner for the current state.
func (p *indexPage) stateBanner(width int) string {
	text := IndexStateText(p.index)
	switch p.index.State {
	case codeintel.StateProcessing:
		return renderBanner(StatusInfo, p.spinner.View()+" "+text, width)
	case codeintel.StateCompleted:
		return renderBanner(StatusSuccess, "✓ "+text, width)
	case codeintel.StateErrored:
		return renderBanner(StatusError, "✗ "+text, width)
	default:
		return renderBanner(StatusInfo, "◷ "+text, width)
	}
}

// IndexStateText describes the state of idx in one sentence.
func IndexStateText(idx *codeintel.Index) string {
	switch idx.State {
	case codeintel.StateProcessing:
		return MsgIndexProcessing
	case codeintel.StateCompleted:
		return MsgIndexCompleted
	case codeintel.StateErrored:
		return MsgIndexFailed(idx.FailureMessage())
	default:
		return MsgIndexQueued(idx.QueuePosition())
	}
}

func (p *indexPage) heading() string {
	return IndexHeading(p.index)
}

func IndexHeading(idx *codeintel.Index) string {
	return fmt.Sprintf("Auto-index record for commit %s rooted at %s", idx.AbbreviatedCommit(), idx.RootPath())
}

// IndexTableMarkdown renders the metadata table as markdown. Relative links are made
// absolute against baseURL.
func IndexTableMarkdown(idx *codeintel.Index, repoFallback, baseURL string) string {
	link := func(text, target string) string {
		if target == "" {
			return text
		}
		if strings.HasPrefix(target, "/") {
			target = strings.TrimRight(baseURL, "/") + target
		}
		return fmt.Sprintf("[%s](%s)", text, target)
	}

	repo := idx.RepositoryName(repoFallback)
	commit := idx.InputCommit
	if idx.ProjectRoot != nil {
		c := idx.ProjectRoot.Commit
		repo = link(c.Repository.Name, c.Repository.URL)
		commit = link("`"+c.OID+"`", c.URL)
	}

	started := "_" + MsgIndexNotStarted + "_"
	if idx.StartedAt != nil {
		started = formatTimestamp(*idx.StartedAt)
	}

	finishedLabel := "Finished processing"
	if idx.State == codeintel.StateErrored && idx.FinishedAt != nil {
		finishedLabel = "Failed processing"
	}
	finished := "_" + MsgIndexNotDone + "_"
	if idx.FinishedAt != nil {
		finished = formatTimestamp(*idx.FinishedAt)
	}

	var b strings.Builder
	b.WriteString("| Field | Value |\n")
	b.WriteString("| --- | --- |\n")
	fmt.Fprintf(&b, "| Repository | %s |\n", repo)
	fmt.Fprintf(&b, "| Commit | %s |\n", commit)
	fmt.Fprintf(&b, "| Queued | %s |\n", formatTimestamp(idx.QueuedAt))
	fmt.Fprintf(&b, "| Began processing | %s |\n", started)
	fmt.Fprintf(&b, "| %s | %s |\n", finishedLabel, finished)
	return b.String()
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.UTC().Format(timestampLayout)
}

// renderIndexPage lays the page out. A failed deletion replaces the whole
// page with its error.
func (a *App) renderIndexPage(width, height int) string {
	p := a.page
	if p == nil {
		return ""
	}

	if p.deletion.Failed() {
		return lipgloss.JoinVertical(lipgloss.Left,
			renderHeader("› code intelligence · auto-indexing", "", width),
			renderBanner(StatusError, "Error deleting LSIF index record: "+p.deletion.Err.Error(), width),
		)
	}

	rows := []string{renderHeader("› code intelligence · auto-indexing", truncateMiddle(p.id, width-2), width)}

	switch {
	case p.fetchErr != nil:
		rows = append(rows, renderBanner(StatusError, "Error loading LSIF index: "+p.fetchErr.Error(), width))
	case p.index == nil:
		rows = append(rows, "", p.spinner.View()+" "+renderMuted(MsgLoadingIndex))
	default:
		rows = append(rows,
			"",
			TitleStyle.Render(truncateEnd(p.heading(), width-4)),
			p.stateBanner(width),
			a.renderMarkdown(IndexTableMarkdown(p.index, p.repoFallback, a.config.Server.Endpoint)),
			a.renderDeleteAction(width),
		)
	}

	return ContentWrapper(width, height).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a *App) renderDeleteAction(width int) string {
	p := a.page
	switch {
	case p.confirming:
		return lipgloss.JoinVertical(lipgloss.Left,
			StatusErrorStyle.Render("⚠ "+codeintel.ConfirmDeleteMessage(p.index)),
			renderHelp("y/Enter: confirm • n/Esc: cancel"),
		)
	case p.deletion.Loading():
		return p.spinner.View() + " " + renderMuted(MsgDeleting)
	default:
		return lipgloss.JoinVertical(lipgloss.Left,
			HeaderStyle.Render("Delete this index"),
			renderMuted(truncateEnd("Deleting this index will remove it from the index queue.", width-2)),
		)
	}
}
