package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/srcview/internal/browser"
	"github.com/pders01/srcview/internal/codeintel"
	"github.com/pders01/srcview/internal/config"
	"github.com/pders01/srcview/internal/debuglog"
	"github.com/pders01/srcview/internal/search"
	"github.com/pders01/srcview/internal/searchparams"
	"github.com/pders01/srcview/internal/storage"
	"github.com/pders01/srcview/internal/summary"
)

type App struct {
	config     *config.Config
	store      *storage.Store
	service    codeintel.Service
	opener     browser.Opener
	history    search.Searcher
	keyHandler *KeyHandler

	ctx    context.Context
	cancel context.CancelFunc

	view      View
	route     route
	location  string
	backStack []string
	// lastSearchURL is the most recent search location, the URL baseline
	// of the search prompt.
	lastSearchURL string
	startPath     string

	searchInput textinput.Model
	historyList list.Model
	historySeq  int

	indexList list.Model
	indexes   *codeintel.IndexList
	listGen   int
	countBar  summary.Bar

	page     *indexPage
	watcher  *codeintel.Watcher
	updates  <-chan codeintel.Update
	watchGen int

	help       help.Model
	statusText string
	statusKind StatusKind
	width      int
	height     int
	err        error

	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
	markdownSource  string
	markdownOut     string
}

type Option func(*App)

// WithOpener sets where "open in browser" requests go.
func WithOpener(o browser.Opener) Option {
	return func(a *App) { a.opener = o }
}

// WithHistory sets the full-text index used to filter past searches.
func WithHistory(s search.Searcher) Option {
	return func(a *App) { a.history = s }
}

// WithStartPath sets the location shown first.
func WithStartPath(path string) Option {
	return func(a *App) { a.startPath = path }
}

func NewApp(cfg *config.Config, store *storage.Store, svc codeintel.Service, opts ...Option) *App {
	ctx, cancel := context.WithCancel(context.Background())

	bar := summary.NewBar(0)
	bar.BaseURL = cfg.Server.Endpoint

	app := &App{
		config:      cfg,
		store:       store,
		service:     svc,
		ctx:         ctx,
		cancel:      cancel,
		startPath:   RootPath,
		searchInput: newSearchInput(),
		historyList: newHistoryList(),
		indexList:   newIndexList(),
		countBar:    bar,
		help:        help.New(),
		width:       80,
		height:      24,
	}
	for _, opt := range opts {
		opt(app)
	}

	app.keyHandler = NewKeyHandler(app, cfg)
	app.location = app.startPath
	app.route = parseRoute(app.startPath)
	app.view = app.route.view

	return app
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	wordWrapWidth := (a.width * 9) / 10
	if wordWrapWidth > 120 {
		wordWrapWidth = 120 // maximum for readability
	}
	if wordWrapWidth < 40 {
		wordWrapWidth = 40 // minimum for readability
	}
	if a.width < 50 {
		wordWrapWidth = a.width - 4
		if wordWrapWidth < 20 {
			wordWrapWidth = 20
		}
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrapWidth) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
		a.markdownSource = ""
	}

	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// renderMarkdown renders md, falling back to the source text when the
// renderer is unavailable. The last result is cached across frames.
func (a *App) renderMarkdown(md string) string {
	r, err := a.getRenderer()
	if err != nil {
		debuglog.Warnf("markdown renderer: %v", err)
		return md
	}
	if md == a.markdownSource {
		return a.markdownOut
	}
	out, err := r.Render(md)
	if err != nil {
		debuglog.Warnf("render markdown: %v", err)
		return md
	}
	a.markdownSource = md
	a.markdownOut = strings.Trim(out, "\n")
	return a.markdownOut
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.enter(a.route, true),
		tea.EnterAltScreen,
	)
}

// Close stops background polling. The app must not be used afterwards.
func (a *App) Close() {
	a.stopWatcher()
	a.cancel()
}

// navigate moves to path and remembers the current location for Back.
func (a *App) navigate(path string) tea.Cmd {
	if path == "" {
		return nil
	}
	a.backStack = append(a.backStack, a.location)
	return a.moveTo(path, true)
}

// redirect replaces the current location with path.
func (a *App) redirect(path string) tea.Cmd {
	return a.moveTo(path, true)
}

// goBack returns to the previous location. It reports false when there is
// nowhere to go.
func (a *App) goBack() (tea.Cmd, bool) {
	if len(a.backStack) == 0 {
		if a.view == ViewSearchPrompt {
			return nil, false
		}
		return a.moveTo(RootPath, false), true
	}
	prev := a.backStack[len(a.backStack)-1]
	a.backStack = a.backStack[:len(a.backStack)-1]
	return a.moveTo(prev, false), true
}

func (a *App) moveTo(path string, fresh bool) tea.Cmd {
	r := parseRoute(path)
	debuglog.Debugf("navigate %s -> %s", a.location, r.path)
	a.teardown()
	a.location = r.path
	a.route = r
	a.view = r.view
	return a.enter(r, fresh)
}

// teardown releases whatever the current view holds.
func (a *App) teardown() {
	a.stopWatcher()
	a.page = nil
	a.err = nil
	a.clearStatus()
}

func (a *App) stopWatcher() {
	if a.watcher != nil {
		a.watcher.Stop()
		a.watcher = nil
	}
	a.updates = nil
	a.watchGen++
}

// enter mounts the view for r. fresh is false when returning to a location
// through Back, which must not record the search again.
func (a *App) enter(r route, fresh bool) tea.Cmd {
	switch r.view {
	case ViewSearchPrompt:
		a.searchInput.SetValue(a.promptBaseline().Query)
		a.searchInput.CursorEnd()
		a.searchInput.Focus()
		a.historySeq++
		return a.loadHistory(a.historySeq, "")

	case ViewSearch:
		if fresh {
			a.recordSearch(r.path)
		}
		a.lastSearchURL = r.path
		a.searchInput.SetValue(searchparams.FromURL(r.path).Query)
		a.searchInput.CursorEnd()
		a.searchInput.Focus()
		a.historySeq++
		return a.loadHistory(a.historySeq, "")

	case ViewIndexes:
		a.indexes = nil
		a.listGen++
		return a.loadIndexes(a.listGen, codeintel.ListOptions{
			State: r.state,
			Query: r.query,
			First: a.config.Index.PageSize,
		})

	case ViewIndex:
		return a.mountIndexPage(r.indexID, r.repo)
	}
	return nil
}

// promptBaseline is what the prompt starts from: the last search location
// or the stored preferences, depending on configuration.
func (a *App) promptBaseline() searchparams.Params {
	src := searchparams.Sources{CurrentURL: a.lastSearchURL, Store: a.store.Prefs()}
	return src.Baseline(a.config.Search.ReadFromURL && a.lastSearchURL != "")
}

// mountIndexPage starts polling the index record id.
func (a *App) mountIndexPage(id, repo string) tea.Cmd {
	a.stopWatcher()
	a.page = newIndexPage(id, repo)
	a.watcher = codeintel.NewWatcher(a.service, id, a.config.Index.PollInterval)
	a.updates = a.watcher.Start(a.ctx)
	a.page.ticking = true
	return tea.Batch(waitForUpdate(a.watchGen, a.updates), a.page.spinner.Tick)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.historyList.SetSize(msg.Width, max(msg.Height-10, 5))
		a.indexList.SetSize(msg.Width, max(msg.Height-8, 5))
		return a, nil

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case indexUpdateMsg:
		return a, a.applyIndexUpdate(msg)

	case indexDeletedMsg:
		return a, a.applyDeletion(msg)

	case spinner.TickMsg:
		if a.page == nil {
			return a, nil
		}
		if !a.page.spinning() {
			a.page.ticking = false
			return a, nil
		}
		var cmd tea.Cmd
		a.page.spinner, cmd = a.page.spinner.Update(msg)
		return a, cmd

	case indexesLoadedMsg:
		if msg.gen != a.listGen || a.view != ViewIndexes {
			return a, nil
		}
		if msg.err != nil {
			debuglog.Errorf("load indexes: %v", msg.err)
			a.err = msg.err
			a.setIndexes(&codeintel.IndexList{})
			return a, nil
		}
		a.setIndexes(msg.list)
		a.setStatus(MsgResultsCount(len(msg.list.Indexes)), StatusInfo)
		return a, nil

	case historyDebounceMsg:
		if msg.seq != a.historySeq {
			return a, nil
		}
		return a, a.loadHistory(msg.seq, a.searchInput.Value())

	case historyLoadedMsg:
		if msg.seq != a.historySeq {
			return a, nil
		}
		a.setHistory(msg.records)
		return a, nil

	case openedMsg:
		a.setStatus(MsgOpened(msg.target), StatusSuccess)
		return a, nil

	case errorMsg:
		debuglog.Errorf("%v", msg.err)
		a.err = msg.err
		return a, nil
	}

	switch a.view {
	case ViewIndexes:
		var cmd tea.Cmd
		a.indexList, cmd = a.indexList.Update(msg)
		cmds = append(cmds, cmd)
	case ViewSearchPrompt, ViewSearch:
		var cmd tea.Cmd
		a.searchInput, cmd = a.searchInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return a, tea.Batch(cmds...)
}

// applyIndexUpdate folds a watcher update into the page and keeps listening
// until the watcher is done.
func (a *App) applyIndexUpdate(msg indexUpdateMsg) tea.Cmd {
	if msg.gen != a.watchGen || a.page == nil || !msg.ok {
		return nil
	}

	a.page.apply(msg.update)
	if msg.update.Err != nil {
		debuglog.WithFields(map[string]any{"id": a.page.id}).Warnf("poll index: %v", msg.update.Err)
	}

	var cmds []tea.Cmd
	if !msg.update.Final() {
		cmds = append(cmds, waitForUpdate(msg.gen, a.updates))
	}
	if a.page.spinning() && !a.page.ticking {
		a.page.ticking = true
		cmds = append(cmds, a.page.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func (a *App) applyDeletion(msg indexDeletedMsg) tea.Cmd {
	if msg.gen != a.watchGen || a.page == nil {
		return nil
	}
	switch {
	case msg.deletion.Deleted():
		cmd := a.redirect(IndexesPath)
		a.setStatus(MsgIndexDeleted, StatusSuccess)
		return cmd
	case msg.deletion.Failed():
		a.page.deletion = msg.deletion
		a.stopWatcher()
	default:
		a.page.deletion = msg.deletion
	}
	return nil
}

// requestDelete asks for confirmation on the index page.
func (a *App) requestDelete() {
	if a.page == nil || !a.page.canDelete() {
		return
	}
	a.page.confirming = true
}

// confirmDelete starts the delete the user just confirmed.
func (a *App) confirmDelete() tea.Cmd {
	p := a.page
	if p == nil || !p.confirming {
		return nil
	}
	p.confirming = false
	if !p.canDelete() {
		return nil
	}
	p.deletion = codeintel.Deletion{Phase: codeintel.DeletionLoading}
	cmds := []tea.Cmd{a.deleteIndex(a.watchGen, p.index)}
	if !p.ticking {
		p.ticking = true
		cmds = append(cmds, p.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func (a *App) cancelDelete() {
	if a.page != nil {
		a.page.confirming = false
	}
}

func (a *App) View() string {
	contentHeight := max(a.height-3, 1)

	var content string
	switch a.view {
	case ViewSearchPrompt, ViewSearch:
		content = a.renderSearch(a.width, contentHeight)
	case ViewIndexes:
		content = ContentWrapper(a.width, contentHeight).Render(a.renderIndexes(a.width, contentHeight))
	case ViewIndex:
		content = a.renderIndexPage(a.width, contentHeight)
	}

	separator := SeparatorStyle.Render(strings.Repeat("─", max(a.width-1, 0)))
	return lipgloss.JoinVertical(lipgloss.Top, content, separator, a.getCustomStatusBar())
}

func (a *App) getCustomStatusBar() string {
	style := StatusBarStyleWithPadding().Width(a.width)

	if a.err != nil {
		return style.Render(StatusErrorStyle.Render(fmt.Sprintf("✗ %v", a.err)))
	}

	helpView := a.help.View(a.keyHandler.keyMap())
	if status := a.renderStatus(); status != "" {
		return style.Render(status + SeparatorStyle.Render(" • ") + helpView)
	}
	return style.Render(helpView)
}
