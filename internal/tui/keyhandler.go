package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/srcview/internal/config"
	"github.com/pders01/srcview/internal/searchparams"
)

type keyBindings struct {
	Quit    key.Binding
	Back    key.Binding
	Help    key.Binding
	Search  key.Binding
	Indexes key.Binding
	Delete  key.Binding
	Open    key.Binding
	Refresh key.Binding

	Submit     key.Binding
	OpenNew    key.Binding
	Focus      key.Binding
	Select     key.Binding
	Confirm    key.Binding
	Cancel     key.Binding
	MatchCase  key.Binding
	MatchWord  key.Binding
	MatchRegex key.Binding
	Filter     key.Binding
}

func newKeyBindings(cfg *config.Config) keyBindings {
	mod := cfg.Keys.Modifier + "+"
	b := cfg.Keys.Bindings
	bind := func(desc string, keys ...string) key.Binding {
		return key.NewBinding(key.WithKeys(keys...), key.WithHelp(keys[0], desc))
	}

	return keyBindings{
		Quit:    bind("quit", b.Quit, "ctrl+c"),
		Back:    bind("back", b.Back),
		Help:    bind("more", b.Help),
		Search:  bind("search", mod+b.Search),
		Indexes: bind("indexes", mod+b.Indexes),
		Delete:  bind("delete", mod+b.Delete),
		Open:    bind("open in browser", mod+b.Open),
		Refresh: bind("refresh", mod+b.Refresh),

		Submit:     bind("search", "enter"),
		OpenNew:    bind("search in browser", "alt+enter"),
		Focus:      bind("history", "tab", "down"),
		Select:     bind("open", "enter"),
		Confirm:    bind("confirm", "y", "enter"),
		Cancel:     bind("cancel", "n", "esc"),
		MatchCase:  bind("match case", "alt+c"),
		MatchWord:  bind("match word", "alt+w"),
		MatchRegex: bind("regexp", "alt+r"),
		Filter:     bind("filter", "/"),
	}
}

// keyMap adapts a set of bindings to help.KeyMap.
type keyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k keyMap) ShortHelp() []key.Binding  { return k.short }
func (k keyMap) FullHelp() [][]key.Binding { return k.full }

type KeyHandler struct {
	app    *App
	config *config.Config
	keys   keyBindings
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	return &KeyHandler{app: app, config: cfg, keys: newKeyBindings(cfg)}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return kh.app, tea.Quit
	}

	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	if model, cmd, handled := kh.handleCustomKeys(msg); handled {
		return model, cmd
	}

	return kh.delegateToCharm(msg)
}

func (kh *KeyHandler) isInTextInputMode() bool {
	switch kh.app.view {
	case ViewSearchPrompt, ViewSearch:
		return kh.app.searchInput.Focused()
	case ViewIndexes:
		return kh.app.indexList.FilterState() == list.Filtering
	default:
		return false
	}
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	app := kh.app
	if app.view == ViewIndexes {
		var cmd tea.Cmd
		app.indexList, cmd = app.indexList.Update(msg)
		return app, cmd
	}

	switch {
	case key.Matches(msg, kh.keys.Back):
		return kh.navigateBack()
	case key.Matches(msg, kh.keys.Submit), key.Matches(msg, kh.keys.OpenNew):
		return app, kh.submitSearch(msg)
	case key.Matches(msg, kh.keys.Focus):
		if len(app.historyList.Items()) > 0 {
			app.searchInput.Blur()
			app.historyList.Select(0)
		}
		return app, nil
	case key.Matches(msg, kh.keys.Indexes):
		return app, app.navigate(IndexesPath)
	case key.Matches(msg, kh.keys.MatchCase):
		return app, app.toggleFlag(func(p *searchparams.Params) { p.MatchCase = !p.MatchCase })
	case key.Matches(msg, kh.keys.MatchWord):
		return app, app.toggleFlag(func(p *searchparams.Params) { p.MatchWord = !p.MatchWord })
	case key.Matches(msg, kh.keys.MatchRegex):
		return app, app.toggleFlag(func(p *searchparams.Params) { p.MatchRegex = !p.MatchRegex })
	default:
		return kh.delegateToTextInput(msg)
	}
}

// searchNavigator routes search submissions into the app.
type searchNavigator struct {
	app *App
	cmd tea.Cmd
}

func (n *searchNavigator) Navigate(path string) { n.cmd = n.app.navigate(path) }
func (n *searchNavigator) OpenNew(path string)  { n.cmd = n.app.openExternal(path) }

// submitSearch hands the key press to the search input handler. On a
// search location the baseline is the location itself; elsewhere it is the
// stored preferences unless configured otherwise.
func (kh *KeyHandler) submitSearch(msg tea.KeyMsg) tea.Cmd {
	app := kh.app
	ev := searchparams.KeyEvent{
		Key:   msg.String(),
		Value: app.searchInput.Value(),
		Alt:   msg.Alt,
	}
	if msg.Type == tea.KeyEnter {
		ev.Key = "Enter"
		ev.Code = searchparams.EnterKeyCode
	}

	readFromURL := app.view == ViewSearch
	currentURL := app.location
	if app.view != ViewSearch {
		readFromURL = kh.config.Search.ReadFromURL && app.lastSearchURL != ""
		currentURL = app.lastSearchURL
	}

	nav := &searchNavigator{app: app}
	searchparams.HandleInput(ev, readFromURL, searchparams.Sources{
		CurrentURL: currentURL,
		Store:      app.store.Prefs(),
	}, nav)
	return nav.cmd
}

func (kh *KeyHandler) delegateToTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	app := kh.app
	prev := app.searchInput.Value()
	var cmd tea.Cmd
	app.searchInput, cmd = app.searchInput.Update(msg)
	if app.searchInput.Value() != prev {
		return app, tea.Batch(cmd, app.scheduleHistory())
	}
	return app, cmd
}

// handleCustomKeys handles only our custom action keys
func (kh *KeyHandler) handleCustomKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	app := kh.app

	// The confirmation prompt swallows everything else.
	if app.view == ViewIndex && app.page != nil && app.page.confirming {
		switch {
		case key.Matches(msg, kh.keys.Confirm):
			return app, app.confirmDelete(), true
		case key.Matches(msg, kh.keys.Cancel):
			app.cancelDelete()
		}
		return app, nil, true
	}

	switch {
	case key.Matches(msg, kh.keys.Quit):
		return app, tea.Quit, true
	case key.Matches(msg, kh.keys.Back):
		model, cmd := kh.navigateBack()
		return model, cmd, true
	case key.Matches(msg, kh.keys.Help):
		app.help.ShowAll = !app.help.ShowAll
		return app, nil, true
	case key.Matches(msg, kh.keys.Search):
		if app.view == ViewSearchPrompt || app.view == ViewSearch {
			app.searchInput.Focus()
			return app, nil, true
		}
		return app, app.navigate(RootPath), true
	case key.Matches(msg, kh.keys.Indexes):
		if app.view == ViewIndexes {
			return app, nil, true
		}
		return app, app.navigate(IndexesPath), true
	}

	switch app.view {
	case ViewSearchPrompt, ViewSearch:
		return kh.handleHistoryKeys(msg)
	case ViewIndexes:
		return kh.handleIndexesKeys(msg)
	case ViewIndex:
		return kh.handleIndexPageKeys(msg)
	default:
		return app, nil, false
	}
}

func (kh *KeyHandler) handleHistoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	app := kh.app
	switch msg.String() {
	case "tab", "shift+tab", "/", "i":
		app.searchInput.Focus()
		return app, nil, true
	case "up":
		if app.historyList.Index() == 0 {
			app.searchInput.Focus()
			return app, nil, true
		}
	}

	switch {
	case key.Matches(msg, kh.keys.Select):
		if i, ok := app.historyList.SelectedItem().(historyItem); ok {
			return app, app.navigate(i.record.Path), true
		}
		return app, nil, true
	case key.Matches(msg, kh.keys.Open):
		if i, ok := app.historyList.SelectedItem().(historyItem); ok {
			return app, app.openExternal(i.record.Path), true
		}
		return app, nil, true
	}
	return app, nil, false
}

func (kh *KeyHandler) handleIndexesKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	app := kh.app
	switch {
	case key.Matches(msg, kh.keys.Select):
		if i, ok := app.indexList.SelectedItem().(indexItem); ok {
			var repo string
			if root := i.index.ProjectRoot; root != nil {
				repo = root.Commit.Repository.Name
			}
			return app, app.navigate(indexPath(i.index.ID, repo)), true
		}
		return app, nil, true
	case key.Matches(msg, kh.keys.Refresh):
		return app, app.redirect(app.location), true
	case key.Matches(msg, kh.keys.Open):
		if i, ok := app.indexList.SelectedItem().(indexItem); ok {
			return app, app.openExternal(serviceIndexPath(i.index.ID)), true
		}
		return app, nil, true
	}

	// Number keys follow the count bar entries.
	if s := msg.String(); len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
		items := app.countItems()
		n := int(s[0] - '1')
		if n < len(items) && items[n].HasLink() {
			return app, app.navigate(items[n].URL), true
		}
		return app, nil, true
	}
	return app, nil, false
}

func (kh *KeyHandler) handleIndexPageKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	app := kh.app
	if app.page == nil {
		return app, nil, false
	}
	switch {
	case key.Matches(msg, kh.keys.Delete):
		app.requestDelete()
		return app, nil, true
	case key.Matches(msg, kh.keys.Refresh):
		return app, app.redirect(app.location), true
	case key.Matches(msg, kh.keys.Open):
		return app, app.openExternal(app.page.openPath()), true
	}
	return app, nil, false
}

// delegateToCharm lets Charm handle all keys we don't intercept
func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	app := kh.app
	var cmd tea.Cmd
	switch app.view {
	case ViewSearchPrompt, ViewSearch:
		app.historyList, cmd = app.historyList.Update(msg)
	case ViewIndexes:
		app.indexList, cmd = app.indexList.Update(msg)
	}
	return app, cmd
}

func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	cmd, ok := kh.app.goBack()
	if !ok {
		return kh.app, tea.Quit
	}
	return kh.app, cmd
}

// keyMap returns the bindings shown in the status bar for the current view.
func (kh *KeyHandler) keyMap() keyMap {
	k := kh.keys
	app := kh.app
	global := []key.Binding{k.Search, k.Indexes, k.Back, k.Quit, k.Help}

	var local []key.Binding
	switch app.view {
	case ViewSearchPrompt:
		local = []key.Binding{k.Submit, k.OpenNew, k.Focus}
	case ViewSearch:
		local = []key.Binding{k.Submit, k.OpenNew, k.MatchCase, k.MatchWord, k.MatchRegex}
	case ViewIndexes:
		local = []key.Binding{k.Select, k.Filter, k.Refresh, k.Open}
	case ViewIndex:
		switch {
		case app.page != nil && app.page.confirming:
			return keyMap{short: []key.Binding{k.Confirm, k.Cancel}}
		case app.page != nil && app.page.canDelete():
			local = []key.Binding{k.Delete, k.Refresh, k.Open}
		default:
			local = []key.Binding{k.Refresh, k.Open}
		}
	}

	short := append([]key.Binding{}, local...)
	short = append(short, k.Back, k.Help)
	return keyMap{short: short, full: [][]key.Binding{local, global}}
}
