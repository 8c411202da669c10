package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/pders01/srcview/internal/browser"
	"github.com/pders01/srcview/internal/codeintel"
	"github.com/pders01/srcview/internal/debuglog"
	"github.com/pders01/srcview/internal/search"
	"github.com/pders01/srcview/internal/searchparams"
	"github.com/pders01/srcview/internal/storage"
	"github.com/pders01/srcview/internal/summary"
	"github.com/pders01/srcview/internal/tui"
	"github.com/pders01/srcview/internal/validation"
)

var searchFlags struct {
	repos      string
	files      string
	matchCase  bool
	matchWord  bool
	matchRegex bool
	open       bool
}

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Run a search and print its location",
	Long: `Builds a search location from the query and the stored search
preferences. Flags override single preferences; everything used is stored
again for the next search.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.Close()

		baseline := searchparams.FromStore(e.store.Prefs())
		flags := cmd.Flags()
		if flags.Changed("repos") {
			baseline.Repos = searchFlags.repos
		}
		if flags.Changed("files") {
			baseline.Files = searchFlags.files
		}
		if flags.Changed("case") {
			baseline.MatchCase = searchFlags.matchCase
		}
		if flags.Changed("word") {
			baseline.MatchWord = searchFlags.matchWord
		}
		if flags.Changed("regex") {
			baseline.MatchRegex = searchFlags.matchRegex
		}

		return runSearch(cmd.OutOrStdout(), searchRun{
			store:    e.store,
			history:  e.searcher(),
			opener:   e.launcher,
			endpoint: e.cfg.Server.Endpoint,
		}, baseline, strings.Join(args, " "), searchFlags.open)
	},
}

// searchRun carries the collaborators of a command line search.
type searchRun struct {
	store    *storage.Store
	history  search.Searcher
	opener   browser.Opener
	endpoint string
}

// printNavigator prints search locations instead of showing them.
type printNavigator struct {
	w   io.Writer
	run searchRun
	err error
}

func (n *printNavigator) Navigate(path string) {
	if _, err := search.Record(n.run.store, n.run.history, path); err != nil {
		n.err = err
		return
	}
	fmt.Fprintln(n.w, strings.TrimRight(n.run.endpoint, "/")+path)
}

func (n *printNavigator) OpenNew(path string) {
	if n.run.opener == nil {
		n.err = browser.ErrNoOpener
		return
	}
	if err := n.run.opener.Open(path); err != nil {
		n.err = err
		return
	}
	fmt.Fprintln(n.w, tui.MsgOpened(path))
}

func runSearch(w io.Writer, run searchRun, baseline searchparams.Params, query string, open bool) error {
	if strings.TrimSpace(query) == "" {
		return errors.New("query cannot be empty")
	}
	nav := &printNavigator{w: w, run: run}
	searchparams.HandleInput(searchparams.KeyEvent{
		Key:   "Enter",
		Code:  searchparams.EnterKeyCode,
		Value: query,
		Alt:   open,
	}, true, searchparams.Sources{
		CurrentURL: searchparams.Path(baseline),
		Store:      run.store.Prefs(),
	}, nav)
	return nav.err
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect or delete a single auto-indexing job",
}

var indexRepo string

var indexShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print an index record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validation.ValidateIndexID(args[0]); err != nil {
			return err
		}
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.Close()

		ctx, cancel := e.requestContext(cmd.Context())
		defer cancel()
		return runIndexShow(ctx, cmd.OutOrStdout(), e.client, e.cfg.Server.Endpoint, args[0], indexRepo)
	},
}

var indexWatchCmd = &cobra.Command{
	Use:   "watch <id>",
	Short: "Follow an index until it completes or fails",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validation.ValidateIndexID(args[0]); err != nil {
			return err
		}
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runIndexWatch(ctx, cmd.OutOrStdout(), e.client, e.cfg.Index.PollInterval, args[0])
	},
}

var indexYes bool

var indexDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an index record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validation.ValidateIndexID(args[0]); err != nil {
			return err
		}
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.Close()

		ctx, cancel := e.requestContext(cmd.Context())
		defer cancel()
		return runIndexDelete(ctx, cmd.OutOrStdout(), cmd.InOrStdin(), e.client, args[0], indexYes)
	},
}

func runIndexShow(ctx context.Context, w io.Writer, svc codeintel.Service, endpoint, id, repo string) error {
	idx, err := svc.Index(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, tui.IndexHeading(idx))
	fmt.Fprintln(w, tui.IndexStateText(idx))

	md := tui.IndexTableMarkdown(idx, repo, endpoint)
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("notty"),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		debuglog.Warnf("markdown renderer: %v", err)
		fmt.Fprint(w, md)
		return nil
	}
	out, err := r.Render(md)
	if err != nil {
		debuglog.Warnf("render markdown: %v", err)
		out = md
	}
	fmt.Fprintln(w, strings.TrimRight(out, "\n"))
	return nil
}

// runIndexWatch prints every state change until the index settles. An
// interrupted watch returns the context error.
func runIndexWatch(ctx context.Context, w io.Writer, svc codeintel.Service, interval time.Duration, id string) error {
	watcher := codeintel.NewWatcher(svc, id, interval)
	defer watcher.Stop()

	var last string
	for u := range watcher.Start(ctx) {
		if u.Err != nil {
			return u.Err
		}
		if u.Index == nil {
			continue
		}
		if line := tui.IndexStateText(u.Index); line != last {
			fmt.Fprintln(w, line)
			last = line
		}
	}
	return ctx.Err()
}

func runIndexDelete(ctx context.Context, w io.Writer, in io.Reader, svc codeintel.Service, id string, yes bool) error {
	idx, err := svc.Index(ctx, id)
	if err != nil {
		return err
	}

	var confirm codeintel.Confirmer
	if !yes {
		confirm = promptConfirm(w, in)
	}
	d, err := codeintel.Delete(ctx, svc, idx, confirm, func(codeintel.Deletion) {
		fmt.Fprintln(w, tui.MsgDeleting)
	})
	if err != nil {
		return err
	}

	switch {
	case d.Deleted():
		fmt.Fprintln(w, tui.MsgIndexDeleted)
	case d.Failed():
		return d.Err
	default:
		fmt.Fprintln(w, "Aborted")
	}
	return nil
}

// promptConfirm asks on w and accepts "y" or "yes" read from in.
func promptConfirm(w io.Writer, in io.Reader) codeintel.Confirmer {
	return func(message string) bool {
		fmt.Fprintf(w, "%s [y/N] ", message)
		line, _ := bufio.NewReader(in).ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	}
}

var indexesFlags struct {
	state string
	query string
	first int
}

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "List auto-indexing jobs with per-state totals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := codeintel.ListOptions{Query: indexesFlags.query, First: indexesFlags.first}
		if indexesFlags.state != "" {
			st, err := codeintel.ParseState(indexesFlags.state)
			if err != nil {
				return err
			}
			opts.State = &st
		}

		e, err := setup()
		if err != nil {
			return err
		}
		defer e.Close()

		if opts.First <= 0 {
			opts.First = e.cfg.Index.PageSize
		}
		ctx, cancel := e.requestContext(cmd.Context())
		defer cancel()
		return runIndexes(ctx, cmd.OutOrStdout(), e.client, opts)
	},
}

func runIndexes(ctx context.Context, w io.Writer, svc codeintel.Service, opts codeintel.ListOptions) error {
	l, err := svc.Indexes(ctx, opts)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, summary.Plain(tui.IndexCounts(l)))
	if len(l.Indexes) == 0 {
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "STATE", "REPOSITORY", "COMMIT", "ROOT")
	for i := range l.Indexes {
		idx := &l.Indexes[i]
		t.Row(idx.ID, strings.ToLower(idx.State.String()), idx.RepositoryName(""), idx.AbbreviatedCommit(), idx.RootPath())
	}
	fmt.Fprintln(w, t.Render())
	return nil
}

var historyFlags struct {
	limit int
	clear bool
}

var historyCmd = &cobra.Command{
	Use:   "history [term...]",
	Short: "List or search past searches",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.Close()

		if historyFlags.clear {
			n, err := search.Clear(e.store, e.searcher())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d %s\n", n, summary.Pluralize("search", n, "searches"))
			return nil
		}

		limit := historyFlags.limit
		if limit <= 0 {
			limit = e.cfg.Search.HistoryLimit
		}
		return runHistory(cmd.OutOrStdout(), e.store, e.searcher(), strings.Join(args, " "), limit)
	},
}

// runHistory prints recent searches, or those matching term when a history
// index is available.
func runHistory(w io.Writer, store *storage.Store, history search.Searcher, term string, limit int) error {
	if s, ok := history.(search.DebugStatser); ok {
		if n, err := s.DocCount(); err == nil {
			debuglog.Debugf("history index holds %d searches", n)
		}
	}

	var recs []*storage.SearchRecord
	if strings.TrimSpace(term) != "" && history != nil {
		res, err := history.Search(term, limit)
		if err != nil {
			return err
		}
		for _, r := range res {
			recs = append(recs, r.Record)
		}
	} else {
		var err error
		recs, err = store.RecentSearches(limit)
		if err != nil {
			return err
		}
	}

	if len(recs) == 0 {
		fmt.Fprintln(w, tui.MsgNoHistory)
		return nil
	}
	for _, r := range recs {
		fmt.Fprintf(w, "%s  %s\n", r.SearchedAt.Local().Format("2006-01-02 15:04"), r.Path)
	}
	return nil
}

func addCommands(root *cobra.Command) {
	sf := searchCmd.Flags()
	sf.StringVar(&searchFlags.repos, "repos", searchparams.DefaultRepos, "Repository scope")
	sf.StringVar(&searchFlags.files, "files", "", "File scope")
	sf.BoolVar(&searchFlags.matchCase, "case", false, "Match case")
	sf.BoolVar(&searchFlags.matchWord, "word", false, "Match whole words")
	sf.BoolVar(&searchFlags.matchRegex, "regex", false, "Treat the query as a regular expression")
	sf.BoolVar(&searchFlags.open, "open", false, "Open the search in the browser instead of printing it")

	indexShowCmd.Flags().StringVar(&indexRepo, "repo", "", "Repository name shown when the record has none")
	indexDeleteCmd.Flags().BoolVarP(&indexYes, "yes", "y", false, "Delete without asking")
	indexCmd.AddCommand(indexShowCmd, indexWatchCmd, indexDeleteCmd)

	inf := indexesCmd.Flags()
	inf.StringVar(&indexesFlags.state, "state", "", "Only list indexes in this state (queued, processing, completed, errored)")
	inf.StringVar(&indexesFlags.query, "query", "", "Filter by repository or commit")
	inf.IntVar(&indexesFlags.first, "first", 0, "Page size (defaults to index.page_size)")

	hf := historyCmd.Flags()
	hf.IntVar(&historyFlags.limit, "limit", 0, "Maximum number of entries (defaults to search.history_limit)")
	hf.BoolVar(&historyFlags.clear, "clear", false, "Remove every recorded search")

	root.AddCommand(searchCmd, indexCmd, indexesCmd, historyCmd)
}
