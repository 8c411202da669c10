package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pders01/srcview/internal/browser"
	"github.com/pders01/srcview/internal/codeintel"
	"github.com/pders01/srcview/internal/config"
	"github.com/pders01/srcview/internal/debuglog"
	"github.com/pders01/srcview/internal/search"
	"github.com/pders01/srcview/internal/storage"
	"github.com/pders01/srcview/internal/tui"
)

// Version is the version of the application, set at build time
var Version = "dev"

var (
	configPath string
	dbPath     string
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "srcview [location]",
	Short: "Code search & intelligence client",
	Long: `srcview searches code on a Sourcegraph instance and tracks its
auto-indexing jobs from the terminal.

Without a subcommand the interactive client starts. An optional location
such as "/search?q=foo" or "/indexes?state=errored" picks the first view.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.Close()

		if !quiet {
			tui.ShowBanner(Version)
		}

		opts := []tui.Option{tui.WithOpener(e.launcher)}
		if s := e.searcher(); s != nil {
			opts = append(opts, tui.WithHistory(s))
		}
		if len(args) == 1 {
			opts = append(opts, tui.WithStartPath(args[0]))
		}

		app := tui.NewApp(e.cfg, e.store, e.client, opts...)
		defer app.Close()

		p := tea.NewProgram(app, tea.WithAltScreen())
		_, err = p.Run()
		return err
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("srcview %s\n", Version)
		fmt.Println("Code search & intelligence client")
		fmt.Println("github.com/pders01/srcview")
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configGenCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate default config file",
	Run: func(cmd *cobra.Command, args []string) {
		configFile := config.DefaultPath()
		if configPath != "" {
			configFile = configPath
		}
		if err := config.GenerateDefaultConfig(configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Generated default configuration at: %s\n", configFile)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to database file (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Skip startup banner")

	configCmd.AddCommand(configGenCmd)
	rootCmd.AddCommand(versionCmd, configCmd)
	addCommands(rootCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env bundles what every command needs once the configuration is loaded.
type env struct {
	cfg      *config.Config
	store    *storage.Store
	history  *search.BleveEngine
	client   *codeintel.Client
	launcher *browser.Launcher
}

func setup() (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Override database path if provided via flag
	if dbPath != "" {
		cfg.Database.Path = expandTilde(dbPath)
	}

	tui.ApplyTheme(cfg.UI.Colors)
	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	store, err := storage.NewStore(cfg.Database.Path, cfg.Database.Timeout)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	e := &env{
		cfg:      cfg,
		store:    store,
		client:   codeintel.NewClient(cfg.Server.Endpoint, cfg.Server.Token, codeintel.WithTimeout(cfg.Server.Timeout)),
		launcher: browser.NewLauncher(cfg.Server.Endpoint, cfg.Browser.Opener),
	}

	// History search is optional; the history list still works without it.
	history, err := search.NewBleveEngine(store, cfg.Database.HistoryIndex)
	if err != nil {
		debuglog.Warnf("history index unavailable: %v", err)
	} else {
		e.history = history
	}
	return e, nil
}

// searcher returns the history index, or nil when it could not be opened.
func (e *env) searcher() search.Searcher {
	if e.history == nil {
		return nil
	}
	return e.history
}

// requestContext bounds a single request by the configured server timeout.
func (e *env) requestContext(parent context.Context) (context.Context, context.CancelFunc) {
	timeout := e.cfg.Server.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(parent, timeout)
}

func (e *env) Close() {
	if e.history != nil {
		_ = e.history.Close()
	}
	_ = e.store.Close()
	_ = debuglog.Close()
}

func expandTilde(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
