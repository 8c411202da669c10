package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pders01/srcview/internal/validation"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Index    IndexConfig    `mapstructure:"index"`
	Search   SearchConfig   `mapstructure:"search"`
	UI       UIConfig       `mapstructure:"ui"`
	Keys     KeyConfig      `mapstructure:"keys"`
	Log      LogConfig      `mapstructure:"log"`
	Browser  BrowserConfig  `mapstructure:"browser"`
}

type ServerConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Token    string        `mapstructure:"token"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type DatabaseConfig struct {
	Path         string        `mapstructure:"path"`
	Timeout      time.Duration `mapstructure:"timeout"`
	HistoryIndex string        `mapstructure:"history_index"`
}

type IndexConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	PageSize     int           `mapstructure:"page_size"`
}

type SearchConfig struct {
	// ReadFromURL makes the search prompt start from the last visited
	// search location instead of the stored preferences.
	ReadFromURL  bool `mapstructure:"read_from_url"`
	HistoryLimit int  `mapstructure:"history_limit"`
}

type UIConfig struct {
	Colors UIColors `mapstructure:"colors"`
}

type UIColors struct {
	Primary    string `mapstructure:"primary"`
	Secondary  string `mapstructure:"secondary"`
	Accent     string `mapstructure:"accent"`
	Background string `mapstructure:"background"`
	Surface    string `mapstructure:"surface"`
	Text       string `mapstructure:"text"`
	Muted      string `mapstructure:"muted"`
	Error      string `mapstructure:"error"`
	Success    string `mapstructure:"success"`
	Info       string `mapstructure:"info"`
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier"`
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit    string `mapstructure:"quit"`
	Search  string `mapstructure:"search"`
	Indexes string `mapstructure:"indexes"`
	Delete  string `mapstructure:"delete"`
	Open    string `mapstructure:"open"`
	Refresh string `mapstructure:"refresh"`
	Back    string `mapstructure:"back"`
	Help    string `mapstructure:"help"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type BrowserConfig struct {
	// Opener names an entry of the opener registry. Empty picks the
	// platform default.
	Opener string `mapstructure:"opener"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".srcview")

	return &Config{
		Server: ServerConfig{
			Endpoint: "https://sourcegraph.com",
			Timeout:  30 * time.Second,
		},
		Database: DatabaseConfig{
			Path:         filepath.Join(dataDir, "srcview.db"),
			Timeout:      1 * time.Second,
			HistoryIndex: filepath.Join(dataDir, "history.bleve"),
		},
		Index: IndexConfig{
			PollInterval: 5 * time.Second,
			PageSize:     50,
		},
		Search: SearchConfig{
			ReadFromURL:  false,
			HistoryLimit: 100,
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:    "#A78BFA",
				Secondary:  "#4ECDC4",
				Accent:     "#95E1D3",
				Background: "#1A1A2E",
				Surface:    "#16213E",
				Text:       "#EAEAEA",
				Muted:      "#94A3B8",
				Error:      "#F87171",
				Success:    "#4ADE80",
				Info:       "#60A5FA",
			},
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:    "q",
				Search:  "s",
				Indexes: "l",
				Delete:  "x",
				Open:    "o",
				Refresh: "r",
				Back:    "esc",
				Help:    "?",
			},
		},
		Log: LogConfig{
			Level: "off",
			File:  filepath.Join(dataDir, "srcview.log"),
		},
	}
}

// setDefaults registers every leaf key so environment overrides such as
// SRCVIEW_SERVER_TOKEN reach Unmarshal.
func setDefaults(v *viper.Viper, cfg *Config) {
	for key, value := range flatten(cfg) {
		v.SetDefault(key, value)
	}
}

func flatten(cfg *Config) map[string]any {
	c := cfg.UI.Colors
	b := cfg.Keys.Bindings
	return map[string]any{
		"server.endpoint":        cfg.Server.Endpoint,
		"server.token":           cfg.Server.Token,
		"server.timeout":         cfg.Server.Timeout,
		"database.path":          cfg.Database.Path,
		"database.timeout":       cfg.Database.Timeout,
		"database.history_index": cfg.Database.HistoryIndex,
		"index.poll_interval":    cfg.Index.PollInterval,
		"index.page_size":        cfg.Index.PageSize,
		"search.read_from_url":   cfg.Search.ReadFromURL,
		"search.history_limit":   cfg.Search.HistoryLimit,
		"ui.colors.primary":      c.Primary,
		"ui.colors.secondary":    c.Secondary,
		"ui.colors.accent":       c.Accent,
		"ui.colors.background":   c.Background,
		"ui.colors.surface":      c.Surface,
		"ui.colors.text":         c.Text,
		"ui.colors.muted":        c.Muted,
		"ui.colors.error":        c.Error,
		"ui.colors.success":      c.Success,
		"ui.colors.info":         c.Info,
		"keys.modifier":          cfg.Keys.Modifier,
		"keys.bindings.quit":     b.Quit,
		"keys.bindings.search":   b.Search,
		"keys.bindings.indexes":  b.Indexes,
		"keys.bindings.delete":   b.Delete,
		"keys.bindings.open":     b.Open,
		"keys.bindings.refresh":  b.Refresh,
		"keys.bindings.back":     b.Back,
		"keys.bindings.help":     b.Help,
		"log.level":              cfg.Log.Level,
		"log.file":               cfg.Log.File,
		"browser.opener":         cfg.Browser.Opener,
	}
}

func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, defaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir := filepath.Join(homeDir, ".config", "srcview")

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SRCVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	endpoint, err := validation.NewEndpointValidator().ValidateAndNormalize(config.Server.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("server.endpoint: %w", err)
	}
	config.Server.Endpoint = endpoint

	if config.Index.PollInterval <= 0 {
		return nil, fmt.Errorf("index.poll_interval must be positive, got %s", config.Index.PollInterval)
	}

	// Expand paths after loading
	expandPaths(&config)

	return &config, nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	// Expand tilde
	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	// Convert to absolute path if not already absolute
	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

// expandPaths expands all paths in the config
func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Database.HistoryIndex = expandPath(cfg.Database.HistoryIndex)
	cfg.Log.File = expandPath(cfg.Log.File)
}

func Save(config *Config, path string) error {
	v := viper.New()

	for key, value := range flatten(config) {
		// Convert durations to strings for TOML readability
		if d, ok := value.(time.Duration); ok {
			value = d.String()
		}
		v.Set(key, value)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}

// DefaultPath is where GenerateDefaultConfig writes when no path is given.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "srcview", "config.toml")
}
