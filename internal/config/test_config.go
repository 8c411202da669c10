package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	def := defaultConfig()
	return &Config{
		Server: ServerConfig{
			Endpoint: "http://localhost:3080",
			Timeout:  5 * time.Second,
		},
		Database: DatabaseConfig{
			Path:    ":memory:",
			Timeout: 1 * time.Second,
			// empty keeps the history index in memory
			HistoryIndex: "",
		},
		Index: IndexConfig{
			PollInterval: 10 * time.Millisecond,
			PageSize:     10,
		},
		Search: def.Search,
		UI:     def.UI,
		Keys:   def.Keys,
		Log:    LogConfig{Level: "off"},
	}
}
