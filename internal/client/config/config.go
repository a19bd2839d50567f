package config

import "time"

// Config holds runtime settings of the terminal client.
type Config struct {
	// ServerURL is the base URL of the notes/tasks API.
	ServerURL string
	// OnlineCheckInterval is how often the health endpoint is probed.
	OnlineCheckInterval time.Duration
	// FlushInterval is the period of the background flush.
	FlushInterval time.Duration
	// RequestTimeout bounds a single HTTP request.
	RequestTimeout time.Duration

	DatabasePath string
	LogFile      string
	LogLevel     string

	// MaxAttempts, RetryBaseDelay and RetryMaxDelay shape the retry of
	// records the server could not take.
	MaxAttempts    int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8000"
	c.OnlineCheckInterval = 5 * time.Second
	c.FlushInterval = 30 * time.Second
	c.RequestTimeout = 10 * time.Second
	c.DatabasePath = "notesync.db"
	c.LogFile = "notesync.log"
	c.LogLevel = "info"
	c.MaxAttempts = 8
	c.RetryBaseDelay = 5 * time.Second
	c.RetryMaxDelay = 10 * time.Minute
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
