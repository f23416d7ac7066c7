package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Fetch        FetchConfig        `mapstructure:"fetch"`
	Resolver     ResolverConfig     `mapstructure:"resolver"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Events       EventsConfig       `mapstructure:"events"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// RequireSubscriber rejects detached batches while no observer is connected
	RequireSubscriber bool `mapstructure:"require_subscriber"`
}

// FetchConfig controls where and how items are written
type FetchConfig struct {
	OutputDir string `mapstructure:"output_dir"`
	Extension string `mapstructure:"extension"`
	// MaxConcurrentItems bounds concurrent workers within one collection; 0 is unbounded
	MaxConcurrentItems int `mapstructure:"max_concurrent_items"`
}

// ResolverConfig selects and configures the resolver backend
type ResolverConfig struct {
	Backend     string `mapstructure:"backend"` // youtube, ytdlp
	YTDLPBinary string `mapstructure:"ytdlp_binary"`
	YTDLPFormat string `mapstructure:"ytdlp_format"`
	CookieFile  string `mapstructure:"cookie_file"`
}

// CacheConfig configures the collection metadata cache
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Backend string        `mapstructure:"backend"` // sqlite, bolt
	Path    string        `mapstructure:"path"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// EventsConfig configures event delivery to observers
type EventsConfig struct {
	SubscriberBuffer int `mapstructure:"subscriber_buffer"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Sound   bool   `mapstructure:"sound"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
	LogsDir    string `mapstructure:"logs_dir"`
}

const (
	ResolverYouTube = "youtube"
	ResolverYTDLP   = "ytdlp"

	CacheSQLite = "sqlite"
	CacheBolt   = "bolt"
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8000,
		},
		Fetch: FetchConfig{
			OutputDir:          ".",
			Extension:          ".mp4",
			MaxConcurrentItems: 3,
		},
		Resolver: ResolverConfig{
			Backend:     ResolverYouTube,
			YTDLPBinary: "yt-dlp",
			YTDLPFormat: "best[ext=mp4]/best",
		},
		Cache: CacheConfig{
			Enabled: true,
			Backend: CacheSQLite,
			Path:    "$HOME/.mediafetch/cache.db",
			TTL:     time.Hour,
		},
		Events: EventsConfig{
			SubscriberBuffer: 256,
		},
		Notification: NotificationConfig{
			Enabled: false,
			Sound:   true,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
			LogsDir:    "$HOME/.mediafetch/logs",
		},
	}
}
