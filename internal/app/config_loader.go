package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/yourusername/mediafetch/internal/domain"
)

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.mediafetch")
		v.AddConfigPath("/etc/mediafetch")
	}

	// Env overrides only apply to keys viper knows about, so register every
	// default explicitly.
	for key, value := range configValues(config) {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix("MEDIAFETCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// configValues flattens a config into viper keys
func configValues(config *domain.Config) map[string]interface{} {
	return map[string]interface{}{
		"server.host":                config.Server.Host,
		"server.port":                config.Server.Port,
		"server.require_subscriber":  config.Server.RequireSubscriber,
		"fetch.output_dir":           config.Fetch.OutputDir,
		"fetch.extension":            config.Fetch.Extension,
		"fetch.max_concurrent_items": config.Fetch.MaxConcurrentItems,
		"resolver.backend":           config.Resolver.Backend,
		"resolver.ytdlp_binary":      config.Resolver.YTDLPBinary,
		"resolver.ytdlp_format":      config.Resolver.YTDLPFormat,
		"resolver.cookie_file":       config.Resolver.CookieFile,
		"cache.enabled":              config.Cache.Enabled,
		"cache.backend":              config.Cache.Backend,
		"cache.path":                 config.Cache.Path,
		"cache.ttl":                  config.Cache.TTL.String(),
		"events.subscriber_buffer":   config.Events.SubscriberBuffer,
		"notification.enabled":       config.Notification.Enabled,
		"notification.sound":         config.Notification.Sound,
		"notification.method":        config.Notification.Method,
		"logging.level":              config.Logging.Level,
		"logging.format":             config.Logging.Format,
		"logging.output_path":        config.Logging.OutputPath,
		"logging.logs_dir":           config.Logging.LogsDir,
	}
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Fetch.OutputDir = expandPath(config.Fetch.OutputDir)
	config.Cache.Path = expandPath(config.Cache.Path)
	config.Resolver.CookieFile = expandPath(config.Resolver.CookieFile)
	config.Logging.LogsDir = expandPath(config.Logging.LogsDir)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	if strings.Contains(path, "$HOME") {
		if home, err := os.UserHomeDir(); err == nil {
			path = strings.ReplaceAll(path, "$HOME", home)
		}
	}

	return os.ExpandEnv(path)
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Fetch.OutputDir == "" {
		return fmt.Errorf("output directory not configured")
	}

	if config.Fetch.MaxConcurrentItems < 0 {
		return fmt.Errorf("max concurrent items cannot be negative")
	}

	if config.Fetch.Extension != "" && !strings.HasPrefix(config.Fetch.Extension, ".") {
		config.Fetch.Extension = "." + config.Fetch.Extension
	}

	switch config.Resolver.Backend {
	case domain.ResolverYouTube, domain.ResolverYTDLP:
	default:
		return fmt.Errorf("unknown resolver backend: %q", config.Resolver.Backend)
	}

	if config.Cache.Enabled {
		switch config.Cache.Backend {
		case domain.CacheSQLite, domain.CacheBolt:
		default:
			return fmt.Errorf("unknown cache backend: %q", config.Cache.Backend)
		}
		if config.Cache.Path == "" {
			return fmt.Errorf("cache path not configured")
		}
	}

	if config.Events.SubscriberBuffer < 1 {
		return fmt.Errorf("subscriber buffer must be at least 1")
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	for key, value := range configValues(config) {
		v.Set(key, value)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
