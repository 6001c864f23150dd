package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/wideunique/promate/internal/enhance"
)

// Config holds all promate configuration.
type Config struct {
	Enhancer EnhancerConfig `toml:"enhancer"`
	Server   ServerConfig   `toml:"server"`
	Journal  JournalConfig  `toml:"journal"`
}

// EnhancerConfig configures the client side. An empty endpoint means the
// enhance feature is disabled.
type EnhancerConfig struct {
	Endpoint          string   `toml:"endpoint"`
	TimeoutSeconds    int      `toml:"timeout_seconds"`
	Formats           []string `toml:"formats"`
	Locale            string   `toml:"locale"`
	MaxDraftBytes     int      `toml:"max_draft_bytes"`
	MaxRecentMessages int      `toml:"max_recent_messages"`
	SupportsCancel    bool     `toml:"supports_cancel"`
}

// ServerConfig configures the enhancerd daemon.
type ServerConfig struct {
	Address             string `toml:"address"`
	APIKey              string `toml:"api_key"`
	APIKeyEnv           string `toml:"api_key_env"`
	Mode                string `toml:"mode"`
	TemplateName        string `toml:"template_name"`
	TemplateDir         string `toml:"template_dir"`
	ScriptPath          string `toml:"script_path"`
	KeepTempFiles       bool   `toml:"keep_temp_files"`
	ReadTimeoutSeconds  int    `toml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `toml:"write_timeout_seconds"`
}

// JournalConfig configures the local call journal.
type JournalConfig struct {
	Path string `toml:"path"`
	Keep int    `toml:"keep"`
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Enhancer: EnhancerConfig{
			Endpoint:          "",
			TimeoutSeconds:    10,
			Formats:           []string{"text"},
			MaxDraftBytes:     32768,
			MaxRecentMessages: 4,
			SupportsCancel:    true,
		},
		Server: ServerConfig{
			Address:             ":8080",
			APIKeyEnv:           "PROMATE_API_KEY",
			Mode:                "rewrite",
			TemplateName:        "default",
			TemplateDir:         filepath.Join(ConfigDir(), "templates"),
			ScriptPath:          "enhance_prompt.sh",
			ReadTimeoutSeconds:  5,
			WriteTimeoutSeconds: 10,
		},
		Journal: JournalConfig{
			Path: filepath.Join(StateDir(), "journal.db"),
			Keep: 500,
		},
	}
}

// Load reads config from the standard path, falling back to defaults.
func Load() (Config, error) {
	return LoadFile("")
}

// LoadFile reads config from path, or from the standard locations when path
// is empty.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	paths := configPaths()
	if path != "" {
		paths = []string{path}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			if _, err := toml.DecodeFile(p, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", p, err)
			}
			break
		}
	}

	// Expand ~ in paths
	cfg.Server.TemplateDir = expandHome(cfg.Server.TemplateDir)
	cfg.Journal.Path = expandHome(cfg.Journal.Path)

	return cfg, nil
}

// ClientConfig converts the TOML shape into the enhance client's config.
func (c EnhancerConfig) ClientConfig() enhance.Config {
	formats := make([]enhance.Format, 0, len(c.Formats))
	for _, f := range c.Formats {
		formats = append(formats, enhance.Format(strings.ToLower(f)))
	}
	return enhance.Config{
		Endpoint:          c.Endpoint,
		Timeout:           time.Duration(c.TimeoutSeconds) * time.Second,
		Formats:           formats,
		Locale:            c.Locale,
		MaxDraftBytes:     c.MaxDraftBytes,
		MaxRecentMessages: c.MaxRecentMessages,
		SupportsCancel:    c.SupportsCancel,
	}
}

// ResolveAPIKey returns the configured API key, preferring the literal value
// over the named environment variable.
func (c ServerConfig) ResolveAPIKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	if c.APIKeyEnv != "" {
		return os.Getenv(c.APIKeyEnv)
	}
	return ""
}

func configPaths() []string {
	var paths []string

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "promate", "config.toml"))
	}

	home, _ := os.UserHomeDir()
	if home != "" {
		paths = append(paths, filepath.Join(home, ".config", "promate", "config.toml"))
	}

	return paths
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// ConfigDir returns the promate config directory path.
// Uses $XDG_CONFIG_HOME/promate if set, otherwise ~/.config/promate.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "promate")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "promate")
}

// StateDir returns the promate state directory path.
// Uses $XDG_STATE_HOME/promate if set, otherwise ~/.local/state/promate.
func StateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "promate")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "promate")
}
