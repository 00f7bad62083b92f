package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	History HistoryConfig `mapstructure:"history"`
	Inbox   InboxConfig   `mapstructure:"inbox"`
	MCP     MCPConfig     `mapstructure:"mcp"`
	Publish PublishConfig `mapstructure:"publish"`
	Log     LogConfig     `mapstructure:"log"`
}

// HistoryConfig bounds the undo/redo stacks.
type HistoryConfig struct {
	MaxDepth int `mapstructure:"max_depth"`
}

// InboxConfig holds the drop-directory settings.
type InboxConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Dir      string        `mapstructure:"dir"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// MCPConfig holds the agent-facing server settings.
type MCPConfig struct {
	Name               string        `mapstructure:"name"`
	Version            string        `mapstructure:"version"`
	ConfirmDestructive bool          `mapstructure:"confirm_destructive"`
	ApprovalTimeout    time.Duration `mapstructure:"approval_timeout"`
}

// PublishConfig controls periodic full-state resync. An empty schedule
// disables it.
type PublishConfig struct {
	ResyncSchedule string `mapstructure:"resync_schedule"`
}

type LogConfig struct {
	Debug bool `mapstructure:"debug"`
}

// Load reads configuration from file and env. Env var overrides use prefix PANELS_.
// An explicit path wins over $PANELS_CONFIG; a missing default file is not an error.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")

	if path == "" {
		path = os.Getenv("PANELS_CONFIG")
	}
	explicit := path != ""
	if explicit {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "panels"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("PANELS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	c.Inbox.Dir = expandHome(c.Inbox.Dir)
	return c, nil
}

// Default returns the configuration used when no file or env override is present.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var c Config
	_ = v.Unmarshal(&c)
	c.Inbox.Dir = expandHome(c.Inbox.Dir)
	return c
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("history.max_depth", 40)
	v.SetDefault("inbox.enabled", false)
	v.SetDefault("inbox.dir", filepath.Join("~", ".local", "share", "panels", "inbox"))
	v.SetDefault("inbox.debounce", 250*time.Millisecond)
	v.SetDefault("mcp.name", "panels-mcp")
	v.SetDefault("mcp.version", "1.0.0")
	v.SetDefault("mcp.confirm_destructive", false)
	v.SetDefault("mcp.approval_timeout", 120*time.Second)
	v.SetDefault("publish.resync_schedule", "")
	v.SetDefault("log.debug", false)
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~"+string(filepath.Separator)) {
		return filepath.Join(os.Getenv("HOME"), strings.TrimPrefix(p, "~"))
	}
	return p
}
