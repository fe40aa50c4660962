package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application's configuration, shared by the bot and the
// backend server binaries.
type Config struct {
	Discord struct {
		Token            string `yaml:"token"`
		GuildID          string `yaml:"guild_id"`
		CommandPrefix    string `yaml:"command_prefix"`
		InviteMaxAgeSecs int    `yaml:"invite_max_age_seconds"`
		KeepAlivePort    string `yaml:"keep_alive_port"`
	} `yaml:"discord"`
	// Categories maps a channel-category ID to the human-readable category
	// name shown on the board. Loaded once, never mutated afterwards.
	Categories map[string]string `yaml:"categories"`
	Backend    struct {
		URL            string `yaml:"url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"backend"`
	OptOut struct {
		File string `yaml:"file"`
	} `yaml:"optout"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Server struct {
		Port        string   `yaml:"port"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`
}

// LoadConfig reads configuration from the specified YAML file. The Discord
// token may be supplied via the DISCORD_TOKEN environment variable instead of
// the file.
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	if token := os.Getenv("DISCORD_TOKEN"); token != "" {
		cfg.Discord.Token = token
	}
	if cfg.Discord.CommandPrefix == "" {
		cfg.Discord.CommandPrefix = "!"
	}
	if cfg.Discord.InviteMaxAgeSecs == 0 {
		cfg.Discord.InviteMaxAgeSecs = 86400
	}
	if cfg.Discord.KeepAlivePort == "" {
		cfg.Discord.KeepAlivePort = "8081"
	}
	if cfg.Backend.TimeoutSeconds == 0 {
		cfg.Backend.TimeoutSeconds = 10
	}
	if cfg.OptOut.File == "" {
		cfg.OptOut.File = "optout.json"
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BackendTimeout returns the submission timeout as a duration.
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

func (c *Config) validate() error {
	for id, name := range c.Categories {
		if id == "" {
			return fmt.Errorf("categories: empty category id")
		}
		if name == "" {
			return fmt.Errorf("categories: category %s has an empty name", id)
		}
	}
	return nil
}
