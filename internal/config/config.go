// Package config loads the kennel service configuration from TOML.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
)

const (
	DefaultListenAddr    = ":8126"
	DefaultMaxBodyBytes  = 10 << 20
	DefaultSourceTypeKey = "source_type"
	DefaultHostKey       = "host"
	DefaultLogLevel      = "info"
	DefaultRedisList     = "kennel_traces"

	SenderStdout = "stdout"
	SenderRedis  = "redis"

	logLevelEnv = "KENNEL_LOG_LEVEL"
)

type Config struct {
	ListenAddr    string `toml:"listen_addr"`
	MaxBodyBytes  int64  `toml:"max_body_bytes"`
	StoreAPIKey   bool   `toml:"store_api_key"`
	SourceTypeKey string `toml:"source_type_key"`
	HostKey       string `toml:"host_key"`
	LogLevel      string `toml:"log_level"`

	Sender SenderConfig `toml:"sender"`
}

type SenderConfig struct {
	Kind      string `toml:"kind"`
	RedisURL  string `toml:"redis_url"`
	RedisList string `toml:"redis_list"`
}

func Default() Config {
	return Config{
		ListenAddr:    DefaultListenAddr,
		MaxBodyBytes:  DefaultMaxBodyBytes,
		StoreAPIKey:   true,
		SourceTypeKey: DefaultSourceTypeKey,
		HostKey:       DefaultHostKey,
		LogLevel:      DefaultLogLevel,
		Sender: SenderConfig{
			Kind:      SenderStdout,
			RedisList: DefaultRedisList,
		},
	}
}

// Load reads the TOML file at path over the defaults. An empty path yields the
// defaults. KENNEL_LOG_LEVEL, when set, overrides log_level.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		meta, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("load config: %w", err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("load config: unknown keys %v", undecoded)
		}
	}
	if level := strings.TrimSpace(os.Getenv(logLevelEnv)); level != "" {
		cfg.LogLevel = level
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.ListenAddr = strings.TrimSpace(c.ListenAddr)
	c.SourceTypeKey = strings.TrimSpace(c.SourceTypeKey)
	c.HostKey = strings.TrimSpace(c.HostKey)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.Sender.Kind = strings.ToLower(strings.TrimSpace(c.Sender.Kind))
	c.Sender.RedisURL = strings.TrimSpace(c.Sender.RedisURL)
	c.Sender.RedisList = strings.TrimSpace(c.Sender.RedisList)

	if c.SourceTypeKey == "" {
		c.SourceTypeKey = DefaultSourceTypeKey
	}
	if c.HostKey == "" {
		c.HostKey = DefaultHostKey
	}
	if c.Sender.Kind == "" {
		c.Sender.Kind = SenderStdout
	}
	if c.Sender.RedisList == "" {
		c.Sender.RedisList = DefaultRedisList
	}
}

func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}
	if c.MaxBodyBytes < 0 {
		return fmt.Errorf("max_body_bytes must not be negative, got %d", c.MaxBodyBytes)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.Sender.Kind {
	case SenderStdout:
	case SenderRedis:
		if c.Sender.RedisURL == "" {
			return fmt.Errorf("sender.redis_url is required for the redis sender")
		}
	default:
		return fmt.Errorf("unknown sender.kind %q", c.Sender.Kind)
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
