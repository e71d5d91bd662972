package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"auction-house/internal/auctionerrors"

	"github.com/spf13/viper"
)

const EnvPrefix = "AUCTION"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Auction AuctionConfig `mapstructure:"auction"`
	Seed    SeedConfig    `mapstructure:"seed"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type AuctionConfig struct {
	DeadlinePolicy string        `mapstructure:"deadline_policy"`
	SweepInterval  time.Duration `mapstructure:"sweep_interval"`
}

type SeedConfig struct {
	Enabled    bool  `mapstructure:"enabled"`
	Auctions   int   `mapstructure:"auctions"`
	Bids       int   `mapstructure:"bids"`
	RandomSeed int64 `mapstructure:"random_seed"`
}

// SetDefaults registers the built-in values used when neither a config file,
// an environment variable nor a flag provides one.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("auction.deadline_policy", "fixed")
	v.SetDefault("auction.sweep_interval", time.Minute)
	v.SetDefault("seed.enabled", false)
	v.SetDefault("seed.auctions", 150)
	v.SetDefault("seed.bids", 25)
	v.SetDefault("seed.random_seed", 0)
}

// Load reads configuration into v. configPath is optional; without it the
// usual locations are searched and a missing file is not an error.
func Load(v *viper.Viper, configPath string) (*Config, error) {
	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/auction-house/")
	}

	// AUCTION_SERVER_PORT overrides server.port
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: %w - server.port %d out of range", auctionerrors.ErrInvalidInput, c.Server.Port)
	}
	if c.Auction.SweepInterval < time.Second {
		return fmt.Errorf("config: %w - auction.sweep_interval must be at least 1s", auctionerrors.ErrInvalidInput)
	}
	if c.Seed.Auctions < 0 || c.Seed.Bids < 0 {
		return fmt.Errorf("config: %w - seed counts must not be negative", auctionerrors.ErrInvalidInput)
	}
	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// String returns a formatted summary for startup logs
func (c *Config) String() string {
	return fmt.Sprintf(
		"Server: %s, Log: %s, Deadline: %s, Sweep: %s, Seed: %t",
		c.Addr(),
		c.Log.Level,
		c.Auction.DeadlinePolicy,
		c.Auction.SweepInterval,
		c.Seed.Enabled,
	)
}
