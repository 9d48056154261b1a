package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"ovmscope/internal/errs"
)

const (
	FormatJSON  = "json"
	FormatTable = "table"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Network    string
	RPCURL     string
	LogLevel   string
	Format     string
	RPCTimeout time.Duration
	RPCRetries uint
	Out        string
	PGDSN      string
	Networks   map[string]NetworkOverride
}

// Load merges .env, config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	// .env is optional; a missing file is fine.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("OVMSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("network", "mainnet")
	v.SetDefault("log-level", "info")
	v.SetDefault("format", FormatJSON)
	v.SetDefault("rpc-timeout", 15*time.Second)
	v.SetDefault("rpc-retries", 3)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errs.Config("read config: %v", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, errs.Config("read config: %v", err)
			}
		}
	}

	var networks map[string]NetworkOverride
	if v.IsSet("networks") {
		if err := v.UnmarshalKey("networks", &networks); err != nil {
			return Config{}, errs.Config("parse networks: %v", err)
		}
	}

	cfg := Config{
		Network:    v.GetString("network"),
		RPCURL:     v.GetString("rpc"),
		LogLevel:   v.GetString("log-level"),
		Format:     strings.ToLower(v.GetString("format")),
		RPCTimeout: v.GetDuration("rpc-timeout"),
		RPCRetries: v.GetUint("rpc-retries"),
		Out:        v.GetString("out"),
		PGDSN:      v.GetString("pg-dsn"),
		Networks:   networks,
	}

	if cfg.Format != FormatJSON && cfg.Format != FormatTable {
		return Config{}, errs.Config("unsupported format %q (json, table)", cfg.Format)
	}

	return cfg, nil
}

// ResolveNetwork looks up cfg.Network with file overrides and the --rpc override applied.
func (c Config) ResolveNetwork() (Network, error) {
	registry, err := NewRegistry(c.Networks)
	if err != nil {
		return Network{}, err
	}
	return registry.Lookup(c.Network, c.RPCURL)
}
