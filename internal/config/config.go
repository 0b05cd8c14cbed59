// Package config resolves efmigrate settings from flags, EFMIGRATE_*
// environment variables, an optional yaml config file and .env.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "EFMIGRATE"

	KeyDatabaseURL   = "database-url"
	KeyDriver        = "driver"
	KeyMigrationsDir = "migrations-dir"
	KeyNamespace     = "namespace"
	KeyContextKey    = "context-key"
	KeyLogLevel      = "log-level"
	KeyMaxLineLength = "max-line-length"
	KeyModel         = "model"
)

type Config struct {
	DatabaseURL   string
	Driver        string
	MigrationsDir string
	Namespace     string
	ContextKey    string
	LogLevel      string
	MaxLineLength int
	Model         string
}

// New returns a viper instance with the defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault(KeyDriver, "postgres")
	v.SetDefault(KeyMigrationsDir, "migrations")
	v.SetDefault(KeyNamespace, "migrations")
	v.SetDefault(KeyContextKey, "efmigrate")
	v.SetDefault(KeyLogLevel, "silent")
	v.SetDefault(KeyMaxLineLength, 1100)
	return v
}

// BindFlags makes the flags in set that name a config key override every
// other source.
func BindFlags(v *viper.Viper, set *pflag.FlagSet) error {
	for _, key := range []string{KeyDatabaseURL, KeyDriver, KeyMigrationsDir, KeyNamespace, KeyContextKey, KeyLogLevel, KeyMaxLineLength, KeyModel} {
		flag := set.Lookup(key)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", key, err)
		}
	}
	return nil
}

// Load reads configPath, or efmigrate.yaml in the working directory when it
// is empty, and resolves the settings. A missing default config file is not
// an error.
func Load(v *viper.Viper, fs afero.Fs, configPath string) (*Config, error) {
	v.SetFs(fs)
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else if envPath := os.Getenv(EnvPrefix + "_CONFIG"); envPath != "" {
		v.SetConfigFile(envPath)
	} else {
		v.SetConfigName("efmigrate")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var missing viper.ConfigFileNotFoundError
		if !errors.As(err, &missing) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		DatabaseURL:   v.GetString(KeyDatabaseURL),
		Driver:        strings.ToLower(v.GetString(KeyDriver)),
		MigrationsDir: v.GetString(KeyMigrationsDir),
		Namespace:     v.GetString(KeyNamespace),
		ContextKey:    v.GetString(KeyContextKey),
		LogLevel:      strings.ToLower(v.GetString(KeyLogLevel)),
		MaxLineLength: v.GetInt(KeyMaxLineLength),
		Model:         v.GetString(KeyModel),
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = databaseURLFallback(fs)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// databaseURLFallback reads DATABASE_URL from the environment, then from
// .env in the working directory.
func databaseURLFallback(fs afero.Fs) string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	dotenv := viper.New()
	dotenv.SetFs(fs)
	dotenv.SetConfigFile(".env")
	dotenv.SetConfigType("env")
	if err := dotenv.ReadInConfig(); err != nil {
		return ""
	}
	return dotenv.GetString("database_url")
}

func (c *Config) Validate() error {
	switch c.LogLevel {
	case "silent", "error", "warn", "info":
	default:
		return fmt.Errorf("invalid %s %q: want silent, error, warn or info", KeyLogLevel, c.LogLevel)
	}
	if c.MaxLineLength <= 0 {
		return fmt.Errorf("invalid %s %d: must be positive", KeyMaxLineLength, c.MaxLineLength)
	}
	if strings.TrimSpace(c.MigrationsDir) == "" {
		return fmt.Errorf("%s is required", KeyMigrationsDir)
	}
	return nil
}

// SlogLevel maps LogLevel onto slog. Silent only lets errors through.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	}
	return slog.LevelError
}
