package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Dialect     string `mapstructure:"dialect"`
	SessionsDir string `mapstructure:"sessions_dir"`
	LogLevel    string `mapstructure:"log_level"`
	NoColor     bool   `mapstructure:"no_color"`
}

const envPrefix = "JAIS_PROMPT"

// Dir returns the per-user configuration directory
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".jais-prompt"), nil
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) error {
	dir, err := Dir()
	if err != nil {
		return err
	}

	v.SetDefault("dialect", "jais_plus")
	v.SetDefault("sessions_dir", filepath.Join(dir, "sessions"))
	v.SetDefault("log_level", "info")
	v.SetDefault("no_color", false)
	return nil
}

// Load reads configuration from defaults, an optional config file,
// JAIS_PROMPT_* environment variables and any flags already bound to v.
// An empty configFile searches ~/.jais-prompt/config.yaml.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if err := SetDefaults(v); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicit file must exist; the default one is optional
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}
