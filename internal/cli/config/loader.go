package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Package-level config file tracking
var configFileUsed string

// findConfigFile finds the config file to use.
// Priority: explicit path > balproc.yaml > balproc.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"balproc.yaml", "balproc.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"db_host":    DefaultDBHost,
		"db_port":    DefaultDBPort,
		"db_sslmode": DefaultSSLMode,
		"state_path": DefaultStateFile,
		"output":     DefaultOutput,
		"verbose":    false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Environment variables (BALPROC_ prefix)
	// Transform: BALPROC_DB_HOST -> db_host
	if err := k.Load(env.Provider("BALPROC_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "BALPROC_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			// Transform kebab-case to snake_case for config keys
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Expand environment variables in credential fields
	cfg.DBHost = expandEnvVars(cfg.DBHost)
	cfg.DBName = expandEnvVars(cfg.DBName)
	cfg.DBUser = expandEnvVars(cfg.DBUser)
	cfg.DBPassword = expandEnvVars(cfg.DBPassword)

	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// Validate checks the parameters the database connection cannot do
// without. Commands that never touch PostgreSQL skip this.
func Validate(cfg *Config) error {
	var missing []string
	if cfg.DBName == "" {
		missing = append(missing, "db_name")
	}
	if cfg.DBUser == "" {
		missing = append(missing, "db_user")
	}
	if cfg.DBPassword == "" {
		missing = append(missing, "db_password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required database configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns with environment variable values.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Keep original if not set
	})
}
