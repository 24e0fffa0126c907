// Package config loads balproc configuration from file, environment
// variables, and CLI flags.
package config

// Defaults applied before any other configuration source.
const (
	DefaultStateFile = ".balproc/state.db"
	DefaultOutput    = "output.sql"
	DefaultDBHost    = "localhost"
	DefaultDBPort    = 5432
	DefaultSSLMode   = "disable"
)

// Config is the resolved balproc configuration.
type Config struct {
	DBHost     string `koanf:"db_host"`
	DBPort     int    `koanf:"db_port"`
	DBName     string `koanf:"db_name"`
	DBUser     string `koanf:"db_user"`
	DBPassword string `koanf:"db_password"`
	DBSSLMode  string `koanf:"db_sslmode"`

	// StatePath is the SQLite run-history database location.
	StatePath string `koanf:"state_path"`
	// Output is the script file written by the script command.
	Output  string `koanf:"output"`
	Verbose bool   `koanf:"verbose"`
}
