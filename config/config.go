// Package config loads settings for the seeding and serving commands.
//
// Values are layered, lowest precedence first: built-in defaults, an
// optional YAML file, a .env file in the working directory, environment
// variables and finally command-line flags bound by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Seed     SeedConfig     `mapstructure:"seed"`
	Log      LogConfig      `mapstructure:"log"`
	Server   ServerConfig   `mapstructure:"server"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
	URL    string `mapstructure:"url"`
}

type SeedConfig struct {
	File            string `mapstructure:"file"`
	SheetID         string `mapstructure:"sheet_id"`
	SheetRange      string `mapstructure:"sheet_range"`
	CredentialsFile string `mapstructure:"credentials_file"`
	Backup          bool   `mapstructure:"backup"`
	MaxBackups      int    `mapstructure:"max_backups"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// envBindings maps config keys to the environment variables that set them.
// The first variable found wins.
var envBindings = map[string][]string{
	"database.driver":       {"DB_DRIVER"},
	"database.path":         {"DB_PATH"},
	"database.url":          {"POSTGRES_URL", "DATABASE_URL"},
	"seed.file":             {"CSV_FILE"},
	"seed.sheet_id":         {"MD_WORKSHEET"},
	"seed.sheet_range":      {"SHEET_RANGE"},
	"seed.credentials_file": {"WORKSPACE_CREDENTIALS_FILE"},
	"seed.backup":           {"SEED_BACKUP"},
	"seed.max_backups":      {"SEED_MAX_BACKUPS"},
	"log.level":             {"LOG_LEVEL"},
	"log.format":            {"LOG_FORMAT"},
	"server.addr":           {"LISTEN_ADDR"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "unicorns.db")
	v.SetDefault("database.url", "")
	v.SetDefault("seed.file", "unicorns.csv")
	v.SetDefault("seed.sheet_id", "")
	v.SetDefault("seed.sheet_range", "Unicorns!A:G")
	v.SetDefault("seed.credentials_file", "")
	v.SetDefault("seed.backup", true)
	v.SetDefault("seed.max_backups", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
}

// Loader builds a Config. Flags registered with BindFlag take precedence
// over every other source, but only when set on the command line.
type Loader struct {
	v          *viper.Viper
	configFile string
	envFile    string
}

func NewLoader() *Loader {
	v := viper.New()
	setDefaults(v)
	return &Loader{v: v, envFile: ".env"}
}

// SetConfigFile names a YAML file to merge over the defaults.
func (l *Loader) SetConfigFile(path string) {
	l.configFile = path
}

// SetEnvFile overrides the dotenv file location. An empty path disables it.
func (l *Loader) SetEnvFile(path string) {
	l.envFile = path
}

// BindFlag binds a config key to a command-line flag.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("config: no flag for key %q", key)
	}
	return l.v.BindPFlag(key, flag)
}

func (l *Loader) Load() (*Config, error) {
	if l.envFile != "" {
		// godotenv never overrides variables that are already set.
		if err := godotenv.Load(l.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: loading %s: %w", l.envFile, err)
		}
	}

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
		l.v.SetConfigType("yaml")
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", l.configFile, err)
		}
	}

	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()
	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := l.v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("config: binding %s: %w", key, err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unable to decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("config: database.path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return errors.New("config: database.url (POSTGRES_URL) is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown database driver %q", c.Database.Driver)
	}
	if c.Seed.SheetID != "" && c.Seed.CredentialsFile == "" {
		return errors.New("config: seed.credentials_file (WORKSPACE_CREDENTIALS_FILE) is required when reading from a sheet")
	}
	if c.Seed.MaxBackups < 0 {
		return fmt.Errorf("config: seed.max_backups must not be negative, got %d", c.Seed.MaxBackups)
	}
	return nil
}
