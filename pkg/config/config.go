package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/tendant/simple-wpuser/pkg/host"
	"github.com/tendant/simple-wpuser/pkg/usermanager"
	"github.com/tendant/simple-wpuser/pkg/userquery"
)

// Config is the full wpuser configuration.
//
// Every field can be set from the environment. A YAML file passed to Load is
// read first and the environment overrides it.
type Config struct {
	AppEnv      string             `env:"APP_ENV" env-default:"development" yaml:"app_env"`
	Server      ServerConfig       `yaml:"server"`
	Database    DatabaseConfig     `yaml:"database"`
	Host        HostConfig         `yaml:"host"`
	UserManager usermanager.Config `yaml:"user_manager"`
	Query       QueryConfig        `yaml:"query"`
	Log         LogConfig          `yaml:"log"`
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Port   int          `env:"HTTP_PORT" env-default:"4000" yaml:"port" validate:"gte=1,lte=65535"`
	Prefix PrefixConfig `yaml:"prefix"`
}

// HostConfig selects and configures the host backend
type HostConfig struct {
	Persistence string `env:"WPUSER_PERSISTENCE" env-default:"memory" yaml:"persistence" validate:"oneof=memory file postgres"`
	DataDir     string `env:"WPUSER_DATA_DIR" yaml:"data_dir" validate:"required_if=Persistence file"`
	AdminURL    string `env:"WPUSER_ADMIN_URL" env-default:"http://localhost/wp-admin/" yaml:"admin_url" validate:"omitempty,url"`
	RolesFile   string `env:"WPUSER_ROLES_FILE" yaml:"roles_file"`
}

// RepositoryConfig converts the settings for host.NewHost. The pool is left
// for the caller to open.
func (h HostConfig) RepositoryConfig() host.RepositoryConfig {
	return host.RepositoryConfig{
		DataDir:  h.DataDir,
		AdminURL: h.AdminURL,
	}
}

// QueryConfig holds the user query defaults
type QueryConfig struct {
	// Role is a comma-separated role filter; "any" or empty disables it
	Role           string `env:"WPUSER_QUERY_ROLE" yaml:"role"`
	DefaultNumber  int    `env:"WPUSER_QUERY_NUMBER" yaml:"default_number" validate:"gte=0"`
	DefaultOrderBy string `env:"WPUSER_QUERY_ORDERBY" yaml:"default_orderby"`
	DefaultOrder   string `env:"WPUSER_QUERY_ORDER" yaml:"default_order" validate:"omitempty,oneof=ASC DESC asc desc"`
}

// ToUserQueryConfig builds the userquery configuration. Constructors are
// registered in code, not in configuration.
func (q QueryConfig) ToUserQueryConfig() userquery.Config {
	return userquery.Config{
		Role: userquery.RoleFilter(ParseRoleFilter(q.Role)),
		DefaultArgs: host.QueryArgs{
			Number:  q.DefaultNumber,
			OrderBy: q.DefaultOrderBy,
			Order:   strings.ToUpper(q.DefaultOrder),
		},
	}
}

// LogConfig controls the process logger
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" env-default:"info" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `env:"LOG_FORMAT" env-default:"text" yaml:"format" validate:"oneof=text json"`
	Source bool   `env:"LOG_SOURCE" env-default:"true" yaml:"source"`
}

// SlogLevel maps Level to a slog level, defaulting to info
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// NewLogger builds a logger writing to w
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		AddSource: l.Source,
		Level:     l.SlogLevel(),
	}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Load reads the configuration from path (when set) and the environment,
// resolves the route prefixes and validates the result.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return Config{}, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read config from environment: %w", err)
	}

	cfg.Server.Prefix = cfg.Server.Prefix.Resolve()

	if err := ValidateStruct(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

