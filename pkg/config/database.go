package config

import (
	"fmt"
)

// DatabaseConfig holds PostgreSQL settings for the postgres host backend
type DatabaseConfig struct {
	Host     string `env:"WPUSER_PG_HOST" env-default:"localhost" yaml:"host"`
	Port     uint16 `env:"WPUSER_PG_PORT" env-default:"5432" yaml:"port" validate:"gte=1"`
	Database string `env:"WPUSER_PG_DATABASE" env-default:"host_db" yaml:"database"`
	User     string `env:"WPUSER_PG_USER" env-default:"host" yaml:"user"`
	Password string `env:"WPUSER_PG_PASSWORD" env-default:"pwd" yaml:"password"`
	Schema   string `env:"WPUSER_PG_SCHEMA" env-default:"public" yaml:"schema"`
}

// ToDatabaseURL converts the config to a PostgreSQL connection URL
func (d DatabaseConfig) ToDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable&search_path=%s,public",
		d.User, d.Password, d.Host, d.Port, d.Database, d.Schema)
}
