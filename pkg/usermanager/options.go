package usermanager

import (
	"github.com/tendant/simple-wpuser/pkg/container"
	"github.com/tendant/simple-wpuser/pkg/host"
	"github.com/tendant/simple-wpuser/pkg/role"
	"github.com/tendant/simple-wpuser/pkg/userquery"
)

// Config holds manager settings
type Config struct {
	// BootDisabled skips attaching the host role sync to the init hook on
	// construction. The zero value boots.
	BootDisabled bool `env:"USER_MANAGER_BOOT_DISABLED" yaml:"boot_disabled"`
}

// DefaultConfig returns the settings used when WithConfig is not given
func DefaultConfig() Config {
	return Config{}
}

// Translator turns a host role display name into the one registered locally
type Translator func(displayName string) string

// Option configures a Manager
type Option func(*Manager)

// WithConfig replaces the default settings
func WithConfig(config Config) Option {
	return func(m *Manager) {
		m.config = config
	}
}

// WithHost sets the host the manager works against. Required.
func WithHost(h host.Host) Option {
	return func(m *Manager) {
		m.host = h
	}
}

// WithQuery sets the user query. Defaults to an unfiltered query over the host.
func WithQuery(q *userquery.Query) Option {
	return func(m *Manager) {
		m.query = q
	}
}

// WithRoleManager sets the role registry instead of resolving it lazily
func WithRoleManager(rm *role.Manager) Option {
	return func(m *Manager) {
		m.roleManager = rm
	}
}

// WithContainer sets the container the role registry is resolved from
func WithContainer(c *container.Container) Option {
	return func(m *Manager) {
		m.container = c
	}
}

// WithTranslator sets how host role display names are translated on sync
func WithTranslator(t Translator) Option {
	return func(m *Manager) {
		m.translate = t
	}
}
