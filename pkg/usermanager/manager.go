package usermanager

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/exp/slices"

	"github.com/tendant/simple-wpuser/pkg/container"
	"github.com/tendant/simple-wpuser/pkg/errors"
	"github.com/tendant/simple-wpuser/pkg/host"
	"github.com/tendant/simple-wpuser/pkg/role"
	"github.com/tendant/simple-wpuser/pkg/userquery"
)

const (
	// ServiceID is the container id of the Manager
	ServiceID = "usermanager.Manager"
	// RoleManagerServiceID is the container id of the role registry
	RoleManagerServiceID = "role.Manager"

	// BootPriority runs the host role sync after nearly every other init action
	BootPriority = 999998
)

var (
	instanceMu sync.Mutex
	instance   *Manager
)

// Manager is the entry point for user lookups and role registration
type Manager struct {
	config    Config
	host      host.Host
	query     *userquery.Query
	container *container.Container
	translate Translator

	mu          sync.Mutex
	roleManager *role.Manager
	booted      bool
	synced      bool
}

// New creates a Manager. The first Manager created in the process becomes the
// one returned by Instance.
func New(opts ...Option) (*Manager, error) {
	m := &Manager{config: DefaultConfig()}
	for _, opt := range opts {
		opt(m)
	}
	if m.host == nil {
		return nil, errors.InvalidArgument("user manager requires a host")
	}
	if m.query == nil {
		m.query = userquery.New(m.host, userquery.Config{})
	}
	if m.translate == nil {
		m.translate = func(s string) string { return s }
	}

	if !m.config.BootDisabled {
		m.Boot()
	}

	instanceMu.Lock()
	if instance == nil {
		instance = m
	}
	instanceMu.Unlock()
	return m, nil
}

// Instance returns the first Manager created in the process
func Instance() (*Manager, error) {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	if instance == nil {
		return nil, errors.Unavailable("Unavailable [usermanager.Manager] instance")
	}
	return instance, nil
}

// resetInstance forgets the process instance
func resetInstance() {
	instanceMu.Lock()
	instance = nil
	instanceMu.Unlock()
}

// Boot attaches the host role sync to the host init hook. Calling it again does nothing.
func (m *Manager) Boot() *Manager {
	m.mu.Lock()
	if m.booted {
		m.mu.Unlock()
		return m
	}
	m.booted = true
	m.mu.Unlock()

	m.host.AddAction(host.HookInit, BootPriority, func(ctx context.Context) error {
		m.mu.Lock()
		done := m.synced
		m.mu.Unlock()
		if done {
			return nil
		}
		if err := m.SyncHostRoles(ctx); err != nil {
			return err
		}
		m.mu.Lock()
		m.synced = true
		m.mu.Unlock()
		return nil
	})
	return m
}

// Booted reports whether Boot has run
func (m *Manager) Booted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.booted
}

// SyncHostRoles registers every host role the role registry does not know yet.
// The display name goes through the translator; the capabilities are the ones
// the host role grants.
func (m *Manager) SyncHostRoles(ctx context.Context) error {
	roles, err := m.host.Roles(ctx)
	if err != nil {
		return errors.InternalWrap(err, "failed to list host roles")
	}
	rm := m.RoleManager()

	for _, r := range roles {
		if rm.Has(r.Name) {
			continue
		}
		caps := make([]string, 0, len(r.Capabilities))
		for c, granted := range r.Capabilities {
			if granted {
				caps = append(caps, c)
			}
		}
		slices.Sort(caps)

		if _, err := rm.Register(ctx, r.Name, role.Options{
			DisplayName:  m.translate(r.DisplayName),
			Capabilities: caps,
		}); err != nil {
			return err
		}
		slog.Debug("Registered host role", "role", r.Name, "capabilities", len(caps))
	}
	return nil
}

// Get resolves one user. See userquery.Query.Create for accepted identifiers.
func (m *Manager) Get(ctx context.Context, identifier any) userquery.User {
	return m.query.Create(ctx, identifier)
}

// Fetch runs a user query. See userquery.Query.Fetch for accepted queries.
func (m *Manager) Fetch(ctx context.Context, query any) []userquery.User {
	return m.query.Fetch(ctx, query)
}

// RegisterRole registers a role definition with the role registry
func (m *Manager) RegisterRole(ctx context.Context, name string, def any) (*role.Role, error) {
	return m.RoleManager().Register(ctx, name, def)
}

// GetRole returns a registered role, or nil
func (m *Manager) GetRole(name string) *role.Role {
	return m.RoleManager().Get(name)
}

// RoleManager returns the role registry, resolving it from the container on
// first use and creating one over the host otherwise.
func (m *Manager) RoleManager() *role.Manager {
	m.mu.Lock()
	if m.roleManager != nil {
		rm := m.roleManager
		m.mu.Unlock()
		return rm
	}
	c := m.container
	m.mu.Unlock()

	var rm *role.Manager
	if c != nil && c.Has(RoleManagerServiceID) {
		resolved, err := container.Resolve[*role.Manager](c, RoleManagerServiceID)
		if err != nil {
			slog.Warn("Failed to resolve role manager from container", "err", err)
		} else {
			rm = resolved
		}
	}
	if rm == nil {
		rm = role.NewManager(m.host)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.roleManager == nil {
		m.roleManager = rm
	}
	return m.roleManager
}

// Query returns the user query
func (m *Manager) Query() *userquery.Query {
	return m.query
}

// Host returns the host the manager works against
func (m *Manager) Host() host.Host {
	return m.host
}

// RoleNames returns the registered role names with their display names
func (m *Manager) RoleNames() map[string]string {
	all := m.RoleManager().All()
	names := make(map[string]string, len(all))
	for name, r := range all {
		names[name] = r.DisplayName()
	}
	return names
}
