package role

import (
	"context"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/tendant/simple-wpuser/pkg/errors"
	"github.com/tendant/simple-wpuser/pkg/host"
)

// Manager is the registry of known roles keyed by name
type Manager struct {
	store host.RoleStore

	mu    sync.RWMutex
	roles map[string]*Role
}

// NewManager creates an empty registry whose roles sync into store
func NewManager(store host.RoleStore) *Manager {
	return &Manager{
		store: store,
		roles: make(map[string]*Role),
	}
}

// Store returns the host role table roles are synced into
func (m *Manager) Store() host.RoleStore {
	return m.store
}

// Register stores a role under name, replacing any earlier entry.
// def may be a *Role (stored as is), Options, *Options, a raw map[string]any
// definition, or nil for a role with no capabilities.
func (m *Manager) Register(ctx context.Context, name string, def any) (*Role, error) {
	var (
		r   *Role
		err error
	)
	switch d := def.(type) {
	case *Role:
		if d == nil {
			r, err = NewRole(ctx, m.store, name, Options{})
		} else {
			r = d
		}
	case Options:
		r, err = NewRole(ctx, m.store, name, d)
	case *Options:
		var opts Options
		if d != nil {
			opts = *d
		}
		r, err = NewRole(ctx, m.store, name, opts)
	case map[string]any:
		r, err = NewRoleFromDefinition(ctx, m.store, name, d)
	case nil:
		r, err = NewRole(ctx, m.store, name, Options{})
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidRole, "unsupported definition %T for role [%s]", def, name).
			WithDetail("role", name)
	}
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.roles[name] = r
	m.mu.Unlock()
	return r, nil
}

// Get returns the role registered under name, or nil
func (m *Manager) Get(name string) *Role {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.roles[name]
}

// Has reports whether name is registered
func (m *Manager) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.roles[name]
	return ok
}

// All returns a copy of the registry
func (m *Manager) All() map[string]*Role {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.roles)
}

// Names returns the registered role names, sorted
func (m *Manager) Names() []string {
	m.mu.RLock()
	names := maps.Keys(m.roles)
	m.mu.RUnlock()
	slices.Sort(names)
	return names
}
