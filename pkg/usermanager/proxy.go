package usermanager

import (
	"context"
	"sync"

	"github.com/tendant/simple-wpuser/pkg/container"
	"github.com/tendant/simple-wpuser/pkg/errors"
	"github.com/tendant/simple-wpuser/pkg/userquery"
)

// Proxy gives a component access to users without wiring a Manager by hand.
// The manager is resolved on first use: an explicit SetUserManager, then the
// process instance, then the container.
type Proxy struct {
	mu        sync.Mutex
	manager   *Manager
	container *container.Container
}

// NewProxy creates a Proxy. c may be nil.
func NewProxy(c *container.Container) *Proxy {
	return &Proxy{container: c}
}

// SetUserManager pins the manager used by the proxy
func (p *Proxy) SetUserManager(m *Manager) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.manager = m
}

// UserManager resolves the manager
func (p *Proxy) UserManager() (*Manager, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.manager != nil {
		return p.manager, nil
	}
	if m, err := Instance(); err == nil {
		p.manager = m
		return m, nil
	}
	if p.container != nil && p.container.Has(ServiceID) {
		m, err := container.Resolve[*Manager](p.container, ServiceID)
		if err != nil {
			return nil, err
		}
		p.manager = m
		return m, nil
	}
	return nil, errors.Unavailable("Unavailable [usermanager.Manager] instance")
}

// CurrentUser returns the session user
func (p *Proxy) CurrentUser(ctx context.Context) (userquery.User, error) {
	return p.User(ctx, nil)
}

// User resolves one user and fails when it cannot be found or is filtered out
func (p *Proxy) User(ctx context.Context, identifier any) (userquery.User, error) {
	m, err := p.UserManager()
	if err != nil {
		return nil, err
	}
	if u := m.Get(ctx, identifier); u != nil {
		return u, nil
	}
	return nil, errors.New(errors.ErrCodeUserUnavailable, "user is unavailable").
		WithDetail("identifier", identifier)
}

// Users runs a user query
func (p *Proxy) Users(ctx context.Context, query any) ([]userquery.User, error) {
	m, err := p.UserManager()
	if err != nil {
		return nil, err
	}
	return m.Fetch(ctx, query), nil
}
