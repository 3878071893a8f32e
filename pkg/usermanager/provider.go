package usermanager

import (
	"github.com/tendant/simple-wpuser/pkg/container"
	"github.com/tendant/simple-wpuser/pkg/host"
	"github.com/tendant/simple-wpuser/pkg/role"
)

// ServiceProvider shares the Manager and the role registry in a container
type ServiceProvider struct {
	host host.Host
	opts []Option
}

// NewServiceProvider creates a provider building managers over h with opts
func NewServiceProvider(h host.Host, opts ...Option) *ServiceProvider {
	return &ServiceProvider{host: h, opts: opts}
}

// Provides lists the container ids the provider registers
func (p *ServiceProvider) Provides() []string {
	return []string{ServiceID, RoleManagerServiceID}
}

// Register shares both services. They are built on first Get.
func (p *ServiceProvider) Register(c *container.Container) {
	c.Share(ServiceID, func(c *container.Container) (any, error) {
		opts := append([]Option{WithHost(p.host)}, p.opts...)
		return New(append(opts, WithContainer(c))...)
	})
	c.Share(RoleManagerServiceID, func(c *container.Container) (any, error) {
		m, err := container.Resolve[*Manager](c, ServiceID)
		if err != nil {
			return nil, err
		}
		return role.NewManager(m.Host()), nil
	})
}
