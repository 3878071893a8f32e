// Package container is a small dependency container of shared services.
// A service is registered as a factory and built on first Get.
package container

import (
	"sync"

	"github.com/tendant/simple-wpuser/pkg/errors"
)

// Factory builds a service. It receives the container to resolve its own dependencies.
type Factory func(c *Container) (any, error)

// Provider registers a group of services
type Provider interface {
	Provides() []string
	Register(c *Container)
}

type entry struct {
	factory  Factory
	built    bool
	instance any
	pending  *build
}

// build is one in-flight run of a factory. parent is the build whose factory
// asked for it; child and waiting record what the build is currently blocked on.
type build struct {
	id       string
	parent   *build
	child    *build
	waiting  *build
	finished bool
	done     chan struct{}
	instance any
	err      error
}

type registry struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// Container holds shared services by id. Factories receive a view of the
// same container that remembers which build asked, so a service that needs
// itself fails instead of waiting forever.
type Container struct {
	*registry
	current *build
}

// New creates an empty container
func New() *Container {
	return &Container{
		registry: &registry{entries: make(map[string]*entry)},
	}
}

// Share registers factory under id, replacing any earlier registration
func (c *Container) Share(id string, factory Factory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = &entry{factory: factory}
}

// Set registers an already built service under id
func (c *Container) Set(id string, instance any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = &entry{built: true, instance: instance}
}

// Has reports whether id is registered
func (c *Container) Has(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[id]
	return ok
}

// Get returns the service registered under id, building it on first use.
// Concurrent callers for a service being built wait for that build.
// A failed build is not cached; the next Get tries again.
func (c *Container) Get(id string) (any, error) {
	c.mu.Lock()
	e, ok := c.entries[id]
	if !ok {
		c.mu.Unlock()
		return nil, errors.NotFound("service", id)
	}
	if e.built {
		c.mu.Unlock()
		return e.instance, nil
	}
	if c.inChain(id) {
		c.mu.Unlock()
		return nil, circular(id)
	}

	if p := e.pending; p != nil {
		if c.blockedBy(p) {
			c.mu.Unlock()
			return nil, circular(id)
		}
		if c.current != nil {
			c.current.waiting = p
		}
		c.mu.Unlock()

		<-p.done

		if c.current != nil {
			c.mu.Lock()
			c.current.waiting = nil
			c.mu.Unlock()
		}
		return p.instance, p.err
	}

	b := &build{id: id, parent: c.current, done: make(chan struct{})}
	e.pending = b
	if c.current != nil {
		c.current.child = b
	}
	c.mu.Unlock()

	// Factories may call Get for their own dependencies, so the lock is not held here.
	instance, err := e.factory(&Container{registry: c.registry, current: b})

	c.mu.Lock()
	defer c.mu.Unlock()
	e.pending = nil
	if c.current != nil {
		c.current.child = nil
	}
	b.finished = true
	if err != nil {
		b.err = errors.Wrapf(err, errors.ErrCodeInternal, "failed to build service %s", id)
	} else {
		b.instance = instance
		// Share or Set may have replaced the entry meanwhile
		if c.entries[id] == e {
			e.built = true
			e.instance = instance
		}
	}
	close(b.done)
	return b.instance, b.err
}

// inChain reports whether id is being built by this view or one of the
// builds that asked for it. Caller holds mu.
func (c *Container) inChain(id string) bool {
	for b := c.current; b != nil; b = b.parent {
		if !b.finished && b.id == id {
			return true
		}
	}
	return false
}

// blockedBy reports whether waiting on p would wait on this view's own
// chain, directly or through builds in other goroutines. Caller holds mu.
func (c *Container) blockedBy(p *build) bool {
	seen := map[*build]bool{}
	for b := p; b != nil && !seen[b]; {
		seen[b] = true
		for a := c.current; a != nil; a = a.parent {
			if a == b && !a.finished {
				return true
			}
		}
		if b.child != nil {
			b = b.child
		} else {
			b = b.waiting
		}
	}
	return false
}

func circular(id string) error {
	return errors.Newf(errors.ErrCodeInternal, "circular dependency on service %s", id)
}

// Register lets provider share its services
func (c *Container) Register(provider Provider) {
	provider.Register(c)
}

// Resolve gets id and asserts its type
func Resolve[T any](c *Container, id string) (T, error) {
	var zero T
	v, err := c.Get(id)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, errors.Newf(errors.ErrCodeInternal, "service %s has unexpected type %T", id, v)
	}
	return typed, nil
}
