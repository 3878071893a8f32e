package userquery

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/tendant/simple-wpuser/pkg/host"
)

// Constructor wraps a base record into a role specific User
type Constructor func(*Record) User

// Config drives how a Query builds and filters users
type Config struct {
	// Constructors by role name; the first role of an account picks one
	Constructors map[string]Constructor
	// Fallback builds accounts whose primary role has no constructor
	Fallback Constructor
	// Role restricts every lookup and fetch
	Role RoleFilter
	// DefaultArgs fill query arguments the caller left unset
	DefaultArgs host.QueryArgs
}

// SetConstructor registers fn for role. Registering for Any sets the fallback.
func (c *Config) SetConstructor(role string, fn Constructor) {
	if role == Any {
		c.Fallback = fn
		return
	}
	if c.Constructors == nil {
		c.Constructors = make(map[string]Constructor)
	}
	c.Constructors[role] = fn
}

func (c Config) constructorFor(role string) Constructor {
	if fn, ok := c.Constructors[role]; ok && fn != nil {
		return fn
	}
	return c.Fallback
}

func (c Config) clone() Config {
	c.Constructors = maps.Clone(c.Constructors)
	c.Role = slices.Clone(c.Role)
	return c
}
