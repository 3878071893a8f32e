package config

// PrefixConfig holds the API endpoint prefixes of each route group.
//
// Example environment variables:
//
//	API_PREFIX_USERS=/api/v1/wpuser/users
//	API_PREFIX_ROLES=/api/v1/wpuser/roles
type PrefixConfig struct {
	Base  string `env:"API_PREFIX_BASE" yaml:"base"`
	Users string `env:"API_PREFIX_USERS" yaml:"users"`
	Roles string `env:"API_PREFIX_ROLES" yaml:"roles"`
}

// DefaultV1Prefixes returns the default v1 prefix configuration
func DefaultV1Prefixes() PrefixConfig {
	return BuildPrefixesFromBase("/api/v1/wpuser")
}

// BuildPrefixesFromBase appends route segments to basePath
func BuildPrefixesFromBase(basePath string) PrefixConfig {
	// Remove trailing slash if present
	if len(basePath) > 0 && basePath[len(basePath)-1] == '/' {
		basePath = basePath[:len(basePath)-1]
	}

	return PrefixConfig{
		Base:  basePath,
		Users: basePath + "/users",
		Roles: basePath + "/roles",
	}
}

// Resolve fills unset prefixes. Explicit Users/Roles values win over Base,
// and Base wins over DefaultV1Prefixes.
func (p PrefixConfig) Resolve() PrefixConfig {
	var defaults PrefixConfig
	if p.Base != "" {
		defaults = BuildPrefixesFromBase(p.Base)
	} else {
		defaults = DefaultV1Prefixes()
	}
	if p.Users == "" {
		p.Users = defaults.Users
	}
	if p.Roles == "" {
		p.Roles = defaults.Roles
	}
	p.Base = defaults.Base
	return p
}
