package role

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// Definitions maps role names to raw option mappings, as found in a roles file:
//
//	shop_manager:
//	  display_name: Shop Manager
//	  capabilities: [read, manage_orders]
type Definitions map[string]map[string]any

// LoadDefinitions reads a YAML roles file
func LoadDefinitions(path string) (Definitions, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read role definitions: %w", err)
	}
	return ParseDefinitions(raw)
}

// ParseDefinitions decodes YAML role definitions
func ParseDefinitions(raw []byte) (Definitions, error) {
	defs := Definitions{}
	if err := yaml.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("failed to parse role definitions: %w", err)
	}
	return defs, nil
}

// RegisterDefinitions registers every definition in name order and stops at
// the first invalid one. Roles registered before the failure stay registered.
func (m *Manager) RegisterDefinitions(ctx context.Context, defs Definitions) ([]*Role, error) {
	names := maps.Keys(defs)
	slices.Sort(names)

	roles := make([]*Role, 0, len(names))
	for _, name := range names {
		r, err := m.Register(ctx, name, defs[name])
		if err != nil {
			return roles, err
		}
		roles = append(roles, r)
	}
	return roles, nil
}
