package role

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/exp/slices"

	"github.com/tendant/simple-wpuser/pkg/errors"
	"github.com/tendant/simple-wpuser/pkg/host"
)

// Options declares the shape of a role
type Options struct {
	Capabilities []string `json:"capabilities" yaml:"capabilities"`
	DisplayName  string   `json:"display_name" yaml:"display_name"`
}

// Role is a named capability set mirrored into the host role table
type Role struct {
	name         string
	displayName  string
	capabilities []string
}

// NewRole builds a role and reconciles the host role table toward it.
// The display name defaults to the role name.
func NewRole(ctx context.Context, store host.RoleStore, name string, opts Options) (*Role, error) {
	if name == "" {
		return nil, errors.New(errors.ErrCodeInvalidRole, "role name cannot be empty")
	}
	r := &Role{name: name}
	r.SetDisplayName(opts.DisplayName)
	r.SetCapabilities(opts.Capabilities)

	if err := r.Sync(ctx, store); err != nil {
		return nil, err
	}
	return r, nil
}

// NewRoleFromDefinition builds a role from a loosely typed option mapping as
// decoded from YAML or JSON. Keys: capabilities (list of strings) and
// display_name (string).
func NewRoleFromDefinition(ctx context.Context, store host.RoleStore, name string, def map[string]any) (*Role, error) {
	opts, err := parseDefinition(name, def)
	if err != nil {
		return nil, err
	}
	return NewRole(ctx, store, name, opts)
}

func parseDefinition(name string, def map[string]any) (Options, error) {
	var opts Options

	switch caps := def["capabilities"].(type) {
	case nil:
	case []string:
		if slices.Contains(caps, "") {
			return Options{}, invalidCapabilities(name)
		}
		opts.Capabilities = caps
	case []any:
		for _, c := range caps {
			s, ok := c.(string)
			if !ok || s == "" {
				return Options{}, invalidCapabilities(name)
			}
			opts.Capabilities = append(opts.Capabilities, s)
		}
	default:
		return Options{}, invalidCapabilities(name)
	}

	switch dn := def["display_name"].(type) {
	case nil:
	case string:
		opts.DisplayName = dn
	default:
		return Options{}, errors.Newf(errors.ErrCodeInvalidRole, "Invalid display name declaration for role [%s]", name).
			WithDetail("role", name)
	}
	return opts, nil
}

func invalidCapabilities(name string) error {
	return errors.Newf(errors.ErrCodeInvalidCapability, "Invalid capabilities declaration for role [%s]", name).
		WithDetail("role", name)
}

// Name returns the role name
func (r *Role) Name() string {
	return r.name
}

// DisplayName returns the human readable name
func (r *Role) DisplayName() string {
	return r.displayName
}

// Capabilities returns the declared capabilities in declaration order
func (r *Role) Capabilities() []string {
	return slices.Clone(r.capabilities)
}

// HasCapability reports whether the role declares c
func (r *Role) HasCapability(c string) bool {
	return slices.Contains(r.capabilities, c)
}

// SetCapability adds one capability. Changes stay local until Sync.
func (r *Role) SetCapability(c string) *Role {
	if c != "" && !slices.Contains(r.capabilities, c) {
		r.capabilities = append(r.capabilities, c)
	}
	return r
}

// SetCapabilities replaces the capability set, keeping the first occurrence of duplicates
func (r *Role) SetCapabilities(caps []string) *Role {
	r.capabilities = make([]string, 0, len(caps))
	for _, c := range caps {
		r.SetCapability(c)
	}
	return r
}

// SetDisplayName changes the display name; empty resets it to the role name
func (r *Role) SetDisplayName(displayName string) *Role {
	if displayName == "" {
		displayName = r.name
	}
	r.displayName = displayName
	return r
}

// Sync reconciles the host role table toward this role. A missing host role
// is created. A host role with another display name is removed and recreated,
// which drops its capabilities. Every declared capability not granted on the
// host is then granted. Capabilities the role no longer declares are left alone.
func (r *Role) Sync(ctx context.Context, store host.RoleStore) error {
	existing, err := store.GetRole(ctx, r.name)
	switch {
	case err != nil && host.IsNotFound(err):
		if existing, err = store.AddRole(ctx, r.name, r.displayName); err != nil {
			return errors.InternalWrap(err, fmt.Sprintf("failed to add role %s", r.name))
		}
	case err != nil:
		return errors.InternalWrap(err, fmt.Sprintf("failed to get role %s", r.name))
	case existing.DisplayName != r.displayName:
		if dropped := r.undeclared(existing); len(dropped) > 0 {
			slog.Warn("Recreating role drops host capabilities",
				"role", r.name,
				"old_display_name", existing.DisplayName,
				"display_name", r.displayName,
				"dropped", dropped)
		}
		if err := store.RemoveRole(ctx, r.name); err != nil {
			return errors.InternalWrap(err, fmt.Sprintf("failed to remove role %s", r.name))
		}
		if existing, err = store.AddRole(ctx, r.name, r.displayName); err != nil {
			return errors.InternalWrap(err, fmt.Sprintf("failed to add role %s", r.name))
		}
	}

	for _, c := range r.capabilities {
		if existing.Capabilities[c] {
			continue
		}
		if err := store.AddCap(ctx, r.name, c, true); err != nil {
			return errors.InternalWrap(err, fmt.Sprintf("failed to grant %s to role %s", c, r.name))
		}
	}
	return nil
}

// undeclared lists the host capabilities of existing that this role does not declare
func (r *Role) undeclared(existing host.RoleData) []string {
	var out []string
	for c := range existing.Capabilities {
		if !slices.Contains(r.capabilities, c) {
			out = append(out, c)
		}
	}
	slices.Sort(out)
	return out
}
