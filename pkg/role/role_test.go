package role

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-wpuser/pkg/errors"
	"github.com/tendant/simple-wpuser/pkg/host"
)

// failingStore fails every AddCap call
type failingStore struct {
	*host.InMemoryHost
}

func (s failingStore) AddCap(ctx context.Context, role, capability string, grant bool) error {
	return stderrors.New("disk full")
}

func TestNewRole(t *testing.T) {
	ctx := context.Background()

	t.Run("CreatesMissingHostRole", func(t *testing.T) {
		store := host.NewInMemoryHost()
		r, err := NewRole(ctx, store, "shop_manager", Options{
			DisplayName:  "Shop Manager",
			Capabilities: []string{"read", "manage_orders", "read"},
		})
		require.NoError(t, err)
		assert.Equal(t, "shop_manager", r.Name())
		assert.Equal(t, "Shop Manager", r.DisplayName())
		assert.Equal(t, []string{"read", "manage_orders"}, r.Capabilities())

		stored, err := store.GetRole(ctx, "shop_manager")
		require.NoError(t, err)
		assert.Equal(t, "Shop Manager", stored.DisplayName)
		assert.Equal(t, map[string]bool{"read": true, "manage_orders": true}, stored.Capabilities)
	})

	t.Run("DisplayNameDefaultsToName", func(t *testing.T) {
		store := host.NewInMemoryHost()
		r, err := NewRole(ctx, store, "auditor", Options{})
		require.NoError(t, err)
		assert.Equal(t, "auditor", r.DisplayName())
		assert.Empty(t, r.Capabilities())
	})

	t.Run("GrantsMissingAndDeniedCaps", func(t *testing.T) {
		store := host.NewInMemoryHost()
		store.SeedRole(host.RoleData{Name: "editor", DisplayName: "editor", Capabilities: map[string]bool{
			"edit_posts":   false,
			"legacy_thing": true,
		}})

		_, err := NewRole(ctx, store, "editor", Options{Capabilities: []string{"edit_posts", "publish_posts"}})
		require.NoError(t, err)

		stored, err := store.GetRole(ctx, "editor")
		require.NoError(t, err)
		assert.True(t, stored.Capabilities["edit_posts"])
		assert.True(t, stored.Capabilities["publish_posts"])
		assert.True(t, stored.Capabilities["legacy_thing"], "undeclared caps are not revoked")
	})

	t.Run("DisplayNameMismatchRecreates", func(t *testing.T) {
		store := host.NewInMemoryHost()
		store.SeedRole(host.RoleData{Name: "editor", DisplayName: "Old Editor", Capabilities: map[string]bool{
			"edit_posts":   true,
			"legacy_thing": true,
		}})

		_, err := NewRole(ctx, store, "editor", Options{DisplayName: "Editor", Capabilities: []string{"edit_posts"}})
		require.NoError(t, err)

		stored, err := store.GetRole(ctx, "editor")
		require.NoError(t, err)
		assert.Equal(t, "Editor", stored.DisplayName)
		assert.Equal(t, map[string]bool{"edit_posts": true}, stored.Capabilities)
	})

	t.Run("EmptyName", func(t *testing.T) {
		_, err := NewRole(ctx, host.NewInMemoryHost(), "", Options{})
		require.Error(t, err)
		assert.True(t, errors.IsInvalidArgument(err))
	})

	t.Run("HostFailure", func(t *testing.T) {
		store := failingStore{host.NewInMemoryHost()}
		_, err := NewRole(ctx, store, "editor", Options{Capabilities: []string{"edit_posts"}})
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInternal))
	})
}

func TestNewRoleFromDefinition(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		def         map[string]any
		wantErr     string
		wantCaps    []string
		wantDisplay string
	}{
		{
			name:        "StringSlice",
			def:         map[string]any{"capabilities": []string{"read"}, "display_name": "Reader"},
			wantCaps:    []string{"read"},
			wantDisplay: "Reader",
		},
		{
			name:        "DecodedList",
			def:         map[string]any{"capabilities": []any{"read", "edit_posts"}},
			wantCaps:    []string{"read", "edit_posts"},
			wantDisplay: "reviewer",
		},
		{
			name:        "Nil",
			def:         nil,
			wantCaps:    []string{},
			wantDisplay: "reviewer",
		},
		{
			name:    "CapabilitiesNotAList",
			def:     map[string]any{"capabilities": "read"},
			wantErr: "Invalid capabilities declaration for role [reviewer]",
		},
		{
			name:    "CapabilitiesWithNonString",
			def:     map[string]any{"capabilities": []any{"read", 3}},
			wantErr: "Invalid capabilities declaration for role [reviewer]",
		},
		{
			name:    "EmptyCapabilityName",
			def:     map[string]any{"capabilities": []any{"read", ""}},
			wantErr: "Invalid capabilities declaration for role [reviewer]",
		},
		{
			name:    "DisplayNameNotAString",
			def:     map[string]any{"display_name": []string{"x"}},
			wantErr: "Invalid display name declaration for role [reviewer]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := host.NewInMemoryHost()
			r, err := NewRoleFromDefinition(ctx, store, "reviewer", tt.def)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.True(t, errors.IsInvalidArgument(err))

				_, getErr := store.GetRole(ctx, "reviewer")
				assert.True(t, host.IsNotFound(getErr), "invalid definitions never reach the host")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCaps, r.Capabilities())
			assert.Equal(t, tt.wantDisplay, r.DisplayName())
		})
	}
}

func TestRole_Setters(t *testing.T) {
	ctx := context.Background()
	store := host.NewInMemoryHost()

	r, err := NewRole(ctx, store, "author", Options{Capabilities: []string{"read"}})
	require.NoError(t, err)

	r.SetCapability("upload_files").SetCapability("read").SetDisplayName("Author")
	assert.Equal(t, []string{"read", "upload_files"}, r.Capabilities())
	assert.True(t, r.HasCapability("upload_files"))

	stored, err := store.GetRole(ctx, "author")
	require.NoError(t, err)
	assert.NotContains(t, stored.Capabilities, "upload_files", "setters are local until Sync")

	require.NoError(t, r.Sync(ctx, store))
	stored, err = store.GetRole(ctx, "author")
	require.NoError(t, err)
	assert.Equal(t, "Author", stored.DisplayName)
	assert.True(t, stored.Capabilities["upload_files"])

	caps := r.Capabilities()
	caps[0] = "mutated"
	assert.Equal(t, "read", r.Capabilities()[0])
}
