package host

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedHost(t *testing.T) *InMemoryHost {
	t.Helper()
	h := NewInMemoryHost()
	h.SeedRole(RoleData{Name: "administrator", DisplayName: "Administrator", Capabilities: map[string]bool{"edit_users": true, "read": true}})
	h.SeedRole(RoleData{Name: "editor", DisplayName: "Editor", Capabilities: map[string]bool{"edit_posts": true, "read": true}})
	h.SeedUser(User{ID: 1, Login: "admin", Email: "admin@example.com", DisplayName: "Admin", Roles: []string{"administrator"}})
	h.SeedUser(User{ID: 2, Login: "eddie", Email: "eddie@example.com", DisplayName: "Eddie", Roles: []string{"editor"}})
	h.SeedUser(User{ID: 3, Login: "zoe", Email: "zoe@example.com", DisplayName: "Zoe", Roles: []string{"subscriber", "editor"}})
	return h
}

func TestInMemoryHost_Roles(t *testing.T) {
	ctx := context.Background()
	h := NewInMemoryHost()

	t.Run("AddAndGet", func(t *testing.T) {
		role, err := h.AddRole(ctx, "shop_manager", "Shop Manager")
		require.NoError(t, err)
		assert.Equal(t, "Shop Manager", role.DisplayName)
		assert.Empty(t, role.Capabilities)

		require.NoError(t, h.AddCap(ctx, "shop_manager", "manage_orders", true))
		got, err := h.GetRole(ctx, "shop_manager")
		require.NoError(t, err)
		assert.True(t, got.Capabilities["manage_orders"])
	})

	t.Run("AddExisting", func(t *testing.T) {
		_, err := h.AddRole(ctx, "shop_manager", "Other")
		assert.ErrorIs(t, err, ErrRoleExists)
	})

	t.Run("ReturnedRoleIsACopy", func(t *testing.T) {
		got, err := h.GetRole(ctx, "shop_manager")
		require.NoError(t, err)
		got.Capabilities["hacked"] = true

		again, err := h.GetRole(ctx, "shop_manager")
		require.NoError(t, err)
		assert.NotContains(t, again.Capabilities, "hacked")
	})

	t.Run("RemoveCap", func(t *testing.T) {
		require.NoError(t, h.RemoveCap(ctx, "shop_manager", "manage_orders"))
		got, err := h.GetRole(ctx, "shop_manager")
		require.NoError(t, err)
		assert.NotContains(t, got.Capabilities, "manage_orders")
	})

	t.Run("RemoveAndMissing", func(t *testing.T) {
		require.NoError(t, h.RemoveRole(ctx, "shop_manager"))
		_, err := h.GetRole(ctx, "shop_manager")
		assert.True(t, IsNotFound(err))
		assert.ErrorIs(t, h.AddCap(ctx, "shop_manager", "x", true), ErrRoleNotFound)
	})

	t.Run("EmptyName", func(t *testing.T) {
		_, err := h.AddRole(ctx, "", "Nothing")
		assert.ErrorIs(t, err, ErrEmptyRoleName)
	})
}

func TestInMemoryHost_RoleNames(t *testing.T) {
	h := seedHost(t)

	names, err := RoleNames(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"administrator": "Administrator", "editor": "Editor"}, names)
}

func TestInMemoryHost_GetUserBy(t *testing.T) {
	ctx := context.Background()
	h := seedHost(t)

	tests := []struct {
		name   string
		field  Field
		value  string
		wantID int64
	}{
		{"ByEmail", FieldEmail, "eddie@example.com", 2},
		{"ByEmailCaseInsensitive", FieldEmail, "EDDIE@example.com", 2},
		{"ByLogin", FieldLogin, "zoe", 3},
		{"BySlug", FieldSlug, "admin", 1},
		{"ByID", FieldID, "3", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := h.GetUserBy(ctx, tt.field, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, u.ID)
		})
	}

	t.Run("NotFound", func(t *testing.T) {
		_, err := h.GetUserBy(ctx, FieldLogin, "nobody")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("EmptyValue", func(t *testing.T) {
		_, err := h.GetUserBy(ctx, FieldEmail, "")
		assert.True(t, IsNotFound(err))
	})
}

func TestInMemoryHost_QueryUsers(t *testing.T) {
	ctx := context.Background()
	h := seedHost(t)

	ids := func(users []User) []int64 {
		out := make([]int64, len(users))
		for i, u := range users {
			out[i] = u.ID
		}
		return out
	}

	tests := []struct {
		name string
		args QueryArgs
		want []int64
	}{
		{"All ordered by login", QueryArgs{}, []int64{1, 2, 3}},
		{"Include", QueryArgs{Include: []int64{3, 1}}, []int64{1, 3}},
		{"Exclude", QueryArgs{Exclude: []int64{2}}, []int64{1, 3}},
		{"Role requires all", QueryArgs{Role: []string{"editor", "subscriber"}}, []int64{3}},
		{"RoleIn", QueryArgs{RoleIn: []string{"administrator", "subscriber"}}, []int64{1, 3}},
		{"RoleNotIn", QueryArgs{RoleNotIn: []string{"editor"}}, []int64{1}},
		{"Search", QueryArgs{Search: "*eddie*"}, []int64{2}},
		{"Order desc by ID", QueryArgs{OrderBy: "ID", Order: "DESC"}, []int64{3, 2, 1}},
		{"Paging", QueryArgs{OrderBy: "ID", Number: 1, Offset: 1}, []int64{2}},
		{"Offset past end", QueryArgs{Offset: 10}, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, err := h.QueryUsers(ctx, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(users))
		})
	}
}

func TestInMemoryHost_CreateUser(t *testing.T) {
	ctx := context.Background()
	h := seedHost(t)

	u, err := h.CreateUser(ctx, CreateUserParams{
		Login:    "New User",
		Password: "s3cret",
		Email:    "new@example.com",
		Roles:    []string{"editor", "editor", "author"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), u.ID)
	assert.Equal(t, "new-user", u.Nicename)
	assert.Equal(t, "New User", u.DisplayName)
	assert.Equal(t, []string{"editor", "author"}, u.Roles)
	assert.NotEqual(t, "s3cret", u.Pass)

	ok, err := CheckPassword("s3cret", u.Pass)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = h.CreateUser(ctx, CreateUserParams{Login: "new user"})
	assert.ErrorIs(t, err, ErrLoginTaken)

	_, err = h.CreateUser(ctx, CreateUserParams{})
	assert.Error(t, err)
}

func TestInMemoryHost_MetaOptionsSites(t *testing.T) {
	ctx := context.Background()
	h := seedHost(t)

	require.NoError(t, h.AddMeta(ctx, 2, "favorite_color", "blue"))
	require.NoError(t, h.AddMeta(ctx, 2, "favorite_color", "green"))
	meta, err := h.GetMeta(ctx, 2, "favorite_color")
	require.NoError(t, err)
	assert.Equal(t, []string{"blue", "green"}, meta)

	meta, err = h.GetMeta(ctx, 2, "missing")
	require.NoError(t, err)
	assert.Empty(t, meta)

	require.NoError(t, h.SetOption(ctx, 2, "admin_color", "midnight"))
	opt, err := h.GetOption(ctx, 2, "admin_color")
	require.NoError(t, err)
	assert.Equal(t, "midnight", opt)

	h.SeedSite(Site{ID: 1, Domain: "example.com", Path: "/", Name: "Main"}, 2)
	h.SeedSite(Site{ID: 2, Domain: "example.com", Path: "/old/", Name: "Old", Archived: true}, 2)

	sites, err := h.BlogsOf(ctx, 2, false)
	require.NoError(t, err)
	require.Len(t, sites, 1)
	assert.Equal(t, "Main", sites[0].Name)

	sites, err = h.BlogsOf(ctx, 2, true)
	require.NoError(t, err)
	assert.Len(t, sites, 2)

	url, err := h.EditURL(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/wp-admin/user-edit.php?user_id=2", url)
}

func TestInMemoryHost_Caps(t *testing.T) {
	ctx := context.Background()
	h := seedHost(t)

	admin, err := h.GetUserByID(ctx, 1)
	require.NoError(t, err)
	editor, err := h.GetUserByID(ctx, 2)
	require.NoError(t, err)

	caps, err := h.AllCaps(ctx, editor)
	require.NoError(t, err)
	assert.True(t, caps["edit_posts"])
	assert.True(t, caps["editor"])
	assert.True(t, caps[CapExist])

	ok, err := h.HasCap(ctx, editor, "edit_posts")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.HasCap(ctx, editor, "edit_users")
	require.NoError(t, err)
	assert.False(t, ok)

	t.Run("MetaCapOnSelf", func(t *testing.T) {
		ok, err := h.HasCap(ctx, editor, "edit_user", editor.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = h.HasCap(ctx, editor, "edit_user", admin.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = h.HasCap(ctx, admin, "edit_user", editor.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("UserGrantOverridesRole", func(t *testing.T) {
		editor.Caps = map[string]bool{"edit_posts": false}
		ok, err := h.HasCap(ctx, editor, "edit_posts")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestInMemoryHost_CurrentUser(t *testing.T) {
	h := seedHost(t)

	anon, err := h.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.False(t, anon.Exists())

	u, err := h.CurrentUser(WithCurrentUser(context.Background(), 2))
	require.NoError(t, err)
	assert.Equal(t, "eddie", u.Login)

	ghost, err := h.CurrentUser(WithCurrentUser(context.Background(), 99))
	require.NoError(t, err)
	assert.False(t, ghost.Exists())
}

func TestInMemoryHost_SetUserRoles(t *testing.T) {
	ctx := context.Background()
	h := seedHost(t)

	require.NoError(t, h.SetUserRoles(ctx, 2, []string{"author", "editor", "author"}))
	u, err := h.GetUserByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"author", "editor"}, u.Roles)

	assert.ErrorIs(t, h.SetUserRoles(ctx, 42, nil), ErrUserNotFound)
}
