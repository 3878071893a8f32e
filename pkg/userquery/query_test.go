package userquery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-wpuser/pkg/host"
)

type editorUser struct {
	*Record
}

type memberUser struct {
	*Record
}

func setupTestHost(t *testing.T) *host.InMemoryHost {
	t.Helper()
	h := host.NewInMemoryHost()
	h.SeedRole(host.RoleData{Name: "administrator", DisplayName: "Administrator", Capabilities: map[string]bool{"edit_users": true}})
	h.SeedRole(host.RoleData{Name: "editor", DisplayName: "Editor", Capabilities: map[string]bool{"edit_posts": true}})
	h.SeedUser(host.User{ID: 1, Login: "admin", Email: "admin@example.com", Roles: []string{"administrator"}})
	h.SeedUser(host.User{ID: 2, Login: "eddie", Email: "eddie@example.com", Roles: []string{"editor", "author"}})
	h.SeedUser(host.User{ID: 3, Login: "sam", Email: "sam@example.com", Roles: []string{"subscriber"}})
	h.SeedUser(host.User{ID: 4, Login: "nobody", Email: "nobody@example.com"})
	return h
}

func TestQuery_Build(t *testing.T) {
	h := setupTestHost(t)
	ctx := context.Background()

	var cfg Config
	cfg.SetConstructor("editor", func(r *Record) User { return &editorUser{r} })

	t.Run("ConstructorForPrimaryRole", func(t *testing.T) {
		q := New(h, cfg)
		u := q.Create(ctx, 2)
		require.NotNil(t, u)
		_, ok := u.(*editorUser)
		assert.True(t, ok)
	})

	t.Run("BaseRecordWithoutConstructor", func(t *testing.T) {
		q := New(h, cfg)
		u := q.Create(ctx, 1)
		require.NotNil(t, u)
		_, ok := u.(*Record)
		assert.True(t, ok)
	})

	t.Run("FallbackViaAny", func(t *testing.T) {
		withFallback := cfg
		withFallback.SetConstructor(Any, func(r *Record) User { return &memberUser{r} })
		q := New(h, withFallback)

		_, ok := q.Create(ctx, 3).(*memberUser)
		assert.True(t, ok, "subscriber has no constructor")
		_, ok = q.Create(ctx, 4).(*memberUser)
		assert.True(t, ok, "account without roles")
		_, ok = q.Create(ctx, 2).(*editorUser)
		assert.True(t, ok)
	})

	t.Run("NilConstructorResultFallsBackToRecord", func(t *testing.T) {
		var c Config
		c.SetConstructor("editor", func(r *Record) User { return nil })
		_, ok := New(h, c).Create(ctx, 2).(*Record)
		assert.True(t, ok)
	})

	t.Run("TypedNilConstructorResultFallsBackToRecord", func(t *testing.T) {
		var c Config
		c.SetConstructor("editor", func(r *Record) User { return (*editorUser)(nil) })
		u := New(h, c).Create(ctx, 2)
		require.NotNil(t, u)
		_, ok := u.(*Record)
		assert.True(t, ok)
		assert.Equal(t, int64(2), u.ID())
	})

	t.Run("NonExistentAccount", func(t *testing.T) {
		assert.Nil(t, New(h, cfg).Build(host.User{}))
	})
}

func TestQuery_Create_TypedNilUser(t *testing.T) {
	h := setupTestHost(t)
	ctx := context.Background()
	q := New(h, Config{Role: RoleFilter{"editor"}})

	var custom *editorUser
	assert.NotPanics(t, func() {
		assert.Nil(t, q.Create(ctx, custom))
	})
	assert.False(t, q.Is(custom))
	assert.False(t, RoleFilter{}.Match(custom))
}

func TestQuery_Create(t *testing.T) {
	h := setupTestHost(t)
	ctx := context.Background()
	q := New(h, Config{})

	t.Run("EmailAndLoginResolveSameAccount", func(t *testing.T) {
		byEmail := q.Create(ctx, "eddie@example.com")
		byLogin := q.Create(ctx, "eddie")
		require.NotNil(t, byEmail)
		require.NotNil(t, byLogin)
		assert.Equal(t, byEmail.ID(), byLogin.ID())
	})

	t.Run("RecordRoundTrip", func(t *testing.T) {
		first := q.Create(ctx, 2)
		require.NotNil(t, first)
		again := q.Create(ctx, first)
		require.NotNil(t, again)
		assert.Equal(t, first.ID(), again.ID())
	})

	t.Run("CustomTypeRoundTrip", func(t *testing.T) {
		var cfg Config
		cfg.SetConstructor("editor", func(r *Record) User { return &editorUser{r} })
		typed := New(h, cfg)

		first := typed.Create(ctx, 2)
		again := typed.Create(ctx, first)
		require.NotNil(t, again)
		assert.Equal(t, int64(2), again.ID())
	})

	tests := []struct {
		name       string
		identifier any
		wantID     int64
	}{
		{"Int", 3, 3},
		{"Int64", int64(3), 3},
		{"NumericString", "3", 3},
		{"JSONNumber", float64(3), 3},
		{"Login", "sam", 3},
		{"Email", "sam@example.com", 3},
		{"HostUser", host.User{ID: 3, Login: "sam", Roles: []string{"subscriber"}}, 3},
		{"HostUserPointer", &host.User{ID: 3, Login: "sam"}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := q.Create(ctx, tt.identifier)
			require.NotNil(t, u)
			assert.Equal(t, tt.wantID, u.ID())
		})
	}

	misses := []struct {
		name       string
		identifier any
	}{
		{"UnknownID", 99},
		{"ZeroID", 0},
		{"UnknownLogin", "ghost"},
		{"UnknownEmail", "ghost@example.com"},
		{"EmptyString", ""},
		{"NilHostUser", (*host.User)(nil)},
		{"NilRecord", (*Record)(nil)},
		{"Unsupported", struct{}{}},
		{"AnonymousSession", nil},
	}
	for _, tt := range misses {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, q.Create(ctx, tt.identifier))
		})
	}

	t.Run("SessionUser", func(t *testing.T) {
		u := q.Create(host.WithCurrentUser(ctx, 1), nil)
		require.NotNil(t, u)
		assert.Equal(t, "admin", u.Login())
	})
}

func TestQuery_RoleFilter(t *testing.T) {
	h := setupTestHost(t)
	ctx := context.Background()
	editors := New(h, Config{Role: RoleFilter{"editor"}})

	t.Run("FetchFromIDs", func(t *testing.T) {
		users := editors.FetchFromIDs(ctx, []int64{1, 2})
		require.Len(t, users, 1)
		assert.Equal(t, int64(2), users[0].ID())
	})

	t.Run("CreateRejectsMismatch", func(t *testing.T) {
		assert.Nil(t, editors.Create(ctx, "admin"))
		assert.Nil(t, editors.Create(host.WithCurrentUser(ctx, 1), nil))
		assert.NotNil(t, editors.Create(ctx, "eddie"))
	})

	t.Run("FetchFromQueryStillFilters", func(t *testing.T) {
		users := editors.Fetch(ctx, &host.QueryArgs{})
		require.Len(t, users, 1)
		assert.Equal(t, "eddie", users[0].Login())
	})

	t.Run("AnyMatchesEverything", func(t *testing.T) {
		all := editors.WithRole(AnyRole)
		assert.Len(t, all.FetchFromIDs(ctx, []int64{1, 2, 3}), 3)
		assert.NotNil(t, all.Create(ctx, "admin"))
	})

	t.Run("WithRoleLeavesOriginalAlone", func(t *testing.T) {
		_ = editors.WithRole(RoleFilter{"administrator"})
		assert.Equal(t, RoleFilter{"editor"}, editors.Config().Role)
	})

	t.Run("MultipleRolesMatchAny", func(t *testing.T) {
		staff := New(h, Config{Role: RoleFilter{"administrator", "editor"}})
		assert.Len(t, staff.Fetch(ctx, host.QueryArgs{}), 2)
	})
}

func TestQuery_Fetch(t *testing.T) {
	h := setupTestHost(t)
	ctx := context.Background()
	q := New(h, Config{DefaultArgs: host.QueryArgs{OrderBy: "ID", Order: "DESC"}})

	ids := func(users []User) []int64 {
		out := make([]int64, 0, len(users))
		for _, u := range users {
			out = append(out, u.ID())
		}
		return out
	}

	assert.Equal(t, []int64{4, 3, 2, 1}, ids(q.Fetch(ctx, host.QueryArgs{})))
	assert.Equal(t, []int64{1, 2, 3, 4}, ids(q.Fetch(ctx, host.QueryArgs{Order: "ASC"})))
	assert.Equal(t, []int64{3, 1}, ids(q.Fetch(ctx, []int64{1, 3})))
	assert.Equal(t, []int64{2, 1}, ids(q.Fetch(ctx, map[string]any{"role__in": []any{"administrator", "editor"}})))
	assert.Equal(t, []int64{2}, ids(q.Fetch(ctx, map[string]any{"role": "editor"})))
	assert.Equal(t, []int64{1, 2, 3, 4}, ids(q.Fetch(ctx, &host.QueryArgs{})), "prepared queries skip defaults")

	assert.Empty(t, q.Fetch(ctx, "not a query"))
	assert.NotNil(t, q.Fetch(ctx, nil))
	assert.Empty(t, q.Fetch(ctx, map[string]any{"number": "ten"}))
	assert.Empty(t, q.FetchFromIDs(ctx, nil))

	t.Run("FilterIntersectsCallerRoleIn", func(t *testing.T) {
		filtered := New(h, Config{Role: RoleFilter{"editor", "author"}})

		assert.Empty(t, filtered.Fetch(ctx, host.QueryArgs{RoleIn: []string{"administrator"}}))
		assert.Equal(t, []int64{2}, ids(filtered.Fetch(ctx, host.QueryArgs{RoleIn: []string{"author", "administrator"}})))
		assert.Equal(t, []int64{2}, ids(filtered.Fetch(ctx, host.QueryArgs{})))
	})
}

func TestQuery_ParseQueryArgs(t *testing.T) {
	h := setupTestHost(t)

	t.Run("NoFilter", func(t *testing.T) {
		q := New(h, Config{DefaultArgs: host.QueryArgs{Number: 20, RoleIn: []string{"editor"}}})
		args := q.ParseQueryArgs(host.QueryArgs{Search: "ed"})
		assert.Equal(t, []string{}, args.RoleIn, "explicit empty list beats the default")
		assert.Equal(t, 20, args.Number)
		assert.Equal(t, "ed", args.Search)
	})

	t.Run("ActiveFilter", func(t *testing.T) {
		q := New(h, Config{Role: RoleFilter{"editor"}})
		args := q.ParseQueryArgs(host.QueryArgs{Number: 5})
		assert.Equal(t, []string{"editor"}, args.RoleIn)
		assert.Equal(t, 5, args.Number)
	})

	t.Run("ActiveFilterKeepsCallerRoleIn", func(t *testing.T) {
		q := New(h, Config{Role: RoleFilter{"editor"}})
		args := q.ParseQueryArgs(host.QueryArgs{RoleIn: []string{"administrator"}})
		assert.Equal(t, []string{"administrator"}, args.RoleIn)
	})

	t.Run("AnyFilterIsInactive", func(t *testing.T) {
		q := New(h, Config{Role: AnyRole})
		args := q.ParseQueryArgs(host.QueryArgs{})
		assert.Nil(t, args.Role)
		assert.Equal(t, []string{}, args.RoleIn)
	})
}

func TestArgsFromMap(t *testing.T) {
	args, err := ArgsFromMap(map[string]any{
		"include":  []any{1, 2},
		"exclude":  3,
		"role":     "editor",
		"search":   "*ed*",
		"number":   10,
		"orderby":  "email",
		"order":    "DESC",
		"unknown":  true,
		"role__in": []string{"a", "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, host.QueryArgs{
		Include: []int64{1, 2},
		Exclude: []int64{3},
		Role:    []string{"editor"},
		RoleIn:  []string{"a", "b"},
		Search:  "*ed*",
		Number:  10,
		OrderBy: "email",
		Order:   "DESC",
	}, args)

	_, err = ArgsFromMap(map[string]any{"include": []any{"x"}})
	assert.Error(t, err)
}
