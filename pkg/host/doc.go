// Package host is the boundary to the host content-management system: its
// user accounts, its global role/capability table, the session user and its
// lifecycle hooks.
//
// Nothing above this package touches host state directly. Role and user
// components receive a RoleStore, UserStore or the aggregate Host, so tests
// can substitute an InMemoryHost for a real backend.
//
// # Backends
//
//	h := host.NewInMemoryHost()                  // tests, demos
//	h, err := host.NewFileHost("./data")         // JSON document + file lock
//	h := host.NewPostgresHost(pool, adminURL)    // migrations/host_db.sql
//
//	// or by name, from configuration
//	h, err := host.NewHost(cfg.Persistence, host.RepositoryConfig{DataDir: cfg.DataDir})
//
// # Capabilities
//
// A user's effective capabilities are the grants of every role it holds, plus
// the role names, plus its own grants. HasCap maps a few meta capabilities
// (edit_user, delete_user, promote_user, remove_user) onto primitive ones
// before checking.
//
// # Lifecycle
//
//	h.AddAction(host.HookInit, 10, func(ctx context.Context) error { ... })
//	err := h.DoAction(ctx, host.HookInit)
package host
