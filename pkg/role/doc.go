// Package role mirrors named capability sets into the host role table.
//
// A Role is a declarative descriptor: building one reconciles the host toward
// it. Missing host roles are created and missing capabilities granted.
// Capabilities the role no longer declares are never revoked.
//
// # Basic Usage
//
//	roles := role.NewManager(h) // h is any host.RoleStore
//
//	editor, err := roles.Register(ctx, "shop_manager", role.Options{
//		DisplayName:  "Shop Manager",
//		Capabilities: []string{"read", "manage_orders"},
//	})
//
//	// raw definitions, e.g. decoded from JSON
//	_, err = roles.Register(ctx, "auditor", map[string]any{
//		"capabilities": []any{"read", "view_reports"},
//	})
//
//	r := roles.Get("shop_manager") // nil when unknown
//
// # Definition files
//
//	defs, err := role.LoadDefinitions("config/roles.yaml")
//	registered, err := roles.RegisterDefinitions(ctx, defs)
//
// # Display name changes
//
// When the host already holds the role under another display name, the host
// role is removed and recreated. Host capabilities the role does not declare
// are lost in the process and reported with a warning log.
package role
