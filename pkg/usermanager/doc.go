// Package usermanager ties user lookups and role registration together.
//
//	m, err := usermanager.New(usermanager.WithHost(h))
//	if err != nil {
//		return err
//	}
//
//	// copy host roles into the registry once the host is up
//	err = h.DoAction(ctx, host.HookInit)
//
//	u := m.Get(ctx, "jane@example.com")
//	editors := m.Fetch(ctx, host.QueryArgs{Role: []string{"editor"}})
//	_, err = m.RegisterRole(ctx, "shop_manager", role.Options{Capabilities: []string{"read"}})
//
// The first Manager built in a process is returned by Instance. Components
// that do not receive a Manager directly use a Proxy, which also falls back to
// a container populated by ServiceProvider.
package usermanager
