// Package userquery turns host accounts into typed users.
//
// A Query resolves identifiers (ids, emails, logins, host accounts, other
// users or the session) and runs user queries. Every result passes through
// Build, which picks a constructor by the account's primary role:
//
//	type Editor struct{ *userquery.Record }
//
//	var cfg userquery.Config
//	cfg.SetConstructor("editor", func(r *userquery.Record) userquery.User { return &Editor{r} })
//	cfg.SetConstructor(userquery.Any, func(r *userquery.Record) userquery.User { return &Member{r} })
//
//	q := userquery.New(h, cfg)
//	u := q.Create(ctx, "jane@example.com") // *Editor when jane's first role is editor
//
// Lookups never fail loudly: unknown accounts, host errors and accounts
// outside the role filter all come back as nil (or are left out of fetch
// results) and are logged.
//
// A role filter restricts one Query value. Use WithRole for a restricted copy:
//
//	editors := q.WithRole(userquery.RoleFilter{"editor"})
//	users := editors.FetchFromIDs(ctx, []int64{1, 2, 3})
package userquery
