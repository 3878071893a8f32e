package userquery

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/exp/slices"

	"github.com/tendant/simple-wpuser/pkg/host"
)

var validate = validator.New()

// IsEmail reports whether s is shaped like an email address
func IsEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}

// Query resolves host accounts into typed users. It holds no mutable shared
// state: per-role restrictions are separate Query values made with WithRole.
type Query struct {
	backend Backend
	config  Config
}

// New creates a Query over backend
func New(backend Backend, config Config) *Query {
	return &Query{
		backend: backend,
		config:  config.clone(),
	}
}

// Config returns a copy of the query configuration
func (q *Query) Config() Config {
	return q.config.clone()
}

// WithRole returns a copy of q restricted to filter
func (q *Query) WithRole(filter RoleFilter) *Query {
	config := q.config.clone()
	config.Role = slices.Clone(filter)
	return &Query{backend: q.backend, config: config}
}

// Build wraps a host account, picking the constructor registered for its
// primary role, then the fallback, then a plain *Record. Accounts that do not
// exist yield nil.
func (q *Query) Build(u host.User) User {
	if !u.Exists() {
		return nil
	}
	base := NewRecord(u, q.backend)

	var ctor Constructor
	if len(u.Roles) > 0 {
		ctor = q.config.constructorFor(u.Roles[0])
	} else {
		ctor = q.config.Fallback
	}
	if ctor == nil {
		return base
	}
	if built := ctor(base); !isNil(built) {
		return built
	}
	return base
}

// isNil reports whether u is nil or a nil pointer held in the interface
func isNil(u User) bool {
	if u == nil {
		return true
	}
	v := reflect.ValueOf(u)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// Is reports whether u passes the role filter
func (q *Query) Is(u User) bool {
	return q.config.Role.Match(u)
}

// Create resolves identifier into a user:
//
//	nil                          session user
//	integer or numeric string    by id
//	email-shaped string          by email
//	other string                 by login
//	host.User, *host.User        wrapped as is
//	User                         re-resolved by its id
//
// Anything unresolvable yields nil.
func (q *Query) Create(ctx context.Context, identifier any) User {
	switch v := identifier.(type) {
	case nil:
		return q.CreateFromGlobal(ctx)
	case int:
		return q.CreateFromID(ctx, int64(v))
	case int32:
		return q.CreateFromID(ctx, int64(v))
	case int64:
		return q.CreateFromID(ctx, v)
	case uint:
		return q.CreateFromID(ctx, int64(v))
	case uint32:
		return q.CreateFromID(ctx, int64(v))
	case uint64:
		return q.CreateFromID(ctx, int64(v))
	case float64:
		return q.CreateFromID(ctx, int64(v))
	case string:
		s := strings.TrimSpace(v)
		if id, err := strconv.ParseInt(s, 10, 64); err == nil {
			return q.CreateFromID(ctx, id)
		}
		if IsEmail(s) {
			return q.CreateFromEmail(ctx, s)
		}
		return q.CreateFromLogin(ctx, s)
	case host.User:
		return q.Build(v)
	case *host.User:
		if v == nil {
			return nil
		}
		return q.Build(*v)
	case *Record:
		if v == nil {
			return nil
		}
		return q.CreateFromID(ctx, v.ID())
	case User:
		if isNil(v) {
			return nil
		}
		return q.CreateFromID(ctx, v.ID())
	}
	slog.Debug("Unsupported user identifier", "type", fmt.Sprintf("%T", identifier))
	return nil
}

// CreateFromGlobal resolves the session user of ctx
func (q *Query) CreateFromGlobal(ctx context.Context) User {
	u, err := q.backend.CurrentUser(ctx)
	if err != nil {
		slog.Warn("Failed to resolve session user", "err", err)
		return nil
	}
	return q.validated(q.Build(u))
}

// CreateFromID resolves an account by id
func (q *Query) CreateFromID(ctx context.Context, id int64) User {
	if id <= 0 {
		return nil
	}
	u, err := q.backend.GetUserByID(ctx, id)
	if err != nil {
		logLookup(err, "id", id)
		return nil
	}
	return q.validated(q.Build(u))
}

// CreateFromEmail resolves an account by email
func (q *Query) CreateFromEmail(ctx context.Context, email string) User {
	return q.createBy(ctx, host.FieldEmail, email)
}

// CreateFromLogin resolves an account by login
func (q *Query) CreateFromLogin(ctx context.Context, login string) User {
	return q.createBy(ctx, host.FieldLogin, login)
}

func (q *Query) createBy(ctx context.Context, field host.Field, value string) User {
	if value == "" {
		return nil
	}
	u, err := q.backend.GetUserBy(ctx, field, value)
	if err != nil {
		logLookup(err, string(field), value)
		return nil
	}
	return q.CreateFromID(ctx, u.ID)
}

func (q *Query) validated(u User) User {
	if isNil(u) || !q.Is(u) {
		return nil
	}
	return u
}

// Fetch runs a user query. query may be:
//
//	host.QueryArgs         parsed with ParseQueryArgs, then run
//	map[string]any         converted with ArgsFromMap, then as above
//	[]int64                ids, as FetchFromIDs
//	*host.QueryArgs        a prepared query, run as is
//
// Other values give an empty result.
func (q *Query) Fetch(ctx context.Context, query any) []User {
	switch v := query.(type) {
	case host.QueryArgs:
		return q.FetchFromArgs(ctx, v)
	case map[string]any:
		args, err := ArgsFromMap(v)
		if err != nil {
			slog.Warn("Ignoring user query", "err", err)
			return []User{}
		}
		return q.FetchFromArgs(ctx, args)
	case []int64:
		return q.FetchFromIDs(ctx, v)
	case *host.QueryArgs:
		if v == nil {
			return []User{}
		}
		return q.FetchFromQuery(ctx, *v)
	}
	return []User{}
}

// FetchFromArgs runs args after applying the role filter and defaults
func (q *Query) FetchFromArgs(ctx context.Context, args host.QueryArgs) []User {
	return q.FetchFromQuery(ctx, q.ParseQueryArgs(args))
}

// FetchFromIDs returns the users among ids that pass the role filter
func (q *Query) FetchFromIDs(ctx context.Context, ids []int64) []User {
	if len(ids) == 0 {
		return []User{}
	}
	return q.FetchFromArgs(ctx, host.QueryArgs{Include: slices.Clone(ids)})
}

// FetchFromQuery runs args unchanged and re-resolves each row by id. Rows
// that fail to resolve or miss the role filter are skipped.
func (q *Query) FetchFromQuery(ctx context.Context, args host.QueryArgs) []User {
	rows, err := q.backend.QueryUsers(ctx, args)
	if err != nil {
		slog.Warn("User query failed", "err", err)
		return []User{}
	}

	users := make([]User, 0, len(rows))
	for _, row := range rows {
		if u := q.CreateFromID(ctx, row.ID); u != nil {
			users = append(users, u)
		}
	}
	return users
}

// ParseQueryArgs applies the role filter and defaults to args. An active
// filter fills an unset RoleIn; a caller RoleIn is kept and the filter is
// enforced per row when FetchFromQuery re-resolves it. Without a filter an
// unset RoleIn becomes an explicit empty list.
func (q *Query) ParseQueryArgs(args host.QueryArgs) host.QueryArgs {
	switch {
	case len(args.RoleIn) > 0:
	case q.config.Role.Active():
		args.RoleIn = slices.Clone([]string(q.config.Role))
	case args.RoleIn == nil:
		args.RoleIn = []string{}
	}
	return mergeArgs(q.config.DefaultArgs, args)
}

func logLookup(err error, field string, value any) {
	if host.IsNotFound(err) {
		slog.Debug("User not found", "field", field, "value", value)
		return
	}
	slog.Warn("User lookup failed", "field", field, "value", value, "err", err)
}
