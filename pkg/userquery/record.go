package userquery

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jinzhu/copier"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/tendant/simple-wpuser/pkg/host"
)

// User is the typed view of one host account. *Record implements it; per-role
// types embed *Record and add their own methods.
type User interface {
	ID() int64
	Login() string
	Pass() string
	Nicename() string
	Email() string
	URL() string
	Registered() time.Time
	ActivationKey() string
	Status() int
	DisplayName() string
	FirstName() string
	LastName() string
	Nickname() string
	Description() string
	Roles() []string
	HostUser() host.User

	HasRole(role string) bool
	RoleIn(roles []string) bool
	Can(ctx context.Context, capability string, args ...any) bool
	Capabilities(ctx context.Context) map[string]bool
	Meta(ctx context.Context, key string, single bool, def any) any
	MetaSingle(ctx context.Context, key string, def string) string
	MetaMulti(ctx context.Context, key string, def []string) []string
	Option(ctx context.Context, name string, def string) string
	Blogs(ctx context.Context, all bool) []host.Site
	EditURL(ctx context.Context) string
	IsLoggedIn(ctx context.Context) bool
	CheckPassword(plain string) bool
}

// Backend is what a Record and a Query need from the host
type Backend interface {
	host.UserStore
	host.Session
}

// Record wraps a snapshot of one host account. The field bag is copied when
// the record is built; later host changes need a new record.
type Record struct {
	data    host.User
	backend Backend

	blogsMu sync.Mutex
	blogs   map[bool][]host.Site
}

// NewRecord snapshots u
func NewRecord(u host.User, backend Backend) *Record {
	r := &Record{backend: backend}
	if err := copier.Copy(&r.data, &u); err != nil {
		slog.Warn("Failed to copy user fields", "user_id", u.ID, "err", err)
		r.data = u
	}
	r.data.Roles = slices.Clone(u.Roles)
	if r.data.Roles == nil {
		r.data.Roles = []string{}
	}
	r.data.Caps = maps.Clone(u.Caps)
	return r
}

func (r *Record) ID() int64             { return r.data.ID }
func (r *Record) Login() string         { return r.data.Login }
func (r *Record) Pass() string          { return r.data.Pass }
func (r *Record) Nicename() string      { return r.data.Nicename }
func (r *Record) Email() string         { return r.data.Email }
func (r *Record) URL() string           { return r.data.URL }
func (r *Record) Registered() time.Time { return r.data.Registered }
func (r *Record) ActivationKey() string { return r.data.ActivationKey }
func (r *Record) Status() int           { return r.data.Status }
func (r *Record) DisplayName() string   { return r.data.DisplayName }
func (r *Record) FirstName() string     { return r.data.FirstName }
func (r *Record) LastName() string      { return r.data.LastName }
func (r *Record) Nickname() string      { return r.data.Nickname }
func (r *Record) Description() string   { return r.data.Description }

// Roles returns the account roles, primary role first
func (r *Record) Roles() []string {
	return slices.Clone(r.data.Roles)
}

// HostUser returns a copy of the underlying host account
func (r *Record) HostUser() host.User {
	u := r.data
	u.Roles = slices.Clone(r.data.Roles)
	u.Caps = maps.Clone(r.data.Caps)
	return u
}

// HasRole reports whether the account holds role
func (r *Record) HasRole(role string) bool {
	return r.RoleIn([]string{role})
}

// RoleIn reports whether the account holds at least one of roles
func (r *Record) RoleIn(roles []string) bool {
	for _, role := range roles {
		if slices.Contains(r.data.Roles, role) {
			return true
		}
	}
	return false
}

// Can checks a capability through the host. Host failures read as false.
func (r *Record) Can(ctx context.Context, capability string, args ...any) bool {
	ok, err := r.backend.HasCap(ctx, r.data, capability, args...)
	if err != nil {
		slog.Warn("Capability check failed", "user_id", r.ID(), "capability", capability, "err", err)
		return false
	}
	return ok
}

// Capabilities returns the effective capability map
func (r *Record) Capabilities(ctx context.Context) map[string]bool {
	caps, err := r.backend.AllCaps(ctx, r.data)
	if err != nil {
		slog.Warn("Failed to load capabilities", "user_id", r.ID(), "err", err)
		return map[string]bool{}
	}
	return caps
}

// Meta returns the first value under key when single is set, otherwise all of
// them. Missing or empty values yield def.
func (r *Record) Meta(ctx context.Context, key string, single bool, def any) any {
	values, err := r.backend.GetMeta(ctx, r.ID(), key)
	if err != nil {
		slog.Warn("Failed to load user meta", "user_id", r.ID(), "key", key, "err", err)
		return def
	}
	if single {
		if len(values) == 0 || values[0] == "" {
			return def
		}
		return values[0]
	}
	if len(values) == 0 {
		return def
	}
	return values
}

// MetaSingle returns the first value under key, or def
func (r *Record) MetaSingle(ctx context.Context, key string, def string) string {
	if v, ok := r.Meta(ctx, key, true, nil).(string); ok {
		return v
	}
	return def
}

// MetaMulti returns every value under key, or def
func (r *Record) MetaMulti(ctx context.Context, key string, def []string) []string {
	if v, ok := r.Meta(ctx, key, false, nil).([]string); ok {
		return v
	}
	return def
}

// Option returns a per-user option, or def when unset or empty
func (r *Record) Option(ctx context.Context, name string, def string) string {
	v, err := r.backend.GetOption(ctx, r.ID(), name)
	if err != nil {
		slog.Warn("Failed to load user option", "user_id", r.ID(), "option", name, "err", err)
		return def
	}
	if v == "" {
		return def
	}
	return v
}

// Blogs returns the sites the account belongs to. Results are loaded once per
// value of all and kept for the life of the record.
func (r *Record) Blogs(ctx context.Context, all bool) []host.Site {
	r.blogsMu.Lock()
	defer r.blogsMu.Unlock()

	if sites, ok := r.blogs[all]; ok {
		return slices.Clone(sites)
	}
	sites, err := r.backend.BlogsOf(ctx, r.ID(), all)
	if err != nil {
		slog.Warn("Failed to load user sites", "user_id", r.ID(), "err", err)
		return []host.Site{}
	}
	if sites == nil {
		sites = []host.Site{}
	}
	if r.blogs == nil {
		r.blogs = make(map[bool][]host.Site)
	}
	r.blogs[all] = sites
	return slices.Clone(sites)
}

// EditURL returns the admin link for this account, empty on failure
func (r *Record) EditURL(ctx context.Context) string {
	url, err := r.backend.EditURL(ctx, r.ID())
	if err != nil {
		slog.Warn("Failed to build edit link", "user_id", r.ID(), "err", err)
		return ""
	}
	return url
}

// IsLoggedIn reports whether this account is the session user of ctx
func (r *Record) IsLoggedIn(ctx context.Context) bool {
	current, err := r.backend.CurrentUser(ctx)
	if err != nil {
		slog.Warn("Failed to resolve session user", "err", err)
		return false
	}
	return current.Exists() && current.ID == r.ID()
}

// CheckPassword compares plain against the stored hash
func (r *Record) CheckPassword(plain string) bool {
	ok, err := host.CheckPassword(plain, r.data.Pass)
	if err != nil {
		slog.Debug("Password check failed", "user_id", r.ID(), "err", err)
		return false
	}
	return ok
}
