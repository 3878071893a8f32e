package host

import (
	"context"
	"errors"
	"sort"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrRoleNotFound  = errors.New("role not found")
	ErrRoleExists    = errors.New("role already exists")
	ErrLoginTaken    = errors.New("login already in use")
	ErrEmptyRoleName = errors.New("role name cannot be empty")
)

// IsNotFound reports whether err means the requested user, role or site is absent
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrRoleNotFound)
}

// RoleStore is the host's global role/capability table
type RoleStore interface {
	GetRole(ctx context.Context, name string) (RoleData, error)
	AddRole(ctx context.Context, name, displayName string) (RoleData, error)
	RemoveRole(ctx context.Context, name string) error
	AddCap(ctx context.Context, role, capability string, grant bool) error
	RemoveCap(ctx context.Context, role, capability string) error
	Roles(ctx context.Context) ([]RoleData, error)
}

// UserStore gives read access to host accounts and the data hanging off them
type UserStore interface {
	GetUserByID(ctx context.Context, id int64) (User, error)
	GetUserBy(ctx context.Context, field Field, value string) (User, error)
	QueryUsers(ctx context.Context, args QueryArgs) ([]User, error)
	GetMeta(ctx context.Context, userID int64, key string) ([]string, error)
	GetOption(ctx context.Context, userID int64, name string) (string, error)
	BlogsOf(ctx context.Context, userID int64, all bool) ([]Site, error)
	EditURL(ctx context.Context, userID int64) (string, error)
	AllCaps(ctx context.Context, user User) (map[string]bool, error)
	HasCap(ctx context.Context, user User, capability string, args ...any) (bool, error)
}

// UserWriter creates and updates host accounts
type UserWriter interface {
	CreateUser(ctx context.Context, params CreateUserParams) (User, error)
	SetUserRoles(ctx context.Context, userID int64, roles []string) error
	AddMeta(ctx context.Context, userID int64, key, value string) error
	SetOption(ctx context.Context, userID int64, name, value string) error
}

// Session resolves the account bound to the current request
type Session interface {
	CurrentUser(ctx context.Context) (User, error)
}

// Host aggregates everything the user and role layers need from the host framework
type Host interface {
	RoleStore
	UserStore
	UserWriter
	Session
	Lifecycle
}

// RoleNames returns the display name of every role in the store keyed by role name
func RoleNames(ctx context.Context, store RoleStore) (map[string]string, error) {
	roles, err := store.Roles(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(roles))
	for _, r := range roles {
		names[r.Name] = r.DisplayName
	}
	return names, nil
}

func sortRoles(roles []RoleData) {
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
}
