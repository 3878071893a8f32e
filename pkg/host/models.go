package host

import (
	"time"
)

// User is the host's raw record for one account
type User struct {
	ID            int64           `json:"id"`
	Login         string          `json:"user_login"`
	Pass          string          `json:"user_pass"`
	Nicename      string          `json:"user_nicename"`
	Email         string          `json:"user_email"`
	URL           string          `json:"user_url"`
	Registered    time.Time       `json:"user_registered"`
	ActivationKey string          `json:"user_activation_key"`
	Status        int             `json:"user_status"`
	DisplayName   string          `json:"display_name"`
	FirstName     string          `json:"first_name,omitempty"`
	LastName      string          `json:"last_name,omitempty"`
	Nickname      string          `json:"nickname,omitempty"`
	Description   string          `json:"description,omitempty"`
	Roles         []string        `json:"roles"`
	Caps          map[string]bool `json:"caps,omitempty"`
}

// Exists reports whether the record refers to a stored account.
// The anonymous session user is the zero User.
func (u User) Exists() bool {
	return u.ID != 0
}

// RoleData is a role as held in the host's role table
type RoleData struct {
	Name         string          `json:"name"`
	DisplayName  string          `json:"display_name"`
	Capabilities map[string]bool `json:"capabilities"`
}

// Site is one site of a multi-site host
type Site struct {
	ID       int64  `json:"id"`
	Domain   string `json:"domain"`
	Path     string `json:"path"`
	Name     string `json:"name"`
	Archived bool   `json:"archived,omitempty"`
	Deleted  bool   `json:"deleted,omitempty"`
	Spam     bool   `json:"spam,omitempty"`
}

// Active reports whether the site is neither archived, deleted nor flagged as spam
func (s Site) Active() bool {
	return !s.Archived && !s.Deleted && !s.Spam
}

// Field names accepted by UserStore.GetUserBy
type Field string

const (
	FieldID    Field = "id"
	FieldEmail Field = "email"
	FieldLogin Field = "login"
	FieldSlug  Field = "slug"
)

// QueryArgs filters a user query. Zero values mean "no restriction".
type QueryArgs struct {
	Include   []int64  `json:"include,omitempty"`
	Exclude   []int64  `json:"exclude,omitempty"`
	Role      []string `json:"role,omitempty"`
	RoleIn    []string `json:"role__in,omitempty"`
	RoleNotIn []string `json:"role__not_in,omitempty"`
	Search    string   `json:"search,omitempty"`
	Number    int      `json:"number,omitempty"`
	Offset    int      `json:"offset,omitempty"`
	OrderBy   string   `json:"orderby,omitempty"`
	Order     string   `json:"order,omitempty"`
}

// CreateUserParams contains parameters for creating a new user
type CreateUserParams struct {
	Login       string
	Password    string
	Email       string
	URL         string
	DisplayName string
	FirstName   string
	LastName    string
	Nickname    string
	Description string
	Roles       []string
}
