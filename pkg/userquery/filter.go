package userquery

import (
	"golang.org/x/exp/slices"
)

// Any is the role filter sentinel matching every account
const Any = "any"

// RoleFilter restricts a Query to accounts holding at least one of its roles
type RoleFilter []string

// AnyRole matches every account
var AnyRole = RoleFilter{Any}

// Active reports whether the filter restricts anything. Empty filters and
// filters naming Any do not.
func (f RoleFilter) Active() bool {
	return len(f) > 0 && !slices.Contains(f, Any)
}

// Match reports whether u passes the filter. A nil user never does.
func (f RoleFilter) Match(u User) bool {
	if isNil(u) {
		return false
	}
	return !f.Active() || u.RoleIn(f)
}
