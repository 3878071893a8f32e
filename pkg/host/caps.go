package host

import (
	"fmt"
	"strconv"
)

// CapExist is granted to every stored account
const CapExist = "exist"

// ResolveCaps computes the effective capability map of a user: the grants of
// every held role, the role names themselves, then the user's own grants on top.
func ResolveCaps(user User, roles map[string]RoleData) map[string]bool {
	all := make(map[string]bool)
	for _, name := range user.Roles {
		role, ok := roles[name]
		if !ok {
			continue
		}
		for c, granted := range role.Capabilities {
			all[c] = granted
		}
	}
	for _, name := range user.Roles {
		all[name] = true
	}
	for c, granted := range user.Caps {
		all[c] = granted
	}
	if user.Exists() {
		all[CapExist] = true
	}
	return all
}

// MapMetaCap translates a meta capability checked against an object into the
// primitive capabilities required for it.
func MapMetaCap(user User, capability string, args ...any) []string {
	switch capability {
	case "edit_user", "edit_users":
		if target, ok := targetID(args); ok && target == user.ID && user.Exists() {
			return []string{"read"}
		}
		return []string{"edit_users"}
	case "delete_user":
		return []string{"delete_users"}
	case "remove_user":
		return []string{"remove_users"}
	case "promote_user":
		return []string{"promote_users"}
	}
	return []string{capability}
}

func hasCap(all map[string]bool, user User, capability string, args ...any) bool {
	for _, c := range MapMetaCap(user, capability, args...) {
		if !all[c] {
			return false
		}
	}
	return true
}

func targetID(args []any) (int64, bool) {
	if len(args) == 0 {
		return 0, false
	}
	switch v := args[0].(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		return id, err == nil
	case fmt.Stringer:
		id, err := strconv.ParseInt(v.String(), 10, 64)
		return id, err == nil
	}
	return 0, false
}
