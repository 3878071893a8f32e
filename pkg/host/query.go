package host

import (
	"sort"
	"strings"

	"golang.org/x/exp/slices"
)

// matchUser applies the filtering part of QueryArgs to one user
func matchUser(u User, args QueryArgs) bool {
	if len(args.Include) > 0 && !slices.Contains(args.Include, u.ID) {
		return false
	}
	if slices.Contains(args.Exclude, u.ID) {
		return false
	}
	for _, r := range args.Role {
		if !slices.Contains(u.Roles, r) {
			return false
		}
	}
	if len(args.RoleIn) > 0 && !anyRole(u.Roles, args.RoleIn) {
		return false
	}
	if len(args.RoleNotIn) > 0 && anyRole(u.Roles, args.RoleNotIn) {
		return false
	}
	if term := searchTerm(args.Search); term != "" {
		found := false
		for _, field := range []string{u.Login, u.Email, u.URL, u.Nicename, u.DisplayName} {
			if strings.Contains(strings.ToLower(field), term) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func anyRole(held, wanted []string) bool {
	for _, r := range wanted {
		if slices.Contains(held, r) {
			return true
		}
	}
	return false
}

// searchTerm strips the leading/trailing wildcards the host accepts in searches
func searchTerm(s string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(s), "*"))
}

// orderColumn maps an orderby value onto a sortable field. Unknown values sort by login.
func orderColumn(orderBy string) string {
	switch strings.ToLower(orderBy) {
	case "id":
		return "id"
	case "email", "user_email":
		return "user_email"
	case "registered", "user_registered":
		return "user_registered"
	case "display_name", "name":
		return "display_name"
	case "nicename", "user_nicename":
		return "user_nicename"
	case "url", "user_url":
		return "user_url"
	default:
		return "user_login"
	}
}

func descending(order string) bool {
	return strings.EqualFold(order, "DESC")
}

// filterUsers selects, orders and pages users the way the host's user query does
func filterUsers(all []User, args QueryArgs) []User {
	matched := make([]User, 0, len(all))
	for _, u := range all {
		if matchUser(u, args) {
			matched = append(matched, u)
		}
	}

	col := orderColumn(args.OrderBy)
	desc := descending(args.Order)
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		var less, equal bool
		switch col {
		case "id":
			less, equal = a.ID < b.ID, a.ID == b.ID
		case "user_email":
			less, equal = a.Email < b.Email, a.Email == b.Email
		case "user_registered":
			less, equal = a.Registered.Before(b.Registered), a.Registered.Equal(b.Registered)
		case "display_name":
			less, equal = a.DisplayName < b.DisplayName, a.DisplayName == b.DisplayName
		case "user_nicename":
			less, equal = a.Nicename < b.Nicename, a.Nicename == b.Nicename
		case "user_url":
			less, equal = a.URL < b.URL, a.URL == b.URL
		default:
			less, equal = a.Login < b.Login, a.Login == b.Login
		}
		if equal {
			return a.ID < b.ID
		}
		if desc {
			return !less
		}
		return less
	})

	if args.Offset > 0 {
		if args.Offset >= len(matched) {
			return []User{}
		}
		matched = matched[args.Offset:]
	}
	if args.Number > 0 && args.Number < len(matched) {
		matched = matched[:args.Number]
	}
	return matched
}
