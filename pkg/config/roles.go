package config

import "strings"

// ParseRoleFilter parses a comma-separated list of role names.
// Empty input means no filter; "any" is kept as the match-everything sentinel.
func ParseRoleFilter(envValue string) []string {
	if strings.TrimSpace(envValue) == "" {
		return nil
	}

	parts := strings.Split(envValue, ",")
	roles := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			roles = append(roles, trimmed)
		}
	}

	if len(roles) == 0 {
		return nil
	}
	return roles
}
