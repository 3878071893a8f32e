package userquery

import (
	"encoding/json"
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/tendant/simple-wpuser/pkg/host"
)

// listKeys accept a single value where a list is expected
var listKeys = []string{"include", "exclude", "role", "role__in", "role__not_in"}

// ArgsFromMap converts a loosely typed argument mapping (keys as in the host
// user query: include, role__in, orderby, ...) into QueryArgs.
func ArgsFromMap(m map[string]any) (host.QueryArgs, error) {
	normalized := make(map[string]any, len(m))
	for k, v := range m {
		if slices.Contains(listKeys, k) {
			switch v.(type) {
			case string, int, int64, float64:
				v = []any{v}
			}
		}
		normalized[k] = v
	}

	raw, err := json.Marshal(normalized)
	if err != nil {
		return host.QueryArgs{}, fmt.Errorf("invalid query arguments: %w", err)
	}
	var args host.QueryArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return host.QueryArgs{}, fmt.Errorf("invalid query arguments: %w", err)
	}
	return args, nil
}

// mergeArgs fills every unset field of args from defaults. Slices count as set
// when non-nil, so an explicit empty list overrides a default.
func mergeArgs(defaults, args host.QueryArgs) host.QueryArgs {
	if args.Include == nil {
		args.Include = slices.Clone(defaults.Include)
	}
	if args.Exclude == nil {
		args.Exclude = slices.Clone(defaults.Exclude)
	}
	if args.Role == nil {
		args.Role = slices.Clone(defaults.Role)
	}
	if args.RoleIn == nil {
		args.RoleIn = slices.Clone(defaults.RoleIn)
	}
	if args.RoleNotIn == nil {
		args.RoleNotIn = slices.Clone(defaults.RoleNotIn)
	}
	if args.Search == "" {
		args.Search = defaults.Search
	}
	if args.Number == 0 {
		args.Number = defaults.Number
	}
	if args.Offset == 0 {
		args.Offset = defaults.Offset
	}
	if args.OrderBy == "" {
		args.OrderBy = defaults.OrderBy
	}
	if args.Order == "" {
		args.Order = defaults.Order
	}
	return args
}
