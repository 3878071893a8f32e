// Package errors provides structured error handling with error codes for simple-wpuser.
//
// The user and role layers report three families of failure:
//
//   - not-found: absent users and roles (ErrCodeNotFound, ErrCodeUserNotFound,
//     ErrCodeRoleNotFound). Factory lookups usually degrade to nil instead of
//     returning these; they surface from the HTTP API and the container.
//   - invalid argument: malformed role declarations (ErrCodeInvalidRole,
//     ErrCodeInvalidCapability) and explicitly requested users that cannot be
//     resolved (ErrCodeUserUnavailable).
//   - unavailable: the process-wide manager was requested before any
//     instance was constructed (ErrCodeUnavailable).
//
// # Basic Usage
//
//	import "github.com/tendant/simple-wpuser/pkg/errors"
//
//	err := errors.Newf(errors.ErrCodeInvalidRole, "Invalid display name declaration for role [%s]", name)
//
//	if errors.IsCode(err, errors.ErrCodeInvalidRole) {
//		// ...
//	}
//
//	status, body := errors.ToBody(err) // HTTP status and JSON error body
package errors
