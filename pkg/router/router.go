package router

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	pkgconfig "github.com/tendant/simple-wpuser/pkg/config"
	"github.com/tendant/simple-wpuser/pkg/errors"
	"github.com/tendant/simple-wpuser/pkg/host"
	roleapi "github.com/tendant/simple-wpuser/pkg/role/api"
	usersapi "github.com/tendant/simple-wpuser/pkg/usermanager/api"
)

// DefaultSessionHeader carries the id of the session user
const DefaultSessionHeader = "X-User-ID"

// Config holds the handlers and prefixes needed to setup routes
type Config struct {
	// Prefix configuration for all routes
	PrefixConfig pkgconfig.PrefixConfig

	UserHandle *usersapi.Handle
	RoleHandle *roleapi.Handle

	// SessionHeader names the request header holding the session user id.
	// Empty means DefaultSessionHeader.
	SessionHeader string
}

// SetupRoutes mounts the user and role routes on the provided router
func SetupRoutes(router chi.Router, cfg Config) {
	prefixes := cfg.PrefixConfig.Resolve()

	router.Group(func(r chi.Router) {
		r.Use(SessionUser(cfg.SessionHeader))

		if cfg.UserHandle != nil {
			r.Mount(prefixes.Users, cfg.UserHandle.Routes())
		}
		if cfg.RoleHandle != nil {
			r.Mount(prefixes.Roles, cfg.RoleHandle.Routes())
		}
	})

	slog.Info("Routes mounted", "users", prefixes.Users, "roles", prefixes.Roles)
}

// SessionUser binds the user id found in header to the request context as
// the host session user. Requests without the header stay anonymous.
func SessionUser(header string) func(http.Handler) http.Handler {
	if header == "" {
		header = DefaultSessionHeader
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(header)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				status, body := errors.ToBody(errors.InvalidArgument("invalid session user id").WithDetail("header", header))
				render.Status(r, status)
				render.JSON(w, r, body)
				return
			}

			next.ServeHTTP(w, r.WithContext(host.WithCurrentUser(r.Context(), id)))
		})
	}
}
