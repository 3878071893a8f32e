package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/jinzhu/copier"

	"github.com/tendant/simple-wpuser/pkg/errors"
	"github.com/tendant/simple-wpuser/pkg/host"
	"github.com/tendant/simple-wpuser/pkg/usermanager"
	"github.com/tendant/simple-wpuser/pkg/userquery"
)

// Handle serves user lookups over HTTP
type Handle struct {
	users *usermanager.Proxy
}

func NewHandle(users *usermanager.Proxy) *Handle {
	return &Handle{
		users: users,
	}
}

// Routes mounts the user endpoints on a fresh router
func (h *Handle) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/me", h.Me)
	r.Get("/{identifier}", h.Get)
	return r
}

// List handles GET /
func (h *Handle) List(w http.ResponseWriter, r *http.Request) {
	args, err := parseQueryArgs(r)
	if err != nil {
		renderError(w, r, err)
		return
	}

	users, err := h.users.Users(r.Context(), args)
	if err != nil {
		renderError(w, r, err)
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toResponse(r.Context(), u))
	}
	render.JSON(w, r, resp)
}

// Me handles GET /me
func (h *Handle) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.CurrentUser(r.Context())
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, toResponse(r.Context(), u))
}

// Get handles GET /{identifier}. The identifier is an id, an email or a login.
func (h *Handle) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.User(r.Context(), chi.URLParam(r, "identifier"))
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, toResponse(r.Context(), u))
}

func toResponse(ctx context.Context, u userquery.User) UserResponse {
	var resp UserResponse
	if err := copier.Copy(&resp, u.HostUser()); err != nil {
		slog.Warn("Failed to copy user", "id", u.ID(), "err", err)
	}
	resp.Roles = u.Roles()
	resp.EditURL = u.EditURL(ctx)
	return resp
}

// parseQueryArgs reads the list filters from the query string. List values
// are comma-separated.
func parseQueryArgs(r *http.Request) (host.QueryArgs, error) {
	q := r.URL.Query()
	args := host.QueryArgs{
		Role:      splitList(q.Get("role")),
		RoleIn:    splitList(q.Get("role_in")),
		RoleNotIn: splitList(q.Get("role_not_in")),
		Search:    q.Get("search"),
		OrderBy:   q.Get("orderby"),
		Order:     strings.ToUpper(q.Get("order")),
	}

	var err error
	if args.Include, err = parseIDs("include", q.Get("include")); err != nil {
		return args, err
	}
	if args.Exclude, err = parseIDs("exclude", q.Get("exclude")); err != nil {
		return args, err
	}
	if args.Number, err = parseInt("number", q.Get("number")); err != nil {
		return args, err
	}
	if args.Offset, err = parseInt("offset", q.Get("offset")); err != nil {
		return args, err
	}
	return args, nil
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseIDs(param, v string) ([]int64, error) {
	parts := splitList(v)
	if len(parts) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil || id <= 0 {
			return nil, errors.InvalidArgument("invalid id in " + param).WithDetail(param, p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseInt(param, v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.InvalidArgument("invalid " + param).WithDetail(param, v)
	}
	return n, nil
}

func renderError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errors.ToBody(err)
	if status >= http.StatusInternalServerError {
		slog.Error("User request failed", "path", r.URL.Path, "err", err)
	}
	render.Status(r, status)
	render.JSON(w, r, body)
}
