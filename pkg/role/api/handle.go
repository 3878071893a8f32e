package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/tendant/simple-wpuser/pkg/errors"
	rolepkg "github.com/tendant/simple-wpuser/pkg/role"
)

var validate = validator.New()

// Handle serves the role registry over HTTP
type Handle struct {
	roles *rolepkg.Manager
}

func NewHandle(roles *rolepkg.Manager) *Handle {
	return &Handle{
		roles: roles,
	}
}

// Routes mounts the role endpoints on a fresh router
func (h *Handle) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Register)
	r.Get("/{name}", h.Get)
	return r
}

// List handles GET /
func (h *Handle) List(w http.ResponseWriter, r *http.Request) {
	names := h.roles.Names()
	resp := make([]RoleResponse, 0, len(names))
	for _, name := range names {
		if role := h.roles.Get(name); role != nil {
			resp = append(resp, toResponse(role))
		}
	}
	render.JSON(w, r, resp)
}

// Get handles GET /{name}
func (h *Handle) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	role := h.roles.Get(name)
	if role == nil {
		renderError(w, r, errors.Newf(errors.ErrCodeRoleNotFound, "role not found: %s", name).WithDetail("role", name))
		return
	}
	render.JSON(w, r, toResponse(role))
}

// Register handles POST /. The body is passed to the registry as a raw
// definition so malformed capabilities are reported per role.
func (h *Handle) Register(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		slog.Debug("Failed to decode role request", "err", err)
		renderError(w, r, errors.InvalidArgument("invalid request body"))
		return
	}
	name, _ := data["name"].(string)
	if err := validate.Var(name, "required"); err != nil {
		renderError(w, r, errors.Wrap(err, errors.ErrCodeInvalidRole, "role name is required"))
		return
	}
	delete(data, "name")

	role, err := h.roles.Register(r.Context(), name, data)
	if err != nil {
		renderError(w, r, err)
		return
	}

	slog.Info("Role registered", "role", role.Name(), "capabilities", len(role.Capabilities()))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toResponse(role))
}

func toResponse(role *rolepkg.Role) RoleResponse {
	caps := role.Capabilities()
	if caps == nil {
		caps = []string{}
	}
	return RoleResponse{
		Name:         role.Name(),
		DisplayName:  role.DisplayName(),
		Capabilities: caps,
	}
}

func renderError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errors.ToBody(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Role request failed", "path", r.URL.Path, "err", err)
	}
	render.Status(r, status)
	render.JSON(w, r, body)
}
