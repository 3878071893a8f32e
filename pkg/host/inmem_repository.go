package host

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// DefaultAdminURL is the admin base used to build edit links when none is configured
const DefaultAdminURL = "http://localhost/wp-admin/"

// hostData holds everything a non-SQL host keeps. It is also the on-disk
// document of FileHost.
type hostData struct {
	NextUserID  int64                         `json:"next_user_id"`
	Users       map[int64]User                `json:"users"`
	Roles       map[string]RoleData           `json:"roles"`
	Meta        map[int64]map[string][]string `json:"meta"`
	Options     map[int64]map[string]string   `json:"options"`
	Sites       map[int64]Site                `json:"sites"`
	Memberships map[int64][]int64             `json:"memberships"` // user ID -> site IDs
}

func newHostData() *hostData {
	return &hostData{
		NextUserID:  1,
		Users:       make(map[int64]User),
		Roles:       make(map[string]RoleData),
		Meta:        make(map[int64]map[string][]string),
		Options:     make(map[int64]map[string]string),
		Sites:       make(map[int64]Site),
		Memberships: make(map[int64][]int64),
	}
}

// InMemoryHost implements Host using in-memory storage
type InMemoryHost struct {
	Hooks

	mu       sync.RWMutex
	data     *hostData
	adminURL string
}

// NewInMemoryHost creates an empty in-memory host
func NewInMemoryHost() *InMemoryHost {
	return &InMemoryHost{
		data:     newHostData(),
		adminURL: DefaultAdminURL,
	}
}

// SetAdminURL changes the base of the links returned by EditURL
func (h *InMemoryHost) SetAdminURL(adminURL string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !strings.HasSuffix(adminURL, "/") {
		adminURL += "/"
	}
	h.adminURL = adminURL
}

// ========== RoleStore ==========

// GetRole returns a role by name
func (h *InMemoryHost) GetRole(ctx context.Context, name string) (RoleData, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	role, ok := h.data.Roles[name]
	if !ok {
		return RoleData{}, fmt.Errorf("%w: %s", ErrRoleNotFound, name)
	}
	return cloneRole(role), nil
}

// AddRole creates an empty role
func (h *InMemoryHost) AddRole(ctx context.Context, name, displayName string) (RoleData, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if name == "" {
		return RoleData{}, ErrEmptyRoleName
	}
	if _, ok := h.data.Roles[name]; ok {
		return RoleData{}, fmt.Errorf("%w: %s", ErrRoleExists, name)
	}
	role := RoleData{Name: name, DisplayName: displayName, Capabilities: make(map[string]bool)}
	h.data.Roles[name] = role
	return cloneRole(role), nil
}

// RemoveRole deletes a role. Removing an unknown role is a no-op.
func (h *InMemoryHost) RemoveRole(ctx context.Context, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.data.Roles, name)
	return nil
}

// AddCap grants (or explicitly denies) a capability on a role
func (h *InMemoryHost) AddCap(ctx context.Context, role, capability string, grant bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.data.Roles[role]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRoleNotFound, role)
	}
	if r.Capabilities == nil {
		r.Capabilities = make(map[string]bool)
	}
	r.Capabilities[capability] = grant
	h.data.Roles[role] = r
	return nil
}

// RemoveCap drops a capability from a role
func (h *InMemoryHost) RemoveCap(ctx context.Context, role, capability string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.data.Roles[role]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRoleNotFound, role)
	}
	delete(r.Capabilities, capability)
	return nil
}

// Roles returns all roles sorted by name
func (h *InMemoryHost) Roles(ctx context.Context) ([]RoleData, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	roles := make([]RoleData, 0, len(h.data.Roles))
	for _, r := range h.data.Roles {
		roles = append(roles, cloneRole(r))
	}
	sortRoles(roles)
	return roles, nil
}

// ========== UserStore ==========

// GetUserByID returns a user by ID
func (h *InMemoryHost) GetUserByID(ctx context.Context, id int64) (User, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	u, ok := h.data.Users[id]
	if !ok {
		return User{}, fmt.Errorf("%w: %d", ErrUserNotFound, id)
	}
	return cloneUser(u), nil
}

// GetUserBy returns the user whose field equals value
func (h *InMemoryHost) GetUserBy(ctx context.Context, field Field, value string) (User, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if value == "" {
		return User{}, fmt.Errorf("%w: empty %s", ErrUserNotFound, field)
	}
	for _, u := range h.data.Users {
		var candidate string
		switch field {
		case FieldID:
			candidate = fmt.Sprint(u.ID)
		case FieldEmail:
			candidate = u.Email
		case FieldLogin:
			candidate = u.Login
		case FieldSlug:
			candidate = u.Nicename
		default:
			return User{}, fmt.Errorf("unsupported user field: %s", field)
		}
		if strings.EqualFold(candidate, value) {
			return cloneUser(u), nil
		}
	}
	return User{}, fmt.Errorf("%w: %s=%s", ErrUserNotFound, field, value)
}

// QueryUsers runs a user query
func (h *InMemoryHost) QueryUsers(ctx context.Context, args QueryArgs) ([]User, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	all := make([]User, 0, len(h.data.Users))
	for _, u := range h.data.Users {
		all = append(all, cloneUser(u))
	}
	return filterUsers(all, args), nil
}

// GetMeta returns every value stored under key for a user
func (h *InMemoryHost) GetMeta(ctx context.Context, userID int64, key string) ([]string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return slices.Clone(h.data.Meta[userID][key]), nil
}

// GetOption returns a per-user option, empty when unset
func (h *InMemoryHost) GetOption(ctx context.Context, userID int64, name string) (string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.data.Options[userID][name], nil
}

// BlogsOf returns the sites a user belongs to. Unless all is set, archived,
// deleted and spam sites are left out.
func (h *InMemoryHost) BlogsOf(ctx context.Context, userID int64, all bool) ([]Site, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sites := []Site{}
	for _, id := range h.data.Memberships[userID] {
		site, ok := h.data.Sites[id]
		if !ok {
			continue
		}
		if !all && !site.Active() {
			continue
		}
		sites = append(sites, site)
	}
	return sites, nil
}

// EditURL returns the admin link for editing a user
func (h *InMemoryHost) EditURL(ctx context.Context, userID int64) (string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.data.Users[userID]; !ok {
		return "", fmt.Errorf("%w: %d", ErrUserNotFound, userID)
	}
	return fmt.Sprintf("%suser-edit.php?user_id=%d", h.adminURL, userID), nil
}

// AllCaps returns the effective capabilities of a user
func (h *InMemoryHost) AllCaps(ctx context.Context, user User) (map[string]bool, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return ResolveCaps(user, h.data.Roles), nil
}

// HasCap checks a capability, mapping meta capabilities first
func (h *InMemoryHost) HasCap(ctx context.Context, user User, capability string, args ...any) (bool, error) {
	all, err := h.AllCaps(ctx, user)
	if err != nil {
		return false, err
	}
	return hasCap(all, user, capability, args...), nil
}

// ========== Session ==========

// CurrentUser returns the user bound to ctx, or the anonymous zero User
func (h *InMemoryHost) CurrentUser(ctx context.Context) (User, error) {
	return currentUser(ctx, h)
}

// ========== UserWriter ==========

// CreateUser stores a new account
func (h *InMemoryHost) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	if params.Login == "" {
		return User{}, fmt.Errorf("login is required")
	}

	var hash string
	if params.Password != "" {
		var err error
		if hash, err = HashPassword(params.Password); err != nil {
			return User{}, fmt.Errorf("failed to hash password: %w", err)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, existing := range h.data.Users {
		if strings.EqualFold(existing.Login, params.Login) {
			return User{}, fmt.Errorf("%w: %s", ErrLoginTaken, params.Login)
		}
	}

	u := newUser(h.data.NextUserID, params, hash)
	h.data.Users[u.ID] = u
	h.data.NextUserID++
	return cloneUser(u), nil
}

// SetUserRoles replaces the ordered role list of a user
func (h *InMemoryHost) SetUserRoles(ctx context.Context, userID int64, roles []string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	u, ok := h.data.Users[userID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUserNotFound, userID)
	}
	u.Roles = dedupe(roles)
	h.data.Users[userID] = u
	return nil
}

// AddMeta appends a meta value for a user
func (h *InMemoryHost) AddMeta(ctx context.Context, userID int64, key, value string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.data.Meta[userID] == nil {
		h.data.Meta[userID] = make(map[string][]string)
	}
	h.data.Meta[userID][key] = append(h.data.Meta[userID][key], value)
	return nil
}

// SetOption stores a per-user option
func (h *InMemoryHost) SetOption(ctx context.Context, userID int64, name, value string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.data.Options[userID] == nil {
		h.data.Options[userID] = make(map[string]string)
	}
	h.data.Options[userID][name] = value
	return nil
}

// ========== Seeding ==========

// SeedUser adds a user directly (for testing/initialization). A zero ID is
// replaced with the next free one.
func (h *InMemoryHost) SeedUser(u User) User {
	h.mu.Lock()
	defer h.mu.Unlock()

	if u.ID == 0 {
		u.ID = h.data.NextUserID
	}
	if u.ID >= h.data.NextUserID {
		h.data.NextUserID = u.ID + 1
	}
	if u.Nicename == "" {
		u.Nicename = Sanitize(u.Login)
	}
	if u.Registered.IsZero() {
		u.Registered = time.Now().UTC()
	}
	h.data.Users[u.ID] = cloneUser(u)
	return cloneUser(u)
}

// SeedRole adds a role directly (for testing/initialization)
func (h *InMemoryHost) SeedRole(role RoleData) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.data.Roles[role.Name] = cloneRole(role)
}

// SeedSite adds a site and makes the given users members of it
func (h *InMemoryHost) SeedSite(site Site, members ...int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.data.Sites[site.ID] = site
	for _, userID := range members {
		if !slices.Contains(h.data.Memberships[userID], site.ID) {
			h.data.Memberships[userID] = append(h.data.Memberships[userID], site.ID)
		}
	}
}

// ========== helpers ==========

var slugPattern = regexp.MustCompile(`[^a-z0-9_]+`)

// Sanitize derives a URL-friendly nicename from a login
func Sanitize(login string) string {
	return strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(login), "-"), "-")
}

func newUser(id int64, params CreateUserParams, hash string) User {
	displayName := params.DisplayName
	if displayName == "" {
		displayName = params.Login
	}
	nickname := params.Nickname
	if nickname == "" {
		nickname = params.Login
	}
	return User{
		ID:          id,
		Login:       params.Login,
		Pass:        hash,
		Nicename:    Sanitize(params.Login),
		Email:       params.Email,
		URL:         params.URL,
		Registered:  time.Now().UTC(),
		DisplayName: displayName,
		FirstName:   params.FirstName,
		LastName:    params.LastName,
		Nickname:    nickname,
		Description: params.Description,
		Roles:       dedupe(params.Roles),
	}
}

func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func cloneUser(u User) User {
	u.Roles = slices.Clone(u.Roles)
	if u.Roles == nil {
		u.Roles = []string{}
	}
	if u.Caps != nil {
		u.Caps = maps.Clone(u.Caps)
	}
	return u
}

func cloneRole(r RoleData) RoleData {
	r.Capabilities = maps.Clone(r.Capabilities)
	if r.Capabilities == nil {
		r.Capabilities = make(map[string]bool)
	}
	return r
}
