package host

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileHost implements Host on top of a JSON document. Reads are served from
// memory; every mutation reloads the document under an advisory file lock,
// applies the change and writes the document back.
type FileHost struct {
	*InMemoryHost

	path string
	lock *flock.Flock
}

// NewFileHost creates a file-based host storing host.json in dataDir
func NewFileHost(dataDir string) (*FileHost, error) {
	// Create data directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	path := filepath.Join(dataDir, "host.json")
	h := &FileHost{
		InMemoryHost: NewInMemoryHost(),
		path:         path,
		lock:         flock.New(path + ".lock"),
	}

	// Load existing data
	if err := h.load(); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	return h, nil
}

// Path returns the location of the JSON document
func (h *FileHost) Path() string {
	return h.path
}

// Reload re-reads the document, picking up writes from other processes
func (h *FileHost) Reload() error {
	if err := h.lock.RLock(); err != nil {
		return fmt.Errorf("failed to lock %s: %w", h.path, err)
	}
	defer h.lock.Unlock()

	return h.load()
}

func (h *FileHost) load() error {
	data := newHostData()

	raw, err := os.ReadFile(h.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if err == nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, data); err != nil {
			return fmt.Errorf("parsing %s: %w", h.path, err)
		}
		fillHostData(data)
	}

	h.mu.Lock()
	h.data = data
	h.mu.Unlock()
	return nil
}

func (h *FileHost) save() error {
	h.mu.RLock()
	raw, err := json.MarshalIndent(h.data, "", "  ")
	h.mu.RUnlock()
	if err != nil {
		return err
	}

	tmp := h.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, h.path)
}

// mutate runs fn against freshly loaded data under the file lock and persists
// the result. On a failed write the last persisted state is restored.
func (h *FileHost) mutate(fn func() error) error {
	if err := h.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock %s: %w", h.path, err)
	}
	defer h.lock.Unlock()

	if err := h.load(); err != nil {
		return fmt.Errorf("failed to load data: %w", err)
	}
	if err := fn(); err != nil {
		return err
	}
	if err := h.save(); err != nil {
		// Rollback
		if loadErr := h.load(); loadErr != nil {
			return fmt.Errorf("failed to save: %w (reload: %v)", err, loadErr)
		}
		return fmt.Errorf("failed to save: %w", err)
	}
	return nil
}

// AddRole creates an empty role
func (h *FileHost) AddRole(ctx context.Context, name, displayName string) (RoleData, error) {
	var role RoleData
	err := h.mutate(func() error {
		var err error
		role, err = h.InMemoryHost.AddRole(ctx, name, displayName)
		return err
	})
	return role, err
}

// RemoveRole deletes a role
func (h *FileHost) RemoveRole(ctx context.Context, name string) error {
	return h.mutate(func() error {
		return h.InMemoryHost.RemoveRole(ctx, name)
	})
}

// AddCap grants (or explicitly denies) a capability on a role
func (h *FileHost) AddCap(ctx context.Context, role, capability string, grant bool) error {
	return h.mutate(func() error {
		return h.InMemoryHost.AddCap(ctx, role, capability, grant)
	})
}

// RemoveCap drops a capability from a role
func (h *FileHost) RemoveCap(ctx context.Context, role, capability string) error {
	return h.mutate(func() error {
		return h.InMemoryHost.RemoveCap(ctx, role, capability)
	})
}

// CreateUser stores a new account
func (h *FileHost) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	var u User
	err := h.mutate(func() error {
		var err error
		u, err = h.InMemoryHost.CreateUser(ctx, params)
		return err
	})
	return u, err
}

// SetUserRoles replaces the ordered role list of a user
func (h *FileHost) SetUserRoles(ctx context.Context, userID int64, roles []string) error {
	return h.mutate(func() error {
		return h.InMemoryHost.SetUserRoles(ctx, userID, roles)
	})
}

// AddMeta appends a meta value for a user
func (h *FileHost) AddMeta(ctx context.Context, userID int64, key, value string) error {
	return h.mutate(func() error {
		return h.InMemoryHost.AddMeta(ctx, userID, key, value)
	})
}

// SetOption stores a per-user option
func (h *FileHost) SetOption(ctx context.Context, userID int64, name, value string) error {
	return h.mutate(func() error {
		return h.InMemoryHost.SetOption(ctx, userID, name, value)
	})
}

// AddSite stores a site and its members
func (h *FileHost) AddSite(ctx context.Context, site Site, members ...int64) error {
	return h.mutate(func() error {
		h.InMemoryHost.SeedSite(site, members...)
		return nil
	})
}

// CurrentUser returns the user bound to ctx, or the anonymous zero User
func (h *FileHost) CurrentUser(ctx context.Context) (User, error) {
	return currentUser(ctx, h)
}

// fillHostData replaces nil maps left by a partial document
func fillHostData(d *hostData) {
	if d.NextUserID < 1 {
		d.NextUserID = 1
	}
	for id := range d.Users {
		if id >= d.NextUserID {
			d.NextUserID = id + 1
		}
	}
	if d.Users == nil {
		d.Users = make(map[int64]User)
	}
	if d.Roles == nil {
		d.Roles = make(map[string]RoleData)
	}
	if d.Meta == nil {
		d.Meta = make(map[int64]map[string][]string)
	}
	if d.Options == nil {
		d.Options = make(map[int64]map[string]string)
	}
	if d.Sites == nil {
		d.Sites = make(map[int64]Site)
	}
	if d.Memberships == nil {
		d.Memberships = make(map[int64][]int64)
	}
}
