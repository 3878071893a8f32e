package host

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `u.id, u.user_login, u.user_pass, u.user_nicename, u.user_email, u.user_url,
	u.user_registered, u.user_activation_key, u.user_status, u.display_name,
	u.first_name, u.last_name, u.nickname, u.description`

// PostgresHost implements Host using PostgreSQL (schema in migrations/host_db.sql)
type PostgresHost struct {
	Hooks

	pool     *pgxpool.Pool
	adminURL string
}

// NewPostgresHost creates a new PostgreSQL-based host
func NewPostgresHost(pool *pgxpool.Pool, adminURL string) *PostgresHost {
	if adminURL == "" {
		adminURL = DefaultAdminURL
	}
	if !strings.HasSuffix(adminURL, "/") {
		adminURL += "/"
	}
	return &PostgresHost{
		pool:     pool,
		adminURL: adminURL,
	}
}

// ========== RoleStore ==========

// GetRole returns a role by name
func (h *PostgresHost) GetRole(ctx context.Context, name string) (RoleData, error) {
	role := RoleData{Name: name, Capabilities: make(map[string]bool)}
	err := h.pool.QueryRow(ctx, `SELECT display_name FROM host_roles WHERE name = $1`, name).Scan(&role.DisplayName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RoleData{}, fmt.Errorf("%w: %s", ErrRoleNotFound, name)
		}
		return RoleData{}, err
	}

	rows, err := h.pool.Query(ctx, `SELECT cap, granted FROM host_role_caps WHERE role = $1`, name)
	if err != nil {
		return RoleData{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var c string
		var granted bool
		if err := rows.Scan(&c, &granted); err != nil {
			return RoleData{}, err
		}
		role.Capabilities[c] = granted
	}
	return role, rows.Err()
}

// AddRole creates an empty role
func (h *PostgresHost) AddRole(ctx context.Context, name, displayName string) (RoleData, error) {
	if name == "" {
		return RoleData{}, ErrEmptyRoleName
	}
	tag, err := h.pool.Exec(ctx,
		`INSERT INTO host_roles (name, display_name) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
		name, displayName)
	if err != nil {
		return RoleData{}, err
	}
	if tag.RowsAffected() == 0 {
		return RoleData{}, fmt.Errorf("%w: %s", ErrRoleExists, name)
	}
	return RoleData{Name: name, DisplayName: displayName, Capabilities: make(map[string]bool)}, nil
}

// RemoveRole deletes a role and its capability grants
func (h *PostgresHost) RemoveRole(ctx context.Context, name string) error {
	_, err := h.pool.Exec(ctx, `DELETE FROM host_roles WHERE name = $1`, name)
	return err
}

// AddCap grants (or explicitly denies) a capability on a role
func (h *PostgresHost) AddCap(ctx context.Context, role, capability string, grant bool) error {
	tag, err := h.pool.Exec(ctx,
		`INSERT INTO host_role_caps (role, cap, granted)
		 SELECT name, $2, $3 FROM host_roles WHERE name = $1
		 ON CONFLICT (role, cap) DO UPDATE SET granted = EXCLUDED.granted`,
		role, capability, grant)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrRoleNotFound, role)
	}
	return nil
}

// RemoveCap drops a capability from a role
func (h *PostgresHost) RemoveCap(ctx context.Context, role, capability string) error {
	_, err := h.pool.Exec(ctx, `DELETE FROM host_role_caps WHERE role = $1 AND cap = $2`, role, capability)
	return err
}

// Roles returns all roles sorted by name
func (h *PostgresHost) Roles(ctx context.Context) ([]RoleData, error) {
	rows, err := h.pool.Query(ctx,
		`SELECT r.name, r.display_name, c.cap, c.granted
		 FROM host_roles r LEFT JOIN host_role_caps c ON c.role = r.name
		 ORDER BY r.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []RoleData
	for rows.Next() {
		var name, displayName string
		var c *string
		var granted *bool
		if err := rows.Scan(&name, &displayName, &c, &granted); err != nil {
			return nil, err
		}
		if len(roles) == 0 || roles[len(roles)-1].Name != name {
			roles = append(roles, RoleData{Name: name, DisplayName: displayName, Capabilities: make(map[string]bool)})
		}
		if c != nil && granted != nil {
			roles[len(roles)-1].Capabilities[*c] = *granted
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if roles == nil {
		roles = []RoleData{}
	}
	return roles, nil
}

// ========== UserStore ==========

// GetUserByID returns a user by ID
func (h *PostgresHost) GetUserByID(ctx context.Context, id int64) (User, error) {
	return h.getUser(ctx, `u.id = $1`, id)
}

// GetUserBy returns the user whose field equals value
func (h *PostgresHost) GetUserBy(ctx context.Context, field Field, value string) (User, error) {
	if value == "" {
		return User{}, fmt.Errorf("%w: empty %s", ErrUserNotFound, field)
	}
	switch field {
	case FieldID:
		return h.getUser(ctx, `u.id::text = $1`, value)
	case FieldEmail:
		return h.getUser(ctx, `lower(u.user_email) = lower($1)`, value)
	case FieldLogin:
		return h.getUser(ctx, `lower(u.user_login) = lower($1)`, value)
	case FieldSlug:
		return h.getUser(ctx, `u.user_nicename = $1`, value)
	}
	return User{}, fmt.Errorf("unsupported user field: %s", field)
}

func (h *PostgresHost) getUser(ctx context.Context, where string, arg any) (User, error) {
	users, err := h.selectUsers(ctx, `SELECT `+userColumns+` FROM host_users u WHERE `+where+` LIMIT 1`, arg)
	if err != nil {
		return User{}, err
	}
	if len(users) == 0 {
		return User{}, fmt.Errorf("%w: %v", ErrUserNotFound, arg)
	}
	return users[0], nil
}

// QueryUsers runs a user query
func (h *PostgresHost) QueryUsers(ctx context.Context, args QueryArgs) ([]User, error) {
	sql, params := buildUserQuery(args)
	return h.selectUsers(ctx, sql, params...)
}

// buildUserQuery translates QueryArgs into SQL. Column names never come from
// the caller; orderColumn whitelists them.
func buildUserQuery(args QueryArgs) (string, []any) {
	var where []string
	var params []any
	next := func(v any) string {
		params = append(params, v)
		return fmt.Sprintf("$%d", len(params))
	}

	if len(args.Include) > 0 {
		where = append(where, "u.id = ANY("+next(args.Include)+")")
	}
	if len(args.Exclude) > 0 {
		where = append(where, "NOT (u.id = ANY("+next(args.Exclude)+"))")
	}
	for _, r := range args.Role {
		where = append(where, "EXISTS (SELECT 1 FROM host_user_roles ur WHERE ur.user_id = u.id AND ur.role = "+next(r)+")")
	}
	if len(args.RoleIn) > 0 {
		where = append(where, "EXISTS (SELECT 1 FROM host_user_roles ur WHERE ur.user_id = u.id AND ur.role = ANY("+next(args.RoleIn)+"))")
	}
	if len(args.RoleNotIn) > 0 {
		where = append(where, "NOT EXISTS (SELECT 1 FROM host_user_roles ur WHERE ur.user_id = u.id AND ur.role = ANY("+next(args.RoleNotIn)+"))")
	}
	if term := searchTerm(args.Search); term != "" {
		p := next("%" + term + "%")
		where = append(where, "(lower(u.user_login) LIKE "+p+" OR lower(u.user_email) LIKE "+p+
			" OR lower(u.user_url) LIKE "+p+" OR lower(u.user_nicename) LIKE "+p+" OR lower(u.display_name) LIKE "+p+")")
	}

	var b strings.Builder
	b.WriteString("SELECT " + userColumns + " FROM host_users u")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	dir := "ASC"
	if descending(args.Order) {
		dir = "DESC"
	}
	b.WriteString(fmt.Sprintf(" ORDER BY u.%s %s, u.id ASC", orderColumn(args.OrderBy), dir))
	if args.Number > 0 {
		b.WriteString(" LIMIT " + next(args.Number))
	}
	if args.Offset > 0 {
		b.WriteString(" OFFSET " + next(args.Offset))
	}
	return b.String(), params
}

func (h *PostgresHost) selectUsers(ctx context.Context, sql string, args ...any) ([]User, error) {
	rows, err := h.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (User, error) {
		var u User
		err := row.Scan(&u.ID, &u.Login, &u.Pass, &u.Nicename, &u.Email, &u.URL,
			&u.Registered, &u.ActivationKey, &u.Status, &u.DisplayName,
			&u.FirstName, &u.LastName, &u.Nickname, &u.Description)
		u.Roles = []string{}
		return u, err
	})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return []User{}, nil
	}
	if err := h.attachRolesAndCaps(ctx, users); err != nil {
		return nil, err
	}
	return users, nil
}

func (h *PostgresHost) attachRolesAndCaps(ctx context.Context, users []User) error {
	ids := make([]int64, len(users))
	index := make(map[int64]int, len(users))
	for i, u := range users {
		ids[i] = u.ID
		index[u.ID] = i
	}

	rows, err := h.pool.Query(ctx,
		`SELECT user_id, role FROM host_user_roles WHERE user_id = ANY($1) ORDER BY user_id, position`, ids)
	if err != nil {
		return err
	}
	for rows.Next() {
		var id int64
		var role string
		if err := rows.Scan(&id, &role); err != nil {
			rows.Close()
			return err
		}
		users[index[id]].Roles = append(users[index[id]].Roles, role)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = h.pool.Query(ctx, `SELECT user_id, cap, granted FROM host_user_caps WHERE user_id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var c string
		var granted bool
		if err := rows.Scan(&id, &c, &granted); err != nil {
			return err
		}
		u := &users[index[id]]
		if u.Caps == nil {
			u.Caps = make(map[string]bool)
		}
		u.Caps[c] = granted
	}
	return rows.Err()
}

// GetMeta returns every value stored under key for a user
func (h *PostgresHost) GetMeta(ctx context.Context, userID int64, key string) ([]string, error) {
	rows, err := h.pool.Query(ctx,
		`SELECT meta_value FROM host_usermeta WHERE user_id = $1 AND meta_key = $2 ORDER BY umeta_id`, userID, key)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// GetOption returns a per-user option, empty when unset
func (h *PostgresHost) GetOption(ctx context.Context, userID int64, name string) (string, error) {
	var value string
	err := h.pool.QueryRow(ctx,
		`SELECT option_value FROM host_user_options WHERE user_id = $1 AND option_name = $2`, userID, name).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// BlogsOf returns the sites a user belongs to
func (h *PostgresHost) BlogsOf(ctx context.Context, userID int64, all bool) ([]Site, error) {
	sql := `SELECT s.id, s.domain, s.path, s.name, s.archived, s.deleted, s.spam
		FROM host_sites s JOIN host_site_members m ON m.site_id = s.id
		WHERE m.user_id = $1`
	if !all {
		sql += ` AND NOT s.archived AND NOT s.deleted AND NOT s.spam`
	}
	sql += ` ORDER BY s.id`

	rows, err := h.pool.Query(ctx, sql, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Site, error) {
		var s Site
		err := row.Scan(&s.ID, &s.Domain, &s.Path, &s.Name, &s.Archived, &s.Deleted, &s.Spam)
		return s, err
	})
}

// EditURL returns the admin link for editing a user
func (h *PostgresHost) EditURL(ctx context.Context, userID int64) (string, error) {
	return fmt.Sprintf("%suser-edit.php?user_id=%d", h.adminURL, userID), nil
}

// AllCaps returns the effective capabilities of a user
func (h *PostgresHost) AllCaps(ctx context.Context, user User) (map[string]bool, error) {
	roles := make(map[string]RoleData, len(user.Roles))
	for _, name := range user.Roles {
		role, err := h.GetRole(ctx, name)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		roles[name] = role
	}
	return ResolveCaps(user, roles), nil
}

// HasCap checks a capability, mapping meta capabilities first
func (h *PostgresHost) HasCap(ctx context.Context, user User, capability string, args ...any) (bool, error) {
	all, err := h.AllCaps(ctx, user)
	if err != nil {
		return false, err
	}
	return hasCap(all, user, capability, args...), nil
}

// ========== Session ==========

// CurrentUser returns the user bound to ctx, or the anonymous zero User
func (h *PostgresHost) CurrentUser(ctx context.Context) (User, error) {
	return currentUser(ctx, h)
}

// ========== UserWriter ==========

// CreateUser stores a new account and its roles in one transaction
func (h *PostgresHost) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
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
	u := newUser(0, params, hash)

	tx, err := h.pool.Begin(ctx)
	if err != nil {
		return User{}, err
	}
	defer tx.Rollback(ctx)

	var taken bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM host_users WHERE lower(user_login) = lower($1))`, u.Login).Scan(&taken); err != nil {
		return User{}, err
	}
	if taken {
		return User{}, fmt.Errorf("%w: %s", ErrLoginTaken, u.Login)
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO host_users (user_login, user_pass, user_nicename, user_email, user_url, user_registered,
			display_name, first_name, last_name, nickname, description)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`,
		u.Login, u.Pass, u.Nicename, u.Email, u.URL, u.Registered,
		u.DisplayName, u.FirstName, u.LastName, u.Nickname, u.Description).Scan(&u.ID)
	if err != nil {
		return User{}, fmt.Errorf("failed to create user: %w", err)
	}
	if err := replaceUserRoles(ctx, tx, u.ID, u.Roles); err != nil {
		return User{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return User{}, err
	}
	return u, nil
}

// SetUserRoles replaces the ordered role list of a user
func (h *PostgresHost) SetUserRoles(ctx context.Context, userID int64, roles []string) error {
	tx, err := h.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM host_users WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %d", ErrUserNotFound, userID)
	}
	if err := replaceUserRoles(ctx, tx, userID, dedupe(roles)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func replaceUserRoles(ctx context.Context, tx pgx.Tx, userID int64, roles []string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM host_user_roles WHERE user_id = $1`, userID); err != nil {
		return err
	}
	for i, role := range roles {
		if _, err := tx.Exec(ctx,
			`INSERT INTO host_user_roles (user_id, role, position) VALUES ($1, $2, $3)`, userID, role, i); err != nil {
			return fmt.Errorf("failed to assign role %s: %w", role, err)
		}
	}
	return nil
}

// AddMeta appends a meta value for a user
func (h *PostgresHost) AddMeta(ctx context.Context, userID int64, key, value string) error {
	_, err := h.pool.Exec(ctx,
		`INSERT INTO host_usermeta (user_id, meta_key, meta_value) VALUES ($1, $2, $3)`, userID, key, value)
	return err
}

// SetOption stores a per-user option
func (h *PostgresHost) SetOption(ctx context.Context, userID int64, name, value string) error {
	_, err := h.pool.Exec(ctx,
		`INSERT INTO host_user_options (user_id, option_name, option_value) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, option_name) DO UPDATE SET option_value = EXCLUDED.option_value`,
		userID, name, value)
	return err
}

// AddSite stores a site and its members
func (h *PostgresHost) AddSite(ctx context.Context, site Site, members ...int64) error {
	tx, err := h.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO host_sites (id, domain, path, name, archived, deleted, spam) VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET domain = EXCLUDED.domain, path = EXCLUDED.path, name = EXCLUDED.name,
		 archived = EXCLUDED.archived, deleted = EXCLUDED.deleted, spam = EXCLUDED.spam`,
		site.ID, site.Domain, site.Path, site.Name, site.Archived, site.Deleted, site.Spam)
	if err != nil {
		return err
	}
	for _, userID := range members {
		if _, err := tx.Exec(ctx,
			`INSERT INTO host_site_members (user_id, site_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, userID, site.ID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
