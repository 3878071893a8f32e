package host

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryConfig contains configuration for creating a host backend
type RepositoryConfig struct {
	// Pool is required for PostgreSQL hosts
	Pool *pgxpool.Pool
	// DataDir is required for file-based hosts
	DataDir string
	// AdminURL is the base of user edit links
	AdminURL string
}

// NewHost creates a host backend based on the persistence type
func NewHost(persistenceType string, config RepositoryConfig) (Host, error) {
	switch persistenceType {
	case "memory", "inmem", "":
		h := NewInMemoryHost()
		if config.AdminURL != "" {
			h.SetAdminURL(config.AdminURL)
		}
		return h, nil
	case "file":
		if config.DataDir == "" {
			return nil, fmt.Errorf("dataDir required for file host")
		}
		h, err := NewFileHost(config.DataDir)
		if err != nil {
			return nil, err
		}
		if config.AdminURL != "" {
			h.SetAdminURL(config.AdminURL)
		}
		return h, nil
	case "postgres", "postgresql":
		if config.Pool == nil {
			return nil, fmt.Errorf("pool required for postgres host")
		}
		return NewPostgresHost(config.Pool, config.AdminURL), nil
	default:
		return nil, fmt.Errorf("unsupported persistence type: %s (supported: memory, file, postgres)", persistenceType)
	}
}
