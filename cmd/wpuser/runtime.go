package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tendant/simple-wpuser/pkg/config"
	"github.com/tendant/simple-wpuser/pkg/container"
	"github.com/tendant/simple-wpuser/pkg/host"
	"github.com/tendant/simple-wpuser/pkg/role"
	"github.com/tendant/simple-wpuser/pkg/usermanager"
	"github.com/tendant/simple-wpuser/pkg/userquery"
)

// runtime is the wired service graph shared by every command
type runtime struct {
	cfg       config.Config
	host      host.Host
	container *container.Container
	manager   *usermanager.Manager
	pool      *pgxpool.Pool
}

// setup loads the configuration, opens the host, registers the configured
// role definitions and fires the host init hook.
func setup(ctx context.Context, logOut io.Writer) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(cfg.Log.NewLogger(logOut))

	rt := &runtime{cfg: cfg}

	repoCfg := cfg.Host.RepositoryConfig()
	if cfg.Host.Persistence == "postgres" {
		pool, err := pgxpool.New(ctx, cfg.Database.ToDatabaseURL())
		if err != nil {
			return nil, fmt.Errorf("failed to create database pool: %w", err)
		}
		rt.pool = pool
		repoCfg.Pool = pool
	}

	h, err := host.NewHost(cfg.Host.Persistence, repoCfg)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.host = h
	slog.Info("Host opened", "persistence", cfg.Host.Persistence)

	rt.container = container.New()
	rt.container.Register(usermanager.NewServiceProvider(h,
		usermanager.WithConfig(cfg.UserManager),
		usermanager.WithQuery(userquery.New(h, cfg.Query.ToUserQueryConfig())),
	))

	rt.manager, err = container.Resolve[*usermanager.Manager](rt.container, usermanager.ServiceID)
	if err != nil {
		rt.Close()
		return nil, err
	}

	if cfg.Host.RolesFile != "" {
		defs, err := role.LoadDefinitions(cfg.Host.RolesFile)
		if err != nil {
			rt.Close()
			return nil, err
		}
		roles, err := rt.manager.RoleManager().RegisterDefinitions(ctx, defs)
		if err != nil {
			rt.Close()
			return nil, err
		}
		slog.Info("Role definitions registered", "file", cfg.Host.RolesFile, "roles", len(roles))
	}

	if err := h.DoAction(ctx, host.HookInit); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

// Close releases the database pool, if any
func (rt *runtime) Close() {
	if rt.pool != nil {
		rt.pool.Close()
	}
}
