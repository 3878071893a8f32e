package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tendant/chi-demo/app"

	roleapi "github.com/tendant/simple-wpuser/pkg/role/api"
	"github.com/tendant/simple-wpuser/pkg/router"
	"github.com/tendant/simple-wpuser/pkg/usermanager"
	usersapi "github.com/tendant/simple-wpuser/pkg/usermanager/api"
)

var serveSessionHeader string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the users and roles HTTP API",
	Long: `Serve the users and roles HTTP API.

Routes (default prefixes):
  GET  /api/v1/wpuser/users               list users
  GET  /api/v1/wpuser/users/me            session user (X-User-ID header)
  GET  /api/v1/wpuser/users/{identifier}  user by id, email or login
  GET  /api/v1/wpuser/roles               registered roles
  GET  /api/v1/wpuser/roles/{name}        one role
  POST /api/v1/wpuser/roles               register a role`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveSessionHeader, "session-header", router.DefaultSessionHeader, "Header carrying the session user id")
}

func runServe(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd.Context(), os.Stdout)
	if err != nil {
		return err
	}
	defer rt.Close()

	server := app.NewApp(app.WithPort(rt.cfg.Server.Port))
	app.RegisterHealthzRoutes(server.R)

	router.SetupRoutes(server.R, router.Config{
		PrefixConfig:  rt.cfg.Server.Prefix,
		UserHandle:    usersapi.NewHandle(usermanager.NewProxy(rt.container)),
		RoleHandle:    roleapi.NewHandle(rt.manager.RoleManager()),
		SessionHeader: serveSessionHeader,
	})

	server.Run()
	return nil
}
