// Command wpuser serves and administers users and roles of a host store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "wpuser",
	Short: "Users and roles of a host store",
	Long: `wpuser resolves users and declares roles against a host store
(memory, file or postgres).

Configuration is read from the environment and, when --config is given,
from a YAML file. See WPUSER_* and API_PREFIX_* variables.

Examples:
  wpuser serve
  wpuser roles load config/roles.yaml
  wpuser users get admin@example.com`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("WPUSER_CONFIG"), "YAML configuration file")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func requireSubcommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("requires a subcommand\n\nRun '%s --help' for usage", cmd.CommandPath())
	}
	return fmt.Errorf("unknown command %q for %q", args[0], cmd.CommandPath())
}
