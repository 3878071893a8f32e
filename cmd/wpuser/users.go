package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tendant/simple-wpuser/pkg/errors"
	"github.com/tendant/simple-wpuser/pkg/host"
	"github.com/tendant/simple-wpuser/pkg/userquery"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Look up and create users",
	RunE:  requireSubcommand,
}

var usersGetCmd = &cobra.Command{
	Use:   "get <identifier>",
	Short: "Show one user by id, email or login",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersGet,
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	Long: `List users matching the given filters. The configured role filter
(WPUSER_QUERY_ROLE) always applies.

Examples:
  wpuser users list --role-in editor,author
  wpuser users list --search eddie --number 10`,
	Args: cobra.NoArgs,
	RunE: runUsersList,
}

var usersAddCmd = &cobra.Command{
	Use:   "add <login>",
	Short: "Create a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersAdd,
}

var (
	usersListRole    []string
	usersListRoleIn  []string
	usersListInclude []int64
	usersListSearch  string
	usersListNumber  int

	usersAddEmail       string
	usersAddPassword    string
	usersAddDisplayName string
	usersAddRoles       []string
)

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersGetCmd)
	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersAddCmd)

	usersListCmd.Flags().StringSliceVar(&usersListRole, "role", nil, "Roles every user must hold")
	usersListCmd.Flags().StringSliceVar(&usersListRoleIn, "role-in", nil, "Roles of which a user must hold at least one")
	usersListCmd.Flags().Int64SliceVar(&usersListInclude, "include", nil, "Only these user ids")
	usersListCmd.Flags().StringVar(&usersListSearch, "search", "", "Search login, email, URL, nicename and display name")
	usersListCmd.Flags().IntVar(&usersListNumber, "number", 0, "Maximum number of users")

	usersAddCmd.Flags().StringVar(&usersAddEmail, "email", "", "Email address")
	usersAddCmd.Flags().StringVar(&usersAddPassword, "password", "", "Plain text password, stored hashed")
	usersAddCmd.Flags().StringVar(&usersAddDisplayName, "display-name", "", "Display name (defaults to the login)")
	usersAddCmd.Flags().StringSliceVar(&usersAddRoles, "role", nil, "Role of the user (repeatable)")
}

func runUsersGet(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd.Context(), os.Stderr)
	if err != nil {
		return err
	}
	defer rt.Close()

	u := rt.manager.Get(cmd.Context(), args[0])
	if u == nil {
		return errors.New(errors.ErrCodeUserUnavailable, "user is unavailable").WithDetail("identifier", args[0])
	}
	printUser(cmd, u)
	return nil
}

func runUsersList(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd.Context(), os.Stderr)
	if err != nil {
		return err
	}
	defer rt.Close()

	users := rt.manager.Fetch(cmd.Context(), host.QueryArgs{
		Role:    usersListRole,
		RoleIn:  usersListRoleIn,
		Include: usersListInclude,
		Search:  usersListSearch,
		Number:  usersListNumber,
	})

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLOGIN\tEMAIL\tROLES")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID(), u.Login(), u.Email(), strings.Join(u.Roles(), ","))
	}
	return w.Flush()
}

func runUsersAdd(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd.Context(), os.Stderr)
	if err != nil {
		return err
	}
	defer rt.Close()

	if usersAddEmail != "" && !userquery.IsEmail(usersAddEmail) {
		return errors.InvalidArgument("invalid email").WithDetail("email", usersAddEmail)
	}

	created, err := rt.host.CreateUser(cmd.Context(), host.CreateUserParams{
		Login:       args[0],
		Password:    usersAddPassword,
		Email:       usersAddEmail,
		DisplayName: usersAddDisplayName,
		Roles:       usersAddRoles,
	})
	if err != nil {
		return err
	}

	u := rt.manager.Get(cmd.Context(), created.ID)
	if u == nil {
		// Created, but outside the configured role filter
		fmt.Fprintf(cmd.OutOrStdout(), "Created user %d (%s)\n", created.ID, created.Login)
		return nil
	}
	printUser(cmd, u)
	return nil
}

func printUser(cmd *cobra.Command, u userquery.User) {
	out := cmd.OutOrStdout()
	field(out, "ID", fmt.Sprint(u.ID()))
	field(out, "Login", u.Login())
	field(out, "Email", u.Email())
	field(out, "Display name", u.DisplayName())
	field(out, "Roles", strings.Join(u.Roles(), ", "))
	field(out, "Registered", u.Registered().Format("2006-01-02 15:04:05"))
	field(out, "Edit URL", u.EditURL(cmd.Context()))
}

func field(w io.Writer, label, value string) {
	fmt.Fprintf(w, "%-13s %s\n", label+":", value)
}
