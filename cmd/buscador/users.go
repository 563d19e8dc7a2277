package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperjump/buscador/internal/cli"
	"github.com/hyperjump/buscador/internal/models"
)

var (
	userPassword string
	userRole     string
	userPerms    []string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage accounts in the account store",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts with role and permissions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withAccounts(func(ctx context.Context, c *Components) error {
			format, err := outputFormat()
			if err != nil {
				return err
			}
			accs, err := c.Accounts.ListAccountsTable(ctx)
			if err != nil {
				return err
			}
			return cli.WriteAccounts(cmd.OutOrStdout(), accs, format)
		})
	},
}

var usersCreateCmd = &cobra.Command{
	Use:   "create <usuario>",
	Short: "Create an account",
	Long: `Creates an account. Permissions are given as a comma-separated list of
granted flags (admin_usuarios, admin_elastic, admin_data_elastic, login);
login is granted unless --permisos is set without it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAccounts(func(ctx context.Context, c *Components) error {
			in := models.AccountInput{Username: args[0], Password: userPassword, Role: userRole}
			if cmd.Flags().Changed("permisos") {
				in.Permissions = permissionInput(userPerms)
			}
			acc, err := c.Accounts.CreateAccount(ctx, in)
			if err != nil {
				return err
			}
			cmd.Printf("created %s (%s)\n", acc.Username, acc.Role)
			return nil
		})
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <usuario>",
	Short: "Delete an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAccounts(func(ctx context.Context, c *Components) error {
			if err := c.Accounts.DeleteAccount(ctx, args[0]); err != nil {
				return err
			}
			cmd.Printf("deleted %s\n", args[0])
			return nil
		})
	},
}

func init() {
	usersCreateCmd.Flags().StringVarP(&userPassword, "password", "p", "", "account password")
	usersCreateCmd.Flags().StringVar(&userRole, "rol", "", "role (default "+models.DefaultRole+")")
	usersCreateCmd.Flags().StringSliceVar(&userPerms, "permisos", nil, "granted permission flags")
	usersCmd.AddCommand(usersListCmd, usersCreateCmd, usersDeleteCmd)
	rootCmd.AddCommand(usersCmd)
}

// permissionInput turns a list of granted flags into an explicit map so that
// omitted known flags, login included, are revoked.
func permissionInput(granted []string) map[string]any {
	out := make(map[string]any, len(models.PermissionNames))
	for _, name := range models.PermissionNames {
		out[name] = false
	}
	for _, g := range granted {
		if g = strings.TrimSpace(g); g != "" {
			out[g] = true
		}
	}
	return out
}

func withAccounts(fn func(ctx context.Context, c *Components) error) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	ctx := context.Background()
	components, err := initializeComponents(ctx, cfg, logger, want{accounts: true})
	if err != nil {
		return fmt.Errorf("failed to open account store: %w", err)
	}
	defer components.Close()
	return fn(ctx, components)
}
