package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/redmonkez12/go-contacts-api/cmd/contactsctl/ui"
	"github.com/redmonkez12/go-contacts-api/internal/user"
)

func newUserCmd(a *app) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Long:  "Create an account. Missing fields are asked for interactively.",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := ui.NewUser{}
			in.Email, _ = cmd.Flags().GetString("email")
			in.Username, _ = cmd.Flags().GetString("username")
			in.Password, _ = cmd.Flags().GetString("password")
			in.Confirmed, _ = cmd.Flags().GetBool("confirmed")

			// Interactive mode
			if in.Email == "" || in.Username == "" || in.Password == "" {
				if err := ui.RunUserForm(&in); err != nil {
					return err
				}
			}

			admin, err := a.admin(cmd.Context())
			if err != nil {
				return err
			}
			u, err := admin.create(cmd.Context(), in.Email, in.Username, in.Password, in.Confirmed)
			if err != nil {
				return err
			}

			ui.PrintUser("User created", u)
			return nil
		},
	}
	createCmd.Flags().String("email", "", "Email address")
	createCmd.Flags().String("username", "", "Display name")
	createCmd.Flags().String("password", "", "Password (prompted when empty)")
	createCmd.Flags().Bool("confirmed", true, "Mark the email as already confirmed")

	userCmd.AddCommand(
		createCmd,
		emailCmd(a, "confirm", "Mark an email address as confirmed", "Email confirmed", (*userAdmin).confirm),
		emailCmd(a, "revoke", "Revoke the user's refresh token", "Session revoked", (*userAdmin).revoke),
		emailCmd(a, "delete", "Delete the user and all their contacts", "User deleted", (*userAdmin).remove),
	)
	return userCmd
}

// emailCmd builds a subcommand that applies op to the account with the given email.
func emailCmd(a *app, use, short, title string, op func(*userAdmin, context.Context, string) (*user.User, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <email>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			admin, err := a.admin(cmd.Context())
			if err != nil {
				return err
			}
			u, err := op(admin, cmd.Context(), args[0])
			if err != nil {
				return err
			}
			ui.PrintUser(title, u)
			return nil
		},
	}
}
