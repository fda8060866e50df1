package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"foodcourt/internal/app"
	"foodcourt/internal/domain"
)

var (
	asAdmin     bool
	displayName string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with a one-time code sent to your phone",
	Long: `Sign in is two steps:
  foodcourt login request <phone>
  foodcourt login verify <phone> <code> [--name "Your Name"]

Numbers without a leading + get the configured country code.`,
}

var loginRequestCmd = &cobra.Command{
	Use:   "request [phone]",
	Short: "Send a one-time code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(true, func(ctx context.Context, a *app.App) error {
			if err := a.Session.RequestCode(ctx, args[0], role()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "OTP sent")
			return nil
		})
	},
}

var loginVerifyCmd = &cobra.Command{
	Use:   "verify [phone] [code]",
	Short: "Verify the code and start a session",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(true, func(ctx context.Context, a *app.App) error {
			sess, err := a.Session.VerifyCode(ctx, args[0], args[1], displayName, role())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s (%s)\n", greeting(sess), sess.Role)
			return nil
		})
	},
}

var loginCheckCmd = &cobra.Command{
	Use:   "check [phone]",
	Short: "Check whether an account exists for a phone number",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(true, func(ctx context.Context, a *app.App) error {
			res, err := a.Session.CheckIdentity(ctx, args[0], role())
			if err != nil {
				return err
			}
			if !res.Exists {
				fmt.Fprintln(cmd.OutOrStdout(), "no account yet; verify with --name to create one")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "account exists: %s\n", res.Name)
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(true, func(ctx context.Context, a *app.App) error {
			a.Session.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(true, func(ctx context.Context, a *app.App) error {
			sess, ok := a.Session.Current()
			if !ok {
				return domain.ErrNotAuthenticated
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", sess.Identity, sess.DisplayName, sess.Role)
			return nil
		})
	},
}

func init() {
	loginCmd.PersistentFlags().BoolVar(&asAdmin, "admin", false, "Sign in as food court staff")
	loginVerifyCmd.Flags().StringVar(&displayName, "name", "", "Display name for a new account")

	loginCmd.AddCommand(loginRequestCmd)
	loginCmd.AddCommand(loginVerifyCmd)
	loginCmd.AddCommand(loginCheckCmd)
}

func role() domain.Role {
	if asAdmin {
		return domain.RoleAdmin
	}
	return domain.RoleCustomer
}

func greeting(s domain.Session) string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.Identity
}
