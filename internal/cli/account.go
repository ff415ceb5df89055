package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/savebridge/internal/platform"
)

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account management commands",
	}

	cmd.AddCommand(newAccountRegisterCmd())
	cmd.AddCommand(newAccountSignInCmd())
	cmd.AddCommand(newAccountSignOutCmd())
	cmd.AddCommand(newAccountMeCmd())

	return cmd
}

func newAccountRegisterCmd() *cobra.Command {
	var name, user, pass string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := getBridge(cmd)
			if err != nil {
				return err
			}

			creds := platform.Credentials{Username: user, Password: pass}
			if err := b.Platform.Register(cmd.Context(), creds, name); err != nil {
				return err
			}

			// Save token
			if err := cfg.SaveToken(b.Platform.Token()); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			output(cmd).Print(accountResult(b.Platform.LocalUser(), ""))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (defaults to the username)")
	cmd.Flags().StringVar(&user, "user", "", "Username (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newAccountSignInCmd() *cobra.Command {
	var user, pass string

	cmd := &cobra.Command{
		Use:     "signin",
		Aliases: []string{"login"},
		Short:   "Sign in with an existing account",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := getBridge(cmd)
			if err != nil {
				return err
			}

			if err := b.Manager.SignIn(cmd.Context(), platform.Credentials{Username: user, Password: pass}); err != nil {
				return err
			}

			// Save token
			if err := cfg.SaveToken(b.Platform.Token()); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			output(cmd).Print(accountResult(b.Platform.LocalUser(), b.Manager.Status()))
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Username (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newAccountSignOutCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "signout",
		Aliases: []string{"logout"},
		Short:   "Sign out and forget the saved token",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := getBridge(cmd)
			if err != nil {
				return err
			}

			if err := b.Manager.SignOut(cmd.Context()); err != nil {
				return err
			}
			if err := cfg.ClearToken(); err != nil {
				return fmt.Errorf("failed to remove token: %w", err)
			}

			output(cmd).Print(accountResult(b.Platform.LocalUser(), b.Manager.Status()))
			return nil
		},
	}
}

func newAccountMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the signed in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := getBridge(cmd)
			if err != nil {
				return err
			}

			output(cmd).Print(accountResult(b.Platform.LocalUser(), ""))
			return nil
		},
	}
}

func accountResult(user platform.LocalUser, status string) AccountResult {
	return AccountResult{
		ID:          string(user.ID),
		DisplayName: user.DisplayName,
		SignedIn:    user.Authenticated,
		Status:      status,
	}
}
