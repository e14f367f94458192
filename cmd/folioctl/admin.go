package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	webhandler "github.com/ericfisherdev/folio/internal/adapter/driving/web"
)

var errNoIdentityProvider = errors.New("no identity provider: FOLIO_BACKEND is none")

func newSetAdminCmd(current func() *app) *cobra.Command {
	var revoke bool

	cmd := &cobra.Command{
		Use:   "set-admin <user-id-or-email>",
		Short: "Grant or revoke the admin role",
		Long: `Grants the admin role claim to a user, addressed by id or email.
With the sqlite backend an unknown email is registered so its first sign-in
already carries the role. The supabase backend needs FOLIO_SUPABASE_SERVICE_KEY.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			if a.identity == nil {
				return errNoIdentityProvider
			}

			user := args[0]
			if revoke {
				if err := a.auth.Demote(cmd.Context(), user); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "admin role revoked for %s\n", user)
				return nil
			}

			if err := a.auth.Promote(cmd.Context(), user); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin role granted to %s\n", user)
			return nil
		},
	}
	cmd.Flags().BoolVar(&revoke, "revoke", false, "remove the admin role instead of granting it")
	return cmd
}

func newSendLinkCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "send-link <email>",
		Short: "Issue a magic sign-in link",
		Long: `Asks the identity provider to deliver a sign-in link. With the sqlite
backend the link is written to the log instead of being mailed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			if a.identity == nil {
				return errNoIdentityProvider
			}

			redirect := a.cfg.PublicURL + webhandler.CallbackPath
			if err := a.auth.RequestMagicLink(cmd.Context(), args[0], redirect); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sign-in link issued for %s\n", args[0])
			return nil
		},
	}
}
