package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/et0and/ocular/internal/auth"
)

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the account behind the cached credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cred, err := a.store().Load()
			if errors.Is(err, auth.ErrNoCredential) {
				return errors.New("not signed in; run ocular to authorize")
			}
			if err != nil {
				return err
			}
			who := "unknown account"
			if id, err := auth.ParseIdentity(cred.IDToken); err == nil {
				who = id.String()
			}
			fmt.Fprintf(a.out, "%s (credential %s)\n", who, auth.Classify(cred, time.Now()))
			return nil
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the cached credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.store().Remove(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Signed out.")
			return nil
		},
	}
}
