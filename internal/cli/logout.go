package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var errUnconfirmedLogout = errors.New("logout-all not confirmed by backend")

type logoutOutput struct {
	RemoteConfirmed bool   `json:"remoteConfirmed"`
	Message         string `json:"message"`
	Redirect        string `json:"redirect"`
	Error           string `json:"error,omitempty"`
}

func newLogoutAllCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout-all",
		Short: "End every session of the forwarded user on all devices",
		Long: `Ask the backend to terminate every session of the user identified by the
forwarded cookie. Local cached copies are purged whatever the outcome;
remoteConfirmed reports whether the backend acknowledged the logout.
An unconfirmed logout exits with status 2.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, cleanup, err := opts.buildEngine(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := engine.LogoutAll(opts.requestContext(cmd.Context()))
			if err != nil {
				return err
			}

			out := logoutOutput{
				RemoteConfirmed: res.RemoteConfirmed,
				Message:         res.Notification,
				Redirect:        res.RedirectTarget,
			}
			if res.Err != nil {
				out.Error = res.Err.Kind.String()
			}
			if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			if !res.RemoteConfirmed {
				return &ExitError{Code: 2, Err: errUnconfirmedLogout}
			}
			return nil
		},
	}
}
