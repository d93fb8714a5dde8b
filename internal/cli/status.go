package cli

import (
	"time"

	"github.com/spf13/cobra"

	goGuard "github.com/MrEthical07/goGuard"
)

type statusOutput struct {
	Authenticated  bool                 `json:"authenticated"`
	Source         string               `json:"source"`
	VerifiedAt     *time.Time           `json:"verifiedAt,omitempty"`
	User           *goGuard.UserProfile `json:"user,omitempty"`
	Admin          bool                 `json:"admin"`
	ActiveSessions *int                 `json:"activeSessions,omitempty"`
}

func newStatusCommand(opts *options) *cobra.Command {
	var skipSessions bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Verify the forwarded session and report active device sessions",
		Long: `Fetch the authoritative profile for the forwarded cookie and print the
resulting session as JSON. Unless --skip-sessions is given, the number of
sessions the backend still considers active is reported as well.

Exit codes: 0 verified, 3 not signed in or forbidden, 4 locked out,
1 any other failure.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, cleanup, err := opts.buildEngine(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := opts.requestContext(cmd.Context())
			s, err := engine.Verify(ctx)
			if err != nil {
				return reportError(cmd.OutOrStdout(), err)
			}

			out := statusOutput{
				Authenticated: s.Authenticated,
				Source:        s.Source.String(),
				User:          s.User,
			}
			if !s.VerifiedAt.IsZero() {
				at := s.VerifiedAt.UTC()
				out.VerifiedAt = &at
			}
			if s.User != nil {
				out.Admin = engine.IsAdmin(*s.User)
			}

			if !skipSessions {
				n, err := engine.SessionStatus(ctx)
				if err != nil {
					return reportError(cmd.OutOrStdout(), err)
				}
				out.ActiveSessions = &n
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().BoolVar(&skipSessions, "skip-sessions", false, "do not query the session-status endpoint")
	return cmd
}
