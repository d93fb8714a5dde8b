package cli

import (
	"context"

	"github.com/spf13/cobra"

	goGuard "github.com/MrEthical07/goGuard"
)

func newBlockStatusCommand(opts *options) *cobra.Command {
	var (
		watch          bool
		untilUnblocked bool
	)

	cmd := &cobra.Command{
		Use:   "block-status <email>",
		Short: "Show the backend's lockout state for an identifier",
		Long: `Fetch the lockout counters the backend keeps for an identifier and print
them as JSON. With --watch the status is re-polled every
block_status.interval and each result is printed as one JSON document;
--until-unblocked stops watching once the identifier is no longer blocked.

Example:
  goguard block-status user@example.com --watch --until-unblocked`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, cleanup, err := opts.buildEngine(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := opts.requestContext(cmd.Context())
			if !watch {
				st, err := engine.BlockStatus(ctx, args[0])
				if err != nil {
					return reportError(cmd.OutOrStdout(), err)
				}
				return writeJSON(cmd.OutOrStdout(), st)
			}
			return watchBlockStatus(ctx, cmd, engine, args[0], untilUnblocked)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "keep polling and print every update")
	cmd.Flags().BoolVar(&untilUnblocked, "until-unblocked", false, "with --watch, exit once the identifier is not blocked")
	return cmd
}

func watchBlockStatus(ctx context.Context, cmd *cobra.Command, engine *goGuard.Engine, identifier string, untilUnblocked bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan goGuard.BlockStatus, 1)
	m, err := engine.WatchBlockStatus(ctx, identifier, func(st goGuard.BlockStatus) {
		select {
		case updates <- st:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return err
	}
	defer func() {
		cancel()
		m.Stop()
		m.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case st := <-updates:
			if err := writeJSON(cmd.OutOrStdout(), st); err != nil {
				return err
			}
			if untilUnblocked && !st.IsBlocked {
				return nil
			}
		}
	}
}
