package app

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ggonzalez94/arbchat/internal/scan"
)

func (s *runtimeState) newScanCommand() *cobra.Command {
	root := &cobra.Command{Use: "scan", Short: "Background price scanning"}

	var limit int
	recentCmd := &cobra.Command{
		Use:   "recent",
		Short: "Print the most recent price observations, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			scans, err := s.store.Scans(limit)
			if err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), scans, nil)
		},
	}
	recentCmd.Flags().IntVar(&limit, "limit", 0, "Maximum observations to return (default: full window)")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the price feed on the scan interval until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			scanner := scan.New(s.oracle, s.store, s.logger, s.settings.ScanInterval, s.settings.ScanWindow)
			scanner.Run(ctx)

			return s.emitSuccess(trimRootPath(cmd.CommandPath()), scanner.Recent(0), nil)
		},
	}

	root.AddCommand(recentCmd)
	root.AddCommand(watchCmd)
	return root
}
