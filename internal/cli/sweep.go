package cli

import (
	"github.com/spf13/cobra"

	"github.com/eshaffer321/coolingoff/internal/application/sweep"
)

func newSweepCommand(global *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one notification sweep and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger := global.load("sweep")
			ctx := cmd.Context()

			store, err := NewStore(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			locker, closeLocker, err := NewLocker(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeLocker()

			out := cmd.OutOrStdout()
			PrintHeader(out, "sweep")

			report, err := sweep.NewSweeper(store, nil, locker, logger).Run(ctx)
			if err != nil {
				return err
			}
			PrintSweepReport(out, report)
			return nil
		},
	}
}
