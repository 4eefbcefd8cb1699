package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NiceneNerd/hypostasis"
	"github.com/NiceneNerd/hypostasis/internal/ui"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit int
		pairs bool
		stats bool
	)

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: MsgHistoryShort,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.Ledger.Enabled {
				return errors.New(MsgErrLedgerOff)
			}
			ledger, err := hypostasis.OpenLedger(a.cfg.Ledger.Path)
			if err != nil {
				return fmt.Errorf(MsgErrOpenLedger, err)
			}
			defer ledger.Close()

			if stats {
				st, err := ledger.Stats()
				if err != nil {
					return fmt.Errorf(MsgErrReadLedger, err)
				}
				r, err := a.renderer(cmd, ui.Options{})
				if err != nil {
					return err
				}
				return r.RenderStats(st)
			}

			if len(args) == 1 {
				run, ok, err := ledger.Run(args[0])
				if err != nil {
					return fmt.Errorf(MsgErrReadLedger, err)
				}
				if !ok {
					return fmt.Errorf(MsgErrUnknownRun, args[0])
				}
				files, err := ledger.RunFiles(run.ID)
				if err != nil {
					return fmt.Errorf(MsgErrReadLedger, err)
				}
				r, err := a.renderer(cmd, ui.Options{Root: run.Root, Pairs: pairs})
				if err != nil {
					return err
				}
				return r.RenderRun(run, files)
			}

			runs, err := ledger.Runs()
			if err != nil {
				return fmt.Errorf(MsgErrReadLedger, err)
			}
			if limit > 0 && len(runs) > limit {
				runs = runs[:limit]
			}
			r, err := a.renderer(cmd, ui.Options{})
			if err != nil {
				return err
			}
			return r.RenderHistory(runs)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, MsgFlagLimit)
	cmd.Flags().BoolVar(&pairs, "pairs", false, MsgFlagPairs)
	cmd.Flags().BoolVar(&stats, "stats", false, MsgFlagStats)

	return cmd
}
