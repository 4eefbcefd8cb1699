package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/NiceneNerd/hypostasis"
	"github.com/NiceneNerd/hypostasis/internal/logging"
	"github.com/NiceneNerd/hypostasis/internal/ui"
)

var projectAnnotation = map[string]string{"project": "true"}

func newRemapCmd(a *app) *cobra.Command {
	var pairs bool

	cmd := &cobra.Command{
		Use:         "remap <project>",
		Short:       MsgRemapShort,
		Args:        cobra.ExactArgs(1),
		Annotations: projectAnnotation,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			project, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			if cfg.Remap.ReferenceHashes == "" {
				return errors.New(MsgErrNoRefs)
			}
			refs, err := hypostasis.LoadReferenceSet(cfg.Remap.ReferenceHashes)
			if err != nil {
				return err
			}

			r, err := a.renderer(cmd, ui.Options{Root: project, Pairs: pairs})
			if err != nil {
				return err
			}

			done := logging.Start(logging.Get("cli"), "discover")
			paths, err := hypostasis.Discover(project, cfg.Remap.Pattern)
			done()
			if err != nil {
				return fmt.Errorf(MsgErrDiscover, err)
			}
			if len(paths) == 0 {
				return r.RenderMessage(fmt.Sprintf(MsgNoUnits, project, cfg.Remap.Pattern))
			}

			var ledger *hypostasis.Ledger
			if cfg.Ledger.Enabled {
				ledger, err = hypostasis.OpenLedger(cfg.Ledger.Path)
				if err != nil {
					return fmt.Errorf(MsgErrOpenLedger, err)
				}
				defer ledger.Close()
			}

			batch, err := hypostasis.NewBatch(refs, hypostasis.BatchOptions{
				Workers:   cfg.Remap.Workers,
				BackupExt: cfg.Remap.BackupExt,
				Force:     cfg.Remap.Force,
				DryRun:    cfg.Remap.DryRun,
				KeepOwnID: cfg.Remap.KeepOwnID,
				Root:      project,
				Ledger:    ledger,
				Logger:    log.Logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			rep := batch.Run(ctx, paths)

			if err := r.RenderReport(rep); err != nil {
				return err
			}
			if len(rep.Failures) > 0 {
				return fmt.Errorf(MsgErrFilesFailed, len(rep.Failures), len(rep.Files))
			}
			return nil
		},
	}

	cmd.Flags().String("refs", "", MsgFlagRefs)
	cmd.Flags().Int("workers", 0, MsgFlagWorkers)
	cmd.Flags().String("backup-ext", "", MsgFlagBackupExt)
	cmd.Flags().String("pattern", "", MsgFlagPattern)
	cmd.Flags().Bool("force", false, MsgFlagForce)
	cmd.Flags().Bool("dry-run", false, MsgFlagDryRun)
	cmd.Flags().Bool("keep-own-id", false, MsgFlagKeepOwnID)
	cmd.Flags().Bool("no-ledger", false, MsgFlagNoLedger)
	cmd.Flags().BoolVar(&pairs, "pairs", false, MsgFlagPairs)

	return cmd
}
