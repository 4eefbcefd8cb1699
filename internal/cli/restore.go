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
	"github.com/NiceneNerd/hypostasis/internal/ui"
)

func newRestoreCmd(a *app) *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:         "restore [project]",
		Short:       MsgRestoreShort,
		Args:        cobra.MaximumNArgs(1),
		Annotations: projectAnnotation,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			var (
				paths []string
				root  string
				err   error
			)
			switch {
			case runID != "":
				paths, root, err = runPaths(a, runID)
			case len(args) == 1:
				root, err = filepath.Abs(args[0])
				if err == nil {
					paths, err = backedUpPaths(root, cfg.Remap.Pattern, cfg.Remap.BackupExt)
				}
			default:
				return errors.New(MsgErrRestoreInput)
			}
			if err != nil {
				return err
			}

			r, err := a.renderer(cmd, ui.Options{Root: root})
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return r.RenderMessage(fmt.Sprintf(MsgNoBackups, root))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			rep := hypostasis.Restore(ctx, paths, hypostasis.RestoreOptions{
				BackupExt: cfg.Remap.BackupExt,
				DryRun:    cfg.Remap.DryRun,
				Logger:    log.Logger,
			})
			if err := r.RenderReport(rep); err != nil {
				return err
			}
			if len(rep.Failures) > 0 {
				return fmt.Errorf(MsgErrFilesFailed, len(rep.Failures), len(rep.Files))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", MsgFlagRun)
	cmd.Flags().String("backup-ext", "", MsgFlagBackupExt)
	cmd.Flags().String("pattern", "", MsgFlagPattern)
	cmd.Flags().Bool("dry-run", false, MsgFlagDryRun)

	return cmd
}

// runPaths returns the files a recorded run rewrote, and the run's root.
func runPaths(a *app, runID string) ([]string, string, error) {
	if !a.cfg.Ledger.Enabled {
		return nil, "", errors.New(MsgErrLedgerOff)
	}
	ledger, err := hypostasis.OpenLedger(a.cfg.Ledger.Path)
	if err != nil {
		return nil, "", fmt.Errorf(MsgErrOpenLedger, err)
	}
	defer ledger.Close()

	run, ok, err := ledger.Run(runID)
	if err != nil {
		return nil, "", fmt.Errorf(MsgErrReadLedger, err)
	}
	if !ok {
		return nil, "", fmt.Errorf(MsgErrUnknownRun, runID)
	}
	files, err := ledger.RunFiles(runID)
	if err != nil {
		return nil, "", fmt.Errorf(MsgErrReadLedger, err)
	}
	var paths []string
	for _, f := range files {
		if f.Status == hypostasis.StatusRemapped {
			paths = append(paths, f.Path)
		}
	}
	return paths, run.Root, nil
}

// backedUpPaths returns the map units under root that have a backup.
func backedUpPaths(root, pattern, backupExt string) ([]string, error) {
	all, err := hypostasis.Discover(root, pattern)
	if err != nil {
		return nil, fmt.Errorf(MsgErrDiscover, err)
	}
	if backupExt == "" {
		backupExt = hypostasis.DefaultBackupExt
	}
	var paths []string
	for _, path := range all {
		if info, err := os.Stat(path + backupExt); err == nil && info.Mode().IsRegular() {
			paths = append(paths, path)
		}
	}
	return paths, nil
}
