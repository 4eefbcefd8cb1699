package hypostasis

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type RestoreOptions struct {
	BackupExt string
	DryRun    bool
	Logger    zerolog.Logger
}

// Restore moves each file's backup back over the file. Files without a backup
// are reported as failed with ErrBackupMissing; the rest are still restored.
func Restore(ctx context.Context, paths []string, opts RestoreOptions) *Report {
	if opts.BackupExt == "" {
		opts.BackupExt = DefaultBackupExt
	}
	rep := &Report{RunID: uuid.NewString(), Started: time.Now(), DryRun: opts.DryRun}
	log := opts.Logger.With().Str("component", "restore").Str("run", rep.RunID).Logger()

	for _, path := range paths {
		if ctx.Err() != nil {
			rep.Files = append(rep.Files, failedResult(path, ErrCancelled))
			continue
		}
		res := restoreFile(path, opts)
		if res.Err != nil {
			log.Warn().Err(res.Err).Msg("Restore failed")
		} else {
			log.Debug().Str("path", path).Str("backup", res.Backup).Msg("Restored")
		}
		rep.Files = append(rep.Files, res)
	}
	rep.Finished = time.Now()
	rep.finish()
	return rep
}

func restoreFile(path string, opts RestoreOptions) FileResult {
	backup := path + opts.BackupExt
	exists, err := fileExists(backup)
	if err != nil {
		return failedResult(path, &StageError{StageRestore, &IOError{Op: "stat backup", Path: backup, Err: err}})
	}
	if !exists {
		return failedResult(path, &StageError{StageRestore, &IOError{Op: "restore", Path: backup, Err: ErrBackupMissing}})
	}
	if !opts.DryRun {
		if err := os.Rename(backup, path); err != nil {
			return failedResult(path, &StageError{StageRestore, &IOError{Op: "rename backup", Path: backup, Err: err}})
		}
	}
	return FileResult{Path: path, Status: StatusRestored, Backup: backup}
}
