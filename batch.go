package hypostasis

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const DefaultBackupExt = ".bak"

type BatchOptions struct {
	// Workers bounds the number of files processed at once. Zero means one
	// per CPU.
	Workers int
	// BackupExt is appended to a file's path to name its backup. Defaults to
	// DefaultBackupExt.
	BackupExt string
	// Force processes files even if the ledger shows they are already our
	// own output for the same reference set.
	Force bool
	// DryRun computes remap tables without writing anything.
	DryRun bool
	// KeepOwnID is passed to the Remapper.
	KeepOwnID bool
	// Root is recorded in the ledger as the project the run was for.
	Root string
	// Ledger is optional.
	Ledger *Ledger
	// Logger defaults to a disabled logger.
	Logger zerolog.Logger
}

// Batch remaps a set of independent files. Failures are collected per file;
// one file's failure never stops the others.
type Batch struct {
	opts     BatchOptions
	refs     *ReferenceSet
	refsFP   uint64
	remapper *Remapper
	log      zerolog.Logger
}

func NewBatch(refs *ReferenceSet, opts BatchOptions) (*Batch, error) {
	if refs == nil {
		return nil, ErrNoReferenceSet
	}
	if opts.BackupExt == "" {
		opts.BackupExt = DefaultBackupExt
	}
	return &Batch{
		opts:     opts,
		refs:     refs,
		refsFP:   refs.Fingerprint(),
		remapper: &Remapper{Refs: refs, KeepOwnID: opts.KeepOwnID},
		log:      opts.Logger.With().Str("component", "batch").Logger(),
	}, nil
}

// Run processes paths with a bounded worker pool. Once ctx is cancelled, files
// that have not started are reported as cancelled; files in flight finish.
func (b *Batch) Run(ctx context.Context, paths []string) *Report {
	rep := &Report{RunID: uuid.NewString(), Started: time.Now(), DryRun: b.opts.DryRun}
	log := b.log.With().Str("run", rep.RunID).Logger()
	log.Info().Int("files", len(paths)).Bool("dry_run", b.opts.DryRun).Msg("Batch started")

	run := RunRecord{
		ID:              rep.RunID,
		Root:            b.opts.Root,
		Started:         rep.Started,
		RefsFingerprint: b.refsFP,
		DryRun:          b.opts.DryRun,
	}
	ledger := b.opts.Ledger
	if ledger != nil {
		if err := ledger.BeginRun(run); err != nil {
			log.Error().Err(err).Msg("Failed to record run, continuing without ledger")
			ledger = nil
		}
	}

	pool := newWorkerPool[string, FileResult](b.opts.Workers, len(paths))
	pool.Start(func(path string) FileResult {
		if ctx.Err() != nil {
			return failedResult(path, ErrCancelled)
		}
		return b.ProcessFile(path)
	})
	for _, path := range paths {
		pool.Submit(path)
	}
	pool.Close()

	for res := range pool.Results() {
		b.logResult(log, res)
		if ledger != nil && res.Status != StatusCancelled {
			if err := ledger.RecordFile(b.fileRecord(rep.RunID, res)); err != nil {
				log.Error().Err(err).Str("path", res.Path).Msg("Failed to record file")
			}
		}
		rep.Files = append(rep.Files, res)
	}
	rep.Finished = time.Now()
	rep.finish()

	if ledger != nil {
		run.Finished = rep.Finished
		run.Files = len(rep.Files)
		run.Remapped = rep.Count(StatusRemapped) + rep.Count(StatusDryRun)
		run.Skipped = rep.Count(StatusSkipped)
		run.Failed = len(rep.Failures)
		run.Pairs = len(rep.Pairs())
		if err := ledger.FinishRun(run); err != nil {
			log.Error().Err(err).Msg("Failed to record run totals")
		}
	}
	log.Info().
		Int("files", len(rep.Files)).
		Int("failed", len(rep.Failures)).
		Int("pairs", len(rep.Pairs())).
		Dur("duration", rep.Finished.Sub(rep.Started)).
		Msg("Batch finished")
	return rep
}

func (b *Batch) logResult(log zerolog.Logger, res FileResult) {
	switch res.Status {
	case StatusFailed:
		log.Warn().Str("path", res.Path).Str("stage", string(res.Stage)).Str("error", res.Error).Msg("File failed")
	case StatusCancelled:
		log.Debug().Str("path", res.Path).Msg("File cancelled")
	default:
		ev := log.Debug()
		if len(res.Collisions) > 0 {
			ev = log.Warn().Int("collisions", len(res.Collisions))
		}
		ev.Str("path", res.Path).Str("status", string(res.Status)).Int("pairs", len(res.Pairs)).Msg("File processed")
	}
}

func (b *Batch) fileRecord(runID string, res FileResult) FileRecord {
	return FileRecord{
		RunID:           runID,
		Path:            res.Path,
		Status:          res.Status,
		InputHash:       res.inputHash,
		OutputHash:      res.outputHash,
		RefsFingerprint: b.refsFP,
		Backup:          res.Backup,
		Pairs:           res.Pairs,
		Error:           res.Error,
		Time:            time.Now(),
	}
}

// ProcessFile runs the whole pipeline for one file. The file is rewritten only
// after every earlier stage has succeeded and its backup exists.
func (b *Batch) ProcessFile(path string) FileResult {
	fi, err := os.Stat(path)
	if err != nil {
		return failedResult(path, &StageError{StageRead, &IOError{Op: "stat", Path: path, Err: err}})
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return failedResult(path, &StageError{StageRead, &IOError{Op: "read", Path: path, Err: err}})
	}
	inputHash := xxhash.Sum64(data)

	var last *FileRecord
	if b.opts.Ledger != nil {
		rec, ok, err := b.opts.Ledger.LastFile(path)
		if err != nil {
			b.log.Warn().Err(err).Str("path", path).Msg("Ledger lookup failed")
		} else if ok {
			last = &rec
		}
	}
	if last != nil && !b.opts.Force && !b.opts.DryRun && b.isOwnOutput(*last, inputHash) {
		return FileResult{Path: path, Status: StatusSkipped, Backup: last.Backup, inputHash: inputHash, outputHash: inputHash}
	}

	out, err := b.remapper.TransformFile(path, data)
	if err != nil {
		return failedResult(path, err)
	}
	res := FileResult{
		Path:       path,
		Pairs:      out.Table.Pairs(),
		Collisions: Collisions(out.Table, b.refs),
		inputHash:  inputHash,
		outputHash: xxhash.Sum64(out.Data),
	}
	switch {
	case len(out.Table) == 0:
		res.Status = StatusUnchanged
		return res
	case b.opts.DryRun:
		res.Status = StatusDryRun
		res.outputHash = inputHash
		return res
	}

	backup := path + b.opts.BackupExt
	if err := b.backUp(path, backup, data, fi.Mode().Perm(), last); err != nil {
		return failedResult(path, &StageError{StageBackup, err})
	}
	res.Backup = backup

	if err := writeFileAtomic(path, out.Data, fi.Mode().Perm()); err != nil {
		return failedResult(path, &StageError{StageWrite, &IOError{Op: "write", Path: path, Err: err}})
	}
	res.Status = StatusRemapped
	return res
}

// backUp makes sure backup holds data before path is overwritten. An existing
// backup is kept when it already holds data, or when the ledger shows that
// data is what we wrote last time next to this backup. Any other backup is
// moved aside to the next free numbered name first.
func (b *Batch) backUp(path, backup string, data []byte, perm fs.FileMode, last *FileRecord) error {
	current, err := os.ReadFile(backup)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return &IOError{Op: "read backup", Path: backup, Err: err}
	case bytes.Equal(current, data):
		return nil
	case last != nil && last.Backup == backup && last.OutputHash == xxhash.Sum64(data):
		return nil
	default:
		rotated, err := rotateFile(backup)
		if err != nil {
			return &IOError{Op: "rotate backup", Path: backup, Err: err}
		}
		b.log.Info().Str("path", path).Str("backup", rotated).Msg("Moved stale backup aside")
	}
	if err := writeFileAtomic(backup, data, perm); err != nil {
		return &IOError{Op: "write backup", Path: backup, Err: err}
	}
	return nil
}

// isOwnOutput reports whether the file's current content is exactly what an
// earlier run wrote (or left alone) for the same reference set.
func (b *Batch) isOwnOutput(rec FileRecord, inputHash uint64) bool {
	if rec.RefsFingerprint != b.refsFP || rec.OutputHash != inputHash {
		return false
	}
	return rec.Status == StatusRemapped || rec.Status == StatusUnchanged || rec.Status == StatusSkipped
}
