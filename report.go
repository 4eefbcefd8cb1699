package hypostasis

import (
	"cmp"
	"errors"
	"slices"
	"time"
)

// FileStatus is the outcome of processing one file.
type FileStatus string

const (
	StatusRemapped  FileStatus = "remapped"
	StatusUnchanged FileStatus = "unchanged"
	StatusDryRun    FileStatus = "dry-run"
	StatusSkipped   FileStatus = "skipped"
	StatusFailed    FileStatus = "failed"
	StatusCancelled FileStatus = "cancelled"
	StatusRestored  FileStatus = "restored"
)

// Succeeded reports whether the file went through the whole pipeline.
func (s FileStatus) Succeeded() bool {
	switch s {
	case StatusRemapped, StatusUnchanged, StatusDryRun, StatusRestored:
		return true
	default:
		return false
	}
}

type FileResult struct {
	Path       string      `json:"path" yaml:"path"`
	Status     FileStatus  `json:"status" yaml:"status"`
	Pairs      []Pair      `json:"pairs,omitempty" yaml:"pairs,omitempty"`
	Collisions []Collision `json:"collisions,omitempty" yaml:"collisions,omitempty"`
	Backup     string      `json:"backup,omitempty" yaml:"backup,omitempty"`
	Stage      Stage       `json:"stage,omitempty" yaml:"stage,omitempty"`
	Error      string      `json:"error,omitempty" yaml:"error,omitempty"`

	Err *FileError `json:"-" yaml:"-"`

	inputHash  uint64
	outputHash uint64
}

func failedResult(path string, err error) FileResult {
	fe := fileErr(path, err)
	status := StatusFailed
	if errors.Is(err, ErrCancelled) {
		status = StatusCancelled
	}
	return FileResult{Path: path, Status: status, Stage: fe.Stage, Error: fe.Cause(), Err: fe}
}

// Report aggregates the results of a batch or restore run. Files are sorted
// by path.
type Report struct {
	RunID    string       `json:"run_id" yaml:"run_id"`
	Started  time.Time    `json:"started" yaml:"started"`
	Finished time.Time    `json:"finished" yaml:"finished"`
	DryRun   bool         `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Files    []FileResult `json:"files" yaml:"files"`

	Failures []*FileError `json:"-" yaml:"-"`
}

// finish orders the files by path and collects their failures.
func (r *Report) finish() {
	slices.SortStableFunc(r.Files, func(a, b FileResult) int { return cmp.Compare(a.Path, b.Path) })
	r.Failures = nil
	for _, f := range r.Files {
		if f.Err != nil {
			r.Failures = append(r.Failures, f.Err)
		}
	}
}

// Pairs returns every (old, new) substitution across all files, without
// duplicates, sorted by old then new identifier.
func (r *Report) Pairs() []Pair {
	seen := make(map[Pair]struct{})
	var result []Pair
	for _, f := range r.Files {
		for _, p := range f.Pairs {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			result = append(result, p)
		}
	}
	slices.SortFunc(result, comparePairs)
	return result
}

func (r *Report) filter(pred func(FileResult) bool) []FileResult {
	var result []FileResult
	for _, f := range r.Files {
		if pred(f) {
			result = append(result, f)
		}
	}
	return result
}

func (r *Report) Succeeded() []FileResult {
	return r.filter(func(f FileResult) bool { return f.Status.Succeeded() })
}

func (r *Report) Skipped() []FileResult {
	return r.filter(func(f FileResult) bool { return f.Status == StatusSkipped })
}

// Count returns the number of files with the given status.
func (r *Report) Count(status FileStatus) int {
	return len(r.filter(func(f FileResult) bool { return f.Status == status }))
}

// Collisions returns the number of colliding identifiers across all files.
func (r *Report) Collisions() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Collisions)
	}
	return n
}

// Err joins all per-file failures, or returns nil if there were none.
func (r *Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}
