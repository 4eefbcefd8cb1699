package hypostasis

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	bucketRuns     = "runs"
	bucketRunIDs   = "run_ids"
	bucketFiles    = "files"
	bucketRunFiles = "run_files"
)

// RunRecord summarizes one batch run.
type RunRecord struct {
	ID              string    `msgpack:"id" json:"id" yaml:"id"`
	Root            string    `msgpack:"root,omitempty" json:"root,omitempty" yaml:"root,omitempty"`
	Started         time.Time `msgpack:"started" json:"started" yaml:"started"`
	Finished        time.Time `msgpack:"finished,omitempty" json:"finished" yaml:"finished"`
	RefsFingerprint uint64    `msgpack:"refs" json:"refs_fingerprint" yaml:"refs_fingerprint"`
	DryRun          bool      `msgpack:"dry,omitempty" json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Files           int       `msgpack:"files" json:"files" yaml:"files"`
	Remapped        int       `msgpack:"remapped" json:"remapped" yaml:"remapped"`
	Skipped         int       `msgpack:"skipped" json:"skipped" yaml:"skipped"`
	Failed          int       `msgpack:"failed" json:"failed" yaml:"failed"`
	Pairs           int       `msgpack:"pairs" json:"pairs" yaml:"pairs"`
}

// FileRecord is the ledger's view of one file in one run.
type FileRecord struct {
	RunID           string     `msgpack:"run" json:"run_id" yaml:"run_id"`
	Path            string     `msgpack:"path" json:"path" yaml:"path"`
	Status          FileStatus `msgpack:"status" json:"status" yaml:"status"`
	InputHash       uint64     `msgpack:"in" json:"input_hash" yaml:"input_hash"`
	OutputHash      uint64     `msgpack:"out" json:"output_hash" yaml:"output_hash"`
	RefsFingerprint uint64     `msgpack:"refs" json:"refs_fingerprint" yaml:"refs_fingerprint"`
	Backup          string     `msgpack:"backup,omitempty" json:"backup,omitempty" yaml:"backup,omitempty"`
	Pairs           []Pair     `msgpack:"pairs,omitempty" json:"pairs,omitempty" yaml:"pairs,omitempty"`
	Error           string     `msgpack:"err,omitempty" json:"error,omitempty" yaml:"error,omitempty"`
	Time            time.Time  `msgpack:"time" json:"time" yaml:"time"`
}

// Ledger is the persistent history of runs and their per-file results.
// It is safe for concurrent use.
type Ledger struct {
	store storage
}

// OpenLedger opens or creates a Bolt-backed ledger at path.
func OpenLedger(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &IOError{Op: "create ledger directory", Path: filepath.Dir(path), Err: err}
	}
	bdb, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, &IOError{Op: "open ledger", Path: path, Err: err}
	}
	return &Ledger{store: &boltStorage{db: bdb}}, nil
}

// NewMemoryLedger returns a ledger that lives only as long as the process.
func NewMemoryLedger() *Ledger {
	return &Ledger{store: newMemStorage()}
}

func (l *Ledger) Close() error {
	return l.store.Close()
}

// runKey orders runs by start time.
func runKey(rec *RunRecord) []byte {
	key := binary.BigEndian.AppendUint64(nil, uint64(rec.Started.UnixNano()))
	return append(key, rec.ID...)
}

func (l *Ledger) putRun(rec *RunRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("ledger: run has no id")
	}
	key := runKey(rec)
	return l.store.Update(func(tx storageTx) error {
		if old := tx.Get(rootBucket(bucketRunIDs), []byte(rec.ID)); old != nil && !bytes.Equal(old, key) {
			return fmt.Errorf("ledger: run %s already recorded with another start time", rec.ID)
		}
		if err := tx.Put(rootBucket(bucketRuns), key, encodeRecord(rec)); err != nil {
			return err
		}
		return tx.Put(rootBucket(bucketRunIDs), []byte(rec.ID), key)
	})
}

// BeginRun records a run that has started.
func (l *Ledger) BeginRun(rec RunRecord) error {
	return l.putRun(&rec)
}

// FinishRun replaces the run's record with its final totals. rec.ID and
// rec.Started must match the values passed to BeginRun.
func (l *Ledger) FinishRun(rec RunRecord) error {
	return l.putRun(&rec)
}

// RecordFile stores the file's result both as its latest state and under the
// run that produced it.
func (l *Ledger) RecordFile(rec FileRecord) error {
	if rec.RunID == "" {
		return fmt.Errorf("ledger: file %s has no run id", rec.Path)
	}
	value := encodeRecord(&rec)
	return l.store.Update(func(tx storageTx) error {
		if err := tx.Put(rootBucket(bucketFiles), []byte(rec.Path), value); err != nil {
			return err
		}
		return tx.Put(bucketPath{bucketRunFiles, rec.RunID}, []byte(rec.Path), value)
	})
}

// LastFile returns the most recent record for path.
func (l *Ledger) LastFile(path string) (FileRecord, bool, error) {
	var rec FileRecord
	var found bool
	err := l.store.View(func(tx storageTx) error {
		raw := tx.Get(rootBucket(bucketFiles), []byte(path))
		if raw == nil {
			return nil
		}
		found = true
		return decodeRecord(raw, &rec)
	})
	return rec, found, err
}

// Runs returns all recorded runs, newest first.
func (l *Ledger) Runs() ([]RunRecord, error) {
	var result []RunRecord
	err := l.store.View(func(tx storageTx) error {
		return tx.ForEach(rootBucket(bucketRuns), true, func(k, v []byte) error {
			var rec RunRecord
			if err := decodeRecord(v, &rec); err != nil {
				return fmt.Errorf("ledger: run %x: %w", k, err)
			}
			result = append(result, rec)
			return nil
		})
	})
	return result, err
}

// Run returns the run with the given id.
func (l *Ledger) Run(id string) (RunRecord, bool, error) {
	var rec RunRecord
	var found bool
	err := l.store.View(func(tx storageTx) error {
		key := tx.Get(rootBucket(bucketRunIDs), []byte(id))
		if key == nil {
			return nil
		}
		raw := tx.Get(rootBucket(bucketRuns), key)
		if raw == nil {
			return fmt.Errorf("ledger: run %s is indexed but missing", id)
		}
		found = true
		return decodeRecord(raw, &rec)
	})
	return rec, found, err
}

// RunFiles returns the file records of one run, ordered by path.
func (l *Ledger) RunFiles(runID string) ([]FileRecord, error) {
	var result []FileRecord
	err := l.store.View(func(tx storageTx) error {
		return tx.ForEach(bucketPath{bucketRunFiles, runID}, false, func(k, v []byte) error {
			var rec FileRecord
			if err := decodeRecord(v, &rec); err != nil {
				return fmt.Errorf("ledger: %s: %w", k, err)
			}
			result = append(result, rec)
			return nil
		})
	})
	return result, err
}
