package hypostasis

// LedgerStats summarizes the contents of a ledger.
type LedgerStats struct {
	Runs int `json:"runs" yaml:"runs"`
	// Paths is the number of distinct files with a latest state.
	Paths int `json:"paths" yaml:"paths"`
	// FileRecords counts per-run file records across all runs.
	FileRecords int `json:"file_records" yaml:"file_records"`

	RunSize  int `json:"run_size" yaml:"run_size"`
	FileSize int `json:"file_size" yaml:"file_size"`
}

// TotalSize is the number of bytes taken by encoded records.
func (ls *LedgerStats) TotalSize() int {
	return ls.RunSize + ls.FileSize
}

func (l *Ledger) Stats() (LedgerStats, error) {
	var result LedgerStats
	err := l.store.View(func(tx storageTx) error {
		err := tx.ForEach(rootBucket(bucketRuns), false, func(_, v []byte) error {
			result.Runs++
			result.RunSize += len(v)
			return nil
		})
		if err != nil {
			return err
		}
		err = tx.ForEach(rootBucket(bucketFiles), false, func(_, v []byte) error {
			result.Paths++
			result.FileSize += len(v)
			return nil
		})
		if err != nil {
			return err
		}
		// run_files is only reachable through the run ids.
		return tx.ForEach(rootBucket(bucketRunIDs), false, func(runID, _ []byte) error {
			return tx.ForEach(bucketPath{bucketRunFiles, string(runID)}, false, func(_, v []byte) error {
				result.FileRecords++
				result.FileSize += len(v)
				return nil
			})
		})
	})
	return result, err
}
