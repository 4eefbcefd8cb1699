package hypostasis

import "errors"

var errStorageClosed = errors.New("ledger storage is closed")

// bucketPath names a bucket: a root bucket when sub is empty, otherwise the
// bucket sub nested under name (run_files keeps one per run).
type bucketPath struct {
	name string
	sub  string
}

func rootBucket(name string) bucketPath { return bucketPath{name: name} }

// storage is the key-value backend under the ledger, Bolt on disk or a map in
// memory. Update calls run one at a time; a failed Update leaves nothing
// behind.
type storage interface {
	Update(fn func(tx storageTx) error) error
	View(fn func(tx storageTx) error) error
	Close() error
}

// storageTx reads and writes buckets within one Update or View. Slices it
// returns are only valid until the call ends.
type storageTx interface {
	// Get returns nil if the bucket or the key does not exist.
	Get(b bucketPath, key []byte) []byte
	// Put creates the bucket (and its parent) when missing. It fails in View.
	Put(b bucketPath, key, value []byte) error
	// ForEach calls fn for every key in the bucket in ascending order, or
	// descending with reverse, until fn returns an error.
	ForEach(b bucketPath, reverse bool, fn func(key, value []byte) error) error
}
