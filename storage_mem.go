package hypostasis

import (
	"errors"
	"slices"
	"sort"
	"sync"
)

// memStorage keeps the ledger in maps for the life of the process. Writes of
// an Update are staged and applied only when fn succeeds.
type memStorage struct {
	mu      sync.RWMutex
	buckets map[bucketPath]map[string][]byte
	closed  bool
}

func newMemStorage() *memStorage {
	return &memStorage{buckets: make(map[bucketPath]map[string][]byte)}
}

func (s *memStorage) Update(fn func(tx storageTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errStorageClosed
	}
	tx := &memTx{s: s, staged: make(map[bucketPath]map[string][]byte)}
	if err := fn(tx); err != nil {
		return err
	}
	for p, kvs := range tx.staged {
		b := s.buckets[p]
		if b == nil {
			b = make(map[string][]byte, len(kvs))
			s.buckets[p] = b
		}
		for k, v := range kvs {
			b[k] = v
		}
	}
	return nil
}

func (s *memStorage) View(fn func(tx storageTx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errStorageClosed
	}
	return fn(&memTx{s: s})
}

func (s *memStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.buckets = nil
	return nil
}

// memTx reads through its staged writes to the committed buckets. staged is
// nil in View.
type memTx struct {
	s      *memStorage
	staged map[bucketPath]map[string][]byte
}

var errReadOnlyTx = errors.New("ledger storage: write in a read-only transaction")

func (tx *memTx) Get(p bucketPath, key []byte) []byte {
	if v, ok := tx.staged[p][string(key)]; ok {
		return v
	}
	return tx.s.buckets[p][string(key)]
}

func (tx *memTx) Put(p bucketPath, key, value []byte) error {
	if tx.staged == nil {
		return errReadOnlyTx
	}
	b := tx.staged[p]
	if b == nil {
		b = make(map[string][]byte)
		tx.staged[p] = b
	}
	b[string(key)] = slices.Clone(value)
	return nil
}

func (tx *memTx) ForEach(p bucketPath, reverse bool, fn func(key, value []byte) error) error {
	committed, staged := tx.s.buckets[p], tx.staged[p]
	keys := make([]string, 0, len(committed)+len(staged))
	for k := range committed {
		keys = append(keys, k)
	}
	for k := range staged {
		if _, ok := committed[k]; !ok {
			keys = append(keys, k)
		}
	}
	if reverse {
		sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	} else {
		sort.Strings(keys)
	}
	for _, k := range keys {
		if err := fn([]byte(k), tx.Get(p, []byte(k))); err != nil {
			return err
		}
	}
	return nil
}
