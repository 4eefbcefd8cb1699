package hypostasis

import (
	"go.etcd.io/bbolt"
)

type boltStorage struct {
	db *bbolt.DB
}

func (s *boltStorage) Update(fn func(tx storageTx) error) error {
	return s.db.Update(func(btx *bbolt.Tx) error { return fn(boltTx{btx}) })
}

func (s *boltStorage) View(fn func(tx storageTx) error) error {
	return s.db.View(func(btx *bbolt.Tx) error { return fn(boltTx{btx}) })
}

func (s *boltStorage) Close() error {
	return s.db.Close()
}

type boltTx struct {
	btx *bbolt.Tx
}

func (t boltTx) bucket(p bucketPath) *bbolt.Bucket {
	b := t.btx.Bucket([]byte(p.name))
	if b == nil || p.sub == "" {
		return b
	}
	return b.Bucket([]byte(p.sub))
}

func (t boltTx) Get(p bucketPath, key []byte) []byte {
	if b := t.bucket(p); b != nil {
		return b.Get(key)
	}
	return nil
}

func (t boltTx) Put(p bucketPath, key, value []byte) error {
	b, err := t.btx.CreateBucketIfNotExists([]byte(p.name))
	if err != nil {
		return err
	}
	if p.sub != "" {
		if b, err = b.CreateBucketIfNotExists([]byte(p.sub)); err != nil {
			return err
		}
	}
	return b.Put(key, value)
}

func (t boltTx) ForEach(p bucketPath, reverse bool, fn func(key, value []byte) error) error {
	b := t.bucket(p)
	if b == nil {
		return nil
	}
	c := b.Cursor()
	first, next := c.First, c.Next
	if reverse {
		first, next = c.Last, c.Prev
	}
	for k, v := first(); k != nil; k, v = next() {
		// nested buckets have nil values
		if v == nil {
			continue
		}
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return nil
}
