package index

import (
	"bytes"
	"fmt"

	"github.com/cockroachdb/pebble"
)

// DB is a Persistent Index backed by an embedded Pebble store. A single DB
// is shared across every agent task in one process and is safe for
// concurrent use — Pebble is internally synchronized and the typed helpers
// built on top take no additional locks, per spec section 5.
type DB struct {
	pdb *pebble.DB
}

// Open opens (creating if absent) the embedded store rooted at dir.
func Open(dir string) (*DB, error) {
	pdb, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("index: open %s: %w", dir, err)
	}
	return &DB{pdb: pdb}, nil
}

// Close releases the backing store.
func (db *DB) Close() error {
	return db.pdb.Close()
}

// StoreEncodable writes value under (entity, prefix, key), overwriting any
// existing entry.
func (db *DB) StoreEncodable(entity string, prefix Prefix, key, value []byte) error {
	fullKey := buildKey(entity, prefix, key)
	if err := db.pdb.Set(fullKey, value, pebble.Sync); err != nil {
		return wrapDBError("store", err)
	}
	return nil
}

// RetrieveEncodable reads the value stored under (entity, prefix, key). It
// returns ErrNotFound (not a Pebble-specific error) when absent so callers
// never need to import Pebble to check presence.
func (db *DB) RetrieveEncodable(entity string, prefix Prefix, key []byte) ([]byte, error) {
	fullKey := buildKey(entity, prefix, key)
	val, closer, err := db.pdb.Get(fullKey)
	if err == pebble.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrapDBError("retrieve", err)
	}
	defer closer.Close()
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

// Exists reports whether a value is stored under (entity, prefix, key).
func (db *DB) Exists(entity string, prefix Prefix, key []byte) (bool, error) {
	_, err := db.RetrieveEncodable(entity, prefix, key)
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// KV is one (key suffix, value) pair returned by PrefixScan; key is the
// portion of the stored key after the entity/prefix scope.
type KV struct {
	Key   []byte
	Value []byte
}

// PrefixScan returns every entry stored under (entity, prefix), in
// ascending key order, as Pebble's LSM iterator naturally provides.
func (db *DB) PrefixScan(entity string, prefix Prefix) ([]KV, error) {
	lower := scanPrefix(entity, prefix)
	upper := prefixUpperBound(lower)

	iter, err := db.pdb.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, wrapDBError("scan", err)
	}
	defer iter.Close()

	var out []KV
	for valid := iter.First(); valid; valid = iter.Next() {
		key := iter.Key()
		if !bytes.HasPrefix(key, lower) {
			continue
		}
		suffix := make([]byte, len(key)-len(lower))
		copy(suffix, key[len(lower):])
		val := iter.Value()
		valCopy := make([]byte, len(val))
		copy(valCopy, val)
		out = append(out, KV{Key: suffix, Value: valCopy})
	}
	if err := iter.Error(); err != nil {
		return nil, wrapDBError("scan", err)
	}
	return out, nil
}
