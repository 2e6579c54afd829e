// Package store provides the durable key-value persistence used by the
// threshold signing engine for DKG intermediates, finalized key packages,
// and single-use signing nonces.
package store

import (
	"fmt"

	"github.com/btcsuite/btclog"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/btcbridge/tse-core/bridgeerr"
)

// log is a logger that is initialized with no output filters. This means
// the package will not perform any logging by default until the caller
// requests it.
var log btclog.Logger

// UseLogger uses a specified Logger to output package logging info.
func UseLogger(logger btclog.Logger) {
	log = logger
}

func init() {
	DisableLog()
}

// DisableLog disables all library log output. Logging output is disabled
// by default until either UseLogger is called.
func DisableLog() {
	log = btclog.Disabled
}

// DefaultPath is the default on-disk location of the store, matching the
// fixed path used by the reference core's embedded database.
const DefaultPath = "/state/nonces_db"

// Key namespace prefixes, one per §4.1 record type.
const (
	prefixRound1       = "r1_"
	prefixRound2       = "r2_"
	prefixKeyPackage   = "keypkg_"
	prefixPubKeyPkg    = "pubkeypkg_"
	prefixSignNonces   = "nonces_"
)

// tombstone marks a logically-deleted key. goleveldb's Delete is already
// atomic per key, but Put-then-Delete-then-Get races are possible across
// snapshots taken by concurrent readers; writing a zero-length tombstone
// instead of relying solely on Delete satisfies the "at least overwrite
// with a sentinel" requirement so a stale snapshot never observes a
// consumed nonce as present.
var tombstone = []byte{}

// Store is a process-wide durable key-value store. It is safe for
// concurrent use by multiple goroutines; goleveldb serializes writes to
// the same key internally, and disjoint keys never block each other.
type Store struct {
	db *leveldb.DB
}

// Open opens (creating if necessary) a Store at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindGeneral, "open store", err)
	}
	log.Infof("opened nonce/key store at %s", path)
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put overwrites key with value.
func (s *Store) Put(key string, value []byte) error {
	if err := s.db.Put([]byte(key), value, nil); err != nil {
		return bridgeerr.Wrap(bridgeerr.KindGeneral, fmt.Sprintf("put %s", key), err)
	}
	return nil
}

// Get returns the value for key, or (nil, false) if absent or tombstoned.
func (s *Store) Get(key string) ([]byte, bool, error) {
	val, err := s.db.Get([]byte(key), nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, bridgeerr.Wrap(bridgeerr.KindGeneral, fmt.Sprintf("get %s", key), err)
	}
	if len(val) == 0 {
		return nil, false, nil
	}
	return val, true, nil
}

// Delete removes key. For backends where delete-then-read could race
// against an in-flight snapshot, DeleteOrTombstone is preferred for
// single-use records such as signing nonces.
func (s *Store) Delete(key string) error {
	if err := s.db.Delete([]byte(key), nil); err != nil {
		return bridgeerr.Wrap(bridgeerr.KindGeneral, fmt.Sprintf("delete %s", key), err)
	}
	return nil
}

// DeleteOrTombstone consumes key exactly once: it first overwrites the
// record with a zero-length tombstone and then deletes it, so a
// subsequent Get reports absence; if the delete fails, the tombstone is
// what remains and Get still reports absence. Used to enforce single-use
// nonce semantics (§8 property 3).
func (s *Store) DeleteOrTombstone(key string) error {
	if err := s.Put(key, tombstone); err != nil {
		return err
	}
	return s.Delete(key)
}

// Key helpers, one per §4.1 namespace.

func Round1Key(idHex string) string     { return prefixRound1 + idHex }
func Round2Key(idHex string) string     { return prefixRound2 + idHex }
func KeyPackageKey(idHex string) string { return prefixKeyPackage + idHex }
func PubKeyPkgKey(idHex string) string  { return prefixPubKeyPkg + idHex }
func NoncesKey(idHex string) string     { return prefixSignNonces + idHex }
