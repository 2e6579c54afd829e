package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := openTestStore(t)

	key := Round1Key("01")
	require.NoError(t, s.Put(key, []byte("payload")))

	val, ok, err := s.Get(key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("payload"), val)
}

func TestGetMissingKeyReportsAbsent(t *testing.T) {
	s := openTestStore(t)

	val, ok, err := s.Get(NoncesKey("ff"))
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, val)
}

func TestDeleteRemovesKey(t *testing.T) {
	s := openTestStore(t)

	key := KeyPackageKey("02")
	require.NoError(t, s.Put(key, []byte("kp")))
	require.NoError(t, s.Delete(key))

	_, ok, err := s.Get(key)
	require.NoError(t, err)
	require.False(t, ok)
}

// TestDeleteOrTombstoneConsumesOnce is the single-use nonce semantics
// relied on by SignRound2: after consumption, Get must report absence,
// not an empty-but-present value.
func TestDeleteOrTombstoneConsumesOnce(t *testing.T) {
	s := openTestStore(t)

	key := NoncesKey("03")
	require.NoError(t, s.Put(key, []byte("nonce-material")))
	require.NoError(t, s.DeleteOrTombstone(key))

	val, ok, err := s.Get(key)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, val)

	// Consuming an already-absent key is not an error.
	require.NoError(t, s.DeleteOrTombstone(key))
}

func TestKeyNamespacesDoNotCollide(t *testing.T) {
	s := openTestStore(t)

	idHex := "0001"
	require.NoError(t, s.Put(Round1Key(idHex), []byte("r1")))
	require.NoError(t, s.Put(Round2Key(idHex), []byte("r2")))
	require.NoError(t, s.Put(KeyPackageKey(idHex), []byte("kp")))
	require.NoError(t, s.Put(PubKeyPkgKey(idHex), []byte("pkp")))
	require.NoError(t, s.Put(NoncesKey(idHex), []byte("nonces")))

	for key, want := range map[string]string{
		Round1Key(idHex):     "r1",
		Round2Key(idHex):     "r2",
		KeyPackageKey(idHex): "kp",
		PubKeyPkgKey(idHex):  "pkp",
		NoncesKey(idHex):     "nonces",
	} {
		val, ok, err := s.Get(key)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, want, string(val))
	}
}
