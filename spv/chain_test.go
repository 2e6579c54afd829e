package spv

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

// buildChain constructs a six-header chain with correct linkage and
// correct claimed hashes, suitable as a base fixture for both the
// happy-path test and its mutated variants.
func buildChain(t *testing.T) []HeaderInput {
	t.Helper()

	blocks := make([]HeaderInput, ChainLength)
	var parent chainhash.Hash
	for i := 0; i < ChainLength; i++ {
		h := wire.BlockHeader{
			Version:    1,
			PrevBlock:  parent,
			MerkleRoot: chainhash.Hash{byte(i), 0xAA},
			Timestamp:  time.Unix(1700000000+int64(i*600), 0),
			Bits:       0x1d00ffff,
			Nonce:      uint32(i),
		}
		hash := h.BlockHash()
		blocks[i] = HeaderInput{
			Version:    h.Version,
			ParentHash: parent,
			MerkleRoot: h.MerkleRoot,
			Timestamp:  uint32(h.Timestamp.Unix()),
			Bits:       h.Bits,
			Nonce:      h.Nonce,
			BlockHash:  hash,
		}
		parent = hash
	}
	return blocks
}

// TestVerifyHeaderChainHappyPath is property 5 / scenario E1-class: a
// correctly linked, correctly hashed six-block chain verifies.
func TestVerifyHeaderChainHappyPath(t *testing.T) {
	blocks := buildChain(t)
	require.NoError(t, VerifyHeaderChain(blocks))
}

// TestVerifyHeaderChainWrongLength is property 5's length invariant.
func TestVerifyHeaderChainWrongLength(t *testing.T) {
	blocks := buildChain(t)
	require.Error(t, VerifyHeaderChain(blocks[:5]))
	require.Error(t, VerifyHeaderChain(append(blocks, blocks[5])))
}

// TestVerifyHeaderChainHashMismatch is scenario E6: flipping bits in one
// header's claimed hash (here every bit of block 2's first byte) must
// abort with a mismatch naming that block.
func TestVerifyHeaderChainHashMismatch(t *testing.T) {
	blocks := buildChain(t)
	blocks[2].BlockHash[0] ^= 0xFF
	err := VerifyHeaderChain(blocks)
	require.Error(t, err)
	require.ErrorContains(t, err, "block 2")
}

// TestVerifyHeaderChainBrokenLinkage is scenario E6's parent-linkage case:
// block 3 is internally self-consistent (its claimed hash matches its own
// recomputed hash) but its parent_hash does not match block 2's hash.
func TestVerifyHeaderChainBrokenLinkage(t *testing.T) {
	blocks := buildChain(t)

	badParent := blocks[3].ParentHash
	badParent[0] ^= 0xFF

	h := wire.BlockHeader{
		Version:    blocks[3].Version,
		PrevBlock:  badParent,
		MerkleRoot: blocks[3].MerkleRoot,
		Timestamp:  time.Unix(int64(blocks[3].Timestamp), 0),
		Bits:       blocks[3].Bits,
		Nonce:      blocks[3].Nonce,
	}
	blocks[3].ParentHash = badParent
	blocks[3].BlockHash = h.BlockHash()

	err := VerifyHeaderChain(blocks)
	require.Error(t, err)
	require.ErrorContains(t, err, "block 3")
	require.ErrorContains(t, err, "parent_hash")
}
