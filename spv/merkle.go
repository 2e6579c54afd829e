package spv

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// MerkleProof is a sibling path plus the leaf's index-derived left/right
// bit sequence, encoded as a single position integer whose low bit drives
// the first step.
type MerkleProof struct {
	Siblings []chainhash.Hash
	Pos      uint32
}

// VerifyMerkleInclusion recomputes a Bitcoin transaction Merkle root from
// txid and proof, walking the sibling path with alternating concatenation
// order driven by the low bits of pos, and reports whether the recomputed
// root equals targetRoot. All three hashes are chainhash.Hash values,
// which already store and hash in Bitcoin's internal byte order; display
// (reversed, "TxMerkleNode::from_str"-style) byte order only matters at the
// hex-decoding boundary, handled by chainhash.NewHashFromStr /
// chainhash.Hash.String in the encoding layer above this package.
func VerifyMerkleInclusion(txid chainhash.Hash, proof MerkleProof, targetRoot chainhash.Hash) bool {
	h := txid
	pos := proof.Pos
	for _, sibling := range proof.Siblings {
		var buf [chainhash.HashSize * 2]byte
		if pos&1 == 0 {
			copy(buf[:chainhash.HashSize], h[:])
			copy(buf[chainhash.HashSize:], sibling[:])
		} else {
			copy(buf[:chainhash.HashSize], sibling[:])
			copy(buf[chainhash.HashSize:], h[:])
		}
		h = chainhash.DoubleHashH(buf[:])
		pos >>= 1
	}
	return h == targetRoot
}
