// Package spv implements the deterministic Bitcoin-side verification steps
// that run ahead of a zkVM guest: header-chain consistency (C5), Merkle
// inclusion (C6), and deposit/burn output analysis (C7). Nothing here
// touches proof-of-work difficulty — callers that need that must check it
// themselves; this package only checks hash linkage and arithmetic.
package spv

import (
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/btcbridge/tse-core/bridgecfg"
	"github.com/btcbridge/tse-core/bridgeerr"
)

// ChainLength is the fixed number of headers a bridge proof must supply.
const ChainLength = bridgecfg.ExpectedChainLength

// HeaderInput is one block header as supplied by the host, plus the
// claimed hash the host computed for it. VerifyHeaderChain recomputes the
// hash independently and never trusts BlockHash.
type HeaderInput struct {
	Version    int32
	ParentHash chainhash.Hash
	MerkleRoot chainhash.Hash
	Timestamp  uint32
	Bits       uint32
	Nonce      uint32
	BlockHash  chainhash.Hash
}

// wireHeader reconstructs the canonical 80-byte Bitcoin block header.
func (h HeaderInput) wireHeader() *wire.BlockHeader {
	return &wire.BlockHeader{
		Version:    h.Version,
		PrevBlock:  h.ParentHash,
		MerkleRoot: h.MerkleRoot,
		Timestamp:  time.Unix(int64(h.Timestamp), 0),
		Bits:       h.Bits,
		Nonce:      h.Nonce,
	}
}

// VerifyHeaderChain checks that blocks is exactly ChainLength headers long,
// that each header's claimed hash matches its recomputed double-SHA-256
// hash, and that each header's parent_hash links to the previous header's
// recomputed hash. It deliberately does not check proof-of-work against a
// difficulty target.
func VerifyHeaderChain(blocks []HeaderInput) error {
	if len(blocks) != ChainLength {
		return bridgeerr.New(bridgeerr.KindChainLength, "header chain must contain exactly six blocks")
	}

	var prevHash chainhash.Hash
	for i, b := range blocks {
		computed := b.wireHeader().BlockHash()
		if computed != b.BlockHash {
			return bridgeerr.New(bridgeerr.KindHeaderMismatch, headerMismatchMsg(i, b.BlockHash, computed))
		}
		if i >= 1 && b.ParentHash != prevHash {
			return bridgeerr.New(bridgeerr.KindHeaderLinkage, headerLinkageMsg(i, b.ParentHash, prevHash))
		}
		prevHash = computed
	}
	log.Debugf("verified header chain, tip %s", prevHash)
	return nil
}

func headerMismatchMsg(index int, claimed, computed chainhash.Hash) string {
	return fmt.Sprintf("block %d: claimed hash %s does not match computed hash %s", index, claimed, computed)
}

func headerLinkageMsg(index int, parent, prevComputed chainhash.Hash) string {
	return fmt.Sprintf("block %d: parent_hash %s does not match previous block's computed hash %s", index, parent, prevComputed)
}
