// Package guest implements the two deterministic zkVM guest entrypoints
// (mint, burn) that sequence the header-chain verifier, the Merkle
// inclusion verifier, the deposit/burn analyzer, and the public-value
// encoder, aborting on any inconsistency (C9).
package guest

import (
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/btcbridge/tse-core/bridgecfg"
	"github.com/btcbridge/tse-core/bridgeerr"
	"github.com/btcbridge/tse-core/spv"
)

// Block is one header in a bundle's chain, in the same field shape a host
// would serialize from JSON before passing it into the guest's IO channel.
type Block struct {
	BlockHash  string
	Version    int32
	ParentHash string
	MerkleRoot string
	Timestamp  uint32
	Difficulty uint32
	Nonce      uint32
}

// Chain is the fixed-length header extension a bundle supplies.
type Chain struct {
	Blocks []Block
}

// MerkleProofInput is the hex-encoded sibling path, in Bitcoin's display
// byte order, plus the leaf's position.
type MerkleProofInput struct {
	Siblings []string
	Pos      uint32
}

// BundleInfo is everything a single guest invocation reads: the raw
// transaction, its Merkle inclusion proof against the first chain block,
// the six-header chain extension, and (burn only) the address the guest
// must sum outputs against.
type BundleInfo struct {
	RawTxHex        string
	MerkleProof     MerkleProofInput
	Chain           Chain
	BurnerBTCAddr   string // burn path only; empty for mint
	HasBurnerBTCAddr bool
}

// displayHashToInternal parses a hex string in Bitcoin's display (reversed)
// byte order into a chainhash.Hash, matching TxMerkleNode::from_str.
func displayHashToInternal(s string) (chainhash.Hash, error) {
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		return chainhash.Hash{}, bridgeerr.Wrap(bridgeerr.KindTxidParse, "parse hash in display byte order", err)
	}
	return *h, nil
}

func (b Block) toHeaderInput() (spv.HeaderInput, error) {
	blockHash, err := displayHashToInternal(b.BlockHash)
	if err != nil {
		return spv.HeaderInput{}, err
	}
	parentHash, err := displayHashToInternal(b.ParentHash)
	if err != nil {
		return spv.HeaderInput{}, err
	}
	merkleRoot, err := displayHashToInternal(b.MerkleRoot)
	if err != nil {
		return spv.HeaderInput{}, err
	}
	return spv.HeaderInput{
		Version:    b.Version,
		ParentHash: parentHash,
		MerkleRoot: merkleRoot,
		Timestamp:  b.Timestamp,
		Bits:       b.Difficulty,
		Nonce:      b.Nonce,
		BlockHash:  blockHash,
	}, nil
}

func (c Chain) toHeaderInputs() ([]spv.HeaderInput, error) {
	out := make([]spv.HeaderInput, len(c.Blocks))
	for i, b := range c.Blocks {
		hi, err := b.toHeaderInput()
		if err != nil {
			return nil, err
		}
		out[i] = hi
	}
	return out, nil
}

func (p MerkleProofInput) toMerkleProof() (spv.MerkleProof, error) {
	siblings := make([]chainhash.Hash, len(p.Siblings))
	for i, s := range p.Siblings {
		h, err := displayHashToInternal(s)
		if err != nil {
			return spv.MerkleProof{}, err
		}
		siblings[i] = h
	}
	return spv.MerkleProof{Siblings: siblings, Pos: p.Pos}, nil
}

// network resolves the fixed network the mint/burn guests target; both
// entrypoints are compiled per-deployment against a single network, per
// §6's "compile-time constant for the target deployment". The bridge
// address fixture this guest is grounded on is a testnet address.
var network = func() chaincfg.Params {
	p, err := bridgecfg.Params("testnet")
	if err != nil {
		panic(err)
	}
	return *p
}()
