// Package bridgeerr defines the error taxonomy shared by every component of
// the threshold signing engine and the Bitcoin-SPV verifier.
package bridgeerr

import "fmt"

// Kind distinguishes the class of failure so callers at the host boundary
// can branch on it without string matching.
type Kind int

const (
	// KindInvalidNetwork indicates an unrecognized network name.
	KindInvalidNetwork Kind = iota
	// KindAddressParse indicates a malformed Bitcoin address.
	KindAddressParse
	// KindHex indicates malformed hex input.
	KindHex
	// KindTxidParse indicates a malformed txid.
	KindTxidParse
	// KindSecp256k1 indicates a scalar/point arithmetic failure.
	KindSecp256k1
	// KindTaproot indicates a Taproot script-tree construction failure.
	KindTaproot
	// KindSighash indicates a sighash computation failure.
	KindSighash
	// KindSigLength indicates a signature of unexpected length.
	KindSigLength
	// KindInvalidIdentifierU16 indicates a zero or unmappable participant label.
	KindInvalidIdentifierU16
	// KindMissingData indicates a required persisted record was absent.
	KindMissingData
	// KindState indicates a protocol state-machine violation.
	KindState
	// KindFrost indicates a FROST protocol abort (bad share, wrong
	// participant set, verification failure).
	KindFrost
	// KindSerde indicates a (de)serialization failure on a protocol message.
	KindSerde
	// KindInsufficient indicates a fee/UTXO arithmetic failure.
	KindInsufficient
	// KindChainLength indicates a header chain of the wrong length.
	KindChainLength
	// KindHeaderMismatch indicates a header's claimed hash does not match
	// its recomputed hash.
	KindHeaderMismatch
	// KindHeaderLinkage indicates a header's parent_hash does not match
	// the previous header's computed hash.
	KindHeaderLinkage
	// KindMerkleInclusion indicates a Merkle inclusion proof did not
	// recompute to the expected root.
	KindMerkleInclusion
	// KindTxParse indicates a malformed raw Bitcoin transaction.
	KindTxParse
	// KindMemo indicates a missing, malformed, or non-UTF-8 OP_RETURN memo.
	KindMemo
	// KindEVMAddress indicates a malformed or non-checksummed EVM address.
	KindEVMAddress
	// KindABI indicates a public-value encoding failure.
	KindABI
	// KindGeneral covers anything not otherwise classified.
	KindGeneral
)

func (k Kind) String() string {
	switch k {
	case KindInvalidNetwork:
		return "InvalidNetwork"
	case KindAddressParse:
		return "AddressParse"
	case KindHex:
		return "Hex"
	case KindTxidParse:
		return "TxidParse"
	case KindSecp256k1:
		return "Secp256k1"
	case KindTaproot:
		return "Taproot"
	case KindSighash:
		return "Sighash"
	case KindSigLength:
		return "SigLength"
	case KindInvalidIdentifierU16:
		return "InvalidIdentifierU16"
	case KindMissingData:
		return "MissingData"
	case KindState:
		return "State"
	case KindFrost:
		return "Frost"
	case KindSerde:
		return "Serde"
	case KindInsufficient:
		return "Insufficient"
	case KindChainLength:
		return "ChainLength"
	case KindHeaderMismatch:
		return "HeaderMismatch"
	case KindHeaderLinkage:
		return "HeaderLinkage"
	case KindMerkleInclusion:
		return "MerkleInclusion"
	case KindTxParse:
		return "TxParse"
	case KindMemo:
		return "Memo"
	case KindEVMAddress:
		return "EVMAddress"
	case KindABI:
		return "ABI"
	default:
		return "General"
	}
}

// Error is the concrete error type returned across the whole module. It
// carries a Kind so callers can switch on failure class, following the
// teacher's own typed-error conventions (txscript.Error, blockchain.RuleError)
// rather than bare errors.New/fmt.Errorf everywhere.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap allows errors.Is/errors.As to see through to the wrapped cause.
func (e *Error) Unwrap() error { return e.Err }

// New constructs an Error with no wrapped cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap constructs an Error that wraps an underlying cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Is reports whether err is a *Error of the given Kind.
func Is(err error, kind Kind) bool {
	be, ok := err.(*Error)
	return ok && be.Kind == kind
}
