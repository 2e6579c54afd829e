package frost

import (
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

// tapTweakTag is the BIP-341 domain-separation tag for key-path tweaking.
const tapTweakTag = "TapTweak"

// taggedHash computes the BIP-340 tagged hash construction
// SHA256(SHA256(tag) || SHA256(tag) || data), used for both the
// TapTweak hash and the Schnorr challenge.
func taggedHash(tag string, data ...[]byte) [32]byte {
	tagHash := sha256.Sum256([]byte(tag))
	h := sha256.New()
	h.Write(tagHash[:])
	h.Write(tagHash[:])
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// TapTweakHash computes t = tagged_hash("TapTweak", x-only(internalKey)).
// This implementation only ever uses an empty merkle root (BIP-86
// key-path-only spend), per §3's Tweak Policy.
func TapTweakHash(internalKey *btcec.PublicKey) btcec.ModNScalar {
	x := XOnly(internalKey)
	digest := taggedHash(tapTweakTag, x[:])
	var t btcec.ModNScalar
	t.SetByteSlice(digest[:])
	return t
}

// TweakedVerifyingKey computes Q = lift_x(P) + t*G along with t, where P
// is the untweaked group verifying key. Per BIP-340/341's lift_x, the
// tweak is added to the even-Y representative of P's x-coordinate, not
// to P itself; groupNegated reports whether that required negating P
// (i.e. P had odd Y), which the caller must apply to any scalar whose
// public counterpart is P -- such as a FROST signing share -- before
// combining it with t, since lift_x(P) = -P has discrete log -x rather
// than x whenever groupNegated is true.
func TweakedVerifyingKey(groupKey *btcec.PublicKey) (q btcec.PublicKey, t btcec.ModNScalar, groupNegated bool) {
	groupNegated = !isEvenY(groupKey)

	x := XOnly(groupKey)
	lifted, err := schnorr.ParsePubKey(x[:])
	if err != nil {
		// groupKey is already a valid curve point, so its x-coordinate is
		// always a valid lift_x input; ParsePubKey cannot fail here.
		panic(err)
	}

	t = TapTweakHash(lifted)

	var tG btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(&t, &tG)

	var p btcec.JacobianPoint
	lifted.AsJacobian(&p)

	var sum btcec.JacobianPoint
	btcec.AddNonConst(&p, &tG, &sum)
	sum.ToAffine()

	return *btcec.NewPublicKey(&sum.X, &sum.Y), t, groupNegated
}

// isEvenY reports whether a point's y-coordinate is even, i.e. it is
// already in BIP-340 "lifted" form.
func isEvenY(p *btcec.PublicKey) bool {
	return !p.Y().IsOdd()
}

// negateScalar returns -s mod n.
func negateScalar(s btcec.ModNScalar) btcec.ModNScalar {
	out := s
	out.Negate()
	return out
}

// challenge computes the BIP-340 Schnorr challenge e = H(R.x || P.x || m)
// for the group nonce commitment R and the (tweaked, x-only) group key P.
func challenge(rX [32]byte, pX [32]byte, message []byte) btcec.ModNScalar {
	data := make([]byte, 0, 64+len(message))
	data = append(data, rX[:]...)
	data = append(data, pX[:]...)
	data = append(data, message...)
	digest := taggedHash("BIP0340/challenge", data)
	var e btcec.ModNScalar
	e.SetByteSlice(digest[:])
	return e
}
