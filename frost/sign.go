package frost

import (
	"crypto/sha256"
	"sort"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"

	"github.com/btcbridge/tse-core/bridgeerr"
)

// SigningPackage is the ordered {ID -> Commitments} map together with the
// message, the exact input every participant and the aggregator must
// share for a signing session. Ordering is by identifier's canonical hex
// string to guarantee every participant builds an identical package.
type SigningPackage struct {
	Message     []byte
	Commitments []SigningCommitments
}

// NewSigningPackage sorts commitments into canonical order.
func NewSigningPackage(message []byte, commitments []SigningCommitments) *SigningPackage {
	sorted := append([]SigningCommitments(nil), commitments...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Identifier.Hex() < sorted[j].Identifier.Hex()
	})
	return &SigningPackage{Message: message, Commitments: sorted}
}

func (sp *SigningPackage) identifiers() []Identifier {
	ids := make([]Identifier, len(sp.Commitments))
	for i, c := range sp.Commitments {
		ids[i] = c.Identifier
	}
	return ids
}

func (sp *SigningPackage) commitmentFor(id Identifier) (*SigningCommitments, bool) {
	for i := range sp.Commitments {
		if sp.Commitments[i].Identifier.Equal(id) {
			return &sp.Commitments[i], true
		}
	}
	return nil, false
}

// encodeCommitmentsDigest hashes every (identifier, hiding, binding) tuple
// in canonical order, used as part of the binding-factor input so every
// participant derives the same per-signer binding factor.
func (sp *SigningPackage) encodeCommitmentsDigest() [32]byte {
	h := sha256.New()
	for _, c := range sp.Commitments {
		h.Write([]byte(c.Identifier.Hex()))
		h.Write(c.Hiding.SerializeCompressed())
		h.Write(c.Binding.SerializeCompressed())
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// bindingFactors computes, for a fixed tweaked group key x-only encoding,
// one binding factor per participant in the signing package: rho_i =
// H("FROST/rho" || H(P_x || msg || commitmentsDigest) || id_i).
func bindingFactors(sp *SigningPackage, tweakedKeyX [32]byte) map[string]btcec.ModNScalar {
	commitDigest := sp.encodeCommitmentsDigest()

	prefix := sha256.New()
	prefix.Write(tweakedKeyX[:])
	prefix.Write(sp.Message)
	prefix.Write(commitDigest[:])
	prefixSum := prefix.Sum(nil)

	out := make(map[string]btcec.ModNScalar, len(sp.Commitments))
	for _, c := range sp.Commitments {
		h := sha256.New()
		h.Write([]byte("FROST/rho"))
		h.Write(prefixSum)
		h.Write([]byte(c.Identifier.Hex()))
		digest := h.Sum(nil)
		var rho btcec.ModNScalar
		rho.SetByteSlice(digest)
		out[c.Identifier.Hex()] = rho
	}
	return out
}

// groupCommitment computes R = sum_i (D_i + rho_i * E_i) over every
// participant's hiding commitment D_i and binding commitment E_i.
func groupCommitment(sp *SigningPackage, rhos map[string]btcec.ModNScalar) btcec.JacobianPoint {
	var acc btcec.JacobianPoint
	acc.X.SetInt(0)
	acc.Y.SetInt(0)
	acc.Z.SetInt(0)

	for _, c := range sp.Commitments {
		var hiding btcec.JacobianPoint
		c.Hiding.AsJacobian(&hiding)

		var binding btcec.JacobianPoint
		c.Binding.AsJacobian(&binding)

		rho := rhos[c.Identifier.Hex()]
		var scaledBinding btcec.JacobianPoint
		btcec.ScalarMultNonConst(&rho, &binding, &scaledBinding)

		var term btcec.JacobianPoint
		btcec.AddNonConst(&hiding, &scaledBinding, &term)

		var sum btcec.JacobianPoint
		btcec.AddNonConst(&acc, &term, &sum)
		acc = sum
	}
	acc.ToAffine()
	return acc
}

// designatedTweakHolder is the participant, among a signing set, whose
// share absorbs the BIP-341 tweak. The choice just needs to be a
// deterministic function of the set known to every signer and the
// aggregator; the lexicographically smallest identifier is used.
func designatedTweakHolder(ids []Identifier) Identifier {
	min := ids[0]
	for _, id := range ids[1:] {
		if id.Hex() < min.Hex() {
			min = id
		}
	}
	return min
}

// effectiveSigningShare computes this signer's share after (a) the sign
// flip required if the untweaked group key had odd Y (lift_x negates it
// to reach the point the tweak is actually added to, per
// TweakedVerifyingKey's groupNegated), (b) absorbing the BIP-341 tweak,
// scaled by the inverse of its Lagrange coefficient within the signing
// set, if it is the designated tweak holder, and (c) the global sign
// flip required when the tweaked group key's y-coordinate is odd
// (BIP-340 "lift_x" convention). Every signer and the aggregator derive
// the same result independently from public information (the signing
// set and the tweaked group key), so this needs no extra communication
// round.
func effectiveSigningShare(kp *KeyPackage, set []Identifier, tweak btcec.ModNScalar, tweakedKey *btcec.PublicKey, groupNegated bool) btcec.ModNScalar {
	share := kp.SigningShare
	if groupNegated {
		share = negateScalar(share)
	}

	if designatedTweakHolder(set).Equal(kp.Identifier) {
		lambda := lagrangeCoefficient(kp.Identifier, set)
		lambdaInv := lambda.InverseValNonConst()
		var adj btcec.ModNScalar
		adj.Mul2(&tweak, lambdaInv)
		share.Add(&adj)
	}

	if !isEvenY(tweakedKey) {
		share = negateScalar(share)
	}
	return share
}

// SignRound1 generates a fresh single-use nonce pair for the loaded key
// package and its public commitments. It does not apply the BIP-341
// tweak: nonce generation uses the untweaked signing share, and the tweak
// is applied to the share in SignRound2 (see effectiveSigningShare).
func SignRound1(kp *KeyPackage) (*SigningNonces, *SigningCommitments, error) {
	nonces, commitments, err := GenerateNonces(kp.Identifier, &kp.SigningShare)
	if err != nil {
		return nil, nil, bridgeerr.Wrap(bridgeerr.KindSecp256k1, "generate signing nonces", err)
	}
	return nonces, commitments, nil
}

// SignRound2 produces this signer's signature share over sp.Message. The
// supplied nonces are the exact pair generated in round 1 and MUST NOT be
// reused; the caller is responsible for deleting them from the store
// immediately after this call returns, success or failure.
func SignRound2(kp *KeyPackage, nonces *SigningNonces, sp *SigningPackage) (btcec.ModNScalar, error) {
	if _, ok := sp.commitmentFor(kp.Identifier); !ok {
		return btcec.ModNScalar{}, bridgeerr.New(bridgeerr.KindFrost, "signing package does not include this participant's commitments")
	}

	tweakedKey, tweak, groupNegated := TweakedVerifyingKey(&kp.VerifyingKey)
	tweakedKeyX := XOnly(&tweakedKey)

	rhos := bindingFactors(sp, tweakedKeyX)
	r := groupCommitment(sp, rhos)
	rPoint := btcec.NewPublicKey(&r.X, &r.Y)

	e := challenge(XOnly(rPoint), tweakedKeyX, sp.Message)

	set := sp.identifiers()
	lambda := lagrangeCoefficient(kp.Identifier, set)

	hiding, binding := nonces.Hiding, nonces.Binding
	if !isEvenY(rPoint) {
		hiding = negateScalar(hiding)
		binding = negateScalar(binding)
	}

	effShare := effectiveSigningShare(kp, set, tweak, &tweakedKey, groupNegated)

	rho := rhos[kp.Identifier.Hex()]

	var z btcec.ModNScalar
	z.Mul2(&rho, &binding)
	z.Add(&hiding)

	var lambdaE btcec.ModNScalar
	lambdaE.Mul2(&lambda, &e)
	var term btcec.ModNScalar
	term.Mul2(&lambdaE, &effShare)
	z.Add(&term)

	return z, nil
}

// AggregateSignature combines per-signer signature shares into a 64-byte
// BIP-340 Schnorr signature and verifies it against the tweaked group
// verifying key before returning. Unlike the original reference
// implementation (which logs but still returns on self-verification
// failure), this aggregator fails closed: a signature that does not
// verify is never returned (§9).
func AggregateSignature(pkp *PublicKeyPackage, sp *SigningPackage, shares map[string]btcec.ModNScalar) ([64]byte, error) {
	tweakedKey, _, _ := TweakedVerifyingKey(&pkp.VerifyingKey)
	tweakedKeyX := XOnly(&tweakedKey)

	rhos := bindingFactors(sp, tweakedKeyX)
	r := groupCommitment(sp, rhos)
	rPoint := btcec.NewPublicKey(&r.X, &r.Y)
	rX := XOnly(rPoint)

	var s btcec.ModNScalar
	for _, c := range sp.Commitments {
		share, ok := shares[c.Identifier.Hex()]
		if !ok {
			return [64]byte{}, bridgeerr.New(bridgeerr.KindMissingData, "missing signature share for a committed participant")
		}
		s.Add(&share)
	}

	var sig [64]byte
	copy(sig[:32], rX[:])
	sBytes := s.Bytes()
	copy(sig[32:], sBytes[:])

	parsed, err := schnorr.ParseSignature(sig[:])
	if err != nil {
		return [64]byte{}, bridgeerr.Wrap(bridgeerr.KindSecp256k1, "parse aggregated signature", err)
	}
	if !parsed.Verify(sp.Message, &tweakedKey) {
		log.Errorf("aggregated signature failed self-verification, tweaked key %x", tweakedKeyX)
		return [64]byte{}, bridgeerr.New(bridgeerr.KindFrost, "aggregated signature failed self-verification under tweaked group key")
	}

	log.Debugf("aggregated and verified signature over %d shares", len(shares))
	return sig, nil
}
