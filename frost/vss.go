package frost

import (
	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/btcbridge/tse-core/bridgeerr"
)

// verifyShare checks that share = f(x) is consistent with the Feldman
// commitment to f, i.e. share*G == sum_k commitment[k] * x^k.
func verifyShare(x Identifier, share *btcec.ModNScalar, commitment []btcec.PublicKey) error {
	var lhs btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(share, &lhs)
	lhs.ToAffine()

	rhs := evaluateCommitment(x, commitment)

	if lhs.X != rhs.X || lhs.Y != rhs.Y {
		return bridgeerr.New(bridgeerr.KindFrost, "share fails Feldman verification against sender's commitment")
	}
	return nil
}

// evaluateCommitment evaluates, in the exponent, the polynomial whose
// Feldman commitment is `commitment`, at the point x: returns
// sum_k commitment[k] * x^k as an affine point.
func evaluateCommitment(x Identifier, commitment []btcec.PublicKey) btcec.JacobianPoint {
	xs := x.Scalar()

	var acc btcec.JacobianPoint
	acc.X.SetInt(0)
	acc.Y.SetInt(0)
	acc.Z.SetInt(0) // point at infinity

	var power btcec.ModNScalar
	power.SetInt(1)

	for k := 0; k < len(commitment); k++ {
		var term btcec.JacobianPoint
		commitment[k].AsJacobian(&term)

		var scaled btcec.JacobianPoint
		p := power
		btcec.ScalarMultNonConst(&p, &term, &scaled)

		var sum btcec.JacobianPoint
		btcec.AddNonConst(&acc, &scaled, &sum)
		acc = sum

		power.Mul2(&power, &xs)
	}

	acc.ToAffine()
	return acc
}

// sumPublicKeys adds a list of points and returns the affine result.
func sumPublicKeys(points []btcec.PublicKey) btcec.JacobianPoint {
	var acc btcec.JacobianPoint
	acc.X.SetInt(0)
	acc.Y.SetInt(0)
	acc.Z.SetInt(0)

	for i := range points {
		var jp btcec.JacobianPoint
		points[i].AsJacobian(&jp)

		var sum btcec.JacobianPoint
		btcec.AddNonConst(&acc, &jp, &sum)
		acc = sum
	}
	acc.ToAffine()
	return acc
}
