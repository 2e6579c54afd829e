package frost

import (
	"crypto/rand"

	"github.com/btcsuite/btcd/btcec/v2"
)

// polynomial is a Shamir polynomial over the secp256k1 scalar field,
// coefficients ordered [a0, a1, ..., a_{t-1}] with a0 the secret constant
// term (the participant's contribution to the joint secret in DKG).
type polynomial struct {
	coeffs []btcec.ModNScalar
}

// generatePolynomial samples a random degree-(threshold-1) polynomial.
func generatePolynomial(threshold uint16) (*polynomial, error) {
	coeffs := make([]btcec.ModNScalar, threshold)
	for i := range coeffs {
		s, err := randScalar()
		if err != nil {
			return nil, err
		}
		coeffs[i] = s
	}
	return &polynomial{coeffs: coeffs}, nil
}

// PolynomialCoefficients exposes a polynomial's raw coefficients for
// persistence by the tse coordinator layer; the polynomial type itself
// stays unexported so arithmetic can only happen through this package.
func PolynomialCoefficients(p *polynomial) []btcec.ModNScalar {
	return p.coeffs
}

// NewPolynomialFromCoefficients reconstructs a polynomial from persisted
// coefficients (the inverse of PolynomialCoefficients).
func NewPolynomialFromCoefficients(coeffs []btcec.ModNScalar) *polynomial {
	return &polynomial{coeffs: coeffs}
}

// randScalar returns a uniformly random non-zero scalar.
func randScalar() (btcec.ModNScalar, error) {
	for {
		var buf [32]byte
		if _, err := rand.Read(buf[:]); err != nil {
			return btcec.ModNScalar{}, err
		}
		var s btcec.ModNScalar
		overflow := s.SetByteSlice(buf[:])
		if !overflow && !s.IsZero() {
			return s, nil
		}
	}
}

// evaluate computes p(x) for the given scalar x.
func (p *polynomial) evaluate(x *btcec.ModNScalar) btcec.ModNScalar {
	// Horner's method, from the highest-degree coefficient down.
	var result btcec.ModNScalar
	result.Set(&p.coeffs[len(p.coeffs)-1])
	for i := len(p.coeffs) - 2; i >= 0; i-- {
		result.Mul(x)
		result.Add(&p.coeffs[i])
	}
	return result
}

// commit computes the Feldman VSS commitment to p: one secp256k1 point
// per coefficient, C_k = coeff_k * G.
func (p *polynomial) commit() []btcec.PublicKey {
	commitment := make([]btcec.PublicKey, len(p.coeffs))
	for i, c := range p.coeffs {
		var jp btcec.JacobianPoint
		coeff := c
		btcec.ScalarBaseMultNonConst(&coeff, &jp)
		jp.ToAffine()
		commitment[i] = *btcec.NewPublicKey(&jp.X, &jp.Y)
	}
	return commitment
}

// lagrangeCoefficient computes lambda_i = prod_{j in set, j != i} x_j/(x_j - x_i),
// the Lagrange coefficient of participant i evaluated at x = 0, for a given
// set of participant identifiers.
func lagrangeCoefficient(self Identifier, set []Identifier) btcec.ModNScalar {
	var numerator, denominator btcec.ModNScalar
	numerator.SetInt(1)
	denominator.SetInt(1)

	xi := self.Scalar()
	for _, peer := range set {
		if peer.Equal(self) {
			continue
		}
		xj := peer.Scalar()

		numerator.Mul2(&numerator, &xj)

		var diff btcec.ModNScalar
		diff.Set(&xj)
		var negXi btcec.ModNScalar
		negXi.Set(&xi)
		negXi.Negate()
		diff.Add(&negXi)

		denominator.Mul2(&denominator, &diff)
	}

	denomInv := denominator.InverseValNonConst()
	var lambda btcec.ModNScalar
	lambda.Mul2(&numerator, denomInv)
	return lambda
}
