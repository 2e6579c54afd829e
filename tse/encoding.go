// Package tse implements the host-facing Threshold Signing Engine API:
// DKG coordination (C2), per-message signing coordination (C3), backed by
// the durable store (C1) and the frost package's cryptographic primitives.
package tse

import (
	"encoding/hex"
	"encoding/json"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/btcbridge/tse-core/bridgeerr"
	"github.com/btcbridge/tse-core/frost"
)

// PeerPackage is a single (identifier, opaque hex payload) pair, the wire
// shape every round's peer contributions and directed outputs use.
type PeerPackage struct {
	ID      string `json:"id"`
	Payload string `json:"payload"`
}

func decodeHex(kind bridgeerr.Kind, s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindHex, "decode hex payload", err)
	}
	return b, nil
}

func encodeHex(b []byte) string { return hex.EncodeToString(b) }

// wireRound1Package is the JSON-serializable form of frost.Round1Package.
type wireRound1Package struct {
	Sender     string   `json:"sender"`
	Commitment []string `json:"commitment"`
	PoK        string   `json:"pok"`
}

func marshalRound1Package(pkg *frost.Round1Package) (string, error) {
	w := wireRound1Package{
		Sender: pkg.Sender.Hex(),
		PoK:    encodeHex(pkg.ProofOfKnowledge[:]),
	}
	for _, c := range pkg.Commitment {
		w.Commitment = append(w.Commitment, encodeHex(c.SerializeCompressed()))
	}
	b, err := json.Marshal(w)
	if err != nil {
		return "", bridgeerr.Wrap(bridgeerr.KindSerde, "marshal round-1 package", err)
	}
	return encodeHex(b), nil
}

func unmarshalRound1Package(payloadHex string) (*frost.Round1Package, error) {
	raw, err := decodeHex(bridgeerr.KindHex, payloadHex)
	if err != nil {
		return nil, err
	}
	var w wireRound1Package
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindSerde, "unmarshal round-1 package", err)
	}
	sender, err := frost.IdentifierFromHex(w.Sender)
	if err != nil {
		return nil, err
	}
	commitment := make([]btcec.PublicKey, 0, len(w.Commitment))
	for _, hexPoint := range w.Commitment {
		b, err := decodeHex(bridgeerr.KindHex, hexPoint)
		if err != nil {
			return nil, err
		}
		p, err := btcec.ParsePubKey(b)
		if err != nil {
			return nil, bridgeerr.Wrap(bridgeerr.KindSecp256k1, "parse commitment point", err)
		}
		commitment = append(commitment, *p)
	}
	pokBytes, err := decodeHex(bridgeerr.KindHex, w.PoK)
	if err != nil {
		return nil, err
	}
	var pok [64]byte
	copy(pok[:], pokBytes)

	return &frost.Round1Package{Sender: sender, Commitment: commitment, ProofOfKnowledge: pok}, nil
}

// wireRound2Package is the JSON-serializable form of frost.Round2Package.
type wireRound2Package struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Share    string `json:"share"`
}

func marshalRound2Package(pkg frost.Round2Package) (string, error) {
	shareBytes := pkg.Share.Bytes()
	w := wireRound2Package{
		Sender:   pkg.Sender.Hex(),
		Receiver: pkg.Receiver.Hex(),
		Share:    encodeHex(shareBytes[:]),
	}
	b, err := json.Marshal(w)
	if err != nil {
		return "", bridgeerr.Wrap(bridgeerr.KindSerde, "marshal round-2 package", err)
	}
	return encodeHex(b), nil
}

func unmarshalRound2Package(payloadHex string) (*frost.Round2Package, error) {
	raw, err := decodeHex(bridgeerr.KindHex, payloadHex)
	if err != nil {
		return nil, err
	}
	var w wireRound2Package
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindSerde, "unmarshal round-2 package", err)
	}
	sender, err := frost.IdentifierFromHex(w.Sender)
	if err != nil {
		return nil, err
	}
	receiver, err := frost.IdentifierFromHex(w.Receiver)
	if err != nil {
		return nil, err
	}
	shareBytes, err := decodeHex(bridgeerr.KindHex, w.Share)
	if err != nil {
		return nil, err
	}
	var share btcec.ModNScalar
	if overflow := share.SetByteSlice(shareBytes); overflow {
		return nil, bridgeerr.New(bridgeerr.KindSecp256k1, "round-2 share overflows group order")
	}
	return &frost.Round2Package{Sender: sender, Receiver: receiver, Share: share}, nil
}

// wireKeyPackage is the JSON-serializable form of frost.KeyPackage,
// persisted verbatim under keypkg_<id>.
type wireKeyPackage struct {
	Identifier     string `json:"identifier"`
	SigningShare   string `json:"signing_share"`
	VerifyingShare string `json:"verifying_share"`
	VerifyingKey   string `json:"verifying_key"`
	Threshold      uint16 `json:"threshold"`
	Total          uint16 `json:"total"`
}

func marshalKeyPackage(kp *frost.KeyPackage) ([]byte, error) {
	shareBytes := kp.SigningShare.Bytes()
	w := wireKeyPackage{
		Identifier:     kp.Identifier.Hex(),
		SigningShare:   encodeHex(shareBytes[:]),
		VerifyingShare: encodeHex(kp.VerifyingShare.SerializeCompressed()),
		VerifyingKey:   encodeHex(kp.VerifyingKey.SerializeCompressed()),
		Threshold:      kp.Threshold,
		Total:          kp.Total,
	}
	b, err := json.Marshal(w)
	if err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindSerde, "marshal key package", err)
	}
	return b, nil
}

func unmarshalKeyPackage(raw []byte) (*frost.KeyPackage, error) {
	var w wireKeyPackage
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindSerde, "unmarshal key package", err)
	}
	id, err := frost.IdentifierFromHex(w.Identifier)
	if err != nil {
		return nil, err
	}
	shareBytes, err := hex.DecodeString(w.SigningShare)
	if err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindHex, "decode signing share", err)
	}
	var share btcec.ModNScalar
	share.SetByteSlice(shareBytes)

	vsBytes, err := hex.DecodeString(w.VerifyingShare)
	if err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindHex, "decode verifying share", err)
	}
	vs, err := btcec.ParsePubKey(vsBytes)
	if err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindSecp256k1, "parse verifying share", err)
	}

	vkBytes, err := hex.DecodeString(w.VerifyingKey)
	if err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindHex, "decode verifying key", err)
	}
	vk, err := btcec.ParsePubKey(vkBytes)
	if err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindSecp256k1, "parse verifying key", err)
	}

	return &frost.KeyPackage{
		Identifier:     id,
		SigningShare:   share,
		VerifyingShare: *vs,
		VerifyingKey:   *vk,
		Threshold:      w.Threshold,
		Total:          w.Total,
	}, nil
}

// wirePublicKeyPackage is the JSON-serializable form of frost.PublicKeyPackage.
type wirePublicKeyPackage struct {
	VerifyingShares map[string]string `json:"verifying_shares"`
	VerifyingKey    string            `json:"verifying_key"`
	Threshold       uint16            `json:"threshold"`
	Total           uint16            `json:"total"`
}

func marshalPublicKeyPackage(pkp *frost.PublicKeyPackage) ([]byte, error) {
	w := wirePublicKeyPackage{
		VerifyingShares: make(map[string]string, len(pkp.VerifyingShares)),
		VerifyingKey:    encodeHex(pkp.VerifyingKey.SerializeCompressed()),
		Threshold:       pkp.Threshold,
		Total:           pkp.Total,
	}
	for id, p := range pkp.VerifyingShares {
		w.VerifyingShares[id] = encodeHex(p.SerializeCompressed())
	}
	b, err := json.Marshal(w)
	if err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindSerde, "marshal public key package", err)
	}
	return b, nil
}

// wireR1Secret is the JSON-serializable form of frost.Round1Secret,
// persisted under r1_<id> between DKG round 1 and round 2.
type wireR1Secret struct {
	Self      string   `json:"self"`
	Threshold uint16   `json:"threshold"`
	Total     uint16   `json:"total"`
	Coeffs    []string `json:"coeffs"`
}

func marshalR1Secret(s *frost.Round1Secret) ([]byte, error) {
	w := wireR1Secret{Self: s.Self.Hex(), Threshold: s.Threshold, Total: s.Total}
	for _, c := range frost.PolynomialCoefficients(s.Polynomial) {
		b := c.Bytes()
		w.Coeffs = append(w.Coeffs, encodeHex(b[:]))
	}
	raw, err := json.Marshal(w)
	if err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindSerde, "marshal DKG round-1 secret", err)
	}
	return raw, nil
}

func unmarshalR1Secret(raw []byte) (*frost.Round1Secret, error) {
	var w wireR1Secret
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindSerde, "unmarshal DKG round-1 secret", err)
	}
	self, err := frost.IdentifierFromHex(w.Self)
	if err != nil {
		return nil, err
	}
	coeffs := make([]btcec.ModNScalar, 0, len(w.Coeffs))
	for _, hexCoeff := range w.Coeffs {
		b, err := hex.DecodeString(hexCoeff)
		if err != nil {
			return nil, bridgeerr.Wrap(bridgeerr.KindHex, "decode polynomial coefficient", err)
		}
		var sc btcec.ModNScalar
		sc.SetByteSlice(b)
		coeffs = append(coeffs, sc)
	}
	return &frost.Round1Secret{
		Self:       self,
		Threshold:  w.Threshold,
		Total:      w.Total,
		Polynomial: frost.NewPolynomialFromCoefficients(coeffs),
	}, nil
}

func marshalR2Secret(s *frost.Round2Secret) ([]byte, error) {
	return marshalR1Secret(&s.Round1Secret)
}

func unmarshalR2Secret(raw []byte) (*frost.Round2Secret, error) {
	s, err := unmarshalR1Secret(raw)
	if err != nil {
		return nil, err
	}
	return &frost.Round2Secret{Round1Secret: *s}, nil
}

// wireSigningNonces is the JSON-serializable form of frost.SigningNonces,
// persisted under nonces_<id> between signing round 1 and round 2.
type wireSigningNonces struct {
	Hiding  string `json:"hiding"`
	Binding string `json:"binding"`
}

func marshalSigningNonces(n *frost.SigningNonces) ([]byte, error) {
	hb := n.Hiding.Bytes()
	bb := n.Binding.Bytes()
	w := wireSigningNonces{Hiding: encodeHex(hb[:]), Binding: encodeHex(bb[:])}
	b, err := json.Marshal(w)
	if err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindSerde, "marshal signing nonces", err)
	}
	return b, nil
}

func unmarshalSigningNonces(raw []byte) (*frost.SigningNonces, error) {
	var w wireSigningNonces
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindSerde, "unmarshal signing nonces", err)
	}
	hb, err := hex.DecodeString(w.Hiding)
	if err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindHex, "decode hiding nonce", err)
	}
	bb, err := hex.DecodeString(w.Binding)
	if err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindHex, "decode binding nonce", err)
	}
	var hiding, binding btcec.ModNScalar
	hiding.SetByteSlice(hb)
	binding.SetByteSlice(bb)
	return &frost.SigningNonces{Hiding: hiding, Binding: binding}, nil
}

// wireSigningCommitments is the JSON-serializable form of
// frost.SigningCommitments, the broadcast counterpart to SigningNonces.
type wireSigningCommitments struct {
	ID      string `json:"id"`
	Hiding  string `json:"hiding"`
	Binding string `json:"binding"`
}

func marshalSigningCommitments(c *frost.SigningCommitments) (string, error) {
	w := wireSigningCommitments{
		ID:      c.Identifier.Hex(),
		Hiding:  encodeHex(c.Hiding.SerializeCompressed()),
		Binding: encodeHex(c.Binding.SerializeCompressed()),
	}
	b, err := json.Marshal(w)
	if err != nil {
		return "", bridgeerr.Wrap(bridgeerr.KindSerde, "marshal signing commitments", err)
	}
	return encodeHex(b), nil
}

func unmarshalSigningCommitments(payloadHex string) (*frost.SigningCommitments, error) {
	raw, err := decodeHex(bridgeerr.KindHex, payloadHex)
	if err != nil {
		return nil, err
	}
	var w wireSigningCommitments
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindSerde, "unmarshal signing commitments", err)
	}
	id, err := frost.IdentifierFromHex(w.ID)
	if err != nil {
		return nil, err
	}
	hb, err := hex.DecodeString(w.Hiding)
	if err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindHex, "decode hiding commitment", err)
	}
	bb, err := hex.DecodeString(w.Binding)
	if err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindHex, "decode binding commitment", err)
	}
	hiding, err := btcec.ParsePubKey(hb)
	if err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindSecp256k1, "parse hiding commitment", err)
	}
	binding, err := btcec.ParsePubKey(bb)
	if err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindSecp256k1, "parse binding commitment", err)
	}
	return &frost.SigningCommitments{Identifier: id, Hiding: *hiding, Binding: *binding}, nil
}

func unmarshalPublicKeyPackage(raw []byte) (*frost.PublicKeyPackage, error) {
	var w wirePublicKeyPackage
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindSerde, "unmarshal public key package", err)
	}
	vkBytes, err := hex.DecodeString(w.VerifyingKey)
	if err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindHex, "decode group verifying key", err)
	}
	vk, err := btcec.ParsePubKey(vkBytes)
	if err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindSecp256k1, "parse group verifying key", err)
	}
	shares := make(map[string]btcec.PublicKey, len(w.VerifyingShares))
	for id, hexPoint := range w.VerifyingShares {
		b, err := hex.DecodeString(hexPoint)
		if err != nil {
			return nil, bridgeerr.Wrap(bridgeerr.KindHex, "decode verifying share", err)
		}
		p, err := btcec.ParsePubKey(b)
		if err != nil {
			return nil, bridgeerr.Wrap(bridgeerr.KindSecp256k1, "parse verifying share", err)
		}
		shares[id] = *p
	}
	return &frost.PublicKeyPackage{VerifyingShares: shares, VerifyingKey: *vk, Threshold: w.Threshold, Total: w.Total}, nil
}
