package cms

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"encoding/asn1"
	"fmt"

	"github.com/inkseal/pdfsign/common"
)

// Algorithm describes how the signed attributes are hashed and signed.
type Algorithm struct {
	Name string
	// Hash is applied to the DER encoded signed attributes before signing.
	Hash crypto.Hash
	// DigestOID identifies Hash in digestAlgorithms and the SignerInfo. The
	// content digest and the signed attributes are both computed with it.
	DigestOID asn1.ObjectIdentifier
	OID       asn1.ObjectIdentifier
	// NullParams is set for algorithms whose identifier carries an explicit
	// NULL parameter (RSA, RFC 4055).
	NullParams bool
}

var (
	SHA256WithRSA = Algorithm{
		Name:       "sha256WithRSAEncryption",
		Hash:       crypto.SHA256,
		DigestOID:  OIDDigestSHA256,
		OID:        OIDSignatureSHA256WithRSA,
		NullParams: true,
	}
	ECDSAWithSHA256 = Algorithm{
		Name:      "ecdsa-with-SHA256",
		Hash:      crypto.SHA256,
		DigestOID: OIDDigestSHA256,
		OID:       OIDSignatureECDSAWithSHA256,
	}
	ECDSAWithSHA512 = Algorithm{
		Name:      "ecdsa-with-SHA512",
		Hash:      crypto.SHA512,
		DigestOID: OIDDigestSHA512,
		OID:       OIDSignatureECDSAWithSHA512,
	}
)

// SelectAlgorithm picks the signature algorithm for a public key. EC keys
// on curves with an order of at most 384 bits use SHA-256, larger curves
// use SHA-512. Key types other than RSA and ECDSA are rejected.
func SelectAlgorithm(pub crypto.PublicKey) (Algorithm, error) {
	switch k := pub.(type) {
	case *rsa.PublicKey:
		return SHA256WithRSA, nil
	case *ecdsa.PublicKey:
		if k.Curve == nil {
			return Algorithm{}, &common.CryptoError{Msg: "unsupported key algorithm", Err: fmt.Errorf("%w: ECDSA key has nil curve", ErrUnsupportedKey)}
		}
		if k.Curve.Params().N.BitLen() <= 384 {
			return ECDSAWithSHA256, nil
		}
		return ECDSAWithSHA512, nil
	default:
		return Algorithm{}, &common.CryptoError{Msg: "unsupported key algorithm", Err: fmt.Errorf("%w: %T", ErrUnsupportedKey, pub)}
	}
}

// HashForDigestOID maps a digest AlgorithmIdentifier OID to its hash.
func HashForDigestOID(oid asn1.ObjectIdentifier) (crypto.Hash, bool) {
	switch {
	case oid.Equal(OIDDigestSHA256):
		return crypto.SHA256, true
	case oid.Equal(OIDDigestSHA384):
		return crypto.SHA384, true
	case oid.Equal(OIDDigestSHA512):
		return crypto.SHA512, true
	}
	return 0, false
}
