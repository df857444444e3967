package cms

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"fmt"

	"github.com/inkseal/pdfsign/common"
)

var (
	ErrNilSigner      = errors.New("signer cannot be nil")
	ErrNilPublicKey   = errors.New("public key cannot be nil")
	ErrNilCertificate = errors.New("certificate cannot be nil")
	ErrUnsupportedKey = errors.New("unsupported key type")
	ErrKeyMismatch    = errors.New("signer public key does not match certificate")
)

// Signer is the signing capability consumed by Build. Implementations may
// keep their private key in a hardware token or a remote service; the
// container builder only ever hands them a digest.
type Signer interface {
	// Certificate returns the signer's certificate.
	Certificate() *x509.Certificate
	// CertificateChain returns the certificates to embed, leaf first.
	CertificateChain() []*x509.Certificate
	// Algorithm reports the signature algorithm Sign produces.
	Algorithm() (Algorithm, error)
	// Sign signs a digest computed with Algorithm().Hash.
	Sign(digest []byte) ([]byte, error)
}

// Identity adapts a crypto.Signer and its certificates to Signer.
type Identity struct {
	Key   crypto.Signer
	Cert  *x509.Certificate
	Chain []*x509.Certificate
}

// NewIdentity checks that key belongs to cert and returns an Identity.
// chain lists the issuing certificates; cert is prepended when missing.
func NewIdentity(key crypto.Signer, cert *x509.Certificate, chain ...*x509.Certificate) (*Identity, error) {
	if err := ValidateSignerCertificateMatch(key, cert); err != nil {
		return nil, &common.CryptoError{Msg: "invalid signing identity", Err: err}
	}
	if _, err := SelectAlgorithm(cert.PublicKey); err != nil {
		return nil, err
	}
	return &Identity{Key: key, Cert: cert, Chain: chain}, nil
}

func (id *Identity) Certificate() *x509.Certificate { return id.Cert }

// CertificateChain returns the leaf followed by the chain with duplicates
// removed.
func (id *Identity) CertificateChain() []*x509.Certificate {
	out := []*x509.Certificate{id.Cert}
	for _, c := range id.Chain {
		if c == nil {
			continue
		}
		dup := false
		for _, seen := range out {
			if bytes.Equal(seen.Raw, c.Raw) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, c)
		}
	}
	return out
}

func (id *Identity) Algorithm() (Algorithm, error) {
	if id.Cert == nil {
		return Algorithm{}, &common.CryptoError{Msg: "no certificate", Err: ErrNilCertificate}
	}
	return SelectAlgorithm(id.Cert.PublicKey)
}

func (id *Identity) Sign(digest []byte) ([]byte, error) {
	if id.Key == nil {
		return nil, &common.CryptoError{Msg: "no private key", Err: ErrNilSigner}
	}
	alg, err := id.Algorithm()
	if err != nil {
		return nil, err
	}
	sig, err := id.Key.Sign(rand.Reader, digest, alg.Hash)
	if err != nil {
		return nil, &common.CryptoError{Msg: "signing failed", Err: err}
	}
	return sig, nil
}

// PublicKeySignatureSize returns the maximum signature size for a public key.
func PublicKeySignatureSize(pub crypto.PublicKey) (int, error) {
	if pub == nil {
		return 0, ErrNilPublicKey
	}

	switch k := pub.(type) {
	case *rsa.PublicKey:
		if k.N == nil {
			return 0, fmt.Errorf("%w: RSA key has nil modulus", ErrUnsupportedKey)
		}
		return k.Size(), nil
	case *ecdsa.PublicKey:
		if k.Curve == nil {
			return 0, fmt.Errorf("%w: ECDSA key has nil curve", ErrUnsupportedKey)
		}
		// SEQUENCE { r INTEGER, s INTEGER } with worst case padding.
		coordSize := (k.Curve.Params().BitSize + 7) / 8
		return 2*coordSize + 9, nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrUnsupportedKey, pub)
	}
}

// ValidateSignerCertificateMatch checks that the signer's public key matches the certificate.
func ValidateSignerCertificateMatch(signer crypto.Signer, cert *x509.Certificate) error {
	if signer == nil {
		return ErrNilSigner
	}
	if cert == nil {
		return ErrNilCertificate
	}
	signerPub := signer.Public()
	if signerPub == nil {
		return ErrNilPublicKey
	}

	signerPubBytes, err := x509.MarshalPKIXPublicKey(signerPub)
	if err != nil {
		return fmt.Errorf("failed to marshal signer public key: %w", err)
	}
	certPubBytes, err := x509.MarshalPKIXPublicKey(cert.PublicKey)
	if err != nil {
		return fmt.Errorf("failed to marshal certificate public key: %w", err)
	}
	if !bytes.Equal(signerPubBytes, certPubBytes) {
		return ErrKeyMismatch
	}
	return nil
}
