// Package cms builds the detached CMS SignedData containers embedded in PDF
// signature dictionaries.
package cms

import (
	"encoding/asn1"
	"fmt"

	"github.com/inkseal/pdfsign/common"
	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// TimestampFunc returns a DER encoded RFC 3161 TimeStampToken over the
// given signature value.
type TimestampFunc func(signature []byte) ([]byte, error)

// Options controls Build.
type Options struct {
	// Digest is the digest of the signed content, computed with the
	// signer's Algorithm().Hash. It is used as the messageDigest attribute
	// as is.
	Digest []byte
	// ExtraSignedAttributes are added to the signed attribute table after
	// filtering.
	ExtraSignedAttributes []Attribute
	// Timestamp, when set, is called with the signature value and the
	// returned token is stored as an unsigned attribute.
	Timestamp TimestampFunc
}

var (
	tagSignedAttributes   = cryptobyte_asn1.Tag(0).Constructed().ContextSpecific()
	tagUnsignedAttributes = cryptobyte_asn1.Tag(1).Constructed().ContextSpecific()
	tagCertificates       = cryptobyte_asn1.Tag(0).Constructed().ContextSpecific()
	tagExplicitContent    = cryptobyte_asn1.Tag(0).Constructed().ContextSpecific()
)

// Build returns a DER encoded detached SignedData with one SignerInfo over
// opts.Digest. The digest algorithm identifiers name the signer's
// Algorithm().Hash; SHA-256 identifiers carry an explicit NULL parameter.
func Build(signer Signer, opts Options) ([]byte, error) {
	if signer == nil {
		return nil, &common.CryptoError{Msg: "no signer", Err: ErrNilSigner}
	}
	cert := signer.Certificate()
	if cert == nil {
		return nil, &common.CryptoError{Msg: "no certificate", Err: ErrNilCertificate}
	}
	alg, err := signer.Algorithm()
	if err != nil {
		return nil, err
	}
	if len(opts.Digest) != alg.Hash.Size() {
		return nil, &common.CryptoError{Msg: fmt.Sprintf("digest must be %d bytes of %s, got %d", alg.Hash.Size(), alg.Hash, len(opts.Digest))}
	}

	attrs, err := signedAttributes(signer, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build signed attributes: %w", err)
	}

	// The signature covers the attributes encoded as a universal SET.
	toSign, err := marshalAttributeSet(attrs, cryptobyte_asn1.SET)
	if err != nil {
		return nil, fmt.Errorf("failed to encode signed attributes: %w", err)
	}
	signedAttrs, err := marshalAttributeSet(attrs, tagSignedAttributes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode signed attributes: %w", err)
	}

	h := alg.Hash.New()
	h.Write(toSign)
	signature, err := signer.Sign(h.Sum(nil))
	if err != nil {
		return nil, err
	}

	var unsignedAttrs []byte
	if opts.Timestamp != nil {
		token, err := opts.Timestamp(signature)
		if err != nil {
			return nil, fmt.Errorf("failed to obtain timestamp: %w", err)
		}
		unsignedAttrs, err = marshalAttributeSet([]Attribute{{Type: OIDAttributeTimeStampToken, Value: token}}, tagUnsignedAttributes)
		if err != nil {
			return nil, fmt.Errorf("failed to encode unsigned attributes: %w", err)
		}
	}

	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) { // ContentInfo
		b.AddASN1ObjectIdentifier(OIDSignedData)
		b.AddASN1(tagExplicitContent, func(b *cryptobyte.Builder) {
			b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) { // SignedData
				b.AddASN1Int64(1)
				b.AddASN1(cryptobyte_asn1.SET, func(b *cryptobyte.Builder) {
					addDigestAlgorithm(b, alg.DigestOID)
				})
				b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) { // EncapsulatedContentInfo
					b.AddASN1ObjectIdentifier(OIDData)
				})
				b.AddASN1(tagCertificates, func(b *cryptobyte.Builder) {
					for _, c := range signer.CertificateChain() {
						b.AddBytes(c.Raw)
					}
				})
				b.AddASN1(cryptobyte_asn1.SET, func(b *cryptobyte.Builder) {
					b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) { // SignerInfo
						b.AddASN1Int64(1)
						b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) { // IssuerAndSerialNumber
							b.AddBytes(cert.RawIssuer)
							b.AddASN1BigInt(cert.SerialNumber)
						})
						addDigestAlgorithm(b, alg.DigestOID)
						b.AddBytes(signedAttrs)
						b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
							b.AddASN1ObjectIdentifier(alg.OID)
							if alg.NullParams {
								b.AddASN1NULL()
							}
						})
						b.AddASN1OctetString(signature)
						if unsignedAttrs != nil {
							b.AddBytes(unsignedAttrs)
						}
					})
				})
			})
		})
	})

	der, err := b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to encode signed data: %w", err)
	}
	return NormalizeDigestAlgorithms(der)
}

// addDigestAlgorithm writes a digest identifier with absent parameters,
// the form RFC 5754 recommends and generic encoders produce.
// NormalizeDigestAlgorithms adds the NULL to SHA-256 afterwards.
func addDigestAlgorithm(b *cryptobyte.Builder, oid asn1.ObjectIdentifier) {
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1ObjectIdentifier(oid)
	})
}

func signedAttributes(signer Signer, opts Options) ([]Attribute, error) {
	contentType, err := contentTypeAttribute()
	if err != nil {
		return nil, err
	}
	messageDigest, err := messageDigestAttribute(opts.Digest)
	if err != nil {
		return nil, err
	}
	signingCert, err := SigningCertificateV2(signer.Certificate())
	if err != nil {
		return nil, err
	}

	attrs := []Attribute{contentType, messageDigest, signingCert}
	for _, extra := range opts.ExtraSignedAttributes {
		if extra.Type.Equal(OIDAttributeContentType) ||
			extra.Type.Equal(OIDAttributeMessageDigest) ||
			extra.Type.Equal(OIDAttributeSigningCertificateV2) {
			continue
		}
		attrs = append(attrs, extra)
	}
	return FilterAttributes(attrs), nil
}
