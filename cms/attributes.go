package cms

import (
	"bytes"
	"crypto/sha256"
	"crypto/x509"
	"encoding/asn1"
	"sort"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// Attribute is a CMS attribute with a single value. Value holds the DER
// encoding of that value.
type Attribute struct {
	Type  asn1.ObjectIdentifier
	Value []byte
}

func (a Attribute) marshal(b *cryptobyte.Builder) {
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1ObjectIdentifier(a.Type)
		b.AddASN1(cryptobyte_asn1.SET, func(b *cryptobyte.Builder) {
			b.AddBytes(a.Value)
		})
	})
}

func contentTypeAttribute() (Attribute, error) {
	var b cryptobyte.Builder
	b.AddASN1ObjectIdentifier(OIDData)
	v, err := b.Bytes()
	return Attribute{Type: OIDAttributeContentType, Value: v}, err
}

func messageDigestAttribute(digest []byte) (Attribute, error) {
	var b cryptobyte.Builder
	b.AddASN1OctetString(digest)
	v, err := b.Bytes()
	return Attribute{Type: OIDAttributeMessageDigest, Value: v}, err
}

// SigningCertificateV2 builds the signing-certificate-v2 attribute holding
// one ESSCertIDv2: the SHA-256 hash of the certificate and its issuer and
// serial number. The hash algorithm is SHA-256, the DEFAULT, so it is
// omitted from the encoding.
func SigningCertificateV2(cert *x509.Certificate) (Attribute, error) {
	certHash := sha256.Sum256(cert.Raw)

	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) { // SigningCertificateV2
		b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) { // certs
			b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) { // ESSCertIDv2
				b.AddASN1OctetString(certHash[:])
				b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) { // IssuerSerial
					b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) { // GeneralNames
						b.AddASN1(cryptobyte_asn1.Tag(4).Constructed().ContextSpecific(), func(b *cryptobyte.Builder) { // directoryName
							b.AddBytes(cert.RawIssuer)
						})
					})
					b.AddASN1BigInt(cert.SerialNumber)
				})
			})
		})
	})

	v, err := b.Bytes()
	return Attribute{Type: OIDAttributeSigningCertificateV2, Value: v}, err
}

// FilterAttributes drops attributes that must not appear in the signed
// attribute table (CMSAlgorithmProtection and signingTime).
func FilterAttributes(attrs []Attribute) []Attribute {
	out := make([]Attribute, 0, len(attrs))
next:
	for _, a := range attrs {
		for _, oid := range excludedAttributes {
			if a.Type.Equal(oid) {
				continue next
			}
		}
		out = append(out, a)
	}
	return out
}

// marshalAttributeSet encodes attrs as a DER SET OF, sorted by encoding,
// using tag for the outer element.
func marshalAttributeSet(attrs []Attribute, tag cryptobyte_asn1.Tag) ([]byte, error) {
	encoded := make([][]byte, 0, len(attrs))
	for _, a := range attrs {
		var b cryptobyte.Builder
		a.marshal(&b)
		der, err := b.Bytes()
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, der)
	}
	sort.Slice(encoded, func(i, j int) bool {
		return bytes.Compare(encoded[i], encoded[j]) < 0
	})

	var b cryptobyte.Builder
	b.AddASN1(tag, func(b *cryptobyte.Builder) {
		for _, e := range encoded {
			b.AddBytes(e)
		}
	})
	return b.Bytes()
}
