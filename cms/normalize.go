package cms

import (
	"encoding/asn1"
	"errors"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

var errMalformed = errors.New("cms: malformed SignedData")

// NormalizeDigestAlgorithms rewrites every SHA-256 AlgorithmIdentifier in
// SignedData.digestAlgorithms and in each SignerInfo.digestAlgorithm so
// that it carries an explicit DER NULL parameter. All other elements are
// copied unchanged. The signature stays valid because it only covers the
// signed attributes. Input that already carries the NULL is returned
// byte-identical.
func NormalizeDigestAlgorithms(der []byte) ([]byte, error) {
	input := cryptobyte.String(der)
	var contentInfo, explicit, signedData cryptobyte.String
	var contentType asn1.ObjectIdentifier
	if !input.ReadASN1(&contentInfo, cryptobyte_asn1.SEQUENCE) || !input.Empty() ||
		!contentInfo.ReadASN1ObjectIdentifier(&contentType) || !contentType.Equal(OIDSignedData) ||
		!contentInfo.ReadASN1(&explicit, tagExplicitContent) ||
		!explicit.ReadASN1(&signedData, cryptobyte_asn1.SEQUENCE) {
		return nil, errMalformed
	}

	var version, digestAlgorithms, encapContent, certificates, crls, signerInfos cryptobyte.String
	if !signedData.ReadASN1Element(&version, cryptobyte_asn1.INTEGER) ||
		!signedData.ReadASN1(&digestAlgorithms, cryptobyte_asn1.SET) ||
		!signedData.ReadASN1Element(&encapContent, cryptobyte_asn1.SEQUENCE) {
		return nil, errMalformed
	}
	if signedData.PeekASN1Tag(tagCertificates) && !signedData.ReadASN1Element(&certificates, tagCertificates) {
		return nil, errMalformed
	}
	tagCRLs := cryptobyte_asn1.Tag(1).Constructed().ContextSpecific()
	if signedData.PeekASN1Tag(tagCRLs) && !signedData.ReadASN1Element(&crls, tagCRLs) {
		return nil, errMalformed
	}
	if !signedData.ReadASN1(&signerInfos, cryptobyte_asn1.SET) || !signedData.Empty() {
		return nil, errMalformed
	}

	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1ObjectIdentifier(OIDSignedData)
		b.AddASN1(tagExplicitContent, func(b *cryptobyte.Builder) {
			b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
				b.AddBytes(version)
				b.AddASN1(cryptobyte_asn1.SET, func(b *cryptobyte.Builder) {
					for !digestAlgorithms.Empty() {
						var alg cryptobyte.String
						if !digestAlgorithms.ReadASN1Element(&alg, cryptobyte_asn1.SEQUENCE) {
							b.SetError(errMalformed)
							return
						}
						addNormalizedAlgorithm(b, alg)
					}
				})
				b.AddBytes(encapContent)
				b.AddBytes(certificates)
				b.AddBytes(crls)
				b.AddASN1(cryptobyte_asn1.SET, func(b *cryptobyte.Builder) {
					for !signerInfos.Empty() {
						var si cryptobyte.String
						if !signerInfos.ReadASN1(&si, cryptobyte_asn1.SEQUENCE) {
							b.SetError(errMalformed)
							return
						}
						addNormalizedSignerInfo(b, si)
					}
				})
			})
		})
	})
	return b.Bytes()
}

func addNormalizedSignerInfo(b *cryptobyte.Builder, si cryptobyte.String) {
	var version, sid, digestAlg cryptobyte.String
	var sidTag cryptobyte_asn1.Tag
	if !si.ReadASN1Element(&version, cryptobyte_asn1.INTEGER) ||
		!si.ReadAnyASN1Element(&sid, &sidTag) ||
		!si.ReadASN1Element(&digestAlg, cryptobyte_asn1.SEQUENCE) {
		b.SetError(errMalformed)
		return
	}
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddBytes(version)
		b.AddBytes(sid)
		addNormalizedAlgorithm(b, digestAlg)
		// signedAttrs, signatureAlgorithm, signature and unsignedAttrs
		b.AddBytes(si)
	})
}

// addNormalizedAlgorithm copies one AlgorithmIdentifier element, adding a
// NULL parameter to SHA-256 when parameters are absent.
func addNormalizedAlgorithm(b *cryptobyte.Builder, element cryptobyte.String) {
	var inner cryptobyte.String
	var oid asn1.ObjectIdentifier
	alg := element
	if !alg.ReadASN1(&inner, cryptobyte_asn1.SEQUENCE) || !inner.ReadASN1ObjectIdentifier(&oid) {
		b.SetError(errMalformed)
		return
	}
	if oid.Equal(OIDDigestSHA256) && inner.Empty() {
		b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1ObjectIdentifier(oid)
			b.AddASN1NULL()
		})
		return
	}
	b.AddBytes(element)
}
