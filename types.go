package pdfsign

import (
	"crypto"
	"crypto/x509"
	"time"

	"github.com/inkseal/pdfsign/cms"
	"github.com/inkseal/pdfsign/common"
	"github.com/inkseal/pdfsign/overlay"
	"github.com/inkseal/pdfsign/sign"
)

// SignatureInfo describes one signature found in a document.
type SignatureInfo = common.SignatureInfo

// IntegrityResult is the outcome of a cryptographic integrity check.
type IntegrityResult = common.IntegrityResult

// Prepared is a document with an empty signature placeholder and the digest
// an external signer has to sign.
type Prepared = sign.Prepared

// Placement positions an image on a page.
type Placement = overlay.Placement

// Signer is the signing capability: a key that never leaves its store,
// together with its certificate chain.
type Signer = cms.Signer

// NewIdentity wraps a crypto.Signer and its certificate, followed by any
// intermediates, as a Signer.
func NewIdentity(key crypto.Signer, cert *x509.Certificate, chain ...*x509.Certificate) (*cms.Identity, error) {
	return cms.NewIdentity(key, cert, chain...)
}

// SignBuilder collects the properties of one signature. Nothing is written
// until Write, WriteFile or Prepare is called.
type SignBuilder struct {
	doc    *Document
	signer Signer

	signerName   string
	reason       string
	location     string
	contact      string
	page         int
	date         time.Time
	contentsSize int

	tsa       string
	tsaUser   string
	tsaPass   string
	tsaFunc   cms.TimestampFunc
	extraAttr []cms.Attribute
}

// Reason sets the reason for signing.
func (b *SignBuilder) Reason(reason string) *SignBuilder {
	b.reason = reason
	return b
}

// Location sets the location of signing.
func (b *SignBuilder) Location(location string) *SignBuilder {
	b.location = location
	return b
}

// Contact sets the contact information for the signer.
func (b *SignBuilder) Contact(contact string) *SignBuilder {
	b.contact = contact
	return b
}

// SignerName sets the /Name entry. Verifiers prefer it over the certificate
// common name.
func (b *SignBuilder) SignerName(name string) *SignBuilder {
	b.signerName = name
	return b
}

// Page selects the zero based page the signature widget is attached to.
func (b *SignBuilder) Page(page int) *SignBuilder {
	b.page = page
	return b
}

// Date sets the signing time written to /M. Defaults to now.
func (b *SignBuilder) Date(t time.Time) *SignBuilder {
	b.date = t
	return b
}

// ContentsSize fixes the number of bytes reserved for the signature
// container. Zero estimates it from the signer.
func (b *SignBuilder) ContentsSize(size int) *SignBuilder {
	b.contentsSize = size
	return b
}

// Timestamp enables an RFC 3161 signature timestamp from the given TSA.
func (b *SignBuilder) Timestamp(url string) *SignBuilder {
	b.tsa = url
	return b
}

// TimestampAuth sets basic auth credentials for the TSA.
func (b *SignBuilder) TimestampAuth(username, password string) *SignBuilder {
	b.tsaUser = username
	b.tsaPass = password
	return b
}

// TimestampFunc replaces the HTTP timestamp client with fn.
func (b *SignBuilder) TimestampFunc(fn cms.TimestampFunc) *SignBuilder {
	b.tsaFunc = fn
	return b
}

// SignedAttribute adds an extra signed attribute to the signer info.
func (b *SignBuilder) SignedAttribute(attr cms.Attribute) *SignBuilder {
	b.extraAttr = append(b.extraAttr, attr)
	return b
}
