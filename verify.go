package pdfsign

import (
	"github.com/inkseal/pdfsign/verify"
)

// Verify lists the signatures of the document. The check is structural:
// Valid reports a well formed signature dictionary and Trusted is never
// set. Use CheckIntegrity for the cryptographic check.
func (d *Document) Verify() ([]SignatureInfo, error) {
	return verify.Verify(d.data)
}

// CheckIntegrity recomputes the digest over the signed ranges of info and
// verifies the container signature.
func (d *Document) CheckIntegrity(info SignatureInfo) (*IntegrityResult, error) {
	return verify.CheckIntegrity(d.data, info)
}
