package cms

import (
	"crypto/x509"

	"github.com/digitorus/pkcs7"
)

// DefaultContentsSize is the minimum number of bytes reserved for a
// container in the /Contents placeholder.
const DefaultContentsSize = 8192

// timestampReserve is added when a timestamp token will be embedded.
const timestampReserve = 6144

// EstimateSize returns the number of bytes to reserve for a container
// produced by signer. The certificate part is measured by encoding the
// chain as a degenerate SignedData; signature, attributes and framing get
// a fixed allowance on top.
func EstimateSize(signer Signer, withTimestamp bool) int {
	size := DefaultContentsSize
	if signer == nil || signer.Certificate() == nil {
		return size
	}

	estimate := 1024 // attributes, identifiers and framing
	if sigSize, err := PublicKeySignatureSize(signer.Certificate().PublicKey); err == nil {
		estimate += sigSize
	} else {
		estimate += 512
	}
	estimate += certificateBytes(signer.CertificateChain())
	if withTimestamp {
		estimate += timestampReserve
	}

	if estimate > size {
		size = estimate
	}
	return size
}

func certificateBytes(chain []*x509.Certificate) int {
	var raw []byte
	for _, c := range chain {
		raw = append(raw, c.Raw...)
	}
	if len(raw) == 0 {
		return 0
	}
	degenerate, err := pkcs7.DegenerateCertificate(raw)
	if err != nil {
		return len(raw)
	}
	return len(degenerate)
}
