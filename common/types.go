package common

import (
	"time"
)

// SignatureInfo describes one signature dictionary found in a document.
//
// Valid only reports structural plausibility: the /Contents hex string
// decodes, it is long enough to hold a CMS container and the /ByteRange is
// well formed. Trusted is never set by the structural verifier because no
// trust store is consulted.
type SignatureInfo struct {
	FieldName      string     `json:"field_name,omitempty"`
	SignerName     string     `json:"signer_name"`
	SignedAt       *time.Time `json:"signed_at,omitempty"`
	Reason         string     `json:"reason"`
	Location       string     `json:"location,omitempty"`
	ContactInfo    string     `json:"contact_info,omitempty"`
	SubFilter      string     `json:"sub_filter,omitempty"`
	ByteRange      []int64    `json:"byte_range"`
	ContentsLength int        `json:"contents_length"`
	Valid          bool       `json:"valid"`
	Trusted        bool       `json:"trusted"`

	// Contents holds the decoded /Contents bytes, trailing zero padding
	// included. It is not serialised.
	Contents []byte `json:"-"`
}

// IntegrityResult is the outcome of an explicit cryptographic check of one
// signature. It is produced separately from SignatureInfo and never alters
// Valid or Trusted.
type IntegrityResult struct {
	DocumentHash  string `json:"document_hash"`
	HashAlgorithm string `json:"hash_algorithm"`
	DigestMatch   bool   `json:"digest_match"`
	SignatureOK   bool   `json:"signature_ok"`
	Error         string `json:"error,omitempty"`

	// Timestamp is set when the signer info carries an RFC 3161 token.
	Timestamp *TimestampInfo `json:"timestamp,omitempty"`
}

// TimestampInfo describes an embedded signature timestamp token.
type TimestampInfo struct {
	Time        time.Time `json:"time"`
	ImprintOK   bool      `json:"imprint_ok"`
	Certificate string    `json:"certificate,omitempty"`
}
