package verify

import (
	"bytes"
	"crypto"
	"encoding/hex"
	"fmt"

	"github.com/digitorus/pkcs7"
	"github.com/digitorus/timestamp"
	"github.com/inkseal/pdfsign/cms"
	"github.com/inkseal/pdfsign/common"
	"github.com/inkseal/pdfsign/sign"
)

// CheckIntegrity recomputes the digest over the byte range of info and
// checks it against the container's messageDigest and signature. A
// timestamp token, when present, has its imprint checked against the
// signature value. Certificate chains and revocation are not examined, and
// info.Valid and info.Trusted are left alone.
//
// A malformed byte range is returned as an error; cryptographic failures
// are reported in the result.
func CheckIntegrity(data []byte, info common.SignatureInfo) (*common.IntegrityResult, error) {
	if len(info.ByteRange) != 4 {
		return nil, common.Structuralf("integrity", "signature has no usable /ByteRange")
	}
	br := [4]int64{info.ByteRange[0], info.ByteRange[1], info.ByteRange[2], info.ByteRange[3]}

	// The covered bytes are hashed with the signer's digestAlgorithm,
	// falling back to SHA-256 when the container cannot tell.
	hash := crypto.SHA256
	p7, parseErr := pkcs7.Parse(info.Contents)
	if parseErr == nil && len(p7.Signers) > 0 {
		if h, ok := cms.HashForDigestOID(p7.Signers[0].DigestAlgorithm.Algorithm); ok {
			hash = h
		}
	}

	digest, err := sign.HashByteRangeWith(data, br, hash)
	if err != nil {
		return nil, err
	}

	result := &common.IntegrityResult{
		DocumentHash:  hex.EncodeToString(digest),
		HashAlgorithm: hash.String(),
	}
	if parseErr != nil {
		result.Error = fmt.Sprintf("failed to parse signature container: %v", parseErr)
		return result, nil
	}

	var messageDigest []byte
	if err := p7.UnmarshalSignedAttribute(cms.OIDAttributeMessageDigest, &messageDigest); err != nil {
		result.Error = fmt.Sprintf("failed to read messageDigest: %v", err)
		return result, nil
	}
	result.DigestMatch = bytes.Equal(messageDigest, digest)

	p7.Content = coveredBytes(data, br)
	if err := p7.Verify(); err != nil {
		result.Error = fmt.Sprintf("signature verification failed: %v", err)
	} else {
		result.SignatureOK = true
	}

	ts, err := signatureTimestamp(p7)
	if err != nil && result.Error == "" {
		result.Error = err.Error()
	}
	result.Timestamp = ts
	return result, nil
}

func coveredBytes(data []byte, br [4]int64) []byte {
	content := make([]byte, 0, br[1]+br[3])
	content = append(content, data[br[0]:br[0]+br[1]]...)
	return append(content, data[br[2]:br[2]+br[3]]...)
}

// signatureTimestamp parses the id-aa-timeStampToken of the first signer.
func signatureTimestamp(p7 *pkcs7.PKCS7) (*common.TimestampInfo, error) {
	if len(p7.Signers) == 0 {
		return nil, nil
	}
	signer := p7.Signers[0]
	for _, attr := range signer.UnauthenticatedAttributes {
		if !attr.Type.Equal(cms.OIDAttributeTimeStampToken) {
			continue
		}
		ts, err := timestamp.Parse(attr.Value.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timestamp: %w", err)
		}

		h := ts.HashAlgorithm.New()
		h.Write(signer.EncryptedDigest)
		info := &common.TimestampInfo{
			Time:      ts.Time,
			ImprintOK: bytes.Equal(h.Sum(nil), ts.HashedMessage),
		}
		if len(ts.Certificates) > 0 {
			info.Certificate = ts.Certificates[0].Subject.CommonName
		}
		return info, nil
	}
	return nil, nil
}
