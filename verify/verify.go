// Package verify reports the signatures of a PDF document.
//
// Verify is a structural check only: it finds signature dictionaries and
// tells whether they are well formed. It does not validate signatures,
// certificate chains or revocation status, and never sets Trusted.
// CheckIntegrity is the separate, explicit cryptographic check.
package verify

import (
	"os"
	"regexp"

	"github.com/inkseal/pdfsign/common"
)

var sigType = regexp.MustCompile(`/Type\s*/Sig\b`)

// VerifyFile reads path and calls Verify.
func VerifyFile(path string) ([]common.SignatureInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &common.IOError{Path: path, Err: err}
	}
	return Verify(data)
}

// Verify returns one SignatureInfo per signature dictionary in data, in the
// order they appear in the file. An unsigned document yields an empty
// slice.
func Verify(data []byte) ([]common.SignatureInfo, error) {
	text := string(data)
	signatures := []common.SignatureInfo{}

	for _, loc := range sigType.FindAllStringIndex(text, -1) {
		window, objNum := signatureWindow(text, loc[0])
		info := parseSignature(window, data)
		info.FieldName = fieldName(text, objNum)
		signatures = append(signatures, info)
	}
	return signatures, nil
}
