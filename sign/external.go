package sign

import (
	"crypto"
	"os"

	"github.com/inkseal/pdfsign/cms"
	"github.com/inkseal/pdfsign/common"
)

// PrepareForExternalSigning appends an unsigned signature to data and
// returns the prepared document with the SHA-256 digest a remote signer
// has to cover. No key is used; sign_data.Signer, when set, only sizes the
// placeholder.
func PrepareForExternalSigning(data []byte, sign_data SignData) (*Prepared, error) {
	if sign_data.ContentsSize == 0 {
		sign_data.ContentsSize = cms.EstimateSize(sign_data.Signer, sign_data.Timestamp != nil)
	}

	context, err := newSignContext(data, sign_data)
	if err != nil {
		return nil, err
	}
	prepared, err := context.prepare(crypto.SHA256)
	if err != nil {
		return nil, err
	}
	context.log.Debug("prepared for external signing",
		"field", prepared.FieldName, "contents_size", prepared.ContentsSize, "byte_range", prepared.ByteRange[:])
	return prepared, nil
}

// CompleteExternalSigning embeds a DER encoded CMS container into the last
// signature placeholder of prepared. The prepared slice is not modified.
func CompleteExternalSigning(prepared []byte, container []byte) ([]byte, error) {
	if len(container) == 0 {
		return nil, &common.CryptoError{Msg: "empty signature container"}
	}
	return embedContainer(prepared, container)
}

// CompleteFile reads a prepared document, embeds container and writes the
// result to output. Nothing is written when embedding fails.
func CompleteFile(input string, output string, container []byte) error {
	prepared, err := os.ReadFile(input)
	if err != nil {
		return &common.IOError{Path: input, Err: err}
	}
	signed, err := CompleteExternalSigning(prepared, container)
	if err != nil {
		return err
	}
	return WriteFile(output, signed)
}
