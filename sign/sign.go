// Package sign appends PAdES signatures to PDF documents as incremental
// updates. Existing bytes are never rewritten.
package sign

import (
	"crypto"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/inkseal/pdfsign/cms"
	"github.com/inkseal/pdfsign/common"
	"github.com/inkseal/pdfsign/internal/pdf"
)

// SignFile signs the document at input and writes the result to output.
// output is only replaced once the whole document has been produced.
func SignFile(input string, output string, sign_data SignData) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return &common.IOError{Path: input, Err: err}
	}

	signed, err := Sign(data, sign_data)
	if err != nil {
		return err
	}
	return WriteFile(output, signed)
}

// Sign returns data with a signature by sign_data.Signer appended.
func Sign(data []byte, sign_data SignData) ([]byte, error) {
	if sign_data.Signer == nil {
		return nil, &common.CryptoError{Msg: "no signer", Err: cms.ErrNilSigner}
	}

	auto := sign_data.ContentsSize == 0
	if auto {
		sign_data.ContentsSize = cms.EstimateSize(sign_data.Signer, sign_data.Timestamp != nil)
	}

	context, err := newSignContext(data, sign_data)
	if err != nil {
		return nil, err
	}

	signed, err := context.SignPDF()
	var capacity *common.CapacityError
	if auto && errors.As(err, &capacity) {
		// The estimate was too small, typically because of a large
		// timestamp token. Retry once with room for what was required.
		sign_data.ContentsSize = capacity.Required/2 + 512
		context.log.Debug("signature container exceeded estimate, retrying",
			"required", capacity.Required, "available", capacity.Available, "contents_size", sign_data.ContentsSize)

		if context, err = newSignContext(data, sign_data); err != nil {
			return nil, err
		}
		signed, err = context.SignPDF()
	}
	return signed, err
}

func newSignContext(data []byte, sign_data SignData) (*SignContext, error) {
	doc, err := pdf.NewDocument(data)
	if err != nil {
		return nil, err
	}
	if doc.Trailer().Encrypted {
		return nil, common.Structuralf("sign", "encrypted documents are not supported")
	}

	size := sign_data.ContentsSize
	if size <= 0 {
		size = cms.DefaultContentsSize
	}

	log := sign_data.Logger
	if log == nil {
		log = slog.Default()
	}

	return &SignContext{
		Document:     doc,
		SignData:     sign_data,
		contentsSize: size,
		log:          log,
	}, nil
}

// SignPDF runs the complete local signing pipeline.
func (context *SignContext) SignPDF() ([]byte, error) {
	if context.SignData.Signer == nil {
		return nil, &common.CryptoError{Msg: "no signer", Err: cms.ErrNilSigner}
	}
	alg, err := context.SignData.Signer.Algorithm()
	if err != nil {
		return nil, err
	}

	prepared, err := context.prepare(alg.Hash)
	if err != nil {
		return nil, err
	}

	container, err := context.createSignature(prepared.Digest)
	if err != nil {
		return nil, err
	}

	signed, err := embedContainer(prepared.Bytes, container)
	if err != nil {
		return nil, err
	}
	context.log.Debug("signature embedded", "field", prepared.FieldName, "size", len(signed))
	return signed, nil
}

// prepare writes the update, fixes the byte range and hashes the covered
// bytes with hash.
func (context *SignContext) prepare(hash crypto.Hash) (*Prepared, error) {
	if err := context.writeUpdate(context.Document.NextObjectNumber()); err != nil {
		return nil, fmt.Errorf("failed to write incremental update: %w", err)
	}
	if err := context.updateByteRange(); err != nil {
		return nil, err
	}

	out := context.OutputBuffer.Buff.Bytes()
	digest, err := HashByteRangeWith(out, context.ByteRangeValues, hash)
	if err != nil {
		return nil, err
	}

	return &Prepared{
		Bytes:             out,
		Digest:            digest,
		HashAlgorithm:     hash.String(),
		ByteRange:         context.ByteRangeValues,
		ByteRangeOffset:   int(context.byteRangeOffset),
		ByteRangeLength:   len(signatureByteRangePlaceholder),
		ContentsHexOffset: int(context.contentsOffset) + 1,
		ContentsSize:      context.contentsSize,
		FieldName:         context.FieldName,
	}, nil
}
