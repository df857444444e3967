package pdfsign

import (
	"context"
	"fmt"

	"github.com/inkseal/pdfsign/sign"
	"github.com/inkseal/pdfsign/tsa"
)

// Sign begins the process of adding a digital signature to the document.
// It returns a SignBuilder for fluent configuration of the signature
// properties. A nil signer is allowed when the builder is only used for
// Prepare.
func (d *Document) Sign(signer Signer) *SignBuilder {
	return &SignBuilder{doc: d, signer: signer}
}

func (b *SignBuilder) signData() sign.SignData {
	data := sign.SignData{
		Signature: sign.SignDataSignatureInfo{
			Name:        b.signerName,
			Reason:      b.reason,
			Location:    b.location,
			ContactInfo: b.contact,
			Date:        b.date,
		},
		Signer:                b.signer,
		Page:                  b.page,
		ContentsSize:          b.contentsSize,
		ExtraSignedAttributes: b.extraAttr,
		Logger:                b.doc.log(),
	}

	switch {
	case b.tsaFunc != nil:
		data.Timestamp = b.tsaFunc
	case b.tsa != "":
		client := &tsa.Client{
			URL:      b.tsa,
			Username: b.tsaUser,
			Password: b.tsaPass,
			Logger:   b.doc.log(),
		}
		data.Timestamp = client.TimestampFunc(context.Background())
	}
	return data
}

// Write signs the document and returns the signed bytes. The document now
// holds the signed version, so a further Sign adds a second signature.
func (b *SignBuilder) Write() ([]byte, error) {
	signed, err := sign.Sign(b.doc.data, b.signData())
	if err != nil {
		return nil, err
	}
	if err := b.doc.replace(signed); err != nil {
		return nil, fmt.Errorf("signed document does not parse: %w", err)
	}
	return signed, nil
}

// WriteFile signs the document and writes it to path. path is left
// untouched when signing fails.
func (b *SignBuilder) WriteFile(path string) error {
	signed, err := b.Write()
	if err != nil {
		return err
	}
	return sign.WriteFile(path, signed)
}

// Prepare appends the signature with an empty container for signing
// elsewhere. The signer is not used and the document is left unchanged;
// finish with Complete.
func (b *SignBuilder) Prepare() (*Prepared, error) {
	return sign.PrepareForExternalSigning(b.doc.data, b.signData())
}

// Complete embeds an externally created CMS container into a prepared
// document.
func Complete(prepared []byte, container []byte) ([]byte, error) {
	return sign.CompleteExternalSigning(prepared, container)
}
