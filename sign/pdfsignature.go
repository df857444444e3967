package sign

import (
	"fmt"
	"strings"
	"time"

	"github.com/inkseal/pdfsign/cms"
)

const signatureByteRangePlaceholder = "/ByteRange [0 ********** ********** **********]"

// createSignaturePlaceholder returns the signature dictionary together with
// the offsets, relative to the dictionary, of the /ByteRange placeholder and
// of the '<' opening the /Contents placeholder.
func (context *SignContext) createSignaturePlaceholder() (dict string, byteRangeAt int, contentsAt int) {
	info := context.SignData.Signature
	date := info.Date
	if date.IsZero() {
		date = time.Now()
	}

	var b strings.Builder
	b.WriteString("<<\n")
	b.WriteString(" /Type /Sig\n")
	b.WriteString(" /Filter /Adobe.PPKLite\n")
	b.WriteString(" /SubFilter /ETSI.CAdES.detached\n")

	b.WriteString(" ")
	byteRangeAt = b.Len()
	b.WriteString(signatureByteRangePlaceholder + "\n")

	b.WriteString(" /Contents ")
	contentsAt = b.Len()
	b.WriteString("<" + strings.Repeat("0", 2*context.contentsSize) + ">\n")

	if info.Name != "" {
		b.WriteString(" /Name " + pdfString(info.Name) + "\n")
	}
	b.WriteString(" /Reason " + pdfString(info.Reason) + "\n")
	b.WriteString(" /Location " + pdfString(info.Location) + "\n")
	b.WriteString(" /ContactInfo " + pdfString(info.ContactInfo) + "\n")
	b.WriteString(" /M " + pdfDateTime(date) + "\n")
	b.WriteString(">>")

	return b.String(), byteRangeAt, contentsAt
}

// createSignature builds the CMS container over digest.
func (context *SignContext) createSignature(digest []byte) ([]byte, error) {
	container, err := cms.Build(context.SignData.Signer, cms.Options{
		Digest:                digest,
		ExtraSignedAttributes: context.SignData.ExtraSignedAttributes,
		Timestamp:             context.SignData.Timestamp,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create signature: %w", err)
	}
	context.log.Debug("built signature container", "field", context.FieldName, "bytes", len(container))
	return container, nil
}
