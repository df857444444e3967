package sign

import (
	"log/slog"
	"time"

	"github.com/inkseal/pdfsign/cms"
	"github.com/inkseal/pdfsign/internal/pdf"
	"github.com/mattetti/filebuffer"
)

type SignDataSignatureInfo struct {
	Name        string
	Location    string
	Reason      string
	ContactInfo string
	// Date is written as /M. The zero value means now.
	Date time.Time
}

type SignData struct {
	Signature SignDataSignatureInfo

	// Signer produces the CMS signature. It is ignored by
	// PrepareForExternalSigning.
	Signer cms.Signer

	// Page is the zero based index of the page the signature field is
	// attached to.
	Page int

	// ContentsSize is the number of bytes reserved for the CMS container.
	// Zero selects a size from the signer's certificates and key.
	ContentsSize int

	// Timestamp, when set, is passed on to the container builder.
	Timestamp cms.TimestampFunc

	// ExtraSignedAttributes are added to the CMS signed attributes after
	// filtering.
	ExtraSignedAttributes []cms.Attribute

	Logger *slog.Logger
}

// Prepared is a document with an appended, unfilled signature.
type Prepared struct {
	// Bytes is the complete document with the final /ByteRange and a
	// zero filled /Contents placeholder.
	Bytes []byte
	// Digest is the digest over the two covered ranges. HashAlgorithm
	// names the hash, "SHA-256" unless a local signer asked for another.
	Digest        []byte
	HashAlgorithm string
	ByteRange     [4]int64

	ByteRangeOffset int
	ByteRangeLength int
	// ContentsHexOffset is the offset of the first hex digit after '<'.
	ContentsHexOffset int
	// ContentsSize is the placeholder capacity in bytes; it holds twice as
	// many hex digits.
	ContentsSize int

	FieldName string
}

type xrefEntry struct {
	ID     int
	Offset int64
}

// SignContext carries the state of one incremental update.
type SignContext struct {
	Document     *pdf.Document
	OutputBuffer *filebuffer.Buffer
	SignData     SignData

	FieldName       string
	ByteRangeValues [4]int64
	NewXrefStart    int64

	contentsSize    int
	contentsOffset  int64
	byteRangeOffset int64
	xrefEntries     []xrefEntry
	log             *slog.Logger
}
