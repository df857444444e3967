// Package pdfsign signs and inspects PDF documents with PAdES-B-B
// signatures. Every change is written as an incremental update, so bytes
// covered by earlier signatures are never touched.
//
// Basic usage:
//
//	doc, err := pdfsign.OpenFile("document.pdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	signed, err := doc.Sign(identity).
//	    Reason("Approved").
//	    Location("Amsterdam").
//	    Write()
//
// See https://www.etsi.org/deliver/etsi_en/319100_319199/31914201/ for PAdES specification.
package pdfsign

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	pdflib "github.com/digitorus/pdf"
	"github.com/inkseal/pdfsign/common"
	"github.com/inkseal/pdfsign/internal/pdf"
	"github.com/inkseal/pdfsign/sign"
)

// Document is a PDF held in memory. Signing and overlays replace the held
// bytes with the updated document, so operations can be chained.
type Document struct {
	data   []byte
	parsed *pdf.Document
	logger *slog.Logger
}

// Open initializes a Document from the bytes of a PDF. The slice is copied.
func Open(data []byte) (*Document, error) {
	parsed, err := pdf.NewDocument(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return &Document{data: parsed.Bytes(), parsed: parsed}, nil
}

// OpenFile is a convenience method to initialize a Document from a file on disk.
func OpenFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &common.IOError{Path: path, Err: err}
	}
	return Open(data)
}

// SetLogger sets the logger passed to the signing and overlay pipelines.
func (d *Document) SetLogger(logger *slog.Logger) {
	d.logger = logger
}

// Bytes returns the current document. Callers must not modify the slice.
func (d *Document) Bytes() []byte {
	return d.data
}

// WriteFile writes the current document to path, replacing it atomically.
func (d *Document) WriteFile(path string) error {
	return sign.WriteFile(path, d.data)
}

// PageCount returns the number of pages as seen by a full xref aware
// reader, falling back to the flat page tree when that reader fails.
func (d *Document) PageCount() (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			n, err = d.parsed.PageCount()
		}
	}()

	rdr, err := d.Reader()
	if err != nil {
		return d.parsed.PageCount()
	}
	return rdr.NumPage(), nil
}

// Reader returns a low-level PDF reader over the current document, allowing
// direct access to the cross-reference table and objects.
func (d *Document) Reader() (*pdflib.Reader, error) {
	rdr, err := pdflib.NewReader(bytes.NewReader(d.data), int64(len(d.data)))
	if err != nil {
		return nil, fmt.Errorf("failed to create reader: %w", err)
	}
	return rdr, nil
}

// replace swaps in an updated version of the document.
func (d *Document) replace(data []byte) error {
	parsed, err := pdf.NewDocument(data)
	if err != nil {
		return err
	}
	d.data = parsed.Bytes()
	d.parsed = parsed
	return nil
}

func (d *Document) log() *slog.Logger {
	if d.logger != nil {
		return d.logger
	}
	return slog.Default()
}
