package pdf

import (
	"bytes"
	"fmt"

	pdflib "github.com/digitorus/pdf"
)

// Summary is what a complete, xref aware reader sees in a document. It is
// used to cross-check the output of an incremental update.
type Summary struct {
	Pages    int
	SigFlags int64
	Fields   []string
}

// Inspect opens data with the full reader and collects the page count and
// the AcroForm signature state.
func Inspect(data []byte) (s *Summary, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to read PDF: %v", r)
		}
	}()

	r, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse PDF: %w", err)
	}

	s = &Summary{Pages: r.NumPage()}

	acroForm := r.Trailer().Key("Root").Key("AcroForm")
	if acroForm.IsNull() {
		return s, nil
	}
	s.SigFlags = acroForm.Key("SigFlags").Int64()

	fields := acroForm.Key("Fields")
	for i := 0; i < fields.Len(); i++ {
		name := fields.Index(i).Key("T").Text()
		if name != "" {
			s.Fields = append(s.Fields, name)
		}
	}
	return s, nil
}
