package sign

import (
	"fmt"

	"github.com/inkseal/pdfsign/internal/pdf"
)

// createCatalog returns the revised catalog with fieldID added to
// /AcroForm /Fields and /SigFlags set. An indirect /AcroForm is read and
// written back inline; existing fields are kept.
func (context *SignContext) createCatalog(catalog *pdf.Dict, fieldID int) (string, error) {
	acroForm := pdf.NewDict()
	if raw, ok := catalog.Get("AcroForm"); ok {
		existing, _, err := context.Document.ResolveDict(raw)
		if err != nil {
			return "", fmt.Errorf("failed to read /AcroForm: %w", err)
		}
		acroForm = existing.Clone()
	}

	var fields []string
	if raw, ok := acroForm.Get("Fields"); ok {
		existing, err := context.Document.ResolveArray(raw)
		if err != nil {
			return "", fmt.Errorf("failed to read /AcroForm /Fields: %w", err)
		}
		fields = existing
	}
	fields = append(fields, pdf.FormatRef(fieldID))

	acroForm.Set("Fields", pdf.FormatArray(fields))
	acroForm.Set("SigFlags", "3")

	revised := catalog.Clone()
	revised.Set("AcroForm", acroForm.String())
	return revised.String(), nil
}
