package sign

import (
	"github.com/inkseal/pdfsign/internal/pdf"
)

// createPage returns the revised page with fieldID appended to /Annots.
// The merged array is written inline even when the original was an
// indirect object.
func createPage(page *pdf.Page, fieldID int) string {
	annots := append([]string(nil), page.Annots...)
	annots = append(annots, pdf.FormatRef(fieldID))

	revised := page.Dict.Clone()
	revised.Set("Annots", pdf.FormatArray(annots))
	return revised.String()
}

// createField returns the merged signature field and widget annotation.
// The widget has an empty rectangle and is flagged Print and Locked.
func (context *SignContext) createField(signatureID, pageID int) string {
	field := pdf.NewDict().
		Set("Type", "/Annot").
		Set("Subtype", "/Widget").
		Set("FT", "/Sig").
		Set("T", pdfString(context.FieldName)).
		Set("V", pdf.FormatRef(signatureID)).
		Set("P", pdf.FormatRef(pageID)).
		Set("Rect", "[0 0 0 0]").
		Set("F", "132")
	return field.String()
}
