package sign

import (
	"fmt"

	"github.com/inkseal/pdfsign/common"
	"github.com/mattetti/filebuffer"
)

// writeUpdate appends the incremental update to a copy of the document:
// signature dictionary, field widget, revised page, revised catalog, xref
// section and trailer. New objects are numbered from nextObject.
func (context *SignContext) writeUpdate(nextObject int) error {
	doc := context.Document

	page, err := doc.Page(context.SignData.Page)
	if err != nil {
		return err
	}
	catalog, err := doc.Catalog()
	if err != nil {
		return err
	}
	if page.ObjNum == doc.Trailer().Root {
		return common.Structuralf("sign", "page object %d is the catalog", page.ObjNum)
	}

	context.FieldName = NextFieldName(doc.Text())
	signatureID := nextObject
	fieldID := nextObject + 1
	size := nextObject + 2

	context.OutputBuffer = filebuffer.New([]byte{})
	if _, err := context.OutputBuffer.Write(doc.Bytes()); err != nil {
		return fmt.Errorf("failed to copy document: %w", err)
	}
	if last := doc.Bytes()[doc.Len()-1]; last != '\n' && last != '\r' {
		if _, err := context.OutputBuffer.Write([]byte("\n")); err != nil {
			return fmt.Errorf("failed to copy document: %w", err)
		}
	}

	signature, byteRangeAt, contentsAt := context.createSignaturePlaceholder()
	bodyOffset, err := context.addObject(signatureID, signature)
	if err != nil {
		return err
	}
	context.byteRangeOffset = bodyOffset + int64(byteRangeAt)
	context.contentsOffset = bodyOffset + int64(contentsAt)

	if _, err := context.addObject(fieldID, context.createField(signatureID, page.ObjNum)); err != nil {
		return err
	}
	if _, err := context.addObject(page.ObjNum, createPage(page, fieldID)); err != nil {
		return err
	}
	revisedCatalog, err := context.createCatalog(catalog, fieldID)
	if err != nil {
		return err
	}
	if _, err := context.addObject(doc.Trailer().Root, revisedCatalog); err != nil {
		return err
	}

	if err := context.writeIncrXrefTable(); err != nil {
		return err
	}
	if err := context.writeTrailer(size); err != nil {
		return err
	}

	context.log.Debug("appended incremental update",
		"field", context.FieldName,
		"signature_object", signatureID,
		"page_object", page.ObjNum,
		"xref", context.NewXrefStart,
		"prev", doc.Trailer().StartXref,
	)
	return nil
}
