package pdf_test

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/inkseal/pdfsign/common"
	"github.com/inkseal/pdfsign/internal/pdf"
	"github.com/inkseal/pdfsign/internal/testpki"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindEOF(t *testing.T) {
	data := []byte("%PDF-1.4\n...%%EOF\nmore\n%%EOF\n")
	off, err := pdf.FindEOF(data)
	require.NoError(t, err)
	assert.Equal(t, strings.LastIndex(string(data), "%%EOF"), off)

	_, err = pdf.FindEOF([]byte("%PDF-1.4\nno marker"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrStructural))
}

func TestParseTrailer(t *testing.T) {
	data := testpki.MinimalPDF()
	doc, err := pdf.NewDocument(data)
	require.NoError(t, err)

	tr := doc.Trailer()
	assert.Equal(t, 1, tr.Root)
	assert.Equal(t, 4, tr.Size)
	assert.Equal(t, int64(-1), tr.Prev)
	assert.Equal(t, int64(testpki.StartXref(data)), tr.StartXref)
	assert.False(t, tr.XrefStream)
	assert.Equal(t, 4, doc.NextObjectNumber())
}

func TestParseTrailerPrev(t *testing.T) {
	base := testpki.MinimalPDF()
	updated := testpki.AppendUpdate(base, map[int]string{3: "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 800 600] >>"}, 4, testpki.StartXref(base))

	doc, err := pdf.NewDocument(updated)
	require.NoError(t, err)
	assert.Equal(t, int64(testpki.StartXref(base)), doc.Trailer().Prev)
	assert.Equal(t, int64(testpki.StartXref(updated)), doc.Trailer().StartXref)
}

func TestParseTrailerMissingRoot(t *testing.T) {
	data := []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\nxref\n0 1\n0000000000 65535 f \ntrailer\n<< /Size 2 >>\nstartxref\n45\n%%EOF\n")
	_, err := pdf.NewDocument(data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrStructural))
	assert.Contains(t, err.Error(), "/Root")
}

func TestParseTrailerMissingSize(t *testing.T) {
	data := []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\nstartxref\n9\n%%EOF\n")
	_, err := pdf.NewDocument(data)
	require.Error(t, err)
	var se *common.StructuralError
	require.True(t, errors.As(err, &se))
	assert.Contains(t, se.Msg, "/Size")
}

func TestParseTrailerXrefStream(t *testing.T) {
	head := "%PDF-1.5\n1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n"
	xrefObj := "5 0 obj\n<< /Type /XRef /Size 6 /Root 1 0 R /W [1 2 1] /Length 0 >>\nstream\n\nendstream\nendobj\n"
	data := head + xrefObj + "startxref\n" + strconv.Itoa(len(head)) + "\n%%EOF\n"

	doc, err := pdf.NewDocument([]byte(data))
	require.NoError(t, err)
	assert.True(t, doc.Trailer().XrefStream)
	assert.Equal(t, 1, doc.Trailer().Root)
	assert.Equal(t, 6, doc.Trailer().Size)
}

func TestFindObjectDictLastDefinitionWins(t *testing.T) {
	base := testpki.MinimalPDF()
	first := testpki.AppendUpdate(base, map[int]string{3: "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>"}, 4, testpki.StartXref(base))
	second := testpki.AppendUpdate(first, map[int]string{3: "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 800 600] >>"}, 4, testpki.StartXref(first))

	raw, ok := pdf.FindObjectDict(string(second), 3)
	require.True(t, ok)
	assert.Contains(t, raw, "[0 0 800 600]")

	doc, err := pdf.NewDocument(second)
	require.NoError(t, err)
	page, err := doc.Page(0)
	require.NoError(t, err)
	assert.Equal(t, [4]float64{0, 0, 800, 600}, doc.ReadPageMediaBox(page))
}

func TestFindObjectDictWordBoundary(t *testing.T) {
	text := "12 0 obj\n<< /Type /Annot >>\nendobj\n"
	_, ok := pdf.FindObjectDict(text, 2)
	assert.False(t, ok)

	text += "2 0 obj\n<< /Type /Pages >>\nendobj\n112 0 obj\n<< /Type /Other >>\nendobj\n"
	raw, ok := pdf.FindObjectDict(text, 2)
	require.True(t, ok)
	assert.Equal(t, "<< /Type /Pages >>", raw)
}

func TestFindObjectDictNested(t *testing.T) {
	text := "7 0 obj\n<< /A << /B << /C (x >> y) >> >> /D <414243> /E [1 0 R << /F 2 >>] >>\nendobj\n"
	raw, ok := pdf.FindObjectDict(text, 7)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(raw, "] >>"))

	d, err := pdf.ParseDict(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "D", "E"}, d.Keys())
	a, _ := d.Get("A")
	assert.Equal(t, "<< /B << /C (x >> y) >> >>", a)
}

func TestFindObjectNonDict(t *testing.T) {
	text := "9 0 obj\n[4 0 R 5 0 R]\nendobj\n"
	_, ok := pdf.FindObjectDict(text, 9)
	assert.False(t, ok)

	raw, ok := pdf.FindObject(text, 9)
	require.True(t, ok)
	assert.Equal(t, "[4 0 R 5 0 R]", raw)
}

func TestPageWithIndirectAnnots(t *testing.T) {
	data := testpki.BuildPDF(
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /Annots 4 0 R >>",
		"[5 0 R]",
		"<< /Type /Annot /Subtype /Link /Rect [0 0 1 1] >>",
	)
	doc, err := pdf.NewDocument(data)
	require.NoError(t, err)

	page, err := doc.Page(0)
	require.NoError(t, err)
	assert.Equal(t, 3, page.ObjNum)
	assert.Equal(t, []string{"5 0 R"}, page.Annots)
	// MediaBox missing on page and parent.
	assert.Equal(t, pdf.LetterMediaBox, doc.ReadPageMediaBox(page))
}

func TestPageOutOfRange(t *testing.T) {
	doc, err := pdf.NewDocument(testpki.MinimalPDF())
	require.NoError(t, err)

	_, err = doc.Page(1)
	assert.True(t, errors.Is(err, common.ErrStructural))

	n, err := doc.PageCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNestedPageTreeRejected(t *testing.T) {
	data := testpki.BuildPDF(
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Pages /Parent 2 0 R /Kids [4 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 3 0 R >>",
	)
	doc, err := pdf.NewDocument(data)
	require.NoError(t, err)

	_, err = doc.Page(0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nested")
}

func TestReadPageMediaBoxFallback(t *testing.T) {
	data := testpki.BuildPDF(
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 abc] >>",
	)
	doc, err := pdf.NewDocument(data)
	require.NoError(t, err)
	page, err := doc.Page(0)
	require.NoError(t, err)
	assert.Equal(t, pdf.LetterMediaBox, doc.ReadPageMediaBox(page))
	assert.Equal(t, pdf.LetterMediaBox, doc.ReadPageMediaBox(nil))
}

func TestNewDocumentCopiesInput(t *testing.T) {
	data := testpki.MinimalPDF()
	doc, err := pdf.NewDocument(data)
	require.NoError(t, err)

	data[0] = 'X'
	assert.Equal(t, byte('%'), doc.Bytes()[0])
}

func TestInspect(t *testing.T) {
	s, err := pdf.Inspect(testpki.MultiPagePDF(3))
	require.NoError(t, err)
	assert.Equal(t, 3, s.Pages)
	assert.Equal(t, int64(0), s.SigFlags)
	assert.Empty(t, s.Fields)
}
