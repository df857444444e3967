package overlay_test

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/inkseal/pdfsign/cms"
	"github.com/inkseal/pdfsign/common"
	"github.com/inkseal/pdfsign/internal/pdf"
	"github.com/inkseal/pdfsign/internal/testpki"
	"github.com/inkseal/pdfsign/overlay"
	"github.com/inkseal/pdfsign/sign"
	"github.com/inkseal/pdfsign/verify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func testImage(alpha uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 10, B: 30, A: alpha})
		}
	}
	return img
}

func pngImage(t *testing.T, alpha uint8) []byte {
	t.Helper()
	var b bytes.Buffer
	require.NoError(t, png.Encode(&b, testImage(alpha)))
	return b.Bytes()
}

func revisedPage(t *testing.T, data []byte, index int) *pdf.Dict {
	t.Helper()
	doc, err := pdf.NewDocument(data)
	require.NoError(t, err)
	page, err := doc.Page(index)
	require.NoError(t, err)
	return page.Dict
}

func get(t *testing.T, d *pdf.Dict, key string) string {
	t.Helper()
	v, ok := d.Get(key)
	require.True(t, ok, "missing /%s in %s", key, d)
	return v
}

func streamData(t *testing.T, data []byte, objNum int) []byte {
	t.Helper()
	re := regexp.MustCompile(fmt.Sprintf(`(?s)\n%d 0 obj\n<<.*?>>\nstream\n`, objNum))
	loc := re.FindIndex(data)
	require.NotNil(t, loc, "object %d not found", objNum)
	rest := data[loc[1]:]
	end := bytes.Index(rest, []byte("\nendstream"))
	require.Positive(t, end)
	return rest[:end]
}

func inflate(t *testing.T, data []byte) []byte {
	t.Helper()
	r, err := zlib.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return out
}

func TestAddImageWithoutContents(t *testing.T) {
	input := testpki.MinimalPDF()
	out, err := overlay.AddImage(input, overlay.Placement{X: 100, Y: 200, Width: 20, Height: 10.5, Image: pngImage(t, 0xff)})
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(out, input), "existing bytes must not change")

	page := revisedPage(t, out, 0)
	assert.Equal(t, "[5 0 R]", get(t, page, "Contents"))
	assert.Equal(t, "<< /XObject << /Im4 4 0 R >> >>", get(t, page, "Resources"))
	assert.Equal(t, "[0 0 612 792]", get(t, page, "MediaBox"))

	assert.Equal(t, "q 20 0 0 10.5 100 200 cm /Im4 Do Q", string(streamData(t, out, 5)))
	assert.Equal(t, 4*2*3, len(inflate(t, streamData(t, out, 4))))
	assert.Contains(t, string(out), "/ColorSpace /DeviceRGB /BitsPerComponent 8 /Filter /FlateDecode")
	assert.NotContains(t, string(out), "/SMask")

	summary, err := pdf.Inspect(out)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Pages)

	doc, err := pdf.NewDocument(out)
	require.NoError(t, err)
	assert.Equal(t, 6, doc.Trailer().Size)
	assert.Equal(t, int64(testpki.StartXref(input)), doc.Trailer().Prev)
}

func TestAddImageDefaultsToPixelSize(t *testing.T) {
	out, err := overlay.AddImage(testpki.MinimalPDF(), overlay.Placement{X: 1, Y: 2, Image: pngImage(t, 0xff)})
	require.NoError(t, err)
	assert.Equal(t, "q 4 0 0 2 1 2 cm /Im4 Do Q", string(streamData(t, out, 5)))
}

func TestAddImageContentsShapes(t *testing.T) {
	const stream = "<< /Length 7 >>\nstream\n0 0 m S\nendstream"
	tests := []struct {
		name    string
		objects []string
		want    string
		save    int
		draw    string
	}{
		{
			name: "single reference",
			objects: []string{
				"<< /Type /Catalog /Pages 2 0 R >>",
				"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
				"<< /Type /Page /Parent 2 0 R /Contents 4 0 R >>",
				stream,
			},
			want: "[7 0 R 4 0 R 6 0 R]",
			save: 7,
			draw: "Q q 4 0 0 2 0 0 cm /Im5 Do Q",
		},
		{
			name: "inline array",
			objects: []string{
				"<< /Type /Catalog /Pages 2 0 R >>",
				"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
				"<< /Type /Page /Parent 2 0 R /Contents [4 0 R] >>",
				stream,
			},
			want: "[7 0 R 4 0 R 6 0 R]",
			save: 7,
			draw: "Q q 4 0 0 2 0 0 cm /Im5 Do Q",
		},
		{
			name: "indirect array",
			objects: []string{
				"<< /Type /Catalog /Pages 2 0 R >>",
				"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
				"<< /Type /Page /Parent 2 0 R /Contents 4 0 R >>",
				"[5 0 R]",
				stream,
			},
			want: "[8 0 R 5 0 R 7 0 R]",
			save: 8,
			draw: "Q q 4 0 0 2 0 0 cm /Im6 Do Q",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := overlay.AddImage(testpki.BuildPDF(tt.objects...), overlay.Placement{Image: pngImage(t, 0xff)})
			require.NoError(t, err)
			assert.Equal(t, tt.want, get(t, revisedPage(t, out, 0), "Contents"))
			assert.Equal(t, "q", string(streamData(t, out, tt.save)))
			assert.Equal(t, tt.draw, string(streamData(t, out, tt.save-1)))

			doc, err := pdf.NewDocument(out)
			require.NoError(t, err)
			assert.Equal(t, tt.save+1, doc.Trailer().Size)
		})
	}
}

// A page whose content leaves the CTM scaled must not move the image.
func TestAddImageIsolatesExistingContent(t *testing.T) {
	const content = "2 0 0 2 0 0 cm 0 0 m 10 10 l S"
	input := testpki.BuildPDF(
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
	)

	out, err := overlay.AddImage(input, overlay.Placement{X: 50, Y: 60, Image: pngImage(t, 0xff)})
	require.NoError(t, err)

	var ops []string
	for _, ref := range strings.Fields(strings.Trim(get(t, revisedPage(t, out, 0), "Contents"), "[]")) {
		if n, err := strconv.Atoi(ref); err == nil && n != 0 {
			ops = append(ops, string(streamData(t, out, n)))
		}
	}
	assert.Equal(t, []string{"q", content, "Q q 4 0 0 2 50 60 cm /Im5 Do Q"}, ops)

	// A second image nests the first bracket.
	out, err = overlay.AddImage(out, overlay.Placement{Image: pngImage(t, 0xff)})
	require.NoError(t, err)
	assert.Equal(t, "[10 0 R 7 0 R 4 0 R 6 0 R 9 0 R]", get(t, revisedPage(t, out, 0), "Contents"))
	assert.Equal(t, "Q q 4 0 0 2 0 0 cm /Im8 Do Q", string(streamData(t, out, 9)))
}

func TestAddImageIndirectResources(t *testing.T) {
	input := testpki.BuildPDF(
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /Resources 4 0 R >>",
		"<< /Font << /F1 5 0 R >> /XObject 6 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
		"<< /Logo 7 0 R >>",
		"<< /Type /XObject /Subtype /Form /BBox [0 0 1 1] /Length 0 >>\nstream\n\nendstream",
	)

	out, err := overlay.AddImage(input, overlay.Placement{Image: pngImage(t, 0xff)})
	require.NoError(t, err)

	page := revisedPage(t, out, 0)
	assert.Equal(t, "<< /Font << /F1 5 0 R >> /XObject << /Logo 7 0 R /Im8 8 0 R >> >>", get(t, page, "Resources"))
	assert.Equal(t, "[9 0 R]", get(t, page, "Contents"))
}

func TestAddImageInheritedResources(t *testing.T) {
	input := testpki.BuildPDF(
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 /Resources << /Font << /F1 4 0 R >> >> >>",
		"<< /Type /Page /Parent 2 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	)

	out, err := overlay.AddImage(input, overlay.Placement{Image: pngImage(t, 0xff)})
	require.NoError(t, err)
	assert.Equal(t, "<< /Font << /F1 4 0 R >> /XObject << /Im5 5 0 R >> >>", get(t, revisedPage(t, out, 0), "Resources"))
}

func TestAddImageSoftMask(t *testing.T) {
	out, err := overlay.AddImage(testpki.MinimalPDF(), overlay.Placement{Image: pngImage(t, 0x80)})
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "/ColorSpace /DeviceGray")
	assert.Contains(t, text, "/SMask 4 0 R")
	assert.Equal(t, "[6 0 R]", get(t, revisedPage(t, out, 0), "Contents"))
	assert.Equal(t, "q 4 0 0 2 0 0 cm /Im5 Do Q", string(streamData(t, out, 6)))

	mask := inflate(t, streamData(t, out, 4))
	assert.Equal(t, bytes.Repeat([]byte{0x80}, 8), mask)
}

func TestAddImageFormats(t *testing.T) {
	var jpg, bm bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg, testImage(0xff), nil))
	require.NoError(t, bmp.Encode(&bm, testImage(0xff)))

	for name, data := range map[string][]byte{"jpeg": jpg.Bytes(), "bmp": bm.Bytes()} {
		t.Run(name, func(t *testing.T) {
			out, err := overlay.AddImage(testpki.MinimalPDF(), overlay.Placement{Image: data})
			require.NoError(t, err)
			assert.Contains(t, string(out), "/Width 4 /Height 2")
			assert.NotContains(t, string(out), "/SMask")
		})
	}
}

func TestAddImageSecondPage(t *testing.T) {
	out, err := overlay.AddImage(testpki.MultiPagePDF(2), overlay.Placement{Page: 1, Image: pngImage(t, 0xff)})
	require.NoError(t, err)

	_, ok := revisedPage(t, out, 0).Get("Contents")
	assert.False(t, ok)
	assert.Equal(t, "[6 0 R]", get(t, revisedPage(t, out, 1), "Contents"))
}

func TestAddImageKeepsSignature(t *testing.T) {
	key, cert := testpki.SelfSigned(t, testpki.ECDSA_P256, "Overlay Test")
	id, err := cms.NewIdentity(key, cert)
	require.NoError(t, err)
	signed, err := sign.Sign(testpki.MinimalPDF(), sign.SignData{Signer: id})
	require.NoError(t, err)

	out, err := overlay.AddImage(signed, overlay.Placement{Image: pngImage(t, 0xff)})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, signed))

	sigs, err := verify.Verify(out)
	require.NoError(t, err)
	require.Len(t, sigs, 1)
	result, err := verify.CheckIntegrity(out, sigs[0])
	require.NoError(t, err)
	assert.True(t, result.SignatureOK)
	assert.True(t, result.DigestMatch)

	// the signature widget added by the signer stays on the page
	assert.Equal(t, "[5 0 R]", get(t, revisedPage(t, out, 0), "Annots"))
}

func TestAddImageErrors(t *testing.T) {
	_, err := overlay.AddImage(testpki.MinimalPDF(), overlay.Placement{Image: []byte("not an image")})
	assert.ErrorContains(t, err, "failed to decode image")

	_, err = overlay.AddImage(testpki.MinimalPDF(), overlay.Placement{Page: 3, Image: pngImage(t, 0xff)})
	assert.ErrorIs(t, err, common.ErrStructural)

	_, err = overlay.AddImage([]byte("%PDF-1.4\n"), overlay.Placement{Image: pngImage(t, 0xff)})
	assert.ErrorIs(t, err, common.ErrStructural)
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestApplyPlacements(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.pdf")
	output := filepath.Join(dir, "out.pdf")
	require.NoError(t, os.WriteFile(input, testpki.MultiPagePDF(2), 0o644))

	err := overlay.ApplyPlacements(input, output, []overlay.Placement{
		{Page: 0, X: 10, Y: 10, Image: pngImage(t, 0xff)},
		{Page: 1, X: 20, Y: 20, Image: pngImage(t, 0x40)},
	})
	require.NoError(t, err)

	out, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(out), "startxref")-1)
	assert.Equal(t, "[6 0 R]", get(t, revisedPage(t, out, 0), "Contents"))
	assert.Equal(t, "[9 0 R]", get(t, revisedPage(t, out, 1), "Contents"))
	assert.Contains(t, get(t, revisedPage(t, out, 1), "Resources"), "/Im8 8 0 R")

	assert.ElementsMatch(t, []string{"in.pdf", "out.pdf"}, dirEntries(t, dir))
}

func TestApplyPlacementsFailureCleansUp(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.pdf")
	output := filepath.Join(dir, "out.pdf")
	require.NoError(t, os.WriteFile(input, testpki.MinimalPDF(), 0o644))

	err := overlay.ApplyPlacements(input, output, []overlay.Placement{
		{Image: pngImage(t, 0xff)},
		{Page: 5, Image: pngImage(t, 0xff)},
	})
	assert.ErrorIs(t, err, common.ErrStructural)
	assert.ErrorContains(t, err, "placement 2")

	assert.Equal(t, []string{"in.pdf"}, dirEntries(t, dir))

	err = overlay.ApplyPlacements(filepath.Join(dir, "missing.pdf"), output, nil)
	var ioErr *common.IOError
	assert.ErrorAs(t, err, &ioErr)
}
