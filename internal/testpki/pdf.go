package testpki

import (
	"bytes"
	"fmt"
	"sort"
)

// MinimalPDF returns a three object document: catalog, page tree and one
// US Letter page.
func MinimalPDF() []byte {
	return BuildPDF(
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>",
	)
}

// MultiPagePDF returns a document with n pages of a flat page tree.
func MultiPagePDF(n int) []byte {
	kids := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			kids += " "
		}
		kids += fmt.Sprintf("%d 0 R", i+3)
	}
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, n),
	}
	for i := 0; i < n; i++ {
		objects = append(objects, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	}
	return BuildPDF(objects...)
}

// BuildPDF writes a PDF-1.4 file whose object i+1 has body objects[i], with
// a correct cross-reference table. The catalog must be object 1.
func BuildPDF(objects ...string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

// AppendUpdate appends an incremental update redefining the given objects.
// size is the /Size of the new trailer and prev the startxref of base.
func AppendUpdate(base []byte, objects map[int]string, size int, prev int) []byte {
	buf := bytes.NewBuffer(append([]byte(nil), base...))

	nums := make([]int, 0, len(objects))
	for n := range objects {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	offsets := make(map[int]int, len(nums))
	for _, n := range nums {
		offsets[n] = buf.Len()
		fmt.Fprintf(buf, "%d 0 obj\n%s\nendobj\n", n, objects[n])
	}

	xref := buf.Len()
	buf.WriteString("xref\n0 1\n0000000000 65535 f \n")
	for _, n := range nums {
		fmt.Fprintf(buf, "%d 1\n%010d 00000 n \n", n, offsets[n])
	}
	fmt.Fprintf(buf, "trailer\n<< /Size %d /Root 1 0 R /Prev %d >>\nstartxref\n%d\n%%%%EOF\n", size, prev, xref)
	return buf.Bytes()
}

// StartXref returns the last startxref value of a document built by BuildPDF
// or AppendUpdate.
func StartXref(data []byte) int {
	i := bytes.LastIndex(data, []byte("startxref\n"))
	var off int
	if i >= 0 {
		_, _ = fmt.Sscanf(string(data[i+len("startxref\n"):]), "%d", &off)
	}
	return off
}
