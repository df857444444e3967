package sign

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPDFString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Test", "(Test)"},
		{"a(b)c\\", "(a\\(b\\)c\\\\)"},
		{"line\r", "(line\\r)"},
		{"Zoë", "<FEFF005A006F00EB>"},
		{"", "()"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, pdfString(tt.in), tt.in)
	}
}

func TestPDFDateTime(t *testing.T) {
	tallinn := time.FixedZone("EEST", 3*3600)
	assert.Equal(t, "(D:20170923143900+03'00')", pdfDateTime(time.Date(2017, 9, 23, 14, 39, 0, 0, tallinn)))

	newfoundland := time.FixedZone("NST", -(3*3600 + 30*60))
	assert.Equal(t, "(D:20240101000000-03'30')", pdfDateTime(time.Date(2024, 1, 1, 0, 0, 0, 0, newfoundland)))
}

func TestNextFieldName(t *testing.T) {
	assert.Equal(t, "Signature1", NextFieldName("<< /Type /Catalog >>"))
	assert.Equal(t, "Signature2", NextFieldName("/T (Signature1)"))
	assert.Equal(t, "Signature8", NextFieldName("/T(Signature7) /T (Signature3) /T (Other)"))
}

func TestXrefRuns(t *testing.T) {
	runs := xrefRuns([]xrefEntry{{ID: 9}, {ID: 1}, {ID: 8}, {ID: 3}, {ID: 4}})
	var ids [][]int
	for _, run := range runs {
		var r []int
		for _, e := range run {
			r = append(r, e.ID)
		}
		ids = append(ids, r)
	}
	assert.Equal(t, [][]int{{1}, {3, 4}, {8, 9}}, ids)
	assert.Empty(t, xrefRuns(nil))
}

func TestHashByteRangeBounds(t *testing.T) {
	data := []byte("0123456789")
	_, err := HashByteRange(data, [4]int64{0, 4, 6, 4})
	assert.NoError(t, err)

	for _, br := range [][4]int64{
		{0, 4, 6, 5},
		{0, 7, 6, 4},
		{0, -1, 6, 4},
	} {
		_, err := HashByteRange(data, br)
		assert.Error(t, err, "%v", br)
	}
}

func TestLastByteRange(t *testing.T) {
	data := []byte("/ByteRange [0 1 2 3] x /ByteRange[0 10 20 30]")
	br, at, err := lastByteRange(data)
	assert.NoError(t, err)
	assert.Equal(t, [4]int64{0, 10, 20, 30}, br)
	assert.Equal(t, 23, at)

	_, _, err = lastByteRange([]byte("/ByteRange [0 ********** ********** **********]"))
	assert.Error(t, err)
}
