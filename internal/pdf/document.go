package pdf

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/inkseal/pdfsign/common"
)

// LetterMediaBox is used whenever a page's /MediaBox cannot be read.
var LetterMediaBox = [4]float64{0, 0, 612, 792}

// Trailer holds the fields of the most recent trailer dictionary (or of the
// cross-reference stream dictionary standing in for it).
type Trailer struct {
	Root      int
	Size      int
	Prev      int64 // -1 when absent
	StartXref int64
	Info      string
	ID        string
	Encrypted bool
	// XrefStream is set when /Root and /Size were read from a
	// cross-reference stream object rather than a trailer keyword.
	XrefStream bool
}

// Document is an immutable view of an existing PDF file. The byte slice
// passed to NewDocument is copied, and a string view of the same bytes is
// kept for pattern based scanning.
type Document struct {
	data    []byte
	text    string
	eof     int
	trailer *Trailer
}

// NewDocument copies b and parses its last trailer.
func NewDocument(b []byte) (*Document, error) {
	if len(b) == 0 {
		return nil, common.Structuralf("open", "empty document")
	}
	data := bytes.Clone(b)

	eof, err := FindEOF(data)
	if err != nil {
		return nil, err
	}
	trailer, err := ParseTrailer(data, eof)
	if err != nil {
		return nil, err
	}

	return &Document{
		data:    data,
		text:    string(data),
		eof:     eof,
		trailer: trailer,
	}, nil
}

// Bytes returns the document bytes. Callers must not modify the slice.
func (d *Document) Bytes() []byte { return d.data }

func (d *Document) Text() string { return d.text }

func (d *Document) Len() int { return len(d.data) }

func (d *Document) Trailer() *Trailer { return d.trailer }

// EOF returns the offset of the last %%EOF marker.
func (d *Document) EOF() int { return d.eof }

// NextObjectNumber is the first object number an incremental update may
// allocate.
func (d *Document) NextObjectNumber() int { return d.trailer.Size }

var eofMarker = []byte("%%EOF")

// FindEOF returns the offset of the last %%EOF marker in data.
func FindEOF(data []byte) (int, error) {
	i := bytes.LastIndex(data, eofMarker)
	if i < 0 {
		return 0, common.Structuralf("find eof", "%%%%EOF marker not found")
	}
	return i, nil
}

var objectAt = regexp.MustCompile(`^\s*\d+\s+\d+\s+obj`)

// ParseTrailer reads the trailer that belongs to the last startxref before
// eof. When the file ends in a cross-reference stream there is no trailer
// keyword, and /Root and /Size are taken from the stream object located at
// the startxref offset instead.
func ParseTrailer(data []byte, eof int) (*Trailer, error) {
	if eof > len(data) {
		eof = len(data)
	}
	sx := bytes.LastIndex(data[:eof], []byte("startxref"))
	if sx < 0 {
		return nil, common.Structuralf("parse trailer", "startxref not found")
	}
	text := string(data[:eof])

	i := skipSpace(text, sx+len("startxref"))
	j := tokenEnd(text, i)
	startXref, err := strconv.ParseInt(text[i:j], 10, 64)
	if err != nil {
		return nil, common.Structuralf("parse trailer", "invalid startxref value %q", text[i:j])
	}

	validOffset := startXref >= 0 && startXref < int64(sx)
	hasObject := validOffset && objectAt.MatchString(text[startXref:])

	var raw string
	var xrefStream bool
	kw := strings.LastIndex(text[:sx], "trailer")
	switch {
	case kw >= 0 && (int64(kw) > startXref || !hasObject):
		start := skipSpace(text, kw+len("trailer"))
		end, err := scanValue(text, start)
		if err != nil || !strings.HasPrefix(text[start:], "<<") {
			return nil, common.Structuralf("parse trailer", "malformed trailer dictionary")
		}
		raw = text[start:end]
	case hasObject:
		loc := objectAt.FindStringIndex(text[startXref:])
		start := skipSpace(text, int(startXref)+loc[1])
		end, err := scanValue(text, start)
		if err != nil || !strings.HasPrefix(text[start:], "<<") {
			return nil, common.Structuralf("parse trailer", "malformed cross-reference stream dictionary at offset %d", startXref)
		}
		raw = text[start:end]
		xrefStream = true
	default:
		return nil, common.Structuralf("parse trailer", "no trailer dictionary found")
	}

	dict, err := ParseDict(raw)
	if err != nil {
		return nil, common.Structuralf("parse trailer", "%v", err)
	}

	t := &Trailer{Prev: -1, StartXref: startXref, XrefStream: xrefStream}
	root, ok := dict.Ref("Root")
	if !ok {
		return nil, common.Structuralf("parse trailer", "/Root missing")
	}
	t.Root = root
	size, ok := dict.Int("Size")
	if !ok {
		return nil, common.Structuralf("parse trailer", "/Size missing")
	}
	t.Size = size
	if v, ok := dict.Get("Prev"); ok {
		if p, err := strconv.ParseInt(v, 10, 64); err == nil {
			t.Prev = p
		}
	}
	t.Info, _ = dict.Get("Info")
	t.ID, _ = dict.Get("ID")
	t.Encrypted = dict.Has("Encrypt")
	return t, nil
}

func objectHeader(objNum int) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[^0-9])` + strconv.Itoa(objNum) + `\s+0\s+obj`)
}

// FindObject returns the raw value of the last definition of objNum in text.
// The header must not be preceded by a digit, so object 2 never matches
// "12 0 obj".
func FindObject(text string, objNum int) (string, bool) {
	all := objectHeader(objNum).FindAllStringIndex(text, -1)
	if len(all) == 0 {
		return "", false
	}
	last := all[len(all)-1]
	start := skipSpace(text, last[1])
	end, err := scanValue(text, start)
	if err != nil {
		return "", false
	}
	return text[start:end], true
}

// FindObjectDict is FindObject restricted to dictionary objects. The result
// includes the outer << and >>.
func FindObjectDict(text string, objNum int) (string, bool) {
	v, ok := FindObject(text, objNum)
	if !ok || !strings.HasPrefix(v, "<<") {
		return "", false
	}
	return v, true
}

// Object returns the parsed dictionary of objNum.
func (d *Document) Object(objNum int) (*Dict, error) {
	raw, ok := FindObjectDict(d.text, objNum)
	if !ok {
		return nil, common.Structuralf("find object", "object %d not found", objNum)
	}
	dict, err := ParseDict(raw)
	if err != nil {
		return nil, common.Structuralf("find object", "object %d: %v", objNum, err)
	}
	return dict, nil
}

// Resolve follows an indirect reference once. Direct values are returned
// unchanged.
func (d *Document) Resolve(v string) (string, error) {
	n, ok := ParseRef(v)
	if !ok {
		return v, nil
	}
	raw, ok := FindObject(d.text, n)
	if !ok {
		return "", common.Structuralf("resolve", "object %d not found", n)
	}
	return raw, nil
}

// ResolveDict resolves v to a dictionary, returning the object number it was
// stored under or 0 for an inline dictionary.
func (d *Document) ResolveDict(v string) (*Dict, int, error) {
	n, indirect := ParseRef(v)
	raw, err := d.Resolve(v)
	if err != nil {
		return nil, 0, err
	}
	dict, err := ParseDict(raw)
	if err != nil {
		return nil, 0, common.Structuralf("resolve", "%v", err)
	}
	if !indirect {
		n = 0
	}
	return dict, n, nil
}

// ResolveArray resolves v to the raw elements of an array.
func (d *Document) ResolveArray(v string) ([]string, error) {
	raw, err := d.Resolve(v)
	if err != nil {
		return nil, err
	}
	items, err := ParseArray(raw)
	if err != nil {
		return nil, common.Structuralf("resolve", "expected array: %v", err)
	}
	return items, nil
}

// Catalog returns the document catalog referenced by the trailer.
func (d *Document) Catalog() (*Dict, error) {
	return d.Object(d.trailer.Root)
}
