package verify

import (
	"bytes"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/digitorus/pkcs7"
	"github.com/inkseal/pdfsign/common"
	"github.com/inkseal/pdfsign/internal/pdf"
	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

const (
	// headerLookBehind bounds the window start when a signature
	// dictionary has no object header.
	headerLookBehind = 1024
	// maxSignatureWindow bounds the text examined per signature; it must
	// hold the largest /Contents hex string we expect.
	maxSignatureWindow = 1 << 20
	// minContainerLength is the smallest decoded /Contents accepted as a
	// plausible CMS container.
	minContainerLength = 64
)

var (
	objectHeader   = regexp.MustCompile(`(\d+)\s+\d+\s+obj\b`)
	byteRangeEntry = regexp.MustCompile(`/ByteRange\s*\[\s*(\d+)\s+(\d+)\s+(\d+)\s+(\d+)\s*\]`)
	contentsEntry  = regexp.MustCompile(`/Contents\s*<([0-9A-Fa-f\s]*)>`)
	subFilterEntry = regexp.MustCompile(`/SubFilter\s*/([^\s/<>\[\]()]+)`)
	stringKeys     = map[string]*regexp.Regexp{}
)

func init() {
	for _, key := range []string{"Name", "Reason", "Location", "ContactInfo", "M"} {
		stringKeys[key] = regexp.MustCompile(`/` + key + `\b\s*`)
	}
}

// signatureWindow returns the text of the signature object around offset at
// and its object number, or 0 when no header was found. The object starts at
// the last header between the previous endobj and at, however large the
// entries before at are, and ends at the next endobj.
func signatureWindow(text string, at int) (string, int) {
	bound := 0
	if i := strings.LastIndex(text[:at], "endobj"); i >= 0 {
		bound = i + len("endobj")
	}

	start := max(bound, at-headerLookBehind)
	objNum := 0
	if headers := objectHeader.FindAllStringSubmatchIndex(text[bound:at], -1); len(headers) > 0 {
		h := headers[len(headers)-1]
		objNum, _ = strconv.Atoi(text[bound+h[2] : bound+h[3]])
		start = bound + h[1]
	}

	end := min(len(text), at+maxSignatureWindow)
	if i := strings.Index(text[at:end], "endobj"); i >= 0 {
		end = at + i
	}
	return text[start:end], objNum
}

func parseSignature(window string, data []byte) common.SignatureInfo {
	info := common.SignatureInfo{
		Reason:      stringValue(window, "Reason"),
		Location:    stringValue(window, "Location"),
		ContactInfo: stringValue(window, "ContactInfo"),
	}
	if m := subFilterEntry.FindStringSubmatch(window); m != nil {
		info.SubFilter = m[1]
	}
	if m := byteRangeEntry.FindStringSubmatch(window); m != nil {
		for _, v := range m[1:] {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				break
			}
			info.ByteRange = append(info.ByteRange, n)
		}
	}

	contentsOK := false
	if m := contentsEntry.FindStringSubmatch(window); m != nil {
		digits := strings.Join(strings.Fields(m[1]), "")
		if decoded, err := hex.DecodeString(digits); err == nil {
			info.Contents = decoded
			info.ContentsLength = containerLength(decoded)
			contentsOK = true
		}
	}

	if m := stringValue(window, "M"); m != "" {
		if t, err := parseDate(m); err == nil {
			info.SignedAt = &t
		}
	}

	info.SignerName = stringValue(window, "Name")
	if info.SignerName == "" {
		info.SignerName = signerCommonName(info.Contents)
	}

	info.Valid = contentsOK && info.ContentsLength >= minContainerLength && byteRangeOK(info.ByteRange, data)
	return info
}

// stringValue returns the first string value of key in window, or "".
func stringValue(window, key string) string {
	for _, loc := range stringKeys[key].FindAllStringIndex(window, -1) {
		rest := window[loc[1]:]
		if !strings.HasPrefix(rest, "(") && !strings.HasPrefix(rest, "<") {
			continue
		}
		if s, err := pdf.DecodeString(rest); err == nil {
			return s
		}
	}
	return ""
}

// containerLength is the length of the DER element at the start of b, or of
// b without its zero padding when it does not parse.
func containerLength(b []byte) int {
	var element cryptobyte.String
	var tag cryptobyte_asn1.Tag
	input := cryptobyte.String(b)
	if input.ReadAnyASN1Element(&element, &tag) {
		return len(element)
	}
	return len(bytes.TrimRight(b, "\x00"))
}

// byteRangeOK checks that br describes two ranges inside data around a
// hex string gap.
func byteRangeOK(br []int64, data []byte) bool {
	if len(br) != 4 || br[0] != 0 {
		return false
	}
	size := int64(len(data))
	if br[1] < 0 || br[2] <= br[1]+1 || br[3] < 0 || br[2]+br[3] > size {
		return false
	}
	return data[br[1]] == '<' && data[br[2]-1] == '>'
}

func signerCommonName(contents []byte) (name string) {
	if len(contents) == 0 {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			name = ""
		}
	}()
	p7, err := pkcs7.Parse(contents)
	if err != nil {
		return ""
	}
	if cert := p7.GetOnlySigner(); cert != nil {
		return cert.Subject.CommonName
	}
	return ""
}

// fieldName finds the field whose /V references the signature object. The
// field is the innermost dictionary around the reference that parses and
// carries that /V, so nested entries such as /MK are skipped.
func fieldName(text string, objNum int) string {
	if objNum == 0 {
		return ""
	}
	ref := regexp.MustCompile(`/V\s+` + strconv.Itoa(objNum) + `\s+0\s+R\b`)
	for _, loc := range ref.FindAllStringIndex(text, -1) {
		bound := strings.LastIndex(text[:loc[0]], "endobj")
		for start := loc[0]; start > bound; {
			start = strings.LastIndex(text[:start], "<<")
			if start < 0 || start < bound {
				break
			}
			dict, err := pdf.ParseDict(text[start:])
			if err != nil {
				continue
			}
			if v, ok := dict.Ref("V"); !ok || v != objNum {
				continue
			}
			if t, ok := dict.Get("T"); ok {
				if name, err := pdf.DecodeString(t); err == nil {
					return name
				}
			}
			break
		}
	}
	return ""
}

// parseDate parses a PDF date such as D:20170923143900+03'00'. Trailing
// parts may be omitted.
func parseDate(v string) (time.Time, error) {
	v = strings.TrimPrefix(strings.TrimSpace(v), "D:")
	v = strings.TrimSuffix(v, "'")
	v = strings.ReplaceAll(v, "'", ":")
	if strings.HasPrefix(v[min(len(v), 14):], "Z") {
		v = v[:15]
	}

	layouts := []string{
		"20060102150405Z07:00",
		"20060102150405Z07",
		"20060102150405",
		"200601021504",
		"2006010215",
		"20060102",
		"200601",
		"2006",
	}
	var err error
	for _, layout := range layouts {
		var t time.Time
		if t, err = time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
