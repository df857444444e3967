package sign

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// pdfString encodes text as a PDF text string. ASCII is written as an
// escaped literal, anything else as UTF-16BE with a byte order mark in a
// hex string.
func pdfString(text string) string {
	if !isASCII(text) {
		enc := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder()
		res, _, err := transform.String(enc, text)
		if err == nil {
			return "<" + strings.ToUpper(hex.EncodeToString([]byte(res))) + ">"
		}
	}

	text = strings.ReplaceAll(text, "\\", "\\\\")
	text = strings.ReplaceAll(text, ")", "\\)")
	text = strings.ReplaceAll(text, "(", "\\(")
	text = strings.ReplaceAll(text, "\r", "\\r")
	return "(" + text + ")"
}

// pdfDateTime formats date as D:YYYYMMDDHHmmSS+HH'mm'.
func pdfDateTime(date time.Time) string {
	_, offset := date.Zone()
	sign := '+'
	if offset < 0 {
		sign = '-'
		offset = -offset
	}
	return pdfString(fmt.Sprintf("D:%s%c%02d'%02d'", date.Format("20060102150405"), sign, offset/3600, (offset%3600)/60))
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > '\u007F' {
			return false
		}
	}
	return true
}

var fieldNamePattern = regexp.MustCompile(`/T\s*\(Signature(\d+)\)`)

// NextFieldName returns the first SignatureN name greater than every
// SignatureN field name already present in text.
func NextFieldName(text string) string {
	highest := 0
	for _, m := range fieldNamePattern.FindAllStringSubmatch(text, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
			highest = n
		}
	}
	return "Signature" + strconv.Itoa(highest+1)
}
