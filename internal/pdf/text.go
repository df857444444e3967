package pdf

import (
	"bytes"
	"encoding/hex"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// DecodeString decodes a literal "(...)" or hex "<...>" string object into
// text. Strings starting with a UTF-16BE or UTF-8 byte order mark are
// decoded accordingly; anything else is treated as PDFDocEncoding, which
// agrees with Latin-1 for the characters that matter here.
func DecodeString(v string) (string, error) {
	raw, err := stringBytes(strings.TrimSpace(v))
	if err != nil {
		return "", err
	}

	switch {
	case bytes.HasPrefix(raw, []byte{0xFE, 0xFF}):
		return unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().String(string(raw))
	case bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}):
		return string(raw[3:]), nil
	default:
		return charmap.ISO8859_1.NewDecoder().String(string(raw))
	}
}

func stringBytes(s string) ([]byte, error) {
	switch {
	case strings.HasPrefix(s, "("):
		end, err := scanLiteral(s, 0)
		if err != nil {
			return nil, err
		}
		return unescapeLiteral(s[1 : end-1]), nil
	case strings.HasPrefix(s, "<") && !strings.HasPrefix(s, "<<"):
		end, err := scanHex(s, 0)
		if err != nil {
			return nil, err
		}
		digits := strings.Map(func(r rune) rune {
			if isWhitespace(byte(r)) {
				return -1
			}
			return r
		}, s[1:end-1])
		if len(digits)%2 == 1 {
			digits += "0"
		}
		return hex.DecodeString(digits)
	}
	return nil, errUnexpected
}

func unescapeLiteral(s string) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			out = append(out, c)
			continue
		}
		i++
		switch c = s[i]; c {
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 'b':
			out = append(out, '\b')
		case 'f':
			out = append(out, '\f')
		case '\r':
			// line continuation
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		case '\n':
		case '0', '1', '2', '3', '4', '5', '6', '7':
			n := 0
			j := i
			for ; j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7'; j++ {
				n = n*8 + int(s[j]-'0')
			}
			out = append(out, byte(n))
			i = j - 1
		default:
			out = append(out, c)
		}
	}
	return out
}
