package pdf

import (
	"errors"
	"strconv"
	"strings"
)

var (
	errUnterminated = errors.New("unterminated object")
	errUnexpected   = errors.New("unexpected token")
)

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == 0
}

func isDelimiter(c byte) bool {
	return strings.IndexByte("()<>[]{}/%", c) >= 0
}

// skipSpace advances past whitespace and comments.
func skipSpace(s string, i int) int {
	for i < len(s) {
		c := s[i]
		if isWhitespace(c) {
			i++
			continue
		}
		if c == '%' {
			for i < len(s) && s[i] != '\n' && s[i] != '\r' {
				i++
			}
			continue
		}
		break
	}
	return i
}

func tokenEnd(s string, i int) int {
	for i < len(s) && !isWhitespace(s[i]) && !isDelimiter(s[i]) {
		i++
	}
	return i
}

// scanLiteral expects s[i] == '(' and returns the offset after the matching ')'.
func scanLiteral(s string, i int) (int, error) {
	depth := 0
	for ; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i + 1, nil
			}
		}
	}
	return 0, errUnterminated
}

// scanHex expects s[i] == '<' and returns the offset after the closing '>'.
func scanHex(s string, i int) (int, error) {
	j := strings.IndexByte(s[i+1:], '>')
	if j < 0 {
		return 0, errUnterminated
	}
	return i + 1 + j + 1, nil
}

// scanDict expects s[i:] to start with "<<" and returns the offset after the
// balancing ">>". Strings and comments are skipped so that delimiters inside
// them do not affect the depth.
func scanDict(s string, i int) (int, error) {
	depth := 0
	for i < len(s) {
		switch {
		case strings.HasPrefix(s[i:], "<<"):
			depth++
			i += 2
		case strings.HasPrefix(s[i:], ">>"):
			depth--
			i += 2
			if depth == 0 {
				return i, nil
			}
		case s[i] == '(':
			j, err := scanLiteral(s, i)
			if err != nil {
				return 0, err
			}
			i = j
		case s[i] == '<':
			j, err := scanHex(s, i)
			if err != nil {
				return 0, err
			}
			i = j
		case s[i] == '%':
			for i < len(s) && s[i] != '\n' && s[i] != '\r' {
				i++
			}
		default:
			i++
		}
	}
	return 0, errUnterminated
}

// scanValue returns the end offset of the object starting at or after i.
// An indirect reference "N G R" counts as one value.
func scanValue(s string, i int) (int, error) {
	i = skipSpace(s, i)
	if i >= len(s) {
		return 0, errUnterminated
	}
	switch s[i] {
	case '/':
		return tokenEnd(s, i+1), nil
	case '(':
		return scanLiteral(s, i)
	case '<':
		if strings.HasPrefix(s[i:], "<<") {
			return scanDict(s, i)
		}
		return scanHex(s, i)
	case '[':
		j := i + 1
		for {
			j = skipSpace(s, j)
			if j >= len(s) {
				return 0, errUnterminated
			}
			if s[j] == ']' {
				return j + 1, nil
			}
			k, err := scanValue(s, j)
			if err != nil {
				return 0, err
			}
			j = k
		}
	}

	j := tokenEnd(s, i)
	if j == i {
		return 0, errUnexpected
	}
	if isInteger(s[i:j]) {
		k := skipSpace(s, j)
		m := tokenEnd(s, k)
		if m > k && isInteger(s[k:m]) {
			r := skipSpace(s, m)
			if r < len(s) && s[r] == 'R' && (r+1 == len(s) || isWhitespace(s[r+1]) || isDelimiter(s[r+1])) {
				return r + 1, nil
			}
		}
	}
	return j, nil
}

func isInteger(tok string) bool {
	if tok == "" {
		return false
	}
	for i := 0; i < len(tok); i++ {
		if tok[i] < '0' || tok[i] > '9' {
			return false
		}
	}
	return true
}

// ParseRef parses an indirect reference such as "12 0 R".
func ParseRef(v string) (int, bool) {
	f := strings.Fields(v)
	if len(f) != 3 || f[2] != "R" || !isInteger(f[1]) {
		return 0, false
	}
	n, err := strconv.Atoi(f[0])
	if err != nil {
		return 0, false
	}
	return n, true
}

// FormatRef renders an indirect reference to generation 0.
func FormatRef(objNum int) string {
	return strconv.Itoa(objNum) + " 0 R"
}

// ParseArray splits an array literal into the raw text of its elements.
func ParseArray(v string) ([]string, error) {
	s := strings.TrimSpace(v)
	if !strings.HasPrefix(s, "[") {
		return nil, errUnexpected
	}
	var items []string
	i := 1
	for {
		i = skipSpace(s, i)
		if i >= len(s) {
			return nil, errUnterminated
		}
		if s[i] == ']' {
			return items, nil
		}
		j, err := scanValue(s, i)
		if err != nil {
			return nil, err
		}
		items = append(items, s[i:j])
		i = j
	}
}

// FormatArray joins raw elements into an array literal.
func FormatArray(items []string) string {
	return "[" + strings.Join(items, " ") + "]"
}

// ParseNumbers parses an array of numbers, e.g. a /MediaBox or /ByteRange.
func ParseNumbers(v string) ([]float64, error) {
	items, err := ParseArray(v)
	if err != nil {
		return nil, err
	}
	nums := make([]float64, 0, len(items))
	for _, item := range items {
		f, err := strconv.ParseFloat(item, 64)
		if err != nil {
			return nil, err
		}
		nums = append(nums, f)
	}
	return nums, nil
}
