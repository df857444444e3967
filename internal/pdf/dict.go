package pdf

import (
	"fmt"
	"strconv"
	"strings"
)

// Dict is a PDF dictionary kept as an ordered map of keys to raw value
// text. Values are not interpreted beyond what is needed to find their
// extent, so serialising an unmodified Dict reproduces every value verbatim.
type Dict struct {
	keys   []string
	values map[string]string
}

func NewDict() *Dict {
	return &Dict{values: make(map[string]string)}
}

// ParseDict parses a dictionary literal starting with "<<". Keys are stored
// without their leading slash.
func ParseDict(raw string) (*Dict, error) {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "<<") {
		return nil, fmt.Errorf("dictionary must start with <<")
	}

	d := NewDict()
	i := 2
	for {
		i = skipSpace(s, i)
		if i >= len(s) {
			return nil, fmt.Errorf("dictionary: %w", errUnterminated)
		}
		if strings.HasPrefix(s[i:], ">>") {
			return d, nil
		}
		if s[i] != '/' {
			return nil, fmt.Errorf("dictionary: expected name at offset %d: %w", i, errUnexpected)
		}
		j := tokenEnd(s, i+1)
		key := s[i+1 : j]

		start := skipSpace(s, j)
		end, err := scanValue(s, start)
		if err != nil {
			return nil, fmt.Errorf("dictionary value for /%s: %w", key, err)
		}
		d.Set(key, s[start:end])
		i = end
	}
}

func (d *Dict) Get(key string) (string, bool) {
	v, ok := d.values[key]
	return v, ok
}

func (d *Dict) Has(key string) bool {
	_, ok := d.values[key]
	return ok
}

// Set replaces the value of an existing key in place or appends a new key.
func (d *Dict) Set(key, value string) *Dict {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = strings.TrimSpace(value)
	return d
}

func (d *Dict) Delete(key string) {
	if _, ok := d.values[key]; !ok {
		return
	}
	delete(d.values, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

func (d *Dict) Keys() []string {
	return append([]string(nil), d.keys...)
}

func (d *Dict) Len() int { return len(d.keys) }

// Name returns a name value without its slash, or "" when the key is
// missing or not a name.
func (d *Dict) Name(key string) string {
	v, ok := d.values[key]
	if !ok || !strings.HasPrefix(v, "/") {
		return ""
	}
	return v[1:]
}

func (d *Dict) Int(key string) (int, bool) {
	v, ok := d.values[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Ref returns the object number of an indirect reference value.
func (d *Dict) Ref(key string) (int, bool) {
	v, ok := d.values[key]
	if !ok {
		return 0, false
	}
	return ParseRef(v)
}

func (d *Dict) Clone() *Dict {
	c := NewDict()
	for _, k := range d.keys {
		c.Set(k, d.values[k])
	}
	return c
}

// String serialises the dictionary on a single line.
func (d *Dict) String() string {
	var b strings.Builder
	b.WriteString("<<")
	for _, k := range d.keys {
		b.WriteString(" /")
		b.WriteString(k)
		b.WriteByte(' ')
		b.WriteString(d.values[k])
	}
	b.WriteString(" >>")
	return b.String()
}
