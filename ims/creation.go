package ims

import (
	"fmt"
	"strconv"
	"strings"
)

// CreationParameters holds the key="value" pairs embedded in a surface
// collection's free-text creation parameters. The text itself is not a
// document format; only the quoted pairs are recognized.
type CreationParameters struct {
	keys   []string
	values map[string]string
}

// ParseCreationParameters scans text for key="value" pairs. When a key occurs
// more than once the first value wins. Fragments that are not a complete
// quoted pair are skipped.
func ParseCreationParameters(text string) CreationParameters {
	p := CreationParameters{values: make(map[string]string)}

	i := 0
	for i < len(text) {
		eq := strings.IndexByte(text[i:], '=')
		if eq < 0 {
			break
		}
		eq += i

		start := eq
		for start > i && isKeyByte(text[start-1]) {
			start--
		}
		key := text[start:eq]

		q := eq + 1
		for q < len(text) && (text[q] == ' ' || text[q] == '\t') {
			q++
		}
		if key == "" || q >= len(text) || text[q] != '"' {
			i = eq + 1
			continue
		}

		end := strings.IndexByte(text[q+1:], '"')
		if end < 0 {
			// unterminated value
			break
		}
		end += q + 1

		if _, dup := p.values[key]; !dup {
			p.keys = append(p.keys, key)
			p.values[key] = text[q+1 : end]
		}
		i = end + 1
	}
	return p
}

func isKeyByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_', c == '-', c == '.', c == ':':
		return true
	}
	return false
}

// Keys returns the parsed keys in order of first appearance.
func (p CreationParameters) Keys() []string {
	return append([]string(nil), p.keys...)
}

// Get returns the value for key.
func (p CreationParameters) Get(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Int returns the value for key parsed as an integer. A missing key or a
// non-integer value is an ErrFormat.
func (p CreationParameters) Int(key string) (int, error) {
	v, ok := p.values[key]
	if !ok {
		return 0, fmt.Errorf("creation parameters: key %q not found: %w", key, ErrFormat)
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("creation parameters: %s=%q is not an integer: %w", key, v, ErrFormat)
	}
	return n, nil
}
