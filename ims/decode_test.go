package ims

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		parts [][]byte
		kind  Kind
		want  interface{}
	}{
		{"int", chars("123"), KindInt, 123},
		{"negative int", chars("-7"), KindInt, -7},
		{"float", chars("1.5"), KindFloat, 1.5},
		{"float exponent", chars("2e-3"), KindFloat, 0.002},
		{"string", chars("123"), KindString, "123"},
		{"padded int", chars(" 512 "), KindInt, 512},
		{"multi-byte elements", [][]byte{[]byte("µ"), []byte("m")}, KindString, "µm"},
		{"empty string", nil, KindString, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.parts, tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		parts [][]byte
		kind  Kind
	}{
		{"invalid utf8", [][]byte{{'1'}, {0xc3}}, KindString},
		{"invalid utf8 int", [][]byte{{0xff}}, KindInt},
		{"not an int", chars("1.5"), KindInt},
		{"empty int", nil, KindInt},
		{"not a float", chars("1,5"), KindFloat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.parts, tt.kind)
			assert.ErrorIs(t, err, ErrFormat)
		})
	}

	_, err := Decode(chars("1"), Kind(9))
	assert.Error(t, err)
	assert.Equal(t, "Kind(9)", Kind(9).String())
}

func TestParseFloats(t *testing.T) {
	got, err := parseFloats(" 0.5 1\t0.25 ")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 1, 0.25}, got)

	got, err = parseFloats("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = parseFloats("1 red 0")
	assert.ErrorIs(t, err, ErrFormat)
}
