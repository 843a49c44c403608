package textenc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"catalog/internal/textenc"
)

func TestCharmaps_Transliterate_Latin1(t *testing.T) {
	tr := textenc.Charmaps{}

	tests := []struct {
		name string
		in   string
		want string // decoded back to UTF-8
	}{
		{"ascii unchanged", "Cd Player", "Cd Player"},
		{"latin1 kept", "café crème", "café crème"},
		{"smart quotes", "32” Tv ‘new’", `32" Tv 'new'`},
		{"dashes and ellipsis", "a–b…", "a-b..."},
		{"euro sign", "€5", "EUR5"},
		{"accent folded", "Ŝpą", "Spa"},
		{"no equivalent", "日本", "??"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tr.Transliterate(textenc.UTF8, textenc.Latin1, tt.in)
			assert.Equal(t, tt.want, textenc.Decode(textenc.Latin1, out))
		})
	}
}

func TestCharmaps_Transliterate_ReturnsTargetBytes(t *testing.T) {
	out := textenc.Charmaps{}.Transliterate(textenc.UTF8, textenc.Latin1, "café")
	assert.Equal(t, "caf\xe9", out)
}

func TestCharmaps_Transliterate_UnknownTargetIsUTF8(t *testing.T) {
	out := textenc.Charmaps{}.Transliterate(textenc.UTF8, "KOI-UNKNOWN", "caf\xffé")
	assert.Equal(t, "caf?é", out)
}

func TestDecode(t *testing.T) {
	assert.Equal(t, "café", textenc.Decode(textenc.Latin1, "caf\xe9"))
	assert.Equal(t, "café", textenc.Decode(textenc.UTF8, "café"))
	assert.Equal(t, "a?b", textenc.Decode(textenc.UTF8, "a\xffb"))
	assert.Equal(t, "€", textenc.Decode(textenc.Windows1252, "\x80"))
}
