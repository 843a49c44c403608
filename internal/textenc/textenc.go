// Package textenc converts text between character sets on a best-effort
// basis. Characters with no representation in the target set are folded to
// a close equivalent (accents stripped, typographic punctuation simplified)
// or replaced with '?'. Conversion never fails.
package textenc

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Charset names a character encoding.
type Charset string

const (
	UTF8        Charset = "UTF-8"
	Latin1      Charset = "ISO-8859-1"
	Latin9      Charset = "ISO-8859-15"
	Windows1252 Charset = "WINDOWS-1252"
)

// Transliterator converts text from one charset to another.
type Transliterator interface {
	Transliterate(src, dst Charset, text string) string
}

// Default is the transliterator used when none is configured.
var Default Transliterator = Charmaps{}

var charmaps = map[Charset]*charmap.Charmap{
	Latin1:      charmap.ISO8859_1,
	Latin9:      charmap.ISO8859_15,
	Windows1252: charmap.Windows1252,
}

// lookup returns the single-byte charmap for cs, or nil for UTF-8 and
// unknown names (both are treated as UTF-8).
func lookup(cs Charset) *charmap.Charmap {
	return charmaps[Charset(strings.ToUpper(string(cs)))]
}

// substitutes covers common characters that do not decompose into something
// a single-byte charset can hold.
var substitutes = map[rune]string{
	'\u2018': "'", '\u2019': "'", '\u201a': "'", '\u2032': "'",
	'\u201c': `"`, '\u201d': `"`, '\u201e': `"`, '\u2033': `"`,
	'\u2010': "-", '\u2011': "-", '\u2013': "-", '\u2014': "-", '\u2212': "-",
	'\u2026': "...",
	'\u2022': "*",
	'\u20ac': "EUR",
	'\u2122': "TM",
	'\u2002': " ", '\u2003': " ", '\u2009': " ", '\u202f': " ",
	'\u0152': "OE", '\u0153': "oe",
	'\u0141': "L", '\u0142': "l",
	'\u0110': "D", '\u0111': "d",
}

// stripMarks removes combining marks after canonical decomposition.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Charmaps transliterates using the single-byte charmaps of golang.org/x/text.
type Charmaps struct{}

// Transliterate converts text encoded in src to the dst encoding.
// The returned string holds dst-encoded bytes.
func (Charmaps) Transliterate(src, dst Charset, text string) string {
	decoded := Decode(src, text)

	cm := lookup(dst)
	if cm == nil {
		return decoded
	}

	out := make([]byte, 0, len(decoded))
	for _, r := range decoded {
		if b, ok := cm.EncodeRune(r); ok {
			out = append(out, b)
			continue
		}
		out = appendFolded(out, cm, r)
	}
	return string(out)
}

func appendFolded(out []byte, cm *charmap.Charmap, r rune) []byte {
	repl, ok := substitutes[r]
	if !ok {
		folded, _, err := transform.String(stripMarks, string(r))
		if err != nil || folded == string(r) {
			return append(out, '?')
		}
		repl = folded
	}
	for _, fr := range repl {
		if b, ok := cm.EncodeRune(fr); ok {
			out = append(out, b)
		} else {
			out = append(out, '?')
		}
	}
	return out
}

// Decode converts cs-encoded text back to a valid UTF-8 Go string.
// Invalid UTF-8 input is repaired with '?'.
func Decode(cs Charset, text string) string {
	cm := lookup(cs)
	if cm == nil {
		if utf8.ValidString(text) {
			return text
		}
		return strings.ToValidUTF8(text, "?")
	}
	s, err := cm.NewDecoder().String(text)
	if err != nil {
		return text
	}
	return s
}
