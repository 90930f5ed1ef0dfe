package segy

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

const (
	textLines   = 40
	textColumns = 80
)

// TextEncoding is the character set of a textual header.
type TextEncoding string

const (
	EncodingEBCDIC TextEncoding = "ebcdic"
	EncodingASCII  TextEncoding = "ascii"
)

// TextHeader is a raw 3200 byte textual header and its detected encoding.
type TextHeader struct {
	Raw      []byte
	Encoding TextEncoding
}

// NewTextHeader wraps raw header bytes, detecting their encoding.
func NewTextHeader(raw []byte) TextHeader {
	return TextHeader{Raw: raw, Encoding: DetectEncoding(raw)}
}

// DetectEncoding guesses whether raw header bytes are EBCDIC or ASCII.
// EBCDIC text is dominated by 0x40 (space) and bytes above 0x7f; ASCII text
// by 0x20 and printable 7-bit bytes.
func DetectEncoding(raw []byte) TextEncoding {
	var high, ebcdicSpace, asciiSpace int
	for _, b := range raw {
		switch {
		case b >= 0x80:
			high++
		case b == 0x40:
			ebcdicSpace++
		case b == 0x20:
			asciiSpace++
		}
	}
	if (high > 0 && high*100 >= len(raw)) || ebcdicSpace > asciiSpace {
		return EncodingEBCDIC
	}
	return EncodingASCII
}

// String decodes the header into UTF-8 text, with control characters
// replaced by spaces.
func (t TextHeader) String() string {
	var decoded string
	if t.Encoding == EncodingEBCDIC {
		b, err := charmap.CodePage037.NewDecoder().Bytes(t.Raw)
		if err != nil {
			decoded = string(t.Raw)
		} else {
			decoded = string(b)
		}
	} else {
		decoded = string(t.Raw)
	}

	return strings.Map(func(r rune) rune {
		if r == utf8.RuneError || r < 0x20 || r == 0x7f || (r >= 0x80 && r < 0xa0) {
			return ' '
		}
		return r
	}, decoded)
}

// Lines splits the decoded header into its 80 column card images with
// trailing spaces removed.
func (t TextHeader) Lines() []string {
	runes := []rune(t.String())
	lines := make([]string, 0, textLines)
	for start := 0; start < len(runes); start += textColumns {
		end := start + textColumns
		if end > len(runes) {
			end = len(runes)
		}
		lines = append(lines, strings.TrimRight(string(runes[start:end]), " "))
	}
	return lines
}

// Contains reports whether the decoded header contains s.
func (t TextHeader) Contains(s string) bool {
	return strings.Contains(t.String(), s)
}

// EncodeText lays lines out as 40 card images of 80 columns and encodes them
// into a 3200 byte header. Longer lines are cut, missing lines are blank and
// characters the encoding cannot represent are replaced.
func EncodeText(lines []string, enc TextEncoding) []byte {
	var b strings.Builder
	for i := 0; i < textLines; i++ {
		var line []rune
		if i < len(lines) {
			line = []rune(strings.Map(asciiOnly, lines[i]))
		}
		if len(line) > textColumns {
			line = line[:textColumns]
		}
		b.WriteString(string(line))
		b.WriteString(strings.Repeat(" ", textColumns-len(line)))
	}
	text := b.String()

	if enc == EncodingEBCDIC {
		out, err := encoding.ReplaceUnsupported(charmap.CodePage037.NewEncoder()).Bytes([]byte(text))
		if err == nil && len(out) == TextHeaderSize {
			return out
		}
	}
	return []byte(text)
}

// DefaultTextLines builds card images numbered C 1..C40 with one description
// entry per line and the end marker on line 40.
func DefaultTextLines(description ...string) []string {
	lines := make([]string, textLines)
	for i := range lines {
		lines[i] = fmt.Sprintf("C%2d", i+1)
	}
	for i, d := range description {
		if i >= textLines-1 {
			break
		}
		lines[i] += " " + d
	}
	lines[textLines-1] += " END EBCDIC"
	return lines
}

func asciiOnly(r rune) rune {
	if r < 0x20 || r > 0x7e {
		return '?'
	}
	return r
}
