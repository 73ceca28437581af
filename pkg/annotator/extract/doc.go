package extract

import (
	"encoding/binary"
	"strings"
	"unicode"

	"golang.org/x/text/encoding/charmap"
)

// minRun is the shortest character run kept from a binary document.
const minRun = 4

// extractDOC recovers text from legacy Word files without parsing the
// compound file. Word stores text either as UTF-16LE or as 8-bit runs; the
// UTF-16 scan wins when it finds anything, which is the case for any
// document with Cyrillic text.
func extractDOC(data []byte, _ Options) (string, error) {
	if text := scanUTF16(data); text != "" {
		return text, nil
	}
	return scan8Bit(data), nil
}

func scanUTF16(data []byte) string {
	var (
		out strings.Builder
		run []rune
	)
	flush := func() {
		if letterRun(run) {
			out.WriteString(string(run))
			out.WriteByte('\n')
		}
		run = run[:0]
	}
	for i := 0; i+1 < len(data); i += 2 {
		r := rune(binary.LittleEndian.Uint16(data[i:]))
		switch {
		case r == '\r' || r == 0x0B:
			flush()
		case r == '\t':
			run = append(run, ' ')
		case wordRange(r) && textRune(r):
			run = append(run, r)
		default:
			flush()
		}
	}
	flush()
	return strings.TrimSpace(out.String())
}

// wordRange limits UTF-16 code units to Latin, Cyrillic and general
// punctuation. Pairs of 8-bit characters decode to CJK and are rejected.
func wordRange(r rune) bool {
	return r < 0x0530 || (r >= 0x2010 && r <= 0x206F) || r == 0x2116
}

func scan8Bit(data []byte) string {
	dec := charmap.Windows1251
	var (
		out strings.Builder
		run []rune
	)
	flush := func() {
		if letterRun(run) {
			out.WriteString(string(run))
			out.WriteByte('\n')
		}
		run = run[:0]
	}
	for _, c := range data {
		r := dec.DecodeByte(c)
		switch {
		case c == '\r':
			flush()
		case textRune(r):
			run = append(run, r)
		default:
			flush()
		}
	}
	flush()
	return strings.TrimSpace(out.String())
}

func textRune(r rune) bool {
	if r == ' ' {
		return true
	}
	if r >= 0xD800 && r <= 0xDFFF {
		return false
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsPunct(r)
}

// letterRun keeps runs long enough and mostly made of letters, which drops
// the noise that binary structures decode into.
func letterRun(run []rune) bool {
	if len(run) < minRun {
		return false
	}
	letters := 0
	for _, r := range run {
		if unicode.IsLetter(r) || r == ' ' {
			letters++
		}
	}
	return letters*2 >= len(run)
}
