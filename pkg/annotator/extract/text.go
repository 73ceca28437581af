package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText reads UTF-8 and falls back to Windows-1251, the usual encoding
// of Russian text files that are not UTF-8.
func decodeText(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, err := charmap.Windows1251.NewDecoder().Bytes(data)
	if err != nil {
		return string(bytes.ToValidUTF8(data, nil))
	}
	return string(decoded)
}

func extractTXT(data []byte, _ Options) (string, error) {
	return decodeText(data), nil
}

// extractCSV reads comma or semicolon separated rows.
func extractCSV(data []byte, opts Options) (string, error) {
	text := decodeText(data)

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = sniffDelimiter(text)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var b strings.Builder
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read csv: %w", err)
		}
		writeRow(&b, record, opts)
	}
	return b.String(), nil
}

// sniffDelimiter prefers ';' when the first line has more semicolons than commas.
func sniffDelimiter(text string) rune {
	line := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		line = text[:i]
	}
	semi, comma := 0, 0
	for _, r := range line {
		switch r {
		case ';':
			semi++
		case ',':
			comma++
		}
	}
	if semi > comma {
		return ';'
	}
	return ','
}
