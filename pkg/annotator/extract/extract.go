// Package extract turns uploaded project files into plain text.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cognicore/annotator/pkg/annotator/internalerr"
)

// Format identifies a supported input file type.
type Format int

const (
	FormatUnknown Format = iota
	FormatPDF
	FormatDOCX
	FormatDOC
	FormatTXT
	FormatXLS
	FormatXLSX
	FormatCSV
)

var formatNames = map[Format]string{
	FormatPDF:  "pdf",
	FormatDOCX: "docx",
	FormatDOC:  "doc",
	FormatTXT:  "txt",
	FormatXLS:  "xls",
	FormatXLSX: "xlsx",
	FormatCSV:  "csv",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "unknown"
}

// FormatOf picks the format from the file name extension.
func FormatOf(name string) Format {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	for f, n := range formatNames {
		if n == ext {
			return f
		}
	}
	return FormatUnknown
}

// Options controls what ends up in the extracted text.
type Options struct {
	// IncludeTables serialises table content as tab-separated lines.
	IncludeTables bool
}

type handler func(data []byte, opts Options) (string, error)

var handlers = map[Format]handler{
	FormatPDF:  extractPDF,
	FormatDOCX: extractDOCX,
	FormatDOC:  extractDOC,
	FormatTXT:  extractTXT,
	FormatXLS:  extractXLS,
	FormatXLSX: extractXLSX,
	FormatCSV:  extractCSV,
}

// Extract returns the text content of data.
func Extract(data []byte, format Format, opts Options) (string, error) {
	h, ok := handlers[format]
	if !ok {
		return "", fmt.Errorf("extract %s: %w", format, internalerr.ErrUnsupportedFormat)
	}
	text, err := h(data, opts)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", format, err)
	}
	return strings.TrimSpace(text), nil
}

// Texts returns both renditions of a file: plain text and text with tables.
func Texts(data []byte, format Format) (plain, withTables string, err error) {
	plain, err = Extract(data, format, Options{})
	if err != nil {
		return "", "", err
	}
	withTables, err = Extract(data, format, Options{IncludeTables: true})
	if err != nil {
		return "", "", err
	}
	return plain, withTables, nil
}

// writeRow renders one table row. Tables keep their cells tab-separated,
// plain text joins non-empty cells with a space.
func writeRow(b *strings.Builder, cells []string, opts Options) {
	if opts.IncludeTables {
		b.WriteString(strings.Join(cells, "\t"))
		b.WriteByte('\n')
		return
	}
	var kept []string
	for _, c := range cells {
		if c = strings.TrimSpace(c); c != "" {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return
	}
	b.WriteString(strings.Join(kept, " "))
	b.WriteByte('\n')
}
