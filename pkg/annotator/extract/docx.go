package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const documentPart = "word/document.xml"

// extractDOCX reads word/document.xml. Paragraphs become lines; table cells
// are only emitted with IncludeTables.
func extractDOCX(data []byte, opts Options) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}

	for _, file := range reader.File {
		if file.Name != documentPart {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("open %s: %w", documentPart, err)
		}
		defer rc.Close()
		return parseDocumentXML(rc, opts)
	}
	return "", fmt.Errorf("docx: missing %s", documentPart)
}

// docxWalker tracks where the decoder is inside the body.
type docxWalker struct {
	opts Options
	out  strings.Builder

	tableDepth int
	para       strings.Builder
	cell       []string
	row        []string
}

func parseDocumentXML(r io.Reader, opts Options) (string, error) {
	w := &docxWalker{opts: opts}
	dec := xml.NewDecoder(r)
	inText := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", documentPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				w.para.WriteByte(' ')
			case "br", "cr":
				w.para.WriteByte('\n')
			case "tbl":
				w.tableDepth++
			case "tr":
				w.row = w.row[:0]
			case "tc":
				w.cell = w.cell[:0]
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				w.endParagraph()
			case "tc":
				w.row = append(w.row, strings.Join(w.cell, " "))
			case "tr":
				if w.tableDepth == 1 {
					writeRow(&w.out, w.row, w.opts)
				}
			case "tbl":
				w.tableDepth--
			}
		case xml.CharData:
			if inText {
				w.para.Write(t)
			}
		}
	}
	return w.out.String(), nil
}

func (w *docxWalker) endParagraph() {
	text := strings.TrimSpace(w.para.String())
	w.para.Reset()

	if w.tableDepth > 0 {
		if w.opts.IncludeTables && text != "" {
			w.cell = append(w.cell, text)
		}
		return
	}
	w.out.WriteString(text)
	w.out.WriteByte('\n')
}
