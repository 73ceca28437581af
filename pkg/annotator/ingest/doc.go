package ingest

import (
	"fmt"
	"strings"

	"github.com/cognicore/annotator/pkg/annotator/internalerr"
)

// Document is one extracted input file after cleaning.
type Document struct {
	RawText       string
	CleanedText   string
	SentenceCount int
}

// NewDocument cleans raw and counts the sentences of the cleaned text.
func NewDocument(raw string, cleaner *Cleaner) Document {
	cleaned := cleaner.Clean(raw)
	return Document{
		RawText:       raw,
		CleanedText:   cleaned,
		SentenceCount: len(SplitSentences(cleaned)),
	}
}

// Validate checks that the document has extracted text.
func (d *Document) Validate() error {
	if strings.TrimSpace(d.RawText) == "" {
		return fmt.Errorf("document raw text: %w", internalerr.ErrEmptyExtraction)
	}
	return nil
}
