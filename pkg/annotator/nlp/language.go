package nlp

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// LanguageDetector identifies the dominant language of a text. The
// underlying lingua models are loaded on first use and shared afterwards.
type LanguageDetector struct {
	once     sync.Once
	detector lingua.LanguageDetector
}

// NewLanguageDetector creates a detector for Russian and English.
func NewLanguageDetector() *LanguageDetector {
	return &LanguageDetector{}
}

// Detect returns the ISO 639-1 code of text's language, or "" when unknown.
func (d *LanguageDetector) Detect(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	d.once.Do(func() {
		d.detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(lingua.Russian, lingua.English).
			Build()
	})
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}
