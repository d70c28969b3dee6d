package intel

import (
	"github.com/pemistahl/lingua-go"

	"equipflow/sei/internal/textutil"
)

// sampleBytes is how much of a source is inspected for language detection.
const sampleBytes = 2000

// LanguageFilter rejects competitor sources not written in English.
type LanguageFilter struct {
	detector lingua.LanguageDetector
}

// NewLanguageFilter builds a detector over the languages competitor results
// usually arrive in.
func NewLanguageFilter() *LanguageFilter {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(lingua.English, lingua.Spanish, lingua.French, lingua.German, lingua.Portuguese).
		Build()
	return &LanguageFilter{detector: detector}
}

// IsEnglish reports whether text reads as English. Text the detector cannot
// place is accepted.
func (f *LanguageFilter) IsEnglish(text string) bool {
	if f == nil || f.detector == nil {
		return true
	}
	lang, ok := f.detector.DetectLanguageOf(textutil.Truncate(text, sampleBytes))
	if !ok {
		return true
	}
	return lang == lingua.English
}
