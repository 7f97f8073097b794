package vectorstore

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

// defaultLanguage is used when detection yields nothing usable.
const defaultLanguage = "en"

// languageSampleSize bounds how much text is fed to detection.
const languageSampleSize = 2000

// DetectLanguage returns the ISO 639-1 code for the dominant language of
// the sample, defaulting to English when the sample is empty or the
// detector is unsure.
func DetectLanguage(sample string) string {
	sample = strings.TrimSpace(sample)
	if sample == "" {
		return defaultLanguage
	}
	if len(sample) > languageSampleSize {
		sample = sample[:languageSampleSize]
	}

	info := whatlanggo.Detect(sample)
	code := info.Lang.Iso6391()
	if code == "" {
		return defaultLanguage
	}
	return code
}
