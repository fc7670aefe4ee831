package moderation

import (
	"github.com/abadojack/whatlanggo"
)

// UnknownLanguage is reported when the text is too short or ambiguous.
const UnknownLanguage = "und"

// DetectLanguage returns the ISO 639-1 code of the language content is most
// likely written in, or UnknownLanguage when detection is not reliable.
func DetectLanguage(content string) string {
	info := whatlanggo.Detect(content)
	if !info.IsReliable() {
		return UnknownLanguage
	}
	if code := info.Lang.Iso6391(); code != "" {
		return code
	}
	return UnknownLanguage
}
