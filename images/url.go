package images

import (
	"strings"

	"github.com/mvdan/xurls"
)

// CleanURL extracts the first scheme-qualified URL from pasted text.
//
// Pasted input often carries surrounding whitespace, quotes or prose. When no URL is
// found the trimmed input is returned so validation can report it.
func CleanURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if found := xurls.Strict.FindString(trimmed); found != "" {
		return found
	}
	return trimmed
}
