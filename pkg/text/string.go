package text

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// IsBlank returns if a text is blank.
func IsBlank(text string) bool {
	return len(strings.TrimSpace(text)) == 0
}

// TrimExtension removes the extension from a file name or file path.
func TrimExtension(path string) string {
	path = strings.TrimSuffix(path, string(filepath.Separator))
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// Characters refused by at least one common file system.
const unsafeFileNameChars = `/\:*?"<>|`

// SanitizeFileName makes a string usable as a file name on all platforms.
//
// The text is NFC-normalized (macOS returns decomposed names) and every
// character rejected by Windows, macOS or Linux is replaced by '-'.
// Letter case is preserved.
func SanitizeFileName(name string) string {
	name = norm.NFC.String(strings.TrimSpace(name))
	return strings.Map(func(r rune) rune {
		if r < 0x20 || strings.ContainsRune(unsafeFileNameChars, r) {
			return '-'
		}
		return r
	}, name)
}

// FirstLine returns the first non-blank line, trimmed.
func FirstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if !IsBlank(line) {
			return strings.TrimSpace(line)
		}
	}
	return ""
}
