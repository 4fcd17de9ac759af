// Package notefmt applies the platform's note content constraints
package notefmt

import (
	"golang.org/x/text/unicode/norm"
)

const (
	// MaxTitleRunes is the platform limit; longer titles are truncated
	MaxTitleRunes = 20

	// MinContentRunes is the platform minimum for the note body
	MinContentRunes = 4
)

// Clean NFC-normalizes user text so length rules count composed characters
func Clean(s string) string { return norm.NFC.String(s) }

// TruncateTitle normalizes the title and cuts it to the platform limit
// the second return reports whether anything was dropped
func TruncateTitle(title string) (string, bool) {
	title = Clean(title)
	runes := []rune(title)
	if len(runes) <= MaxTitleRunes {
		return title, false
	}
	return string(runes[:MaxTitleRunes]), true
}

// ContentOK reports whether the note body meets the platform minimum
func ContentOK(content string) bool {
	return len([]rune(Clean(content))) >= MinContentRunes
}
