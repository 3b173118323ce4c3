package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var htmlPolicy = bluemonday.StrictPolicy()

const maxFreeFormLength = 2000

// SanitizeText cleans a free-form payload (negotiation terms, event context)
// before it is persisted: markup stripped, control bytes removed, length
// bounded.
func SanitizeText(input string) string {
	input = htmlPolicy.Sanitize(input)
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")
	if len(input) > maxFreeFormLength {
		input = input[:maxFreeFormLength]
	}
	return input
}
