package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var textPolicy = bluemonday.StrictPolicy()

// SanitizeText strips any markup from user-supplied text and trims
// surrounding whitespace.
func SanitizeText(input string) string {
	return strings.TrimSpace(textPolicy.Sanitize(input))
}

func IsValidRating(rating int) bool {
	return rating >= 1 && rating <= 5
}
