package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// textPolicy strips all markup from free-text fields such as bios and
// event descriptions.
var textPolicy = bluemonday.StrictPolicy()

// SanitizeText removes HTML from s and trims surrounding space.
func SanitizeText(s string) string {
	return strings.TrimSpace(textPolicy.Sanitize(s))
}

// SanitizeOptional applies SanitizeText to a non-nil pointer.
func SanitizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := SanitizeText(*s)
	return &v
}
