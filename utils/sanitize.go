package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var labelPolicy = bluemonday.StrictPolicy()

// SanitizeLabel strips all markup from short user-provided text such as routine
// names, task labels and goal titles.
func SanitizeLabel(input string) string {
	return strings.TrimSpace(labelPolicy.Sanitize(input))
}
