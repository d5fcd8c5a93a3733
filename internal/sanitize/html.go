package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// StrictPolicy removes all HTML tags and attributes.
var StrictPolicy = bluemonday.StrictPolicy()

// Text strips all HTML tags and returns plain text.
// Entities escaped by the policy are decoded again; templates escape on output.
func Text(input string) string {
	return strings.TrimSpace(html.UnescapeString(StrictPolicy.Sanitize(input)))
}

// OptionalText sanitizes a pointer value, keeping nil as nil.
func OptionalText(input *string) *string {
	if input == nil {
		return nil
	}
	cleaned := Text(*input)
	return &cleaned
}
