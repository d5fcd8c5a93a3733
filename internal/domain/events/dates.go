package events

import (
	"regexp"
	"strings"
	"time"

	dateparser "github.com/markusmobius/go-dateparser"
)

// DateLayout is the stored form of Event.Date.
const DateLayout = "2006-01-02"

var isoDatePrefix = regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}`)

// NormalizeDate converts user input into DateLayout. ISO dates are taken as is;
// anything else goes through the natural-language parser ("March 5, 2024",
// "5 mars 2024"), which must find a day, a month and a year. Blank input
// normalises to "".
func NormalizeDate(input string, now time.Time) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", nil
	}
	if t, err := time.Parse(DateLayout, input); err == nil {
		return t.Format(DateLayout), nil
	}
	if t, err := time.Parse(time.RFC3339, input); err == nil {
		return t.Format(DateLayout), nil
	}
	// ISO-shaped but out of range ("2024-13-01", "2024-02-30"); the
	// natural-language parser would otherwise reorder or clamp the fields.
	if isoDatePrefix.MatchString(input) {
		return "", invalidDate()
	}

	parsed, err := dateparser.Parse(&dateparser.Configuration{
		CurrentTime:   now,
		StrictParsing: true,
	}, input)
	if err != nil || parsed.Time.IsZero() {
		return "", invalidDate()
	}
	return parsed.Time.Format(DateLayout), nil
}

func invalidDate() error {
	return ValidationError{Field: "date", Message: "is not a recognisable date"}
}
