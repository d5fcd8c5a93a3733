package events

import (
	"strings"
	"unicode"
)

// Match quality, best first. An event's rank is its best field rank.
const (
	rankNone = iota
	rankSubsequence
	rankAcronym
	rankContains
	rankWordPrefix
	rankPrefix
	rankEqual
	rankExact
)

func rankEvent(e Event, query string) int {
	best := rankNone
	for _, field := range []*string{e.Title, e.Description, e.Location, e.Organizer} {
		if field == nil {
			continue
		}
		if r := rankValue(*field, query); r > best {
			best = r
			if best == rankExact {
				break
			}
		}
	}
	return best
}

func rankValue(value, query string) int {
	if value == "" || query == "" {
		return rankNone
	}
	if value == query {
		return rankExact
	}

	v := strings.ToLower(value)
	q := strings.ToLower(query)
	switch {
	case v == q:
		return rankEqual
	case strings.HasPrefix(v, q):
		return rankPrefix
	case hasWordPrefix(v, q):
		return rankWordPrefix
	case strings.Contains(v, q):
		return rankContains
	case strings.Contains(acronym(v), q):
		return rankAcronym
	case isSubsequence(v, q):
		return rankSubsequence
	}
	return rankNone
}

func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func hasWordPrefix(value, query string) bool {
	for _, w := range words(value) {
		if strings.HasPrefix(w, query) {
			return true
		}
	}
	return false
}

func acronym(value string) string {
	var b strings.Builder
	for _, w := range words(value) {
		for _, r := range w {
			b.WriteRune(r)
			break
		}
	}
	return b.String()
}

func isSubsequence(value, query string) bool {
	q := []rune(query)
	i := 0
	for _, r := range value {
		if i < len(q) && r == q[i] {
			i++
		}
	}
	return i == len(q)
}
