package acl

import (
	"maps"
	"slices"
	"strings"
	"unicode"

	"github.com/stoewer/go-strcase"
)

// SnakeCaseKeys returns a copy of body with every top-level key rewritten to
// snake_case. Nested maps and slices are passed through untouched, as are all
// values. A nil body yields nil.
//
// Keys are visited in sorted order, so when two keys collapse onto the same
// wire name ("userName" and "user_name") the result is deterministic.
func SnakeCaseKeys(body map[string]any) map[string]any {
	if body == nil {
		return nil
	}

	out := make(map[string]any, len(body))
	for _, key := range slices.Sorted(maps.Keys(body)) {
		out[snakeCase(key)] = body[key]
	}

	return out
}

// snakeCase joins the words of key with underscores. Digit runs are words of
// their own ("addressLine1" is "address_line_1") and leading or trailing
// separators are dropped ("_id" is "id").
func snakeCase(key string) string {
	words := make([]string, 0, 4)
	for _, segment := range segments(key) {
		words = append(words, strcase.SnakeCase(segment))
	}

	return strings.Join(words, "_")
}

// segments splits s at anything that is not a letter or digit and between
// letters and digits. Camel-case boundaries inside a letter run are left to
// strcase.
func segments(s string) []string {
	var (
		out   []string
		start = -1
		digit bool
	)

	flush := func(end int) {
		if start >= 0 {
			out = append(out, s[start:end])
		}
		start = -1
	}

	for i, r := range s {
		switch {
		case unicode.IsDigit(r), unicode.IsLetter(r):
			isDigit := unicode.IsDigit(r)
			if start >= 0 && isDigit != digit {
				flush(i)
			}
			if start < 0 {
				start = i
			}
			digit = isDigit
		default:
			flush(i)
		}
	}
	flush(len(s))

	return out
}
