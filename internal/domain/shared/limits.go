package shared

import "unicode/utf8"

// Column widths of the economy tables, in characters
const (
	MaxIdentityLength = 64
	MaxItemLength     = 128
)

// TooLong reports whether s has more than max characters
func TooLong(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}
