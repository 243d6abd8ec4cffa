// Package boolflag coerces loosely typed command line flags to booleans.
package boolflag

import "strings"

var truthy = map[string]struct{}{
	"1":    {},
	"true": {},
	"on":   {},
	"yes":  {},
}

// ParseBool reports whether s is one of 1, true, on or yes, ignoring case and
// surrounding whitespace. Anything else, including unrecognised input, is false.
func ParseBool(s string) bool {
	_, ok := truthy[strings.ToLower(strings.TrimSpace(s))]
	return ok
}
