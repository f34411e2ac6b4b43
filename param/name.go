package param

import "strings"

// ValidName reports whether name is canonical: a lowercase ASCII letter
// followed by lowercase letters, digits and '-'. Property and signal names
// share this rule.
func ValidName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
		case i > 0 && (c >= '0' && c <= '9' || c == '-'):
		default:
			return false
		}
	}
	return true
}

// Canonicalize replaces '_' with '-', the only rewrite accepted when
// resolving names.
func Canonicalize(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}
