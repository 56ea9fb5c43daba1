package features

import "strings"

// SplitScheme reports the scheme of s when s opens with a valid
// `scheme://` (RFC 3986 scheme characters), and the text after the `://`.
func SplitScheme(s string) (scheme, rest string, ok bool) {
	i := strings.Index(s, "://")
	if i <= 0 || !validScheme(s[:i]) {
		return "", s, false
	}
	return s[:i], s[i+3:], true
}

// WithScheme prefixes http:// unless s already carries a scheme.
func WithScheme(s string) string {
	if _, _, ok := SplitScheme(s); ok {
		return s
	}
	return "http://" + s
}

func validScheme(s string) bool {
	for i, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return s != ""
}
