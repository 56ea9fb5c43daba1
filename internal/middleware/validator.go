package middleware

import (
	"fmt"
	"strings"
	"unicode"
)

// MaxURLLength bounds URLs accepted for classification and storage.
const MaxURLLength = 8192

// ValidateURL checks a URL submitted by a client. Any scheme, host or shape
// is accepted; classifying odd URLs is the point.
func ValidateURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("URL cannot be empty")
	}
	if len(rawURL) > MaxURLLength {
		return fmt.Errorf("URL exceeds %d bytes", MaxURLLength)
	}
	if strings.ContainsRune(rawURL, 0) {
		return fmt.Errorf("URL contains a null byte")
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	var result strings.Builder
	for _, r := range input {
		if r == '\t' || !unicode.IsControl(r) {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}
