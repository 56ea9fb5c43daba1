package scans

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/bryanwahyu/phishy/internal/domain/features"
)

// ErrInvalidURL rejects a blank URL key.
var ErrInvalidURL = errors.New("url is required")

// NormalizeURL canonicalizes a URL used as a store key: surrounding space is
// trimmed, http:// is assumed when no scheme is given, and scheme and host are
// lower-cased. Path, query and fragment are kept verbatim.
func NormalizeURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrInvalidURL
	}

	scheme := "http"
	rest := s
	if sc, r, ok := features.SplitScheme(s); ok {
		scheme, rest = strings.ToLower(sc), r
	}

	host, tail := rest, ""
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		host, tail = rest[:i], rest[i:]
	}
	if host == "" {
		return "", ErrInvalidURL
	}
	return scheme + "://" + strings.ToLower(host) + tail, nil
}

// Key is the fixed-width unique index value for a normalized URL.
func Key(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
