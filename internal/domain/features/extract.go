package features

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/publicsuffix"
)

// ErrParse is reported by ExtractChecked when the URL cannot be parsed.
var ErrParse = errors.New("url parse failure")

var (
	ipPattern   = regexp.MustCompile(`\b\d{1,3}(?:\.\d{1,3}){3}\b`)
	ipv4Host    = regexp.MustCompile(`^(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)$`)
	schemeStrip = regexp.MustCompile(`^([A-Za-z0-9+\-.]+:)?//`)

	sensitiveWords = []string{
		"login", "secure", "account", "verify", "password",
		"signin", "banking", "paypal", "ebay",
	}
)

// Extract turns a raw URL into the canonical feature vector. It never fails:
// input that cannot be parsed yields the zero vector, so a classifier always
// receives a complete vector.
func Extract(raw string) Vector {
	v, _ := ExtractChecked(raw)
	return v
}

// ExtractChecked is Extract with the parse failure reported. The returned
// vector is always complete; on error it is the zero vector.
func ExtractChecked(raw string) (Vector, error) {
	s := WithScheme(raw)

	u, err := url.Parse(s)
	if err != nil {
		return Zero(), fmt.Errorf("%w: %v", ErrParse, err)
	}

	authority, path := splitRaw(s, u.Scheme)
	host := splitHost(s)

	v := make(Vector, len(canonicalNames))
	v[URLLength] = runes(s)
	v[HostnameLength] = runes(authority)
	v[PathLength] = runes(path)

	v[CountDot] = float64(strings.Count(s, "."))
	v[CountDash] = float64(strings.Count(s, "-"))
	v[CountUnderscore] = float64(strings.Count(s, "_"))
	v[CountSlash] = float64(strings.Count(s, "/"))
	v[CountQuestion] = float64(strings.Count(s, "?"))
	v[CountEquals] = float64(strings.Count(s, "="))
	v[CountAt] = float64(strings.Count(s, "@"))
	v[CountAmpersand] = float64(strings.Count(s, "&"))

	v[NumSubdomains] = float64(host.levels())
	v[UsesHTTPS] = flag(u.Scheme == "https")

	domain := host.registrable()
	v[IsIPAddress] = flag(ipPattern.MatchString(domain))
	v[HasSensitiveWords] = flag(containsAny(strings.ToLower(s), sensitiveWords))
	v[DomainLength] = runes(domain)
	v[DomainHasDigits] = flag(strings.IndexFunc(domain, unicode.IsDigit) >= 0)
	v[DomainHasNonASCII] = flag(strings.IndexFunc(domain, func(r rune) bool { return r > unicode.MaxASCII }) >= 0)

	return v, nil
}

// splitRaw returns the authority (userinfo and port included) and the path of
// s exactly as written, without percent-decoding. Trailing ;params on the last
// path segment are not part of the path.
func splitRaw(s, scheme string) (authority, path string) {
	rest := s
	if scheme != "" {
		rest = s[len(scheme)+1:]
	}
	if strings.HasPrefix(rest, "//") {
		rest = rest[2:]
		if i := strings.IndexAny(rest, "/?#"); i >= 0 {
			authority, rest = rest[:i], rest[i:]
		} else {
			authority, rest = rest, ""
		}
	}
	path = rest
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if slash := strings.LastIndex(path, "/"); slash >= 0 {
		if semi := strings.Index(path[slash:], ";"); semi >= 0 {
			path = path[:slash+semi]
		}
	} else if semi := strings.Index(path, ";"); semi >= 0 {
		path = path[:semi]
	}
	return authority, path
}

// hostParts is a hostname split against the ICANN section of the public
// suffix list.
type hostParts struct {
	subdomain string
	domain    string
	suffix    string
	ip        bool
}

func splitHost(s string) hostParts {
	netloc := schemeStrip.ReplaceAllString(s, "")
	if i := strings.IndexAny(netloc, "/?#"); i >= 0 {
		netloc = netloc[:i]
	}
	if i := strings.LastIndex(netloc, "@"); i >= 0 {
		netloc = netloc[i+1:]
	}
	if strings.HasPrefix(netloc, "[") {
		if end := strings.Index(netloc, "]"); end > 0 {
			return hostParts{domain: netloc[1:end], ip: true}
		}
	}
	if i := strings.Index(netloc, ":"); i >= 0 {
		netloc = netloc[:i]
	}
	host := strings.ToLower(netloc)
	if ipv4Host.MatchString(host) {
		return hostParts{domain: host, ip: true}
	}

	suffix := icannSuffix(host)
	rest := host
	if suffix != "" {
		rest = strings.TrimSuffix(strings.TrimSuffix(host, suffix), ".")
	}
	p := hostParts{suffix: suffix}
	if i := strings.LastIndex(rest, "."); i >= 0 {
		p.subdomain, p.domain = rest[:i], rest[i+1:]
	} else {
		p.domain = rest
	}
	return p
}

// icannSuffix resolves the public suffix of host using ICANN rules only.
// Privately registered suffixes (github.io, blogspot.com) fall back to the
// ICANN suffix beneath them; hosts under unlisted TLDs have no suffix.
func icannSuffix(host string) string {
	if host == "" {
		return ""
	}
	s, icann := publicsuffix.PublicSuffix(host)
	for !icann {
		i := strings.IndexByte(s, '.')
		if i < 0 {
			return ""
		}
		s, icann = publicsuffix.PublicSuffix(s[i+1:])
	}
	return s
}

// registrable joins the registrable label with its suffix. Hosts without a
// suffix (IP literals, unlisted TLDs) keep the trailing dot, as the training
// data was extracted that way.
func (p hostParts) registrable() string {
	return p.domain + "." + p.suffix
}

// levels counts the DNS labels left of the public suffix: one for the
// registrable label plus one per subdomain label.
func (p hostParts) levels() int {
	if p.ip || p.domain == "" {
		return 0
	}
	if p.subdomain == "" {
		return 1
	}
	return strings.Count(p.subdomain, ".") + 2
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func runes(s string) float64 { return float64(utf8.RuneCountInString(s)) }

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
