package features

// Vector maps a feature name to its value. Order only matters once the
// vector is aligned against a model's column list.
type Vector map[string]float64

// Canonical feature names produced by Extract.
const (
	URLLength         = "url_length"
	HostnameLength    = "hostname_length"
	PathLength        = "path_length"
	CountDot          = "count_dot"
	CountDash         = "count_dash"
	CountUnderscore   = "count_underscore"
	CountSlash        = "count_slash"
	CountQuestion     = "count_question"
	CountEquals       = "count_equals"
	CountAt           = "count_at"
	CountAmpersand    = "count_ampersand"
	NumSubdomains     = "num_subdomains"
	UsesHTTPS         = "uses_https"
	IsIPAddress       = "is_ip_address"
	HasSensitiveWords = "has_sensitive_words"
	DomainLength      = "domain_length"
	DomainHasDigits   = "domain_has_digits"
	DomainHasNonASCII = "domain_has_non_ascii"
)

var canonicalNames = []string{
	URLLength, HostnameLength, PathLength,
	CountDot, CountDash, CountUnderscore, CountSlash,
	CountQuestion, CountEquals, CountAt, CountAmpersand,
	NumSubdomains, UsesHTTPS, IsIPAddress, HasSensitiveWords,
	DomainLength, DomainHasDigits, DomainHasNonASCII,
}

// Names returns the canonical feature names in their declaration order.
func Names() []string {
	out := make([]string, len(canonicalNames))
	copy(out, canonicalNames)
	return out
}

// Zero returns a vector holding every canonical name mapped to 0.
func Zero() Vector {
	v := make(Vector, len(canonicalNames))
	for _, n := range canonicalNames {
		v[n] = 0
	}
	return v
}

// Align projects v onto columns: one value per column, 0 when v lacks it.
// Keys of v that are not listed in columns are dropped.
func Align(v Vector, columns []string) []float64 {
	out := make([]float64, len(columns))
	for i, c := range columns {
		out[i] = v[c]
	}
	return out
}
