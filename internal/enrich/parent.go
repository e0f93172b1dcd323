package enrich

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/unicode/norm"
)

// ErrMalformedFooter is returned for footer text that is not valid UTF-8.
var ErrMalformedFooter = eris.New("enrich: malformed footer text")

// parentPattern matches a copyright marker, a year (or year range) and a
// capitalized organization name ending in a corporate suffix.
var parentPattern = regexp.MustCompile(
	`(?:©|(?i:copyright))\s*(?:©\s*)?\d{4}(?:\s*[-–]\s*\d{4})?,?\s+` +
		`([A-Z][A-Za-z &]*(?:LLC|Inc|Group|Hospitality|Corporation|Corp|Company))\b`,
)

// ParentCompany extracts the owning organization from footer text. It
// returns "" with a nil error when nothing matches; only the first match is
// considered.
func ParentCompany(footer string) (string, error) {
	if footer == "" {
		return "", nil
	}
	if !utf8.ValidString(footer) {
		return "", ErrMalformedFooter
	}

	m := parentPattern.FindStringSubmatch(norm.NFKC.String(footer))
	if m == nil {
		return "", nil
	}
	return strings.Join(strings.Fields(m[1]), " "), nil
}
