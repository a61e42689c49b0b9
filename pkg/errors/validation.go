package errors

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

// identifierRegex matches building block identifiers such as
// "ogc.geo.features.feature" or "r1.item-2".
var identifierRegex = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9._-]*$`)

// ValidateIdentifier validates an item identifier received from user input
// (command-line arguments, HTTP path segments).
//
// Rules:
//   - No empty identifiers
//   - Maximum length of 256 characters
//   - No control characters
//   - Letters, digits, '.', '_' and '-' only, not starting with '.' or '-'
func ValidateIdentifier(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "identifier cannot be empty")
	}
	if len(id) > 256 {
		return New(ErrCodeInvalidInput, "identifier too long (max 256 characters)")
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "identifier contains invalid control characters")
		}
	}
	if !identifierRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid identifier: %q", id)
	}
	return nil
}

// ValidateLocation validates a register or resource location.
// Accepted forms are http(s) URLs, file URLs and plain filesystem paths.
func ValidateLocation(loc string) error {
	if strings.TrimSpace(loc) == "" {
		return New(ErrCodeInvalidInput, "location cannot be empty")
	}
	if strings.ContainsRune(loc, '\x00') {
		return New(ErrCodeInvalidInput, "location contains a null byte")
	}
	if !strings.Contains(loc, "://") {
		return nil
	}

	u, err := url.Parse(loc)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid location %q", loc)
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return New(ErrCodeInvalidInput, "URL %q has no host", loc)
		}
	case "file":
	default:
		return New(ErrCodeInvalidInput, "unsupported URL scheme %q (must be http, https or file)", u.Scheme)
	}
	return nil
}
