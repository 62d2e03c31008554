// Package urlx normalizes destination URLs and derives link metadata.
package urlx

import (
	"errors"
	"net/url"
	"strings"
)

// Normalization errors.
var (
	ErrInvalidURL = errors.New("invalid destination URL")
)

const maxURLLength = 2048

// Normalize canonicalizes an absolute http(s) URL: the scheme and host are
// lower-cased and a single trailing slash is stripped from the path. Query
// and fragment are preserved verbatim. Normalize is idempotent.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > maxURLLength {
		return "", ErrInvalidURL
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", ErrInvalidURL
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", ErrInvalidURL
	}
	if parsed.Host == "" {
		return "", ErrInvalidURL
	}

	parsed.Scheme = scheme
	parsed.Host = strings.ToLower(parsed.Host)

	if strings.HasSuffix(parsed.Path, "/") {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/")
		if parsed.RawPath != "" {
			parsed.RawPath = strings.TrimSuffix(parsed.RawPath, "/")
		}
	}

	return parsed.String(), nil
}

// Metadata describes the parts of a normalized URL kept on the Link record.
type Metadata struct {
	Domain   string
	Protocol string
	Path     string
}

// DeriveMetadata extracts domain, protocol and path from a normalized URL.
// The input is expected to have passed Normalize; malformed input yields a
// zero Metadata.
func DeriveMetadata(normalized string) Metadata {
	parsed, err := url.Parse(normalized)
	if err != nil {
		return Metadata{}
	}
	return Metadata{
		Domain:   parsed.Host,
		Protocol: parsed.Scheme,
		Path:     parsed.Path,
	}
}
