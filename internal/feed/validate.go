package feed

import (
	"errors"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// ValidateSourceURL checks a submission candidate against the set of already
// tracked URLs. Checks run in order and short-circuit: emptiness, then URL
// shape, then duplication, so a mistyped URL is never misreported as a
// duplicate. On success the scheme/host-normalized URL is returned. Pure and
// synchronous; no network access.
func ValidateSourceURL(candidate string, existing map[string]struct{}) (string, error) {
	if err := validation.Validate(candidate, validation.Required); err != nil {
		return "", &ValidationError{Kind: ValidationEmpty, Candidate: candidate}
	}
	if err := validation.Validate(candidate, is.RequestURL); err != nil {
		return "", &ValidationError{Kind: ValidationMalformed, Candidate: candidate}
	}
	normalized, err := NormalizeURL(candidate)
	if err != nil {
		return "", &ValidationError{Kind: ValidationMalformed, Candidate: candidate}
	}
	if _, tracked := existing[normalized]; tracked {
		return "", &ValidationError{Kind: ValidationDuplicate, Candidate: candidate}
	}
	return normalized, nil
}

// NormalizeURL lowercases the scheme and host so the source uniqueness
// invariant is case-insensitive where URLs are.
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	if !u.IsAbs() || u.Host == "" {
		return "", errors.New("url is not absolute")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return u.String(), nil
}
