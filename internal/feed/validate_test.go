package feed

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func urlSet(urls ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		set[u] = struct{}{}
	}
	return set
}

func TestValidateSourceURL_AcceptsNewURL(t *testing.T) {
	t.Parallel()

	normalized, err := ValidateSourceURL("https://example.com/feed.rss", urlSet())
	require.NoError(t, err)
	require.Equal(t, "https://example.com/feed.rss", normalized)
}

func TestValidateSourceURL_EmptyReportedFirst(t *testing.T) {
	t.Parallel()

	_, err := ValidateSourceURL("", urlSet("https://example.com/feed.rss"))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, ValidationEmpty, verr.Kind)
}

func TestValidateSourceURL_MalformedBeforeDuplicate(t *testing.T) {
	t.Parallel()

	// A bad candidate must be reported as malformed even when the tracked
	// set is non-empty.
	_, err := ValidateSourceURL("not a url", urlSet("https://example.com/feed.rss"))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, ValidationMalformed, verr.Kind)
}

func TestValidateSourceURL_RejectsRelativeURL(t *testing.T) {
	t.Parallel()

	_, err := ValidateSourceURL("/feed.rss", urlSet())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, ValidationMalformed, verr.Kind)
}

func TestValidateSourceURL_DuplicateDetected(t *testing.T) {
	t.Parallel()

	_, err := ValidateSourceURL("https://example.com/feed.rss", urlSet("https://example.com/feed.rss"))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, ValidationDuplicate, verr.Kind)
}

func TestValidateSourceURL_DuplicateComparisonIsNormalized(t *testing.T) {
	t.Parallel()

	_, err := ValidateSourceURL("HTTPS://EXAMPLE.com/feed.rss", urlSet("https://example.com/feed.rss"))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, ValidationDuplicate, verr.Kind)
}

func TestNormalizeURL_LowercasesSchemeAndHost(t *testing.T) {
	t.Parallel()

	normalized, err := NormalizeURL("HTTP://Example.COM/Feed.RSS")
	require.NoError(t, err)
	// Path case is significant and stays untouched.
	require.Equal(t, "http://example.com/Feed.RSS", normalized)
}
