package tmdb

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var apiKeyParam = regexp.MustCompile(`(?i)(api_key=)[^&#]*`)

// RedactURL hides the api_key query value so URLs can be logged.
func RedactURL(rawURL string) string {
	return apiKeyParam.ReplaceAllString(rawURL, "${1}REDACTED")
}

// ParseAbsoluteURL parses rawURL and requires a scheme and a host.
func ParseAbsoluteURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("url %q is not absolute", RedactURL(rawURL))
	}
	return u, nil
}

// escapeQuery percent-encodes a search term for use as a query value.
// Spaces become %20 rather than '+'.
func escapeQuery(query string) string {
	return strings.ReplaceAll(url.QueryEscape(query), "+", "%20")
}
