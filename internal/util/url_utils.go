// Package util provides utility functions for the pagewatch application.
package util

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURL is returned when a string cannot be turned into a monitorable URL.
var ErrInvalidURL = errors.New("invalid url")

// NormalizeURL trims the raw input, prefixes https:// when no scheme is given,
// lower-cases the host and strips the fragment. Only http and https URLs with
// a host are accepted.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}

	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		if strings.Contains(raw, "://") {
			return "", fmt.Errorf("%w: unsupported scheme in %q", ErrInvalidURL, raw)
		}
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host in %q", ErrInvalidURL, raw)
	}

	return SanitizeURL(u).String(), nil
}

// SanitizeURL removes fragments and standardizes the URL.
func SanitizeURL(u *url.URL) *url.URL {
	if u == nil {
		return nil
	}
	// Create a copy to modify
	sanitized := *u
	sanitized.Scheme = strings.ToLower(sanitized.Scheme)
	sanitized.Host = strings.ToLower(sanitized.Host)
	sanitized.Fragment = ""
	sanitized.RawFragment = ""
	return &sanitized
}

// SplitLines turns free text (one URL per line, the way the desktop tool took
// input) into trimmed, non-empty, non-comment entries.
func SplitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
