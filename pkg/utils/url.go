package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var schemePattern = regexp.MustCompile(`(?i)^https?://`)

// NormalizeURL turns a raw domain or URL into an absolute URL.
// Input that already carries an http(s) scheme is only trimmed; anything else
// gets "https://" prepended. ok is false for empty input.
// Host syntax is not validated, a bad host fails later when it is fetched.
func NormalizeURL(raw string) (normalized string, ok bool) {
	if raw == "" {
		return "", false
	}
	trimmed := strings.TrimSpace(raw)
	if schemePattern.MatchString(trimmed) {
		return trimmed, true
	}
	return "https://" + trimmed, true
}

// Hostname extracts the host part (without port) of an absolute URL.
func Hostname(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("url %q has no host", rawURL)
	}
	return host, nil
}

// LookupDomain strips a leading "www." so TXT lookups hit the zone apex.
func LookupDomain(host string) string {
	return strings.TrimPrefix(host, "www.")
}

// HashURL creates a SHA256 hash of a URL string.
// This is useful for creating consistent, safe keys for Redis.
func HashURL(rawURL string) string {
	h := sha256.New()
	h.Write([]byte(rawURL))
	return hex.EncodeToString(h.Sum(nil))
}
