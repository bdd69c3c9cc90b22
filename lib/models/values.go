package models

import (
	"errors"
	"net/url"
	"strings"
)

// NormalizeURL reduces a raw user-provided address to its monitored identity:
// scheme+host only, defaulting to https when no scheme is given. Two
// subscriptions to the same host resolve to the same Website row.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty url")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if parsed.Host == "" {
		return "", errors.New("url has no host")
	}

	normalized := url.URL{Scheme: parsed.Scheme, Host: strings.ToLower(parsed.Host)}
	return normalized.String(), nil
}
