// Package urlutil provides URL manipulation for API base URLs.
package urlutil

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// URL scheme constants.
const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
)

// NormalizeBaseURL normalizes a base URL for consistent use:
//   - Adds http:// scheme if no scheme provided
//   - Removes trailing slashes for clean path joining
//
// Examples:
//
//	"sicc.example.org"        -> "http://sicc.example.org"
//	"https://sicc.example.org/" -> "https://sicc.example.org"
//	"localhost:8080"          -> "http://localhost:8080"
func NormalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return ""
	}

	if !strings.Contains(baseURL, "://") {
		baseURL = SchemeHTTP + "://" + baseURL
	}

	return strings.TrimRight(baseURL, "/")
}

// JoinPath joins a base URL with a path, ensuring single slashes.
// Any query string on path is kept as-is.
func JoinPath(baseURL, path string) string {
	if baseURL == "" {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(baseURL, "/") + path
}

// ValidateBaseURL checks that u is an absolute http or https URL with a host.
func ValidateBaseURL(u string) error {
	if u == "" {
		return errors.New("URL is required")
	}

	parsed, err := url.Parse(u)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	switch strings.ToLower(parsed.Scheme) {
	case SchemeHTTP, SchemeHTTPS:
	case "":
		return errors.New("URL must include a scheme (http:// or https://)")
	default:
		return fmt.Errorf("unsupported URL scheme: %s (supported: http, https)", parsed.Scheme)
	}

	if parsed.Host == "" {
		return errors.New("URL must include a host")
	}
	return nil
}
