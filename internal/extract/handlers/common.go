package handlers

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// hostOf returns the lowercased hostname of rawURL, without port.
func hostOf(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", false
	}
	return strings.ToLower(u.Hostname()), true
}

// lastPathSegment returns the final non-empty segment of rawURL's path.
func lastPathSegment(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	trimmed := strings.Trim(u.Path, "/")
	if trimmed == "" {
		return ""
	}
	parts := strings.Split(trimmed, "/")
	return parts[len(parts)-1]
}

// mergeHeaders overlays extra onto base, with extra winning on conflict.
// base is not mutated.
func mergeHeaders(base map[string]string, extra map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// readAndCheck reads a response body fully, returning an error if the
// status code signals failure. The caller is still responsible for
// closing resp.Body.
func readAndCheck(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return body, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return body, nil
}
