package handlers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseCookieHeader(t *testing.T) {
	cookies := parseCookieHeader("a=1; b=2; c=3")
	if len(cookies) != 3 {
		t.Fatalf("got %d cookies, want 3", len(cookies))
	}
	got := map[string]string{}
	for _, c := range cookies {
		got[c.Name] = c.Value
	}
	want := map[string]string{"a": "1", "b": "2", "c": "3"}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("cookie %q = %q, want %q", k, got[k], v)
		}
	}
}

// parseNetscapeCookieFile re-reads the tab-separated format
// writeNetscapeCookieFile emits, for round-trip verification.
func parseNetscapeCookieFile(t *testing.T, path string) map[string]string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading cookie file: %v", err)
	}
	out := map[string]string{}
	for _, line := range strings.Split(string(data), "\n") {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			t.Fatalf("cookie line %q has %d fields, want 7", line, len(fields))
		}
		out[fields[5]] = fields[6]
	}
	return out
}

func TestWriteNetscapeCookieFileRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cookies.txt")

	cookies := parseCookieHeader(`guest_id=abc123; personalization_id="v1_xyz"`)
	if err := writeNetscapeCookieFile(path, "https://twitter.com/user/status/1", cookies); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := parseNetscapeCookieFile(t, path)
	want := map[string]string{"guest_id": "abc123", "personalization_id": `"v1_xyz"`}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("cookie %q round-tripped to %q, want %q", k, got[k], v)
		}
	}
}

func TestWriteNetscapeCookieFileRejectsUnparsableURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cookies.txt")

	err := writeNetscapeCookieFile(path, "::not a url::", parseCookieHeader("a=1"))
	if err == nil {
		t.Fatal("expected an error when the host cannot be determined")
	}
}
