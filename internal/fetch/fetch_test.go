package fetch

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestNormalizeTarget(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{"bare_host", "example.com", "https://example.com", false},
		{"bare_host_path", "example.com/pricing", "https://example.com/pricing", false},
		{"trimmed", "  https://example.com/x  ", "https://example.com/x", false},
		{"http_kept", "http://example.com:8080/a?b=c", "http://example.com:8080/a?b=c", false},
		{"ftp_rejected", "ftp://example.com", "", true},
		{"file_rejected", "file:///etc/passwd", "", true},
		{"empty", "", "", true},
		{"no_host", "https://", "", true},
		{"spaces_in_host", "not a url", "", true},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := normalizeTarget(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("normalizeTarget(%q) = %q, expected error", tc.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("normalizeTarget(%q) returned error: %v", tc.input, err)
			}
			if got != tc.expected {
				t.Fatalf("normalizeTarget(%q) = %q, expected %q", tc.input, got, tc.expected)
			}
		})
	}
}

func gzipBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(s)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func zlibBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write([]byte(s)); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}
	return buf.Bytes()
}

func flateBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		t.Fatalf("flate writer: %v", err)
	}
	if _, err := fw.Write([]byte(s)); err != nil {
		t.Fatalf("flate write: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("flate close: %v", err)
	}
	return buf.Bytes()
}

func TestReadBody(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		encoding string
		body     []byte
		expected string
	}{
		{"plain", "", []byte("body { margin: 0 }"), "body { margin: 0 }"},
		{"gzip", "gzip", gzipBytes(t, "a { color: red }"), "a { color: red }"},
		{"gzip_mislabeled", "gzip", []byte("raw despite header"), "raw despite header"},
		{"deflate_zlib", "deflate", zlibBytes(t, "b { color: blue }"), "b { color: blue }"},
		{"deflate_raw", "deflate", flateBytes(t, "i { color: green }"), "i { color: green }"},
		{"unknown_encoding", "br", []byte("passed through"), "passed through"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			resp := &http.Response{
				Header: http.Header{},
				Body:   io.NopCloser(bytes.NewReader(tc.body)),
			}
			if tc.encoding != "" {
				resp.Header.Set("Content-Encoding", tc.encoding)
			}
			got, err := readBody(resp)
			if err != nil {
				t.Fatalf("readBody(%s) returned error: %v", tc.name, err)
			}
			if string(got) != tc.expected {
				t.Fatalf("readBody(%s) = %q, expected %q", tc.name, got, tc.expected)
			}
		})
	}
}

func TestLoadDirect(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, `<html><head>
<style>body { background: #0d1117; }</style>
<link rel="stylesheet" href="/site.css">
</head><body><h1>Hello</h1></body></html>`)
	})
	mux.HandleFunc("/site.css", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/css")
		io.WriteString(w, ".hero { background: #1a73e8; }")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := New(Config{})
	page, err := client.Load(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Load(%s) returned error: %v", srv.URL, err)
	}
	if page.Via != ViaDirect {
		t.Fatalf("page.Via = %q, expected %q", page.Via, ViaDirect)
	}
	if page.Sheets != 1 {
		t.Fatalf("page.Sheets = %d, expected 1", page.Sheets)
	}
	if !strings.HasPrefix(page.URL, srv.URL) {
		t.Fatalf("page.URL = %q, expected it under %q", page.URL, srv.URL)
	}
	if !strings.Contains(page.HTML, "<h1>Hello</h1>") {
		t.Fatalf("page markup missing body content:\n%s", page.HTML)
	}
	if !strings.Contains(page.CSS, "background: #0d1117") {
		t.Fatalf("inline style missing from page css:\n%s", page.CSS)
	}
	if !strings.Contains(page.CSS, ".hero {") {
		t.Fatalf("linked sheet missing from page css:\n%s", page.CSS)
	}
	if len(page.BrandingColors) != 0 {
		t.Fatalf("branding disabled but colors extracted: %v", page.BrandingColors)
	}
}

func TestLoadFollowsRedirects(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/home", http.StatusFound)
	})
	mux.HandleFunc("/home", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, "<html><body>moved in</body></html>")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := New(Config{})
	page, err := client.Load(context.Background(), srv.URL+"/")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if want := srv.URL + "/home"; page.URL != want {
		t.Fatalf("page.URL = %q, expected %q after redirect", page.URL, want)
	}
}

func TestLoadErrorStatus(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	client := New(Config{})
	if _, err := client.Load(context.Background(), srv.URL); err == nil {
		t.Fatalf("Load of a %d page succeeded, expected error", http.StatusGone)
	}
}

func TestLoadRejectsBadTarget(t *testing.T) {
	t.Parallel()
	client := New(Config{})
	for _, target := range []string{"", "ftp://example.com", "https://"} {
		if _, err := client.Load(context.Background(), target); err == nil {
			t.Fatalf("Load(%q) succeeded, expected error", target)
		}
	}
}

func TestFetchSheetGzip(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/css")
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(gzipBytes(t, ".z { color: #333333; }"))
	}))
	defer srv.Close()

	client := New(Config{})
	text, ok := client.fetchSheet(context.Background(), srv.URL+"/z.css")
	if !ok {
		t.Fatalf("fetchSheet reported a miss for a served sheet")
	}
	if !strings.Contains(text, ".z {") {
		t.Fatalf("fetchSheet returned undecoded text: %q", text)
	}
}

func TestFetchSheetUsesCache(t *testing.T) {
	t.Parallel()
	cache, err := NewCache(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "text/css")
		io.WriteString(w, ".c { color: #444444; }")
	}))
	defer srv.Close()

	client := New(Config{Cache: cache})
	sheetURL := srv.URL + "/c.css"

	first, ok := client.fetchSheet(context.Background(), sheetURL)
	if !ok || !strings.Contains(first, ".c {") {
		t.Fatalf("first fetch = (%q, %v), expected the served sheet", first, ok)
	}
	second, ok := client.fetchSheet(context.Background(), sheetURL)
	if !ok || second != first {
		t.Fatalf("second fetch = (%q, %v), expected the cached sheet", second, ok)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("origin served %d requests, expected 1 (second fetch should hit the cache)", got)
	}
}
