package classifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"tinta/mapping"
)

func quiet() Option { return WithLogger(log.New(io.Discard)) }

func TestClassifyPostsFacts(t *testing.T) {
	t.Parallel()
	var got payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, expected POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sekrit" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		io.WriteString(w, `{"assignments":[
			{"factId":"--brand-accent","token":"blue","justification":"saturated brand color"},
			{"factId":"--page-bg","token":"base","justification":"dominant background"}
		]}`)
	}))
	defer srv.Close()

	c := New(srv.URL, WithModel("colors-1"), WithAPIKey("sekrit"), quiet())
	assigns, err := c.Classify(context.Background(), mapping.ClassifyRequest{
		Kind:    mapping.KindVariables,
		Context: "scheme=dark",
		Facts: []mapping.Fact{
			{ID: "--brand-accent", Label: "--brand-accent: #1a73e8", Color: "#1a73e8"},
			{ID: "--page-bg", Label: "--page-bg: #0d1117", Color: "#0d1117"},
		},
		Instructions: "assign tokens",
		Examples:     []mapping.Example{{Input: "--x: #000", Token: "base"}},
	})
	if err != nil {
		t.Fatalf("Classify() error: %v", err)
	}
	if len(assigns) != 2 {
		t.Fatalf("got %d assignments, expected 2", len(assigns))
	}
	if assigns[0].FactID != "--brand-accent" || assigns[0].Token != "blue" {
		t.Fatalf("assignment = %+v", assigns[0])
	}
	if got.Model != "colors-1" || got.Kind != mapping.KindVariables {
		t.Fatalf("payload model/kind = %q/%q", got.Model, got.Kind)
	}
	if len(got.Facts) != 2 || got.Context != "scheme=dark" || got.Instructions != "assign tokens" {
		t.Fatalf("payload = %+v", got)
	}
	if len(got.Examples) != 1 {
		t.Fatalf("payload examples = %+v", got.Examples)
	}
}

func TestClassifyOmitsAuthWithoutKey(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "" {
			t.Errorf("Authorization = %q, expected none", auth)
		}
		io.WriteString(w, `{"assignments":[]}`)
	}))
	defer srv.Close()

	if _, err := New(srv.URL, quiet()).Classify(context.Background(), mapping.ClassifyRequest{Kind: mapping.KindSVGs}); err != nil {
		t.Fatalf("Classify() error: %v", err)
	}
}

func TestClassifyServiceError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"error":"model overloaded"}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL, quiet()).Classify(context.Background(), mapping.ClassifyRequest{Kind: mapping.KindSelectors})
	if err == nil {
		t.Fatalf("expected error for 503 response")
	}
	if !strings.Contains(err.Error(), "model overloaded") {
		t.Fatalf("error %q does not carry the service message", err)
	}
}

func TestClassifyPlainTextError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream busy", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, quiet()).Classify(context.Background(), mapping.ClassifyRequest{Kind: mapping.KindSelectors})
	if err == nil || !strings.Contains(err.Error(), "upstream busy") {
		t.Fatalf("error = %v, expected upstream busy", err)
	}
}

func TestClassifyBrokenResponse(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"assignments":[`)
	}))
	defer srv.Close()

	if _, err := New(srv.URL, quiet()).Classify(context.Background(), mapping.ClassifyRequest{Kind: mapping.KindVariables}); err == nil {
		t.Fatalf("expected decode error for truncated body")
	}
}

func TestClassifyNoEndpoint(t *testing.T) {
	t.Parallel()
	if _, err := New("", quiet()).Classify(context.Background(), mapping.ClassifyRequest{}); err == nil {
		t.Fatalf("expected error without an endpoint")
	}
}
