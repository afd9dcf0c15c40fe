// Package server exposes the theming pipeline over HTTP: an index form,
// the /theme endpoint serving generated stylesheets, JSON inspection
// endpoints for analysis and validation, and a liveness probe. Generated
// themes are cached in memory with a TTL; per-host option overrides and
// per-client remembered preferences adjust the defaults.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"tinta/internal/fetch"
	"tinta/mapping"
	"tinta/palette"
	"tinta/theme"
)

const defaultOverridesDir = "overrides"

// Loader fetches a page for the pipeline. *fetch.Client satisfies it;
// tests substitute fixtures.
type Loader interface {
	Load(ctx context.Context, rawURL string) (*fetch.Page, error)
}

// Config describes server wiring and runtime behaviour.
type Config struct {
	IndexHTML    string
	OverridesDir string
	ThemeTTL     time.Duration
	Flavor       palette.Flavor
	Accent       palette.Token
	Variant      theme.Variant
	MaxSelectors int
	Version      string
	Loader       Loader
	Classifier   mapping.Classifier
	Prompts      *mapping.PromptConfig
	Logger       *log.Logger
	Clock        func() time.Time
}

// Server exposes the HTTP handlers driving the pipeline.
type Server struct {
	cfg       Config
	mux       *http.ServeMux
	handler   http.Handler
	logger    *log.Logger
	themes    *themeCache
	overrides *overrideStore
	prefs     *prefStore
	clock     func() time.Time
}

// New wires a server with the provided configuration.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.OverridesDir == "" {
		cfg.OverridesDir = defaultOverridesDir
	}
	if cfg.Flavor == "" {
		cfg.Flavor = palette.DefaultFlavor
	}
	if !cfg.Accent.IsAccent() {
		cfg.Accent = palette.DefaultAccent
	}
	if cfg.Variant == "" {
		cfg.Variant = theme.DefaultVariant
	}
	if cfg.IndexHTML == "" {
		cfg.IndexHTML = buildIndexHTML(cfg.Flavor, cfg.Accent, cfg.Variant)
	}
	s := &Server{
		cfg:       cfg,
		mux:       http.NewServeMux(),
		logger:    cfg.Logger,
		themes:    newThemeCache(cfg.Clock, cfg.ThemeTTL),
		overrides: newOverrideStore(cfg.OverridesDir),
		prefs:     newPrefStore(),
		clock:     cfg.Clock,
	}
	s.registerRoutes()
	s.handler = withLogging(s.logger, s.mux)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/theme", s.handleTheme)
	s.mux.HandleFunc("/analyze", s.handleAnalyze)
	s.mux.HandleFunc("/validate", s.handleValidate)
	s.mux.HandleFunc("/ping", s.handlePing)
}

// buildIndexHTML renders the index form with the server defaults
// preselected. The option lists come from the palette so the form can
// never drift from the token vocabulary.
func buildIndexHTML(flavor palette.Flavor, accent palette.Token, variant theme.Variant) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html><head><title>tinta</title></head><body>
<h1>tinta</h1>
<form action="/theme" method="get">
URL: <input name="url" size="60"><br>
Flavor: <select name="flavor">`)
	for _, f := range palette.Flavors() {
		writeOption(&b, string(f), f == flavor)
	}
	b.WriteString(`</select>
Accent: <select name="accent">`)
	for _, a := range palette.Accents() {
		writeOption(&b, string(a), a == accent)
	}
	b.WriteString(`</select>
Variant: <select name="variant">`)
	for _, v := range []theme.Variant{theme.VariantBaked, theme.VariantDynamic, theme.VariantRefined} {
		writeOption(&b, string(v), v == variant)
	}
	b.WriteString(`</select><br>
<label><input type="checkbox" name="verbose" value="1"> annotate mappings</label><br>
<button type="submit">Generate theme</button>
</form>
</body></html>`)
	return b.String()
}

func writeOption(b *strings.Builder, value string, selected bool) {
	if selected {
		fmt.Fprintf(b, `<option value=%q selected>%s</option>`, value, value)
		return
	}
	fmt.Fprintf(b, `<option value=%q>%s</option>`, value, value)
}
