package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"tinta"
	"tinta/analyze"
	"tinta/internal/fetch"
	"tinta/mapping"
	"tinta/palette"
	"tinta/theme"
)

// selection is the fully resolved set of theme options for one request.
type selection struct {
	Flavor  palette.Flavor
	Accent  palette.Token
	Variant theme.Variant
	Verbose bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(s.cfg.IndexHTML)))
	io.WriteString(w, s.cfg.IndexHTML)
}

func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	_ = r.ParseForm()
	target := strings.TrimSpace(r.FormValue("url"))
	if target == "" {
		http.Error(w, "missing url", http.StatusBadRequest)
		return
	}
	host := hostOf(target)
	client := clientKey(r)
	sel := s.resolveSelection(r, host, client)
	s.prefs.Remember(prefKey(client, host), themePref{
		Flavor:  string(sel.Flavor),
		Accent:  string(sel.Accent),
		Variant: string(sel.Variant),
	})

	key := themeKey(target, sel)
	if text, ok := s.themes.Get(key); ok {
		s.writeCSS(w, text, true)
		return
	}

	page, err := s.loadPage(r.Context(), target)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	res, err := s.run(r.Context(), page, sel)
	if err != nil {
		s.logger.Warn("generated theme failed validation",
			"url", page.URL, "mapping", len(res.MappingReport.Issues), "output", len(res.Output.Issues))
		s.writeJSON(w, http.StatusUnprocessableEntity, validationFailure{
			Error:   err.Error(),
			Mapping: res.MappingReport,
			Output:  res.Output,
		})
		return
	}
	s.themes.Put(key, res.Theme.Text)
	s.writeCSS(w, res.Theme.Text, false)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	target, ok := s.requireTarget(w, r)
	if !ok {
		return
	}
	page, err := s.loadPage(r.Context(), target)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	snap := analyze.Analyze(page.HTML, page.CSS, analyze.Options{
		URL:            page.URL,
		BrandingColors: page.BrandingColors,
	})
	s.writeJSON(w, http.StatusOK, snap)
}

// validateResult pairs the two validator verdicts for one generation.
type validateResult struct {
	URL     string             `json:"url"`
	Host    string             `json:"host"`
	RunID   string             `json:"runId"`
	Flavor  palette.Flavor     `json:"flavor"`
	Accent  palette.Token      `json:"accent"`
	Variant theme.Variant      `json:"variant"`
	Valid   bool               `json:"valid"`
	Mapping mapping.Validation `json:"mapping"`
	Output  theme.Validation   `json:"output"`
}

type validationFailure struct {
	Error   string             `json:"error"`
	Mapping mapping.Validation `json:"mapping"`
	Output  theme.Validation   `json:"output"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	target, ok := s.requireTarget(w, r)
	if !ok {
		return
	}
	sel := s.resolveSelection(r, hostOf(target), clientKey(r))
	page, err := s.loadPage(r.Context(), target)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	res, err := s.run(r.Context(), page, sel)
	s.writeJSON(w, http.StatusOK, validateResult{
		URL:     page.URL,
		Host:    res.Theme.Host,
		RunID:   res.Theme.RunID,
		Flavor:  res.Theme.Flavor,
		Accent:  res.Theme.Accent,
		Variant: res.Theme.Variant,
		Valid:   err == nil,
		Mapping: res.MappingReport,
		Output:  res.Output,
	})
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "pong\n")
}

// requireTarget enforces the GET+url contract shared by the JSON
// inspection endpoints.
func (s *Server) requireTarget(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return "", false
	}
	target := strings.TrimSpace(r.URL.Query().Get("url"))
	if target == "" {
		http.Error(w, "missing url", http.StatusBadRequest)
		return "", false
	}
	return target, true
}

// resolveSelection settles each option from, in order: the explicit
// request parameter, the per-host override, the client's remembered
// preference, the server default. Invalid values lose their slot.
func (s *Server) resolveSelection(r *http.Request, host, client string) selection {
	_ = r.ParseForm()
	ov, _ := s.overrides.Find(host)
	pref, _ := s.prefs.Get(prefKey(client, host))
	return selection{
		Flavor:  pickFlavor(r.FormValue("flavor"), ov.Flavor, pref.Flavor, string(s.cfg.Flavor)),
		Accent:  pickAccent(r.FormValue("accent"), ov.Accent, pref.Accent, string(s.cfg.Accent)),
		Variant: pickVariant(r.FormValue("variant"), ov.Variant, pref.Variant, string(s.cfg.Variant)),
		Verbose: r.FormValue("verbose") == "1",
	}
}

func pickFlavor(candidates ...string) palette.Flavor {
	for _, c := range candidates {
		if f, ok := palette.ParseFlavor(c); ok {
			return f
		}
	}
	return palette.DefaultFlavor
}

func pickAccent(candidates ...string) palette.Token {
	for _, c := range candidates {
		if a, ok := palette.ParseAccent(c); ok {
			return a
		}
	}
	return palette.DefaultAccent
}

func pickVariant(candidates ...string) theme.Variant {
	for _, c := range candidates {
		if v, ok := theme.ParseVariant(c); ok {
			return v
		}
	}
	return theme.DefaultVariant
}

func (s *Server) loadPage(ctx context.Context, target string) (*fetch.Page, error) {
	if s.cfg.Loader == nil {
		return nil, errors.New("no page loader configured")
	}
	return s.cfg.Loader.Load(ctx, target)
}

func (s *Server) run(ctx context.Context, page *fetch.Page, sel selection) (*tinta.Result, error) {
	return tinta.Run(ctx, tinta.Request{
		URL:            page.URL,
		HTML:           page.HTML,
		CSS:            page.CSS,
		BrandingColors: page.BrandingColors,
		Flavor:         sel.Flavor,
		Accent:         sel.Accent,
		Variant:        sel.Variant,
		MaxSelectors:   s.cfg.MaxSelectors,
		Verbose:        sel.Verbose,
		Version:        s.cfg.Version,
		Classifier:     s.cfg.Classifier,
		Prompts:        s.cfg.Prompts,
	})
}

func (s *Server) writeCSS(w http.ResponseWriter, text string, cached bool) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(text)))
	if cached {
		w.Header().Set("X-Tinta-Cache", "hit")
	}
	io.WriteString(w, text)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}
