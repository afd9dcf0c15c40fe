// Package tinta turns a fetched web page into a Catppuccin theme
// stylesheet. Run chains the three pipeline stages: analyze extracts
// color facts from the page, mapping assigns each fact a palette token,
// and theme renders the result as a LESS-flavored document scoped to
// the page's host.
package tinta

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tinta/analyze"
	"tinta/mapping"
	"tinta/palette"
	"tinta/theme"
)

// ErrValidation reports that the run produced a theme which failed
// mapping or output validation. The Result is still returned alongside
// it; callers inspect MappingReport and Output for the issue lists.
var ErrValidation = errors.New("generated theme failed validation")

// Request carries one page through the pipeline. HTML and CSS are the
// raw page text, already fetched; URL scopes the output document to the
// page's host. Zero values fall back to the package defaults (mocha,
// mauve, dynamic variant).
type Request struct {
	URL            string
	HTML           string
	CSS            string
	BrandingColors []string

	Flavor       palette.Flavor
	Accent       palette.Token
	Variant      theme.Variant
	MaxSelectors int

	// Classifier, when set, augments the heuristic mapper with external
	// classification for every fact kind. Nil runs heuristics alone.
	Classifier mapping.Classifier

	// Prompts overrides the builtin classifier prompt configuration.
	Prompts *mapping.PromptConfig

	// Verbose keeps per-fact justification comments in the rendered
	// document.
	Verbose bool

	Version   string
	Homepage  string
	UpdateURL string
	RunID     string

	// Now pins the clock for snapshot and theme timestamps in tests.
	Now func() time.Time
}

// Result is everything one run produced. Every stage's output is kept
// so callers can serve the snapshot, the mapping and the rendered theme
// independently.
type Result struct {
	Snapshot      *analyze.Snapshot
	Mapping       *mapping.Result
	MappingReport mapping.Validation
	Theme         *theme.Theme
	Output        theme.Validation
}

// Run executes the full pipeline on one page. Extraction and mapping
// never fail: a page with no color signal yields empty fact lists and a
// zero-coverage warning, not an error. The only error Run returns is
// ErrValidation, when the mapping or the rendered document carries an
// error-level issue; the Result is returned either way.
func Run(ctx context.Context, req Request) (*Result, error) {
	snap := analyze.Analyze(req.HTML, req.CSS, analyze.Options{
		URL:            req.URL,
		BrandingColors: req.BrandingColors,
		Now:            req.Now,
	})

	classify := req.Classifier != nil
	res := mapping.Map(ctx, snap, mapping.Options{
		Flavor:            req.Flavor,
		Accent:            req.Accent,
		Classifier:        req.Classifier,
		ClassifyVariables: classify,
		ClassifySVGs:      classify,
		ClassifySelectors: classify,
		Prompts:           req.Prompts,
		MaxSelectors:      req.MaxSelectors,
	})

	out := &Result{
		Snapshot:      snap,
		Mapping:       res,
		MappingReport: mapping.Validate(res),
	}

	out.Theme = theme.Generate(snap, res, theme.Config{
		URL:       req.URL,
		Variant:   req.Variant,
		Verbose:   req.Verbose,
		Version:   req.Version,
		Homepage:  req.Homepage,
		UpdateURL: req.UpdateURL,
		RunID:     req.RunID,
		Now:       req.Now,
	})
	out.Output = theme.ValidateOutput(out.Theme)

	if !out.MappingReport.Valid || !out.Output.Valid {
		return out, fmt.Errorf("theme for %s: %w", out.Theme.Host, ErrValidation)
	}
	return out, nil
}
