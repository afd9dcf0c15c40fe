// Package fetch loads a web page and the stylesheet text it references,
// producing the raw material the analysis pipeline consumes: final URL,
// HTML, concatenated CSS and an optional branding color hint list.
//
// Two strategies exist. The direct strategy issues a plain HTTP request
// and is always available. The rendered strategy drives a headless
// browser so script-built markup is visible; when configured it runs
// first and the direct strategy covers its failures. Which one produced
// the page is recorded per call on the result, never in package state.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/net/html"
)

// Via names the strategy that produced a page.
const (
	ViaDirect   = "direct"
	ViaRendered = "rendered"
)

const (
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124 Safari/537.36"

	defaultTimeout      = 15 * time.Second
	defaultAssetTimeout = 8 * time.Second

	defaultMaxSheets      = 16
	defaultMaxImportDepth = 3
)

// Page is one fetched page, ready for analysis.
type Page struct {
	// URL is the final location after redirects.
	URL string
	// HTML is the document markup as served (or as rendered).
	HTML string
	// CSS is every collected stylesheet joined in discovery order:
	// inline <style> blocks, linked sheets, then followed @imports.
	CSS string
	// BrandingColors are dominant page-icon colors, strongest first,
	// as uppercase #RRGGBB. Empty unless icon extraction is enabled.
	BrandingColors []string
	// Via records which strategy produced HTML for this call.
	Via string
	// Sheets counts the external stylesheets folded into CSS.
	Sheets int
}

// Config tunes a Client. The zero value is usable.
type Config struct {
	// UserAgent is sent on every origin request.
	UserAgent string
	// Timeout bounds the page request.
	Timeout time.Duration
	// AssetTimeout bounds each stylesheet or icon request.
	AssetTimeout time.Duration
	// MaxSheets caps how many external stylesheets one load may fetch.
	MaxSheets int
	// MaxImportDepth caps how many @import hops are followed from any sheet.
	MaxImportDepth int
	// Branding enables page-icon color extraction.
	Branding bool
	// Renderer, when set, is tried before the direct strategy.
	Renderer *Renderer
	// Cache, when set, stores fetched stylesheets across loads.
	Cache *Cache
	// Logger defaults to the package default logger.
	Logger *log.Logger
}

// Client fetches pages. Safe for concurrent use.
type Client struct {
	cfg    Config
	httpc  *http.Client
	logger *log.Logger
}

// New builds a client, filling unset Config fields with defaults.
func New(cfg Config) *Client {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.AssetTimeout <= 0 {
		cfg.AssetTimeout = defaultAssetTimeout
	}
	if cfg.MaxSheets <= 0 {
		cfg.MaxSheets = defaultMaxSheets
	}
	if cfg.MaxImportDepth <= 0 {
		cfg.MaxImportDepth = defaultMaxImportDepth
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		cfg:    cfg,
		httpc:  &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Load fetches rawURL and everything the pipeline needs from it. Stylesheet
// and icon failures degrade to less data, never to an error; only an
// unusable target URL or an unreachable page fails the load.
func (c *Client) Load(ctx context.Context, rawURL string) (*Page, error) {
	target, err := normalizeTarget(rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	via := ViaDirect
	var htmlText, finalURL string
	if c.cfg.Renderer != nil {
		htmlText, finalURL, err = c.cfg.Renderer.Render(ctx, target, c.cfg.UserAgent)
		if err != nil {
			c.logger.Warn("render failed, falling back to direct fetch", "url", target, "err", err)
			htmlText = ""
		} else {
			via = ViaRendered
		}
	}
	if htmlText == "" {
		htmlText, finalURL, err = c.fetchHTML(ctx, target)
		if err != nil {
			return nil, err
		}
		via = ViaDirect
	}

	page := &Page{URL: finalURL, HTML: htmlText, Via: via}

	doc, err := html.Parse(strings.NewReader(htmlText))
	if err != nil {
		c.logger.Warn("parse failed, keeping bare markup", "url", finalURL, "err", err)
		return page, nil
	}

	page.CSS, page.Sheets = c.collectStylesheets(ctx, doc, finalURL)
	if c.cfg.Branding {
		page.BrandingColors = c.brandingColors(ctx, doc, finalURL)
	}
	c.logger.Debug("page loaded",
		"url", finalURL,
		"via", via,
		"html", len(page.HTML),
		"css", len(page.CSS),
		"sheets", page.Sheets)
	return page, nil
}

// normalizeTarget prepares user input for fetching: trims, assumes https
// when no scheme is given and rejects anything that is not http(s).
func normalizeTarget(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", errors.New("empty target url")
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("parse target %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("target %q has no host", raw)
	}
	return u.String(), nil
}
