package theme

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"tinta/analyze"
	"tinta/mapping"
	"tinta/palette"
)

// Variant selects the emission strategy.
type Variant string

const (
	// VariantBaked resolves every token to the active flavor's hex value.
	VariantBaked Variant = "baked"
	// VariantDynamic emits token references with user-editable accent
	// aliases and a light-scheme override.
	VariantDynamic Variant = "dynamic"
	// VariantRefined is dynamic plus fixed text colors inside
	// accent-carrying blocks, so an accent swap cannot produce
	// accent-on-accent text.
	VariantRefined Variant = "refined"
)

const DefaultVariant = VariantDynamic

// ParseVariant reads a variant name, case-insensitively.
func ParseVariant(s string) (Variant, bool) {
	switch Variant(strings.ToLower(strings.TrimSpace(s))) {
	case VariantBaked:
		return VariantBaked, true
	case VariantDynamic:
		return VariantDynamic, true
	case VariantRefined:
		return VariantRefined, true
	}
	return "", false
}

// Section names, in emission order.
const (
	SectionVariables = "variables"
	SectionSVGs      = "svgs"
	SectionSelectors = "selectors"
	SectionGradients = "gradients"
	SectionFallbacks = "fallbacks"
)

const (
	defaultVersion = "0.5.0"
	paletteImport  = "catppuccin.less"
	fallbackHost   = "example.invalid"
)

// Config tunes one generation run. Zero values fall back to sane
// defaults; Now and RunID exist so tests can pin the metadata.
type Config struct {
	URL       string
	Variant   Variant
	Verbose   bool
	Version   string
	Homepage  string
	UpdateURL string
	RunID     string
	Now       func() time.Time
}

// Coverage is the percentage of facts per kind that received a mapping.
type Coverage struct {
	Variables float64 `json:"variables"`
	SVGs      float64 `json:"svgs"`
	Selectors float64 `json:"selectors"`
}

// Theme is the rendered stylesheet plus the metadata callers and the
// output validator read.
type Theme struct {
	Text        string              `json:"-"`
	URL         string              `json:"url,omitempty"`
	Host        string              `json:"host"`
	RunID       string              `json:"runId"`
	GeneratedAt time.Time           `json:"generatedAt"`
	Flavor      palette.Flavor      `json:"flavor"`
	Accent      palette.Token       `json:"accent"`
	BiAccents   [2]palette.Token    `json:"biAccents"`
	Scheme      analyze.ColorScheme `json:"scheme"`
	Variant     Variant             `json:"variant"`
	Version     string              `json:"version"`
	Stats       mapping.Stats       `json:"stats"`
	Coverage    Coverage            `json:"coverage"`
	Dropped     []string            `json:"dropped,omitempty"`
	Sections    map[string]string   `json:"-"`
}

// Generate renders the theme document for one mapping result. The
// snapshot supplies graphics markup and metadata only; every color
// decision was already made by the mapper.
func Generate(snap *analyze.Snapshot, res *mapping.Result, cfg Config) *Theme {
	if res == nil {
		res = &mapping.Result{Flavor: palette.DefaultFlavor, Accent: palette.DefaultAccent}
		res.BiAccents[0], res.BiAccents[1] = palette.BiAccents(res.Accent)
	}
	variant := cfg.Variant
	if variant == "" {
		variant = DefaultVariant
	}
	version := cfg.Version
	if version == "" {
		version = defaultVersion
	}
	now := time.Now
	if cfg.Now != nil {
		now = cfg.Now
	}
	runID := cfg.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	rawURL := cfg.URL
	if rawURL == "" && snap != nil {
		rawURL = snap.URL
	}

	th := &Theme{
		URL:         rawURL,
		Host:        sanitizeHost(rawURL),
		RunID:       runID,
		GeneratedAt: now().UTC(),
		Flavor:      res.Flavor,
		Accent:      res.Accent,
		BiAccents:   res.BiAccents,
		Scheme:      res.Scheme,
		Variant:     variant,
		Version:     version,
		Stats:       res.Stats,
		Coverage:    coverageOf(res.Stats),
	}
	if th.Scheme == "" && snap != nil {
		th.Scheme = snap.Scheme
	}
	if th.Scheme == "" {
		th.Scheme = analyze.SchemeDark
	}

	e := newEmitter(variant, res)
	d := newDocument(cfg.Verbose)
	renderHeader(d, th, cfg)
	d.blank()
	d.linef("@import (reference) %q;", paletteImport)
	d.blank()
	d.open(fmt.Sprintf("@-moz-document domain(%q)", th.Host))
	if variant == VariantBaked {
		renderSections(d, e, snap, res, th)
	} else {
		d.open("#tinta(@flavor)")
		d.decl("@accent", "@"+string(res.Accent))
		d.decl("@accent2", "@"+string(res.BiAccents[0]))
		d.decl("@accent3", "@"+string(res.BiAccents[1]))
		d.blank()
		renderSections(d, e, snap, res, th)
		d.close()
		d.blank()
		dark, light := modeFlavors(res.Flavor)
		d.linef("#tinta(@%s);", dark)
		d.open("@media (prefers-color-scheme: light)")
		d.linef("#tinta(@%s);", light)
		d.close()
	}
	d.close()

	th.Text, th.Sections = d.build()
	return th
}

func renderHeader(d *document, th *Theme, cfg Config) {
	d.line("/* ==UserStyle==")
	d.linef("@name           tinta %s", th.Host)
	d.line("@namespace      tinta")
	d.linef("@version        %s", th.Version)
	d.line("@author         tinta")
	if cfg.Homepage != "" {
		d.linef("@homepageURL    %s", cfg.Homepage)
	}
	if cfg.UpdateURL != "" {
		d.linef("@updateURL      %s", cfg.UpdateURL)
	}
	d.line("==/UserStyle== */")
	d.linef("/* run %s | %s %s/%s | scheme %s | generated %s */",
		th.RunID, th.Variant, th.Flavor, th.Accent, th.Scheme,
		th.GeneratedAt.Format(time.RFC3339))
}

// modeFlavors picks the flavor applied by default and the one swapped in
// for clients asking for a light scheme.
func modeFlavors(f palette.Flavor) (dark, light palette.Flavor) {
	dark = f
	if !f.IsDark() {
		dark = palette.DefaultFlavor
	}
	return dark, palette.Latte
}

func renderSections(d *document, e *emitter, snap *analyze.Snapshot, res *mapping.Result, th *Theme) {
	renderVariables(d, e, res)
	renderSVGs(d, e, snap, res, th)
	renderSelectors(d, e, res, th)
	renderGradients(d, e, res)
	renderFallbacks(d, e)
}

func renderVariables(d *document, e *emitter, res *mapping.Result) {
	d.begin(SectionVariables)
	d.comment(SectionVariables)
	if len(res.Variables) > 0 {
		d.open(":root")
		for _, m := range res.Variables {
			d.note(m.Justification)
			d.declImportant(m.Name, e.ref(m.Token))
		}
		d.close()
	}
	d.end()
	d.blank()
}

func renderSVGs(d *document, e *emitter, snap *analyze.Snapshot, res *mapping.Result, th *Theme) {
	d.begin(SectionSVGs)
	d.comment(SectionSVGs)
	if snap != nil {
		for i, s := range snap.SVGs {
			repl := map[string]palette.Token{}
			for _, m := range res.SVGs {
				if m.SVGIndex == i {
					repl[m.SourceColor] = m.Token
				}
			}
			if len(repl) == 0 || s.Selector == "" {
				continue
			}
			if !balancedSelector(s.Selector) {
				th.Dropped = append(th.Dropped, s.Selector)
				continue
			}
			d.open(s.Selector)
			d.declImportant("background-image", fmt.Sprintf("url(%q)", svgDataURI(s.Markup, repl, e)))
			if s.Location == analyze.SVGInline {
				d.declImportant("background-repeat", "no-repeat")
				d.declImportant("background-size", "contain")
			}
			d.close()
		}
	}
	d.end()
	d.blank()
}

func renderSelectors(d *document, e *emitter, res *mapping.Result, th *Theme) {
	d.begin(SectionSelectors)
	d.comment(SectionSelectors)
	for _, m := range res.Selectors {
		if !balancedSelector(m.Selector) {
			th.Dropped = append(th.Dropped, m.Selector)
			continue
		}
		decls := selectorDecls(e, m)
		if len(decls) == 0 {
			continue
		}
		d.note(m.Justification)
		d.open(m.Selector)
		for _, dc := range decls {
			d.declImportant(dc.property, dc.value)
		}
		d.close()
	}
	d.end()
	d.blank()
}

func renderGradients(d *document, e *emitter, res *mapping.Result) {
	d.begin(SectionGradients)
	d.comment(SectionGradients)
	for _, m := range res.Selectors {
		if m.Gradient == nil || !balancedSelector(m.Selector) {
			continue
		}
		sel := m.Selector
		if !strings.Contains(sel, ":hover") {
			sel += ":hover"
		}
		g := m.Gradient
		d.open(sel)
		d.declImportant("background", fmt.Sprintf("linear-gradient(%ddeg, %s, %s)",
			g.Angle, e.ref(g.From), e.ref(g.To)))
		d.close()
	}
	d.end()
	d.blank()
}

// renderFallbacks emits the guard rules: first the gradient-text revert,
// which must outrank the generator's own overrides, then plain defaults
// for elements no mapped rule reaches.
func renderFallbacks(d *document, e *emitter) {
	d.begin(SectionFallbacks)
	d.comment(SectionFallbacks)
	d.open(`[class*="gradient-text"], [class*="text-gradient"]`)
	d.declImportant("background", "none")
	d.declImportant("-webkit-background-clip", "initial")
	d.declImportant("background-clip", "initial")
	d.declImportant("-webkit-text-fill-color", "initial")
	d.declImportant("color", e.ref(palette.Text))
	d.close()
	d.open("h1, h2, h3, h4, h5, h6")
	d.decl("color", e.ref(palette.Text))
	d.close()
	d.open("a:not([class])")
	d.decl("color", e.roleRef(mapping.RoleMain, e.accent))
	d.close()
	d.open("a:not([class]):hover")
	d.decl("color", e.roleRef(mapping.RoleSecondary, e.bi[0]))
	d.close()
	d.open(`button:not([class]), input[type="submit"]:not([class])`)
	d.decl("background-color", e.roleRef(mapping.RoleMain, e.accent))
	d.decl("color", e.ref(palette.Crust))
	d.close()
	d.open(`input[type="text"], input[type="search"], input[type="email"], input[type="password"], select, textarea`)
	d.decl("background-color", e.ref(palette.Surface0))
	d.decl("color", e.ref(palette.Text))
	d.decl("border-color", e.ref(palette.Surface1))
	d.close()
	d.open(`.badge, [class*="badge"]`)
	d.decl("background-color", e.roleRef(mapping.RoleTertiary, e.bi[1]))
	d.decl("color", e.ref(palette.Crust))
	d.close()
	d.end()
}

type declaration struct {
	property string
	value    string
}

// selectorDecls resolves one mapping's properties to declaration text.
// The accent-carrier property rides the role alias; in the refined
// variant the text color of an accent-background block is pinned to
// crust unless the mapping marked the text itself accent-class.
func selectorDecls(e *emitter, m mapping.SelectorMapping) []declaration {
	var out []declaration
	m.Properties.Each(func(property string, tok palette.Token) {
		var value string
		switch {
		case m.AccentRole != mapping.RoleNone && property == m.AccentProp:
			value = e.roleRef(m.AccentRole, tok)
		case e.variant == VariantRefined && property == "color" &&
			m.AccentRole != mapping.RoleNone && m.AccentProp == "background-color" &&
			!tok.IsAccent():
			value = e.ref(palette.Crust)
		default:
			value = e.ref(tok)
		}
		out = append(out, declaration{property, value})
	})
	return out
}

// emitter resolves palette tokens to reference text for the selected
// variant: hex literals when baked, token or alias references otherwise.
type emitter struct {
	variant Variant
	flavor  palette.Flavor
	accent  palette.Token
	bi      [2]palette.Token
}

func newEmitter(variant Variant, res *mapping.Result) *emitter {
	return &emitter{variant: variant, flavor: res.Flavor, accent: res.Accent, bi: res.BiAccents}
}

func (e *emitter) baked() bool { return e.variant == VariantBaked }

func (e *emitter) hex(tok palette.Token) string {
	if h, ok := palette.Hex(e.flavor, tok); ok {
		return h
	}
	h, _ := palette.Hex(palette.DefaultFlavor, tok)
	return h
}

// alias maps the accent triad to its user-editable alias name.
func (e *emitter) alias(tok palette.Token) (string, bool) {
	switch tok {
	case e.accent:
		return "@accent", true
	case e.bi[0]:
		return "@accent2", true
	case e.bi[1]:
		return "@accent3", true
	}
	return "", false
}

// ref renders a plain token reference. The dynamic variant routes the
// accent triad through its aliases so one edit re-accents the whole
// document; refined keeps non-carrier references fixed.
func (e *emitter) ref(tok palette.Token) string {
	if e.baked() {
		return e.hex(tok)
	}
	if e.variant == VariantDynamic {
		if a, ok := e.alias(tok); ok {
			return a
		}
	}
	return "@" + string(tok)
}

// roleRef renders the reference for an accent-carrier property. Dynamic
// and refined both keep the carrier on the alias.
func (e *emitter) roleRef(role mapping.AccentRole, tok palette.Token) string {
	if e.baked() {
		return e.hex(tok)
	}
	switch role {
	case mapping.RoleMain:
		return "@accent"
	case mapping.RoleSecondary:
		return "@accent2"
	case mapping.RoleTertiary:
		return "@accent3"
	}
	return e.ref(tok)
}

// svgRef renders the replacement text inside re-colored svg markup.
func (e *emitter) svgRef(tok palette.Token) string {
	if e.baked() {
		return e.hex(tok)
	}
	return "@{" + string(tok) + "}"
}

func coverageOf(st mapping.Stats) Coverage {
	pct := func(k mapping.KindStats) float64 {
		if k.Total == 0 {
			return 0
		}
		return 100 * float64(k.Mapped) / float64(k.Total)
	}
	return Coverage{
		Variables: pct(st.Variables),
		SVGs:      pct(st.SVGs),
		Selectors: pct(st.Selectors),
	}
}

var hostRe = regexp.MustCompile(`^[a-z0-9.-]+$`)

// sanitizeHost turns the target URL into a value safe inside the
// domain() scope. Anything that cannot yield a plain lowercase host
// degrades to the placeholder instead of corrupting the document.
func sanitizeHost(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fallbackHost
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fallbackHost
	}
	host := strings.ToLower(u.Hostname())
	if host == "" || !hostRe.MatchString(host) {
		return fallbackHost
	}
	return host
}

// balancedSelector rejects selector strings whose brackets do not
// close, which would corrupt the emitted block structure.
func balancedSelector(s string) bool {
	var parens, brackets int
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '(':
			parens++
		case ')':
			parens--
		case '[':
			brackets++
		case ']':
			brackets--
		case '{', '}':
			return false
		}
		if parens < 0 || brackets < 0 {
			return false
		}
	}
	return quote == 0 && parens == 0 && brackets == 0
}

var (
	svgAttrColorRe  = regexp.MustCompile(`(?i)\b(fill|stroke|stop-color)\s*=\s*("[^"]*"|'[^']*')`)
	svgStyleColorRe = regexp.MustCompile(`(?i)\b(fill|stroke|stop-color)\s*:\s*([^;"'<>}]+)`)
)

// svgRecolor substitutes mapped color literals inside svg markup with
// their palette references.
func svgRecolor(markup string, repl map[string]palette.Token, e *emitter) string {
	sub := func(raw string) (string, bool) {
		hex := analyze.CSSToHex(strings.TrimSpace(raw))
		if hex == "" {
			return "", false
		}
		tok, ok := repl[hex]
		if !ok {
			return "", false
		}
		return e.svgRef(tok), true
	}
	out := svgAttrColorRe.ReplaceAllStringFunc(markup, func(m string) string {
		parts := svgAttrColorRe.FindStringSubmatch(m)
		if v, ok := sub(strings.Trim(parts[2], `"'`)); ok {
			return parts[1] + "='" + v + "'"
		}
		return m
	})
	out = svgStyleColorRe.ReplaceAllStringFunc(out, func(m string) string {
		parts := svgStyleColorRe.FindStringSubmatch(m)
		if v, ok := sub(parts[2]); ok {
			return parts[1] + ":" + v
		}
		return m
	})
	return out
}

// svgDataURI renders re-colored markup as a percent-encoded data URI.
// Interpolation spans (@{token}) pass through untouched so the palette
// library substitutes the active flavor's value.
func svgDataURI(markup string, repl map[string]palette.Token, e *emitter) string {
	body := svgRecolor(markup, repl, e)
	body = strings.ReplaceAll(body, `"`, "'")
	var b strings.Builder
	b.WriteString("data:image/svg+xml,")
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '@' && i+1 < len(body) && body[i+1] == '{' {
			if end := strings.IndexByte(body[i:], '}'); end >= 0 {
				b.WriteString(body[i : i+end+1])
				i += end
				continue
			}
		}
		switch c {
		case '<':
			b.WriteString("%3C")
		case '>':
			b.WriteString("%3E")
		case '#':
			b.WriteString("%23")
		case '%':
			b.WriteString("%25")
		case '&':
			b.WriteString("%26")
		case '{':
			b.WriteString("%7B")
		case '}':
			b.WriteString("%7D")
		case ' ', '\t', '\n', '\r':
			b.WriteString("%20")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
