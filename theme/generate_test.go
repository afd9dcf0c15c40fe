package theme

import (
	"context"
	"strings"
	"testing"
	"time"

	"tinta/analyze"
	"tinta/mapping"
	"tinta/palette"
)

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC) }
}

func fixtureSnapshot() *analyze.Snapshot {
	return &analyze.Snapshot{
		URL:    "https://example.com/pricing",
		Scheme: analyze.SchemeDark,
		SVGs: []analyze.SVG{
			{
				Location: analyze.SVGInline,
				Selector: ".logo",
				Purpose:  analyze.PurposeLogo,
				Markup:   `<svg viewBox="0 0 24 24"><path fill="#FF5A5F" d="M0 0h24v24H0z"/></svg>`,
				Colors:   []analyze.SVGColorRef{{Attr: "fill", Value: "#FF5A5F"}},
			},
		},
	}
}

func fixtureResult() *mapping.Result {
	res := &mapping.Result{
		Flavor: palette.Mocha,
		Accent: palette.Blue,
		Scheme: analyze.SchemeDark,
	}
	res.BiAccents[0], res.BiAccents[1] = palette.BiAccents(palette.Blue)
	res.Variables = []mapping.VariableMapping{
		{Name: "--brand", SourceValue: "#1A73E8", Token: palette.Blue, Justification: "hue-nearest accent"},
	}
	res.SVGs = []mapping.SVGMapping{
		{SVGIndex: 0, Selector: ".logo", Attr: "fill", SourceColor: "#FF5A5F", Token: palette.Red},
	}
	res.Selectors = []mapping.SelectorMapping{
		{
			Selector:   ".btn-primary",
			Category:   analyze.CategoryButton,
			Token:      palette.Blue,
			Properties: mapping.PropertyTokens{BackgroundColor: palette.Blue, Color: palette.Text},
			AccentRole: mapping.RoleMain,
			AccentProp: "background-color",
			Gradient:   &mapping.Gradient{Angle: 135, From: palette.Blue, To: palette.Pink, Opacity: 1},
		},
		{
			Selector:   ".note",
			Category:   analyze.CategoryText,
			Token:      palette.Subtext0,
			Properties: mapping.PropertyTokens{Color: palette.Subtext0},
		},
	}
	res.Stats = mapping.Stats{
		Variables: mapping.KindStats{Mapped: 1, Total: 1},
		SVGs:      mapping.KindStats{Mapped: 1, Total: 1},
		Selectors: mapping.KindStats{Mapped: 2, Total: 2},
		Roles:     mapping.RoleStats{Main: 1},
	}
	return res
}

func TestGenerateDocumentShape(t *testing.T) {
	t.Parallel()
	th := Generate(fixtureSnapshot(), fixtureResult(), Config{RunID: "run-fixture", Now: fixedClock()})

	if th.Host != "example.com" {
		t.Fatalf("Host = %q, expected %q", th.Host, "example.com")
	}
	if th.Variant != VariantDynamic {
		t.Fatalf("Variant = %q, expected %q", th.Variant, VariantDynamic)
	}
	if th.Coverage.Variables != 100 || th.Coverage.SVGs != 100 || th.Coverage.Selectors != 100 {
		t.Fatalf("Coverage = %+v, expected full", th.Coverage)
	}
	for _, want := range []string{
		`@import (reference) "catppuccin.less";`,
		`@-moz-document domain("example.com") {`,
		"#tinta(@flavor) {",
		"@accent: @blue;",
		"@accent2: @pink;",
		"@accent3: @teal;",
		"#tinta(@mocha);",
		"@media (prefers-color-scheme: light) {",
		"#tinta(@latte);",
		"run-fixture",
	} {
		if !strings.Contains(th.Text, want) {
			t.Fatalf("document missing %q:\n%s", want, th.Text)
		}
	}
	last := -1
	for _, name := range []string{SectionVariables, SectionSVGs, SectionSelectors, SectionGradients, SectionFallbacks} {
		at := strings.Index(th.Text, "/* "+name+" */")
		if at < 0 {
			t.Fatalf("section %q missing", name)
		}
		if at < last {
			t.Fatalf("section %q out of order", name)
		}
		last = at
		if th.Sections[name] == "" {
			t.Fatalf("section %q not recorded", name)
		}
	}
}

func TestGenerateDynamicSelectorRules(t *testing.T) {
	t.Parallel()
	th := Generate(nil, fixtureResult(), Config{URL: "https://example.com"})

	for _, want := range []string{
		"--brand: @accent !important;",
		".btn-primary {",
		"background-color: @accent !important;",
		"color: @text !important;",
		".note {",
		"color: @subtext0 !important;",
		".btn-primary:hover {",
		"background: linear-gradient(135deg, @accent, @accent2) !important;",
	} {
		if !strings.Contains(th.Text, want) {
			t.Fatalf("document missing %q:\n%s", want, th.Text)
		}
	}
}

func TestGenerateRefinedPinsAccentBlockText(t *testing.T) {
	t.Parallel()
	th := Generate(nil, fixtureResult(), Config{URL: "https://example.com", Variant: VariantRefined})

	sec := th.Sections[SectionSelectors]
	if !strings.Contains(sec, "background-color: @accent !important;") {
		t.Fatalf("accent carrier lost its alias:\n%s", sec)
	}
	if !strings.Contains(sec, "color: @crust !important;") {
		t.Fatalf("button text not pinned to crust:\n%s", sec)
	}
	if strings.Contains(sec, "color: @text !important;") {
		t.Fatalf("refined variant kept the dynamic text token:\n%s", sec)
	}
	// Non-carrier references stay fixed token names, not aliases.
	if !strings.Contains(th.Sections[SectionGradients], "linear-gradient(135deg, @blue, @pink)") {
		t.Fatalf("gradient should use fixed tokens:\n%s", th.Sections[SectionGradients])
	}
}

func TestGenerateBakedVariant(t *testing.T) {
	t.Parallel()
	th := Generate(fixtureSnapshot(), fixtureResult(), Config{Variant: VariantBaked})

	for _, want := range []string{
		"--brand: #89b4fa !important;",
		"background-color: #89b4fa !important;",
		"%23f38ba8",
	} {
		if !strings.Contains(th.Text, want) {
			t.Fatalf("document missing %q:\n%s", want, th.Text)
		}
	}
	for _, banned := range []string{"#tinta", "@accent", "@media (prefers-color-scheme"} {
		if strings.Contains(th.Text, banned) {
			t.Fatalf("baked document contains %q:\n%s", banned, th.Text)
		}
	}
	if v := ValidateText(th.Text); !v.Valid {
		t.Fatalf("baked document invalid: %v", v.Issues)
	}
}

func TestGenerateSVGRecolor(t *testing.T) {
	t.Parallel()
	th := Generate(fixtureSnapshot(), fixtureResult(), Config{})

	sec := th.Sections[SectionSVGs]
	for _, want := range []string{
		".logo {",
		`background-image: url("data:image/svg+xml,`,
		"%3Csvg",
		"@{red}",
		"background-size: contain !important;",
	} {
		if !strings.Contains(sec, want) {
			t.Fatalf("svg section missing %q:\n%s", want, sec)
		}
	}
	if strings.Contains(sec, "FF5A5F") {
		t.Fatalf("source color survived re-coloring:\n%s", sec)
	}
}

func TestGenerateDropsUnbalancedSelector(t *testing.T) {
	t.Parallel()
	res := fixtureResult()
	res.Selectors = append(res.Selectors, mapping.SelectorMapping{
		Selector:   "div:not(.valid",
		Token:      palette.Red,
		Properties: mapping.PropertyTokens{Color: palette.Red},
	})
	th := Generate(nil, res, Config{URL: "https://example.com"})

	if strings.Contains(th.Text, "div:not(.valid") {
		t.Fatalf("unbalanced selector emitted:\n%s", th.Text)
	}
	found := false
	for _, sel := range th.Dropped {
		if sel == "div:not(.valid" {
			found = true
		}
	}
	if !found {
		t.Fatalf("dropped selector not recorded: %v", th.Dropped)
	}
	if v := ValidateText(th.Text); !v.Valid {
		t.Fatalf("document invalid after drop: %v", v.Issues)
	}
}

func TestGenerateFallbackGuards(t *testing.T) {
	t.Parallel()
	th := Generate(nil, fixtureResult(), Config{URL: "https://example.com"})

	sec := th.Sections[SectionFallbacks]
	for _, want := range []string{
		`[class*="gradient-text"], [class*="text-gradient"] {`,
		"-webkit-text-fill-color: initial !important;",
		"h1, h2, h3, h4, h5, h6 {",
		"a:not([class]) {",
		"color: @accent;",
	} {
		if !strings.Contains(sec, want) {
			t.Fatalf("fallbacks missing %q:\n%s", want, sec)
		}
	}
}

func TestGenerateVerboseNotes(t *testing.T) {
	t.Parallel()
	res := fixtureResult()
	res.Variables[0].Justification = "ends early */ } body { display: none }"

	quiet := Generate(nil, fixtureResult(), Config{URL: "https://example.com"})
	if strings.Contains(quiet.Text, "hue-nearest accent") {
		t.Fatalf("justification emitted without verbose:\n%s", quiet.Text)
	}

	th := Generate(nil, res, Config{URL: "https://example.com", Verbose: true})
	if strings.Contains(th.Text, "ends early */ }") {
		t.Fatalf("justification broke out of its comment:\n%s", th.Text)
	}
	if !strings.Contains(th.Text, "ends early * /") {
		t.Fatalf("justification comment missing:\n%s", th.Text)
	}
	if v := ValidateText(th.Text); !v.Valid {
		t.Fatalf("verbose document invalid: %v", v.Issues)
	}
}

func TestGenerateZeroSignalPage(t *testing.T) {
	t.Parallel()
	snap := analyze.Analyze("", "", analyze.Options{URL: "https://empty.example"})
	res := mapping.Map(context.Background(), snap, mapping.Options{})
	th := Generate(snap, res, Config{})

	v := ValidateOutput(th)
	if !v.Valid {
		t.Fatalf("zero-signal theme invalid: %v", v.Issues)
	}
	if len(v.Issues) != 1 || v.Issues[0].Level != LevelWarning ||
		!strings.Contains(v.Issues[0].Message, "zero coverage") {
		t.Fatalf("expected a single zero-coverage warning, got %v", v.Issues)
	}
}

func TestSanitizeHost(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"https_with_port_and_case", "https://Example.COM:8443/x?y=1", "example.com"},
		{"http_subdomain", "http://sub.test.org/page", "sub.test.org"},
		{"ip_host", "https://127.0.0.1:8080", "127.0.0.1"},
		{"file_scheme", "file:///tmp/page.html", fallbackHost},
		{"bare_path", "not a url", fallbackHost},
		{"empty", "", fallbackHost},
		{"underscore_host", "https://bad_host.example", fallbackHost},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := sanitizeHost(tc.raw); got != tc.want {
				t.Fatalf("sanitizeHost(%q) = %q, expected %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestParseVariant(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want Variant
		ok   bool
	}{
		{"baked", VariantBaked, true},
		{" Dynamic ", VariantDynamic, true},
		{"REFINED", VariantRefined, true},
		{"vivid", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		got, ok := ParseVariant(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParseVariant(%q) = %q, %v, expected %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestModeFlavors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in    palette.Flavor
		dark  palette.Flavor
		light palette.Flavor
	}{
		{palette.Mocha, palette.Mocha, palette.Latte},
		{palette.Frappe, palette.Frappe, palette.Latte},
		{palette.Latte, palette.Mocha, palette.Latte},
	}
	for _, tc := range tests {
		dark, light := modeFlavors(tc.in)
		if dark != tc.dark || light != tc.light {
			t.Fatalf("modeFlavors(%q) = %q, %q, expected %q, %q", tc.in, dark, light, tc.dark, tc.light)
		}
	}
}

func TestBalancedSelector(t *testing.T) {
	t.Parallel()
	tests := []struct {
		sel  string
		want bool
	}{
		{".btn", true},
		{"div:not(.valid)", true},
		{"div:not(.valid", false},
		{`[data-x="a]b"]`, true},
		{"[open", false},
		{"a)b", false},
		{".x{", false},
	}
	for _, tc := range tests {
		if got := balancedSelector(tc.sel); got != tc.want {
			t.Fatalf("balancedSelector(%q) = %v, expected %v", tc.sel, got, tc.want)
		}
	}
}
