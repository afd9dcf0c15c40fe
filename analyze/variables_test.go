package analyze

import (
	"slices"
	"testing"
)

func findVariable(t *testing.T, vars []Variable, name string) Variable {
	t.Helper()
	for _, v := range vars {
		if v.Name == name {
			return v
		}
	}
	t.Fatalf("variable %q not found in %d extracted facts", name, len(vars))
	return Variable{}
}

func TestExtractVariablesRootDeclaration(t *testing.T) {
	t.Parallel()
	css := `:root { --brand-primary: #1a73e8; } .btn { background: var(--brand-primary); }`
	vars := ExtractVariables(nil, css)
	if len(vars) != 1 {
		t.Fatalf("extracted %d variables, expected 1", len(vars))
	}
	v := vars[0]
	if v.Name != "--brand-primary" {
		t.Fatalf("name = %q, expected --brand-primary", v.Name)
	}
	if v.ComputedValue != "#1A73E8" {
		t.Fatalf("computed value = %q, expected #1A73E8", v.ComputedValue)
	}
	if v.Scope != ScopeRoot {
		t.Fatalf("scope = %q, expected root", v.Scope)
	}
	if !slices.Contains(v.Usage, ".btn") {
		t.Fatalf("usage = %v, expected to include .btn", v.Usage)
	}
	if v.Frequency != 1 {
		t.Fatalf("frequency = %d, expected 1", v.Frequency)
	}
}

func TestExtractVariablesChainsAndFallbacks(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name     string
		css      string
		variable string
		computed string
	}{
		{
			"chain",
			`:root { --a: var(--b); --b: #ff0000; }`,
			"--a", "#FF0000",
		},
		{
			"fallback_used",
			`:root { --x: var(--missing, #00ff00); }`,
			"--x", "#00FF00",
		},
		{
			"rgb_value",
			`:root { --tone: rgb(16, 32, 48); }`,
			"--tone", "#102030",
		},
		{
			"non_color_unresolved",
			`:root { --spacing: 12px; }`,
			"--spacing", "",
		},
		{
			"self_reference_terminates",
			`:root { --loop: var(--loop); }`,
			"--loop", "",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			vars := ExtractVariables(nil, tc.css)
			v := findVariable(t, vars, tc.variable)
			if v.ComputedValue != tc.computed {
				t.Fatalf("computed value = %q, expected %q", v.ComputedValue, tc.computed)
			}
		})
	}
}

func TestExtractVariablesScopes(t *testing.T) {
	t.Parallel()
	css := `.theme-dark { --panel-bg: #101418; }`
	doc := parseHTML(`<html><body><div class="hero" style="--hero-tint: #abc"></div></body></html>`)
	vars := ExtractVariables(doc, css)

	panel := findVariable(t, vars, "--panel-bg")
	if panel.Scope != ScopeClass {
		t.Fatalf("panel scope = %q, expected class", panel.Scope)
	}
	if panel.Selector != ".theme-dark" {
		t.Fatalf("panel selector = %q, expected .theme-dark", panel.Selector)
	}

	hero := findVariable(t, vars, "--hero-tint")
	if hero.Scope != ScopeElement {
		t.Fatalf("hero scope = %q, expected element", hero.Scope)
	}
	if hero.ComputedValue != "#AABBCC" {
		t.Fatalf("hero computed = %q, expected #AABBCC", hero.ComputedValue)
	}
	if hero.Selector != "div.hero" {
		t.Fatalf("hero selector = %q, expected div.hero", hero.Selector)
	}
}

func TestExtractVariablesRootWinsOverClass(t *testing.T) {
	t.Parallel()
	css := `.override { --accent: #000000; } :root { --accent: #cba6f7; }`
	vars := ExtractVariables(nil, css)
	v := findVariable(t, vars, "--accent")
	if v.Scope != ScopeRoot {
		t.Fatalf("scope = %q, expected root after :root declaration", v.Scope)
	}
	if v.ComputedValue != "#CBA6F7" {
		t.Fatalf("computed = %q, expected #CBA6F7", v.ComputedValue)
	}
}

func TestExtractVariablesNoPrefixFalseMatch(t *testing.T) {
	t.Parallel()
	css := `:root { --brand: #111111; --brand-alt: #222222; }
.a { color: var(--brand-alt); }`
	vars := ExtractVariables(nil, css)
	brand := findVariable(t, vars, "--brand")
	if brand.Frequency != 0 {
		t.Fatalf("--brand frequency = %d, expected 0 (only --brand-alt is used)", brand.Frequency)
	}
	alt := findVariable(t, vars, "--brand-alt")
	if alt.Frequency != 1 {
		t.Fatalf("--brand-alt frequency = %d, expected 1", alt.Frequency)
	}
}

func TestExtractVariablesSurvivesBrokenFragment(t *testing.T) {
	t.Parallel()
	css := ":root { --ok: #112233; }\n.broken { color: red"
	vars := ExtractVariables(nil, css)
	v := findVariable(t, vars, "--ok")
	if v.ComputedValue != "#112233" {
		t.Fatalf("computed = %q, expected #112233", v.ComputedValue)
	}
}

func TestExtractVariablesEmptyInput(t *testing.T) {
	t.Parallel()
	if vars := ExtractVariables(nil, ""); vars != nil {
		t.Fatalf("expected nil for empty css, got %d facts", len(vars))
	}
}
