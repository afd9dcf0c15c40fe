package analyze

import "testing"

func TestDetectBootstrap(t *testing.T) {
	t.Parallel()
	html := `<body data-bs-theme="dark">
<nav class="navbar navbar-expand"><button class="btn btn-primary btn-lg">Go</button></nav>
<div class="col-md-6 col-sm-12"></div></body>`
	css := `/* Bootstrap v5.3.0 */ :root { --bs-primary: #0d6efd; }`
	vars := []Variable{
		{Name: "--bs-primary", ComputedValue: "#0D6EFD"},
		{Name: "--bs-success", ComputedValue: "#198754"},
		{Name: "--bs-danger", ComputedValue: "#DC3545"},
	}
	ds := DetectDesignSystem(html, css, vars)
	if ds.Framework != FrameworkBootstrap {
		t.Fatalf("framework = %q, expected bootstrap", ds.Framework)
	}
	if ds.Confidence < 0.6 {
		t.Fatalf("confidence = %f, expected >= 0.6", ds.Confidence)
	}
	if ds.Tokens["--bs-primary"] != "#0D6EFD" {
		t.Fatalf("tokens = %v, expected --bs-primary entry", ds.Tokens)
	}
	if ds.Toggle == nil || ds.Toggle.Kind != "attribute" || ds.Toggle.Selector != "data-bs-theme" {
		t.Fatalf("toggle = %+v, expected data-bs-theme attribute", ds.Toggle)
	}
}

func TestDetectMaterial(t *testing.T) {
	t.Parallel()
	html := `<button class="mdc-button mdc-button--raised">OK</button><i class="material-icons">menu</i>`
	css := `:root { --mdc-theme-primary: #6200ee; }`
	vars := []Variable{
		{Name: "--mdc-theme-primary", ComputedValue: "#6200EE"},
		{Name: "--mdc-theme-secondary", ComputedValue: "#03DAC6"},
		{Name: "--mat-toolbar-height", ComputedValue: ""},
	}
	ds := DetectDesignSystem(html, css, vars)
	if ds.Framework != FrameworkMaterial {
		t.Fatalf("framework = %q, expected material", ds.Framework)
	}
	if ds.Confidence < 0.6 {
		t.Fatalf("confidence = %f, expected >= 0.6", ds.Confidence)
	}
	if _, ok := ds.Tokens["--mat-toolbar-height"]; ok {
		t.Fatalf("non-color variable leaked into tokens: %v", ds.Tokens)
	}
}

func TestDetectTailwindWithDarkToggle(t *testing.T) {
	t.Parallel()
	html := `<div class="flex bg-gray-900 text-white hover:bg-gray-800 md:flex lg:px-4 text-sm bg-white"></div>`
	css := `/* tailwindcss v3.4 */ .dark .bg-white { background-color: #111; }`
	ds := DetectDesignSystem(html, css, nil)
	if ds.Framework != FrameworkTailwind {
		t.Fatalf("framework = %q, expected tailwind", ds.Framework)
	}
	if ds.Toggle == nil || ds.Toggle.Kind != "class" || ds.Toggle.Selector != ".dark" {
		t.Fatalf("toggle = %+v, expected .dark class toggle", ds.Toggle)
	}
}

func TestDetectCustomPrefix(t *testing.T) {
	t.Parallel()
	vars := []Variable{
		{Name: "--ds-color-primary", ComputedValue: "#1A73E8"},
		{Name: "--ds-color-surface", ComputedValue: "#FFFFFF"},
		{Name: "--ds-color-text", ComputedValue: "#202124"},
		{Name: "--unrelated", ComputedValue: "#000000"},
	}
	ds := DetectDesignSystem("<div class=\"page\"></div>", ".page { color: #202124; }", vars)
	if ds.Framework != FrameworkCustom {
		t.Fatalf("framework = %q, expected custom", ds.Framework)
	}
	if ds.Confidence != 0.5 {
		t.Fatalf("confidence = %f, expected 0.5", ds.Confidence)
	}
	if len(ds.Prefixes) != 1 || ds.Prefixes[0] != "--ds-color-" {
		t.Fatalf("prefixes = %v, expected [--ds-color-]", ds.Prefixes)
	}
	if len(ds.Tokens) != 3 {
		t.Fatalf("tokens = %v, expected the three --ds-color entries", ds.Tokens)
	}
}

func TestDetectUnknown(t *testing.T) {
	t.Parallel()
	ds := DetectDesignSystem(`<div class="wrapper"></div>`, `.wrapper { color: #333; }`, nil)
	if ds.Framework != FrameworkUnknown {
		t.Fatalf("framework = %q, expected unknown", ds.Framework)
	}
	if ds.Confidence != 0 {
		t.Fatalf("confidence = %f, expected 0", ds.Confidence)
	}
	if ds.Toggle != nil {
		t.Fatalf("toggle = %+v, expected nil", ds.Toggle)
	}
}

func TestDetectGenericToggleWithoutFramework(t *testing.T) {
	t.Parallel()
	css := `.dark-theme .card { background: #000; }`
	ds := DetectDesignSystem("", css, nil)
	if ds.Toggle == nil || ds.Toggle.Selector != ".dark-theme" {
		t.Fatalf("toggle = %+v, expected .dark-theme", ds.Toggle)
	}
}

func TestDetectDataThemeAttribute(t *testing.T) {
	t.Parallel()
	html := `<html data-theme="dark"><body></body></html>`
	ds := DetectDesignSystem(html, "", nil)
	if ds.Toggle == nil || ds.Toggle.Kind != "attribute" || ds.Toggle.Selector != "data-theme" {
		t.Fatalf("toggle = %+v, expected data-theme attribute", ds.Toggle)
	}
}
