package mapping

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"tinta/analyze"
	"tinta/palette"
)

const (
	// maxFactsPerRequest bounds one classification batch.
	maxFactsPerRequest = 40
	// maxContextBytes bounds the page summary sent with a batch.
	maxContextBytes = 1200
)

// Fact is one color fact prepared for external classification.
type Fact struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
	Color string `json:"color,omitempty" yaml:"color,omitempty"`
	Hints string `json:"hints,omitempty" yaml:"hints,omitempty"`
}

// Example is one few-shot classification example.
type Example struct {
	Input string `json:"input" yaml:"input"`
	Token string `json:"token" yaml:"token"`
	Why   string `json:"why,omitempty" yaml:"why,omitempty"`
}

// ClassifyRequest is the structured payload handed to a classifier.
type ClassifyRequest struct {
	Kind         Kind      `json:"kind"`
	Context      string    `json:"context,omitempty"`
	Facts        []Fact    `json:"facts"`
	Instructions string    `json:"instructions,omitempty"`
	Examples     []Example `json:"examples,omitempty"`
}

// Assignment is one classifier verdict. Token is raw remote output and
// is validated before use.
type Assignment struct {
	FactID        string `json:"factId"`
	Token         string `json:"token"`
	Justification string `json:"justification,omitempty"`
}

// Classifier assigns palette tokens to prepared facts. Implementations
// wrap an external model call; errors and malformed verdicts are
// recovered by the heuristic, never surfaced.
type Classifier interface {
	Classify(ctx context.Context, req ClassifyRequest) ([]Assignment, error)
}

// PromptConfig carries per-kind instructions and few-shot examples.
type PromptConfig struct {
	Instructions map[string]string    `yaml:"instructions"`
	Examples     map[string][]Example `yaml:"examples"`
}

const defaultPromptYAML = `
instructions:
  variables: >
    Assign each CSS custom property to exactly one palette token. Prefer
    accent tokens for brand and interaction colors, base/mantle/crust for
    page backgrounds, surface and overlay tiers for panels and borders,
    subtext/text for foreground copy. Answer with the fact id, the token
    name and a short justification.
  svgs: >
    Assign each vector icon color to exactly one palette token. Logos and
    social marks keep an accent; monochrome glyphs take a neutral tier
    matching their brightness. Answer with the fact id, the token name
    and a short justification.
  selectors: >
    Assign each CSS selector's leading color to exactly one palette
    token. Buttons, links and highlighted controls take accents; page
    scaffolding takes base or a surface tier; plain copy takes text.
    Answer with the fact id, the token name and a short justification.
examples:
  variables:
    - input: "--brand-accent: #1A73E8 (root, used by .cta)"
      token: blue
      why: saturated brand color close to the blue accent
    - input: "--page-bg: #121212 (root, used by body)"
      token: base
      why: dominant dark page background
  svgs:
    - input: "fill=#FF5A5F on .logo"
      token: red
      why: saturated logo artwork stays on the nearest accent
    - input: "stroke=#CCCCCC on .icon-chevron"
      token: overlay1
      why: light gray glyph sits in the overlay tier
  selectors:
    - input: ".btn-primary background-color #1A73E8"
      token: blue
      why: primary button carries the main accent
    - input: ".footer color #666666"
      token: subtext0
      why: muted footer copy maps to subtext
`

var defaultPrompts = mustPrompts(defaultPromptYAML)

func mustPrompts(src string) PromptConfig {
	var c PromptConfig
	if err := yaml.Unmarshal([]byte(src), &c); err != nil {
		panic(fmt.Sprintf("mapping: bad builtin prompt config: %v", err))
	}
	return c
}

// LoadPrompts reads a prompt config override from a YAML file.
func LoadPrompts(path string) (PromptConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PromptConfig{}, fmt.Errorf("read prompt config: %w", err)
	}
	var c PromptConfig
	if err := yaml.Unmarshal(data, &c); err != nil {
		return PromptConfig{}, fmt.Errorf("parse prompt config %s: %w", path, err)
	}
	return c, nil
}

// DefaultPrompts returns the builtin prompt configuration.
func DefaultPrompts() PromptConfig { return defaultPrompts }

type resolved struct {
	token         palette.Token
	justification string
}

func classifyEnabled(opts Options, kind Kind) bool {
	if opts.Classifier == nil {
		return false
	}
	switch kind {
	case KindVariables:
		return opts.ClassifyVariables
	case KindSVGs:
		return opts.ClassifySVGs
	case KindSelectors:
		return opts.ClassifySelectors
	}
	return false
}

// classify runs one batch through the configured classifier and keeps
// only valid verdicts. Any failure returns nil and the caller falls
// back to the heuristic.
func classify(ctx context.Context, opts Options, kind Kind, summary string, facts []Fact) map[string]resolved {
	if !classifyEnabled(opts, kind) || len(facts) == 0 {
		return nil
	}
	if len(facts) > maxFactsPerRequest {
		facts = facts[:maxFactsPerRequest]
	}
	prompts := defaultPrompts
	if opts.Prompts != nil {
		prompts = *opts.Prompts
	}
	req := ClassifyRequest{
		Kind:         kind,
		Context:      truncateBytes(summary, maxContextBytes),
		Facts:        facts,
		Instructions: prompts.Instructions[string(kind)],
		Examples:     prompts.Examples[string(kind)],
	}
	assigns, err := opts.Classifier.Classify(ctx, req)
	if err != nil {
		return nil
	}
	out := make(map[string]resolved, len(assigns))
	for _, a := range assigns {
		tok := palette.Token(strings.ToLower(strings.TrimSpace(a.Token)))
		if a.FactID == "" || !tok.Valid() {
			continue
		}
		if _, dup := out[a.FactID]; dup {
			continue
		}
		just := strings.TrimSpace(a.Justification)
		if just == "" {
			just = "classifier assignment"
		}
		out[a.FactID] = resolved{tok, just}
	}
	return out
}

func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := s[:n]
	// do not split a rune
	for len(cut) > 0 && cut[len(cut)-1] >= 0x80 && cut[len(cut)-1] < 0xC0 {
		cut = cut[:len(cut)-1]
	}
	if len(cut) > 0 && cut[len(cut)-1] >= 0xC0 {
		cut = cut[:len(cut)-1]
	}
	return cut
}

// contextSummary condenses the snapshot into the prompt context.
func contextSummary(snap *analyze.Snapshot) string {
	if snap == nil {
		return ""
	}
	var b strings.Builder
	if snap.URL != "" {
		fmt.Fprintf(&b, "url=%s ", snap.URL)
	}
	fmt.Fprintf(&b, "scheme=%s", snap.Scheme)
	if snap.Design.Framework != "" {
		fmt.Fprintf(&b, " framework=%s(%.2f)", snap.Design.Framework, snap.Design.Confidence)
	}
	if len(snap.Dominant) > 0 {
		fmt.Fprintf(&b, " dominant=%s", strings.Join(snap.Dominant, ","))
	}
	if len(snap.Accents) > 0 {
		fmt.Fprintf(&b, " accents=%s", strings.Join(snap.Accents, ","))
	}
	fmt.Fprintf(&b, " facts=%dv/%ds/%dsel",
		snap.Counts.Variables, snap.Counts.SVGs, snap.Counts.Selectors)
	return b.String()
}

func variableFacts(snap *analyze.Snapshot) []Fact {
	out := make([]Fact, 0, len(snap.Variables))
	for _, v := range snap.Variables {
		hints := fmt.Sprintf("scope=%s frequency=%d", v.Scope, v.Frequency)
		if len(v.Usage) > 0 {
			hints += " used-by=" + strings.Join(v.Usage, ",")
		}
		out = append(out, Fact{
			ID:    v.Name,
			Label: v.Name + ": " + v.Value,
			Color: v.ComputedValue,
			Hints: hints,
		})
	}
	return out
}

func svgFacts(snap *analyze.Snapshot) []Fact {
	var out []Fact
	for i, s := range snap.SVGs {
		for _, c := range s.Colors {
			label := fmt.Sprintf("%s=%s", c.Attr, c.Value)
			if s.Selector != "" {
				label += " on " + s.Selector
			}
			out = append(out, Fact{
				ID:    svgFactID(i, c),
				Label: label,
				Color: c.Value,
				Hints: fmt.Sprintf("purpose=%s location=%s", s.Purpose, s.Location),
			})
		}
	}
	return out
}

func selectorFacts(facts []analyze.Selector) []Fact {
	out := make([]Fact, 0, len(facts))
	for _, f := range facts {
		var props []string
		f.Styles.Each(func(prop, val string) {
			props = append(props, prop+"="+val)
		})
		hints := fmt.Sprintf("category=%s specificity=%d frequency=%d", f.Category, f.Specificity, f.Frequency)
		if f.Interactive {
			hints += " interactive"
		}
		out = append(out, Fact{
			ID:    f.Selector,
			Label: f.Selector + " " + strings.Join(props, " "),
			Color: headlineColor(f.Styles),
			Hints: hints,
		})
	}
	return out
}

func headlineColor(st analyze.SelectorStyles) string {
	switch {
	case st.BackgroundColor != "":
		return st.BackgroundColor
	case st.Color != "":
		return st.Color
	case st.BorderColor != "":
		return st.BorderColor
	case st.Fill != "":
		return st.Fill
	default:
		return st.Stroke
	}
}
