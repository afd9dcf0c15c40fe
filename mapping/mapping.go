package mapping

import (
	"context"
	"fmt"

	"tinta/analyze"
	"tinta/palette"
)

// Kind names one class of color fact the mapper handles.
type Kind string

const (
	KindVariables Kind = "variables"
	KindSVGs      Kind = "svgs"
	KindSelectors Kind = "selectors"
)

// AccentRole places an accent-bearing selector in the main/secondary/
// tertiary hierarchy.
type AccentRole string

const (
	RoleNone      AccentRole = ""
	RoleMain      AccentRole = "main"
	RoleSecondary AccentRole = "secondary"
	RoleTertiary  AccentRole = "tertiary"
)

// Gradient describes a synthesized hover gradient between two accents.
type Gradient struct {
	Angle   int           `json:"angle"`
	From    palette.Token `json:"from"`
	To      palette.Token `json:"to"`
	Opacity float64       `json:"opacity"`
}

// VariableMapping assigns one custom property to a palette token.
type VariableMapping struct {
	Name          string        `json:"name"`
	SourceValue   string        `json:"sourceValue,omitempty"`
	Token         palette.Token `json:"token"`
	Justification string        `json:"justification,omitempty"`
}

// SVGMapping assigns one color reference of one vector icon to a token.
// SVGIndex points back at the snapshot's SVG list.
type SVGMapping struct {
	SVGIndex      int           `json:"svgIndex"`
	Selector      string        `json:"selector,omitempty"`
	Attr          string        `json:"attr"`
	SourceColor   string        `json:"sourceColor"`
	Token         palette.Token `json:"token"`
	Justification string        `json:"justification,omitempty"`
}

// PropertyTokens mirrors the five tracked color properties with their
// assigned tokens. Empty fields were not present on the source selector.
type PropertyTokens struct {
	Color           palette.Token `json:"color,omitempty"`
	BackgroundColor palette.Token `json:"backgroundColor,omitempty"`
	BorderColor     palette.Token `json:"borderColor,omitempty"`
	Fill            palette.Token `json:"fill,omitempty"`
	Stroke          palette.Token `json:"stroke,omitempty"`
}

// Each calls fn for every assigned property token.
func (p PropertyTokens) Each(fn func(property string, token palette.Token)) {
	if p.Color != "" {
		fn("color", p.Color)
	}
	if p.BackgroundColor != "" {
		fn("background-color", p.BackgroundColor)
	}
	if p.BorderColor != "" {
		fn("border-color", p.BorderColor)
	}
	if p.Fill != "" {
		fn("fill", p.Fill)
	}
	if p.Stroke != "" {
		fn("stroke", p.Stroke)
	}
}

// SelectorMapping assigns a discovered selector's color properties to
// palette tokens. Token is the headline assignment used by fallback
// rules; Properties carries the full per-property set.
type SelectorMapping struct {
	Selector      string           `json:"selector"`
	Category      analyze.Category `json:"category"`
	Token         palette.Token    `json:"token"`
	Properties    PropertyTokens   `json:"properties"`
	Important     bool             `json:"important,omitempty"`
	AccentRole    AccentRole       `json:"accentRole,omitempty"`
	AccentProp    string           `json:"accentProp,omitempty"`
	Gradient      *Gradient        `json:"gradient,omitempty"`
	Justification string           `json:"justification,omitempty"`
}

// KindStats counts mapping outcomes for one fact kind. Skipped counts
// facts dropped by the selector cap, never silent losses.
type KindStats struct {
	Mapped  int `json:"mapped"`
	Total   int `json:"total"`
	Skipped int `json:"skipped,omitempty"`
}

// RoleStats is the realized accent-role distribution. The 60/20/20 split
// is a target, not an enforced ratio.
type RoleStats struct {
	Main      int `json:"main"`
	Secondary int `json:"secondary"`
	Tertiary  int `json:"tertiary"`
}

// Stats aggregates per-kind coverage and accent usage for one result.
type Stats struct {
	Variables KindStats `json:"variables"`
	SVGs      KindStats `json:"svgs"`
	Selectors KindStats `json:"selectors"`
	Roles     RoleStats `json:"roles"`
}

// Result is the full mapping produced from one snapshot. Created once,
// read by the generator and validator, never mutated.
type Result struct {
	Flavor    palette.Flavor      `json:"flavor"`
	Accent    palette.Token       `json:"accent"`
	BiAccents [2]palette.Token    `json:"biAccents"`
	Scheme    analyze.ColorScheme `json:"scheme"`
	Variables []VariableMapping   `json:"variables,omitempty"`
	SVGs      []SVGMapping        `json:"svgs,omitempty"`
	Selectors []SelectorMapping   `json:"selectors,omitempty"`
	Stats     Stats               `json:"stats"`
}

// DefaultMaxSelectors caps how many selector facts one run maps.
const DefaultMaxSelectors = 120

// Options tunes one mapping run. The zero value maps every kind with
// heuristics only.
type Options struct {
	Flavor palette.Flavor
	Accent palette.Token

	SkipVariables bool
	SkipSVGs      bool
	SkipSelectors bool

	// Classifier, when set, is consulted for the kinds whose Classify
	// toggle is on. Failures fall back to the heuristic per fact.
	Classifier        Classifier
	ClassifyVariables bool
	ClassifySVGs      bool
	ClassifySelectors bool

	// Prompts overrides the builtin classifier prompt configuration.
	Prompts *PromptConfig

	// MaxSelectors caps selector facts; 0 means DefaultMaxSelectors.
	MaxSelectors int
}

func (o Options) normalized() Options {
	if o.Flavor == "" {
		o.Flavor = palette.DefaultFlavor
	}
	if !o.Accent.IsAccent() {
		o.Accent = palette.DefaultAccent
	}
	if o.MaxSelectors <= 0 {
		o.MaxSelectors = DefaultMaxSelectors
	}
	return o
}

// Map assigns every enabled color fact in the snapshot to a palette
// token. It never fails: classifier errors and malformed facts degrade
// to the deterministic heuristic.
func Map(ctx context.Context, snap *analyze.Snapshot, opts Options) *Result {
	opts = opts.normalized()
	bi1, bi2 := palette.BiAccents(opts.Accent)

	res := &Result{
		Flavor:    opts.Flavor,
		Accent:    opts.Accent,
		BiAccents: [2]palette.Token{bi1, bi2},
	}
	if snap == nil {
		return res
	}
	res.Scheme = snap.Scheme

	h := newHeuristic(opts.Flavor, opts.Accent, snap)
	summary := contextSummary(snap)

	if !opts.SkipVariables {
		res.Variables = mapVariables(ctx, snap, opts, h, summary)
		res.Stats.Variables = KindStats{Mapped: len(res.Variables), Total: len(snap.Variables)}
	}
	if !opts.SkipSVGs {
		var total int
		res.SVGs, total = mapSVGs(ctx, snap, opts, h, summary)
		res.Stats.SVGs = KindStats{Mapped: len(res.SVGs), Total: total}
	}
	if !opts.SkipSelectors {
		facts := analyze.ColorBearing(snap.Selectors)
		skipped := 0
		if len(facts) > opts.MaxSelectors {
			skipped = len(facts) - opts.MaxSelectors
			facts = facts[:opts.MaxSelectors]
		}
		res.Selectors = mapSelectors(ctx, facts, opts, h, summary)
		res.Stats.Selectors = KindStats{Mapped: len(res.Selectors), Total: len(facts), Skipped: skipped}
		for _, m := range res.Selectors {
			switch m.AccentRole {
			case RoleMain:
				res.Stats.Roles.Main++
			case RoleSecondary:
				res.Stats.Roles.Secondary++
			case RoleTertiary:
				res.Stats.Roles.Tertiary++
			}
		}
	}
	return res
}

func mapVariables(ctx context.Context, snap *analyze.Snapshot, opts Options, h *heuristic, summary string) []VariableMapping {
	if len(snap.Variables) == 0 {
		return nil
	}
	assigned := classify(ctx, opts, KindVariables, summary, variableFacts(snap))

	out := make([]VariableMapping, 0, len(snap.Variables))
	for _, v := range snap.Variables {
		m := VariableMapping{Name: v.Name, SourceValue: v.ComputedValue}
		if a, ok := assigned[v.Name]; ok {
			m.Token, m.Justification = a.token, a.justification
		} else {
			m.Token, m.Justification = h.variableToken(v)
		}
		out = append(out, m)
	}
	return out
}

func mapSVGs(ctx context.Context, snap *analyze.Snapshot, opts Options, h *heuristic, summary string) ([]SVGMapping, int) {
	total := 0
	for _, s := range snap.SVGs {
		total += len(s.Colors)
	}
	if total == 0 {
		return nil, 0
	}
	assigned := classify(ctx, opts, KindSVGs, summary, svgFacts(snap))

	out := make([]SVGMapping, 0, total)
	for i, s := range snap.SVGs {
		for _, c := range s.Colors {
			m := SVGMapping{
				SVGIndex:    i,
				Selector:    s.Selector,
				Attr:        c.Attr,
				SourceColor: c.Value,
			}
			if a, ok := assigned[svgFactID(i, c)]; ok {
				m.Token, m.Justification = a.token, a.justification
			} else {
				m.Token, m.Justification = h.svgToken(s, c)
			}
			out = append(out, m)
		}
	}
	return out, total
}

func mapSelectors(ctx context.Context, facts []analyze.Selector, opts Options, h *heuristic, summary string) []SelectorMapping {
	if len(facts) == 0 {
		return nil
	}
	assigned := classify(ctx, opts, KindSelectors, summary, selectorFacts(facts))

	out := make([]SelectorMapping, 0, len(facts))
	cycle := 0
	for _, f := range facts {
		m := h.selectorMapping(f, &cycle)
		if a, ok := assigned[f.Selector]; ok {
			// The classifier picks the headline token; the accent role
			// and gradient follow it.
			m.Token = a.token
			m.Justification = a.justification
			h.applyHeadline(&m, f)
		}
		out = append(out, m)
	}
	return out
}

func svgFactID(index int, c analyze.SVGColorRef) string {
	return fmt.Sprintf("svg%d:%s:%s", index, c.Attr, c.Value)
}
