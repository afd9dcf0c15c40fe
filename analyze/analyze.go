package analyze

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// ColorScheme is the page's apparent base mode.
type ColorScheme string

const (
	SchemeDark  ColorScheme = "dark"
	SchemeLight ColorScheme = "light"
)

// Counts summarizes how many facts each extractor produced.
type Counts struct {
	Variables int `json:"variables"`
	SVGs      int `json:"svgs"`
	Selectors int `json:"selectors"`
}

// Snapshot is the immutable result of analyzing one fetched page. Later
// pipeline stages read it; none of them write it back.
type Snapshot struct {
	URL       string          `json:"url,omitempty"`
	Scheme    ColorScheme     `json:"scheme"`
	Variables []Variable      `json:"variables,omitempty"`
	SVGs      []SVG           `json:"svgs,omitempty"`
	Selectors []SelectorGroup `json:"selectors,omitempty"`
	Design    DesignSystem    `json:"design"`
	Dominant  []string        `json:"dominant,omitempty"`
	Accents   []string        `json:"accents,omitempty"`
	Counts    Counts          `json:"counts"`
	FetchedAt time.Time       `json:"fetchedAt"`
}

// Options tunes a single analysis run.
type Options struct {
	// URL is recorded on the snapshot for scoping and cache keys.
	URL string
	// BrandingColors are externally sourced hints (page icons, favicons)
	// prepended to the extracted dominant and accent colors.
	BrandingColors []string
	// Now is the clock used to stamp the snapshot. Defaults to time.Now.
	Now func() time.Time
}

const (
	maxDominantColors = 5
	maxAccentColors   = 6
)

// Analyze runs every extractor over the fetched markup and stylesheet
// text and aggregates the facts into one snapshot. Extractors never fail;
// a page with nothing to find produces an empty snapshot.
func Analyze(htmlText, cssText string, opts Options) *Snapshot {
	doc := parseHTML(htmlText)

	vars := ExtractVariables(doc, cssText)
	svgs := ExtractSVGs(htmlText, cssText)
	groups := DiscoverSelectors(htmlText, cssText)
	design := DetectDesignSystem(htmlText, cssText, vars)

	selectorCount := 0
	for _, g := range groups {
		selectorCount += len(g.Selectors)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	snap := &Snapshot{
		URL:       opts.URL,
		Variables: vars,
		SVGs:      svgs,
		Selectors: groups,
		Design:    design,
		Counts:    Counts{Variables: len(vars), SVGs: len(svgs), Selectors: selectorCount},
		FetchedAt: now(),
	}
	snap.Scheme = detectScheme(doc, groups, vars)
	snap.Dominant, snap.Accents = rankColors(snap, opts.BrandingColors)
	return snap
}

// detectScheme decides dark or light from, in order: an explicit
// color-scheme meta tag, the theme-color meta tag, the page background,
// and finally a frequency-weighted tally of every captured color.
func detectScheme(doc *html.Node, groups []SelectorGroup, vars []Variable) ColorScheme {
	if doc != nil {
		explicit, themeColor := schemeMetaSignals(doc)
		switch explicit {
		case "dark":
			return SchemeDark
		case "light":
			return SchemeLight
		}
		if themeColor != "" {
			if IsDark(themeColor) {
				return SchemeDark
			}
			return SchemeLight
		}
	}

	if bg := pageBackground(groups, vars); bg != "" {
		if IsDark(bg) {
			return SchemeDark
		}
		return SchemeLight
	}

	darkWeight, lightWeight := 0, 0
	tally := func(v string, weight int) {
		if v == "" {
			return
		}
		switch l := Luminance(v); {
		case l < 0.25:
			darkWeight += weight
		case l > 0.55:
			lightWeight += weight
		}
	}
	for _, g := range groups {
		for _, s := range g.Selectors {
			w := s.Frequency
			if w < 1 {
				w = 1
			}
			tally(s.Styles.BackgroundColor, w)
		}
	}
	for _, v := range vars {
		tally(v.ComputedValue, v.Frequency+1)
	}
	if lightWeight > darkWeight {
		return SchemeLight
	}
	return SchemeDark
}

func schemeMetaSignals(doc *html.Node) (explicit, themeColor string) {
	walkNodes(doc, func(n *html.Node) {
		if n.Type != html.ElementNode || !strings.EqualFold(n.Data, "meta") {
			return
		}
		name := strings.ToLower(getAttr(n, "name"))
		content := strings.ToLower(strings.TrimSpace(getAttr(n, "content")))
		switch name {
		case "color-scheme":
			if explicit != "" {
				return
			}
			hasDark := strings.Contains(content, "dark")
			hasLight := strings.Contains(content, "light")
			switch {
			case hasDark && !hasLight:
				explicit = "dark"
			case hasLight && !hasDark:
				explicit = "light"
			case hasDark && hasLight:
				// "dark light" declares dark-first preference
				if strings.Index(content, "dark") < strings.Index(content, "light") {
					explicit = "dark"
				} else {
					explicit = "light"
				}
			}
		case "theme-color":
			if themeColor == "" {
				themeColor = content
			}
		}
	})
	return explicit, themeColor
}

// pageBackground finds the background color declared on the page root.
func pageBackground(groups []SelectorGroup, vars []Variable) string {
	candidates := map[string]int{"body": 0, "html": 1, ":root": 2}
	best := ""
	bestRank := len(candidates) + 1
	for _, g := range groups {
		for _, s := range g.Selectors {
			rank, ok := candidates[strings.ToLower(strings.TrimSpace(s.Selector))]
			if !ok || s.Styles.BackgroundColor == "" {
				continue
			}
			if rank < bestRank {
				best, bestRank = s.Styles.BackgroundColor, rank
			}
		}
	}
	if best != "" {
		return best
	}
	for _, v := range vars {
		low := strings.ToLower(v.Name)
		if v.ComputedValue == "" || v.Scope != ScopeRoot {
			continue
		}
		if strings.Contains(low, "background") || strings.HasSuffix(low, "-bg") || strings.Contains(low, "-bg-") {
			return v.ComputedValue
		}
	}
	return ""
}

// rankColors tallies every captured color by frequency and returns the
// dominant set plus the saturated accent candidates, with any branding
// hints in front.
func rankColors(snap *Snapshot, branding []string) (dominant, accents []string) {
	weights := map[string]int{}
	bump := func(v string, w int) {
		if v == "" {
			return
		}
		if w < 1 {
			w = 1
		}
		weights[v] += w
	}
	for _, g := range snap.Selectors {
		for _, s := range g.Selectors {
			for _, v := range []string{s.Styles.Color, s.Styles.BackgroundColor, s.Styles.BorderColor, s.Styles.Fill, s.Styles.Stroke} {
				bump(v, s.Frequency)
			}
		}
	}
	for _, s := range snap.SVGs {
		for _, c := range s.Colors {
			bump(c.Value, 1)
		}
	}
	for _, v := range snap.Variables {
		bump(v.ComputedValue, v.Frequency+1)
	}

	type entry struct {
		hex    string
		weight int
	}
	ranked := make([]entry, 0, len(weights))
	for hex, w := range weights {
		ranked = append(ranked, entry{hex, w})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].weight != ranked[j].weight {
			return ranked[i].weight > ranked[j].weight
		}
		return ranked[i].hex < ranked[j].hex
	})

	seenDom := map[string]struct{}{}
	seenAcc := map[string]struct{}{}
	for _, b := range branding {
		hex := CSSToHex(b)
		if hex == "" {
			continue
		}
		if _, dup := seenDom[hex]; dup {
			continue
		}
		seenDom[hex] = struct{}{}
		dominant = append(dominant, hex)
		if !IsGrayish(hex) {
			seenAcc[hex] = struct{}{}
			accents = append(accents, hex)
		}
	}
	for _, e := range ranked {
		if _, dup := seenDom[e.hex]; !dup && len(dominant) < maxDominantColors {
			seenDom[e.hex] = struct{}{}
			dominant = append(dominant, e.hex)
		}
		if _, dup := seenAcc[e.hex]; !dup && !IsGrayish(e.hex) && len(accents) < maxAccentColors {
			seenAcc[e.hex] = struct{}{}
			accents = append(accents, e.hex)
		}
	}
	return dominant, accents
}
