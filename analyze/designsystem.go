package analyze

import "strings"

// Framework identifies the component library a page appears to be built
// with.
type Framework string

const (
	FrameworkMaterial  Framework = "material"
	FrameworkBootstrap Framework = "bootstrap"
	FrameworkTailwind  Framework = "tailwind"
	FrameworkAntDesign Framework = "antd"
	FrameworkChakra    Framework = "chakra"
	FrameworkCustom    Framework = "custom"
	FrameworkUnknown   Framework = "unknown"
)

// ThemeToggle describes how the page switches color modes.
type ThemeToggle struct {
	Kind     string `json:"kind"` // "class" or "attribute"
	Selector string `json:"selector"`
	Value    string `json:"value,omitempty"`
}

// DesignSystem is the detector verdict with its supporting prefixes and
// any framework color tokens found among the page variables.
type DesignSystem struct {
	Framework  Framework         `json:"framework"`
	Confidence float64           `json:"confidence"`
	Prefixes   []string          `json:"prefixes,omitempty"`
	Tokens     map[string]string `json:"tokens,omitempty"`
	Toggle     *ThemeToggle      `json:"toggle,omitempty"`
}

type frameworkSignals struct {
	framework     Framework
	classPrefixes []string
	varPrefixes   []string
	markers       []string
	toggle        *ThemeToggle
}

var knownFrameworks = []frameworkSignals{
	{
		framework:     FrameworkMaterial,
		classPrefixes: []string{"mdc-", "mat-", "md-"},
		varPrefixes:   []string{"--mdc-", "--mat-", "--md-sys-"},
		markers:       []string{"material-icons", "--mdc-theme", "material.io"},
		toggle:        &ThemeToggle{Kind: "class", Selector: ".mdc-theme--dark"},
	},
	{
		framework:     FrameworkBootstrap,
		classPrefixes: []string{"btn-", "navbar-", "col-", "bs-"},
		varPrefixes:   []string{"--bs-"},
		markers:       []string{"bootstrap", ".btn-primary"},
		toggle:        &ThemeToggle{Kind: "attribute", Selector: "data-bs-theme", Value: "dark"},
	},
	{
		framework:     FrameworkTailwind,
		classPrefixes: []string{"tw-", "bg-", "text-", "hover:", "md:", "lg:"},
		varPrefixes:   []string{"--tw-"},
		markers:       []string{"tailwindcss", "--tw-ring", "@tailwind"},
		toggle:        &ThemeToggle{Kind: "class", Selector: ".dark"},
	},
	{
		framework:     FrameworkAntDesign,
		classPrefixes: []string{"ant-"},
		varPrefixes:   []string{"--ant-"},
		markers:       []string{"ant-design", "antd"},
		toggle:        &ThemeToggle{Kind: "attribute", Selector: "data-theme", Value: "dark"},
	},
	{
		framework:     FrameworkChakra,
		classPrefixes: []string{"chakra-", "css-"},
		varPrefixes:   []string{"--chakra-"},
		markers:       []string{"chakra-ui"},
		toggle:        &ThemeToggle{Kind: "class", Selector: ".chakra-ui-dark"},
	},
}

// customPrefixMinHits is how many variables must share a prefix before the
// page counts as a custom design system.
const customPrefixMinHits = 3

// frameworkThreshold is the score below which a framework candidate is
// discarded entirely.
const frameworkThreshold = 0.3

// DetectDesignSystem scores the known frameworks against class usage,
// variable prefixes and stylesheet markers, falling back to the dominant
// custom variable prefix when nothing known matches.
func DetectDesignSystem(htmlText, cssText string, vars []Variable) DesignSystem {
	lowHTML := strings.ToLower(htmlText)
	lowCSS := strings.ToLower(cssText)

	best := DesignSystem{Framework: FrameworkUnknown}
	bestScore := 0.0
	for _, fw := range knownFrameworks {
		score := scoreFramework(fw, lowHTML, lowCSS, vars)
		if score > bestScore {
			bestScore = score
			best = DesignSystem{
				Framework:  fw.framework,
				Confidence: score,
				Prefixes:   append([]string(nil), fw.varPrefixes...),
				Tokens:     frameworkTokens(vars, fw.varPrefixes),
			}
		}
	}

	if bestScore < frameworkThreshold {
		best = customFallback(vars)
	}
	best.Toggle = detectToggle(best.Framework, lowHTML, lowCSS)
	return best
}

func scoreFramework(fw frameworkSignals, lowHTML, lowCSS string, vars []Variable) float64 {
	score := 0.0

	classHits := 0
	for _, p := range fw.classPrefixes {
		classHits += countClassPrefix(lowHTML, p)
	}
	switch {
	case classHits >= 5:
		score += 0.4
	case classHits >= 1:
		score += 0.2
	}

	varHits := 0
	for _, v := range vars {
		for _, p := range fw.varPrefixes {
			if strings.HasPrefix(v.Name, p) {
				varHits++
				break
			}
		}
	}
	switch {
	case varHits >= 3:
		score += 0.4
	case varHits >= 1:
		score += 0.25
	}

	for _, m := range fw.markers {
		if strings.Contains(lowCSS, m) || strings.Contains(lowHTML, m) {
			score += 0.2
			break
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// countClassPrefix counts prefix occurrences that start a class token, so
// "btn-" does not fire on "my-btn-ish" markup text.
func countClassPrefix(lowHTML, prefix string) int {
	count := 0
	for i := 0; ; {
		j := strings.Index(lowHTML[i:], prefix)
		if j < 0 {
			break
		}
		pos := i + j
		if pos == 0 {
			count++
		} else {
			switch lowHTML[pos-1] {
			case ' ', '"', '\'', '.', '\t', '\n':
				count++
			}
		}
		i = pos + len(prefix)
	}
	return count
}

func frameworkTokens(vars []Variable, prefixes []string) map[string]string {
	tokens := map[string]string{}
	for _, v := range vars {
		if v.ComputedValue == "" {
			continue
		}
		for _, p := range prefixes {
			if strings.HasPrefix(v.Name, p) {
				tokens[v.Name] = v.ComputedValue
				break
			}
		}
	}
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

// customFallback looks for the most frequent two- or three-segment custom
// property prefix, e.g. --ds-color-* across --ds-color-primary and
// --ds-color-bg.
func customFallback(vars []Variable) DesignSystem {
	counts := map[string]int{}
	for _, v := range vars {
		name := strings.TrimPrefix(v.Name, "--")
		segs := strings.Split(name, "-")
		if len(segs) >= 3 {
			counts["--"+segs[0]+"-"+segs[1]] += 1
		}
		if len(segs) >= 4 {
			counts["--"+segs[0]+"-"+segs[1]+"-"+segs[2]] += 1
		}
	}
	bestPrefix := ""
	bestCount := 0
	for p, c := range counts {
		if c > bestCount || (c == bestCount && p < bestPrefix) {
			bestPrefix, bestCount = p, c
		}
	}
	if bestCount < customPrefixMinHits {
		return DesignSystem{Framework: FrameworkUnknown, Confidence: 0}
	}
	return DesignSystem{
		Framework:  FrameworkCustom,
		Confidence: 0.5,
		Prefixes:   []string{bestPrefix + "-"},
		Tokens:     frameworkTokens(vars, []string{bestPrefix + "-"}),
	}
}

var genericToggles = []ThemeToggle{
	{Kind: "class", Selector: ".dark"},
	{Kind: "class", Selector: ".dark-theme"},
	{Kind: "class", Selector: ".dark-mode"},
	{Kind: "class", Selector: ".theme-dark"},
	{Kind: "attribute", Selector: "data-theme", Value: "dark"},
	{Kind: "attribute", Selector: "data-color-scheme", Value: "dark"},
}

func detectToggle(fw Framework, lowHTML, lowCSS string) *ThemeToggle {
	var candidates []ThemeToggle
	for _, known := range knownFrameworks {
		if known.framework == fw && known.toggle != nil {
			candidates = append(candidates, *known.toggle)
		}
	}
	candidates = append(candidates, genericToggles...)
	for _, c := range candidates {
		if togglePresent(c, lowHTML, lowCSS) {
			out := c
			return &out
		}
	}
	return nil
}

func togglePresent(t ThemeToggle, lowHTML, lowCSS string) bool {
	if t.Kind == "class" {
		name := strings.TrimPrefix(t.Selector, ".")
		for _, suffix := range []string{" ", "{", ",", ".", ":"} {
			if strings.Contains(lowCSS, t.Selector+suffix) {
				return true
			}
		}
		if strings.HasSuffix(strings.TrimSpace(lowCSS), t.Selector) {
			return true
		}
		if strings.Contains(lowHTML, `class="`+name+`"`) || strings.Contains(lowHTML, `class='`+name+`'`) {
			return true
		}
		return false
	}
	return strings.Contains(lowHTML, t.Selector+"=") || strings.Contains(lowCSS, "["+t.Selector)
}
