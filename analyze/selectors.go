package analyze

import (
	"regexp"
	"sort"
	"strings"

	"github.com/andybalholm/cascadia"
)

// Category buckets a selector by the kind of page element it styles.
type Category string

const (
	CategoryButton     Category = "button"
	CategoryLink       Category = "link"
	CategoryCard       Category = "card"
	CategorySidebar    Category = "sidebar"
	CategoryHeader     Category = "header"
	CategoryFooter     Category = "footer"
	CategoryNavigation Category = "navigation"
	CategoryInput      Category = "input"
	CategoryModal      Category = "modal"
	CategoryAlert      Category = "alert"
	CategoryBadge      Category = "badge"
	CategoryTab        Category = "tab"
	CategorySwitch     Category = "switch"
	CategoryDropdown   Category = "dropdown"
	CategoryCode       Category = "code"
	CategoryTable      Category = "table"
	CategoryBackground Category = "background"
	CategoryBorder     Category = "border"
	CategoryIcon       Category = "icon"
	CategoryText       Category = "text"
	CategoryOther      Category = "other"
)

// SelectorStyles holds the color-bearing declarations found for one
// selector. Empty fields mean the property never appeared.
type SelectorStyles struct {
	Color           string `json:"color,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	BorderColor     string `json:"borderColor,omitempty"`
	Fill            string `json:"fill,omitempty"`
	Stroke          string `json:"stroke,omitempty"`
}

// Empty reports whether no color property was captured.
func (s SelectorStyles) Empty() bool {
	return s.Color == "" && s.BackgroundColor == "" && s.BorderColor == "" &&
		s.Fill == "" && s.Stroke == ""
}

// Each calls fn for every captured property with its CSS property name.
func (s SelectorStyles) Each(fn func(property, value string)) {
	if s.Color != "" {
		fn("color", s.Color)
	}
	if s.BackgroundColor != "" {
		fn("background-color", s.BackgroundColor)
	}
	if s.BorderColor != "" {
		fn("border-color", s.BorderColor)
	}
	if s.Fill != "" {
		fn("fill", s.Fill)
	}
	if s.Stroke != "" {
		fn("stroke", s.Stroke)
	}
}

func (s *SelectorStyles) merge(other SelectorStyles) {
	if other.Color != "" {
		s.Color = other.Color
	}
	if other.BackgroundColor != "" {
		s.BackgroundColor = other.BackgroundColor
	}
	if other.BorderColor != "" {
		s.BorderColor = other.BorderColor
	}
	if other.Fill != "" {
		s.Fill = other.Fill
	}
	if other.Stroke != "" {
		s.Stroke = other.Stroke
	}
}

// Selector is one discovered color-bearing selector.
type Selector struct {
	Selector      string         `json:"selector"`
	Category      Category       `json:"category"`
	Specificity   int            `json:"specificity"`
	Frequency     int            `json:"frequency"`
	Interactive   bool           `json:"interactive,omitempty"`
	HasBackground bool           `json:"hasBackground,omitempty"`
	HasBorder     bool           `json:"hasBorder,omitempty"`
	TextOnly      bool           `json:"textOnly,omitempty"`
	Important     bool           `json:"important,omitempty"`
	Styles        SelectorStyles `json:"styles"`
}

// SelectorGroup is all discovered selectors of one category, ordered by
// descending frequency.
type SelectorGroup struct {
	Category  Category   `json:"category"`
	Selectors []Selector `json:"selectors"`
}

type categoryRule struct {
	category Category
	keywords []string
	excluded []string
	tags     []string
}

// categoryRules is checked in order; the first match wins, so compound
// names like .nav-badge-primary land on the earlier category.
var categoryRules = []categoryRule{
	{CategoryButton, []string{"btn", "button", "cta", "submit"}, nil, []string{"button"}},
	{CategoryLink, []string{"link", "anchor"}, nil, []string{"a"}},
	{CategoryCard, []string{"card", "tile", "panel"}, nil, nil},
	{CategorySidebar, []string{"sidebar", "side-bar", "drawer"}, nil, []string{"aside"}},
	{CategoryHeader, []string{"header", "masthead", "topbar", "top-bar"}, nil, []string{"header"}},
	{CategoryFooter, []string{"footer", "bottom-bar"}, nil, []string{"footer"}},
	{CategoryNavigation, []string{"nav", "menu", "breadcrumb"}, nil, []string{"nav"}},
	{CategoryInput, []string{"input", "field", "form-control", "textarea", "checkbox", "radio"}, nil, []string{"input", "textarea", "select", "form", "fieldset"}},
	{CategoryModal, []string{"modal", "dialog", "popup", "lightbox"}, nil, []string{"dialog"}},
	{CategoryAlert, []string{"alert", "toast", "notification", "notice", "warning"}, nil, nil},
	{CategoryBadge, []string{"badge", "chip", "pill", "tag"}, nil, nil},
	// "tab" would swallow every table selector without the exclusion.
	{CategoryTab, []string{"tab"}, []string{"table"}, nil},
	{CategorySwitch, []string{"switch", "toggle"}, nil, nil},
	{CategoryDropdown, []string{"dropdown", "drop-down", "combobox", "popover"}, nil, nil},
	{CategoryCode, []string{"code", "snippet", "syntax", "highlight"}, nil, []string{"code", "pre", "kbd", "samp"}},
	{CategoryTable, []string{"table", "thead", "tbody", "cell"}, nil, []string{"table", "tr", "td", "th", "thead", "tbody"}},
	{CategoryBackground, []string{"background", "wrapper", "container", "hero", "section", "page", "body"}, nil, []string{"body", "html", "main", "section"}},
	{CategoryBorder, []string{"border", "divider", "separator"}, nil, []string{"hr"}},
	{CategoryIcon, []string{"icon", "svg", "glyph", "fa-"}, nil, []string{"svg", "i"}},
	{CategoryText, []string{"text", "title", "heading", "subtitle", "paragraph", "caption", "label", "description"}, nil, []string{"p", "span", "h1", "h2", "h3", "h4", "h5", "h6", "em", "strong", "small", "label", "blockquote"}},
}

// Categories lists the category precedence order, most specific first.
func Categories() []Category {
	out := make([]Category, 0, len(categoryRules)+1)
	for _, r := range categoryRules {
		out = append(out, r.category)
	}
	return append(out, CategoryOther)
}

// Categorize assigns a selector to the first category whose keywords or
// element tags match.
func Categorize(sel string) Category {
	low := strings.ToLower(sel)
	tags := selectorTags(low)
	for _, rule := range categoryRules {
		cleaned := low
		for _, excl := range rule.excluded {
			cleaned = strings.ReplaceAll(cleaned, excl, "")
		}
		matched := false
		for _, kw := range rule.keywords {
			if strings.Contains(cleaned, kw) {
				matched = true
				break
			}
		}
		if !matched {
			for _, tag := range rule.tags {
				if tags[tag] {
					matched = true
					break
				}
			}
		}
		if matched {
			return rule.category
		}
	}
	return CategoryOther
}

// selectorTags collects the bare element names used in a selector.
func selectorTags(low string) map[string]bool {
	tags := map[string]bool{}
	for _, part := range strings.FieldsFunc(low, func(r rune) bool {
		return r == ' ' || r == '>' || r == '+' || r == '~' || r == ','
	}) {
		if part == "" {
			continue
		}
		c := part[0]
		if c == '.' || c == '#' || c == '[' || c == ':' || c == '*' || c == '&' {
			continue
		}
		end := len(part)
		for i := 0; i < len(part); i++ {
			if part[i] == '.' || part[i] == '#' || part[i] == '[' || part[i] == ':' {
				end = i
				break
			}
		}
		if tag := part[:end]; tag != "" {
			tags[tag] = true
		}
	}
	return tags
}

var colorTokenRe = regexp.MustCompile(`(?i)(#[0-9a-f]{3,8}\b|rgba?\([^)]*\)|hsla?\([^)]*\))`)

// extractColorValue normalizes the color carried by a declaration value,
// handling shorthands like "background: #fff no-repeat". Gradient and
// image values are excluded.
func extractColorValue(value string) string {
	low := strings.ToLower(value)
	if strings.Contains(low, "gradient(") || strings.Contains(low, "url(") {
		return ""
	}
	if hex := CSSToHex(value); hex != "" {
		return hex
	}
	if m := colorTokenRe.FindString(value); m != "" {
		return CSSToHex(m)
	}
	for _, f := range strings.Fields(low) {
		if _, ok := namedColors[f]; ok {
			return CSSToHex(f)
		}
	}
	return ""
}

// selectorSpecificity scores ids*100 + (classes, attributes,
// pseudo-classes)*10 + elements*1.
func selectorSpecificity(sel string) int {
	if parsed, err := cascadia.Parse(sel); err == nil {
		sp := parsed.Specificity()
		return sp[0]*100 + sp[1]*10 + sp[2]
	}
	return manualSpecificity(sel)
}

func manualSpecificity(sel string) int {
	ids := strings.Count(sel, "#")
	classes := strings.Count(sel, ".") + strings.Count(sel, "[")
	colons := strings.Count(sel, ":") - 2*strings.Count(sel, "::")
	if colons > 0 {
		classes += colons
	}
	elements := len(selectorTags(strings.ToLower(sel)))
	return ids*100 + classes*10 + elements
}

// skipSelector rejects pseudo-element and at-rule remnants.
func skipSelector(sel string) bool {
	if sel == "" || strings.HasPrefix(sel, "@") {
		return true
	}
	if strings.Contains(sel, "::") {
		return true
	}
	low := strings.ToLower(sel)
	// legacy single-colon pseudo-element syntax
	for _, pe := range []string{":before", ":after", ":first-line", ":first-letter"} {
		if strings.Contains(low, pe) {
			return true
		}
	}
	if parsed, err := cascadia.Parse(sel); err == nil && parsed.PseudoElement() != "" {
		return true
	}
	return false
}

var interactivePseudoRe = regexp.MustCompile(`(?i):(hover|focus|active|focus-visible|focus-within)\b`)

// DiscoverSelectors parses the stylesheet into color-bearing selector
// facts, merges duplicates, weighs frequency against the document markup
// and groups the result by category.
func DiscoverSelectors(htmlText, cssText string) []SelectorGroup {
	blocks := parseRuleBlocks(cssText)
	if len(blocks) == 0 {
		return nil
	}
	lowHTML := strings.ToLower(htmlText)

	facts := map[string]*Selector{}
	cssCount := map[string]int{}
	var order []string

	for _, blk := range blocks {
		styles, important, pointer := blockColorStyles(blk)
		if styles.Empty() {
			continue
		}
		for _, sel := range blk.selectors {
			if skipSelector(sel) {
				continue
			}
			cssCount[sel]++
			f, ok := facts[sel]
			if !ok {
				f = &Selector{
					Selector:    sel,
					Category:    Categorize(sel),
					Specificity: selectorSpecificity(sel),
				}
				facts[sel] = f
				order = append(order, sel)
			}
			f.Styles.merge(styles)
			f.Important = f.Important || important
			if pointer || interactivePseudoRe.MatchString(sel) {
				f.Interactive = true
			}
		}
	}

	grouped := map[Category][]Selector{}
	for _, sel := range order {
		f := facts[sel]
		if f.Styles.Empty() {
			continue
		}
		f.HasBackground = f.Styles.BackgroundColor != ""
		f.HasBorder = f.Styles.BorderColor != ""
		f.TextOnly = f.Styles.Color != "" && !f.HasBackground && !f.HasBorder &&
			f.Styles.Fill == "" && f.Styles.Stroke == ""
		f.Frequency = cssCount[sel]
		if dom := domFrequency(lowHTML, sel); dom > f.Frequency {
			f.Frequency = dom
		}
		grouped[f.Category] = append(grouped[f.Category], *f)
	}

	var out []SelectorGroup
	for _, cat := range Categories() {
		sels := grouped[cat]
		if len(sels) == 0 {
			continue
		}
		sort.SliceStable(sels, func(i, j int) bool {
			if sels[i].Frequency != sels[j].Frequency {
				return sels[i].Frequency > sels[j].Frequency
			}
			if sels[i].Specificity != sels[j].Specificity {
				return sels[i].Specificity > sels[j].Specificity
			}
			return sels[i].Selector < sels[j].Selector
		})
		out = append(out, SelectorGroup{Category: cat, Selectors: sels})
	}
	return out
}

// ColorBearing flattens the groups in category order, dropping any fact
// with no captured color property. Uncolored selectors carry no mapping
// signal.
func ColorBearing(groups []SelectorGroup) []Selector {
	var out []Selector
	for _, g := range groups {
		for _, f := range g.Selectors {
			if f.Styles.Empty() {
				continue
			}
			out = append(out, f)
		}
	}
	return out
}

// blockColorStyles pulls the five tracked color properties out of a rule
// body. Later declarations win.
func blockColorStyles(blk ruleBlock) (styles SelectorStyles, important, pointer bool) {
	for _, d := range blk.decls {
		switch d.property {
		case "color":
			if v := extractColorValue(d.value); v != "" {
				styles.Color = v
				important = important || d.important
			}
		case "background-color", "background":
			if v := extractColorValue(d.value); v != "" {
				styles.BackgroundColor = v
				important = important || d.important
			}
		case "border-color", "border", "border-top", "border-bottom", "border-left", "border-right":
			if v := extractColorValue(d.value); v != "" {
				styles.BorderColor = v
				important = important || d.important
			}
		case "fill":
			if v := extractColorValue(d.value); v != "" {
				styles.Fill = v
				important = important || d.important
			}
		case "stroke":
			if v := extractColorValue(d.value); v != "" {
				styles.Stroke = v
				important = important || d.important
			}
		case "cursor":
			if strings.Contains(strings.ToLower(d.value), "pointer") {
				pointer = true
			}
		}
	}
	return styles, important, pointer
}

// domFrequency counts literal occurrences of the selector's key token in
// the markup, so widely used classes outrank one-off rules even when the
// stylesheet mentions both once.
func domFrequency(lowHTML, sel string) int {
	if lowHTML == "" {
		return 0
	}
	key := keySimpleSelector(sel)
	if key == "" {
		return 0
	}
	switch key[0] {
	case '.':
		return countWord(lowHTML, key[1:])
	case '#':
		return countWord(lowHTML, key[1:])
	default:
		return strings.Count(lowHTML, "<"+key+" ") + strings.Count(lowHTML, "<"+key+">")
	}
}

// keySimpleSelector reduces a selector to the most identifying token of
// its rightmost compound: id, then first class, then tag.
func keySimpleSelector(sel string) string {
	parts := strings.FieldsFunc(sel, func(r rune) bool {
		return r == ' ' || r == '>' || r == '+' || r == '~'
	})
	if len(parts) == 0 {
		return ""
	}
	last := parts[len(parts)-1]
	if i := strings.Index(last, "::"); i >= 0 {
		last = last[:i]
	}
	if i := strings.IndexByte(last, ':'); i >= 0 {
		last = last[:i]
	}
	if last == "" {
		return ""
	}
	if i := strings.IndexByte(last, '#'); i >= 0 {
		rest := last[i+1:]
		if j := strings.IndexAny(rest, ".["); j >= 0 {
			rest = rest[:j]
		}
		if rest != "" {
			return "#" + rest
		}
	}
	if i := strings.IndexByte(last, '.'); i >= 0 {
		rest := last[i+1:]
		if j := strings.IndexAny(rest, ".#["); j >= 0 {
			rest = rest[:j]
		}
		if rest != "" {
			return "." + rest
		}
	}
	if i := strings.IndexAny(last, ".#["); i >= 0 {
		last = last[:i]
	}
	return strings.ToLower(last)
}

// countWord counts occurrences of token bounded by non-identifier
// characters.
func countWord(text, token string) int {
	if token == "" {
		return 0
	}
	token = strings.ToLower(token)
	isIdent := func(c byte) bool {
		return c == '-' || c == '_' || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
	}
	count := 0
	for i := 0; ; {
		j := strings.Index(text[i:], token)
		if j < 0 {
			break
		}
		pos := i + j
		end := pos + len(token)
		leftOK := pos == 0 || !isIdent(text[pos-1])
		rightOK := end >= len(text) || !isIdent(text[end])
		if leftOK && rightOK {
			count++
		}
		i = pos + len(token)
	}
	return count
}
