package mapping

import (
	"fmt"
	"math"
	"strings"

	"tinta/analyze"
	"tinta/palette"
)

// accentMatchDistance is the RGB distance under which a source color is
// treated as the same accent.
const accentMatchDistance = 90.0

// hoverGradientAngle is used for every synthesized hover gradient.
const hoverGradientAngle = 135

// accentHints bias a named fact toward the session accent family.
var accentHints = []string{
	"primary", "accent", "link", "button", "btn", "active",
	"hover", "focus", "highlight", "brand",
}

func hasAccentHint(s string) bool {
	low := strings.ToLower(s)
	for _, hint := range accentHints {
		if strings.Contains(low, hint) {
			return true
		}
	}
	return false
}

// roleCycle realizes the 60/20/20 main/secondary/tertiary target for
// accent-bearing facts that do not color-match a concrete accent.
var roleCycle = [5]AccentRole{RoleMain, RoleMain, RoleMain, RoleSecondary, RoleTertiary}

type luminanceTier struct {
	max   float64
	token palette.Token
}

// darkTiers bucket source colors on dark pages, darkest first.
var darkTiers = []luminanceTier{
	{0.02, palette.Crust},
	{0.045, palette.Mantle},
	{0.09, palette.Base},
	{0.15, palette.Surface0},
	{0.22, palette.Surface1},
	{0.30, palette.Surface2},
	{0.40, palette.Overlay0},
	{0.50, palette.Overlay1},
	{0.60, palette.Overlay2},
	{0.72, palette.Subtext0},
	{0.85, palette.Subtext1},
	{math.Inf(1), palette.Text},
}

// lightTiers invert the polarity: near-white backgrounds land on base,
// near-black text on text.
var lightTiers = []luminanceTier{
	{0.10, palette.Text},
	{0.20, palette.Subtext1},
	{0.30, palette.Subtext0},
	{0.40, palette.Overlay2},
	{0.50, palette.Overlay1},
	{0.60, palette.Overlay0},
	{0.70, palette.Surface2},
	{0.80, palette.Surface1},
	{0.88, palette.Surface0},
	{0.93, palette.Crust},
	{0.97, palette.Mantle},
	{math.Inf(1), palette.Base},
}

type wheelEntry struct {
	token palette.Token
	hex   string
	hue   float64
}

// heuristic is the deterministic fallback mapper for one run.
type heuristic struct {
	flavor   palette.Flavor
	accent   palette.Token
	bi       [2]palette.Token
	scheme   analyze.ColorScheme
	dominant string
	wheel    []wheelEntry
	family   [3]wheelEntry
}

func newHeuristic(flavor palette.Flavor, accent palette.Token, snap *analyze.Snapshot) *heuristic {
	bi1, bi2 := palette.BiAccents(accent)
	h := &heuristic{
		flavor: flavor,
		accent: accent,
		bi:     [2]palette.Token{bi1, bi2},
		scheme: analyze.SchemeDark,
	}
	if snap != nil {
		if snap.Scheme != "" {
			h.scheme = snap.Scheme
		}
		if len(snap.Dominant) > 0 {
			h.dominant = snap.Dominant[0]
		}
	}
	for _, tok := range palette.Accents() {
		hex, ok := palette.Hex(flavor, tok)
		if !ok {
			continue
		}
		h.wheel = append(h.wheel, wheelEntry{tok, hex, analyze.Hue(hex)})
	}
	for i, tok := range [3]palette.Token{accent, bi1, bi2} {
		hex, _ := palette.Hex(flavor, tok)
		h.family[i] = wheelEntry{tok, hex, analyze.Hue(hex)}
	}
	return h
}

func hueDelta(a, b float64) float64 {
	d := math.Abs(a - b)
	if d > 180 {
		d = 360 - d
	}
	return d
}

// nearestAccent picks the wheel accent whose hue is closest to the
// source color. Ties resolve in wheel order.
func (h *heuristic) nearestAccent(hex string) palette.Token {
	hue := analyze.Hue(hex)
	best := h.wheel[0].token
	bestD := math.Inf(1)
	for _, w := range h.wheel {
		if d := hueDelta(hue, w.hue); d < bestD {
			best, bestD = w.token, d
		}
	}
	return best
}

// nearestFamilyAccent restricts the choice to the main accent and its
// two bi-accents.
func (h *heuristic) nearestFamilyAccent(hex string) palette.Token {
	hue := analyze.Hue(hex)
	best := h.family[0].token
	bestD := math.Inf(1)
	for _, w := range h.family {
		if d := hueDelta(hue, w.hue); d < bestD {
			best, bestD = w.token, d
		}
	}
	return best
}

// neutralToken buckets a non-accent color into the base..text ladder
// with polarity chosen by the page scheme.
func (h *heuristic) neutralToken(hex string) palette.Token {
	if h.dominant != "" && hex == h.dominant && analyze.IsGrayish(hex) {
		return palette.Base
	}
	lum := analyze.Luminance(hex)
	tiers := darkTiers
	if h.scheme == analyze.SchemeLight {
		tiers = lightTiers
	}
	for _, t := range tiers {
		if lum <= t.max {
			return t.token
		}
	}
	return palette.Text
}

func (h *heuristic) tokenForRole(role AccentRole) palette.Token {
	switch role {
	case RoleSecondary:
		return h.bi[0]
	case RoleTertiary:
		return h.bi[1]
	default:
		return h.accent
	}
}

func (h *heuristic) roleForToken(tok palette.Token) AccentRole {
	switch tok {
	case h.accent:
		return RoleMain
	case h.bi[0]:
		return RoleSecondary
	case h.bi[1]:
		return RoleTertiary
	default:
		return RoleNone
	}
}

// colorToken maps one concrete color value. Named facts pass keyword
// hints through name; text properties skip the hint bias so button text
// does not inherit the button's accent.
func (h *heuristic) colorToken(name, hex string, textProperty bool) (palette.Token, string) {
	if hex == "" {
		return h.namedFallback(name)
	}
	grayish := analyze.IsGrayish(hex)
	if !textProperty && !grayish && hasAccentHint(name) {
		tok := h.nearestFamilyAccent(hex)
		return tok, fmt.Sprintf("%s names an accent surface, hue-matched to %s", name, tok)
	}
	if !grayish {
		tok := h.nearestAccent(hex)
		return tok, fmt.Sprintf("saturated %s is hue-nearest to %s", hex, tok)
	}
	tok := h.neutralToken(hex)
	return tok, fmt.Sprintf("neutral %s sits in the %s tier", hex, tok)
}

// namedFallback maps a fact that never resolved to a concrete color.
func (h *heuristic) namedFallback(name string) (palette.Token, string) {
	low := strings.ToLower(name)
	switch {
	case hasAccentHint(low):
		return h.accent, fmt.Sprintf("%s suggests accent use", name)
	case strings.Contains(low, "background") || strings.Contains(low, "-bg") || strings.HasPrefix(low, "bg"):
		return palette.Base, fmt.Sprintf("%s suggests a page background", name)
	case strings.Contains(low, "text") || strings.Contains(low, "foreground") || strings.Contains(low, "-fg") || strings.Contains(low, "ink"):
		return palette.Text, fmt.Sprintf("%s suggests foreground text", name)
	case strings.Contains(low, "border") || strings.Contains(low, "divider") || strings.Contains(low, "outline"):
		return palette.Surface1, fmt.Sprintf("%s suggests a border", name)
	case strings.Contains(low, "shadow"):
		return palette.Crust, fmt.Sprintf("%s suggests a shadow", name)
	default:
		return palette.Overlay1, fmt.Sprintf("%s has no resolved color, defaulting to a mid tier", name)
	}
}

func (h *heuristic) variableToken(v analyze.Variable) (palette.Token, string) {
	return h.colorToken(v.Name, v.ComputedValue, false)
}

func (h *heuristic) svgToken(s analyze.SVG, c analyze.SVGColorRef) (palette.Token, string) {
	hex := c.Value
	if analyze.IsGrayish(hex) {
		tok := h.neutralToken(hex)
		return tok, fmt.Sprintf("monochrome icon %s maps to %s", c.Attr, tok)
	}
	if s.Purpose == analyze.PurposeLogo || s.Purpose == analyze.PurposeSocial {
		tok := h.nearestFamilyAccent(hex)
		return tok, fmt.Sprintf("%s artwork keeps the accent family, hue-matched to %s", s.Purpose, tok)
	}
	tok := h.nearestAccent(hex)
	return tok, fmt.Sprintf("saturated icon %s is hue-nearest to %s", c.Attr, tok)
}

// familyMatch finds the property whose color sits within
// accentMatchDistance of the main accent or either bi-accent. Grayish
// values never match: the pastel accents sit close to plain grays in
// RGB space.
func (h *heuristic) familyMatch(st analyze.SelectorStyles) (prop string, tok palette.Token) {
	bestD := accentMatchDistance
	check := func(name, val string) {
		if val == "" || analyze.IsGrayish(val) {
			return
		}
		for _, w := range h.family {
			if d := analyze.Distance(val, w.hex); d < bestD {
				prop, tok, bestD = name, w.token, d
			}
		}
	}
	check("background-color", st.BackgroundColor)
	check("fill", st.Fill)
	check("stroke", st.Stroke)
	check("border-color", st.BorderColor)
	check("color", st.Color)
	return prop, tok
}

// accentCarrierProp picks the property that should carry the accent when
// only a keyword hint flags the selector.
func accentCarrierProp(st analyze.SelectorStyles) string {
	type cand struct{ name, val string }
	cands := []cand{
		{"background-color", st.BackgroundColor},
		{"fill", st.Fill},
		{"stroke", st.Stroke},
		{"border-color", st.BorderColor},
	}
	for _, c := range cands {
		if c.val != "" && !analyze.IsGrayish(c.val) {
			return c.name
		}
	}
	for _, c := range cands {
		if c.val != "" {
			return c.name
		}
	}
	return "color"
}

func anySaturated(st analyze.SelectorStyles) bool {
	for _, v := range []string{st.BackgroundColor, st.Fill, st.Stroke, st.BorderColor, st.Color} {
		if v != "" && !analyze.IsGrayish(v) {
			return true
		}
	}
	return false
}

// selectorMapping maps every populated property of one selector fact and
// runs the accent cascade over it. cycle advances across calls so the
// role distribution spreads over the whole run.
func (h *heuristic) selectorMapping(f analyze.Selector, cycle *int) SelectorMapping {
	m := SelectorMapping{
		Selector:  f.Selector,
		Category:  f.Category,
		Important: f.Important,
	}
	st := f.Styles

	var just string
	setProp := func(dst *palette.Token, val string, textProperty bool) {
		if val == "" {
			return
		}
		tok, j := h.colorToken(f.Selector, val, textProperty)
		*dst = tok
		if just == "" {
			just = j
		}
	}
	setProp(&m.Properties.BackgroundColor, st.BackgroundColor, false)
	setProp(&m.Properties.Color, st.Color, true)
	setProp(&m.Properties.BorderColor, st.BorderColor, false)
	setProp(&m.Properties.Fill, st.Fill, false)
	setProp(&m.Properties.Stroke, st.Stroke, false)

	matchProp, matchTok := h.familyMatch(st)
	hinted := hasAccentHint(f.Selector) && anySaturated(st)
	if matchTok != "" || hinted {
		var role AccentRole
		var tok palette.Token
		carrier := matchProp
		if matchTok != "" {
			role, tok = h.roleForToken(matchTok), matchTok
			just = fmt.Sprintf("color-matched the %s accent %s", role, tok)
		} else {
			role = roleCycle[*cycle%len(roleCycle)]
			*cycle++
			tok = h.tokenForRole(role)
			carrier = accentCarrierProp(st)
			just = fmt.Sprintf("keyword hint assigns the %s accent %s", role, tok)
		}
		m.AccentRole = role
		m.AccentProp = carrier
		h.setProperty(&m.Properties, carrier, tok)
		if f.Interactive {
			m.Gradient = h.hoverGradient(tok)
		}
	}

	m.Token = headlineToken(m.Properties)
	m.Justification = just
	return m
}

func (h *heuristic) setProperty(p *PropertyTokens, name string, tok palette.Token) {
	switch name {
	case "background-color":
		p.BackgroundColor = tok
	case "border-color":
		p.BorderColor = tok
	case "fill":
		p.Fill = tok
	case "stroke":
		p.Stroke = tok
	default:
		p.Color = tok
	}
}

// hoverGradient runs one level deeper down the cascade: from the
// assigned accent to that accent's own +3 wheel neighbor.
func (h *heuristic) hoverGradient(tok palette.Token) *Gradient {
	next, _ := palette.BiAccents(tok)
	return &Gradient{Angle: hoverGradientAngle, From: tok, To: next, Opacity: 1}
}

func headlineToken(p PropertyTokens) palette.Token {
	switch {
	case p.BackgroundColor != "":
		return p.BackgroundColor
	case p.Color != "":
		return p.Color
	case p.BorderColor != "":
		return p.BorderColor
	case p.Fill != "":
		return p.Fill
	default:
		return p.Stroke
	}
}

// applyHeadline re-places a classifier-chosen headline token onto the
// selector's leading property and keeps the accent cascade consistent
// with it.
func (h *heuristic) applyHeadline(m *SelectorMapping, f analyze.Selector) {
	st := f.Styles
	prop := "color"
	switch {
	case st.BackgroundColor != "":
		m.Properties.BackgroundColor = m.Token
		prop = "background-color"
	case st.Color != "":
		m.Properties.Color = m.Token
	case st.BorderColor != "":
		m.Properties.BorderColor = m.Token
		prop = "border-color"
	case st.Fill != "":
		m.Properties.Fill = m.Token
		prop = "fill"
	case st.Stroke != "":
		m.Properties.Stroke = m.Token
		prop = "stroke"
	}
	if !m.Token.IsAccent() {
		m.AccentRole = RoleNone
		m.AccentProp = ""
		m.Gradient = nil
		return
	}
	m.AccentProp = prop
	if role := h.roleForToken(m.Token); role != RoleNone {
		m.AccentRole = role
	} else if m.AccentRole == RoleNone {
		m.AccentRole = RoleMain
	}
	if f.Interactive && m.Gradient == nil {
		m.Gradient = h.hoverGradient(m.Token)
	}
}
