package analyze

import (
	"encoding/base64"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// SVGLocation says whether the graphic sat in markup or behind a CSS
// background declaration.
type SVGLocation string

const (
	SVGInline     SVGLocation = "inline"
	SVGBackground SVGLocation = "background"
)

// SVGPurpose is a coarse guess at what the graphic is for.
type SVGPurpose string

const (
	PurposeLogo   SVGPurpose = "logo"
	PurposeIcon   SVGPurpose = "icon"
	PurposeNav    SVGPurpose = "nav"
	PurposeSocial SVGPurpose = "social"
	PurposeArrow  SVGPurpose = "arrow"
	PurposeOther  SVGPurpose = "other"
)

// SVGColorRef is one color literal found in a graphic, attributed to the
// attribute or property that carried it.
type SVGColorRef struct {
	Attr  string `json:"attr"`
	Value string `json:"value"`
}

// SVG is one deduplicated graphic with its extracted palette.
type SVG struct {
	Location SVGLocation   `json:"location"`
	Selector string        `json:"selector,omitempty"`
	Purpose  SVGPurpose    `json:"purpose"`
	Markup   string        `json:"markup"`
	Colors   []SVGColorRef `json:"colors"`
	Width    string        `json:"width,omitempty"`
	Height   string        `json:"height,omitempty"`
}

var (
	svgTagRe      = regexp.MustCompile(`(?is)<svg\b[^>]*>.*?</svg>`)
	svgAttrRe     = regexp.MustCompile(`(?i)\b(fill|stroke|stop-color)\s*=\s*["']([^"']+)["']`)
	svgStyleRe    = regexp.MustCompile(`(?i)\b(fill|stroke|stop-color)\s*:\s*(rgba?\([^)]*\)|hsla?\([^)]*\)|[^;"'}()]+)`)
	classAttrRe   = regexp.MustCompile(`(?i)\bclass\s*=\s*["']([^"']+)["']`)
	svgDimAttrRe  = regexp.MustCompile(`(?i)\b(width|height)\s*=\s*["']([^"']+)["']`)
	digitRunRe    = regexp.MustCompile(`\d+`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// classWindow is how far back we look for the owning element's class when
// guessing an inline graphic's selector.
const classWindow = 600

// ExtractSVGs finds inline and CSS background graphics, pulls their color
// literals, classifies their purpose and deduplicates repeats.
func ExtractSVGs(htmlText, cssText string) []SVG {
	var out []SVG
	seen := map[string]struct{}{}

	for _, loc := range svgTagRe.FindAllStringIndex(htmlText, -1) {
		markup := htmlText[loc[0]:loc[1]]
		colors := extractSVGColors(markup)
		if len(colors) == 0 {
			continue
		}
		selector := guessOwnerSelector(htmlText, loc[0])
		fact := SVG{
			Location: SVGInline,
			Selector: selector,
			Purpose:  classifySVGPurpose(selector, markup),
			Markup:   markup,
			Colors:   colors,
		}
		fact.Width, fact.Height = svgDimensions(markup)
		key := svgFingerprint(markup, colors)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, fact)
	}

	for _, blk := range parseRuleBlocks(cssText) {
		for _, d := range blk.decls {
			if d.property != "background" && d.property != "background-image" {
				continue
			}
			for _, uri := range findSVGDataURIs(d.value) {
				markup := decodeSVGDataURI(uri)
				if markup == "" {
					continue
				}
				colors := extractSVGColors(markup)
				if len(colors) == 0 {
					continue
				}
				selector := ""
				if len(blk.selectors) > 0 {
					selector = blk.selectors[0]
				}
				fact := SVG{
					Location: SVGBackground,
					Selector: selector,
					Purpose:  classifySVGPurpose(selector, markup),
					Markup:   markup,
					Colors:   colors,
				}
				fact.Width, fact.Height = svgDimensions(markup)
				key := svgFingerprint(markup, colors)
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				out = append(out, fact)
			}
		}
	}
	return out
}

// findSVGDataURIs pulls data:image/svg+xml payloads out of url() terms,
// honoring the optional quote style so raw apostrophes inside unquoted
// payloads survive.
func findSVGDataURIs(value string) []string {
	var out []string
	low := strings.ToLower(value)
	i := 0
	for i < len(value) {
		u := strings.Index(low[i:], "url(")
		if u < 0 {
			break
		}
		start := i + u + len("url(")
		for start < len(value) && (value[start] == ' ' || value[start] == '\t') {
			start++
		}
		if start >= len(value) {
			break
		}
		var quote byte
		if value[start] == '"' || value[start] == '\'' {
			quote = value[start]
			start++
		}
		var end int
		if quote != 0 {
			e := strings.IndexByte(value[start:], quote)
			if e < 0 {
				break
			}
			end = start + e
		} else {
			e := strings.IndexByte(value[start:], ')')
			if e < 0 {
				break
			}
			end = start + e
		}
		payload := strings.TrimSpace(value[start:end])
		if strings.HasPrefix(strings.ToLower(payload), "data:image/svg+xml") {
			out = append(out, payload)
		}
		i = end + 1
	}
	return out
}

func extractSVGColors(markup string) []SVGColorRef {
	var out []SVGColorRef
	seen := map[string]struct{}{}
	add := func(attr, raw string) {
		raw = strings.TrimSpace(raw)
		low := strings.ToLower(raw)
		if low == "" || low == "none" || low == "inherit" || low == "currentcolor" ||
			low == "transparent" || strings.HasPrefix(low, "url(") || strings.HasPrefix(low, "var(") {
			return
		}
		hex := CSSToHex(raw)
		if hex == "" {
			return
		}
		key := strings.ToLower(attr) + "=" + hex
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, SVGColorRef{Attr: strings.ToLower(attr), Value: hex})
	}
	for _, m := range svgAttrRe.FindAllStringSubmatch(markup, -1) {
		add(m[1], m[2])
	}
	for _, m := range svgStyleRe.FindAllStringSubmatch(markup, -1) {
		add(m[1], m[2])
	}
	return out
}

// guessOwnerSelector reads the last class attribute in a window of markup
// before the graphic and turns its first class into a selector.
func guessOwnerSelector(htmlText string, at int) string {
	start := at - classWindow
	if start < 0 {
		start = 0
	}
	window := htmlText[start:at]
	matches := classAttrRe.FindAllStringSubmatch(window, -1)
	if len(matches) == 0 {
		return "svg"
	}
	classes := strings.Fields(matches[len(matches)-1][1])
	if len(classes) == 0 {
		return "svg"
	}
	return "." + classes[0]
}

func classifySVGPurpose(selector, markup string) SVGPurpose {
	probe := strings.ToLower(selector)
	if len(markup) > 400 {
		markup = markup[:400]
	}
	probe += " " + strings.ToLower(markup)
	contains := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(probe, w) {
				return true
			}
		}
		return false
	}
	switch {
	case contains("logo", "brand", "wordmark"):
		return PurposeLogo
	case contains("twitter", "facebook", "github", "linkedin", "instagram", "youtube", "discord", "mastodon", "social"):
		return PurposeSocial
	case contains("arrow", "chevron", "caret", "angle-"):
		return PurposeArrow
	case contains("nav", "menu", "hamburger", "burger"):
		return PurposeNav
	case contains("icon", "glyph", "symbol"):
		return PurposeIcon
	default:
		return PurposeOther
	}
}

func svgDimensions(markup string) (width, height string) {
	head := markup
	if i := strings.IndexByte(head, '>'); i >= 0 {
		head = head[:i]
	}
	for _, m := range svgDimAttrRe.FindAllStringSubmatch(head, -1) {
		switch strings.ToLower(m[1]) {
		case "width":
			if width == "" {
				width = m[2]
			}
		case "height":
			if height == "" {
				height = m[2]
			}
		}
	}
	return width, height
}

// svgFingerprint is the dedup key: the sorted color set plus a
// structure-normalized markup prefix, so the same icon repeated with
// different ids or coordinates collapses to one fact.
func svgFingerprint(markup string, colors []SVGColorRef) string {
	vals := make([]string, 0, len(colors))
	for _, c := range colors {
		vals = append(vals, c.Value)
	}
	sort.Strings(vals)
	norm := strings.ToLower(markup)
	norm = whitespaceRun.ReplaceAllString(norm, " ")
	norm = digitRunRe.ReplaceAllString(norm, "N")
	if len(norm) > 100 {
		norm = norm[:100]
	}
	return strings.Join(vals, ",") + "|" + norm
}

func decodeSVGDataURI(uri string) string {
	rest := uri[len("data:image/svg+xml"):]
	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return ""
	}
	meta := strings.ToLower(rest[:comma])
	payload := rest[comma+1:]
	if strings.Contains(meta, "base64") {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			decoded, err = base64.RawStdEncoding.DecodeString(payload)
			if err != nil {
				return ""
			}
		}
		return string(decoded)
	}
	decoded, err := url.PathUnescape(payload)
	if err != nil {
		decoded = payload
	}
	decoded = strings.ReplaceAll(decoded, `\"`, `"`)
	decoded = strings.ReplaceAll(decoded, "\\'", "'")
	return decoded
}
