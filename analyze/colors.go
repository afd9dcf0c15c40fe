package analyze

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type rgbColor struct {
	R uint8
	G uint8
	B uint8
}

func (c rgbColor) hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

func (c rgbColor) brightness() int {
	return int(0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B))
}

func (c rgbColor) relativeLuminance() float64 {
	toLinear := func(channel uint8) float64 {
		v := float64(channel) / 255.0
		if v <= 0.03928 {
			return v / 12.92
		}
		return math.Pow((v+0.055)/1.055, 2.4)
	}
	return 0.2126*toLinear(c.R) + 0.7152*toLinear(c.G) + 0.0722*toLinear(c.B)
}

func (c rgbColor) contrastRatio(other rgbColor) float64 {
	la := c.relativeLuminance()
	lb := other.relativeLuminance()
	if la < lb {
		la, lb = lb, la
	}
	return (la + 0.05) / (lb + 0.05)
}

// hsl returns hue in degrees and saturation/lightness in [0,1].
func (c rgbColor) hsl() (h, s, l float64) {
	r := float64(c.R) / 255.0
	g := float64(c.G) / 255.0
	b := float64(c.B) / 255.0
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	l = (max + min) / 2
	d := max - min
	if d == 0 {
		return 0, 0, l
	}
	if l > 0.5 {
		s = d / (2 - max - min)
	} else {
		s = d / (max + min)
	}
	switch max {
	case r:
		h = (g - b) / d
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	return h * 60, s, l
}

func parseHexColor(value string) (rgbColor, bool) {
	hex := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(hex) != 6 {
		return rgbColor{}, false
	}
	r, errR := strconv.ParseInt(hex[0:2], 16, 64)
	g, errG := strconv.ParseInt(hex[2:4], 16, 64)
	b, errB := strconv.ParseInt(hex[4:6], 16, 64)
	if errR != nil || errG != nil || errB != nil {
		return rgbColor{}, false
	}
	return rgbColor{uint8(r), uint8(g), uint8(b)}, true
}

func parseShorthandHex(value string) (rgbColor, bool) {
	hex := strings.TrimPrefix(strings.TrimSpace(value), "#")
	switch length := len(hex); {
	case length == 3 || length == 4:
		// #RGB and #RGBA, alpha dropped.
		exp := []byte{
			hex[0], hex[0],
			hex[1], hex[1],
			hex[2], hex[2],
		}
		return parseHexColor(string(exp))
	case length >= 6:
		// #RRGGBB and #RRGGBBAA, alpha dropped.
		return parseHexColor(hex[:6])
	default:
		return rgbColor{}, false
	}
}

func splitFunctional(expr string) []string {
	open := strings.IndexByte(expr, '(')
	close := strings.LastIndexByte(expr, ')')
	if open < 0 || close <= open+1 {
		return nil
	}
	inner := expr[open+1 : close]
	// Modern syntax separates the alpha channel with a slash.
	if i := strings.IndexByte(inner, '/'); i >= 0 {
		inner = inner[:i]
	}
	parts := strings.FieldsFunc(inner, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	return parts
}

func parseRGBFunctional(expr string) (rgbColor, bool) {
	parts := splitFunctional(expr)
	if len(parts) < 3 {
		return rgbColor{}, false
	}
	toByte := func(component string) uint8 {
		component = strings.TrimSpace(component)
		if component == "" {
			return 0
		}
		if strings.HasSuffix(component, "%") {
			component = strings.TrimSuffix(component, "%")
			value, err := strconv.ParseFloat(component, 64)
			if err != nil {
				return 0
			}
			if value < 0 {
				value = 0
			} else if value > 100 {
				value = 100
			}
			return uint8(value * 255.0 / 100.0)
		}
		value, err := strconv.ParseFloat(component, 64)
		if err != nil {
			return 0
		}
		if value < 0 {
			value = 0
		} else if value > 255 {
			value = 255
		}
		return uint8(value)
	}
	return rgbColor{
		R: toByte(parts[0]),
		G: toByte(parts[1]),
		B: toByte(parts[2]),
	}, true
}

func parseHSLFunctional(expr string) (rgbColor, bool) {
	parts := splitFunctional(expr)
	if len(parts) < 3 {
		return rgbColor{}, false
	}
	h, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(parts[0]), "deg"), 64)
	if err != nil {
		return rgbColor{}, false
	}
	pct := func(component string) (float64, bool) {
		component = strings.TrimSuffix(strings.TrimSpace(component), "%")
		v, err := strconv.ParseFloat(component, 64)
		if err != nil {
			return 0, false
		}
		if v < 0 {
			v = 0
		} else if v > 100 {
			v = 100
		}
		return v / 100.0, true
	}
	s, okS := pct(parts[1])
	l, okL := pct(parts[2])
	if !okS || !okL {
		return rgbColor{}, false
	}
	h = math.Mod(math.Mod(h, 360)+360, 360)
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	toByte := func(v float64) uint8 {
		return uint8(math.Round((v + m) * 255))
	}
	return rgbColor{R: toByte(r), G: toByte(g), B: toByte(b)}, true
}

var namedColors = map[string]string{
	"black": "#000000", "silver": "#c0c0c0", "gray": "#808080", "grey": "#808080",
	"white": "#ffffff", "maroon": "#800000", "red": "#ff0000", "purple": "#800080",
	"fuchsia": "#ff00ff", "green": "#008000", "lime": "#00ff00", "olive": "#808000",
	"yellow": "#ffff00", "navy": "#000080", "blue": "#0000ff", "teal": "#008080",
	"aqua": "#00ffff", "orange": "#ffa500", "aliceblue": "#f0f8ff",
	"antiquewhite": "#faebd7", "beige": "#f5f5dc", "bisque": "#ffe4c4",
	"brown": "#a52a2a", "chocolate": "#d2691e", "coral": "#ff7f50",
	"cornflowerblue": "#6495ed", "crimson": "#dc143c", "cyan": "#00ffff",
	"darkblue": "#00008b", "darkcyan": "#008b8b", "darkgray": "#a9a9a9",
	"darkgrey": "#a9a9a9", "darkgreen": "#006400", "darkmagenta": "#8b008b",
	"darkorange": "#ff8c00", "darkred": "#8b0000", "darkslategray": "#2f4f4f",
	"deeppink": "#ff1493", "dimgray": "#696969", "dodgerblue": "#1e90ff",
	"firebrick": "#b22222", "forestgreen": "#228b22", "gainsboro": "#dcdcdc",
	"gold": "#ffd700", "goldenrod": "#daa520", "hotpink": "#ff69b4",
	"indigo": "#4b0082", "ivory": "#fffff0", "khaki": "#f0e68c",
	"lavender": "#e6e6fa", "lightblue": "#add8e6", "lightcoral": "#f08080",
	"lightgray": "#d3d3d3", "lightgrey": "#d3d3d3", "lightgreen": "#90ee90",
	"lightpink": "#ffb6c1", "lightseagreen": "#20b2aa", "lightskyblue": "#87cefa",
	"lightyellow": "#ffffe0", "limegreen": "#32cd32", "magenta": "#ff00ff",
	"midnightblue": "#191970", "mintcream": "#f5fffa", "orangered": "#ff4500",
	"orchid": "#da70d6", "palegoldenrod": "#eee8aa", "pink": "#ffc0cb",
	"plum": "#dda0dd", "rebeccapurple": "#663399", "royalblue": "#4169e1",
	"salmon": "#fa8072", "seagreen": "#2e8b57", "sienna": "#a0522d",
	"skyblue": "#87ceeb", "slateblue": "#6a5acd", "slategray": "#708090",
	"snow": "#fffafa", "springgreen": "#00ff7f", "steelblue": "#4682b4",
	"tan": "#d2b48c", "tomato": "#ff6347", "turquoise": "#40e0d0",
	"violet": "#ee82ee", "wheat": "#f5deb3", "whitesmoke": "#f5f5f5",
	"yellowgreen": "#9acd32",
}

func parseCSSColor(input string) (rgbColor, bool) {
	s := strings.TrimSpace(strings.ToLower(input))
	if s == "" || s == "transparent" || s == "none" || s == "inherit" ||
		s == "initial" || s == "unset" || s == "currentcolor" {
		return rgbColor{}, false
	}
	if named, ok := namedColors[s]; ok {
		return parseHexColor(named)
	}
	if strings.HasPrefix(s, "#") {
		return parseShorthandHex(s)
	}
	if strings.HasPrefix(s, "rgb(") || strings.HasPrefix(s, "rgba(") {
		return parseRGBFunctional(s)
	}
	if strings.HasPrefix(s, "hsl(") || strings.HasPrefix(s, "hsla(") {
		return parseHSLFunctional(s)
	}
	return rgbColor{}, false
}

// CSSToHex normalizes any supported CSS color expression to canonical
// uppercase #RRGGBB. Unsupported or non-color input yields "".
func CSSToHex(v string) string {
	col, ok := parseCSSColor(v)
	if !ok {
		return ""
	}
	return col.hex()
}

// IsColorValue reports whether v parses as a concrete color.
func IsColorValue(v string) bool {
	_, ok := parseCSSColor(v)
	return ok
}

// Luminance returns the WCAG relative luminance of a color expression,
// or 1.0 when it does not parse.
func Luminance(v string) float64 {
	col, ok := parseCSSColor(v)
	if !ok {
		return 1.0
	}
	return col.relativeLuminance()
}

// Brightness returns perceived brightness 0..255, or 255 when v does not
// parse.
func Brightness(v string) int {
	col, ok := parseCSSColor(v)
	if !ok {
		return 255
	}
	return col.brightness()
}

// Contrast returns the WCAG contrast ratio between two color expressions.
func Contrast(a, b string) float64 {
	ca, okA := parseCSSColor(a)
	cb, okB := parseCSSColor(b)
	if !okA || !okB {
		return 1.0
	}
	return ca.contrastRatio(cb)
}

// Saturation returns the HSL saturation of a color expression in [0,1].
func Saturation(v string) float64 {
	col, ok := parseCSSColor(v)
	if !ok {
		return 0
	}
	_, s, _ := col.hsl()
	return s
}

// Hue returns the HSL hue of a color expression in degrees [0,360).
func Hue(v string) float64 {
	col, ok := parseCSSColor(v)
	if !ok {
		return 0
	}
	h, _, _ := col.hsl()
	return h
}

// Distance returns the Euclidean RGB distance between two color
// expressions, or math.MaxFloat64 when either does not parse.
func Distance(a, b string) float64 {
	ca, okA := parseCSSColor(a)
	cb, okB := parseCSSColor(b)
	if !okA || !okB {
		return math.MaxFloat64
	}
	dr := float64(ca.R) - float64(cb.R)
	dg := float64(ca.G) - float64(cb.G)
	db := float64(ca.B) - float64(cb.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// IsDark reports whether a color expression reads as dark.
func IsDark(v string) bool {
	col, ok := parseCSSColor(v)
	if !ok {
		return false
	}
	return col.relativeLuminance() < 0.40
}

// IsGrayish reports low-saturation colors that should never be treated as
// accents.
func IsGrayish(v string) bool {
	col, ok := parseCSSColor(v)
	if !ok {
		return true
	}
	_, s, l := col.hsl()
	return s < 0.25 || l < 0.08 || l > 0.97
}
