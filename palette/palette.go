package palette

import "strings"

// Token is one of the 26 fixed palette slots a mapping may target.
type Token string

const (
	Base     Token = "base"
	Mantle   Token = "mantle"
	Crust    Token = "crust"
	Surface0 Token = "surface0"
	Surface1 Token = "surface1"
	Surface2 Token = "surface2"
	Overlay0 Token = "overlay0"
	Overlay1 Token = "overlay1"
	Overlay2 Token = "overlay2"
	Subtext0 Token = "subtext0"
	Subtext1 Token = "subtext1"
	Text     Token = "text"

	Rosewater Token = "rosewater"
	Flamingo  Token = "flamingo"
	Pink      Token = "pink"
	Mauve     Token = "mauve"
	Red       Token = "red"
	Maroon    Token = "maroon"
	Peach     Token = "peach"
	Yellow    Token = "yellow"
	Green     Token = "green"
	Teal      Token = "teal"
	Sky       Token = "sky"
	Sapphire  Token = "sapphire"
	Blue      Token = "blue"
	Lavender  Token = "lavender"
)

// Flavor selects one of the four palette variants.
type Flavor string

const (
	Latte     Flavor = "latte"
	Frappe    Flavor = "frappe"
	Macchiato Flavor = "macchiato"
	Mocha     Flavor = "mocha"
)

const (
	DefaultFlavor = Mocha
	DefaultAccent = Mauve
)

var neutrals = [12]Token{
	Base, Mantle, Crust,
	Surface0, Surface1, Surface2,
	Overlay0, Overlay1, Overlay2,
	Subtext0, Subtext1, Text,
}

// wheel fixes the accent order used for bi-accent stepping. The order is
// part of the mapping contract and must not change.
var wheel = [14]Token{
	Red, Maroon, Peach, Yellow, Green, Teal, Sky,
	Sapphire, Blue, Lavender, Mauve, Pink, Flamingo, Rosewater,
}

var flavorOrder = [4]Flavor{Latte, Frappe, Macchiato, Mocha}

var colors = map[Flavor]map[Token]string{
	Latte: {
		Rosewater: "#dc8a78", Flamingo: "#dd7878", Pink: "#ea76cb", Mauve: "#8839ef",
		Red: "#d20f39", Maroon: "#e64553", Peach: "#fe640b", Yellow: "#df8e1d",
		Green: "#40a02b", Teal: "#179299", Sky: "#04a5e5", Sapphire: "#209fb5",
		Blue: "#1e66f5", Lavender: "#7287fd",
		Text: "#4c4f69", Subtext1: "#5c5f77", Subtext0: "#6c6f85",
		Overlay2: "#7c7f93", Overlay1: "#8c8fa1", Overlay0: "#9ca0b0",
		Surface2: "#acb0be", Surface1: "#bcc0cc", Surface0: "#ccd0da",
		Base: "#eff1f5", Mantle: "#e6e9ef", Crust: "#dce0e8",
	},
	Frappe: {
		Rosewater: "#f2d5cf", Flamingo: "#eebebe", Pink: "#f4b8e4", Mauve: "#ca9ee6",
		Red: "#e78284", Maroon: "#ea999c", Peach: "#ef9f76", Yellow: "#e5c890",
		Green: "#a6d189", Teal: "#81c8be", Sky: "#99d1db", Sapphire: "#85c1dc",
		Blue: "#8caaee", Lavender: "#babbf1",
		Text: "#c6d0f5", Subtext1: "#b5bfe2", Subtext0: "#a5adce",
		Overlay2: "#949cbb", Overlay1: "#838ba7", Overlay0: "#737994",
		Surface2: "#626880", Surface1: "#51576d", Surface0: "#414559",
		Base: "#303446", Mantle: "#292c3c", Crust: "#232634",
	},
	Macchiato: {
		Rosewater: "#f4dbd6", Flamingo: "#f0c6c6", Pink: "#f5bde6", Mauve: "#c6a0f6",
		Red: "#ed8796", Maroon: "#ee99a0", Peach: "#f5a97f", Yellow: "#eed49f",
		Green: "#a6da95", Teal: "#8bd5ca", Sky: "#91d7e3", Sapphire: "#7dc4e4",
		Blue: "#8aadf4", Lavender: "#b7bdf8",
		Text: "#cad3f5", Subtext1: "#b8c0e0", Subtext0: "#a5adcb",
		Overlay2: "#939ab7", Overlay1: "#8087a2", Overlay0: "#6e738d",
		Surface2: "#5b6078", Surface1: "#494d64", Surface0: "#363a4f",
		Base: "#24273a", Mantle: "#1e2030", Crust: "#181926",
	},
	Mocha: {
		Rosewater: "#f5e0dc", Flamingo: "#f2cdcd", Pink: "#f5c2e7", Mauve: "#cba6f7",
		Red: "#f38ba8", Maroon: "#eba0ac", Peach: "#fab387", Yellow: "#f9e2af",
		Green: "#a6e3a1", Teal: "#94e2d5", Sky: "#89dceb", Sapphire: "#74c7ec",
		Blue: "#89b4fa", Lavender: "#b4befe",
		Text: "#cdd6f4", Subtext1: "#bac2de", Subtext0: "#a6adc8",
		Overlay2: "#9399b2", Overlay1: "#7f849c", Overlay0: "#6c7086",
		Surface2: "#585b70", Surface1: "#45475a", Surface0: "#313244",
		Base: "#1e1e2e", Mantle: "#181825", Crust: "#11111b",
	},
}

// Valid reports whether t names one of the 26 palette slots.
func (t Token) Valid() bool {
	_, ok := colors[Mocha][t]
	return ok
}

// IsAccent reports whether t sits on the accent wheel.
func (t Token) IsAccent() bool {
	return wheelIndex(t) >= 0
}

// IsDark reports whether the flavor has a dark base.
func (f Flavor) IsDark() bool { return f != Latte }

func wheelIndex(t Token) int {
	for i, a := range wheel {
		if a == t {
			return i
		}
	}
	return -1
}

// Hex returns the color of token t under flavor f.
func Hex(f Flavor, t Token) (string, bool) {
	m, ok := colors[f]
	if !ok {
		return "", false
	}
	hex, ok := m[t]
	return hex, ok
}

// Tokens returns all 26 tokens, neutrals first, accents in wheel order.
func Tokens() []Token {
	out := make([]Token, 0, len(neutrals)+len(wheel))
	out = append(out, neutrals[:]...)
	out = append(out, wheel[:]...)
	return out
}

// Accents returns the 14 accents in wheel order.
func Accents() []Token {
	out := make([]Token, len(wheel))
	copy(out, wheel[:])
	return out
}

// Flavors returns the four flavors, light first.
func Flavors() []Flavor {
	out := make([]Flavor, len(flavorOrder))
	copy(out, flavorOrder[:])
	return out
}

// BiAccents derives the two companion accents of main by stepping three
// positions forward and back around the wheel. Non-accent input falls back
// to the default accent, so callers always get a usable triad.
func BiAccents(main Token) (Token, Token) {
	i := wheelIndex(main)
	if i < 0 {
		i = wheelIndex(DefaultAccent)
	}
	n := len(wheel)
	return wheel[(i+3)%n], wheel[(i-3+n)%n]
}

// ParseFlavor resolves a user-supplied flavor name.
func ParseFlavor(s string) (Flavor, bool) {
	switch Flavor(strings.ToLower(strings.TrimSpace(s))) {
	case Latte:
		return Latte, true
	case Frappe, "frappé":
		return Frappe, true
	case Macchiato:
		return Macchiato, true
	case Mocha:
		return Mocha, true
	}
	return "", false
}

// ParseAccent resolves a user-supplied accent name against the wheel.
func ParseAccent(s string) (Token, bool) {
	t := Token(strings.ToLower(strings.TrimSpace(s)))
	if t.IsAccent() {
		return t, true
	}
	return "", false
}
