package analyze

import (
	"math"
	"strings"
	"testing"
)

func TestCSSToHex(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"hex_passthrough", "#1a2b3c", "#1A2B3C"},
		{"hex_shorthand", "#abc", "#AABBCC"},
		{"hex_shorthand_alpha", "#abcd", "#AABBCC"},
		{"hex_with_alpha", "#1a73e8ff", "#1A73E8"},
		{"named_white", "white", "#FFFFFF"},
		{"named_black", "black", "#000000"},
		{"named_extended", "rebeccapurple", "#663399"},
		{"named_tomato", "Tomato", "#FF6347"},
		{"transparent_ignored", "transparent", ""},
		{"currentcolor_ignored", "currentColor", ""},
		{"none_ignored", "none", ""},
		{"inherit_ignored", "inherit", ""},
		{"rgb_function", "rgb(255, 64, 0)", "#FF4000"},
		{"rgba_function", "RGBA(10%,20%,30%,0.5)", "#19334C"},
		{"rgb_space_syntax", "rgb(26 115 232 / 0.8)", "#1A73E8"},
		{"hsl_function", "hsl(0, 100%, 50%)", "#FF0000"},
		{"hsl_green", "hsl(120, 100%, 25%)", "#008000"},
		{"hsla_function", "hsla(217, 89%, 61%, 0.4)", "#4387F4"},
		{"hsl_space_syntax", "hsl(0deg 0% 100%)", "#FFFFFF"},
		{"var_reference_ignored", "var(--brand)", ""},
		{"invalid", "nope", ""},
		{"empty", "", ""},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := CSSToHex(tc.input); got != tc.expected {
				t.Fatalf("CSSToHex(%q) = %q, expected %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestIrregularRgbParsing(t *testing.T) {
	t.Parallel()
	const input = "rgb( 10% , 120 , -5 )"
	got := CSSToHex(input)
	if got != "#197800" {
		t.Fatalf("CSSToHex(%q) = %q, expected #197800", input, got)
	}
}

func TestCSSToHexIsCaseInsensitive(t *testing.T) {
	t.Parallel()
	input := strings.ToUpper("rgba(1,2,3,0.5)")
	if got := CSSToHex(input); got != "#010203" {
		t.Fatalf("CSSToHex upper case rgba mismatch: got %q", got)
	}
}

func TestLuminanceAndDarkness(t *testing.T) {
	t.Parallel()
	if val := Luminance("#000000"); val != 0 {
		t.Fatalf("Luminance(#000000) = %f, expected 0", val)
	}
	if val := Luminance("#ffffff"); val != 1 {
		t.Fatalf("Luminance(#ffffff) = %f, expected 1", val)
	}
	if val := Luminance("oops"); val != 1.0 {
		t.Fatalf("Luminance fallback = %f, expected 1.0", val)
	}
	if !IsDark("#121212") {
		t.Fatalf("IsDark(#121212) = false, expected true")
	}
	if IsDark("#fafafa") {
		t.Fatalf("IsDark(#fafafa) = true, expected false")
	}
	if IsDark("not-a-color") {
		t.Fatalf("IsDark on garbage = true, expected false")
	}
}

func TestContrast(t *testing.T) {
	t.Parallel()
	got := Contrast("#000000", "#ffffff")
	if math.Abs(got-21.0) > 0.01 {
		t.Fatalf("Contrast(black, white) = %f, expected 21", got)
	}
	if got := Contrast("#808080", "#808080"); math.Abs(got-1.0) > 0.001 {
		t.Fatalf("Contrast(self, self) = %f, expected 1", got)
	}
}

func TestHueSaturation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		input   string
		hue     float64
		sat     float64
		grayish bool
	}{
		{"pure_red", "#ff0000", 0, 1, false},
		{"pure_green", "#00ff00", 120, 1, false},
		{"pure_blue", "#0000ff", 240, 1, false},
		{"mid_gray", "#808080", 0, 0, true},
		{"near_black", "#0a0a0a", 0, 0, true},
		{"brand_blue", "#1a73e8", 214, 0.82, false},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Hue(tc.input); math.Abs(got-tc.hue) > 2 {
				t.Fatalf("Hue(%q) = %f, expected ~%f", tc.input, got, tc.hue)
			}
			if got := Saturation(tc.input); math.Abs(got-tc.sat) > 0.05 {
				t.Fatalf("Saturation(%q) = %f, expected ~%f", tc.input, got, tc.sat)
			}
			if got := IsGrayish(tc.input); got != tc.grayish {
				t.Fatalf("IsGrayish(%q) = %v, expected %v", tc.input, got, tc.grayish)
			}
		})
	}
}

func TestDistance(t *testing.T) {
	t.Parallel()
	if got := Distance("#000000", "#000000"); got != 0 {
		t.Fatalf("Distance(same, same) = %f, expected 0", got)
	}
	want := math.Sqrt(3 * 255 * 255)
	if got := Distance("#000000", "#ffffff"); math.Abs(got-want) > 0.001 {
		t.Fatalf("Distance(black, white) = %f, expected %f", got, want)
	}
	if got := Distance("#000000", "junk"); got != math.MaxFloat64 {
		t.Fatalf("Distance with junk = %f, expected MaxFloat64", got)
	}
}
