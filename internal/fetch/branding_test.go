package fetch

import (
	"image"
	"image/color"
	"reflect"
	"testing"
)

func TestDominantColorsRanksByPopulation(t *testing.T) {
	t.Parallel()
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for i := 0; i < 100; i++ {
		x, y := i%10, i/10
		switch {
		case i < 60:
			img.SetRGBA(x, y, color.RGBA{R: 0x1A, G: 0x73, B: 0xE8, A: 0xFF})
		case i < 85:
			img.SetRGBA(x, y, color.RGBA{R: 0xD9, G: 0x30, B: 0x25, A: 0xFF})
		case i < 95:
			img.SetRGBA(x, y, color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF})
		default:
			img.SetRGBA(x, y, color.RGBA{})
		}
	}

	got := dominantColors(img, 4)
	expected := []string{"#1A73E8", "#D93025"}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("dominantColors = %v, expected %v", got, expected)
	}
}

func TestDominantColorsIgnoresNeutralIcons(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		fill color.RGBA
	}{
		{"white", color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}},
		{"near_white", color.RGBA{R: 0xF8, G: 0xF4, B: 0xF2, A: 0xFF}},
		{"black", color.RGBA{A: 0xFF}},
		{"near_black", color.RGBA{R: 0x0A, G: 0x0A, B: 0x0A, A: 0xFF}},
		{"transparent", color.RGBA{}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			img := image.NewRGBA(image.Rect(0, 0, 4, 4))
			for y := 0; y < 4; y++ {
				for x := 0; x < 4; x++ {
					img.SetRGBA(x, y, tc.fill)
				}
			}
			if got := dominantColors(img, 4); got != nil {
				t.Fatalf("dominantColors(%s icon) = %v, expected nil", tc.name, got)
			}
		})
	}
}

func TestDominantColorsCapsCount(t *testing.T) {
	t.Parallel()
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	fills := []struct {
		upto int
		col  color.RGBA
	}{
		{30, color.RGBA{R: 0xFF, A: 0xFF}},
		{55, color.RGBA{G: 0xFF, A: 0xFF}},
		{75, color.RGBA{B: 0xFF, A: 0xFF}},
		{90, color.RGBA{R: 0xFF, B: 0xFF, A: 0xFF}},
		{100, color.RGBA{G: 0xFF, B: 0xFF, A: 0xFF}},
	}
	for i := 0; i < 100; i++ {
		x, y := i%10, i/10
		for _, f := range fills {
			if i < f.upto {
				img.SetRGBA(x, y, f.col)
				break
			}
		}
	}

	got := dominantColors(img, 4)
	expected := []string{"#FF0000", "#00FF00", "#0000FF", "#FF00FF"}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("dominantColors = %v, expected the four most populous colors %v", got, expected)
	}
}

func TestSampleScale(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		w, h  int
		wantW int
		wantH int
	}{
		{"wide", 256, 128, 64, 32},
		{"tall", 128, 256, 32, 64},
		{"small_untouched", 32, 16, 32, 16},
		{"exact_cap", 64, 64, 64, 64},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			img := image.NewRGBA(image.Rect(0, 0, tc.w, tc.h))
			got := sampleScale(img).Bounds()
			if got.Dx() != tc.wantW || got.Dy() != tc.wantH {
				t.Fatalf("sampleScale(%dx%d) = %dx%d, expected %dx%d",
					tc.w, tc.h, got.Dx(), got.Dy(), tc.wantW, tc.wantH)
			}
		})
	}
}

func TestIconCandidates(t *testing.T) {
	t.Parallel()
	markup := `<html><head>
<link rel="icon" href="/fav.png">
<link rel="apple-touch-icon" href="/touch.png">
<link rel="mask-icon" href="/mask.svg">
<link rel="stylesheet" href="/a.css">
<link rel="shortcut icon" href="/fav.png">
</head><body></body></html>`

	got := iconCandidates(parseDoc(t, markup), "https://example.com/deep/page.html")
	expected := []string{
		"https://example.com/touch.png",
		"https://example.com/fav.png",
		"https://example.com/favicon.ico",
	}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("iconCandidates = %v, expected %v", got, expected)
	}
}

func TestIconCandidatesWithoutDocument(t *testing.T) {
	t.Parallel()
	got := iconCandidates(nil, "https://example.com/page")
	expected := []string{"https://example.com/favicon.ico"}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("iconCandidates(nil) = %v, expected %v", got, expected)
	}
}
