package fetch

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"sort"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"golang.org/x/net/html"
)

const (
	brandingMaxColors = 4
	// brandingSample is the longest side icons are scaled down to
	// before tallying; color ranking does not need more pixels.
	brandingSample = 64
)

// brandingColors extracts the dominant colors of the first decodable
// page icon. No icon, or an icon with nothing but neutral pixels,
// yields nil; the pipeline falls back to colors found in the CSS.
func (c *Client) brandingColors(ctx context.Context, doc *html.Node, baseURL string) []string {
	for _, iconURL := range iconCandidates(doc, baseURL) {
		img, ok := c.fetchIcon(ctx, iconURL)
		if !ok {
			continue
		}
		colors := dominantColors(img, brandingMaxColors)
		if len(colors) == 0 {
			continue
		}
		c.logger.Debug("branding colors", "icon", iconURL, "colors", strings.Join(colors, " "))
		return colors
	}
	return nil
}

// iconCandidates lists icon URLs to try, best first: touch icons carry
// the most deliberate branding, then ordinary favicons, then the
// conventional /favicon.ico root path.
func iconCandidates(doc *html.Node, baseURL string) []string {
	var touch, plain []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "link" {
			rel := strings.ToLower(attrVal(n, "rel"))
			href := attrVal(n, "href")
			switch {
			case href == "" || strings.Contains(rel, "mask-icon"):
			case strings.Contains(rel, "apple-touch-icon"):
				touch = append(touch, href)
			case strings.Contains(rel, "icon"):
				plain = append(plain, href)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	if doc != nil {
		walk(doc)
	}

	seen := map[string]bool{}
	var out []string
	for _, ref := range append(append(touch, plain...), "/favicon.ico") {
		if abs := resolveRef(baseURL, ref); abs != "" && !seen[abs] {
			seen[abs] = true
			out = append(out, abs)
		}
	}
	return out
}

func (c *Client) fetchIcon(ctx context.Context, iconURL string) (image.Image, bool) {
	ictx, cancel := context.WithTimeout(ctx, c.cfg.AssetTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ictx, http.MethodGet, iconURL, nil)
	if err != nil {
		return nil, false
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "image/*")

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.logger.Debug("icon fetch failed", "url", iconURL, "err", err)
		return nil, false
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, false
	}
	raw, err := readBody(resp)
	if err != nil || len(raw) == 0 {
		return nil, false
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		c.logger.Debug("icon decode failed", "url", iconURL, "err", err)
		return nil, false
	}
	return img, true
}

// dominantColors ranks an image's colors by pixel population. Pixels are
// bucketed at 4 bits per channel and each bucket reports its average
// color. Transparent, near-white and near-black pixels are ignored so a
// logo's background cannot crowd out its mark.
func dominantColors(img image.Image, max int) []string {
	img = sampleScale(img)
	b := img.Bounds()

	type bucket struct {
		count   int
		r, g, b int
	}
	buckets := map[uint16]*bucket{}
	total := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			if a < 0x8000 {
				continue
			}
			r8, g8, b8 := int(r>>8), int(g>>8), int(bl>>8)
			if r8 > 0xF0 && g8 > 0xF0 && b8 > 0xF0 {
				continue
			}
			if r8 < 0x10 && g8 < 0x10 && b8 < 0x10 {
				continue
			}
			key := uint16(r8>>4)<<8 | uint16(g8>>4)<<4 | uint16(b8>>4)
			bk := buckets[key]
			if bk == nil {
				bk = &bucket{}
				buckets[key] = bk
			}
			bk.count++
			bk.r += r8
			bk.g += g8
			bk.b += b8
			total++
		}
	}
	if total == 0 {
		return nil
	}

	ranked := make([]*bucket, 0, len(buckets))
	for _, bk := range buckets {
		// Buckets under 1% of the sampled pixels are noise.
		if bk.count*100 >= total {
			ranked = append(ranked, bk)
		}
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].count > ranked[j].count })
	if len(ranked) > max {
		ranked = ranked[:max]
	}

	out := make([]string, 0, len(ranked))
	for _, bk := range ranked {
		out = append(out, fmt.Sprintf("#%02X%02X%02X", bk.r/bk.count, bk.g/bk.count, bk.b/bk.count))
	}
	return out
}

// sampleScale shrinks large icons so tallying stays cheap. Aspect is
// preserved; small icons pass through untouched.
func sampleScale(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= brandingSample && h <= brandingSample {
		return img
	}
	scale := float64(brandingSample) / float64(w)
	if h > w {
		scale = float64(brandingSample) / float64(h)
	}
	dw, dh := int(float64(w)*scale), int(float64(h)*scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
