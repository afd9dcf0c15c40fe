package fetch

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// importRe matches the head of an @import statement in any of its
// spellings: url("x"), url('x'), url(x), "x" or 'x'.
var importRe = regexp.MustCompile(`(?i)@import\s+(?:url\(\s*)?(?:"([^"]*)"|'([^']*)'|([^'"()\s;]+))`)

// sheetCollector walks one page and gathers its stylesheet text.
// Inline <style> blocks are free; every external sheet counts against
// the budget, and @import chains stop at the depth cap.
type sheetCollector struct {
	client  *Client
	base    string
	visited map[string]bool
	parts   []string
	fetched int
}

// collectStylesheets returns the page's stylesheet text in discovery
// order plus the number of external sheets fetched.
func (c *Client) collectStylesheets(ctx context.Context, doc *html.Node, baseURL string) (string, int) {
	col := &sheetCollector{
		client:  c,
		base:    baseURL,
		visited: map[string]bool{},
	}
	col.walk(ctx, doc)
	return strings.Join(col.parts, "\n"), col.fetched
}

func (sc *sheetCollector) walk(ctx context.Context, n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "style":
			if text := strings.TrimSpace(nodeText(n)); text != "" {
				sc.parts = append(sc.parts, text)
				sc.followImports(ctx, text, sc.base, 0)
			}
		case "link":
			if isStylesheetLink(n) {
				sc.addExternal(ctx, attrVal(n, "href"), sc.base, 0)
			}
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		sc.walk(ctx, child)
	}
}

// addExternal fetches one sheet and follows its imports. depth counts
// import hops below the document; a linked sheet sits at depth 0.
func (sc *sheetCollector) addExternal(ctx context.Context, ref, base string, depth int) {
	abs := resolveRef(base, ref)
	if abs == "" || sc.visited[abs] {
		return
	}
	sc.visited[abs] = true
	if sc.fetched >= sc.client.cfg.MaxSheets {
		sc.client.logger.Debug("stylesheet budget exhausted", "skipped", abs)
		return
	}
	text, ok := sc.client.fetchSheet(ctx, abs)
	if !ok {
		return
	}
	sc.fetched++
	sc.parts = append(sc.parts, text)
	sc.followImports(ctx, text, abs, depth+1)
}

func (sc *sheetCollector) followImports(ctx context.Context, cssText, base string, depth int) {
	if depth > sc.client.cfg.MaxImportDepth {
		return
	}
	for _, ref := range importRefs(cssText) {
		sc.addExternal(ctx, ref, base, depth)
	}
}

// importRefs lists the targets of every @import statement in cssText.
func importRefs(cssText string) []string {
	var refs []string
	for _, m := range importRe.FindAllStringSubmatch(cssText, -1) {
		ref := m[1]
		if ref == "" {
			ref = m[2]
		}
		if ref == "" {
			ref = m[3]
		}
		if ref != "" {
			refs = append(refs, ref)
		}
	}
	return refs
}

// isStylesheetLink reports whether a <link> applies a stylesheet.
// Alternate stylesheets are inert until selected, so they are skipped.
func isStylesheetLink(n *html.Node) bool {
	rel := strings.Fields(strings.ToLower(attrVal(n, "rel")))
	sheet, alternate := false, false
	for _, f := range rel {
		switch f {
		case "stylesheet":
			sheet = true
		case "alternate":
			alternate = true
		}
	}
	return sheet && !alternate && attrVal(n, "href") != ""
}

// resolveRef turns a stylesheet reference into an absolute http(s) URL,
// or "" when the reference cannot be fetched.
func resolveRef(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "data:") || strings.HasPrefix(ref, "javascript:") {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil || b.Scheme == "" {
		return ""
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	abs := b.ResolveReference(r)
	if (abs.Scheme != "http" && abs.Scheme != "https") || abs.Host == "" {
		return ""
	}
	abs.Fragment = ""
	return abs.String()
}

func attrVal(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			b.WriteString(child.Data)
		}
	}
	return b.String()
}
