package analyze

import (
	"strings"

	"golang.org/x/net/html"
)

func getAttr(n *html.Node, name string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}

func walkNodes(n *html.Node, fn func(*html.Node)) {
	if n == nil {
		return
	}
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkNodes(c, fn)
	}
}

// nodeDescriptor builds a short selector-ish label for an element,
// preferring id, then first class, then the bare tag.
func nodeDescriptor(n *html.Node) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}
	tag := strings.ToLower(n.Data)
	if id := strings.TrimSpace(getAttr(n, "id")); id != "" {
		return tag + "#" + id
	}
	if cls := strings.Fields(getAttr(n, "class")); len(cls) > 0 {
		return tag + "." + cls[0]
	}
	return tag
}

func parseHTML(htmlText string) *html.Node {
	if strings.TrimSpace(htmlText) == "" {
		return nil
	}
	doc, err := html.Parse(strings.NewReader(htmlText))
	if err != nil {
		return nil
	}
	return doc
}
