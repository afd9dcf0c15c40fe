package analyze

import (
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// VariableScope says where a custom property was declared.
type VariableScope string

const (
	ScopeRoot    VariableScope = "root"
	ScopeClass   VariableScope = "class"
	ScopeElement VariableScope = "element"
)

// Variable is one discovered custom property with its resolved color value
// and usage sites.
type Variable struct {
	Name          string        `json:"name"`
	Value         string        `json:"value"`
	ComputedValue string        `json:"computedValue,omitempty"`
	Scope         VariableScope `json:"scope"`
	Selector      string        `json:"selector,omitempty"`
	Usage         []string      `json:"usage,omitempty"`
	Frequency     int           `json:"frequency"`
}

type varDecl struct {
	name     string
	value    string
	scope    VariableScope
	selector string
}

const maxVarResolveDepth = 8

// ExtractVariables collects custom-property declarations from stylesheet
// rules and inline style attributes, resolves each to a canonical hex color
// where possible, and attributes var() usage back to enclosing selectors.
func ExtractVariables(doc *html.Node, cssText string) []Variable {
	blocks := parseRuleBlocks(cssText)

	var decls []varDecl
	for _, blk := range blocks {
		scope, owner := declScope(blk.selectors)
		for _, d := range blk.decls {
			if !strings.HasPrefix(d.property, "--") {
				continue
			}
			decls = append(decls, varDecl{name: d.property, value: d.value, scope: scope, selector: owner})
		}
	}

	walkNodes(doc, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		style := getAttr(n, "style")
		if style == "" || !strings.Contains(style, "--") {
			return
		}
		for _, d := range parseDeclList(style) {
			if !strings.HasPrefix(d.property, "--") {
				continue
			}
			decls = append(decls, varDecl{name: d.property, value: d.value, scope: ScopeElement, selector: nodeDescriptor(n)})
		}
	})

	if len(decls) == 0 {
		return nil
	}

	// Resolution table. Root declarations win over scoped ones; within a
	// scope the first declaration sticks, matching how the themed page
	// would usually resolve them.
	table := map[string]string{}
	rootPinned := map[string]bool{}
	for _, d := range decls {
		if _, seen := table[d.name]; !seen {
			table[d.name] = d.value
			rootPinned[d.name] = d.scope == ScopeRoot
			continue
		}
		if d.scope == ScopeRoot && !rootPinned[d.name] {
			table[d.name] = d.value
			rootPinned[d.name] = true
		}
	}

	merged := map[string]*Variable{}
	var order []string
	for _, d := range decls {
		v, ok := merged[d.name]
		if !ok {
			v = &Variable{Name: d.name, Value: d.value, Scope: d.scope, Selector: d.selector}
			merged[d.name] = v
			order = append(order, d.name)
			continue
		}
		// Root-scoped declarations take over the fact.
		if d.scope == ScopeRoot && v.Scope != ScopeRoot {
			v.Value = d.value
			v.Scope = ScopeRoot
			v.Selector = d.selector
		}
	}

	for _, name := range order {
		v := merged[name]
		v.ComputedValue = resolveVariable(table, name, 0)
	}

	attributeUsage(merged, cssText, doc)

	out := make([]Variable, 0, len(order))
	for _, name := range order {
		out = append(out, *merged[name])
	}
	return out
}

func declScope(selectors []string) (VariableScope, string) {
	owner := ""
	if len(selectors) > 0 {
		owner = selectors[0]
	}
	for _, s := range selectors {
		low := strings.ToLower(strings.TrimSpace(s))
		if low == ":root" || low == "html" || low == "html:root" || low == ":host" {
			return ScopeRoot, s
		}
	}
	return ScopeClass, owner
}

// resolveVariable follows var() references through the declaration table
// and normalizes the result to canonical hex. Non-color values resolve to
// the empty string.
func resolveVariable(table map[string]string, name string, depth int) string {
	if depth > maxVarResolveDepth {
		return ""
	}
	value, ok := table[name]
	if !ok {
		return ""
	}
	value = strings.TrimSpace(value)
	if ref, fallback, ok := splitVarRef(value); ok {
		if resolved := resolveVariable(table, ref, depth+1); resolved != "" {
			return resolved
		}
		return CSSToHex(fallback)
	}
	return CSSToHex(value)
}

// splitVarRef decomposes "var(--name, fallback)" expressions.
func splitVarRef(value string) (name, fallback string, ok bool) {
	low := strings.ToLower(value)
	if !strings.HasPrefix(low, "var(") {
		return "", "", false
	}
	close := strings.LastIndexByte(value, ')')
	if close < 0 {
		return "", "", false
	}
	inner := value[len("var("):close]
	if comma := strings.IndexByte(inner, ','); comma >= 0 {
		return strings.TrimSpace(inner[:comma]), strings.TrimSpace(inner[comma+1:]), true
	}
	return strings.TrimSpace(inner), "", true
}

func attributeUsage(merged map[string]*Variable, cssText string, doc *html.Node) {
	for name, v := range merged {
		needle := "var(" + name
		sites := map[string]struct{}{}
		count := 0
		for i := 0; ; {
			j := strings.Index(cssText[i:], needle)
			if j < 0 {
				break
			}
			pos := i + j
			// "var(--brand" also matches "var(--brand-alt"; require a
			// terminator right after the name.
			after := pos + len(needle)
			if after < len(cssText) {
				c := cssText[after]
				if c != ')' && c != ',' && c != ' ' && c != '\t' && c != '\n' {
					i = after
					continue
				}
			}
			count++
			if sel := enclosingSelector(cssText, pos); sel != "" {
				sites[sel] = struct{}{}
			}
			i = after
		}
		walkNodes(doc, func(n *html.Node) {
			if n.Type != html.ElementNode {
				return
			}
			style := getAttr(n, "style")
			if style == "" || !strings.Contains(style, needle) {
				return
			}
			count++
			if d := nodeDescriptor(n); d != "" {
				sites[d] = struct{}{}
			}
		})
		v.Frequency = count
		if len(sites) > 0 {
			v.Usage = make([]string, 0, len(sites))
			for s := range sites {
				v.Usage = append(v.Usage, s)
			}
			sort.Strings(v.Usage)
		}
	}
}

// enclosingSelector walks back from pos to the block opener and returns the
// selector text in front of it.
func enclosingSelector(text string, pos int) string {
	open := strings.LastIndexByte(text[:pos], '{')
	if open < 0 {
		return ""
	}
	start := strings.LastIndexAny(text[:open], "{};")
	sel := strings.TrimSpace(text[start+1 : open])
	if sel == "" || strings.HasPrefix(sel, "@") {
		return ""
	}
	return sel
}
