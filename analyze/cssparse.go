package analyze

import (
	"strings"

	cssast "github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
)

type cssDecl struct {
	property  string
	value     string
	important bool
}

// ruleBlock is one qualified rule with its comma-split selectors, flattened
// out of any enclosing @media/@supports block.
type ruleBlock struct {
	selectors []string
	decls     []cssDecl
	media     string
}

const maxNestDepth = 8

// parseRuleBlocks parses stylesheet text into flat rule blocks. It prefers
// the real parser and falls back to a brace scanner when the sheet as a
// whole does not parse, so one broken fragment cannot empty the analysis.
func parseRuleBlocks(css string) []ruleBlock {
	trimmed := strings.TrimSpace(css)
	if trimmed == "" {
		return nil
	}
	sheet, err := parser.Parse(trimmed)
	if err != nil {
		return scanRuleBlocks(trimmed)
	}

	var out []ruleBlock
	var walk func(list []*cssast.Rule, media string, depth int)
	walk = func(list []*cssast.Rule, media string, depth int) {
		if depth > maxNestDepth {
			return
		}
		for _, rule := range list {
			if rule == nil {
				continue
			}
			switch rule.Kind {
			case cssast.AtRule:
				name := strings.ToLower(strings.TrimSpace(rule.Name))
				switch name {
				case "@media":
					walk(rule.Rules, strings.TrimSpace(rule.Prelude), depth+1)
				case "@supports":
					walk(rule.Rules, media, depth+1)
				case "@keyframes", "@-webkit-keyframes", "@font-face", "@page", "@counter-style":
					// no element selectors inside
				default:
					if rule.EmbedsRules() {
						walk(rule.Rules, media, depth+1)
					}
				}
			case cssast.QualifiedRule:
				decls := convertDecls(rule.Declarations)
				if len(decls) == 0 || len(rule.Selectors) == 0 {
					continue
				}
				sels := make([]string, 0, len(rule.Selectors))
				for _, s := range rule.Selectors {
					if s = strings.TrimSpace(s); s != "" {
						sels = append(sels, s)
					}
				}
				if len(sels) == 0 {
					continue
				}
				out = append(out, ruleBlock{selectors: sels, decls: decls, media: media})
			}
		}
	}
	walk(sheet.Rules, "", 0)
	return out
}

func convertDecls(list []*cssast.Declaration) []cssDecl {
	if len(list) == 0 {
		return nil
	}
	out := make([]cssDecl, 0, len(list))
	for _, decl := range list {
		if decl == nil {
			continue
		}
		prop := strings.ToLower(strings.TrimSpace(decl.Property))
		if prop == "" {
			continue
		}
		val := strings.TrimSpace(decl.Value)
		if val == "" {
			continue
		}
		out = append(out, cssDecl{property: prop, value: val, important: decl.Important})
	}
	return out
}

// parseDeclList parses a declaration list (rule body or style attribute).
func parseDeclList(s string) []cssDecl {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if decls, err := parser.ParseDeclarations(s); err == nil {
		return convertDecls(decls)
	}
	var out []cssDecl
	for _, part := range strings.Split(s, ";") {
		colon := strings.IndexByte(part, ':')
		if colon <= 0 {
			continue
		}
		prop := strings.ToLower(strings.TrimSpace(part[:colon]))
		val := strings.TrimSpace(part[colon+1:])
		important := false
		if i := strings.Index(strings.ToLower(val), "!important"); i >= 0 {
			important = true
			val = strings.TrimSpace(val[:i])
		}
		if prop == "" || val == "" {
			continue
		}
		out = append(out, cssDecl{property: prop, value: val, important: important})
	}
	return out
}

func scanRuleBlocks(css string) []ruleBlock {
	var out []ruleBlock
	var scan func(text, media string, depth int)
	scan = func(text, media string, depth int) {
		if depth > maxNestDepth {
			return
		}
		i := 0
		for i < len(text) {
			open := strings.IndexByte(text[i:], '{')
			if open < 0 {
				return
			}
			open += i
			selector := strings.TrimSpace(text[i:open])
			if k := strings.LastIndexAny(selector, "};"); k >= 0 {
				selector = strings.TrimSpace(selector[k+1:])
			}
			end := findBlockEnd(text, open)
			if end < 0 {
				return
			}
			body := text[open+1 : end]
			i = end + 1
			if selector == "" {
				continue
			}
			if strings.HasPrefix(selector, "@") {
				low := strings.ToLower(selector)
				switch {
				case strings.HasPrefix(low, "@media"):
					scan(body, strings.TrimSpace(selector[len("@media"):]), depth+1)
				case strings.HasPrefix(low, "@supports"):
					scan(body, media, depth+1)
				}
				continue
			}
			if strings.ContainsRune(body, '{') {
				// nested braces under a non-at selector: not a plain rule
				continue
			}
			decls := parseDeclList(body)
			if len(decls) == 0 {
				continue
			}
			var sels []string
			for _, s := range strings.Split(selector, ",") {
				if s = strings.TrimSpace(s); s != "" {
					sels = append(sels, s)
				}
			}
			if len(sels) == 0 {
				continue
			}
			out = append(out, ruleBlock{selectors: sels, decls: decls, media: media})
		}
	}
	scan(stripCSSComments(css), "", 0)
	return out
}

// findBlockEnd returns the index of the brace closing the block opened at
// open, or -1.
func findBlockEnd(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func stripCSSComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for {
		start := strings.Index(s, "/*")
		if start < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:start])
		end := strings.Index(s[start+2:], "*/")
		if end < 0 {
			return b.String()
		}
		s = s[start+2+end+2:]
	}
}

func (r ruleBlock) value(property string) (string, bool) {
	for i := len(r.decls) - 1; i >= 0; i-- {
		if r.decls[i].property == property {
			return r.decls[i].value, true
		}
	}
	return "", false
}
