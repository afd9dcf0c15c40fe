package theme

import (
	"fmt"
	"regexp"
	"strings"

	"tinta/palette"
)

// Level grades one validation finding.
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
)

// Issue is one finding from output validation.
type Issue struct {
	Level   Level  `json:"level"`
	Line    int    `json:"line,omitempty"`
	Context string `json:"context,omitempty"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Context != "" {
		return fmt.Sprintf("%s: %s: %s", i.Level, i.Context, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.Level, i.Message)
}

// Validation is the output validator's verdict. Valid is false only
// when an error-level issue exists.
type Validation struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues,omitempty"`
}

// ValidateOutput checks a rendered theme: document structure plus the
// coverage recorded at generation time. Pure function of its input, so
// re-running yields an identical issue list.
func ValidateOutput(t *Theme) Validation {
	if t == nil {
		return Validation{Valid: true}
	}
	v := ValidateText(t.Text)
	st := t.Stats
	if st.Variables.Total == 0 && st.SVGs.Total == 0 && st.Selectors.Total == 0 {
		v.Issues = append(v.Issues, Issue{
			Level:   LevelWarning,
			Message: "zero coverage: no variables, svgs or selectors were mapped",
		})
	}
	return v
}

// ValidateText checks document structure alone: brace balance,
// declaration shape, duplicate blocks and token resolution.
func ValidateText(text string) Validation {
	src := stripComments(text)
	issues := scanDocument(src)
	issues = append(issues, checkTokens(src)...)
	v := Validation{Valid: true, Issues: issues}
	for _, is := range issues {
		if is.Level == LevelError {
			v.Valid = false
			break
		}
	}
	return v
}

// stripComments blanks /* */ and // comments, leaving strings intact.
// Newlines survive so later findings keep their line numbers.
func stripComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' && i+1 < len(s) {
				b.WriteByte(c)
				i++
				b.WriteByte(s[i])
				continue
			}
			if c == quote {
				quote = 0
			}
			b.WriteByte(c)
		case c == '"' || c == '\'':
			quote = c
			b.WriteByte(c)
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				return b.String()
			}
			for _, r := range s[i : i+end+4] {
				if r == '\n' {
					b.WriteByte('\n')
				} else {
					b.WriteByte(' ')
				}
			}
			i += end + 3
		case c == '/' && i+1 < len(s) && s[i+1] == '/':
			j := strings.IndexByte(s[i:], '\n')
			if j < 0 {
				return b.String()
			}
			for k := 0; k < j; k++ {
				b.WriteByte(' ')
			}
			i += j - 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// atStatements are statement-level at-rules whose bodies are not
// property declarations.
var atStatements = [...]string{"@import", "@charset", "@namespace", "@plugin"}

// scanDocument walks statements and blocks, checking brace balance,
// declaration shape and duplicate block headers.
func scanDocument(src string) []Issue {
	var issues []Issue
	var stmt strings.Builder
	var quote byte
	depth := 0
	line := 1
	stmtLine := 1
	seen := map[string]int{}
	var headers []string

	checkDecl := func() {
		text := strings.TrimSpace(stmt.String())
		stmt.Reset()
		if text == "" {
			issues = append(issues, Issue{Level: LevelWarning, Line: stmtLine, Message: "empty declaration"})
			return
		}
		for _, at := range atStatements {
			if strings.HasPrefix(text, at) {
				return
			}
		}
		colon := strings.IndexByte(text, ':')
		if colon < 0 {
			// Mixin invocation or other bare statement.
			return
		}
		name := strings.TrimSpace(text[:colon])
		value := strings.TrimSpace(text[colon+1:])
		switch {
		case name == "" || strings.ContainsAny(name, " \t"):
			issues = append(issues, Issue{Level: LevelError, Line: stmtLine, Context: text, Message: "malformed property name"})
		case value == "" || value == "!important":
			issues = append(issues, Issue{Level: LevelWarning, Line: stmtLine, Context: name, Message: "empty property value"})
		}
	}

	for i := 0; i < len(src); i++ {
		c := src[i]
		if c == '\n' {
			line++
		}
		if quote != 0 {
			if c == '\\' && i+1 < len(src) {
				stmt.WriteByte(c)
				i++
				stmt.WriteByte(src[i])
				continue
			}
			if c == quote {
				quote = 0
			}
			stmt.WriteByte(c)
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
			stmt.WriteByte(c)
		case '{':
			head := strings.TrimSpace(stmt.String())
			stmt.Reset()
			depth++
			if head != "" && head[0] != '@' && head[0] != '#' {
				if seen[head] == 0 {
					headers = append(headers, head)
				}
				seen[head]++
			}
		case '}':
			if rest := strings.TrimSpace(stmt.String()); rest != "" {
				// Last declaration in a block may omit its semicolon.
				checkDecl()
			}
			stmt.Reset()
			depth--
			if depth < 0 {
				issues = append(issues, Issue{Level: LevelError, Line: line, Message: "unbalanced braces: unexpected closing brace"})
				depth = 0
			}
		case ';':
			checkDecl()
		default:
			if stmt.Len() == 0 && (c == ' ' || c == '\t' || c == '\n' || c == '\r') {
				continue
			}
			if stmt.Len() == 0 {
				stmtLine = line
			}
			stmt.WriteByte(c)
		}
	}
	if depth > 0 {
		issues = append(issues, Issue{Level: LevelError, Line: line, Message: fmt.Sprintf("unbalanced braces: %d unclosed block(s)", depth)})
	}
	for _, head := range headers {
		if n := seen[head]; n > 1 {
			issues = append(issues, Issue{Level: LevelWarning, Context: head, Message: fmt.Sprintf("selector block appears %d times, later rules win", n)})
		}
	}
	return issues
}

// atKeywords are at-rule names that read like token references to the
// scanner.
var atKeywords = map[string]bool{
	"import": true, "media": true, "supports": true, "charset": true,
	"keyframes": true, "font-face": true, "-moz-document": true,
	"document": true, "page": true, "namespace": true, "plugin": true,
}

var (
	defRe   = regexp.MustCompile(`@(-?[A-Za-z][A-Za-z0-9_-]*)\s*:`)
	paramRe = regexp.MustCompile(`[#.][A-Za-z0-9_-]+\s*\(\s*@(-?[A-Za-z][A-Za-z0-9_-]*)`)
)

// localDefs collects names the document itself defines: @name:
// declarations and mixin parameters.
func localDefs(src string) map[string]bool {
	out := map[string]bool{}
	for _, m := range defRe.FindAllStringSubmatch(src, -1) {
		out[strings.ToLower(m[1])] = true
	}
	for _, m := range paramRe.FindAllStringSubmatch(src, -1) {
		out[strings.ToLower(m[1])] = true
	}
	return out
}

func knownToken(name string, defined map[string]bool) bool {
	low := strings.ToLower(name)
	if atKeywords[low] || defined[low] {
		return true
	}
	if palette.Token(low).Valid() {
		return true
	}
	_, isFlavor := palette.ParseFlavor(low)
	return isFlavor
}

// checkTokens resolves every palette reference in the stripped source.
// Inside strings only interpolations count; a bare @ in a data URI is
// payload, not a reference.
func checkTokens(src string) []Issue {
	defined := localDefs(src)
	var issues []Issue
	reported := map[string]bool{}
	report := func(line int, ref, name string) {
		if knownToken(name, defined) || reported[name] {
			return
		}
		reported[name] = true
		issues = append(issues, Issue{Level: LevelError, Line: line, Context: ref, Message: "unknown token"})
	}

	var quote byte
	line := 1
	for i := 0; i < len(src); i++ {
		c := src[i]
		if c == '\n' {
			line++
			continue
		}
		if quote != 0 {
			if c == '\\' && i+1 < len(src) {
				i++
				continue
			}
			if c == quote {
				quote = 0
				continue
			}
			if c == '@' {
				if name, end := interpName(src, i); name != "" {
					report(line, "@{"+name+"}", name)
					i = end
				}
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '@':
			if name, end, ref := refName(src, i); name != "" {
				report(line, ref, name)
				i = end
			}
		}
	}
	return issues
}

// refName reads a bare @name or @{name} reference starting at i,
// returning the name, the index of its last byte and the literal text.
func refName(src string, i int) (string, int, string) {
	if i+1 < len(src) && src[i+1] == '{' {
		name, end := interpName(src, i)
		if name == "" {
			return "", i, ""
		}
		return name, end, "@{" + name + "}"
	}
	j := i + 1
	if j < len(src) && src[j] == '-' {
		j++
	}
	start := i + 1
	for j < len(src) && isNameByte(src[j]) {
		j++
	}
	if j == start || (j == start+1 && src[start] == '-') {
		return "", i, ""
	}
	return src[start:j], j - 1, "@" + src[start:j]
}

// interpName reads the name inside an @{...} interpolation at i.
func interpName(src string, i int) (string, int) {
	if i+1 >= len(src) || src[i+1] != '{' {
		return "", i
	}
	j := i + 2
	start := j
	for j < len(src) && isNameByte(src[j]) {
		j++
	}
	if j == start || j >= len(src) || src[j] != '}' {
		return "", i
	}
	return src[start:j], j
}

func isNameByte(c byte) bool {
	return c == '-' || c == '_' ||
		(c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
