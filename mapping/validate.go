package mapping

import (
	"fmt"

	"tinta/palette"
)

// IssueLevel separates hard errors from advisories.
type IssueLevel string

const (
	LevelError   IssueLevel = "error"
	LevelWarning IssueLevel = "warning"
)

// Issue is one validator finding, tied to the fact that produced it.
type Issue struct {
	Level   IssueLevel `json:"level"`
	Kind    Kind       `json:"kind"`
	Fact    string     `json:"fact"`
	Message string     `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s %s %q: %s", i.Level, i.Kind, i.Fact, i.Message)
}

// Validation is the outcome of checking one mapping result. Valid is
// false only when at least one error-level issue exists.
type Validation struct {
	Valid     bool    `json:"valid"`
	Issues    []Issue `json:"issues,omitempty"`
	Variables int     `json:"variables"`
	SVGs      int     `json:"svgs"`
	Selectors int     `json:"selectors"`
}

// Validate checks every assigned token against the closed palette set
// and flags duplicate selector mappings. The result is never mutated.
func Validate(res *Result) Validation {
	v := Validation{Valid: true}
	if res == nil {
		return v
	}

	addError := func(kind Kind, fact, msg string) {
		v.Issues = append(v.Issues, Issue{LevelError, kind, fact, msg})
		v.Valid = false
	}
	addWarning := func(kind Kind, fact, msg string) {
		v.Issues = append(v.Issues, Issue{LevelWarning, kind, fact, msg})
	}
	checkToken := func(kind Kind, fact string, tok palette.Token, what string) {
		if tok == "" {
			addError(kind, fact, what+" has no token assigned")
			return
		}
		if !tok.Valid() {
			addError(kind, fact, fmt.Sprintf("%s token %q is not a palette token", what, tok))
		}
	}

	v.Variables = len(res.Variables)
	for _, m := range res.Variables {
		checkToken(KindVariables, m.Name, m.Token, "variable")
	}

	v.SVGs = len(res.SVGs)
	for _, m := range res.SVGs {
		fact := fmt.Sprintf("svg%d %s=%s", m.SVGIndex, m.Attr, m.SourceColor)
		checkToken(KindSVGs, fact, m.Token, "svg color")
	}

	v.Selectors = len(res.Selectors)
	seen := map[string]int{}
	for _, m := range res.Selectors {
		checkToken(KindSelectors, m.Selector, m.Token, "selector")
		m.Properties.Each(func(prop string, tok palette.Token) {
			if !tok.Valid() {
				addError(KindSelectors, m.Selector, fmt.Sprintf("property %s token %q is not a palette token", prop, tok))
			}
		})
		if g := m.Gradient; g != nil {
			if !g.From.Valid() || !g.To.Valid() {
				addError(KindSelectors, m.Selector, fmt.Sprintf("gradient tokens %q..%q are not palette tokens", g.From, g.To))
			}
		}
		seen[m.Selector]++
	}
	for _, m := range res.Selectors {
		if seen[m.Selector] > 1 {
			addWarning(KindSelectors, m.Selector,
				fmt.Sprintf("selector mapped %d times, later rules win in the output", seen[m.Selector]))
			seen[m.Selector] = 0
		}
	}
	return v
}
