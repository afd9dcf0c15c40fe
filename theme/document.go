package theme

import (
	"fmt"
	"strings"
)

// document accumulates the generated stylesheet line by line. The small
// emit methods keep the renderers flat; build seals the text and the
// named section slices.
type document struct {
	b       strings.Builder
	depth   int
	notes   bool
	section string
	start   int
	parts   map[string]string
}

func newDocument(notes bool) *document {
	return &document{notes: notes, parts: map[string]string{}}
}

func (d *document) line(s string) {
	for i := 0; i < d.depth; i++ {
		d.b.WriteString("  ")
	}
	d.b.WriteString(s)
	d.b.WriteByte('\n')
}

func (d *document) linef(format string, args ...any) {
	d.line(fmt.Sprintf(format, args...))
}

func (d *document) blank() {
	d.b.WriteByte('\n')
}

func (d *document) comment(s string) {
	d.line("/* " + s + " */")
}

// note emits a justification comment, only when verbose output is on.
// Justification text comes from a remote classifier and must not be able
// to end the comment early.
func (d *document) note(s string) {
	if !d.notes || s == "" {
		return
	}
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "*/", "* /")
	d.comment(s)
}

func (d *document) open(head string) {
	d.line(head + " {")
	d.depth++
}

func (d *document) close() {
	if d.depth > 0 {
		d.depth--
	}
	d.line("}")
}

func (d *document) decl(property, value string) {
	d.line(property + ": " + value + ";")
}

func (d *document) declImportant(property, value string) {
	d.line(property + ": " + value + " !important;")
}

// begin starts recording a named output section; end seals it. Sections
// never nest.
func (d *document) begin(name string) {
	d.section = name
	d.start = d.b.Len()
}

func (d *document) end() {
	if d.section == "" {
		return
	}
	d.parts[d.section] = d.b.String()[d.start:d.b.Len()]
	d.section = ""
}

func (d *document) build() (string, map[string]string) {
	return d.b.String(), d.parts
}
