package emitter

import (
	"fmt"
	"strings"

	"github.com/usestring/powhttp-sdkgen/pkg/ident"
)

// Printer accumulates indented source lines.
type Printer struct {
	b      strings.Builder
	unit   string
	indent int
}

// NewPrinter creates a Printer indenting with unit ("\t", "    ", ...).
func NewPrinter(unit string) *Printer {
	return &Printer{unit: unit}
}

// Line writes text verbatim as one line at the current indentation.
func (p *Printer) Line(text string) {
	if text == "" {
		p.b.WriteString("\n")
		return
	}
	p.b.WriteString(strings.Repeat(p.unit, p.indent))
	p.b.WriteString(text)
	p.b.WriteString("\n")
}

// Linef writes one formatted line at the current indentation.
func (p *Printer) Linef(format string, args ...any) {
	p.Line(fmt.Sprintf(format, args...))
}

// Blank writes an empty line.
func (p *Printer) Blank() { p.b.WriteString("\n") }

// In increases the indentation.
func (p *Printer) In() { p.indent++ }

// Out decreases the indentation.
func (p *Printer) Out() {
	if p.indent > 0 {
		p.indent--
	}
}

// Bytes returns the accumulated source.
func (p *Printer) Bytes() []byte { return []byte(p.b.String()) }

// String returns the accumulated source.
func (p *Printer) String() string { return p.b.String() }

// PackageName derives a lowercase package name from a title, e.g.
// "Shop API" -> "shop_api" with sep "_".
func PackageName(title, sep string) string {
	words := ident.Words(title)
	if len(words) == 0 {
		return "client"
	}
	if ident.StartsWithDigit(words[0]) {
		words = append([]string{"api"}, words...)
	}
	return strings.Join(words, sep)
}

// GeneratedHeader is the first comment line of every generated source file.
func GeneratedHeader() string {
	return "Code generated by " + GeneratorName + ". DO NOT EDIT."
}
