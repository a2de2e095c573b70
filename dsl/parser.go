package dsl

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	dslLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{8}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{3})\b`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Number", Pattern: `(?:\d+\.\d+|\d+)(?:pt|mm|cm|in)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[][,;:]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	jobParser = participle.MustBuild[Job](
		participle.Lexer(dslLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
	)
)

// Job is the root AST node for a .labeljob file.
type Job struct {
	Pos      lexer.Position `parser:"" json:"-"`
	Name     StringLiteral  `parser:"Newline* 'job' @String"`
	Sections []*Section     `parser:"'{' Newline* ( @@ Newline* )* '}' Newline*"`
}

// Section represents a top-level section (canvas/palette/document/output).
type Section struct {
	Canvas   *CanvasSection   `parser:"  @@"`
	Palette  *PaletteSection  `parser:"| @@"`
	Document *DocumentSection `parser:"| @@"`
	Output   *OutputSection   `parser:"| @@"`
}

// Kind returns the human-readable section type.
func (s *Section) Kind() string {
	switch {
	case s == nil:
		return "unknown"
	case s.Canvas != nil:
		return "canvas"
	case s.Palette != nil:
		return "palette"
	case s.Document != nil:
		return "document"
	case s.Output != nil:
		return "output"
	default:
		return "unknown"
	}
}

// Body returns the section's block regardless of its kind.
func (s *Section) Body() *Block {
	switch {
	case s == nil:
		return nil
	case s.Canvas != nil:
		return s.Canvas.Block
	case s.Palette != nil:
		return s.Palette.Block
	case s.Document != nil:
		return s.Document.Block
	case s.Output != nil:
		return s.Output.Block
	default:
		return nil
	}
}

// CanvasSection overrides the packing canvas (sizes, columns, spacing).
type CanvasSection struct {
	Block *Block `parser:"'canvas' @@"`
}

// PaletteSection maps color names to color values.
type PaletteSection struct {
	Block *Block `parser:"'palette' @@"`
}

// DocumentSection configures the printable document (logo, header, footer, font).
type DocumentSection struct {
	Block *Block `parser:"'document' @@"`
}

// OutputSection selects formats and concurrency.
type OutputSection struct {
	Block *Block `parser:"'output' @@"`
}

// Block is a delimited list of key/value assignments.
type Block struct {
	Assignments []*Assignment `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Lookup returns the last assignment for key, so later lines override earlier ones.
func (b *Block) Lookup(key string) (*Assignment, bool) {
	if b == nil {
		return nil, false
	}
	for i := len(b.Assignments) - 1; i >= 0; i-- {
		if string(b.Assignments[i].Key) == key {
			return b.Assignments[i], true
		}
	}
	return nil, false
}

// Assignment uses colon syntax (key: value). Keys may be quoted to allow spaces.
type Assignment struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Key   Key            `parser:"@( Ident | String )"`
	Value *Value         `parser:"':' Newline* @@"`
}

// Value represents a property value.
type Value struct {
	String *StringLiteral `parser:"  @String"`
	Number *string        `parser:"| @Number"`
	Color  *string        `parser:"| @Color"`
	Ident  *string        `parser:"| @Ident"`
	Array  *ArrayValue    `parser:"| @@"`
}

// ArrayValue captures `[ ... ]` expressions.
type ArrayValue struct {
	Values []*Value `parser:"'[' Newline* ( @@ ( (',' | ';' | Newline+) Newline* @@ )* )? Newline* ']'"`
}

// Raw returns the scalar text of the value: strings unquoted, numbers with their unit,
// arrays joined by commas.
func (v *Value) Raw() string {
	switch {
	case v == nil:
		return ""
	case v.String != nil:
		return string(*v.String)
	case v.Number != nil:
		return *v.Number
	case v.Color != nil:
		return *v.Color
	case v.Ident != nil:
		return *v.Ident
	case v.Array != nil:
		return strings.Join(v.List(), ",")
	default:
		return ""
	}
}

// List returns array elements as raw strings; a scalar becomes a one-element list.
func (v *Value) List() []string {
	if v == nil {
		return nil
	}
	if v.Array == nil {
		return []string{v.Raw()}
	}
	out := make([]string, 0, len(v.Array.Values))
	for _, item := range v.Array.Values {
		out = append(out, item.Raw())
	}
	return out
}

// Key is an assignment key; quoted keys are unquoted on capture.
type Key string

// Capture implements participle.Capture.
func (k *Key) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("key capture requires value")
	}
	val := values[0]
	if strings.HasPrefix(val, `"`) {
		unquoted, err := strconv.Unquote(val)
		if err != nil {
			return err
		}
		val = unquoted
	}
	*k = Key(val)
	return nil
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Parse parses a job file from an io.Reader. filename is only used in error positions.
func Parse(filename string, r io.Reader) (*Job, error) {
	return jobParser.Parse(filename, r)
}

// ParseString parses job content from a string.
func ParseString(input string) (*Job, error) {
	return jobParser.ParseString("", input)
}
