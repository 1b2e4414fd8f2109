// Package catalog defines the field catalogue that drives extraction: which
// clinical fields exist, how their labels are spelled in documents, what their
// values look like, and which extra output keys mirror them.
package catalog

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrInvalidCatalog is returned when a catalogue definition cannot be built.
var ErrInvalidCatalog = errors.New("catalog: invalid definition")

// Shape describes the syntax of a field's value.
type Shape string

const (
	ShapeInteger Shape = "integer" // digits only
	ShapeDecimal Shape = "decimal" // digits with an optional fractional part
	ShapeWord    Shape = "word"    // a single word, preferring Vocabulary entries
	ShapeBoolean Shape = "boolean" // Yes/No, any single word accepted
	ShapePair    Shape = "pair"    // slash-delimited numeric pair, e.g. 120/80
)

var valuePatterns = map[Shape]string{
	ShapeInteger: `\d+`,
	ShapeDecimal: `\d+(?:\.\d+)?`,
	ShapePair:    `\d+/\d+`,
}

var booleanVocabulary = []string{"Yes", "No"}

// sp matches one whitespace rune, including Unicode space separators that
// RE2's \s leaves out.
const sp = `[\s\p{Zs}]`

// FieldSpec is one catalogue record.
type FieldSpec struct {
	Name string `json:"name" yaml:"name"`

	// Labels are alternative spellings of the field label, tried as a single
	// alternation in the given order.
	Labels []string `json:"labels" yaml:"labels"`

	// Abbreviations restrict the optional parenthetical after the label,
	// e.g. "BP" in "Blood Pressure (BP)". Empty accepts any parenthetical.
	Abbreviations []string `json:"abbreviations,omitempty" yaml:"abbreviations,omitempty"`

	Shape      Shape    `json:"shape" yaml:"shape"`
	Vocabulary []string `json:"vocabulary,omitempty" yaml:"vocabulary,omitempty"`

	// RequireColon makes the colon between label and value mandatory. Word
	// shaped fields need it so that "Diabetes Pedigree" is not read as
	// Diabetes = "Pedigree".
	RequireColon bool `json:"require_colon,omitempty" yaml:"require_colon,omitempty"`

	// Pattern replaces the generated expression. It must contain exactly one
	// capture group.
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`

	// Aliases are extra output keys that carry this field's value.
	Aliases []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

// AliasRule mirrors a canonical field's value into additional output keys.
type AliasRule struct {
	Field string   `json:"field" yaml:"field"`
	Keys  []string `json:"keys" yaml:"keys"`
}

// Field is a compiled FieldSpec.
type Field struct {
	spec FieldSpec
	re   *regexp.Regexp
}

// Name returns the canonical output key.
func (f *Field) Name() string { return f.spec.Name }

// Spec returns a copy of the definition the field was compiled from.
func (f *Field) Spec() FieldSpec {
	s := f.spec
	s.Labels = append([]string(nil), f.spec.Labels...)
	s.Abbreviations = append([]string(nil), f.spec.Abbreviations...)
	s.Vocabulary = append([]string(nil), f.spec.Vocabulary...)
	s.Aliases = append([]string(nil), f.spec.Aliases...)
	return s
}

// Expr returns the compiled expression source.
func (f *Field) Expr() string { return f.re.String() }

// Match returns the value captured at the leftmost match in text.
func (f *Field) Match(text string) (string, bool) {
	m := f.re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func compile(spec FieldSpec) (*Field, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("%w: field without a name", ErrInvalidCatalog)
	}

	var expr string
	if spec.Pattern != "" {
		expr = spec.Pattern
	} else {
		var err error
		expr, err = buildExpr(spec)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrInvalidCatalog, spec.Name, err)
		}
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: field %q: %v", ErrInvalidCatalog, spec.Name, err)
	}
	if re.NumSubexp() != 1 {
		return nil, fmt.Errorf("%w: field %q: pattern needs exactly one capture group, has %d",
			ErrInvalidCatalog, spec.Name, re.NumSubexp())
	}
	return &Field{spec: spec, re: re}, nil
}

// buildExpr assembles
//
//	(?i)\b(?:label|...)(?:\s*\((?:abbr|...)\))?\s*:?\s*(value)
//
// Label matching is case-insensitive; the captured text is returned as it
// appears in the document.
func buildExpr(spec FieldSpec) (string, error) {
	if len(spec.Labels) == 0 {
		return "", errors.New("no labels")
	}

	value, err := valueExpr(spec)
	if err != nil {
		return "", err
	}

	labels := make([]string, 0, len(spec.Labels))
	for _, l := range spec.Labels {
		l = strings.TrimSpace(l)
		if l == "" {
			return "", errors.New("empty label")
		}
		labels = append(labels, labelExpr(l))
	}

	abbr := `[^)]*`
	if len(spec.Abbreviations) > 0 {
		quoted := make([]string, 0, len(spec.Abbreviations))
		for _, a := range spec.Abbreviations {
			quoted = append(quoted, labelExpr(strings.TrimSpace(a)))
		}
		abbr = "(?:" + strings.Join(quoted, "|") + ")"
	}

	colon := `:?`
	if spec.RequireColon {
		colon = `:`
	}

	var b strings.Builder
	b.WriteString(`(?i)`)
	b.WriteString(`(?:`)
	b.WriteString(strings.Join(labels, "|"))
	b.WriteString(`)`)
	b.WriteString(`(?:` + sp + `*\(` + sp + `*` + abbr + sp + `*\))?`)
	b.WriteString(sp + `*` + colon + sp + `*`)
	b.WriteString(`(` + value + `)`)
	return b.String(), nil
}

// labelExpr quotes a label, lets its inner spaces match any whitespace run
// and anchors it on a word boundary so "Age" does not match inside "Stage".
func labelExpr(label string) string {
	words := strings.Fields(label)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	expr := strings.Join(words, sp+`+`)
	if r, _ := utf8.DecodeRuneInString(label); isWordRune(r) {
		expr = `\b` + expr
	}
	return expr
}

func valueExpr(spec FieldSpec) (string, error) {
	switch spec.Shape {
	case ShapeInteger, ShapeDecimal, ShapePair:
		return valuePatterns[spec.Shape], nil
	case ShapeBoolean:
		return wordExpr(booleanVocabulary), nil
	case ShapeWord:
		return wordExpr(spec.Vocabulary), nil
	case "":
		return "", errors.New("missing shape")
	default:
		return "", fmt.Errorf("unknown shape %q", spec.Shape)
	}
}

// wordExpr prefers vocabulary entries and falls back to any single word.
// The trailing boundary stops "Yes" from matching the head of "Yesterday".
func wordExpr(vocab []string) string {
	alts := make([]string, 0, len(vocab)+1)
	for _, v := range vocab {
		alts = append(alts, regexp.QuoteMeta(v))
	}
	alts = append(alts, `\w+`)
	return `(?:` + strings.Join(alts, "|") + `)\b`
}

func isWordRune(r rune) bool {
	return r == '_' || (r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r)))
}

// Catalog is an immutable, ordered set of compiled fields and alias rules.
// It is safe for concurrent use.
type Catalog struct {
	fields  []*Field
	aliases []AliasRule
}

// Fields returns the compiled fields in evaluation order.
func (c *Catalog) Fields() []*Field {
	return append([]*Field(nil), c.fields...)
}

// Aliases returns the alias rules in application order.
func (c *Catalog) Aliases() []AliasRule {
	out := make([]AliasRule, len(c.aliases))
	for i, a := range c.aliases {
		out[i] = AliasRule{Field: a.Field, Keys: append([]string(nil), a.Keys...)}
	}
	return out
}

// Len returns the number of canonical fields.
func (c *Catalog) Len() int { return len(c.fields) }

// Field looks up a compiled field by canonical name.
func (c *Catalog) Field(name string) (*Field, bool) {
	for _, f := range c.fields {
		if f.spec.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Keys returns every output key a result built from this catalogue carries:
// canonical names first, then alias keys.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.fields))
	for _, f := range c.fields {
		keys = append(keys, f.spec.Name)
	}
	for _, a := range c.aliases {
		keys = append(keys, a.Keys...)
	}
	return keys
}
