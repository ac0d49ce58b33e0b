// Package style holds backend-agnostic cell presentation metadata and a named
// registry used to compose it.
package style

import "gopkg.in/yaml.v3"

// Style describes how a cell is presented. Nil sub-structs mean "not set" and
// are filled in from a base style during a merge.
type Style struct {
	Font       *Font       `yaml:"font,omitempty" json:"font,omitempty"`
	Fill       *Fill       `yaml:"fill,omitempty" json:"fill,omitempty"`
	Alignment  *Alignment  `yaml:"alignment,omitempty" json:"alignment,omitempty"`
	Border     *Border     `yaml:"border,omitempty" json:"border,omitempty"`
	NumFmt     string      `yaml:"num_fmt,omitempty" json:"numFmt,omitempty"`
	Protection *Protection `yaml:"protection,omitempty" json:"protection,omitempty"`
}

type Font struct {
	Name      string  `yaml:"name,omitempty" json:"name,omitempty"`
	Size      float64 `yaml:"size,omitempty" json:"size,omitempty"`
	Bold      *bool   `yaml:"bold,omitempty" json:"bold,omitempty"`
	Italic    *bool   `yaml:"italic,omitempty" json:"italic,omitempty"`
	Strike    *bool   `yaml:"strike,omitempty" json:"strike,omitempty"`
	Underline string  `yaml:"underline,omitempty" json:"underline,omitempty"` // single, double
	Color     string  `yaml:"color,omitempty" json:"color,omitempty"`         // Hex color
}

// Fill is a pattern fill. Colors is replaced wholesale when merged.
type Fill struct {
	Pattern string   `yaml:"pattern,omitempty" json:"pattern,omitempty"` // solid, gray125, ...
	Colors  []string `yaml:"colors,omitempty" json:"colors,omitempty"`
}

type Alignment struct {
	Horizontal   string `yaml:"horizontal,omitempty" json:"horizontal,omitempty"` // left, center, right
	Vertical     string `yaml:"vertical,omitempty" json:"vertical,omitempty"`     // top, center, bottom
	WrapText     *bool  `yaml:"wrap_text,omitempty" json:"wrapText,omitempty"`
	Indent       int    `yaml:"indent,omitempty" json:"indent,omitempty"`
	TextRotation int    `yaml:"text_rotation,omitempty" json:"textRotation,omitempty"`
}

type Border struct {
	Top    *BorderEdge `yaml:"top,omitempty" json:"top,omitempty"`
	Left   *BorderEdge `yaml:"left,omitempty" json:"left,omitempty"`
	Bottom *BorderEdge `yaml:"bottom,omitempty" json:"bottom,omitempty"`
	Right  *BorderEdge `yaml:"right,omitempty" json:"right,omitempty"`
}

type BorderEdge struct {
	Style string `yaml:"style,omitempty" json:"style,omitempty"` // thin, medium, thick, dashed, dotted, double
	Color string `yaml:"color,omitempty" json:"color,omitempty"`
}

type Protection struct {
	Locked *bool `yaml:"locked,omitempty" json:"locked,omitempty"`
	Hidden *bool `yaml:"hidden,omitempty" json:"hidden,omitempty"`
}

// Ref points at a style either by registered name or inline. The zero Ref
// refers to no style at all.
type Ref struct {
	Name   string
	Inline *Style
}

// Named references a registered style.
func Named(name string) Ref {
	return Ref{Name: name}
}

// Inline wraps an ad-hoc style.
func Inline(s Style) Ref {
	return Ref{Inline: &s}
}

// IsZero reports whether the reference points at nothing.
func (r Ref) IsZero() bool {
	return r.Name == "" && r.Inline == nil
}

// UnmarshalYAML accepts either a style name or an inline style mapping.
func (r *Ref) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		r.Name = value.Value
		return nil
	}
	var inline Style
	if err := value.Decode(&inline); err != nil {
		return err
	}
	r.Inline = &inline
	return nil
}

// Bool returns a pointer to b, for the tri-state fields above.
func Bool(b bool) *bool {
	return &b
}

// IsTrue reports whether a tri-state flag is set and true.
func IsTrue(b *bool) bool {
	return b != nil && *b
}
