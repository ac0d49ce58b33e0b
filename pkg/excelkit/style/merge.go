package style

import (
	"github.com/tiendc/go-deepcopy"
)

// Clone returns a deep copy of s so callers can merge into it without touching
// the registered original.
func Clone(s Style) (Style, error) {
	var out Style
	if err := deepcopy.Copy(&out, &s); err != nil {
		return Style{}, err
	}
	return out, nil
}

// Merge overlays extra onto base. Nested structs are merged field by field,
// slices are replaced wholesale, and any scalar set in extra wins. base is
// modified in place and returned.
func Merge(base, extra Style) Style {
	base.Font = mergeFont(base.Font, extra.Font)
	base.Fill = mergeFill(base.Fill, extra.Fill)
	base.Alignment = mergeAlignment(base.Alignment, extra.Alignment)
	base.Border = mergeBorder(base.Border, extra.Border)
	base.Protection = mergeProtection(base.Protection, extra.Protection)
	if extra.NumFmt != "" {
		base.NumFmt = extra.NumFmt
	}
	return base
}

func mergeFont(base, extra *Font) *Font {
	if extra == nil {
		return base
	}
	if base == nil {
		cp := *extra
		return &cp
	}
	out := *base
	if extra.Name != "" {
		out.Name = extra.Name
	}
	if extra.Size != 0 {
		out.Size = extra.Size
	}
	out.Bold = pickBool(out.Bold, extra.Bold)
	out.Italic = pickBool(out.Italic, extra.Italic)
	out.Strike = pickBool(out.Strike, extra.Strike)
	if extra.Underline != "" {
		out.Underline = extra.Underline
	}
	if extra.Color != "" {
		out.Color = extra.Color
	}
	return &out
}

func mergeFill(base, extra *Fill) *Fill {
	if extra == nil {
		return base
	}
	if base == nil {
		cp := *extra
		return &cp
	}
	out := *base
	if extra.Pattern != "" {
		out.Pattern = extra.Pattern
	}
	if extra.Colors != nil {
		out.Colors = append([]string(nil), extra.Colors...)
	}
	return &out
}

func mergeAlignment(base, extra *Alignment) *Alignment {
	if extra == nil {
		return base
	}
	if base == nil {
		cp := *extra
		return &cp
	}
	out := *base
	if extra.Horizontal != "" {
		out.Horizontal = extra.Horizontal
	}
	if extra.Vertical != "" {
		out.Vertical = extra.Vertical
	}
	out.WrapText = pickBool(out.WrapText, extra.WrapText)
	if extra.Indent != 0 {
		out.Indent = extra.Indent
	}
	if extra.TextRotation != 0 {
		out.TextRotation = extra.TextRotation
	}
	return &out
}

func mergeBorder(base, extra *Border) *Border {
	if extra == nil {
		return base
	}
	if base == nil {
		cp := *extra
		return &cp
	}
	out := *base
	out.Top = mergeEdge(out.Top, extra.Top)
	out.Left = mergeEdge(out.Left, extra.Left)
	out.Bottom = mergeEdge(out.Bottom, extra.Bottom)
	out.Right = mergeEdge(out.Right, extra.Right)
	return &out
}

func mergeEdge(base, extra *BorderEdge) *BorderEdge {
	if extra == nil {
		return base
	}
	if base == nil {
		cp := *extra
		return &cp
	}
	out := *base
	if extra.Style != "" {
		out.Style = extra.Style
	}
	if extra.Color != "" {
		out.Color = extra.Color
	}
	return &out
}

func mergeProtection(base, extra *Protection) *Protection {
	if extra == nil {
		return base
	}
	if base == nil {
		cp := *extra
		return &cp
	}
	out := *base
	out.Locked = pickBool(out.Locked, extra.Locked)
	out.Hidden = pickBool(out.Hidden, extra.Hidden)
	return &out
}

func pickBool(base, extra *bool) *bool {
	if extra != nil {
		v := *extra
		return &v
	}
	return base
}
