package style

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const (
	NameHeader  = "header"
	NameText    = "text"
	NameMoney   = "money"
	NameDate    = "date"
	NameNumber  = "number"
	NamePercent = "percent"
	NameBold    = "bold"
	NameCenter  = "center"
)

const (
	defaultFont        = "Arial"
	defaultBorderColor = "D4D4D4"
	headerFillColor    = "4472C4"
)

func thinBorder(color string) *Border {
	edge := func() *BorderEdge { return &BorderEdge{Style: "thin", Color: color} }
	return &Border{Top: edge(), Left: edge(), Bottom: edge(), Right: edge()}
}

// DefaultCatalogue returns the stock styles column definitions refer to by
// name. Every call returns fresh values.
func DefaultCatalogue() map[string]Style {
	return map[string]Style{
		NameHeader: {
			Font:      &Font{Name: defaultFont, Size: 11, Bold: Bool(true), Color: "FFFFFF"},
			Fill:      &Fill{Pattern: "solid", Colors: []string{headerFillColor}},
			Alignment: &Alignment{Horizontal: "center", Vertical: "center", WrapText: Bool(true)},
			Border:    thinBorder(defaultBorderColor),
		},
		NameText: {
			Font:      &Font{Name: defaultFont, Size: 10},
			Alignment: &Alignment{Horizontal: "left", Vertical: "center"},
			Border:    thinBorder(defaultBorderColor),
		},
		NameMoney: {
			Font:      &Font{Name: defaultFont, Size: 10},
			Alignment: &Alignment{Horizontal: "right", Vertical: "center"},
			Border:    thinBorder(defaultBorderColor),
			NumFmt:    "#,##0.00",
		},
		NameDate: {
			Font:      &Font{Name: defaultFont, Size: 10},
			Alignment: &Alignment{Horizontal: "center", Vertical: "center"},
			Border:    thinBorder(defaultBorderColor),
			NumFmt:    "dd/mm/yyyy",
		},
		NameNumber: {
			Font:      &Font{Name: defaultFont, Size: 10},
			Alignment: &Alignment{Horizontal: "right", Vertical: "center"},
			Border:    thinBorder(defaultBorderColor),
			NumFmt:    "#,##0",
		},
		NamePercent: {
			Font:      &Font{Name: defaultFont, Size: 10},
			Alignment: &Alignment{Horizontal: "right", Vertical: "center"},
			Border:    thinBorder(defaultBorderColor),
			NumFmt:    "0.00%",
		},
		NameBold: {
			Font: &Font{Bold: Bool(true)},
		},
		NameCenter: {
			Alignment: &Alignment{Horizontal: "center", Vertical: "center"},
		},
	}
}

// LoadYAML reads a style catalogue of the form
//
//	styles:
//	  warning:
//	    font: {bold: true, color: "9C0006"}
//	    fill: {pattern: solid, colors: ["FFC7CE"]}
func LoadYAML(r io.Reader) (map[string]Style, error) {
	var doc struct {
		Styles map[string]Style `yaml:"styles"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return map[string]Style{}, nil
		}
		return nil, fmt.Errorf("decode style catalogue: %w", err)
	}
	if doc.Styles == nil {
		doc.Styles = map[string]Style{}
	}
	return doc.Styles, nil
}
