package excelkit

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/locvowork/fleet_management_sample/pkg/excelkit/style"
)

// Definition is a workbook described in YAML:
//
//	filename: vehicles.xlsx
//	creator: fleet-admin
//	styles:
//	  plate: {font: {bold: true}}
//	sheets:
//	  - name: Vehicles
//	    source: vehicles
//	    freeze: {row: 1}
//	    auto_filter: true
//	    columns:
//	      - {key: plate, header: Plate, style: plate, width: 14}
//	      - {key: purchase_price, header: Price, formatter: currency, style: money}
//	    footer: {label: "End of report", style: bold}
type Definition struct {
	Filename string                 `yaml:"filename"`
	Creator  string                 `yaml:"creator"`
	Styles   map[string]style.Style `yaml:"styles"`
	Sheets   []SheetDefinition      `yaml:"sheets"`
}

type SheetDefinition struct {
	Name string `yaml:"name"`
	// Source names the row source bound to this sheet. Defaults to Name.
	Source     string             `yaml:"source"`
	Columns    []ColumnDefinition `yaml:"columns"`
	Freeze     *FreezeDefinition  `yaml:"freeze"`
	AutoFilter bool               `yaml:"auto_filter"`
	Footer     *FooterDefinition  `yaml:"footer"`
}

type ColumnDefinition struct {
	Key         string      `yaml:"key"`
	Header      string      `yaml:"header"`
	Path        string      `yaml:"path"` // defaults to Key
	Width       float64     `yaml:"width"`
	Style       style.Ref   `yaml:"style"`
	NumFmt      string      `yaml:"num_fmt"`
	Formatter   string      `yaml:"formatter"`
	HeaderStyle style.Ref   `yaml:"header_style"`
	Totals      *TotalsSpec `yaml:"totals"`
}

type FreezeDefinition struct {
	Row int `yaml:"row"`
	Col int `yaml:"col"`
}

type FooterDefinition struct {
	Label string    `yaml:"label"`
	Style style.Ref `yaml:"style"`
}

// LoadDefinition decodes and validates a YAML workbook definition.
func LoadDefinition(r io.Reader) (*Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("decode definition: %w", ErrNoSheets)
		}
		return nil, fmt.Errorf("decode definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// ParseDefinition is LoadDefinition over a byte slice.
func ParseDefinition(data []byte) (*Definition, error) {
	return LoadDefinition(bytes.NewReader(data))
}

func (d *Definition) Validate() error {
	if len(d.Sheets) == 0 {
		return ErrNoSheets
	}
	names := make(map[string]bool, len(d.Sheets))
	sources := make(map[string]string, len(d.Sheets))
	for i, sh := range d.Sheets {
		if sh.Name == "" {
			return fmt.Errorf("sheet %d: name is required", i)
		}
		if names[strings.ToLower(sh.Name)] {
			return fmt.Errorf("sheet %q: duplicate name", sh.Name)
		}
		names[strings.ToLower(sh.Name)] = true
		// a row source is read once
		if prev, ok := sources[sh.source()]; ok {
			return fmt.Errorf("sheet %q: source %q already used by sheet %q", sh.Name, sh.source(), prev)
		}
		sources[sh.source()] = sh.Name
		for j, col := range sh.Columns {
			if col.Key == "" {
				return fmt.Errorf("sheet %q column %d: key is required", sh.Name, j)
			}
		}
	}
	return nil
}

// SourceNames lists the row sources the definition needs, in sheet order.
func (d *Definition) SourceNames() []string {
	names := make([]string, len(d.Sheets))
	for i, sh := range d.Sheets {
		names[i] = sh.source()
	}
	return names
}

// RegisterStyles adds the definition's own styles to reg.
func (d *Definition) RegisterStyles(reg *style.Registry) {
	if len(d.Styles) > 0 {
		reg.RegisterAll(d.Styles)
	}
}

// Bind attaches row sources to the sheets. Every sheet's source must be
// present in sources.
func (d *Definition) Bind(sources map[string]RowSource) (WorkbookSpec, []SheetData, error) {
	if err := d.Validate(); err != nil {
		return WorkbookSpec{}, nil, err
	}
	now := time.Now().UTC().Truncate(time.Second)
	wb := WorkbookSpec{
		Filename: d.Filename,
		Creator:  d.Creator,
		Created:  now,
		Modified: now,
	}

	sheets := make([]SheetData, 0, len(d.Sheets))
	for _, sh := range d.Sheets {
		src, ok := sources[sh.source()]
		if !ok {
			return WorkbookSpec{}, nil, fmt.Errorf("sheet %q: %w: %q", sh.Name, ErrSourceNotFound, sh.source())
		}
		sheets = append(sheets, SheetData{Spec: sh.Spec(), Rows: src})
	}
	return wb, sheets, nil
}

// Spec converts the definition into a SheetSpec without row hooks.
func (sh SheetDefinition) Spec() SheetSpec {
	spec := SheetSpec{
		Name:       sh.Name,
		AutoFilter: sh.AutoFilter,
		Columns:    make([]ColumnDef, len(sh.Columns)),
	}
	if sh.Freeze != nil {
		spec.Freeze = &Panes{Row: sh.Freeze.Row, Col: sh.Freeze.Col}
	}
	if sh.Footer != nil {
		spec.Footer = &FooterSpec{Label: sh.Footer.Label, Style: sh.Footer.Style}
	}
	for i, c := range sh.Columns {
		path := c.Path
		if path == "" {
			path = c.Key
		}
		header := c.Header
		if header == "" {
			header = c.Key
		}
		spec.Columns[i] = ColumnDef{
			Key:         c.Key,
			Header:      header,
			Path:        path,
			Width:       c.Width,
			Style:       c.Style,
			NumFmt:      c.NumFmt,
			Formatter:   c.Formatter,
			HeaderStyle: c.HeaderStyle,
			Totals:      c.Totals,
		}
	}
	return spec
}

func (sh SheetDefinition) source() string {
	if sh.Source != "" {
		return sh.Source
	}
	return sh.Name
}
