// Package excelkit turns column specifications and row sources into
// spreadsheet workbooks. The Service drives any driver.Driver; formatting and
// styling are resolved through the formatter and style registries.
package excelkit

import (
	"context"
	"time"

	"github.com/locvowork/fleet_management_sample/pkg/excelkit/driver"
	"github.com/locvowork/fleet_management_sample/pkg/excelkit/style"
)

// Panes is a freeze split; Row 1 freezes the header.
type Panes = driver.Panes

// WorkbookSpec is the metadata of one generated document.
type WorkbookSpec struct {
	Filename string
	Creator  string
	Created  time.Time
	Modified time.Time
}

func (w WorkbookSpec) meta() driver.WorkbookMeta {
	return driver.WorkbookMeta{
		Filename: w.Filename,
		Creator:  w.Creator,
		Created:  w.Created,
		Modified: w.Modified,
	}
}

// Accessor extracts a column's raw value from a row.
type Accessor func(row interface{}) (interface{}, error)

// TotalsSpec describes an aggregate for a column. It is carried as metadata;
// the service does not compute it.
type TotalsSpec struct {
	Kind  string `yaml:"kind" json:"kind"` // sum, avg, count, min, max
	Style string `yaml:"style,omitempty" json:"style,omitempty"`
}

// ColumnDef describes one exported column. Accessor wins over Path; with
// neither the cell is empty.
type ColumnDef struct {
	Key         string
	Header      string
	Accessor    Accessor
	Path        string
	Width       float64
	Style       style.Ref
	NumFmt      string
	Formatter   string
	HeaderStyle style.Ref
	Totals      *TotalsSpec
}

type FooterSpec struct {
	Label string
	Style style.Ref
}

// RowWritten is passed to SheetSpec.AfterWriteRow.
type RowWritten struct {
	Sheet    string
	RowIndex int // zero-based, data rows only
	Row      interface{}
}

type SheetSpec struct {
	Name       string
	Columns    []ColumnDef
	Freeze     *Panes
	AutoFilter bool
	// BeforeWriteRow may replace the row before values are extracted. A nil
	// result keeps the original row.
	BeforeWriteRow func(ctx context.Context, row interface{}) (interface{}, error)
	AfterWriteRow  func(ctx context.Context, w RowWritten) error
	Footer         *FooterSpec
}

// SheetData pairs a sheet specification with its rows.
type SheetData struct {
	Spec SheetSpec
	Rows RowSource
}
