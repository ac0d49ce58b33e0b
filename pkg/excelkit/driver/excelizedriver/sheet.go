package excelizedriver

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/locvowork/fleet_management_sample/pkg/excelkit/driver"
	"github.com/locvowork/fleet_management_sample/pkg/excelkit/style"
)

type sheet struct {
	wb           *workbook
	name         string
	opts         driver.SheetOptions
	headerStyles []int
	row          int // next row to write, 1-based
	headerDone   bool
	committed    bool
	sw           *excelize.StreamWriter
}

// layoutMemory applies column widths. Filter and panes are applied when
// requested.
func (s *sheet) layoutMemory() error {
	for i, col := range s.opts.Columns {
		if col.Width <= 0 {
			continue
		}
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := s.wb.file.SetColWidth(s.name, name, name, col.Width); err != nil {
			return fmt.Errorf("sheet %q column width: %w", s.name, err)
		}
	}
	return nil
}

// openStream sets up everything excelize requires before the first streamed
// row: the filter range, the panes and the column widths.
func (s *sheet) openStream() error {
	if s.opts.AutoFilter {
		if err := s.wb.file.AutoFilter(s.name, s.filterRange(), nil); err != nil {
			return fmt.Errorf("sheet %q auto filter: %w", s.name, err)
		}
	}

	sw, err := s.wb.file.NewStreamWriter(s.name)
	if err != nil {
		return fmt.Errorf("sheet %q stream writer: %w", s.name, err)
	}
	if p := s.opts.Freeze; p != nil && (p.Row > 0 || p.Col > 0) {
		if err := sw.SetPanes(panes(p.Row, p.Col)); err != nil {
			return fmt.Errorf("sheet %q panes: %w", s.name, err)
		}
	}
	for i, col := range s.opts.Columns {
		if col.Width <= 0 {
			continue
		}
		if err := sw.SetColWidth(i+1, i+1, col.Width); err != nil {
			return fmt.Errorf("sheet %q column width: %w", s.name, err)
		}
	}
	s.sw = sw
	return nil
}

func (s *sheet) WriteHeader(ctx context.Context) error {
	if s.committed {
		return driver.ErrSheetCommitted
	}
	if s.headerDone || s.row != 1 {
		return fmt.Errorf("sheet %q: header must be the first row", s.name)
	}
	cells := make([]interface{}, len(s.opts.Columns))
	for i, col := range s.opts.Columns {
		cells[i] = excelize.Cell{StyleID: s.headerStyles[i], Value: col.Header}
	}
	if err := s.setRow(cells); err != nil {
		return err
	}
	s.headerDone = true
	return nil
}

func (s *sheet) WriteRow(ctx context.Context, values []interface{}, styles []*style.Style) error {
	if s.committed {
		return driver.ErrSheetCommitted
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		var st *style.Style
		if i < len(styles) {
			st = styles[i]
		}
		cell, err := s.cell(v, st)
		if err != nil {
			return err
		}
		cells[i] = cell
	}
	return s.setRow(cells)
}

// WriteFooter writes values on the next row with st applied to every cell.
func (s *sheet) WriteFooter(ctx context.Context, values []interface{}, st *style.Style) error {
	if s.committed {
		return driver.ErrSheetCommitted
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cell, err := s.cell(v, st)
		if err != nil {
			return err
		}
		cells[i] = cell
	}
	return s.setRow(cells)
}

func (s *sheet) EnableAutoFilter(ctx context.Context) error {
	if s.committed {
		return driver.ErrSheetCommitted
	}
	if s.sw != nil {
		if !s.opts.AutoFilter {
			return fmt.Errorf("sheet %q auto filter: %w", s.name, driver.ErrLayoutNotDeclared)
		}
		return nil
	}
	if err := s.wb.file.AutoFilter(s.name, s.filterRange(), nil); err != nil {
		return fmt.Errorf("sheet %q auto filter: %w", s.name, err)
	}
	return nil
}

func (s *sheet) Freeze(ctx context.Context, row, col int) error {
	if s.committed {
		return driver.ErrSheetCommitted
	}
	if s.sw != nil {
		p := s.opts.Freeze
		if p == nil || p.Row != row || p.Col != col {
			return fmt.Errorf("sheet %q freeze %d,%d: %w", s.name, row, col, driver.ErrLayoutNotDeclared)
		}
		return nil
	}
	if row <= 0 && col <= 0 {
		return nil
	}
	if err := s.wb.file.SetPanes(s.name, panes(row, col)); err != nil {
		return fmt.Errorf("sheet %q panes: %w", s.name, err)
	}
	return nil
}

// Commit flushes a streamed sheet. A committed sheet rejects further writes.
func (s *sheet) Commit(ctx context.Context) error {
	if s.committed {
		return nil
	}
	s.committed = true
	if s.sw != nil {
		if err := s.sw.Flush(); err != nil {
			return fmt.Errorf("sheet %q flush: %w", s.name, err)
		}
	}
	return nil
}

// cell converts a value to an excelize.Cell. An empty unstyled cell is nil
// and left out of the row; an empty styled cell is written as "".
func (s *sheet) cell(v interface{}, st *style.Style) (interface{}, error) {
	_, isTime := v.(time.Time)
	id, err := s.wb.styles.id(st, isTime)
	if err != nil {
		return nil, fmt.Errorf("sheet %q row %d: %w", s.name, s.row, err)
	}
	switch x := v.(type) {
	case nil:
		if id == 0 {
			return nil, nil
		}
		v = ""
	case driver.RichText:
		v = richText(x)
	}
	return excelize.Cell{StyleID: id, Value: v}, nil
}

func (s *sheet) setRow(cells []interface{}) error {
	axis, err := excelize.CoordinatesToCellName(1, s.row)
	if err != nil {
		return err
	}
	if s.sw != nil {
		if err := s.sw.SetRow(axis, cells); err != nil {
			return fmt.Errorf("sheet %q row %d: %w", s.name, s.row, err)
		}
		s.row++
		return nil
	}

	for i, c := range cells {
		cell, ok := c.(excelize.Cell)
		if !ok {
			continue
		}
		ref, err := excelize.CoordinatesToCellName(i+1, s.row)
		if err != nil {
			return err
		}
		if cell.StyleID != 0 {
			if err := s.wb.file.SetCellStyle(s.name, ref, ref, cell.StyleID); err != nil {
				return fmt.Errorf("sheet %q cell %s style: %w", s.name, ref, err)
			}
		}
		if runs, ok := cell.Value.([]excelize.RichTextRun); ok {
			err = s.wb.file.SetCellRichText(s.name, ref, runs)
		} else {
			err = s.wb.file.SetCellValue(s.name, ref, cell.Value)
		}
		if err != nil {
			return fmt.Errorf("sheet %q cell %s: %w", s.name, ref, err)
		}
	}
	s.row++
	return nil
}

// filterRange spans the header row, A1 to the last column.
func (s *sheet) filterRange() string {
	n := len(s.opts.Columns)
	if n == 0 {
		n = 1
	}
	last, _ := excelize.CoordinatesToCellName(n, 1)
	return "A1:" + last
}

func panes(row, col int) *excelize.Panes {
	topLeft, _ := excelize.CoordinatesToCellName(col+1, row+1)
	active := "bottomLeft"
	switch {
	case row > 0 && col > 0:
		active = "bottomRight"
	case col > 0:
		active = "topRight"
	}
	return &excelize.Panes{
		Freeze:      true,
		XSplit:      col,
		YSplit:      row,
		TopLeftCell: topLeft,
		ActivePane:  active,
	}
}

func richText(rt driver.RichText) []excelize.RichTextRun {
	runs := make([]excelize.RichTextRun, len(rt.Runs))
	for i, r := range rt.Runs {
		runs[i] = excelize.RichTextRun{Text: r.Text}
		if r.Font != nil {
			runs[i].Font = toFont(r.Font)
		}
	}
	return runs
}
