package excelkit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/locvowork/fleet_management_sample/pkg/excelkit/driver"
	"github.com/locvowork/fleet_management_sample/pkg/excelkit/formatter"
	"github.com/locvowork/fleet_management_sample/pkg/excelkit/style"
)

// Service generates workbooks. It holds no per-call state, so one Service can
// serve concurrent Generate calls as long as the registries are not mutated
// meanwhile.
type Service struct {
	driver     driver.Driver
	formatters *formatter.Registry
	styles     *style.Registry
	logger     zerolog.Logger

	mu      sync.RWMutex
	plugins []Plugin
}

type Option func(*Service)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

func WithPlugins(plugins ...Plugin) Option {
	return func(s *Service) {
		s.plugins = append(s.plugins, plugins...)
	}
}

// NewService wires a driver with the registries. Nil registries are replaced
// by the default ones.
func NewService(drv driver.Driver, formatters *formatter.Registry, styles *style.Registry, opts ...Option) *Service {
	s := &Service{
		driver:     drv,
		formatters: formatters,
		styles:     styles,
		logger:     log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.formatters == nil {
		s.formatters = formatter.NewDefaultRegistry(formatter.WithLogger(s.logger))
	}
	if s.styles == nil {
		s.styles = style.NewDefaultRegistry(style.WithLogger(s.logger))
	}
	return s
}

// Use appends plugins. Registration order is hook order.
func (s *Service) Use(plugins ...Plugin) *Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plugins = append(s.plugins, plugins...)
	return s
}

func (s *Service) Formatters() *formatter.Registry { return s.formatters }
func (s *Service) Styles() *style.Registry         { return s.styles }

// Generate renders the workbook. In memory mode the serialized document is
// returned; in streaming mode the result is nil and callers should use
// GenerateTo or Build instead.
func (s *Service) Generate(ctx context.Context, wb WorkbookSpec, sheets []SheetData, mode driver.Mode) ([]byte, error) {
	w, err := s.Build(ctx, wb, sheets, mode)
	if err != nil {
		return nil, err
	}
	defer closeWorkbook(w)

	if !w.Capabilities().Buffered {
		return nil, nil
	}
	b, err := w.Bytes()
	if err != nil {
		return nil, newError(StageOutput, "", -1, err)
	}
	return b, nil
}

// GenerateTo renders the workbook and writes it to dst. In streaming mode
// rows are never held in memory as a whole; the container is assembled from
// excelize's flushed sheets straight into dst.
func (s *Service) GenerateTo(ctx context.Context, dst io.Writer, wb WorkbookSpec, sheets []SheetData, mode driver.Mode) error {
	w, err := s.Build(ctx, wb, sheets, mode)
	if err != nil {
		return err
	}
	defer closeWorkbook(w)

	if _, err := w.WriteTo(dst); err != nil {
		return newError(StageOutput, "", -1, err)
	}
	return nil
}

// Build runs the full generation and returns the finalized workbook writer.
// The caller owns it: write it out, then close it if it is an io.Closer.
func (s *Service) Build(ctx context.Context, wb WorkbookSpec, sheets []SheetData, mode driver.Mode) (driver.WorkbookWriter, error) {
	start := time.Now()
	if len(sheets) == 0 {
		return nil, newError(StageCreateWorkbook, "", -1, ErrNoSheets)
	}

	s.mu.RLock()
	plugins := append([]Plugin(nil), s.plugins...)
	s.mu.RUnlock()

	for _, p := range plugins {
		if h, ok := p.(BeforeWorkbookHook); ok {
			if err := h.BeforeWorkbook(ctx, wb); err != nil {
				return nil, newError(StageBeforeWorkbook, "", -1, pluginErr(p, err))
			}
		}
	}

	w, err := s.driver.CreateWorkbook(ctx, wb.meta(), mode)
	if err != nil {
		return nil, newError(StageCreateWorkbook, "", -1, err)
	}

	total := 0
	for _, sd := range sheets {
		n, err := s.writeSheet(ctx, w, sd, plugins)
		if err != nil {
			closeWorkbook(w)
			return nil, err
		}
		total += n
	}

	if err := w.Finalize(ctx); err != nil {
		closeWorkbook(w)
		return nil, newError(StageFinalize, "", -1, err)
	}

	for _, p := range plugins {
		if h, ok := p.(AfterWorkbookHook); ok {
			if err := h.AfterWorkbook(ctx, wb); err != nil {
				closeWorkbook(w)
				return nil, newError(StageAfterWorkbook, "", -1, pluginErr(p, err))
			}
		}
	}

	s.logger.Info().
		Str("file", wb.Filename).
		Str("driver", s.driver.Name()).
		Str("mode", mode.String()).
		Int("sheets", len(sheets)).
		Int("rows", total).
		Dur("took", time.Since(start)).
		Msg("workbook generated")
	return w, nil
}

func (s *Service) writeSheet(ctx context.Context, w driver.WorkbookWriter, sd SheetData, plugins []Plugin) (rows int, err error) {
	spec := sd.Spec
	src := sd.Rows
	if src == nil {
		src = Empty()
	}
	if c, ok := src.(io.Closer); ok {
		defer func() {
			if cerr := c.Close(); cerr != nil && err == nil {
				err = newError(StageCommit, spec.Name, -1, cerr)
			}
		}()
	}

	for _, p := range plugins {
		if h, ok := p.(BeforeSheetHook); ok {
			if err := h.BeforeSheet(ctx, spec); err != nil {
				return 0, newError(StageBeforeSheet, spec.Name, -1, pluginErr(p, err))
			}
		}
	}

	caps := w.Capabilities()
	opts := driver.SheetOptions{
		Name:       spec.Name,
		Columns:    s.headerCells(spec.Columns),
		AutoFilter: spec.AutoFilter && caps.AutoFilter,
	}
	if spec.Freeze != nil && caps.Freeze {
		p := *spec.Freeze
		opts.Freeze = &p
	}

	sw, err := w.AddSheet(ctx, opts)
	if err != nil {
		return 0, newError(StageAddSheet, spec.Name, -1, err)
	}
	if err := sw.WriteHeader(ctx); err != nil {
		return 0, newError(StageHeader, spec.Name, -1, err)
	}

	extras := make([]*style.Style, len(spec.Columns))
	for i, col := range spec.Columns {
		if col.NumFmt != "" {
			extras[i] = &style.Style{NumFmt: col.NumFmt}
		}
	}

	for idx := 0; ; idx++ {
		if err := ctx.Err(); err != nil {
			return idx, newError(StageRow, spec.Name, idx, err)
		}
		row, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			rows = idx
			break
		}
		if err != nil {
			return idx, newError(StageRow, spec.Name, idx, err)
		}

		if spec.BeforeWriteRow != nil {
			replaced, err := spec.BeforeWriteRow(ctx, row)
			if err != nil {
				return idx, newError(StageRow, spec.Name, idx, err)
			}
			if replaced != nil {
				row = replaced
			}
		}

		values := make([]interface{}, len(spec.Columns))
		styles := make([]*style.Style, len(spec.Columns))
		for i, col := range spec.Columns {
			v, err := s.cellValue(col, row)
			if err != nil {
				return idx, newError(StageRow, spec.Name, idx, columnErr(col, err))
			}
			values[i] = v
			styles[i] = s.styles.Resolve(col.Style, extras[i])
		}

		if err := sw.WriteRow(ctx, values, styles); err != nil {
			return idx, newError(StageRow, spec.Name, idx, err)
		}

		if spec.AfterWriteRow != nil {
			if err := spec.AfterWriteRow(ctx, RowWritten{Sheet: spec.Name, RowIndex: idx, Row: row}); err != nil {
				return idx, newError(StageRow, spec.Name, idx, err)
			}
		}
	}

	if spec.Footer != nil {
		if caps.Footer {
			values := make([]interface{}, len(spec.Columns))
			if len(values) > 0 {
				values[0] = spec.Footer.Label
			}
			if err := sw.WriteFooter(ctx, values, s.styles.Resolve(spec.Footer.Style, nil)); err != nil {
				return rows, newError(StageFooter, spec.Name, -1, err)
			}
		} else {
			s.logger.Debug().Str("sheet", spec.Name).Msg("driver has no footer support, footer skipped")
		}
	}

	if spec.AutoFilter && caps.AutoFilter {
		if err := sw.EnableAutoFilter(ctx); err != nil {
			return rows, newError(StageLayout, spec.Name, -1, err)
		}
	}
	if spec.Freeze != nil && caps.Freeze {
		if err := sw.Freeze(ctx, spec.Freeze.Row, spec.Freeze.Col); err != nil {
			return rows, newError(StageLayout, spec.Name, -1, err)
		}
	}

	if err := sw.Commit(ctx); err != nil {
		return rows, newError(StageCommit, spec.Name, -1, err)
	}

	for _, p := range plugins {
		if h, ok := p.(AfterSheetHook); ok {
			if err := h.AfterSheet(ctx, spec); err != nil {
				return rows, newError(StageAfterSheet, spec.Name, -1, pluginErr(p, err))
			}
		}
	}
	return rows, nil
}

// headerCells resolves header styles once per column. Columns without a
// header style get the registered "header" style.
func (s *Service) headerCells(cols []ColumnDef) []driver.HeaderCell {
	cells := make([]driver.HeaderCell, len(cols))
	for i, col := range cols {
		ref := col.HeaderStyle
		if ref.IsZero() {
			ref = style.Named(style.NameHeader)
		}
		cells[i] = driver.HeaderCell{
			Key:    col.Key,
			Header: col.Header,
			Width:  col.Width,
			Style:  s.styles.Resolve(ref, nil),
		}
	}
	return cells
}

func (s *Service) cellValue(col ColumnDef, row interface{}) (interface{}, error) {
	var raw interface{}
	switch {
	case col.Accessor != nil:
		v, err := col.Accessor(row)
		if err != nil {
			return nil, err
		}
		raw = v
	case col.Path != "":
		raw = ExtractPath(row, col.Path)
	}

	raw = NormalizeCellValue(raw)
	if col.Formatter != "" {
		raw = NormalizeCellValue(s.formatters.Apply(col.Formatter, raw))
	}
	return raw, nil
}

func closeWorkbook(w driver.WorkbookWriter) {
	if c, ok := w.(io.Closer); ok {
		_ = c.Close()
	}
}

func pluginErr(p Plugin, err error) error {
	return fmt.Errorf("plugin %s: %w", p.Name(), err)
}

func columnErr(col ColumnDef, err error) error {
	return fmt.Errorf("column %s: %w", col.Key, err)
}
