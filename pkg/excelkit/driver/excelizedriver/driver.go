// Package excelizedriver writes workbooks with github.com/xuri/excelize/v2.
//
// In memory mode cells are set on an excelize.File and the document is
// available from Bytes. In streaming mode every sheet gets its own
// excelize.StreamWriter; rows are flushed to excelize's temp storage as they
// arrive and the container is only assembled by WriteTo.
package excelizedriver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/locvowork/fleet_management_sample/pkg/excelkit/driver"
)

const defaultSheet = "Sheet1"

type Driver struct {
	logger zerolog.Logger
}

type Option func(*Driver)

func WithLogger(l zerolog.Logger) Option {
	return func(d *Driver) {
		d.logger = l
	}
}

func New(opts ...Option) *Driver {
	d := &Driver{logger: log.Logger}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Driver) Name() string { return "excelize" }

// CreateWorkbook opens a new excelize file and writes meta to its document
// properties.
func (d *Driver) CreateWorkbook(ctx context.Context, meta driver.WorkbookMeta, mode driver.Mode) (driver.WorkbookWriter, error) {
	if mode != driver.ModeMemory && mode != driver.ModeStreaming {
		return nil, fmt.Errorf("%w: %q", driver.ErrUnsupportedMode, mode)
	}

	f := excelize.NewFile()
	props := &excelize.DocProperties{
		Creator:        meta.Creator,
		LastModifiedBy: meta.Creator,
		Title:          meta.Filename,
	}
	if !meta.Created.IsZero() {
		props.Created = meta.Created.UTC().Format(time.RFC3339)
	}
	if !meta.Modified.IsZero() {
		props.Modified = meta.Modified.UTC().Format(time.RFC3339)
	}
	if err := f.SetDocProps(props); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("set document properties: %w", err)
	}

	d.logger.Debug().
		Str("file", meta.Filename).
		Str("mode", mode.String()).
		Msg("workbook created")

	return &workbook{
		file:   f,
		mode:   mode,
		styles: newStyleCache(f),
		logger: d.logger,
	}, nil
}

type workbook struct {
	file      *excelize.File
	mode      driver.Mode
	styles    *styleCache
	sheets    []*sheet
	finalized bool
	closed    bool
	logger    zerolog.Logger
}

func (w *workbook) Capabilities() driver.Capabilities {
	return driver.Capabilities{
		Buffered:   w.mode == driver.ModeMemory,
		Streaming:  w.mode == driver.ModeStreaming,
		AutoFilter: true,
		Freeze:     true,
		Footer:     true,
	}
}

func (w *workbook) AddSheet(ctx context.Context, opts driver.SheetOptions) (driver.SheetWriter, error) {
	if w.finalized {
		return nil, driver.ErrFinalized
	}
	if err := w.commitOpen(ctx); err != nil {
		return nil, err
	}

	name := opts.Name
	if name == "" {
		name = fmt.Sprintf("Sheet%d", len(w.sheets)+1)
	}
	for _, prev := range w.sheets {
		if strings.EqualFold(prev.name, name) {
			return nil, fmt.Errorf("add sheet %q: %w", name, driver.ErrDuplicateSheet)
		}
	}
	if len(w.sheets) == 0 {
		if name != defaultSheet {
			if err := w.file.SetSheetName(defaultSheet, name); err != nil {
				return nil, fmt.Errorf("rename sheet %q: %w", name, err)
			}
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return nil, fmt.Errorf("add sheet %q: %w", name, err)
	}

	s := &sheet{
		wb:   w,
		name: name,
		opts: opts,
		row:  1,
	}
	s.headerStyles = make([]int, len(opts.Columns))
	for i, col := range opts.Columns {
		id, err := w.styles.id(col.Style, false)
		if err != nil {
			return nil, fmt.Errorf("sheet %q header style %q: %w", name, col.Key, err)
		}
		s.headerStyles[i] = id
	}

	var err error
	if w.mode == driver.ModeStreaming {
		err = s.openStream()
	} else {
		err = s.layoutMemory()
	}
	if err != nil {
		return nil, err
	}

	w.sheets = append(w.sheets, s)
	return s, nil
}

// commitOpen flushes a streaming sheet left open by the caller; excelize
// cannot interleave stream writers.
func (w *workbook) commitOpen(ctx context.Context) error {
	for _, s := range w.sheets {
		if !s.committed {
			if err := s.Commit(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// Finalize commits any open sheet and makes the first sheet active. Further
// calls do nothing.
func (w *workbook) Finalize(ctx context.Context) error {
	if w.finalized {
		return nil
	}
	if err := w.commitOpen(ctx); err != nil {
		return err
	}
	w.file.SetActiveSheet(0)
	w.finalized = true
	w.logger.Debug().Int("sheets", len(w.sheets)).Msg("workbook finalized")
	return nil
}

func (w *workbook) Bytes() ([]byte, error) {
	if w.mode != driver.ModeMemory {
		return nil, driver.ErrNotBuffered
	}
	if err := w.Finalize(context.Background()); err != nil {
		return nil, err
	}
	buf, err := w.file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteTo serializes the workbook to dst in either mode.
func (w *workbook) WriteTo(dst io.Writer) (int64, error) {
	if err := w.Finalize(context.Background()); err != nil {
		return 0, err
	}
	n, err := w.file.WriteTo(dst)
	if err != nil {
		return n, fmt.Errorf("write workbook: %w", err)
	}
	return n, nil
}

// Close releases excelize's temporary files.
func (w *workbook) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// File exposes the underlying excelize file for callers that need features
// outside the driver interface.
func (w *workbook) File() *excelize.File {
	return w.file
}

// Open reads a serialized workbook back, mainly for verification.
func Open(data []byte) (*excelize.File, error) {
	return excelize.OpenReader(bytes.NewReader(data))
}
