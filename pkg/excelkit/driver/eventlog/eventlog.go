// Package eventlog is a recording driver. It serializes nothing and instead
// appends a typed event for every call made on it, so tests can assert the
// exact sequence of operations and the resolved values and styles.
package eventlog

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/locvowork/fleet_management_sample/pkg/excelkit/driver"
	"github.com/locvowork/fleet_management_sample/pkg/excelkit/style"
)

type Kind string

const (
	KindCreateWorkbook   Kind = "createWorkbook"
	KindAddSheet         Kind = "addSheet"
	KindWriteHeader      Kind = "writeHeader"
	KindWriteRow         Kind = "writeRow"
	KindWriteFooter      Kind = "writeFooter"
	KindEnableAutoFilter Kind = "enableAutoFilter"
	KindFreeze           Kind = "freeze"
	KindCommit           Kind = "commit"
	KindFinalize         Kind = "finalize"
)

type Event interface {
	Kind() Kind
}

type CreateWorkbookEvent struct {
	Meta driver.WorkbookMeta
	Mode driver.Mode
}

type AddSheetEvent struct {
	Options driver.SheetOptions
}

type WriteHeaderEvent struct {
	Sheet   string
	Headers []string
}

type WriteRowEvent struct {
	Sheet  string
	Values []interface{}
	Styles []*style.Style
}

type WriteFooterEvent struct {
	Sheet  string
	Values []interface{}
	Style  *style.Style
}

type EnableAutoFilterEvent struct {
	Sheet string
}

type FreezeEvent struct {
	Sheet string
	Row   int
	Col   int
}

type CommitEvent struct {
	Sheet string
}

type FinalizeEvent struct{}

func (CreateWorkbookEvent) Kind() Kind   { return KindCreateWorkbook }
func (AddSheetEvent) Kind() Kind         { return KindAddSheet }
func (WriteHeaderEvent) Kind() Kind      { return KindWriteHeader }
func (WriteRowEvent) Kind() Kind         { return KindWriteRow }
func (WriteFooterEvent) Kind() Kind      { return KindWriteFooter }
func (EnableAutoFilterEvent) Kind() Kind { return KindEnableAutoFilter }
func (FreezeEvent) Kind() Kind           { return KindFreeze }
func (CommitEvent) Kind() Kind           { return KindCommit }
func (FinalizeEvent) Kind() Kind         { return KindFinalize }

// Driver records events from every workbook it creates into one shared log.
type Driver struct {
	mu     sync.Mutex
	events []Event

	// Caps overrides the capabilities reported by created workbooks. Nil
	// means everything is supported.
	Caps *driver.Capabilities
}

func New() *Driver {
	return &Driver{}
}

func (d *Driver) Name() string { return "eventlog" }

func (d *Driver) CreateWorkbook(ctx context.Context, meta driver.WorkbookMeta, mode driver.Mode) (driver.WorkbookWriter, error) {
	if mode != driver.ModeMemory && mode != driver.ModeStreaming {
		return nil, driver.ErrUnsupportedMode
	}
	d.record(CreateWorkbookEvent{Meta: meta, Mode: mode})
	return &workbook{d: d, mode: mode}, nil
}

// Events returns a copy of the recorded log.
func (d *Driver) Events() []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Event(nil), d.events...)
}

// Kinds returns the kind of every recorded event, in order.
func (d *Driver) Kinds() []Kind {
	d.mu.Lock()
	defer d.mu.Unlock()
	kinds := make([]Kind, len(d.events))
	for i, e := range d.events {
		kinds[i] = e.Kind()
	}
	return kinds
}

// OfKind returns the recorded events of kind k, in order.
func (d *Driver) OfKind(k Kind) []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []Event
	for _, e := range d.events {
		if e.Kind() == k {
			out = append(out, e)
		}
	}
	return out
}

// Rows returns the recorded WriteRowEvents.
func (d *Driver) Rows() []WriteRowEvent {
	var rows []WriteRowEvent
	for _, e := range d.OfKind(KindWriteRow) {
		rows = append(rows, e.(WriteRowEvent))
	}
	return rows
}

func (d *Driver) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = nil
}

func (d *Driver) record(e Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
}

type workbook struct {
	d         *Driver
	mode      driver.Mode
	finalized bool
	names     []string
}

func (w *workbook) Capabilities() driver.Capabilities {
	if w.d.Caps != nil {
		return *w.d.Caps
	}
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
	for _, n := range w.names {
		if strings.EqualFold(n, opts.Name) {
			return nil, fmt.Errorf("add sheet %q: %w", opts.Name, driver.ErrDuplicateSheet)
		}
	}
	w.names = append(w.names, opts.Name)
	w.d.record(AddSheetEvent{Options: opts})
	return &sheet{d: w.d, opts: opts}, nil
}

func (w *workbook) Finalize(ctx context.Context) error {
	if w.finalized {
		return nil
	}
	w.finalized = true
	w.d.record(FinalizeEvent{})
	return nil
}

// Bytes returns an empty document in memory mode.
func (w *workbook) Bytes() ([]byte, error) {
	if w.mode != driver.ModeMemory {
		return nil, driver.ErrNotBuffered
	}
	return []byte{}, nil
}

// WriteTo writes nothing.
func (w *workbook) WriteTo(dst io.Writer) (int64, error) {
	return 0, nil
}

type sheet struct {
	d         *Driver
	opts      driver.SheetOptions
	committed bool
}

func (s *sheet) WriteHeader(ctx context.Context) error {
	if s.committed {
		return driver.ErrSheetCommitted
	}
	headers := make([]string, len(s.opts.Columns))
	for i, c := range s.opts.Columns {
		headers[i] = c.Header
	}
	s.d.record(WriteHeaderEvent{Sheet: s.opts.Name, Headers: headers})
	return nil
}

func (s *sheet) WriteRow(ctx context.Context, values []interface{}, styles []*style.Style) error {
	if s.committed {
		return driver.ErrSheetCommitted
	}
	s.d.record(WriteRowEvent{
		Sheet:  s.opts.Name,
		Values: append([]interface{}(nil), values...),
		Styles: append([]*style.Style(nil), styles...),
	})
	return nil
}

func (s *sheet) WriteFooter(ctx context.Context, values []interface{}, st *style.Style) error {
	if s.committed {
		return driver.ErrSheetCommitted
	}
	s.d.record(WriteFooterEvent{
		Sheet:  s.opts.Name,
		Values: append([]interface{}(nil), values...),
		Style:  st,
	})
	return nil
}

func (s *sheet) EnableAutoFilter(ctx context.Context) error {
	if s.committed {
		return driver.ErrSheetCommitted
	}
	s.d.record(EnableAutoFilterEvent{Sheet: s.opts.Name})
	return nil
}

func (s *sheet) Freeze(ctx context.Context, row, col int) error {
	if s.committed {
		return driver.ErrSheetCommitted
	}
	s.d.record(FreezeEvent{Sheet: s.opts.Name, Row: row, Col: col})
	return nil
}

// Commit records once; later calls do nothing.
func (s *sheet) Commit(ctx context.Context) error {
	if s.committed {
		return nil
	}
	s.committed = true
	s.d.record(CommitEvent{Sheet: s.opts.Name})
	return nil
}
