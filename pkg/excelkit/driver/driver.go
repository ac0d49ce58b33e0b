// Package driver defines the seam between the export service and a concrete
// spreadsheet backend.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/locvowork/fleet_management_sample/pkg/excelkit/style"
)

// Mode selects how a workbook is produced.
type Mode string

const (
	// ModeMemory keeps the whole document in memory; Bytes returns it.
	ModeMemory Mode = "memory"
	// ModeStreaming writes rows as they arrive; the document is only available
	// through WriteTo.
	ModeStreaming Mode = "streaming"
)

var (
	ErrNotBuffered       = errors.New("workbook is not buffered in memory")
	ErrFinalized         = errors.New("workbook already finalized")
	ErrSheetCommitted    = errors.New("sheet already committed")
	ErrUnsupportedMode   = errors.New("unsupported workbook mode")
	ErrLayoutNotDeclared = errors.New("layout was not declared when the sheet was added")
	ErrDuplicateSheet    = errors.New("sheet name already used in this workbook")
)

// ParseMode accepts "memory" or "streaming" (case-insensitive). Empty input
// means memory.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeMemory:
		return ModeMemory, nil
	case ModeStreaming:
		return ModeStreaming, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedMode, s)
}

func (m Mode) String() string { return string(m) }

// WorkbookMeta is the document metadata written to the package properties.
type WorkbookMeta struct {
	Filename string
	Creator  string
	Created  time.Time
	Modified time.Time
}

// HeaderCell describes one column as the backend sees it. Style is already
// resolved.
type HeaderCell struct {
	Key    string
	Header string
	Width  float64
	Style  *style.Style
}

// Panes is a freeze split. Row 1 freezes the header row.
type Panes struct {
	Row int
	Col int
}

// SheetOptions carries everything a backend needs to lay a sheet out before
// the first row is written.
type SheetOptions struct {
	Name       string
	Columns    []HeaderCell
	AutoFilter bool
	Freeze     *Panes
}

// Capabilities reports which optional operations a workbook supports.
type Capabilities struct {
	Buffered   bool // Bytes is available
	Streaming  bool // rows are written incrementally
	AutoFilter bool
	Freeze     bool
	Footer     bool
}

type Driver interface {
	Name() string
	CreateWorkbook(ctx context.Context, meta WorkbookMeta, mode Mode) (WorkbookWriter, error)
}

type WorkbookWriter interface {
	Capabilities() Capabilities
	AddSheet(ctx context.Context, opts SheetOptions) (SheetWriter, error)
	// Finalize closes the workbook. Calling it more than once is a no-op.
	Finalize(ctx context.Context) error
	// Bytes returns the serialized document. Only valid for buffered
	// workbooks after Finalize; otherwise ErrNotBuffered.
	Bytes() ([]byte, error)
	WriteTo(w io.Writer) (int64, error)
}

type SheetWriter interface {
	WriteHeader(ctx context.Context) error
	WriteRow(ctx context.Context, values []interface{}, styles []*style.Style) error
	WriteFooter(ctx context.Context, values []interface{}, st *style.Style) error
	EnableAutoFilter(ctx context.Context) error
	Freeze(ctx context.Context, row, col int) error
	Commit(ctx context.Context) error
}

// RichTextRun is a run of text with its own font.
type RichTextRun struct {
	Text string
	Font *style.Font
}

// RichText is a cell value made of differently styled runs.
type RichText struct {
	Runs []RichTextRun
}

func (r RichText) String() string {
	var b strings.Builder
	for _, run := range r.Runs {
		b.WriteString(run.Text)
	}
	return b.String()
}
