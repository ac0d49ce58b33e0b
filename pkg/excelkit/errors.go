package excelkit

import (
	"errors"
	"fmt"
)

// Stage names the step of generation an error came from.
type Stage string

const (
	StageBeforeWorkbook Stage = "before_workbook"
	StageCreateWorkbook Stage = "create_workbook"
	StageBeforeSheet    Stage = "before_sheet"
	StageAddSheet       Stage = "add_sheet"
	StageHeader         Stage = "header"
	StageRow            Stage = "row"
	StageFooter         Stage = "footer"
	StageLayout         Stage = "layout"
	StageCommit         Stage = "commit"
	StageAfterSheet     Stage = "after_sheet"
	StageFinalize       Stage = "finalize"
	StageAfterWorkbook  Stage = "after_workbook"
	StageOutput         Stage = "output"
)

var (
	ErrNoSheets       = errors.New("workbook has no sheets")
	ErrSourceNotFound = errors.New("row source not found")
)

// GenerateError reports where generation stopped. Row is the zero-based data
// row, or -1 when the failure is not tied to a row.
type GenerateError struct {
	Stage Stage
	Sheet string
	Row   int
	Err   error
}

func (e *GenerateError) Error() string {
	switch {
	case e.Sheet == "":
		return fmt.Sprintf("excel generate (%s): %v", e.Stage, e.Err)
	case e.Row < 0:
		return fmt.Sprintf("excel generate sheet %q (%s): %v", e.Sheet, e.Stage, e.Err)
	default:
		return fmt.Sprintf("excel generate sheet %q row %d (%s): %v", e.Sheet, e.Row, e.Stage, e.Err)
	}
}

func (e *GenerateError) Unwrap() error {
	return e.Err
}

func newError(stage Stage, sheet string, row int, err error) *GenerateError {
	return &GenerateError{Stage: stage, Sheet: sheet, Row: row, Err: err}
}
