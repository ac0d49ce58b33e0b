package service

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/locvowork/fleet_management_sample/internal/domain"
	"github.com/locvowork/fleet_management_sample/internal/logger"
	"github.com/locvowork/fleet_management_sample/pkg/excelkit"
	"github.com/locvowork/fleet_management_sample/pkg/excelkit/driver"
)

//go:embed reports/*.yaml
var reportFS embed.FS

var (
	ErrUnknownReport     = errors.New("unknown report")
	ErrReportUnavailable = errors.New("report source not configured")
)

// FormatterPresent renders "Yes" for any set value and "No" otherwise.
const FormatterPresent = "present"

// Row source names used by the report catalogue.
const (
	SourceCustomers   = "customers"
	SourceVehicles    = "vehicles"
	SourceOrders      = "orders"
	SourceOrderSearch = "order_search"
	SourceCosts       = "costs"
)

// Sources are the repositories reports read from. A nil entry disables every
// report that needs it.
type Sources struct {
	Customers   domain.CustomerRepository
	Vehicles    domain.VehicleRepository
	Orders      domain.OrderRepository
	OrderSearch domain.OrderSearcher
	Costs       domain.CostRepository
}

// ExportService maps report names and filters onto workbook definitions and
// renders them with the excel engine.
type ExportService struct {
	engine  *excelkit.Service
	sources Sources
	reports map[string]*excelkit.Definition
	creator string
	maxRows int
}

type Option func(*ExportService)

// WithCreator sets the workbook author for reports that do not name one.
func WithCreator(name string) Option {
	return func(s *ExportService) { s.creator = name }
}

// WithMaxRows caps the rows read per source. Zero means no cap.
func WithMaxRows(n int) Option {
	return func(s *ExportService) { s.maxRows = n }
}

// NewExportService loads the embedded report catalogue and registers its
// styles and formatters on the engine.
func NewExportService(engine *excelkit.Service, sources Sources, opts ...Option) (*ExportService, error) {
	reports, err := LoadCatalogue()
	if err != nil {
		return nil, err
	}
	s := &ExportService{engine: engine, sources: sources, reports: reports}
	for _, o := range opts {
		o(s)
	}

	for _, def := range reports {
		def.RegisterStyles(engine.Styles())
	}
	engine.Formatters().Register(FormatterPresent, formatPresent)
	return s, nil
}

// LoadCatalogue parses every embedded report definition. Reports are named
// after their file.
func LoadCatalogue() (map[string]*excelkit.Definition, error) {
	entries, err := reportFS.ReadDir("reports")
	if err != nil {
		return nil, err
	}
	reports := make(map[string]*excelkit.Definition, len(entries))
	for _, e := range entries {
		data, err := reportFS.ReadFile(path.Join("reports", e.Name()))
		if err != nil {
			return nil, err
		}
		def, err := excelkit.ParseDefinition(data)
		if err != nil {
			return nil, fmt.Errorf("report %s: %w", e.Name(), err)
		}
		reports[strings.TrimSuffix(e.Name(), path.Ext(e.Name()))] = def
	}
	return reports, nil
}

// Reports lists the catalogue in name order.
func (s *ExportService) Reports() []string {
	names := make([]string, 0, len(s.reports))
	for name := range s.reports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definition returns the catalogue entry for report.
func (s *ExportService) Definition(report string) (*excelkit.Definition, error) {
	def, ok := s.reports[report]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownReport, report)
	}
	return def, nil
}

// Prepare opens the row sources a report needs and binds them to its sheets.
// On success the caller owns the returned sheets' sources.
func (s *ExportService) Prepare(ctx context.Context, report string, filter domain.ExportFilter) (excelkit.WorkbookSpec, []excelkit.SheetData, error) {
	def, err := s.Definition(report)
	if err != nil {
		return excelkit.WorkbookSpec{}, nil, err
	}
	if s.maxRows > 0 && (filter.Limit <= 0 || filter.Limit > s.maxRows) {
		filter.Limit = s.maxRows
	}

	sources := make(map[string]excelkit.RowSource)
	for _, name := range def.SourceNames() {
		src, err := s.open(ctx, name, filter)
		if err != nil {
			closeSources(sources)
			return excelkit.WorkbookSpec{}, nil, fmt.Errorf("report %s: %w", report, err)
		}
		sources[name] = src
	}

	wb, sheets, err := def.Bind(sources)
	if err != nil {
		closeSources(sources)
		return excelkit.WorkbookSpec{}, nil, err
	}
	if wb.Creator == "" {
		wb.Creator = s.creator
	}
	if wb.Filename == "" {
		wb.Filename = report + ".xlsx"
	}
	return wb, sheets, nil
}

// Generate renders a report into memory. In streaming mode the result is nil
// and Stream should be used instead.
func (s *ExportService) Generate(ctx context.Context, report string, filter domain.ExportFilter, mode driver.Mode) ([]byte, excelkit.WorkbookSpec, error) {
	wb, sheets, err := s.Prepare(ctx, report, filter)
	if err != nil {
		return nil, wb, err
	}
	defer closeSheets(sheets)

	start := time.Now()
	data, err := s.engine.Generate(ctx, wb, sheets, mode)
	if err != nil {
		return nil, wb, err
	}
	logger.DebugLog(ctx, "report %s rendered in %s", report, time.Since(start))
	return data, wb, nil
}

// Stream renders a report straight into dst. prepared runs once the sources
// are open and before the first byte is written, so callers can still set
// response headers.
func (s *ExportService) Stream(ctx context.Context, dst io.Writer, report string, filter domain.ExportFilter, mode driver.Mode, prepared func(excelkit.WorkbookSpec)) error {
	wb, sheets, err := s.Prepare(ctx, report, filter)
	if err != nil {
		return err
	}
	defer closeSheets(sheets)

	if prepared != nil {
		prepared(wb)
	}
	return s.engine.GenerateTo(ctx, dst, wb, sheets, mode)
}

func (s *ExportService) open(ctx context.Context, name string, filter domain.ExportFilter) (excelkit.RowSource, error) {
	switch name {
	case SourceCustomers:
		if s.sources.Customers != nil {
			return s.sources.Customers.StreamCustomers(ctx, filter)
		}
	case SourceVehicles:
		if s.sources.Vehicles != nil {
			return s.sources.Vehicles.StreamVehicles(ctx, filter)
		}
	case SourceOrders:
		if s.sources.Orders != nil {
			return s.sources.Orders.StreamOrders(ctx, filter)
		}
	case SourceOrderSearch:
		if s.sources.OrderSearch != nil {
			return s.sources.OrderSearch.SearchOrders(ctx, filter)
		}
	case SourceCosts:
		if s.sources.Costs != nil {
			return s.sources.Costs.StreamCosts(ctx, filter)
		}
	default:
		return nil, fmt.Errorf("%w: %q", excelkit.ErrSourceNotFound, name)
	}
	return nil, fmt.Errorf("%w: %s", ErrReportUnavailable, name)
}

func closeSources(sources map[string]excelkit.RowSource) {
	for _, src := range sources {
		if c, ok := src.(io.Closer); ok {
			c.Close()
		}
	}
}

// closeSheets releases every source, including those of sheets the engine
// never reached.
func closeSheets(sheets []excelkit.SheetData) {
	for _, sd := range sheets {
		if c, ok := sd.Rows.(io.Closer); ok {
			c.Close()
		}
	}
}

func formatPresent(v interface{}) interface{} {
	switch x := v.(type) {
	case nil:
		return "No"
	case time.Time:
		if x.IsZero() {
			return "No"
		}
	case string:
		if strings.TrimSpace(x) == "" {
			return "No"
		}
	case bool:
		if !x {
			return "No"
		}
	}
	return "Yes"
}
