package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/locvowork/fleet_management_sample/internal/domain"
	"github.com/locvowork/fleet_management_sample/internal/logger"
	"github.com/locvowork/fleet_management_sample/internal/service"
	"github.com/locvowork/fleet_management_sample/pkg/excelkit"
	"github.com/locvowork/fleet_management_sample/pkg/excelkit/driver"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	headerExportID  = "X-Export-ID"
	dateLayout      = "2006-01-02"
)

// Exporter is satisfied by service.ExportService.
type Exporter interface {
	Reports() []string
	Generate(ctx context.Context, report string, filter domain.ExportFilter, mode driver.Mode) ([]byte, excelkit.WorkbookSpec, error)
	Stream(ctx context.Context, dst io.Writer, report string, filter domain.ExportFilter, mode driver.Mode, prepared func(excelkit.WorkbookSpec)) error
}

// ExportHandler serves report downloads.
type ExportHandler struct {
	exports     Exporter
	defaultMode driver.Mode
	timeout     time.Duration
}

// NewExportHandler creates a new ExportHandler. A zero timeout disables the
// per-export deadline.
func NewExportHandler(exports Exporter, defaultMode driver.Mode, timeout time.Duration) *ExportHandler {
	if defaultMode == "" {
		defaultMode = driver.ModeMemory
	}
	return &ExportHandler{exports: exports, defaultMode: defaultMode, timeout: timeout}
}

// ListReportsHandler handles GET /export
func (h *ExportHandler) ListReportsHandler(c echo.Context) error {
	return ResponseJSON(c, http.StatusOK, h.exports.Reports())
}

// DownloadHandler handles GET /export/:report
//
// Query parameters: mode (memory|streaming), from, to (YYYY-MM-DD),
// customer_id, status, category, q, limit.
func (h *ExportHandler) DownloadHandler(c echo.Context) error {
	report := c.Param("report")

	mode := h.defaultMode
	if m := c.QueryParam("mode"); m != "" {
		parsed, err := driver.ParseMode(m)
		if err != nil {
			return ResponseError(c, http.StatusBadRequest, "Invalid export mode", err)
		}
		mode = parsed
	}

	filter, err := parseFilter(c)
	if err != nil {
		return ResponseError(c, http.StatusBadRequest, "Invalid export filter", err)
	}

	exportID := uuid.NewString()
	ctx := logger.WithLogger(c.Request().Context(), map[string]interface{}{
		"export_id": exportID,
		"report":    report,
		"mode":      mode.String(),
	})
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	c.SetRequest(c.Request().WithContext(ctx))
	logger.InfoLog(ctx, "export requested")

	if mode == driver.ModeStreaming {
		return h.stream(ctx, c, report, filter, exportID)
	}

	data, wb, err := h.exports.Generate(ctx, report, filter, mode)
	if err != nil {
		return exportError(c, err)
	}
	setDownloadHeaders(c, wb.Filename, exportID)
	c.Response().Header().Set(echo.HeaderContentLength, strconv.Itoa(len(data)))
	return c.Blob(http.StatusOK, xlsxContentType, data)
}

func (h *ExportHandler) stream(ctx context.Context, c echo.Context, report string, filter domain.ExportFilter, exportID string) error {
	res := c.Response()
	err := h.exports.Stream(ctx, res, report, filter, driver.ModeStreaming, func(wb excelkit.WorkbookSpec) {
		setDownloadHeaders(c, wb.Filename, exportID)
		res.Header().Set(echo.HeaderContentType, xlsxContentType)
		res.WriteHeader(http.StatusOK)
	})
	if err == nil {
		return nil
	}
	if res.Committed {
		// the status line is gone, the client sees a truncated file
		logger.ErrorLog(ctx, "streaming export failed", err)
		return nil
	}
	return exportError(c, err)
}

func exportError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrUnknownReport):
		return ResponseError(c, http.StatusNotFound, "Unknown report", err)
	case errors.Is(err, service.ErrReportUnavailable):
		return ResponseError(c, http.StatusServiceUnavailable, "Report is not available", err)
	case errors.Is(err, context.DeadlineExceeded):
		return ResponseError(c, http.StatusGatewayTimeout, "Export timed out", err)
	}
	var genErr *excelkit.GenerateError
	if errors.As(err, &genErr) {
		return ResponseError(c, http.StatusInternalServerError, fmt.Sprintf("Failed to generate %s", genErr.Stage), err)
	}
	return ResponseError(c, http.StatusInternalServerError, "Failed to generate Excel file", err)
}

func setDownloadHeaders(c echo.Context, filename, exportID string) {
	h := c.Response().Header()
	h.Set(echo.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	h.Set(headerExportID, exportID)
}

func parseFilter(c echo.Context) (domain.ExportFilter, error) {
	f := domain.ExportFilter{
		Status:   c.QueryParam("status"),
		Category: c.QueryParam("category"),
		Query:    c.QueryParam("q"),
	}
	var err error
	if f.From, err = parseDate(c.QueryParam("from")); err != nil {
		return f, fmt.Errorf("from: %w", err)
	}
	if f.To, err = parseDate(c.QueryParam("to")); err != nil {
		return f, fmt.Errorf("to: %w", err)
	}
	if !f.From.IsZero() && !f.To.IsZero() && !f.To.After(f.From) {
		return f, errors.New("to must be after from")
	}
	if v := c.QueryParam("customer_id"); v != "" {
		if f.CustomerID, err = strconv.ParseInt(v, 10, 64); err != nil || f.CustomerID <= 0 {
			return f, fmt.Errorf("customer_id: invalid value %q", v)
		}
	}
	if v := c.QueryParam("limit"); v != "" {
		if f.Limit, err = strconv.Atoi(v); err != nil || f.Limit < 0 {
			return f, fmt.Errorf("limit: invalid value %q", v)
		}
	}
	return f, nil
}

func parseDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(dateLayout, v, time.UTC)
}
