package excelkit

import (
	"context"

	"github.com/rs/zerolog"
)

// Plugin is a workbook-level extension. A plugin implements any subset of the
// hook interfaces below; hooks it lacks are skipped. Hooks run in plugin
// registration order and a returned error aborts generation.
type Plugin interface {
	Name() string
}

type BeforeWorkbookHook interface {
	BeforeWorkbook(ctx context.Context, wb WorkbookSpec) error
}

type BeforeSheetHook interface {
	BeforeSheet(ctx context.Context, sheet SheetSpec) error
}

type AfterSheetHook interface {
	AfterSheet(ctx context.Context, sheet SheetSpec) error
}

type AfterWorkbookHook interface {
	AfterWorkbook(ctx context.Context, wb WorkbookSpec) error
}

// PluginFuncs builds a plugin from plain functions. Nil functions are no-ops.
type PluginFuncs struct {
	PluginName       string
	OnBeforeWorkbook func(ctx context.Context, wb WorkbookSpec) error
	OnBeforeSheet    func(ctx context.Context, sheet SheetSpec) error
	OnAfterSheet     func(ctx context.Context, sheet SheetSpec) error
	OnAfterWorkbook  func(ctx context.Context, wb WorkbookSpec) error
}

func (p PluginFuncs) Name() string { return p.PluginName }

func (p PluginFuncs) BeforeWorkbook(ctx context.Context, wb WorkbookSpec) error {
	if p.OnBeforeWorkbook == nil {
		return nil
	}
	return p.OnBeforeWorkbook(ctx, wb)
}

func (p PluginFuncs) BeforeSheet(ctx context.Context, sheet SheetSpec) error {
	if p.OnBeforeSheet == nil {
		return nil
	}
	return p.OnBeforeSheet(ctx, sheet)
}

func (p PluginFuncs) AfterSheet(ctx context.Context, sheet SheetSpec) error {
	if p.OnAfterSheet == nil {
		return nil
	}
	return p.OnAfterSheet(ctx, sheet)
}

func (p PluginFuncs) AfterWorkbook(ctx context.Context, wb WorkbookSpec) error {
	if p.OnAfterWorkbook == nil {
		return nil
	}
	return p.OnAfterWorkbook(ctx, wb)
}

// LoggingPlugin logs the workbook lifecycle at debug level.
type LoggingPlugin struct {
	logger zerolog.Logger
}

func NewLoggingPlugin(logger zerolog.Logger) *LoggingPlugin {
	return &LoggingPlugin{logger: logger}
}

func (p *LoggingPlugin) Name() string { return "logging" }

func (p *LoggingPlugin) BeforeWorkbook(ctx context.Context, wb WorkbookSpec) error {
	p.logger.Debug().Str("file", wb.Filename).Str("creator", wb.Creator).Msg("workbook started")
	return nil
}

func (p *LoggingPlugin) BeforeSheet(ctx context.Context, sheet SheetSpec) error {
	p.logger.Debug().Str("sheet", sheet.Name).Int("columns", len(sheet.Columns)).Msg("sheet started")
	return nil
}

func (p *LoggingPlugin) AfterSheet(ctx context.Context, sheet SheetSpec) error {
	p.logger.Debug().Str("sheet", sheet.Name).Msg("sheet committed")
	return nil
}

func (p *LoggingPlugin) AfterWorkbook(ctx context.Context, wb WorkbookSpec) error {
	p.logger.Debug().Str("file", wb.Filename).Msg("workbook finalized")
	return nil
}
