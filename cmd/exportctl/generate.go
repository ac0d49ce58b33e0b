package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/locvowork/fleet_management_sample/internal/bootstrap"
	"github.com/locvowork/fleet_management_sample/internal/logger"
	"github.com/locvowork/fleet_management_sample/internal/service"
	"github.com/locvowork/fleet_management_sample/pkg/excelkit"
	"github.com/locvowork/fleet_management_sample/pkg/excelkit/driver"
)

type generateOptions struct {
	definition string
	report     string
	data       []string
	mode       string
	out        string
	creator    string
	skip       bool
}

func newGenerateCmd() *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Render a workbook from a definition and row files",
		Example: `  exportctl generate --definition vehicles.yaml --data vehicles.ndjson --out vehicles.xlsx
  exportctl generate --report fleet --data vehicles=v.ndjson --data costs=c.json --mode streaming`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.definition, "definition", "d", "", "YAML workbook definition file")
	f.StringVarP(&opts.report, "report", "r", "", "Built-in report name instead of --definition")
	f.StringArrayVar(&opts.data, "data", nil, "Row file as source=path, or a bare path for a single-source definition")
	f.StringVar(&opts.mode, "mode", "memory", "Generation mode: memory, streaming")
	f.StringVarP(&opts.out, "out", "o", "", "Output file (default: the definition's filename)")
	f.StringVar(&opts.creator, "creator", "exportctl", "Workbook author when the definition names none")
	f.BoolVar(&opts.skip, "skip-invalid", false, "Log and skip rows that are not JSON objects instead of failing")
	cmd.MarkFlagsMutuallyExclusive("definition", "report")
	cmd.MarkFlagsOneRequired("definition", "report")
	return cmd
}

func runGenerate(ctx context.Context, opts *generateOptions) error {
	mode, err := driver.ParseMode(opts.mode)
	if err != nil {
		return err
	}

	engine := bootstrap.NewEngine()
	def, err := loadDefinition(engine, opts)
	if err != nil {
		return err
	}

	files, err := dataFiles(def, opts.data)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	sources := make(map[string]excelkit.RowSource, len(files))
	for name, path := range files {
		sources[name] = fileSource(ctx, path, opts.skip)
	}

	wb, sheets, err := def.Bind(sources)
	if err != nil {
		return err
	}
	if wb.Creator == "" {
		wb.Creator = opts.creator
	}

	out := opts.out
	if out == "" {
		out = wb.Filename
	}
	if out == "" {
		return errors.New("no output file: pass --out or set filename in the definition")
	}

	if err := writeWorkbook(ctx, engine, out, wb, sheets, mode); err != nil {
		return err
	}
	logger.InfoLog(ctx, "workbook written to %s", out)
	return nil
}

func loadDefinition(engine *excelkit.Service, opts *generateOptions) (*excelkit.Definition, error) {
	if opts.report != "" {
		exports, err := service.NewExportService(engine, service.Sources{})
		if err != nil {
			return nil, err
		}
		return exports.Definition(opts.report)
	}

	f, err := os.Open(opts.definition)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	def, err := excelkit.LoadDefinition(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opts.definition, err)
	}
	def.RegisterStyles(engine.Styles())
	return def, nil
}

// dataFiles maps every source the definition needs to a row file.
func dataFiles(def *excelkit.Definition, data []string) (map[string]string, error) {
	needed := uniq(def.SourceNames())
	files := make(map[string]string, len(needed))
	for _, d := range data {
		name, path, ok := strings.Cut(d, "=")
		if !ok {
			if len(needed) != 1 {
				return nil, fmt.Errorf("--data %s: definition reads %d sources, use source=path", d, len(needed))
			}
			name, path = needed[0], d
		}
		files[name] = path
	}
	for _, name := range needed {
		if _, ok := files[name]; !ok {
			return nil, fmt.Errorf("no --data for source %q", name)
		}
	}
	return files, nil
}

func writeWorkbook(ctx context.Context, engine *excelkit.Service, path string, wb excelkit.WorkbookSpec, sheets []excelkit.SheetData, mode driver.Mode) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()
	return engine.GenerateTo(ctx, f, wb, sheets, mode)
}
