package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/locvowork/fleet_management_sample/pkg/excelkit"
)

const vehiclesDefinition = `
filename: vehicles.xlsx
styles:
  plate: {font: {bold: true}}
sheets:
  - name: Vehicles
    source: vehicles
    freeze: {row: 1}
    columns:
      - {key: plate, header: Plate, style: plate, width: 14}
      - {key: capacity_kg, header: Capacity}
      - {key: driver.name, header: Driver}
`

const vehiclesNDJSON = `{"plate":"51C-123.45","capacity_kg":1500,"driver":{"name":"Tran Van An"}}

{"plate":"29H-678.90","capacity_kg":8000}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGenerate(t *testing.T) {
	for _, mode := range []string{"memory", "streaming"} {
		t.Run(mode, func(t *testing.T) {
			dir := t.TempDir()
			def := writeFile(t, dir, "vehicles.yaml", vehiclesDefinition)
			data := writeFile(t, dir, "vehicles.ndjson", vehiclesNDJSON)
			out := filepath.Join(dir, "out", "vehicles.xlsx")

			_, err := execute(t, "generate", "--definition", def, "--data", data, "--mode", mode, "--out", out)
			require.NoError(t, err)

			f, err := excelize.OpenFile(out)
			require.NoError(t, err)
			defer f.Close()

			rows, err := f.GetRows("Vehicles")
			require.NoError(t, err)
			require.Len(t, rows, 3)
			assert.Equal(t, []string{"Plate", "Capacity", "Driver"}, rows[0])
			assert.Equal(t, []string{"51C-123.45", "1500", "Tran Van An"}, rows[1])
			assert.Equal(t, []string{"29H-678.90", "8000"}, rows[2])

			props, err := f.GetDocProps()
			require.NoError(t, err)
			assert.Equal(t, "exportctl", props.Creator)
		})
	}
}

func TestGenerateMissingDataFile(t *testing.T) {
	dir := t.TempDir()
	def := writeFile(t, dir, "vehicles.yaml", vehiclesDefinition)
	out := filepath.Join(dir, "vehicles.xlsx")

	_, err := execute(t, "generate", "-d", def, "--data", filepath.Join(dir, "nope.ndjson"), "-o", out)
	require.Error(t, err)

	var genErr *excelkit.GenerateError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, "Vehicles", genErr.Sheet)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.NoFileExists(t, out, "partial workbook removed")
}

func TestGenerateFlagErrors(t *testing.T) {
	dir := t.TempDir()
	def := writeFile(t, dir, "vehicles.yaml", vehiclesDefinition)

	_, err := execute(t, "generate", "--data", "x.ndjson")
	assert.Error(t, err, "definition or report required")

	_, err = execute(t, "generate", "-d", def, "-r", "orders")
	assert.Error(t, err, "exclusive")

	_, err = execute(t, "generate", "-d", def, "--data", "x.ndjson", "--mode", "paper")
	assert.Error(t, err)

	_, err = execute(t, "generate", "-d", def)
	assert.ErrorContains(t, err, `no --data for source "vehicles"`)

	_, err = execute(t, "generate", "-r", "payroll", "--data", "x.ndjson")
	assert.ErrorContains(t, err, "payroll")
}

func TestGenerateBuiltinReport(t *testing.T) {
	dir := t.TempDir()
	costs := writeFile(t, dir, "costs.json", `[
  {"vehicle_plate":"51C-123.45","category":"fuel","amount":2500000,"incurred_at":"2024-03-01T08:00:00Z","note":"Full tank"}
]`)
	vehicles := writeFile(t, dir, "vehicles.ndjson", vehiclesNDJSON)
	out := filepath.Join(dir, "fleet.xlsx")

	_, err := execute(t, "generate", "-r", "fleet",
		"--data", "costs="+costs, "--data", "vehicles="+vehicles, "-o", out)
	require.NoError(t, err)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Vehicles", "Costs"}, f.GetSheetList())
}

func TestReports(t *testing.T) {
	out, err := execute(t, "reports")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Contains(t, lines, "orders\torders")
	assert.Contains(t, lines, "fleet\tvehicles,costs")
}

func TestDataFiles(t *testing.T) {
	def, err := excelkit.ParseDefinition([]byte(vehiclesDefinition))
	require.NoError(t, err)

	files, err := dataFiles(def, []string{"v.ndjson"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"vehicles": "v.ndjson"}, files)

	files, err = dataFiles(def, []string{"vehicles=a=b.ndjson"})
	require.NoError(t, err)
	assert.Equal(t, "a=b.ndjson", files["vehicles"])
}

func TestSplitRows(t *testing.T) {
	tests := []struct {
		name  string
		input string
		lines []int
	}{
		{"ndjson", vehiclesNDJSON, []int{1, 2, 3}},
		{"no trailing newline", "{\"a\":1}\n{\"a\":2}", []int{1, 2}},
		{"leading blank lines", "\n\n{\"a\":1}\n", []int{1, 2, 3}},
		{"array", ` [{"plate":"a"},{"plate":"b"},{"plate":"c"}]`, []int{1, 2, 3}},
		{"empty", "\n\n", nil},
		{"empty array", "[]", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lines []int
			err := splitRows(strings.NewReader(tt.input), func(r rawRow) error {
				lines = append(lines, r.line)
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, tt.lines, lines)
		})
	}
}

func TestSplitRowsErrors(t *testing.T) {
	err := splitRows(strings.NewReader(`[{"plate":"a"},{"plate":`), func(rawRow) error { return nil })
	assert.Error(t, err)

	stop := errors.New("stop")
	n := 0
	err = splitRows(strings.NewReader(vehiclesNDJSON), func(rawRow) error {
		n++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, n)
}

func TestDecodeRow(t *testing.T) {
	row, err := decodeRow(rawRow{line: 1, data: []byte(`{"plate":"a"}`)})
	require.NoError(t, err)
	assert.Equal(t, record{"plate": "a"}, row)

	_, err = decodeRow(rawRow{line: 4, data: []byte(`{"plate":`)})
	assert.ErrorContains(t, err, "row 4")

	_, err = decodeRow(rawRow{line: 5, data: []byte(`null`)})
	assert.ErrorContains(t, err, "not an object")
}

func drain(t *testing.T, src excelkit.RowSource) ([]interface{}, error) {
	t.Helper()
	var rows []interface{}
	for {
		row, err := src.Next(context.Background())
		if err != nil {
			if errors.Is(err, io.EOF) {
				return rows, nil
			}
			return rows, err
		}
		rows = append(rows, row)
	}
}

func TestFileSourceStreamsRows(t *testing.T) {
	path := writeFile(t, t.TempDir(), "rows.ndjson", vehiclesNDJSON)
	rows, err := drain(t, fileSource(context.Background(), path, false))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "51C-123.45", excelkit.ExtractPath(rows[0], "plate"))
	assert.Equal(t, "Tran Van An", excelkit.ExtractPath(rows[0], "driver.name"))
	assert.Equal(t, "29H-678.90", excelkit.ExtractPath(rows[1], "plate"))
}

const brokenNDJSON = `{"plate":"a"}
not json
{"plate":"b"}
`

func TestFileSourceInvalidRow(t *testing.T) {
	path := writeFile(t, t.TempDir(), "rows.ndjson", brokenNDJSON)
	src := fileSource(context.Background(), path, false)
	defer src.(io.Closer).Close()

	rows, err := drain(t, src)
	assert.Len(t, rows, 1)
	assert.ErrorContains(t, err, "row 2")
}

func TestFileSourceSkipInvalid(t *testing.T) {
	path := writeFile(t, t.TempDir(), "rows.ndjson", brokenNDJSON)
	rows, err := drain(t, fileSource(context.Background(), path, true))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "b", excelkit.ExtractPath(rows[1], "plate"))
}

func TestGenerateSkipInvalid(t *testing.T) {
	dir := t.TempDir()
	def := writeFile(t, dir, "vehicles.yaml", vehiclesDefinition)
	data := writeFile(t, dir, "vehicles.ndjson", brokenNDJSON)
	out := filepath.Join(dir, "vehicles.xlsx")

	_, err := execute(t, "generate", "-d", def, "--data", data, "-o", out)
	require.Error(t, err)

	_, err = execute(t, "generate", "-d", def, "--data", data, "-o", out, "--skip-invalid")
	require.NoError(t, err)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Vehicles")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}
