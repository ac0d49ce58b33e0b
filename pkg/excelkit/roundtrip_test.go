package excelkit_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/locvowork/fleet_management_sample/pkg/excelkit"
	"github.com/locvowork/fleet_management_sample/pkg/excelkit/driver"
	"github.com/locvowork/fleet_management_sample/pkg/excelkit/driver/excelizedriver"
)

func excelizeService() *excelkit.Service {
	return newService(excelizedriver.New(excelizedriver.WithLogger(zerolog.Nop())))
}

func roundTripSpec() excelkit.WorkbookSpec {
	ts := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	return excelkit.WorkbookSpec{
		Filename: "orders.xlsx",
		Creator:  "dispatch",
		Created:  ts,
		Modified: ts.Add(30 * time.Minute),
	}
}

func readBack(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func assertOrdersSheet(t *testing.T, f *excelize.File) {
	t.Helper()
	rows, err := f.GetRows("Orders", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Code", "Customer", "Amount", "Delivered"}, rows[0])
	assert.Equal(t, []string{"DH-001", "Minh Phat", "1234.56", "1"}, rows[1])
	assert.Equal(t, []string{"DH-002", "Hoang Long", "980", "0"}, rows[2])
	assert.Equal(t, "DH-003", rows[3][0])
	assert.Equal(t, "", rows[3][2])
	assert.Equal(t, "3 orders", rows[4][0])

	delivered, err := f.GetCellValue("Orders", "D2")
	require.NoError(t, err)
	assert.Equal(t, "TRUE", delivered)
	delivered, err = f.GetCellValue("Orders", "D3")
	require.NoError(t, err)
	assert.Equal(t, "FALSE", delivered)
}

func ordersWithFooter() []excelkit.SheetData {
	return []excelkit.SheetData{{
		Spec: excelkit.SheetSpec{
			Name:       "Orders",
			Columns:    orderColumns(),
			AutoFilter: true,
			Freeze:     &excelkit.Panes{Row: 1},
			Footer:     &excelkit.FooterSpec{Label: "3 orders"},
		},
		Rows: excelkit.FromSlice(orders),
	}}
}

func TestMemoryRoundTripPreservesMetadataAndValues(t *testing.T) {
	data, err := excelizeService().Generate(context.Background(), roundTripSpec(), ordersWithFooter(), driver.ModeMemory)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f := readBack(t, data)
	props, err := f.GetDocProps()
	require.NoError(t, err)
	assert.Equal(t, "dispatch", props.Creator)
	assert.Equal(t, "2024-06-01T09:00:00Z", props.Created)
	assert.Equal(t, "2024-06-01T09:30:00Z", props.Modified)

	assertOrdersSheet(t, f)

	amount, err := f.GetCellValue("Orders", "C2")
	require.NoError(t, err)
	assert.Equal(t, "1,234.56", amount, "money style applied")
}

func TestStreamingRoundTripMatchesMemory(t *testing.T) {
	var buf bytes.Buffer
	err := excelizeService().GenerateTo(context.Background(), &buf, roundTripSpec(), ordersWithFooter(), driver.ModeStreaming)
	require.NoError(t, err)

	f := readBack(t, buf.Bytes())
	assertOrdersSheet(t, f)

	panes, err := f.GetPanes("Orders")
	require.NoError(t, err)
	assert.Equal(t, 1, panes.YSplit)
	assert.Equal(t, "A2", panes.TopLeftCell)
}
