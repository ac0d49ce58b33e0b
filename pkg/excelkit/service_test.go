package excelkit_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/fleet_management_sample/pkg/dataflow"
	"github.com/locvowork/fleet_management_sample/pkg/excelkit"
	"github.com/locvowork/fleet_management_sample/pkg/excelkit/driver"
	"github.com/locvowork/fleet_management_sample/pkg/excelkit/driver/eventlog"
	"github.com/locvowork/fleet_management_sample/pkg/excelkit/formatter"
	"github.com/locvowork/fleet_management_sample/pkg/excelkit/style"
)

type order struct {
	Code      string  `json:"code"`
	Customer  string  `json:"customer"`
	Amount    string  `json:"amount"`
	Delivered string  `json:"delivered"`
	Weight    float64 `json:"weight_kg"`
}

var orders = []order{
	{Code: "DH-001", Customer: "Minh Phat", Amount: "1,234.56", Delivered: "yes", Weight: 120},
	{Code: "DH-002", Customer: "Hoang Long", Amount: "980", Delivered: "không", Weight: 75.5},
	{Code: "DH-003", Customer: "An Binh", Amount: "", Delivered: "no", Weight: 0},
}

func newService(drv driver.Driver, opts ...excelkit.Option) *excelkit.Service {
	nop := zerolog.Nop()
	opts = append([]excelkit.Option{excelkit.WithLogger(nop)}, opts...)
	return excelkit.NewService(drv,
		formatter.NewDefaultRegistry(formatter.WithLogger(nop)),
		style.NewDefaultRegistry(style.WithLogger(nop)),
		opts...,
	)
}

func orderColumns() []excelkit.ColumnDef {
	return []excelkit.ColumnDef{
		{Key: "code", Header: "Code", Path: "Code"},
		{Key: "customer", Header: "Customer", Accessor: func(row interface{}) (interface{}, error) {
			return row.(order).Customer, nil
		}},
		{Key: "amount", Header: "Amount", Path: "amount", Formatter: formatter.Currency, Style: style.Named(style.NameMoney)},
		{Key: "delivered", Header: "Delivered", Path: "Delivered", Formatter: formatter.Boolean},
	}
}

func orderSheet(rows excelkit.RowSource) []excelkit.SheetData {
	return []excelkit.SheetData{{
		Spec: excelkit.SheetSpec{Name: "Orders", Columns: orderColumns()},
		Rows: rows,
	}}
}

func TestGenerateEventOrder(t *testing.T) {
	log := eventlog.New()
	svc := newService(log)

	out, err := svc.Generate(context.Background(), excelkit.WorkbookSpec{Filename: "orders.xlsx"},
		orderSheet(excelkit.FromSlice(orders)), driver.ModeMemory)
	require.NoError(t, err)
	assert.NotNil(t, out)

	assert.Equal(t, []eventlog.Kind{
		eventlog.KindCreateWorkbook,
		eventlog.KindAddSheet,
		eventlog.KindWriteHeader,
		eventlog.KindWriteRow,
		eventlog.KindWriteRow,
		eventlog.KindWriteRow,
		eventlog.KindCommit,
		eventlog.KindFinalize,
	}, log.Kinds())

	rows := log.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, []interface{}{"DH-001", "Minh Phat", 1234.56, true}, rows[0].Values)
	assert.Equal(t, []interface{}{"DH-002", "Hoang Long", 980.0, false}, rows[1].Values)
	assert.Equal(t, []interface{}{"DH-003", "An Binh", nil, false}, rows[2].Values)

	header := log.OfKind(eventlog.KindWriteHeader)[0].(eventlog.WriteHeaderEvent)
	assert.Equal(t, []string{"Code", "Customer", "Amount", "Delivered"}, header.Headers)
}

func TestGenerateStreamingReturnsNil(t *testing.T) {
	log := eventlog.New()
	svc := newService(log)

	out, err := svc.Generate(context.Background(), excelkit.WorkbookSpec{Filename: "orders.xlsx"},
		orderSheet(excelkit.FromSlice(orders)), driver.ModeStreaming)
	require.NoError(t, err)
	assert.Nil(t, out)

	created := log.OfKind(eventlog.KindCreateWorkbook)[0].(eventlog.CreateWorkbookEvent)
	assert.Equal(t, driver.ModeStreaming, created.Mode)
	assert.Len(t, log.Rows(), 3)
}

func TestHeaderAndDataStyles(t *testing.T) {
	log := eventlog.New()
	svc := newService(log)

	cols := []excelkit.ColumnDef{
		{Key: "code", Header: "Code", Path: "Code"},
		{Key: "weight", Header: "Weight", Path: "weight_kg", Style: style.Named(style.NameNumber), NumFmt: "0.0",
			HeaderStyle: style.Inline(style.Style{Font: &style.Font{Italic: style.Bool(true)}})},
		{Key: "amount", Header: "Amount", Path: "Amount", Style: style.Named("no-such-style"), NumFmt: "#,##0"},
	}
	_, err := svc.Generate(context.Background(), excelkit.WorkbookSpec{},
		[]excelkit.SheetData{{Spec: excelkit.SheetSpec{Name: "S", Columns: cols}, Rows: excelkit.FromSlice(orders[:1])}},
		driver.ModeMemory)
	require.NoError(t, err)

	add := log.OfKind(eventlog.KindAddSheet)[0].(eventlog.AddSheetEvent)
	require.Len(t, add.Options.Columns, 3)
	headerStyle := add.Options.Columns[0].Style
	require.NotNil(t, headerStyle)
	assert.True(t, style.IsTrue(headerStyle.Font.Bold), "default header style applied")
	assert.True(t, style.IsTrue(add.Options.Columns[1].Style.Font.Italic))

	row := log.Rows()[0]
	assert.Nil(t, row.Styles[0])
	require.NotNil(t, row.Styles[1])
	assert.Equal(t, "0.0", row.Styles[1].NumFmt)
	assert.Equal(t, "right", row.Styles[1].Alignment.Horizontal)
	assert.Equal(t, &style.Style{NumFmt: "#,##0"}, row.Styles[2])
	assert.Equal(t, 120.0, row.Values[1])
}

func TestBeforeWriteRowReplacementIsWritten(t *testing.T) {
	log := eventlog.New()
	svc := newService(log)

	rows := []map[string]interface{}{{"plate": "51A-12345"}, {"plate": "30F-67890"}}
	spec := excelkit.SheetSpec{
		Name: "Vehicles",
		Columns: []excelkit.ColumnDef{
			{Key: "plate", Header: "Plate", Path: "plate"},
			{Key: "processed", Header: "Processed", Path: "processed"},
		},
		BeforeWriteRow: func(ctx context.Context, row interface{}) (interface{}, error) {
			out := map[string]interface{}{"processed": true}
			for k, v := range row.(map[string]interface{}) {
				out[k] = v
			}
			return out, nil
		},
	}
	_, err := svc.Generate(context.Background(), excelkit.WorkbookSpec{},
		[]excelkit.SheetData{{Spec: spec, Rows: excelkit.FromSlice(rows)}}, driver.ModeMemory)
	require.NoError(t, err)

	for _, r := range log.Rows() {
		assert.Equal(t, true, r.Values[1])
	}
}

func TestBeforeWriteRowNilKeepsRow(t *testing.T) {
	log := eventlog.New()
	svc := newService(log)

	spec := excelkit.SheetSpec{
		Name:    "Orders",
		Columns: orderColumns()[:1],
		BeforeWriteRow: func(context.Context, interface{}) (interface{}, error) {
			return nil, nil
		},
	}
	_, err := svc.Generate(context.Background(), excelkit.WorkbookSpec{},
		[]excelkit.SheetData{{Spec: spec, Rows: excelkit.FromSlice(orders[:1])}}, driver.ModeMemory)
	require.NoError(t, err)
	assert.Equal(t, "DH-001", log.Rows()[0].Values[0])
}

func TestAfterWriteRowIndices(t *testing.T) {
	svc := newService(eventlog.New())

	var indices []int
	spec := excelkit.SheetSpec{
		Name:    "Orders",
		Columns: orderColumns(),
		AfterWriteRow: func(ctx context.Context, w excelkit.RowWritten) error {
			indices = append(indices, w.RowIndex)
			return nil
		},
	}
	_, err := svc.Generate(context.Background(), excelkit.WorkbookSpec{},
		[]excelkit.SheetData{{Spec: spec, Rows: excelkit.FromSlice(orders)}}, driver.ModeMemory)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, indices)
}

func TestPluginHookOrder(t *testing.T) {
	svc := newService(eventlog.New())

	var calls []string
	record := func(name string) excelkit.PluginFuncs {
		return excelkit.PluginFuncs{
			PluginName: name,
			OnBeforeWorkbook: func(context.Context, excelkit.WorkbookSpec) error {
				calls = append(calls, name+":beforeWorkbook")
				return nil
			},
			OnBeforeSheet: func(context.Context, excelkit.SheetSpec) error {
				calls = append(calls, name+":beforeSheet")
				return nil
			},
			OnAfterSheet: func(context.Context, excelkit.SheetSpec) error {
				calls = append(calls, name+":afterSheet")
				return nil
			},
			OnAfterWorkbook: func(context.Context, excelkit.WorkbookSpec) error {
				calls = append(calls, name+":afterWorkbook")
				return nil
			},
		}
	}
	onlySheet := excelkit.PluginFuncs{
		PluginName: "sheet-only",
		OnAfterSheet: func(context.Context, excelkit.SheetSpec) error {
			calls = append(calls, "sheet-only:afterSheet")
			return nil
		},
	}
	svc.Use(record("a"), onlySheet, record("b"), excelkit.NewLoggingPlugin(zerolog.Nop()))

	_, err := svc.Generate(context.Background(), excelkit.WorkbookSpec{},
		orderSheet(excelkit.FromSlice(orders)), driver.ModeMemory)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"a:beforeWorkbook", "b:beforeWorkbook",
		"a:beforeSheet", "b:beforeSheet",
		"a:afterSheet", "sheet-only:afterSheet", "b:afterSheet",
		"a:afterWorkbook", "b:afterWorkbook",
	}, calls)
}

func TestAsyncSourceMatchesSyncSource(t *testing.T) {
	ctx := context.Background()

	syncLog := eventlog.New()
	_, err := newService(syncLog).Generate(ctx, excelkit.WorkbookSpec{},
		orderSheet(excelkit.FromSlice(orders)), driver.ModeMemory)
	require.NoError(t, err)

	ch := make(chan order)
	go func() {
		defer close(ch)
		for _, o := range orders {
			ch <- o
		}
	}()
	chanLog := eventlog.New()
	_, err = newService(chanLog).Generate(ctx, excelkit.WorkbookSpec{},
		orderSheet(excelkit.FromChannel(ch)), driver.ModeMemory)
	require.NoError(t, err)

	stream, errc := dataflow.Generate(ctx, func(ctx context.Context, emit func(order) error) error {
		for _, o := range orders {
			if err := emit(o); err != nil {
				return err
			}
		}
		return nil
	})
	streamLog := eventlog.New()
	_, err = newService(streamLog).Generate(ctx, excelkit.WorkbookSpec{},
		orderSheet(excelkit.FromStream(stream, errc)), driver.ModeMemory)
	require.NoError(t, err)

	assert.Len(t, chanLog.Rows(), len(orders))
	assert.Equal(t, syncLog.Events(), chanLog.Events())
	assert.Equal(t, syncLog.Events(), streamLog.Events())
}

func TestAutoFilterFreezeAndFooter(t *testing.T) {
	log := eventlog.New()
	svc := newService(log)

	spec := excelkit.SheetSpec{
		Name:       "Orders",
		Columns:    orderColumns(),
		AutoFilter: true,
		Freeze:     &excelkit.Panes{Row: 1},
		Footer:     &excelkit.FooterSpec{Label: "Total orders: 3", Style: style.Named(style.NameBold)},
	}
	_, err := svc.Generate(context.Background(), excelkit.WorkbookSpec{},
		[]excelkit.SheetData{{Spec: spec, Rows: excelkit.FromSlice(orders)}}, driver.ModeMemory)
	require.NoError(t, err)

	assert.Equal(t, []eventlog.Kind{
		eventlog.KindCreateWorkbook,
		eventlog.KindAddSheet,
		eventlog.KindWriteHeader,
		eventlog.KindWriteRow,
		eventlog.KindWriteRow,
		eventlog.KindWriteRow,
		eventlog.KindWriteFooter,
		eventlog.KindEnableAutoFilter,
		eventlog.KindFreeze,
		eventlog.KindCommit,
		eventlog.KindFinalize,
	}, log.Kinds())

	freeze := log.OfKind(eventlog.KindFreeze)[0].(eventlog.FreezeEvent)
	assert.Equal(t, 1, freeze.Row)
	assert.Equal(t, 0, freeze.Col)

	footer := log.OfKind(eventlog.KindWriteFooter)[0].(eventlog.WriteFooterEvent)
	assert.Equal(t, []interface{}{"Total orders: 3", nil, nil, nil}, footer.Values)
	require.NotNil(t, footer.Style)
	assert.True(t, style.IsTrue(footer.Style.Font.Bold))

	add := log.OfKind(eventlog.KindAddSheet)[0].(eventlog.AddSheetEvent)
	assert.True(t, add.Options.AutoFilter)
	assert.Equal(t, &driver.Panes{Row: 1}, add.Options.Freeze)
}

func TestCapabilitiesSkipUnsupportedSteps(t *testing.T) {
	log := eventlog.New()
	log.Caps = &driver.Capabilities{Buffered: true}
	svc := newService(log)

	spec := excelkit.SheetSpec{
		Name:       "Orders",
		Columns:    orderColumns(),
		AutoFilter: true,
		Freeze:     &excelkit.Panes{Row: 1},
		Footer:     &excelkit.FooterSpec{Label: "end"},
	}
	_, err := svc.Generate(context.Background(), excelkit.WorkbookSpec{},
		[]excelkit.SheetData{{Spec: spec, Rows: excelkit.FromSlice(orders)}}, driver.ModeMemory)
	require.NoError(t, err)

	assert.Empty(t, log.OfKind(eventlog.KindWriteFooter))
	assert.Empty(t, log.OfKind(eventlog.KindEnableAutoFilter))
	assert.Empty(t, log.OfKind(eventlog.KindFreeze))
}

func TestMultipleSheetsInOrder(t *testing.T) {
	log := eventlog.New()
	svc := newService(log)

	sheets := []excelkit.SheetData{
		{Spec: excelkit.SheetSpec{Name: "First", Columns: orderColumns()}, Rows: excelkit.FromSlice(orders[:1])},
		{Spec: excelkit.SheetSpec{Name: "Second", Columns: orderColumns()}, Rows: excelkit.FromSlice(orders[1:])},
	}
	_, err := svc.Generate(context.Background(), excelkit.WorkbookSpec{}, sheets, driver.ModeMemory)
	require.NoError(t, err)

	var names []string
	for _, e := range log.OfKind(eventlog.KindCommit) {
		names = append(names, e.(eventlog.CommitEvent).Sheet)
	}
	assert.Equal(t, []string{"First", "Second"}, names)
	assert.Len(t, log.OfKind(eventlog.KindFinalize), 1)
}

func TestDuplicateSheetNameFails(t *testing.T) {
	log := eventlog.New()
	svc := newService(log)

	sheets := []excelkit.SheetData{
		{Spec: excelkit.SheetSpec{Name: "Orders", Columns: orderColumns()}, Rows: excelkit.FromSlice(orders[:1])},
		{Spec: excelkit.SheetSpec{Name: "Orders", Columns: orderColumns()}, Rows: excelkit.FromSlice(orders[1:])},
	}
	_, err := svc.Generate(context.Background(), excelkit.WorkbookSpec{}, sheets, driver.ModeMemory)
	require.Error(t, err)
	assert.ErrorIs(t, err, driver.ErrDuplicateSheet)

	var gerr *excelkit.GenerateError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, excelkit.StageAddSheet, gerr.Stage)
	assert.Len(t, log.OfKind(eventlog.KindFinalize), 0)
}

func TestAccessorErrorAborts(t *testing.T) {
	log := eventlog.New()
	svc := newService(log)
	boom := errors.New("bad row")

	spec := excelkit.SheetSpec{
		Name: "Orders",
		Columns: []excelkit.ColumnDef{{Key: "code", Accessor: func(row interface{}) (interface{}, error) {
			if row.(order).Code == "DH-002" {
				return nil, boom
			}
			return row.(order).Code, nil
		}}},
	}
	_, err := svc.Generate(context.Background(), excelkit.WorkbookSpec{},
		[]excelkit.SheetData{{Spec: spec, Rows: excelkit.FromSlice(orders)}}, driver.ModeMemory)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var gerr *excelkit.GenerateError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, excelkit.StageRow, gerr.Stage)
	assert.Equal(t, "Orders", gerr.Sheet)
	assert.Equal(t, 1, gerr.Row)

	assert.Len(t, log.Rows(), 1)
	assert.Empty(t, log.OfKind(eventlog.KindCommit))
	assert.Empty(t, log.OfKind(eventlog.KindFinalize))
}

func TestPluginErrorAborts(t *testing.T) {
	log := eventlog.New()
	svc := newService(log, excelkit.WithPlugins(excelkit.PluginFuncs{
		PluginName: "guard",
		OnBeforeWorkbook: func(context.Context, excelkit.WorkbookSpec) error {
			return errors.New("not allowed")
		},
	}))

	_, err := svc.Generate(context.Background(), excelkit.WorkbookSpec{},
		orderSheet(excelkit.FromSlice(orders)), driver.ModeMemory)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plugin guard")
	assert.Empty(t, log.Events())
}

func TestRowSourceErrorAborts(t *testing.T) {
	svc := newService(eventlog.New())
	lost := errors.New("connection reset")

	n := 0
	src := excelkit.FromFunc(func(context.Context) (interface{}, error) {
		n++
		if n > 2 {
			return nil, lost
		}
		return orders[n-1], nil
	})
	_, err := svc.Generate(context.Background(), excelkit.WorkbookSpec{}, orderSheet(src), driver.ModeMemory)
	assert.ErrorIs(t, err, lost)
}

func TestCancelledContextStopsBetweenRows(t *testing.T) {
	log := eventlog.New()
	svc := newService(log)
	ctx, cancel := context.WithCancel(context.Background())

	spec := excelkit.SheetSpec{
		Name:    "Orders",
		Columns: orderColumns(),
		AfterWriteRow: func(ctx context.Context, w excelkit.RowWritten) error {
			if w.RowIndex == 0 {
				cancel()
			}
			return nil
		},
	}
	_, err := svc.Generate(ctx, excelkit.WorkbookSpec{},
		[]excelkit.SheetData{{Spec: spec, Rows: excelkit.FromSlice(orders)}}, driver.ModeMemory)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, log.Rows(), 1)
}

type closingSource struct {
	excelkit.RowSource
	closed bool
}

func (c *closingSource) Close() error {
	c.closed = true
	return nil
}

func TestClosableSourceIsClosed(t *testing.T) {
	svc := newService(eventlog.New())
	src := &closingSource{RowSource: excelkit.FromSlice(orders)}

	_, err := svc.Generate(context.Background(), excelkit.WorkbookSpec{}, orderSheet(src), driver.ModeMemory)
	require.NoError(t, err)
	assert.True(t, src.closed)
}

func TestNoSheets(t *testing.T) {
	svc := newService(eventlog.New())

	_, err := svc.Generate(context.Background(), excelkit.WorkbookSpec{}, nil, driver.ModeMemory)
	assert.ErrorIs(t, err, excelkit.ErrNoSheets)
}

func TestUnknownFormatterLeavesValue(t *testing.T) {
	log := eventlog.New()
	svc := newService(log)

	spec := excelkit.SheetSpec{
		Name:    "Orders",
		Columns: []excelkit.ColumnDef{{Key: "amount", Path: "Amount", Formatter: "mystery"}},
	}
	_, err := svc.Generate(context.Background(), excelkit.WorkbookSpec{},
		[]excelkit.SheetData{{Spec: spec, Rows: excelkit.FromSlice(orders[:1])}}, driver.ModeMemory)
	require.NoError(t, err)
	assert.Equal(t, "1,234.56", log.Rows()[0].Values[0])
}

func TestGenerateToStreamsThroughDriver(t *testing.T) {
	log := eventlog.New()
	svc := newService(log)

	err := svc.GenerateTo(context.Background(), io.Discard, excelkit.WorkbookSpec{},
		orderSheet(excelkit.FromSlice(orders)), driver.ModeStreaming)
	require.NoError(t, err)
	assert.Len(t, log.OfKind(eventlog.KindFinalize), 1)
}
