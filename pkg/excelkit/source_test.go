package excelkit_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/fleet_management_sample/pkg/dataflow"
	"github.com/locvowork/fleet_management_sample/pkg/excelkit"
)

func drain(t *testing.T, src excelkit.RowSource) ([]interface{}, error) {
	t.Helper()
	var out []interface{}
	for {
		row, err := src.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, row)
	}
}

func TestFromSlice(t *testing.T) {
	rows, err := drain(t, excelkit.FromSlice([]string{"a", "b"}))
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"a", "b"}, rows)

	rows, err = drain(t, excelkit.FromSlice[int](nil))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFromValues(t *testing.T) {
	src, err := excelkit.FromValues([]int{1, 2, 3})
	require.NoError(t, err)
	rows, err := drain(t, src)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{1, 2, 3}, rows)

	arr := [2]string{"x", "y"}
	src, err = excelkit.FromValues(&arr)
	require.NoError(t, err)
	rows, _ = drain(t, src)
	assert.Equal(t, []interface{}{"x", "y"}, rows)

	src, err = excelkit.FromValues(nil)
	require.NoError(t, err)
	rows, _ = drain(t, src)
	assert.Empty(t, rows)

	_, err = excelkit.FromValues(42)
	assert.Error(t, err)
}

func TestFromChannelHonoursContext(t *testing.T) {
	ch := make(chan int)
	src := excelkit.FromChannel(ch)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := src.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	close(ch)
	_, err = src.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestFromStreamReportsProducerError(t *testing.T) {
	lost := errors.New("scroll expired")
	stream, errc := dataflow.Generate(context.Background(), func(ctx context.Context, emit func(int) error) error {
		if err := emit(1); err != nil {
			return err
		}
		return lost
	})

	rows, err := drain(t, excelkit.FromStream(stream, errc))
	assert.Equal(t, []interface{}{1}, rows)
	assert.ErrorIs(t, err, lost)
}

func TestFromStreamWithoutErrorChannel(t *testing.T) {
	rows, err := drain(t, excelkit.FromStream(dataflow.From(context.Background(), "a", "b"), nil))
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"a", "b"}, rows)
}
