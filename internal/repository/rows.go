package repository

import (
	"context"
	"database/sql"
	"io"
	"time"

	"github.com/locvowork/fleet_management_sample/pkg/dataflow"
	"github.com/locvowork/fleet_management_sample/pkg/excelkit"
)

// producerBuffer is how many records a remote producer may read ahead of the
// sheet writer.
const producerBuffer = 256

// rowsSource streams an open *sql.Rows cursor. The cursor is closed when it
// is exhausted, when scanning fails or when the source is closed.
type rowsSource[T any] struct {
	rows *sql.Rows
	scan func(*sql.Rows) (T, error)
	done bool
}

func newRowsSource[T any](rows *sql.Rows, scan func(*sql.Rows) (T, error)) *rowsSource[T] {
	return &rowsSource[T]{rows: rows, scan: scan}
}

func (s *rowsSource[T]) Next(ctx context.Context) (interface{}, error) {
	if s.done {
		return nil, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.rows.Next() {
		err := s.rows.Err()
		s.Close()
		if err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	v, err := s.scan(s.rows)
	if err != nil {
		s.Close()
		return nil, err
	}
	return v, nil
}

func (s *rowsSource[T]) Close() error {
	s.done = true
	return s.rows.Close()
}

// producerSource is a row source fed by a goroutine. Closing it cancels the
// producer.
type producerSource struct {
	excelkit.RowSource
	cancel context.CancelFunc
}

func (p producerSource) Close() error {
	p.cancel()
	return nil
}

// produce runs fn in the background through dataflow.Generate. The producer
// blocks once producerBuffer records are waiting.
func produce[T any](ctx context.Context, fn func(ctx context.Context, emit func(T) error) error) excelkit.RowSource {
	ctx, cancel := context.WithCancel(ctx)
	stream, errc := dataflow.Generate(ctx, fn, dataflow.WithBufferSize(producerBuffer))
	return producerSource{RowSource: excelkit.FromStream(stream, errc), cancel: cancel}
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
