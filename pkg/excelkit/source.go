package excelkit

import (
	"context"
	"fmt"
	"io"
	"reflect"

	"github.com/locvowork/fleet_management_sample/pkg/dataflow"
)

// RowSource yields rows one at a time. Next returns io.EOF once the source is
// exhausted. Sources that also implement io.Closer are closed when their
// sheet is done, successfully or not.
type RowSource interface {
	Next(ctx context.Context) (interface{}, error)
}

// RowSourceFunc adapts a function to RowSource.
type RowSourceFunc func(ctx context.Context) (interface{}, error)

func (f RowSourceFunc) Next(ctx context.Context) (interface{}, error) {
	return f(ctx)
}

// FromFunc wraps fn as a RowSource.
func FromFunc(fn func(ctx context.Context) (interface{}, error)) RowSource {
	return RowSourceFunc(fn)
}

// Empty is a source without rows.
func Empty() RowSource {
	return FromFunc(func(context.Context) (interface{}, error) {
		return nil, io.EOF
	})
}

type sliceSource[T any] struct {
	rows []T
	pos  int
}

// FromSlice iterates rows in order.
func FromSlice[T any](rows []T) RowSource {
	return &sliceSource[T]{rows: rows}
}

func (s *sliceSource[T]) Next(ctx context.Context) (interface{}, error) {
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++
	return row, nil
}

type valueSource struct {
	v   reflect.Value
	pos int
}

// FromValues iterates any slice or array, for callers that only hold it as
// an interface{}.
func FromValues(rows interface{}) (RowSource, error) {
	if rows == nil {
		return Empty(), nil
	}
	v := reflect.ValueOf(rows)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return Empty(), nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, fmt.Errorf("rows must be a slice or array, got %T", rows)
	}
	return &valueSource{v: v}, nil
}

func (s *valueSource) Next(ctx context.Context) (interface{}, error) {
	if s.pos >= s.v.Len() {
		return nil, io.EOF
	}
	row := s.v.Index(s.pos).Interface()
	s.pos++
	return row, nil
}

type chanSource[T any] struct {
	ch <-chan T
}

// FromChannel reads rows until ch is closed. The producer is throttled by the
// rate rows are written.
func FromChannel[T any](ch <-chan T) RowSource {
	return chanSource[T]{ch: ch}
}

func (s chanSource[T]) Next(ctx context.Context) (interface{}, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case row, ok := <-s.ch:
		if !ok {
			return nil, io.EOF
		}
		return row, nil
	}
}

type streamSource[T any] struct {
	stream dataflow.Stream[T]
	errc   <-chan error
}

// FromStream reads a dataflow stream. When the stream closes, a producer
// error on errc is returned instead of io.EOF.
func FromStream[T any](stream dataflow.Stream[T], errc <-chan error) RowSource {
	return &streamSource[T]{stream: stream, errc: errc}
}

func (s *streamSource[T]) Next(ctx context.Context) (interface{}, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case row, ok := <-s.stream:
		if ok {
			return row, nil
		}
	}
	if s.errc != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case err, ok := <-s.errc:
			s.errc = nil
			if ok && err != nil {
				return nil, err
			}
		}
	}
	return nil, io.EOF
}
