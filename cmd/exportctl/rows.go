package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/locvowork/fleet_management_sample/internal/logger"
	"github.com/locvowork/fleet_management_sample/pkg/dataflow"
	"github.com/locvowork/fleet_management_sample/pkg/excelkit"
)

// rowBuffer is how many rows may wait between two stages.
const rowBuffer = 128

type record = map[string]interface{}

// rawRow is one undecoded row and the line it started on. Array elements
// carry their 1-based position instead.
type rawRow struct {
	line int
	data []byte
}

func (r rawRow) blank() bool { return len(bytes.TrimSpace(r.data)) == 0 }

// fileSource reads path lazily: a producer goroutine splits the file into
// rows, blank lines are dropped and each row is decoded in a Map stage. A row
// that is not a JSON object fails the sheet unless skipInvalid is set, in
// which case it is logged and left out.
func fileSource(ctx context.Context, path string, skipInvalid bool) excelkit.RowSource {
	ctx, cancel := context.WithCancel(ctx)

	raw, readErr := dataflow.Generate(ctx, func(ctx context.Context, emit func(rawRow) error) error {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := splitRows(f, emit); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		return nil
	}, dataflow.WithBufferSize(rowBuffer))

	rows := dataflow.Map(ctx,
		dataflow.Filter(ctx, raw, func(r rawRow) bool { return !r.blank() }),
		func(r rawRow) (decodedRow, error) {
			row, err := decodeRow(r)
			if err != nil {
				err = fmt.Errorf("%s: %w", path, err)
				if skipInvalid {
					return decodedRow{}, err
				}
			}
			return decodedRow{row: row, err: err}, nil
		},
		dataflow.WithBufferSize(rowBuffer),
		dataflow.WithErrorHandler(func(err error) bool {
			logger.WarnLog(ctx, "skipped %v", err)
			return true
		}),
	)
	return &fileRows{RowSource: excelkit.FromStream(rows, readErr), cancel: cancel}
}

type decodedRow struct {
	row record
	err error
}

// fileRows unwraps decoded rows. Closing it stops the producer.
type fileRows struct {
	excelkit.RowSource
	cancel context.CancelFunc
}

func (s *fileRows) Next(ctx context.Context) (interface{}, error) {
	v, err := s.RowSource.Next(ctx)
	if err != nil {
		return nil, err
	}
	d := v.(decodedRow)
	if d.err != nil {
		return nil, d.err
	}
	return d.row, nil
}

func (s *fileRows) Close() error {
	s.cancel()
	return nil
}

func decodeRow(r rawRow) (record, error) {
	var row record
	if err := json.Unmarshal(r.data, &row); err != nil {
		return nil, fmt.Errorf("row %d: %w", r.line, err)
	}
	if row == nil {
		return nil, fmt.Errorf("row %d: not an object", r.line)
	}
	return row, nil
}

// splitRows accepts NDJSON, one value per line, and a single top-level JSON
// array.
func splitRows(r io.Reader, emit func(rawRow) error) error {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}
	if first == '[' {
		return splitArray(br, emit)
	}

	for line := 1; ; line++ {
		b, err := br.ReadBytes('\n')
		if len(b) > 0 {
			if emitErr := emit(rawRow{line: line, data: b}); emitErr != nil {
				return emitErr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func splitArray(r io.Reader, emit func(rawRow) error) error {
	dec := json.NewDecoder(r)
	if _, err := dec.Token(); err != nil {
		return err
	}
	for i := 1; dec.More(); i++ {
		var msg json.RawMessage
		if err := dec.Decode(&msg); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		if err := emit(rawRow{line: i, data: msg}); err != nil {
			return err
		}
	}
	_, err := dec.Token()
	return err
}

// peekNonSpace returns the first byte that is not white space without
// consuming anything.
func peekNonSpace(br *bufio.Reader) (byte, error) {
	for n := 1; ; n++ {
		b, err := br.Peek(n)
		if len(b) < n {
			return 0, err
		}
		switch c := b[n-1]; c {
		case ' ', '\t', '\r', '\n':
			continue
		default:
			return c, nil
		}
	}
}
