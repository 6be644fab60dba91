// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package sink

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/tomtom215/badgesim/internal/events"
	"github.com/tomtom215/badgesim/internal/metrics"
)

// StdoutPath selects standard output as the JSON Lines destination.
const StdoutPath = "-"

// JSONL writes one JSON object per line through a buffered writer.
type JSONL struct {
	w          *bufio.Writer
	closer     io.Closer
	serializer *events.Serializer
	name       string
}

// NewJSONL wraps w. If w is an io.Closer it is closed by Close.
func NewJSONL(w io.Writer, serializer *events.Serializer, bufferSize int) *JSONL {
	s := &JSONL{
		w:          bufio.NewWriterSize(w, bufferSize),
		serializer: serializer,
		name:       "jsonl",
	}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// OpenJSONL creates (or truncates) the file at path, or uses standard
// output for "-".
func OpenJSONL(path string, serializer *events.Serializer, bufferSize int) (*JSONL, error) {
	if path == StdoutPath {
		s := NewJSONL(os.Stdout, serializer, bufferSize)
		s.closer = nil
		s.name = "stdout"
		return s, nil
	}
	f, err := os.Create(path) //nolint:gosec // output path is operator supplied
	if err != nil {
		return nil, fmt.Errorf("create output %s: %w", path, err)
	}
	return NewJSONL(f, serializer, bufferSize), nil
}

// Write implements Sink.
func (s *JSONL) Write(_ context.Context, e events.Event) error {
	err := s.write(&e)
	metrics.RecordSinkWrite(s.name, err)
	return err
}

func (s *JSONL) write(e *events.Event) error {
	data, err := s.serializer.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := s.w.Write(data); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// Flush writes buffered events to the underlying writer.
func (s *JSONL) Flush() error {
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

// Close implements Sink.
func (s *JSONL) Close() error {
	err := s.Flush()
	if s.closer != nil {
		if cerr := s.closer.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
		s.closer = nil
	}
	return err
}
