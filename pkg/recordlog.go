// Package pkg is a package that provides utilities for buildtrace.
package pkg

import (
	"encoding/gob"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// RecordLog is a generic append-only log of items of type T backed by a gob
// stream on disk. The watch command uses it to journal observed changes
// across long sessions.
type RecordLog[T any] interface {
	Len() uint64
	Path() string
	Append(item T) error
	AppendBatch(items []T) error
	Range(f func(index uint64, item T) error) error
	Close() error
}

type recordLogImpl[T any] struct {
	path    string
	file    *os.File
	encoder *gob.Encoder
	mu      sync.Mutex
	length  uint64
}

// NewRecordLog creates (or truncates) a record log at path.
func NewRecordLog[T any](path string) (RecordLog[T], error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640)
	if err != nil {
		return nil, fmt.Errorf("failed to create record log: %w", err)
	}

	slog.Debug("created record log", "path", path)

	return &recordLogImpl[T]{
		path:    path,
		file:    file,
		encoder: gob.NewEncoder(file),
	}, nil
}

// NewRecordLogReader opens an existing record log for reading only: Range
// works, Append fails, and Len reports zero because the log is not scanned
// up front.
func NewRecordLogReader[T any](path string) (RecordLog[T], error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open record log: %w", err)
	}

	return &recordLogImpl[T]{path: path}, nil
}

// Append implements RecordLog.
func (l *recordLogImpl[T]) Append(item T) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.encoder == nil {
		return fmt.Errorf("record log %s is read-only", l.path)
	}

	if err := l.encoder.Encode(item); err != nil {
		slog.Error("failed to encode item", "path", l.path, "index", l.length, "error", err)
		return fmt.Errorf("failed to encode item: %w", err)
	}

	l.length++

	return nil
}

// AppendBatch implements RecordLog.
func (l *recordLogImpl[T]) AppendBatch(items []T) error {
	for _, item := range items {
		if err := l.Append(item); err != nil {
			return err
		}
	}

	return nil
}

// Len implements RecordLog.
func (l *recordLogImpl[T]) Len() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.length
}

// Path implements RecordLog.
func (l *recordLogImpl[T]) Path() string {
	return l.path
}

// Range implements RecordLog. It re-reads the file from the start so the
// write position is untouched.
func (l *recordLogImpl[T]) Range(f func(index uint64, item T) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	reader, err := os.Open(l.path)
	if err != nil {
		return fmt.Errorf("failed to open record log: %w", err)
	}

	defer func() { _ = reader.Close() }()

	decoder := gob.NewDecoder(reader)

	for index := uint64(0); ; index++ {
		var item T

		if err := decoder.Decode(&item); err != nil {
			if err == io.EOF {
				return nil
			}

			return fmt.Errorf("failed to decode item %d: %w", index, err)
		}

		if err := f(index, item); err != nil {
			return err
		}
	}
}

// Close implements RecordLog.
func (l *recordLogImpl[T]) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		if err := l.file.Close(); err != nil {
			slog.Error("failed to close record log", "path", l.path, "error", err)
			return err
		}

		l.file = nil

		slog.Debug("closed record log", "path", l.path, "length", l.length)
	}

	return nil
}
