// Package csv writes exported LogRows to a CSV file, one row per session.
package csv

import (
	"context"
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/aretw0/gazette/pkg/domain"
	"github.com/aretw0/gazette/pkg/ports"
)

var _ ports.RowSink = (*Sink)(nil)

// Sink appends LogRows to a CSV file. The header is written when the file is
// new or empty. Every row is flushed before WriteRow returns.
type Sink struct {
	mu     sync.Mutex
	f      *os.File
	w      *stdcsv.Writer
	closed bool
}

// Open opens path for appending, creating parent directories as needed.
func Open(path string) (*Sink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat log %s: %w", path, err)
	}

	s := &Sink{f: f, w: stdcsv.NewWriter(f)}
	if info.Size() == 0 {
		if err := s.write(domain.LogColumns); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	return s, nil
}

// WriteRow appends one row.
func (s *Sink) WriteRow(_ context.Context, row domain.LogRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return os.ErrClosed
	}
	return s.write(row.Values())
}

func (s *Sink) write(record []string) error {
	if err := s.w.Write(record); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}

// Close flushes and closes the file. Calling Close twice is a no-op.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.w.Flush()
	return errors.Join(s.w.Error(), s.f.Close())
}

// ReadRows reads every row of a log written by Sink.
func ReadRows(r io.Reader) ([]domain.LogRow, error) {
	cr := stdcsv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	var rows []domain.LogRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		row, err := domain.LogRowFromValues(header, rec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}

// ReadFile reads the rows of the log at path.
func ReadFile(path string) ([]domain.LogRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadRows(f)
}
