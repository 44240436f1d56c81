// Package jsonl streams decision events to an append-only JSON Lines file.
package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/gazette/pkg/domain"
	"github.com/aretw0/gazette/pkg/ports"
)

var (
	_ ports.EventSink = (*Sink)(nil)
	_ ports.RowSink   = (*Sink)(nil)
)

// Record is one line of the stream.
type Record struct {
	Time      time.Time             `json:"time"`
	SessionID string                `json:"session_id"`
	Event     *domain.DecisionEvent `json:"event,omitempty"`
	Row       *domain.LogRow        `json:"row,omitempty"`
}

// Sink writes one Record per line. Each line is written with a single
// write call under the mutex, so lines from concurrent sessions never mix.
type Sink struct {
	mu  sync.Mutex
	w   io.Writer
	c   io.Closer
	now func() time.Time
}

// Open appends to the file at path, creating it and its directory.
func Open(path string) (*Sink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create stream directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open stream %s: %w", path, err)
	}
	s := New(f)
	s.c = f
	return s, nil
}

// New writes the stream to w, e.g. os.Stdout.
func New(w io.Writer) *Sink {
	return &Sink{w: w, now: time.Now}
}

// Append writes a decision event.
func (s *Sink) Append(_ context.Context, sessionID string, event domain.DecisionEvent) error {
	return s.write(Record{SessionID: sessionID, Event: &event})
}

// WriteRow writes a finished session row.
func (s *Sink) WriteRow(_ context.Context, row domain.LogRow) error {
	return s.write(Record{SessionID: row.SessionID, Row: &row})
}

func (s *Sink) write(rec Record) error {
	rec.Time = s.now().UTC()
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w == nil {
		return os.ErrClosed
	}
	_, err = s.w.Write(line)
	return err
}

// Close closes the underlying file, if Sink opened one.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w = nil
	if s.c == nil {
		return nil
	}
	c := s.c
	s.c = nil
	return c.Close()
}

// Read decodes every record of a stream.
func Read(r io.Reader) ([]Record, error) {
	var out []Record
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", len(out)+1, err)
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return out, nil
}
