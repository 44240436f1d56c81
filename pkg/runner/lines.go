package runner

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"time"
)

// lineReader pumps lines from a reader in the background so that reads can
// be abandoned when the context is canceled.
type lineReader struct {
	reader    *bufio.Reader
	lines     chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{reader: bufio.NewReader(r)}
}

func (l *lineReader) pump() {
	for {
		text, err := l.reader.ReadString('\n')

		// If we got text (even with EOF), send it
		if text != "" {
			l.lines <- inputResult{text: text}
		}

		if err != nil {
			if err == io.EOF {
				close(l.lines)
				return
			}
			l.lines <- inputResult{err: err}
			// Backoff for non-fatal errors to prevent CPU spikes on persistent failure
			time.Sleep(50 * time.Millisecond)
		}
	}
}

// ReadLine returns the next line without its line terminator.
// It returns io.EOF once the underlying reader is exhausted.
func (l *lineReader) ReadLine(ctx context.Context) (string, error) {
	l.startOnce.Do(func() {
		l.lines = make(chan inputResult)
		go l.pump()
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-l.lines:
		if !ok {
			return "", io.EOF
		}
		if res.err != nil {
			return "", res.err
		}
		return strings.TrimRight(res.text, "\r\n"), nil
	}
}
