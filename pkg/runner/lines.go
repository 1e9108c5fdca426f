package runner

import (
	"bufio"
	"context"
	"io"
	"sync"
)

type inputResult struct {
	text string
	err  error
}

// lineReader reads lines on a background goroutine so that a blocked read
// never prevents the caller from observing cancellation.
type lineReader struct {
	reader *bufio.Reader

	startOnce sync.Once
	stopOnce  sync.Once
	lines     chan inputResult
	done      chan struct{}
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{
		reader: bufio.NewReader(r),
		lines:  make(chan inputResult),
		done:   make(chan struct{}),
	}
}

func (l *lineReader) pump() {
	defer close(l.lines)
	for {
		text, err := l.reader.ReadString('\n')

		// A final line without a newline still counts.
		if text != "" {
			select {
			case l.lines <- inputResult{text: text}:
			case <-l.done:
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				select {
				case l.lines <- inputResult{err: err}:
				case <-l.done:
				}
			}
			return
		}
	}
}

// next returns the next raw line. It returns io.EOF once the source is
// exhausted or the reader is closed.
func (l *lineReader) next(ctx context.Context) (string, error) {
	l.startOnce.Do(func() { go l.pump() })
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-l.lines:
		if !ok {
			return "", io.EOF
		}
		return res.text, res.err
	}
}

// close stops delivering lines. A pump blocked inside Read stays blocked
// until the source returns.
func (l *lineReader) close() {
	l.stopOnce.Do(func() { close(l.done) })
}
