// Package sink implements the durable append-only chat log.
package sink

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// ErrSink marks storage faults. The listener never treats an error wrapping
// ErrSink as a connectivity fault.
var ErrSink = errors.New("sink failure")

// TimestampLayout renders capture times as DD.MM.YYYY HH:MM.
const TimestampLayout = "02.01.2006 15:04"

// Stamp prefixes text with the bracketed capture time.
func Stamp(t time.Time, text string) string {
	return "[" + t.Format(TimestampLayout) + "] " + text
}

// Option configures a FileSink.
type Option func(*FileSink)

// WithClock overrides the time source used for stamps.
func WithClock(now func() time.Time) Option {
	return func(s *FileSink) {
		s.now = now
	}
}

// WithoutTimestamps makes AppendStamped write text unchanged.
func WithoutTimestamps() Option {
	return func(s *FileSink) {
		s.stamp = false
	}
}

// FileSink appends text to a file and syncs it to disk on every call.
type FileSink struct {
	path  string
	file  *os.File
	now   func() time.Time
	stamp bool
	mu    sync.Mutex
}

// Open opens (creating if needed) path for appending.
func Open(path string, opts ...Option) (*FileSink, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %w", ErrSink, path, err)
	}

	s := &FileSink{
		path:  path,
		file:  file,
		now:   time.Now,
		stamp: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Append writes text verbatim.
func (s *FileSink) Append(text string) error {
	return s.write(text)
}

// AppendStamped writes text behind a [DD.MM.YYYY HH:MM] prefix.
func (s *FileSink) AppendStamped(text string) error {
	if s.stamp {
		text = Stamp(s.now(), text)
	}
	return s.write(text)
}

// Path returns the file the sink appends to.
func (s *FileSink) Path() string {
	return s.path
}

// Close closes the underlying file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	if err != nil {
		return fmt.Errorf("%w: failed to close %s: %w", ErrSink, s.path, err)
	}
	return nil
}

// write holds the lock across write and fsync so appends never interleave
// and each returns only once durable.
func (s *FileSink) write(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return fmt.Errorf("%w: %s is closed", ErrSink, s.path)
	}
	if _, err := s.file.WriteString(text); err != nil {
		return fmt.Errorf("%w: failed to append to %s: %w", ErrSink, s.path, err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("%w: failed to sync %s: %w", ErrSink, s.path, err)
	}
	return nil
}
