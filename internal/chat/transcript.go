package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	defaultTranscriptBuffer = 256
	sinkWriteTimeout        = 5 * time.Second
)

// Exchange is one transcript entry: a user message and the reply it got.
type Exchange struct {
	Time time.Time `json:"time"`
	User string    `json:"user"`
	Bot  string    `json:"bot"`
}

// Sink persists exchanges for the TurnLogger.
type Sink interface {
	Write(ctx context.Context, ex Exchange) error
}

// TurnLogger is the append-only transcript of a chat. Record hands the
// exchange to a single background writer, so entries reach every sink in
// call order and a slow or failing sink never delays a reply.
type TurnLogger struct {
	sinks   []Sink
	entries chan Exchange
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewTurnLogger(buffer int, sinks ...Sink) *TurnLogger {
	if buffer <= 0 {
		buffer = defaultTranscriptBuffer
	}

	l := &TurnLogger{
		sinks:   sinks,
		entries: make(chan Exchange, buffer),
		done:    make(chan struct{}),
	}
	go l.run()
	return l
}

// Record queues an exchange. When the buffer is full the exchange is
// dropped with a warning rather than blocking the caller.
func (l *TurnLogger) Record(message, reply string, at time.Time) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return
	}

	select {
	case l.entries <- Exchange{Time: at, User: message, Bot: reply}:
	default:
		log.Warn().Msg("chat transcript buffer full, dropping exchange")
	}
}

// Close stops accepting exchanges and waits until the queued ones are written.
func (l *TurnLogger) Close() {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.entries)
	}
	l.mu.Unlock()

	<-l.done
}

func (l *TurnLogger) run() {
	defer close(l.done)

	for ex := range l.entries {
		for _, s := range l.sinks {
			ctx, cancel := context.WithTimeout(context.Background(), sinkWriteTimeout)
			if err := s.Write(ctx, ex); err != nil {
				log.Error().Err(err).Msg("chat transcript: sink write failed")
			}
			cancel()
		}
	}
}

// FileSink appends exchanges as JSON lines.
type FileSink struct {
	mu     sync.Mutex
	logger zerolog.Logger
	w      io.Writer
	file   *os.File
}

// NewFileSink opens path for appending, creating it and its directory when
// missing.
func NewFileSink(path string) (*FileSink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create transcript directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript file: %w", err)
	}

	s := NewWriterSink(file)
	s.file = file
	return s, nil
}

// NewWriterSink writes JSON lines to w.
func NewWriterSink(w io.Writer) *FileSink {
	return &FileSink{
		logger: zerolog.New(w),
		w:      w,
	}
}

func (s *FileSink) Write(_ context.Context, ex Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.w == nil {
		return errors.New("transcript file is closed")
	}

	s.logger.Log().
		Str("time", ex.Time.Format(time.RFC3339Nano)).
		Str("user", ex.User).
		Str("bot", ex.Bot).
		Send()
	return nil
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.w = nil
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}
