package chat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu      sync.Mutex
	entries []Exchange
	err     error
	block   chan struct{}
}

func (s *recordingSink) Write(_ context.Context, ex Exchange) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, ex)
	return s.err
}

func (s *recordingSink) snapshot() []Exchange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Exchange(nil), s.entries...)
}

func TestTurnLogger_PreservesCallOrder(t *testing.T) {
	sink := &recordingSink{}
	l := NewTurnLogger(16, sink)

	at := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	l.Record("hello", "hi there", at)
	l.Record("bye", "see you", at.Add(time.Second))
	l.Close()

	got := sink.snapshot()
	require.Len(t, got, 2)
	assert.Equal(t, Exchange{Time: at, User: "hello", Bot: "hi there"}, got[0])
	assert.Equal(t, "bye", got[1].User)
}

func TestTurnLogger_SinkErrorsAreSwallowed(t *testing.T) {
	failing := &recordingSink{err: errors.New("disk full")}
	ok := &recordingSink{}
	l := NewTurnLogger(4, failing, ok)

	l.Record("a", "b", time.Now())
	l.Close()

	assert.Len(t, ok.snapshot(), 1)
}

func TestTurnLogger_RecordDoesNotBlockWhenFull(t *testing.T) {
	sink := &recordingSink{block: make(chan struct{})}
	l := NewTurnLogger(1, sink)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			l.Record("m", "r", time.Now())
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked on a stalled sink")
	}

	close(sink.block)
	l.Close()
	assert.NotEmpty(t, sink.snapshot())
}

func TestTurnLogger_RecordAfterCloseIsNoop(t *testing.T) {
	sink := &recordingSink{}
	l := NewTurnLogger(4, sink)
	l.Close()

	l.Record("late", "ignored", time.Now())
	l.Close()
	assert.Empty(t, sink.snapshot())
}

func TestWriterSink_WritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterSink(&buf)

	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	require.NoError(t, s.Write(context.Background(), Exchange{Time: at, User: "hi", Bot: "hello"}))
	require.NoError(t, s.Write(context.Background(), Exchange{Time: at, User: "refund", Bot: "5-7 days"}))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var entry map[string]string
	require.NoError(t, json.Unmarshal(lines[1], &entry))
	assert.Equal(t, "refund", entry["user"])
	assert.Equal(t, "5-7 days", entry["bot"])
	assert.Equal(t, at.Format(time.RFC3339Nano), entry["time"])
}

func TestFileSink_AppendsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "chat.jsonl")

	for _, msg := range []string{"first", "second"} {
		s, err := NewFileSink(path)
		require.NoError(t, err)
		require.NoError(t, s.Write(context.Background(), Exchange{Time: time.Now(), User: msg, Bot: "ok"}))
		require.NoError(t, s.Close())
	}

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var users []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]string
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		users = append(users, entry["user"])
	}
	assert.Equal(t, []string{"first", "second"}, users)
}

func TestFileSink_WriteAfterClose(t *testing.T) {
	s, err := NewFileSink(filepath.Join(t.TempDir(), "chat.jsonl"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.Error(t, s.Write(context.Background(), Exchange{}))
}
