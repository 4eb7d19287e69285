package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// JSONLSink appends one JSON object per line
type JSONLSink struct {
	mu     sync.Mutex
	enc    *json.Encoder
	closer io.Closer
}

// NewJSONLSink appends to path, or writes to stdout when path is "" or "-"
func NewJSONLSink(path string) (*JSONLSink, error) {
	if path == "" || path == "-" {
		return NewJSONLWriter(os.Stdout), nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open jsonl sink: %w", err)
	}
	s := NewJSONLWriter(f)
	s.closer = f
	return s, nil
}

// NewJSONLWriter writes to w. Closing the sink does not close w.
func NewJSONLWriter(w io.Writer) *JSONLSink {
	return &JSONLSink{enc: json.NewEncoder(w)}
}

// Name returns the sink name
func (s *JSONLSink) Name() string {
	return "jsonl"
}

// Write appends a line
func (s *JSONLSink) Write(ctx context.Context, scored Scored) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enc.Encode(scored); err != nil {
		return fmt.Errorf("encode %s: %w", scored.PostingID, err)
	}
	return nil
}

// Close closes the underlying file, if the sink opened one
func (s *JSONLSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
