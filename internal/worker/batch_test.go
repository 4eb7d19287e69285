package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ppiankov/jobtrust/internal/model"
	"github.com/ppiankov/jobtrust/internal/pipeline"
	"github.com/ppiankov/jobtrust/internal/sink"
)

// MockScorer implements Scorer for testing
type MockScorer struct {
	mu     sync.Mutex
	calls  int
	failOn map[string]bool
}

func (m *MockScorer) Score(ctx context.Context, record model.JobRecord) (*pipeline.Result, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.failOn[record.ID] {
		return nil, errors.New("scoring failed")
	}
	return &pipeline.Result{
		Record: record,
		Score:  model.ScoreResult{Score: 50, Level: model.LevelUncertain},
	}, nil
}

// recordingSink keeps every write in memory
type recordingSink struct {
	mu      sync.Mutex
	written []sink.Scored
	err     error
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Write(ctx context.Context, scored sink.Scored) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.written = append(s.written, scored)
	return nil
}

func (s *recordingSink) Close() error { return nil }

func makeRecords(n int) []model.JobRecord {
	records := make([]model.JobRecord, n)
	for i := range records {
		records[i] = model.JobRecord{
			ID:               fmt.Sprintf("job-%03d", i),
			Platform:         "linkedin",
			CollectionMethod: "api",
		}
	}
	return records
}

func TestBatchProcessor_ProcessRecords(t *testing.T) {
	scorer := &MockScorer{failOn: map[string]bool{"job-003": true}}
	out := &recordingSink{}
	processor := NewBatchProcessor(scorer, 4, WithSink(out), WithLimiter(NewLimiter(0, 1)))

	records := makeRecords(25)
	results := processor.ProcessRecords(context.Background(), records)

	if len(results) != len(records) {
		t.Fatalf("expected %d results, got %d", len(records), len(results))
	}
	for i, r := range results {
		if r.Index != i || r.Record.ID != records[i].ID {
			t.Fatalf("result %d out of order: index %d id %s", i, r.Index, r.Record.ID)
		}
	}

	if results[3].Error == nil {
		t.Error("expected job-003 to fail")
	}
	if results[4].GetError() != nil {
		t.Errorf("unexpected error for job-004: %v", results[4].GetError())
	}
	if results[4].Result == nil || results[4].Result.Score.Score != 50 {
		t.Error("expected job-004 to carry its score")
	}

	if len(out.written) != 24 {
		t.Errorf("expected 24 sink writes, got %d", len(out.written))
	}
	if scorer.calls != 25 {
		t.Errorf("expected 25 scorer calls, got %d", scorer.calls)
	}
}

func TestBatchProcessor_SinkError(t *testing.T) {
	processor := NewBatchProcessor(&MockScorer{}, 2, WithSink(&recordingSink{err: errors.New("db down")}))

	results := processor.ProcessRecords(context.Background(), makeRecords(3))
	for _, r := range results {
		if r.Error != nil {
			t.Errorf("scoring should succeed, got %v", r.Error)
		}
		if r.SinkError == nil || r.GetError() == nil {
			t.Error("expected sink error to surface")
		}
		if r.Result == nil {
			t.Error("expected result to be kept when the sink fails")
		}
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	processor := NewBatchProcessor(&MockScorer{}, 2)
	if results := processor.ProcessRecords(context.Background(), nil); len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestBatchProcessor_AssignsMissingIDs(t *testing.T) {
	out := &recordingSink{}
	processor := NewBatchProcessor(&MockScorer{}, 2, WithSink(out))

	records := []model.JobRecord{{Platform: "indeed"}, {Platform: "indeed"}, {ID: "kept", Platform: "indeed"}}
	results := processor.ProcessRecords(context.Background(), records)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[2].Record.ID != "kept" {
		t.Errorf("expected existing id to survive, got %q", results[2].Record.ID)
	}
	if results[0].Record.ID == "" || results[0].Record.ID == results[1].Record.ID {
		t.Errorf("expected distinct generated ids, got %q and %q", results[0].Record.ID, results[1].Record.ID)
	}
	if records[0].ID != "" {
		t.Error("caller's records must not be modified")
	}

	if len(out.written) != 3 {
		t.Fatalf("expected 3 sink writes, got %d", len(out.written))
	}
	for _, w := range out.written {
		if w.PostingID == "" {
			t.Error("sink received a record without a posting id")
		}
	}
}

func TestBatchProcessor_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	processor := NewBatchProcessor(&MockScorer{}, 2)
	results := processor.ProcessRecords(ctx, makeRecords(50))
	if len(results) == 50 {
		t.Error("expected a cancelled batch to stop early")
	}
}

func TestReadRecords(t *testing.T) {
	input := strings.Join([]string{
		`# exported 2026-10-01`,
		`{"id":"a","platform":"linkedin","collection_method":"api","title":"Engineer"}`,
		``,
		`{"id":"b","platform":"indeed","collection_method":"feed"}`,
		`{"id":"a","platform":"linkedin","collection_method":"api","title":"Duplicate"}`,
		`{"platform":"greenhouse","collection_method":"api"}`,
	}, "\n")

	records, err := ReadRecords(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].Title != "Engineer" {
		t.Errorf("expected first occurrence to win, got title %q", records[0].Title)
	}
	if records[2].ID == "" {
		t.Error("expected a generated id for a record without one")
	}
}

func TestReadRecords_InvalidLine(t *testing.T) {
	input := "{\"id\":\"a\",\"platform\":\"linkedin\"}\nnot json\n"

	_, err := ReadRecords(strings.NewReader(input))
	if err == nil {
		t.Fatal("expected error for malformed line")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("expected line number in error, got %v", err)
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "postings.jsonl")
	content := `{"id":"x1","platform":"linkedin","collection_method":"api"}
{"id":"x2","platform":"linkedin","collection_method":"api"}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	processor := NewBatchProcessor(&MockScorer{}, 2)
	results, err := processor.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}

	if _, err := processor.ProcessFile(context.Background(), filepath.Join(t.TempDir(), "missing.jsonl")); err == nil {
		t.Error("expected error for missing file")
	}
}
