package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/ppiankov/jobtrust/internal/logging"
	"github.com/ppiankov/jobtrust/internal/model"
	"github.com/ppiankov/jobtrust/internal/pipeline"
	"github.com/ppiankov/jobtrust/internal/sink"
)

// maxLineBytes bounds one JSON Lines record
const maxLineBytes = 4 << 20

// Scorer defines the interface for scoring a record
type Scorer interface {
	Score(ctx context.Context, record model.JobRecord) (*pipeline.Result, error)
}

// ScoreJob scores one record and hands the result to the sink
type ScoreJob struct {
	Index   int
	Record  model.JobRecord
	Scorer  Scorer
	Sink    sink.Sink
	Limiter *Limiter
}

// Execute executes the scoring job
func (j *ScoreJob) Execute(ctx context.Context) Result {
	out := &RecordResult{Index: j.Index, Record: j.Record}

	res, err := j.Scorer.Score(ctx, j.Record)
	if err != nil {
		out.Error = err
		return out
	}
	out.Result = res

	if j.Sink == nil {
		return out
	}
	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, j.Sink.Name()); err != nil {
			out.SinkError = err
			return out
		}
	}
	out.SinkError = j.Sink.Write(ctx, sink.FromResult(j.Record, res.Score))

	return out
}

// RecordResult represents the result of a scoring job
type RecordResult struct {
	Index     int
	Record    model.JobRecord
	Result    *pipeline.Result
	Error     error // Scoring failed
	SinkError error // Scored, but the sink write failed
}

// GetError returns the first error of the job
func (r *RecordResult) GetError() error {
	if r.Error != nil {
		return r.Error
	}
	return r.SinkError
}

// BatchProcessor scores many records concurrently
type BatchProcessor struct {
	scorer      Scorer
	concurrency int
	sink        sink.Sink
	limiter     *Limiter
	logger      *log.Logger
}

// BatchOption customizes a batch processor
type BatchOption func(*BatchProcessor)

// WithSink writes every scored record to s
func WithSink(s sink.Sink) BatchOption {
	return func(b *BatchProcessor) { b.sink = s }
}

// WithLimiter throttles sink writes
func WithLimiter(l *Limiter) BatchOption {
	return func(b *BatchProcessor) { b.limiter = l }
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(scorer Scorer, concurrency int, opts ...BatchOption) *BatchProcessor {
	b := &BatchProcessor{
		scorer:      scorer,
		concurrency: concurrency,
		logger:      logging.WithPrefix("batch"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ProcessRecords scores records concurrently. Results come back in input order.
func (b *BatchProcessor) ProcessRecords(ctx context.Context, records []model.JobRecord) []*RecordResult {
	if len(records) == 0 {
		return []*RecordResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()
	defer pool.Shutdown()

	go func() {
		defer pool.Close()
		for i, record := range records {
			// Sinks key on the posting id
			if record.ID == "" {
				record.ID = uuid.NewString()
			}
			job := &ScoreJob{
				Index:   i,
				Record:  record,
				Scorer:  b.scorer,
				Sink:    b.sink,
				Limiter: b.limiter,
			}
			if !pool.Submit(job) {
				return
			}
		}
	}()

	results := pool.Wait()

	out := make([]*RecordResult, 0, len(results))
	for _, result := range results {
		r := result.(*RecordResult)
		if r.SinkError != nil {
			b.logger.Warn("sink write failed", "id", r.Record.ID, "err", r.SinkError)
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })

	if len(out) < len(records) {
		b.logger.Warn("batch interrupted", "scored", len(out), "total", len(records), "err", ctx.Err())
	}

	return out
}

// ProcessFile reads JSON Lines records from a file and scores them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*RecordResult, error) {
	records, err := ReadRecordsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}

	return b.ProcessRecords(ctx, records), nil
}

// ReadRecordsFromFile reads JSON Lines records from a file ("-" is stdin)
func ReadRecordsFromFile(filePath string) ([]model.JobRecord, error) {
	if filePath == "-" {
		return ReadRecords(os.Stdin)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ReadRecords(file)
}

// ReadRecords parses one record per line. Blank lines and # comments are skipped,
// records repeating an earlier id are dropped, and records without an id get one.
func ReadRecords(r io.Reader) ([]model.JobRecord, error) {
	var records []model.JobRecord
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var record model.JobRecord
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		if record.ID == "" {
			record.ID = uuid.NewString()
		}

		// Deduplicate records
		if seen[record.ID] {
			continue
		}
		seen[record.ID] = true
		records = append(records, record)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return records, nil
}
