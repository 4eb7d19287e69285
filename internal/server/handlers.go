package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/jobtrust/internal/capability"
	"github.com/ppiankov/jobtrust/internal/logging"
	"github.com/ppiankov/jobtrust/internal/model"
	"github.com/ppiankov/jobtrust/internal/pipeline"
	"github.com/ppiankov/jobtrust/internal/sink"
	"github.com/ppiankov/jobtrust/internal/worker"
)

// scoreTimeout bounds a single scoring call, narrative included
const scoreTimeout = 30 * time.Second

// Health check endpoint
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "jobtrust",
		"rules":     s.pipeline.Registry().Len(),
		"sink":      s.sink.Name(),
	}
	writeJSON(w, http.StatusOK, response)
}

// Score scores one posting
func (s *Server) Score(w http.ResponseWriter, r *http.Request) {
	var record model.JobRecord
	if err := s.decode(w, r, &record); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(r.Context(), scoreTimeout)
	defer cancel()

	start := time.Now()
	res, err := s.pipeline.Score(ctx, record)
	if err != nil {
		writeScoreError(w, r, err)
		return
	}
	s.metrics.ObserveResult(res.Score, res.Cached, time.Since(start))

	if err := s.sink.Write(ctx, sink.FromResult(record, res.Score)); err != nil {
		// The caller still gets the score
		s.logger.Warn("sink write failed", "sink", s.sink.Name(), "id", record.ID, "err", err)
	}

	writeJSON(w, http.StatusOK, res)
}

type batchRequest struct {
	Records []model.JobRecord `json:"records"`
}

type batchItem struct {
	ID     string           `json:"id"`
	Result *pipeline.Result `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

type batchResponse struct {
	Total   int         `json:"total"`
	Scored  int         `json:"scored"`
	Failed  int         `json:"failed"`
	Results []batchItem `json:"results"`
}

// ScoreBatch scores many postings concurrently. Results keep request order.
func (s *Server) ScoreBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := s.decode(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	if len(req.Records) == 0 {
		writeError(w, r, http.StatusBadRequest, "records must not be empty")
		return
	}
	if len(req.Records) > s.config.MaxBatchSize {
		writeError(w, r, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("batch of %d exceeds the limit of %d", len(req.Records), s.config.MaxBatchSize))
		return
	}

	start := time.Now()
	processor := worker.NewBatchProcessor(s.pipeline, s.workers, worker.WithSink(s.sink))
	results := processor.ProcessRecords(r.Context(), req.Records)

	resp := batchResponse{Total: len(req.Records), Results: make([]batchItem, 0, len(results))}
	for _, res := range results {
		item := batchItem{ID: res.Record.ID}
		if res.Error != nil {
			item.Error = res.Error.Error()
			resp.Failed++
		} else {
			item.Result = res.Result
			resp.Scored++
			s.metrics.ObserveResult(res.Result.Score, res.Result.Cached, 0)
		}
		resp.Results = append(resp.Results, item)
	}

	s.logger.Debug("batch scored", "total", resp.Total, "failed", resp.Failed, "duration", time.Since(start))
	writeJSON(w, http.StatusOK, resp)
}

type ruleView struct {
	ID             string         `json:"id"`
	Category       model.Category `json:"category"`
	Polarity       model.Polarity `json:"polarity"`
	BaseWeight     float64        `json:"base_weight"`
	AbsenceTrigger bool           `json:"absence_trigger"`
	Description    string         `json:"description"`
}

// Rules lists the rule catalog
func (s *Server) Rules(w http.ResponseWriter, r *http.Request) {
	defs := s.pipeline.Registry().Rules()
	views := make([]ruleView, 0, len(defs))
	for _, d := range defs {
		views = append(views, ruleView{
			ID:             d.ID,
			Category:       d.Category,
			Polarity:       d.Polarity,
			BaseWeight:     d.BaseWeight,
			AbsenceTrigger: d.AbsenceTrigger,
			Description:    d.Description,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(views),
		"rules": views,
	})
}

// Capabilities resolves one platform when ?platform= is given, otherwise lists the table
func (s *Server) Capabilities(w http.ResponseWriter, r *http.Request) {
	resolver := s.pipeline.Resolver()

	platform := r.URL.Query().Get("platform")
	if platform == "" {
		writeJSON(w, http.StatusOK, map[string][]capability.Row{"rows": resolver.Rows()})
		return
	}

	method := r.URL.Query().Get("method")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"platform": platform,
		"method":   method,
		"known":    resolver.Known(platform),
		"profile":  resolver.Resolve(platform, method),
	})
}

// decode reads a size-limited JSON body into v
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

// Helper functions

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Error("encoding JSON response", "err", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message, RequestID: RequestID(r.Context())})
}

func writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, r, http.StatusRequestEntityTooLarge, fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit))
	case errors.Is(err, io.EOF):
		writeError(w, r, http.StatusBadRequest, "empty request body")
	default:
		writeError(w, r, http.StatusBadRequest, "invalid JSON: "+err.Error())
	}
}

func writeScoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, pipeline.ErrInvalidRecord):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, r, http.StatusServiceUnavailable, "scoring cancelled")
	default:
		writeError(w, r, http.StatusInternalServerError, "scoring failed")
	}
}
