// Package trace records per-request pipeline artifacts: the question, the
// intent analysis, every capability call, and the final answer.
package trace

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// APICall is one capability invocation made while answering a question.
type APICall struct {
	API    string                 `json:"api"`
	Params map[string]interface{} `json:"params"`
	Result string                 `json:"result"`
}

// Record is the persisted trace artifact for one question.
type Record struct {
	Timestamp      string                 `json:"timestamp"`
	Question       string                 `json:"question"`
	IntentAnalysis map[string]interface{} `json:"intent_analysis"`
	APICalls       []APICall              `json:"api_calls"`
	DataSummary    map[string]interface{} `json:"data_summary"`
	FinalAnswer    string                 `json:"final_answer"`
}

// Recorder accumulates a Record for a single request. Safe for concurrent
// use; capability calls register themselves from pool workers.
type Recorder struct {
	mu     sync.Mutex
	record Record
}

// NewRecorder creates a recorder stamped with the current time.
func NewRecorder() *Recorder {
	return &Recorder{
		record: Record{
			Timestamp: time.Now().Format("2006-01-02 15:04:05"),
			APICalls:  []APICall{},
		},
	}
}

// SetQuestion records the raw question.
func (r *Recorder) SetQuestion(question string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record.Question = question
}

// SetAnalysis records the normalized intent.
func (r *Recorder) SetAnalysis(analysis map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record.IntentAnalysis = analysis
}

// AddAPICall appends one capability invocation.
func (r *Recorder) AddAPICall(api string, params map[string]interface{}, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record.APICalls = append(r.record.APICalls, APICall{API: api, Params: params, Result: result})
}

// SetDataSummary records the shape of the retrieved data.
func (r *Recorder) SetDataSummary(summary map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record.DataSummary = summary
}

// SetAnswer records the composed answer.
func (r *Recorder) SetAnswer(answer string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record.FinalAnswer = answer
}

// Snapshot returns a copy of the accumulated record.
func (r *Recorder) Snapshot() Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.record
	rec.APICalls = append([]APICall(nil), r.record.APICalls...)
	return rec
}

// SaveFile writes the record as indented JSON, one file per request.
func (r *Recorder) SaveFile(path string) error {
	rec := r.Snapshot()
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

type contextKey struct{}

// WithRecorder attaches a recorder to the context.
func WithRecorder(ctx context.Context, r *Recorder) context.Context {
	return context.WithValue(ctx, contextKey{}, r)
}

// FromContext retrieves the recorder from context, or nil when tracing is off.
func FromContext(ctx context.Context) *Recorder {
	r, _ := ctx.Value(contextKey{}).(*Recorder)
	return r
}

// RecordAPICall registers a capability call on the context's recorder, if any.
func RecordAPICall(ctx context.Context, api string, params map[string]interface{}, result string) {
	if r := FromContext(ctx); r != nil {
		r.AddAPICall(api, params, result)
	}
}
