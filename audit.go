package authcore

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// LoginRecord is one login-history entry. Exactly one record is emitted
// per authentication attempt, success or failure.
type LoginRecord struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id,omitempty"`
	Username  string    `json:"username,omitempty"`
	LoginType string    `json:"login_type"`
	SourceIP  string    `json:"source_ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Success   bool      `json:"success"`
	Result    string    `json:"result"`
}

// AuditSink receives login-history records. Sink failures never fail
// the authentication result.
type AuditSink interface {
	RecordLoginHistory(ctx context.Context, record LoginRecord)
}

type NoOpSink struct{}

func (NoOpSink) RecordLoginHistory(context.Context, LoginRecord) {}

type ChannelSink struct {
	records chan LoginRecord
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		records: make(chan LoginRecord, buffer),
	}
}

func (s *ChannelSink) RecordLoginHistory(ctx context.Context, record LoginRecord) {
	select {
	case s.records <- record:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Records() <-chan LoginRecord {
	return s.records
}

type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) RecordLoginHistory(_ context.Context, record LoginRecord) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(record)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
