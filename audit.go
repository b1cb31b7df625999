package gatehouse

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gatehouse-auth/gatehouse/internal/audit"
)

// AuditEvent is the audit record emitted by the pipeline.
type AuditEvent = audit.Event

// Audit event kinds emitted by the engine.
const (
	AuditLoginSuccess       = "login_success"
	AuditLoginFailure       = "login_failure"
	AuditLoginRateLimited   = "login_rate_limited"
	AuditRememberMeIssued   = "remember_me_issued"
	AuditRememberMeRejected = "remember_me_rejected"
)

// AuditSink receives emitted audit events.
type AuditSink = audit.Sink

// NoOpSink drops audit events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink buffers audit events into a channel, for tests and custom
// consumers.
type ChannelSink struct {
	events chan AuditEvent
}

// NewChannelSink builds a ChannelSink with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{events: make(chan AuditEvent, buffer)}
}

func (s *ChannelSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events returns the sink's receive side.
func (s *ChannelSink) Events() <-chan AuditEvent {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink wraps w; writes are serialized.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{writer: w}
}

func (s *JSONWriterSink) Emit(_ context.Context, event AuditEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer.Write(append(data, '\n'))
}

// SlogSink forwards audit events to a structured logger.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink wraps the given logger; nil falls back to slog.Default.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Emit(ctx context.Context, event AuditEvent) {
	s.logger.LogAttrs(ctx, slog.LevelInfo, "audit",
		slog.String("kind", event.Kind),
		slog.String("firewall", event.Firewall),
		slog.String("authenticator", event.Authenticator),
		slog.String("user_id", event.UserID),
		slog.String("ip", event.IP),
		slog.Bool("success", event.Success),
		slog.String("error", event.Error),
	)
}

func newAuditEvent(kind string) AuditEvent {
	return AuditEvent{Timestamp: time.Now(), Kind: kind}
}
