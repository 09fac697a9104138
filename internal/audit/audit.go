package audit

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event is a structured audit record emitted by the auth service. Email is
// always the masked form; raw addresses never reach the sink.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	UserID    int64     `json:"userId,omitempty"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role,omitempty"`
	FamilyID  string    `json:"familyId,omitempty"`
	DeviceID  string    `json:"deviceId,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

// Sink receives audit events. Implementations must be safe for concurrent
// use; recording is best-effort and must not fail the calling operation.
type Sink interface {
	Record(ctx context.Context, event Event)
}

// NoOpSink discards all events.
type NoOpSink struct{}

func (NoOpSink) Record(context.Context, Event) {}

// JSONWriterSink writes one JSON object per line to an io.Writer.
type JSONWriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{w: w}
}

func (s *JSONWriterSink) Record(_ context.Context, event Event) {
	b, err := json.Marshal(event)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.w.Write(b)
	_, _ = s.w.Write([]byte("\n"))
}

// ZapSink records events through a zap logger at info level under the
// "audit" message, one field per populated attribute.
type ZapSink struct {
	log *zap.Logger
}

func NewZapSink(log *zap.Logger) *ZapSink {
	return &ZapSink{log: log}
}

func (s *ZapSink) Record(_ context.Context, event Event) {
	fields := []zap.Field{
		zap.Time("timestamp", event.Timestamp),
		zap.String("type", event.Type),
	}
	if event.UserID != 0 {
		fields = append(fields, zap.Int64("userId", event.UserID))
	}
	if event.Email != "" {
		fields = append(fields, zap.String("email", event.Email))
	}
	if event.Role != "" {
		fields = append(fields, zap.String("role", event.Role))
	}
	if event.FamilyID != "" {
		fields = append(fields, zap.String("familyId", event.FamilyID))
	}
	if event.DeviceID != "" {
		fields = append(fields, zap.String("deviceId", event.DeviceID))
	}
	if event.Reason != "" {
		fields = append(fields, zap.String("reason", event.Reason))
	}
	s.log.Info("audit", fields...)
}

// MaskEmail truncates the local part to two characters and keeps the domain,
// e.g. "alice@example.com" -> "al***@example.com". Addresses without a domain
// collapse to "***".
func MaskEmail(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	at := strings.Index(normalized, "@")
	if at < 0 || at == len(normalized)-1 {
		return "***"
	}
	local, domain := normalized[:at], normalized[at+1:]
	if len(local) > 2 {
		local = local[:2]
	}
	return local + "***@" + domain
}
