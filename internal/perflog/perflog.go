// Package perflog records one append-only performance entry per assistant call.
// Writes are best effort: callers drop failures after counting them.
package perflog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"

	redacted       = "[REDACTED]"
	maxFieldLength = 2000
	entryTTL       = 30 * 24 * time.Hour
)

// Entry is one performance log row.
type Entry struct {
	ID           string    `json:"id" dynamodbav:"id"`
	FunctionName string    `json:"function_name" dynamodbav:"functionName"`
	DurationMS   int64     `json:"duration_ms" dynamodbav:"durationMs"`
	Status       string    `json:"status" dynamodbav:"status"`
	TenantID     string    `json:"tenant_id,omitempty" dynamodbav:"tenantId,omitempty"`
	Payload      string    `json:"payload" dynamodbav:"payload"`
	Response     string    `json:"response" dynamodbav:"response"`
	CreatedAt    time.Time `json:"created_at" dynamodbav:"createdAt"`
	ExpiresAt    int64     `json:"-" dynamodbav:"expiresAt,omitempty"`
}

// Sink persists entries.
type Sink interface {
	Name() string
	Write(ctx context.Context, entry Entry) error
}

// NewEntry builds an entry with a sanitized payload and the encoded response.
func NewEntry(function string, duration time.Duration, status, tenantID string, payload map[string]any, response any) (Entry, error) {
	payloadJSON, err := json.Marshal(SanitizePayload(payload))
	if err != nil {
		return Entry{}, fmt.Errorf("perflog: encode payload: %w", err)
	}
	responseJSON, err := json.Marshal(response)
	if err != nil {
		return Entry{}, fmt.Errorf("perflog: encode response: %w", err)
	}
	return Entry{
		FunctionName: function,
		DurationMS:   duration.Milliseconds(),
		Status:       status,
		TenantID:     tenantID,
		Payload:      string(payloadJSON),
		Response:     string(responseJSON),
	}, nil
}

// withDefaults fills the ID and timestamps sinks need.
func (e Entry) withDefaults() Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.ExpiresAt == 0 {
		e.ExpiresAt = e.CreatedAt.Add(entryTTL).Unix()
	}
	return e
}

var sensitiveKeys = map[string]bool{
	"authorization": true,
	"token":         true,
	"access_token":  true,
	"password":      true,
	"secret":        true,
	"api_key":       true,
	"apikey":        true,
	"cookie":        true,
}

// SanitizePayload returns a copy with credential-like keys redacted and long
// strings truncated. Nested maps and slices are sanitized too.
func SanitizePayload(payload map[string]any) map[string]any {
	if payload == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		if sensitiveKeys[strings.ToLower(k)] {
			out[k] = redacted
			continue
		}
		out[k] = sanitizeValue(v)
	}
	return out
}

func sanitizeValue(v any) any {
	switch val := v.(type) {
	case string:
		if len(val) > maxFieldLength {
			return val[:maxFieldLength] + "..."
		}
		return val
	case map[string]any:
		return SanitizePayload(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = sanitizeValue(item)
		}
		return out
	default:
		return v
	}
}

// NoopSink discards entries.
type NoopSink struct{}

func (NoopSink) Name() string                       { return "none" }
func (NoopSink) Write(context.Context, Entry) error { return nil }
