package dashboard

import (
	"context"
	"sort"

	"go.uber.org/zap"
)

// Telemetry records dashboard events for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

// ZapTelemetry writes telemetry events as structured log entries.
type ZapTelemetry struct {
	logger *zap.Logger
}

// NewZapTelemetry wraps logger; a nil logger discards events.
func NewZapTelemetry(logger *zap.Logger) *ZapTelemetry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapTelemetry{logger: logger.Named("telemetry")}
}

// Record logs the event at info level with the payload as fields.
func (t *ZapTelemetry) Record(_ context.Context, event string, payload map[string]any) {
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	fields := make([]zap.Field, 0, len(keys)+1)
	fields = append(fields, zap.String("event", event))
	for _, key := range keys {
		fields = append(fields, zap.Any(key, payload[key]))
	}
	t.logger.Info("telemetry", fields...)
}
