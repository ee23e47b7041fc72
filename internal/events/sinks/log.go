// Package sinks provides event sink implementations for the hub.
package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/mellyssy/feedwatch/internal/events"
)

// LogSink emits structured logs for the domain event stream. Useful during
// development and as a durable audit trail in production logs.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs each event in the batch using structured fields.
func (s *LogSink) Consume(_ context.Context, batch []events.Event) error {
	for _, evt := range batch {
		fields := []zap.Field{
			zap.String("type", string(evt.Type)),
			zap.Time("ts", evt.TS),
		}
		if evt.SourceURL != "" {
			fields = append(fields, zap.String("source_url", evt.SourceURL))
		}
		if evt.SourceTitle != "" {
			fields = append(fields, zap.String("source_title", evt.SourceTitle))
		}
		if evt.ItemID != "" {
			fields = append(fields, zap.String("item_id", evt.ItemID))
		}
		if evt.Phase != "" {
			fields = append(fields, zap.String("phase", evt.Phase))
		}
		if evt.Count != 0 {
			fields = append(fields, zap.Int("count", evt.Count))
		}
		if evt.Note != "" {
			fields = append(fields, zap.String("note", evt.Note))
		}
		s.logger.Info("domain event", fields...)
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}
