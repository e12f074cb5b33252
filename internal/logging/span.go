package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span represents one logical unit of client work within a flow.
type Span struct {
	name   string
	logger *slog.Logger
	start  time.Time
}

// StartSpan derives a span from the provided context, enriching the logger
// with flow metadata. It returns the derived context and the span handle.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := FromContext(ctx)

	flowID := FlowIDFromContext(ctx)
	if flowID == "" {
		flowID = uuid.NewString()
		ctx = WithFlowID(ctx, flowID)
		logger = logger.With(slog.String("flow_id", flowID))
	}

	logger = logger.With(slog.String("span_name", name))

	ctx = WithLogger(ctx, logger)

	span := &Span{
		name:   name,
		logger: logger,
		start:  time.Now(),
	}

	return ctx, span
}

// End finalizes the span and emits a completion log entry.
func (s *Span) End() {
	if s == nil {
		return
	}
	s.logger.Info("span completed", slog.Duration("duration", time.Since(s.start)))
}
