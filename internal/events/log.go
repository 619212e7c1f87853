package events

import (
	"context"

	"github.com/diewo77/go-bistro/internal/logger"
)

// LogPublisher writes events to the application log.
type LogPublisher struct {
	logg *logger.Logger
}

func NewLogPublisher(logg *logger.Logger) *LogPublisher {
	return &LogPublisher{logg: logg}
}

func (p *LogPublisher) Publish(ctx context.Context, evt Event) error {
	ctx = p.logg.WithFields(ctx, map[string]any{
		"event_id":   evt.ID,
		"event_name": evt.Name,
		"payload":    evt.Payload,
	})
	p.logg.Info(ctx, "event.published")
	return nil
}

func (p *LogPublisher) Close() error { return nil }
