package services

import (
	"context"

	"github.com/diewo77/go-bistro/internal/events"
	"github.com/diewo77/go-bistro/internal/logger"
	"github.com/diewo77/go-bistro/internal/metrics"
)

// Notifier publishes domain events after a commit. Publishing is best
// effort: failures are logged and counted, never returned to the caller.
type Notifier struct {
	pub     events.Publisher
	metrics *metrics.BusinessMetrics
	log     *logger.Logger
}

func NewNotifier(pub events.Publisher, m *metrics.BusinessMetrics, logg *logger.Logger) *Notifier {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Notifier{pub: pub, metrics: m, log: logg}
}

func (n *Notifier) Metrics() *metrics.BusinessMetrics {
	if n == nil {
		return nil
	}
	return n.metrics
}

func (n *Notifier) Publish(ctx context.Context, name string, payload any) {
	if n == nil || n.pub == nil {
		return
	}
	evt := events.NewEvent(name, payload)
	err := n.pub.Publish(ctx, evt)
	n.metrics.EventPublished(name, err)
	if err != nil {
		n.log.Error(n.log.WithFields(ctx, map[string]any{"event_name": name, "event_id": evt.ID}), "event.publish_failed", err)
	}
}
