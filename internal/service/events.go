package service

import (
	"context"

	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

// publish sends an event best effort. Failures are logged, never returned.
func publish(ctx context.Context, p events.Publisher, topic, key string, event events.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Warn("event_publish_error", "topic", topic, "type", event["type"], "error", err)
	}
}
