package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var (
	ErrQueueFull = errors.New("events: queue full")
	ErrClosed    = errors.New("events: publisher closed")
)

type envelope struct {
	topic string
	key   string
	event Event
}

// AsyncPublisher moves publishing off the request path. Events are dropped
// when the buffer is full; delivery failures are logged, never returned.
type AsyncPublisher struct {
	next  Publisher
	log   *slog.Logger
	queue chan envelope

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewAsyncPublisher(next Publisher, buffer int, l *slog.Logger) *AsyncPublisher {
	if buffer <= 0 {
		buffer = 256
	}
	if l == nil {
		l = slog.Default()
	}
	p := &AsyncPublisher{
		next:  next,
		log:   l.With("component", "events.async"),
		queue: make(chan envelope, buffer),
	}
	p.wg.Add(1)
	go p.run()
	return p
}

func (p *AsyncPublisher) Publish(_ context.Context, topic, key string, event Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.queue <- envelope{topic: topic, key: key, event: event}:
		return nil
	default:
		p.log.Warn("event_dropped", "topic", topic, "type", event["type"])
		return ErrQueueFull
	}
}

func (p *AsyncPublisher) run() {
	defer p.wg.Done()
	for env := range p.queue {
		if err := p.next.Publish(context.Background(), env.topic, env.key, env.event); err != nil {
			p.log.Error("event_publish_failed", "topic", env.topic, "type", env.event["type"], "error", err)
		}
	}
}

// Close stops accepting events and blocks until the queue is drained.
func (p *AsyncPublisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()
	p.wg.Wait()
}
