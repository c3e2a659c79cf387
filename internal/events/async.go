package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const publishTimeout = 5 * time.Second

type job struct {
	topic string
	key   string
	env   Envelope
}

// Async hands events to a Publisher from a single background goroutine.
// A full buffer drops the event.
type Async struct {
	pub   Publisher
	log   *slog.Logger
	inbox chan job

	once sync.Once
	mu   sync.RWMutex
	shut bool
	done chan struct{}
}

func NewAsync(pub Publisher, buf int, log *slog.Logger) *Async {
	if buf <= 0 {
		buf = 256
	}
	a := &Async{
		pub:   pub,
		log:   log.With("component", "events"),
		inbox: make(chan job, buf),
		done:  make(chan struct{}),
	}
	go a.loop()
	return a
}

func (a *Async) loop() {
	defer close(a.done)
	for j := range a.inbox {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := a.pub.Publish(ctx, j.topic, j.key, j.env); err != nil {
			a.log.Error("publish_error", "topic", j.topic, "type", j.env.Type, "event_id", j.env.EventID, "error", err)
		}
		cancel()
	}
}

func (a *Async) Emit(_ context.Context, topic, key, eventType string, payload any) {
	env, err := NewEnvelope(eventType, payload)
	if err != nil {
		a.log.Error("envelope_error", "type", eventType, "error", err)
		return
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.shut {
		a.log.Warn("event_dropped", "reason", "dispatcher closed", "type", eventType)
		return
	}
	select {
	case a.inbox <- job{topic: topic, key: key, env: env}:
	default:
		a.log.Warn("event_dropped", "reason", "buffer full", "topic", topic, "type", eventType)
	}
}

// Close drains queued events, waits for the worker and closes the publisher.
func (a *Async) Close() error {
	var err error
	a.once.Do(func() {
		a.mu.Lock()
		a.shut = true
		close(a.inbox)
		a.mu.Unlock()

		<-a.done
		err = a.pub.Close()
	})
	return err
}
