package services

import "go.uber.org/zap"

// MatchFinished is published exactly once per successful finish call.
type MatchFinished struct {
	SessionID string
}

// Publisher is the outbound-event dependency of MatchService. Tests can
// inject a recording or no-op implementation.
type Publisher interface {
	PublishMatchFinished(event MatchFinished)
}

// EventBus is a synchronous in-process publish/subscribe registry owned
// by the composition root. Delivery happens on the caller's goroutine,
// after the finish transaction has committed; a misbehaving subscriber
// is logged and skipped so it cannot affect the committed transition.
type EventBus struct {
	log  *zap.Logger
	subs []func(MatchFinished)
}

func NewEventBus(log *zap.Logger) *EventBus {
	return &EventBus{log: log}
}

// SubscribeMatchFinished registers a handler. Not safe for concurrent use
// with Publish; all registration happens at startup.
func (b *EventBus) SubscribeMatchFinished(fn func(MatchFinished)) {
	b.subs = append(b.subs, fn)
}

func (b *EventBus) PublishMatchFinished(event MatchFinished) {
	for _, fn := range b.subs {
		b.deliver(fn, event)
	}
}

func (b *EventBus) deliver(fn func(MatchFinished), event MatchFinished) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("match finished subscriber panicked",
				zap.String("session_id", event.SessionID),
				zap.Any("panic", r))
		}
	}()
	fn(event)
}
