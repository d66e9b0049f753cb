// Package events is the in-process domain event bus. Events are published only
// after the state change they describe has committed.
package events

import (
	"context"
	"fmt"
	"sync"

	"nftrental-backend/internal/domain"
	"nftrental-backend/internal/logger"
)

type Handler func(ctx context.Context, e domain.Event) error

type subscription struct {
	name    string
	types   map[domain.EventType]bool
	handler Handler
}

func (s subscription) wants(t domain.EventType) bool {
	return len(s.types) == 0 || s.types[t]
}

// Bus delivers events synchronously, in subscription order. A failing or
// panicking subscriber is logged and never affects the publisher or the
// other subscribers.
type Bus struct {
	mu   sync.RWMutex
	subs []subscription
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers h for the given event types, or for every event when
// no type is given.
func (b *Bus) Subscribe(name string, h Handler, types ...domain.EventType) {
	set := make(map[domain.EventType]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, subscription{name: name, types: set, handler: h})
}

func (b *Bus) Publish(ctx context.Context, e domain.Event) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	logger.Debug("Publishing event", "type", e.Type, "entityID", e.EntityID)
	for _, s := range subs {
		if !s.wants(e.Type) {
			continue
		}
		if err := deliver(ctx, s, e); err != nil {
			logger.Error("Event subscriber failed", "subscriber", s.name, "type", e.Type, "entityID", e.EntityID, "error", err)
		}
	}
}

func deliver(ctx context.Context, s subscription, e domain.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.handler(ctx, e)
}
