package events

import (
	"context"
	"errors"
	"testing"

	"nftrental-backend/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestBus_Publish(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	var all, accepted []domain.EventType
	bus.Subscribe("all", func(ctx context.Context, e domain.Event) error {
		all = append(all, e.Type)
		return nil
	})
	bus.Subscribe("accepted", func(ctx context.Context, e domain.Event) error {
		accepted = append(accepted, e.Type)
		return nil
	}, domain.EventBidAccepted)

	bus.Publish(ctx, domain.Event{Type: domain.EventBidPlaced})
	bus.Publish(ctx, domain.Event{Type: domain.EventBidAccepted})

	assert.Equal(t, []domain.EventType{domain.EventBidPlaced, domain.EventBidAccepted}, all)
	assert.Equal(t, []domain.EventType{domain.EventBidAccepted}, accepted)
}

func TestBus_IsolatesFailingSubscribers(t *testing.T) {
	bus := NewBus()
	delivered := 0

	bus.Subscribe("panics", func(ctx context.Context, e domain.Event) error { panic("boom") })
	bus.Subscribe("fails", func(ctx context.Context, e domain.Event) error { return errors.New("down") })
	bus.Subscribe("works", func(ctx context.Context, e domain.Event) error {
		delivered++
		return nil
	})

	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), domain.Event{Type: domain.EventRentalReturned})
	})
	assert.Equal(t, 1, delivered)
}
