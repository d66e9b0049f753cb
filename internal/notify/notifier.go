// Package notify turns domain events into per-identity inbox notifications.
// Delivery to devices or mail is not handled here.
package notify

import (
	"context"
	"fmt"

	"nftrental-backend/internal/domain"
	"nftrental-backend/internal/events"
	"nftrental-backend/internal/logger"
	"nftrental-backend/internal/repository"
)

type Notifier struct {
	repo repository.NotificationRepository
}

func NewNotifier(repo repository.NotificationRepository) *Notifier {
	return &Notifier{repo: repo}
}

// Register subscribes the notifier to every event type it renders.
func (n *Notifier) Register(bus *events.Bus) {
	bus.Subscribe("notifier", n.Handle,
		domain.EventBidPlaced,
		domain.EventBidCancelled,
		domain.EventBidAccepted,
		domain.EventRentalReturned,
		domain.EventRentalOverdue,
		domain.EventSettlementFailed,
	)
}

type message struct {
	identity string
	title    string
	body     string
}

func (n *Notifier) Handle(ctx context.Context, e domain.Event) error {
	var errs []error
	for _, m := range render(e) {
		attrs := map[string]string{"event_type": string(e.Type), "entity_id": e.EntityID}
		for k, v := range e.Attributes {
			attrs[k] = v
		}
		note := &domain.Notification{
			Identity:   m.identity,
			Title:      m.title,
			Message:    m.body,
			Attributes: attrs,
			CreatedOn:  e.OccurredAt.UTC().Format("2006-01-02"),
		}
		if err := n.repo.Create(ctx, note); err != nil {
			errs = append(errs, err)
			continue
		}
		logger.Debug("Notification stored", "identity", m.identity, "type", e.Type, "notificationID", note.ID)
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to store %d notification(s): %w", len(errs), errs[0])
	}
	return nil
}

func render(e domain.Event) []message {
	a := e.Attributes
	switch e.Type {
	case domain.EventBidPlaced:
		return []message{{e.Owner, "New Bid",
			fmt.Sprintf("A bid of %s for %s days was placed on your listing for %s.", a["bid_amount"], a["rental_days"], a["asset"])}}
	case domain.EventBidCancelled:
		return []message{{e.Owner, "Bid Cancelled",
			fmt.Sprintf("A bid on your listing for %s was cancelled.", a["asset"])}}
	case domain.EventBidAccepted:
		return []message{{e.Renter, "Bid Accepted",
			fmt.Sprintf("Your bid for %s was accepted. The rental ends on %s.", a["asset"], a["end_date"])}}
	case domain.EventRentalReturned:
		renterMsg := fmt.Sprintf("You returned %s on time.", a["asset"])
		if a["on_time"] != "true" {
			renterMsg = fmt.Sprintf("You returned %s %s day(s) late. A penalty of %s applies.", a["asset"], a["days_late"], a["penalty"])
		}
		return []message{
			{e.Renter, "Rental Returned", renterMsg},
			{e.Owner, "Asset Returned", fmt.Sprintf("%s was returned to you.", a["asset"])},
		}
	case domain.EventRentalOverdue:
		return []message{{e.Renter, "Rental Overdue",
			fmt.Sprintf("Your rental of %s ended on %s and is %s day(s) late. The penalty so far is %s.", a["asset"], a["end_date"], a["days_late"], a["accrued_penalty"])}}
	case domain.EventSettlementFailed:
		var out []message
		for _, id := range []string{e.Renter, e.Owner} {
			if id != "" {
				out = append(out, message{id, "Settlement Failed",
					fmt.Sprintf("The ledger rejected settlement %s. Support has been notified.", e.EntityID)})
			}
		}
		return out
	}
	return nil
}
