package memory

import (
	"context"
	"fmt"
	"time"

	"nftrental-backend/internal/domain"
)

type listingRepo struct{ s *Store }

func (r listingRepo) Create(ctx context.Context, l *domain.Listing) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.listings[l.ID]; ok {
		return fmt.Errorf("listing %s already exists", l.ID)
	}
	r.s.listings[l.ID] = *l
	r.s.listingsByOwner[l.Owner] = append(r.s.listingsByOwner[l.Owner], l.ID)
	return nil
}

func (r listingRepo) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	l, ok := r.s.listings[id]
	if !ok {
		return nil, domain.NewNotFoundError("listing", id)
	}
	return &l, nil
}

func (r listingRepo) UpdateStatus(ctx context.Context, id string, from, to domain.ListingStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.casListing(id, from, to, time.Now().UTC())
}

func (r listingRepo) ListAvailable(ctx context.Context, page, pageSize int32) ([]domain.Listing, int32, error) {
	return r.Search(ctx, domain.ListingFilter{}, page, pageSize)
}

func (r listingRepo) ListByOwner(ctx context.Context, owner string, page, pageSize int32) ([]domain.Listing, int32, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Listing
	for _, id := range r.s.listingsByOwner[owner] {
		out = append(out, r.s.listings[id])
	}
	items, total := paginate(out, func(l domain.Listing) time.Time { return l.CreatedAt }, page, pageSize)
	return items, total, nil
}

func (r listingRepo) Search(ctx context.Context, f domain.ListingFilter, page, pageSize int32) ([]domain.Listing, int32, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Listing
	for _, l := range r.s.listings {
		if l.Status != domain.ListingStatusActive {
			continue
		}
		if f.Contract != "" && l.Asset.Contract != f.Contract {
			continue
		}
		if f.Owner != "" && l.Owner != f.Owner {
			continue
		}
		if f.MaxPricePerDay > 0 && l.PricePerDay > f.MaxPricePerDay {
			continue
		}
		if f.RentalDays > 0 && !l.AcceptsDays(f.RentalDays) {
			continue
		}
		out = append(out, l)
	}
	items, total := paginate(out, func(l domain.Listing) time.Time { return l.CreatedAt }, page, pageSize)
	return items, total, nil
}

// casListing must be called with the write lock held.
func (s *Store) casListing(id string, from, to domain.ListingStatus, now time.Time) error {
	l, ok := s.listings[id]
	if !ok {
		return domain.NewNotFoundError("listing", id)
	}
	if l.Status != from {
		return domain.NewInvalidStateError("listing", id, string(l.Status), "transition to "+string(to))
	}
	l.Status = to
	l.UpdatedAt = now
	s.listings[id] = l
	return nil
}

type bidRepo struct{ s *Store }

func (r bidRepo) Create(ctx context.Context, b *domain.Bid) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.listings[b.ListingID]
	if !ok {
		return domain.NewNotFoundError("listing", b.ListingID)
	}
	if l.Status != domain.ListingStatusActive {
		return domain.NewInvalidStateError("listing", l.ID, string(l.Status), "place bid on")
	}
	r.s.bids[b.ID] = *b
	r.s.bidsByListing[b.ListingID] = append(r.s.bidsByListing[b.ListingID], b.ID)
	r.s.bidsByRenter[b.Renter] = append(r.s.bidsByRenter[b.Renter], b.ID)
	return nil
}

func (r bidRepo) GetByID(ctx context.Context, id string) (*domain.Bid, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.bids[id]
	if !ok {
		return nil, domain.NewNotFoundError("bid", id)
	}
	return &b, nil
}

func (r bidRepo) UpdateStatus(ctx context.Context, id string, from, to domain.BidStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.casBid(id, from, to, time.Now().UTC())
}

func (r bidRepo) ListByListing(ctx context.Context, listingID string) ([]domain.Bid, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.Bid, 0, len(r.s.bidsByListing[listingID]))
	for _, id := range r.s.bidsByListing[listingID] {
		out = append(out, r.s.bids[id])
	}
	return out, nil
}

func (r bidRepo) ListByRenter(ctx context.Context, renter string, page, pageSize int32) ([]domain.Bid, int32, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Bid
	for _, id := range r.s.bidsByRenter[renter] {
		out = append(out, r.s.bids[id])
	}
	items, total := paginate(out, func(b domain.Bid) time.Time { return b.CreatedAt }, page, pageSize)
	return items, total, nil
}

func (s *Store) casBid(id string, from, to domain.BidStatus, now time.Time) error {
	b, ok := s.bids[id]
	if !ok {
		return domain.NewNotFoundError("bid", id)
	}
	if b.Status != from {
		return domain.NewInvalidStateError("bid", id, string(b.Status), "transition to "+string(to))
	}
	b.Status = to
	b.UpdatedAt = now
	s.bids[id] = b
	return nil
}

type rentalRepo struct{ s *Store }

func (r rentalRepo) GetByID(ctx context.Context, id string) (*domain.Rental, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rental, ok := r.s.rentals[id]
	if !ok {
		return nil, domain.NewNotFoundError("rental", id)
	}
	return &rental, nil
}

func (r rentalRepo) GetByListing(ctx context.Context, listingID string) (*domain.Rental, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.rentalByListing[listingID]
	if !ok {
		return nil, domain.NewNotFoundError("rental", "listing:"+listingID)
	}
	rental := r.s.rentals[id]
	return &rental, nil
}

func (r rentalRepo) ListByRenter(ctx context.Context, renter string, page, pageSize int32) ([]domain.Rental, int32, error) {
	return r.list(r.s.rentalsByRenter, renter, page, pageSize)
}

func (r rentalRepo) ListByOwner(ctx context.Context, owner string, page, pageSize int32) ([]domain.Rental, int32, error) {
	return r.list(r.s.rentalsByOwner, owner, page, pageSize)
}

func (r rentalRepo) list(index map[string][]string, key string, page, pageSize int32) ([]domain.Rental, int32, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Rental
	for _, id := range index[key] {
		out = append(out, r.s.rentals[id])
	}
	items, total := paginate(out, func(x domain.Rental) time.Time { return x.CreatedAt }, page, pageSize)
	return items, total, nil
}

func (r rentalRepo) ListOverdue(ctx context.Context, now time.Time, limit int32) ([]domain.Rental, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	today := truncateDay(now)
	var out []domain.Rental
	for _, rental := range r.s.rentals {
		if !rental.IsOverdue(now) {
			continue
		}
		if last, ok := r.s.overdueNotice[rental.ID]; ok && !last.Before(today) {
			continue
		}
		out = append(out, rental)
	}
	items, _ := paginate(out, func(x domain.Rental) time.Time { return x.CreatedAt }, 1, limit)
	return items, nil
}

func (r rentalRepo) MarkOverdueNotified(ctx context.Context, id string, day time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.rentals[id]; !ok {
		return domain.NewNotFoundError("rental", id)
	}
	r.s.overdueNotice[id] = truncateDay(day)
	return nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type settlementRepo struct{ s *Store }

func (r settlementRepo) GetByID(ctx context.Context, id string) (*domain.Settlement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	st, ok := r.s.settlements[id]
	if !ok {
		return nil, domain.NewNotFoundError("settlement", id)
	}
	st = cloneSettlement(st)
	return &st, nil
}

func (r settlementRepo) ListByRental(ctx context.Context, rentalID string) ([]domain.Settlement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Settlement
	for _, st := range r.s.settlements {
		if st.RentalID == rentalID {
			out = append(out, cloneSettlement(st))
		}
	}
	items, _ := paginate(out, func(x domain.Settlement) time.Time { return x.CreatedAt }, 1, int32(len(out)))
	return items, nil
}

func (r settlementRepo) ListByStatus(ctx context.Context, status domain.SettlementStatus, limit int32) ([]domain.Settlement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Settlement
	for _, st := range r.s.settlements {
		if st.Status == status {
			out = append(out, cloneSettlement(st))
		}
	}
	items, _ := paginate(out, func(x domain.Settlement) time.Time { return x.CreatedAt }, 1, limit)
	return items, nil
}

func (r settlementRepo) CountByStatus(ctx context.Context, status domain.SettlementStatus) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, st := range r.s.settlements {
		if st.Status == status {
			n++
		}
	}
	return n, nil
}

func (r settlementRepo) RecordAttempt(ctx context.Context, id string, attempts int32, lastErr string) error {
	return r.update(id, func(st *domain.Settlement) error {
		if st.Status != domain.SettlementStatusPending {
			return domain.NewInvalidStateError("settlement", id, string(st.Status), "record attempt on")
		}
		st.Attempts = attempts
		st.LastError = lastErr
		return nil
	})
}

func (r settlementRepo) MarkSubmitted(ctx context.Context, id string, attempts int32, ref string) error {
	return r.update(id, func(st *domain.Settlement) error {
		if st.Status != domain.SettlementStatusPending {
			return domain.NewInvalidStateError("settlement", id, string(st.Status), "submit")
		}
		st.Status = domain.SettlementStatusSubmitted
		st.Attempts = attempts
		st.ConfirmationRef = ref
		st.LastError = ""
		return nil
	})
}

func (r settlementRepo) MarkFinal(ctx context.Context, id string, status domain.SettlementStatus, lastErr string) error {
	return r.update(id, func(st *domain.Settlement) error {
		if st.Status != domain.SettlementStatusPending && st.Status != domain.SettlementStatusSubmitted {
			return domain.NewInvalidStateError("settlement", id, string(st.Status), "finalize")
		}
		st.Status = status
		st.LastError = lastErr
		return nil
	})
}

func (r settlementRepo) update(id string, fn func(*domain.Settlement) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.settlements[id]
	if !ok {
		return domain.NewNotFoundError("settlement", id)
	}
	if err := fn(&st); err != nil {
		return err
	}
	st.UpdatedAt = time.Now().UTC()
	r.s.settlements[id] = st
	return nil
}

type reputationRepo struct{ s *Store }

func (r reputationRepo) Get(ctx context.Context, identity string) (*domain.Reputation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rep, ok := r.s.reputations[identity]
	if !ok {
		return &domain.Reputation{Identity: identity}, nil
	}
	return &rep, nil
}

type notificationRepo struct{ s *Store }

func (r notificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextNoteID++
	n.ID = r.s.nextNoteID
	if n.CreatedOn == "" {
		n.CreatedOn = time.Now().UTC().Format("2006-01-02")
	}
	r.s.notifications = append(r.s.notifications, *n)
	return nil
}

func (r notificationRepo) List(ctx context.Context, identity string, limit, offset int32) ([]domain.Notification, int32, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var mine []domain.Notification
	for i := len(r.s.notifications) - 1; i >= 0; i-- {
		if r.s.notifications[i].Identity == identity {
			mine = append(mine, r.s.notifications[i])
		}
	}
	total := int32(len(mine))
	if offset >= total {
		return []domain.Notification{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return mine[offset:end], total, nil
}

func (r notificationRepo) MarkAsRead(ctx context.Context, id int64, identity string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.notifications {
		n := &r.s.notifications[i]
		if n.ID == id && n.Identity == identity {
			n.IsRead = true
			return nil
		}
	}
	return domain.NewNotFoundError("notification", fmt.Sprint(id))
}

type statsRepo struct{ s *Store }

func (r statsRepo) GetMarketplaceStats(ctx context.Context, now time.Time) (*domain.MarketplaceStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	stats := &domain.MarketplaceStats{}
	var priceSum int64
	for _, l := range r.s.listings {
		stats.TotalListings++
		priceSum += l.PricePerDay
		switch l.Status {
		case domain.ListingStatusActive:
			stats.ActiveListings++
		case domain.ListingStatusRented:
			stats.RentedListings++
		case domain.ListingStatusCancelled:
			stats.CancelledListings++
		}
	}
	if stats.TotalListings > 0 {
		stats.AveragePricePerDay = priceSum / stats.TotalListings
	}
	for _, rental := range r.s.rentals {
		stats.TotalRentals++
		stats.TotalVolume += rental.TotalPrice
		switch {
		case rental.Returned:
			stats.ReturnedRentals++
		case rental.IsOverdue(now):
			stats.OverdueRentals++
			stats.ActiveRentals++
		default:
			stats.ActiveRentals++
		}
	}
	for _, st := range r.s.settlements {
		if st.Status == domain.SettlementStatusPending {
			stats.PendingSettlements++
		}
	}
	return stats, nil
}
