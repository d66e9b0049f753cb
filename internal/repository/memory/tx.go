package memory

import (
	"context"
	"fmt"
	"time"

	"nftrental-backend/internal/domain"
)

type transactor struct{ s *Store }

func (t transactor) AcceptBid(ctx context.Context, rental *domain.Rental, escrow *domain.Settlement) error {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	listing, ok := s.listings[rental.ListingID]
	if !ok {
		return domain.NewNotFoundError("listing", rental.ListingID)
	}
	bid, ok := s.bids[rental.BidID]
	if !ok {
		return domain.NewNotFoundError("bid", rental.BidID)
	}
	if listing.Status != domain.ListingStatusActive {
		return domain.NewInvalidStateError("listing", listing.ID, string(listing.Status), "accept bid on")
	}
	if bid.Status != domain.BidStatusPending {
		return domain.NewInvalidStateError("bid", bid.ID, string(bid.Status), "accept")
	}
	if _, ok := s.settlementByOpID[escrow.OperationID]; ok {
		return fmt.Errorf("settlement operation %s already recorded", escrow.OperationID)
	}

	// Statuses were checked above under the same lock.
	now := rental.CreatedAt
	listing.Status = domain.ListingStatusRented
	listing.UpdatedAt = now
	s.listings[listing.ID] = listing
	bid.Status = domain.BidStatusAccepted
	bid.UpdatedAt = now
	s.bids[bid.ID] = bid

	s.rentals[rental.ID] = *rental
	s.rentalByListing[rental.ListingID] = rental.ID
	s.rentalsByRenter[rental.Renter] = append(s.rentalsByRenter[rental.Renter], rental.ID)
	s.rentalsByOwner[rental.Owner] = append(s.rentalsByOwner[rental.Owner], rental.ID)
	s.putSettlement(escrow)
	return nil
}

func (t transactor) ReturnRental(ctx context.Context, rental *domain.Rental, release *domain.Settlement, adj domain.ReputationAdjustment) (int64, error) {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.rentals[rental.ID]
	if !ok {
		return 0, domain.NewNotFoundError("rental", rental.ID)
	}
	if current.Returned {
		return 0, domain.NewInvalidStateError("rental", rental.ID, "RETURNED", "return")
	}
	if _, ok := s.settlementByOpID[release.OperationID]; ok {
		return 0, fmt.Errorf("settlement operation %s already recorded", release.OperationID)
	}

	s.rentals[rental.ID] = *rental
	s.putSettlement(release)

	rep := s.reputations[adj.Identity]
	rep.Identity = adj.Identity
	rep.Score = max(0, rep.Score+adj.Delta)
	updated := time.Now().UTC()
	if rental.ReturnedAt != nil {
		updated = *rental.ReturnedAt
	}
	rep.UpdatedAt = &updated
	s.reputations[adj.Identity] = rep
	return rep.Score, nil
}

func (s *Store) putSettlement(st *domain.Settlement) {
	s.settlements[st.ID] = cloneSettlement(*st)
	s.settlementByOpID[st.OperationID] = st.ID
}
