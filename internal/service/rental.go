package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"nftrental-backend/internal/domain"
	"nftrental-backend/internal/logger"
	"nftrental-backend/internal/metrics"
	"nftrental-backend/internal/repository"
	"nftrental-backend/internal/utils"

	"github.com/google/uuid"
)

// operationNamespace seeds the deterministic ledger operation ids.
var operationNamespace = uuid.MustParse("8a7e35c4-5d0b-4c55-9a2e-6f1f0f3b7d21")

const statsCacheKey = "stats"

// RentalConfig holds the financial policy of the marketplace.
type RentalConfig struct {
	FeeBasisPoints           int32
	LatePenaltyMultiplierBps int64
	EscrowMode               domain.EscrowMode
	MaxRentalDays            int32
	// AlertAfterAttempts triggers an ops alert once a settlement has failed
	// this many submissions. 0 disables attempt-based alerts.
	AlertAfterAttempts int32
}

type RentalServiceDeps struct {
	Store      repository.Store
	Submitter  SettlementSubmitter
	Events     EventPublisher
	Alerts     AlertService
	Cache      Cache
	Config     RentalConfig
	Reputation ReputationPolicy
	Now        func() time.Time
}

type rentalService struct {
	store      repository.Store
	submitter  SettlementSubmitter
	events     EventPublisher
	alerts     AlertService
	cache      Cache
	cfg        RentalConfig
	reputation ReputationPolicy
	now        func() time.Time
}

func NewRentalService(deps RentalServiceDeps) RentalService {
	cfg := deps.Config
	if cfg.MaxRentalDays <= 0 || cfg.MaxRentalDays > domain.MaxRentalDays {
		cfg.MaxRentalDays = domain.MaxRentalDays
	}
	if cfg.EscrowMode == "" {
		cfg.EscrowMode = domain.EscrowModePrepaid
	}
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &rentalService{
		store:      deps.Store,
		submitter:  deps.Submitter,
		events:     deps.Events,
		alerts:     deps.Alerts,
		cache:      deps.Cache,
		cfg:        cfg,
		reputation: deps.Reputation,
		now:        now,
	}
}

func operationID(rentalID string, kind domain.SettlementKind) string {
	return uuid.NewSHA1(operationNamespace, []byte(rentalID+":"+string(kind))).String()
}

func (s *rentalService) CreateListing(ctx context.Context, cmd domain.CreateListingCommand) (l *domain.Listing, err error) {
	logger.EnterMethod("rentalService.CreateListing", "owner", cmd.Owner, "asset", cmd.Asset.String())
	defer func() { s.finish("CreateListing", err) }()

	if err = cmd.Validate(s.cfg.MaxRentalDays); err != nil {
		return nil, err
	}

	now := s.now()
	l = &domain.Listing{
		ID:          uuid.NewString(),
		Owner:       cmd.Owner,
		Asset:       cmd.Asset,
		PricePerDay: cmd.PricePerDay,
		MinDays:     cmd.MinDays,
		MaxDays:     cmd.MaxDays,
		Status:      domain.ListingStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err = s.store.Listings().Create(ctx, l); err != nil {
		return nil, err
	}

	logger.Info("Listing created", "listingID", l.ID, "owner", l.Owner, "asset", l.Asset.String())
	s.invalidateStats(ctx)
	s.publish(ctx, domain.Event{
		Type:     domain.EventListingCreated,
		EntityID: l.ID,
		Actor:    l.Owner,
		Owner:    l.Owner,
		Attributes: map[string]string{
			"asset":         l.Asset.String(),
			"price_per_day": strconv.FormatInt(l.PricePerDay, 10),
		},
	})
	return l, nil
}

func (s *rentalService) PlaceBid(ctx context.Context, cmd domain.PlaceBidCommand) (b *domain.Bid, err error) {
	logger.EnterMethod("rentalService.PlaceBid", "listingID", cmd.ListingID, "renter", cmd.Renter)
	defer func() { s.finish("PlaceBid", err) }()

	if err = cmd.Validate(); err != nil {
		return nil, err
	}
	listing, err := s.store.Listings().GetByID(ctx, cmd.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.Status != domain.ListingStatusActive {
		return nil, domain.NewInvalidStateError("listing", listing.ID, string(listing.Status), "place bid on")
	}
	if !listing.AcceptsDays(cmd.RentalDays) {
		return nil, domain.NewValidationError("rental_days",
			fmt.Sprintf("must be between %d and %d", listing.MinDays, listing.MaxDays))
	}
	if listing.Owner == cmd.Renter {
		return nil, domain.NewValidationError("renter", "owner cannot bid on own listing")
	}

	now := s.now()
	b = &domain.Bid{
		ID:         uuid.NewString(),
		ListingID:  listing.ID,
		Renter:     cmd.Renter,
		RentalDays: cmd.RentalDays,
		BidAmount:  cmd.BidAmount,
		Status:     domain.BidStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	// The insert re-checks the listing status, closing the window since the read above.
	if err = s.store.Bids().Create(ctx, b); err != nil {
		return nil, err
	}

	logger.Info("Bid placed", "bidID", b.ID, "listingID", listing.ID, "renter", b.Renter)
	s.publish(ctx, domain.Event{
		Type:     domain.EventBidPlaced,
		EntityID: b.ID,
		Actor:    b.Renter,
		Owner:    listing.Owner,
		Renter:   b.Renter,
		Attributes: map[string]string{
			"listing_id":  listing.ID,
			"asset":       listing.Asset.String(),
			"bid_amount":  strconv.FormatInt(b.BidAmount, 10),
			"rental_days": strconv.Itoa(int(b.RentalDays)),
		},
	})
	return b, nil
}

func (s *rentalService) AcceptBid(ctx context.Context, cmd domain.AcceptBidCommand) (rental *domain.Rental, err error) {
	logger.EnterMethod("rentalService.AcceptBid", "owner", cmd.Owner, "bidID", cmd.BidID)
	defer func() { s.finish("AcceptBid", err) }()

	if err = cmd.Validate(); err != nil {
		return nil, err
	}
	bid, err := s.store.Bids().GetByID(ctx, cmd.BidID)
	if err != nil {
		return nil, err
	}
	listing, err := s.store.Listings().GetByID(ctx, bid.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.Owner != cmd.Owner {
		return nil, domain.NewAuthorizationError(cmd.Owner, "listing", listing.ID)
	}
	if bid.Status != domain.BidStatusPending {
		return nil, domain.NewInvalidStateError("bid", bid.ID, string(bid.Status), "accept")
	}
	if listing.Status != domain.ListingStatusActive {
		return nil, domain.NewInvalidStateError("listing", listing.ID, string(listing.Status), "accept bid on")
	}

	cost, err := utils.CalculateRentalCost(listing.PricePerDay, bid.RentalDays, s.cfg.FeeBasisPoints)
	if err != nil {
		return nil, err
	}
	deposit := cost.TotalPrice
	if s.cfg.EscrowMode == domain.EscrowModeDeposit {
		deposit = bid.BidAmount
	}

	now := s.now()
	rental = &domain.Rental{
		ID:            uuid.NewString(),
		ListingID:     listing.ID,
		BidID:         bid.ID,
		Owner:         listing.Owner,
		Renter:        bid.Renter,
		Asset:         listing.Asset,
		DailyPrice:    listing.PricePerDay,
		RentalDays:    bid.RentalDays,
		StartDate:     now,
		EndDate:       utils.EndDate(now, bid.RentalDays),
		TotalPrice:    cost.TotalPrice,
		PlatformFee:   cost.PlatformFee,
		OwnerEarnings: cost.OwnerEarnings,
		Deposit:       deposit,
		CreatedAt:     now,
	}
	escrow := s.newSettlement(rental.ID, domain.SettlementKindEscrow, []domain.Transfer{
		{From: rental.Renter, To: domain.AccountEscrow, Amount: deposit, Purpose: "escrow_deposit"},
	}, now)

	// Both compare-and-sets run inside one transaction, so of two racing
	// acceptances exactly one commits.
	if err = s.store.Tx().AcceptBid(ctx, rental, escrow); err != nil {
		return nil, err
	}

	logger.Info("Bid accepted", "bidID", bid.ID, "listingID", listing.ID, "rentalID", rental.ID, "operationID", escrow.OperationID)
	s.invalidateStats(ctx)
	s.publish(ctx, domain.Event{
		Type:     domain.EventBidAccepted,
		EntityID: rental.ID,
		Actor:    cmd.Owner,
		Owner:    rental.Owner,
		Renter:   rental.Renter,
		Attributes: map[string]string{
			"bid_id":      bid.ID,
			"listing_id":  listing.ID,
			"asset":       rental.Asset.String(),
			"total_price": strconv.FormatInt(rental.TotalPrice, 10),
			"end_date":    rental.EndDate.Format(time.RFC3339),
		},
	})

	if err = s.submitSettlement(ctx, escrow); err != nil {
		return rental, err
	}
	return rental, nil
}

func (s *rentalService) ReturnNFT(ctx context.Context, cmd domain.ReturnNFTCommand) (result *domain.ReturnResult, err error) {
	logger.EnterMethod("rentalService.ReturnNFT", "renter", cmd.Renter, "rentalID", cmd.RentalID)
	defer func() { s.finish("ReturnNFT", err) }()

	if err = cmd.Validate(); err != nil {
		return nil, err
	}
	rental, err := s.store.Rentals().GetByID(ctx, cmd.RentalID)
	if err != nil {
		return nil, err
	}
	if rental.Renter != cmd.Renter {
		return nil, domain.NewAuthorizationError(cmd.Renter, "rental", rental.ID)
	}
	if rental.Returned {
		return nil, domain.NewInvalidStateError("rental", rental.ID, "RETURNED", "return")
	}

	now := s.now()
	outcome := utils.SettleReturn(rental, now, utils.SettlementPolicy{LatePenaltyMultiplierBps: s.cfg.LatePenaltyMultiplierBps})
	delta := s.reputation.Delta(outcome.OnTime, outcome.DaysLate)

	onTime := outcome.OnTime
	rental.Returned = true
	rental.ReturnedAt = &now
	rental.OnTime = &onTime
	rental.DaysLate = outcome.DaysLate
	rental.Penalty = outcome.Penalty
	rental.Refund = outcome.Refund
	rental.Outstanding = outcome.Outstanding

	release := s.newSettlement(rental.ID, domain.SettlementKindRelease, outcome.Transfers, now)
	score, err := s.store.Tx().ReturnRental(ctx, rental, release, domain.ReputationAdjustment{Identity: rental.Renter, Delta: delta})
	if err != nil {
		return nil, err
	}

	result = &domain.ReturnResult{
		Rental:          rental,
		Settlement:      release,
		OnTime:          outcome.OnTime,
		DaysLate:        outcome.DaysLate,
		Penalty:         outcome.Penalty,
		Refund:          outcome.Refund,
		Outstanding:     outcome.Outstanding,
		ReputationDelta: delta,
		ReputationScore: score,
	}

	logger.Info("Rental returned",
		"rentalID", rental.ID,
		"onTime", outcome.OnTime,
		"daysLate", outcome.DaysLate,
		"penalty", outcome.Penalty,
		"operationID", release.OperationID)
	s.invalidateStats(ctx)
	s.publish(ctx, domain.Event{
		Type:     domain.EventRentalReturned,
		EntityID: rental.ID,
		Actor:    rental.Renter,
		Owner:    rental.Owner,
		Renter:   rental.Renter,
		Attributes: map[string]string{
			"asset":     rental.Asset.String(),
			"on_time":   strconv.FormatBool(outcome.OnTime),
			"days_late": strconv.Itoa(int(outcome.DaysLate)),
			"penalty":   strconv.FormatInt(outcome.Penalty, 10),
			"refund":    strconv.FormatInt(outcome.Refund, 10),
		},
	})

	if err = s.submitSettlement(ctx, release); err != nil {
		return result, err
	}
	return result, nil
}

func (s *rentalService) CancelListing(ctx context.Context, cmd domain.CancelListingCommand) (l *domain.Listing, err error) {
	logger.EnterMethod("rentalService.CancelListing", "owner", cmd.Owner, "listingID", cmd.ListingID)
	defer func() { s.finish("CancelListing", err) }()

	if err = cmd.Validate(); err != nil {
		return nil, err
	}
	l, err = s.store.Listings().GetByID(ctx, cmd.ListingID)
	if err != nil {
		return nil, err
	}
	if l.Owner != cmd.Owner {
		return nil, domain.NewAuthorizationError(cmd.Owner, "listing", l.ID)
	}
	if l.Status != domain.ListingStatusActive {
		return nil, domain.NewInvalidStateError("listing", l.ID, string(l.Status), "cancel")
	}
	if err = s.store.Listings().UpdateStatus(ctx, l.ID, domain.ListingStatusActive, domain.ListingStatusCancelled); err != nil {
		return nil, err
	}
	l.Status = domain.ListingStatusCancelled
	l.UpdatedAt = s.now()

	logger.Info("Listing cancelled", "listingID", l.ID)
	s.invalidateStats(ctx)
	s.publish(ctx, domain.Event{
		Type:       domain.EventListingCancelled,
		EntityID:   l.ID,
		Actor:      l.Owner,
		Owner:      l.Owner,
		Attributes: map[string]string{"asset": l.Asset.String()},
	})
	return l, nil
}

func (s *rentalService) CancelBid(ctx context.Context, cmd domain.CancelBidCommand) (b *domain.Bid, err error) {
	logger.EnterMethod("rentalService.CancelBid", "renter", cmd.Renter, "bidID", cmd.BidID)
	defer func() { s.finish("CancelBid", err) }()

	if err = cmd.Validate(); err != nil {
		return nil, err
	}
	b, err = s.store.Bids().GetByID(ctx, cmd.BidID)
	if err != nil {
		return nil, err
	}
	if b.Renter != cmd.Renter {
		return nil, domain.NewAuthorizationError(cmd.Renter, "bid", b.ID)
	}
	if b.Status != domain.BidStatusPending {
		return nil, domain.NewInvalidStateError("bid", b.ID, string(b.Status), "cancel")
	}
	if err = s.store.Bids().UpdateStatus(ctx, b.ID, domain.BidStatusPending, domain.BidStatusCancelled); err != nil {
		return nil, err
	}
	b.Status = domain.BidStatusCancelled
	b.UpdatedAt = s.now()

	logger.Info("Bid cancelled", "bidID", b.ID)
	event := domain.Event{
		Type:       domain.EventBidCancelled,
		EntityID:   b.ID,
		Actor:      b.Renter,
		Renter:     b.Renter,
		Attributes: map[string]string{"listing_id": b.ListingID},
	}
	if listing, lerr := s.store.Listings().GetByID(ctx, b.ListingID); lerr == nil {
		event.Owner = listing.Owner
		event.Attributes["asset"] = listing.Asset.String()
	}
	s.publish(ctx, event)
	return b, nil
}

func (s *rentalService) CalculateRentalCost(ctx context.Context, dailyPrice int64, rentalDays int32, feeBasisPoints *int32) (utils.RentalCost, error) {
	fee := s.cfg.FeeBasisPoints
	if feeBasisPoints != nil {
		fee = *feeBasisPoints
	}
	return utils.CalculateRentalCost(dailyPrice, rentalDays, fee)
}

// NotifyOverdueRentals emits RentalOverdue at most once per rental per day.
func (s *rentalService) NotifyOverdueRentals(ctx context.Context, limit int32) (int, error) {
	now := s.now()
	rentals, err := s.store.Rentals().ListOverdue(ctx, now, limit)
	if err != nil {
		return 0, err
	}

	notified := 0
	for i := range rentals {
		r := &rentals[i]
		daysLate := utils.DaysLate(r.EndDate, now)
		accrued := utils.LatePenalty(r.DailyPrice, daysLate, s.cfg.LatePenaltyMultiplierBps, r.TotalPrice)
		if err := s.store.Rentals().MarkOverdueNotified(ctx, r.ID, now); err != nil {
			logger.Error("Failed to mark overdue notice", "rentalID", r.ID, "error", err)
			continue
		}
		s.publish(ctx, domain.Event{
			Type:     domain.EventRentalOverdue,
			EntityID: r.ID,
			Owner:    r.Owner,
			Renter:   r.Renter,
			Attributes: map[string]string{
				"asset":           r.Asset.String(),
				"end_date":        r.EndDate.Format(time.RFC3339),
				"days_late":       strconv.Itoa(int(daysLate)),
				"accrued_penalty": strconv.FormatInt(accrued, 10),
			},
		})
		notified++
	}
	return notified, nil
}

func (s *rentalService) newSettlement(rentalID string, kind domain.SettlementKind, transfers []domain.Transfer, now time.Time) *domain.Settlement {
	return &domain.Settlement{
		ID:          uuid.NewString(),
		RentalID:    rentalID,
		Kind:        kind,
		OperationID: operationID(rentalID, kind),
		Transfers:   transfers,
		Status:      domain.SettlementStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *rentalService) publish(ctx context.Context, e domain.Event) {
	if s.events == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = s.now()
	}
	s.events.Publish(ctx, e)
}

func (s *rentalService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, statsCacheKey); err != nil {
		logger.Warn("Failed to invalidate stats cache", "error", err)
	}
}

func (s *rentalService) finish(op string, err error) {
	metrics.RecordOperation(op, err)
	if err != nil && domain.KindOf(err) == "" {
		logger.ExitMethodWithError("rentalService."+op, err)
		return
	}
	logger.ExitMethod("rentalService."+op, "error", err)
}
