package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"nftrental-backend/internal/domain"
	"nftrental-backend/internal/events"
	"nftrental-backend/internal/ledger"
	"nftrental-backend/internal/repository/memory"
	"nftrental-backend/internal/service"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	ownerA      = "0x00000000000000000000000000000000000000a1"
	renterB     = "0x00000000000000000000000000000000000000b2"
	renterC     = "0x00000000000000000000000000000000000000c3"
	stranger    = "0x00000000000000000000000000000000000000d4"
	nftContract = "0x00000000000000000000000000000000000000e5"
)

type MockSubmitter struct {
	mock.Mock
}

func (m *MockSubmitter) Submit(ctx context.Context, op ledger.Operation) (ledger.SubmitResult, error) {
	args := m.Called(ctx, op)
	return args.Get(0).(ledger.SubmitResult), args.Error(1)
}

func (m *MockSubmitter) Confirmation(ctx context.Context, ref string) (ledger.ConfirmationStatus, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(ledger.ConfirmationStatus), args.Error(1)
}

type MockAlertService struct {
	mock.Mock
}

func (m *MockAlertService) SendSettlementAlert(ctx context.Context, st *domain.Settlement, reason string) error {
	args := m.Called(ctx, st, reason)
	return args.Error(0)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recorder) handle(ctx context.Context, e domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) ofType(t domain.EventType) []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	store   *memory.Store
	gateway *ledger.MockGateway
	clock   *fakeClock
	events  *recorder
	svc     service.RentalService
}

type option func(*service.RentalServiceDeps)

func newFixture(opts ...option) *fixture {
	f := &fixture{
		store:   memory.NewStore(),
		gateway: ledger.NewMockGateway(),
		clock:   &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)},
		events:  &recorder{},
	}
	bus := events.NewBus()
	bus.Subscribe("recorder", f.events.handle)

	deps := service.RentalServiceDeps{
		Store:     f.store,
		Submitter: ledger.NewSubmitter(f.gateway, ledger.RetryConfig{MaxRetries: 0}),
		Events:    bus,
		Alerts:    service.NewAlertService(service.AlertConfig{}),
		Config: service.RentalConfig{
			FeeBasisPoints:           1000,
			LatePenaltyMultiplierBps: 10000,
			EscrowMode:               domain.EscrowModePrepaid,
		},
		Reputation: service.DefaultReputationPolicy(),
		Now:        f.clock.Now,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	f.svc = service.NewRentalService(deps)
	return f
}

func (f *fixture) listing(t *testing.T, owner string) *domain.Listing {
	t.Helper()
	l, err := f.svc.CreateListing(context.Background(), domain.CreateListingCommand{
		Owner:       owner,
		Asset:       domain.AssetRef{Contract: nftContract, TokenID: "7"},
		PricePerDay: 10,
		MinDays:     1,
		MaxDays:     30,
	})
	require.NoError(t, err)
	return l
}

func (f *fixture) bid(t *testing.T, listingID, renter string, days int32) *domain.Bid {
	t.Helper()
	b, err := f.svc.PlaceBid(context.Background(), domain.PlaceBidCommand{
		ListingID:  listingID,
		Renter:     renter,
		RentalDays: days,
		BidAmount:  int64(days) * 10,
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) rental(t *testing.T, renter string, days int32) *domain.Rental {
	t.Helper()
	l := f.listing(t, ownerA)
	b := f.bid(t, l.ID, renter, days)
	r, err := f.svc.AcceptBid(context.Background(), domain.AcceptBidCommand{Owner: ownerA, BidID: b.ID})
	require.NoError(t, err)
	return r
}
