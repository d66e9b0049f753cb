package grpc_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	api "nftrental-backend/internal/api/grpc"
	"nftrental-backend/internal/domain"
	"nftrental-backend/internal/events"
	"nftrental-backend/internal/ledger"
	"nftrental-backend/internal/notify"
	"nftrental-backend/internal/repository/memory"
	"nftrental-backend/internal/security"
	"nftrental-backend/internal/service"
)

const (
	owner       = "0x00000000000000000000000000000000000000a1"
	renter      = "0x00000000000000000000000000000000000000b2"
	stranger    = "0x00000000000000000000000000000000000000d4"
	nftContract = "0x00000000000000000000000000000000000000e5"
	testSecret  = "0123456789abcdef0123456789abcdef"
)

type testEnv struct {
	client  *api.RentalServiceClient
	conn    *grpc.ClientConn
	gateway *ledger.MockGateway
	tokens  security.TokenManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	gateway := ledger.NewMockGateway()
	bus := events.NewBus()
	notify.NewNotifier(store.Notifications()).Register(bus)

	policy := service.DefaultReputationPolicy()
	rentalSvc := service.NewRentalService(service.RentalServiceDeps{
		Store:     store,
		Submitter: ledger.NewSubmitter(gateway, ledger.RetryConfig{MaxRetries: 0}),
		Events:    bus,
		Alerts:    service.NewAlertService(service.AlertConfig{}),
		Config: service.RentalConfig{
			FeeBasisPoints:           1000,
			LatePenaltyMultiplierBps: 10000,
			EscrowMode:               domain.EscrowModePrepaid,
		},
		Reputation: policy,
	})
	handler := api.NewRentalHandler(
		rentalSvc,
		service.NewQueryService(store, nil, nil),
		service.NewReputationService(store.Reputations(), policy),
		service.NewNotificationService(store.Notifications()),
	)

	tokens := security.NewTokenManager(testSecret, "nftrental", time.Hour)
	srv, _ := api.NewServer(handler, tokens)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &testEnv{
		client:  api.NewRentalServiceClient(conn),
		conn:    conn,
		gateway: gateway,
		tokens:  tokens,
	}
}

func (e *testEnv) as(t *testing.T, wallet string) context.Context {
	t.Helper()
	token, err := e.tokens.GenerateAccessToken(wallet)
	require.NoError(t, err)
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+token)
}

func (e *testEnv) listing(t *testing.T) *domain.Listing {
	t.Helper()
	resp, err := e.client.CreateListing(e.as(t, owner), &api.CreateListingRequest{
		Asset:       domain.AssetRef{Contract: nftContract, TokenID: "7"},
		PricePerDay: 10,
		MinDays:     1,
		MaxDays:     30,
	})
	require.NoError(t, err)
	return resp.Listing
}

func (e *testEnv) bid(t *testing.T, listingID string, days int32) *domain.Bid {
	t.Helper()
	resp, err := e.client.PlaceBid(e.as(t, renter), &api.PlaceBidRequest{
		ListingID:  listingID,
		RentalDays: days,
		BidAmount:  int64(days) * 10,
	})
	require.NoError(t, err)
	return resp.Bid
}

func TestRentalService_Lifecycle(t *testing.T) {
	env := newTestEnv(t)

	l := env.listing(t)
	assert.Equal(t, owner, l.Owner)
	assert.Equal(t, domain.ListingStatusActive, l.Status)

	b := env.bid(t, l.ID, 5)
	assert.Equal(t, renter, b.Renter)

	accepted, err := env.client.AcceptBid(env.as(t, owner), &api.AcceptBidRequest{BidID: b.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(50), accepted.Rental.TotalPrice)
	assert.Equal(t, int64(5), accepted.Rental.PlatformFee)

	returned, err := env.client.ReturnNFT(env.as(t, renter), &api.ReturnNFTRequest{RentalID: accepted.Rental.ID})
	require.NoError(t, err)
	assert.True(t, returned.Result.OnTime)
	assert.Equal(t, int64(1), returned.Result.ReputationScore)

	got, err := env.client.GetRental(context.Background(), &api.GetRentalRequest{ID: accepted.Rental.ID})
	require.NoError(t, err)
	assert.True(t, got.Rental.Returned)
	require.Len(t, got.Settlements, 2)

	rep, err := env.client.GetReputation(context.Background(), &api.GetReputationRequest{Identity: renter})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rep.Reputation.Score)

	inbox, err := env.client.GetNotifications(env.as(t, owner), &api.GetNotificationsRequest{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.NotEmpty(t, inbox.Notifications)
	assert.Equal(t, int32(len(inbox.Notifications)), inbox.TotalCount)

	read, err := env.client.MarkNotificationRead(env.as(t, owner), &api.MarkNotificationReadRequest{
		NotificationID: inbox.Notifications[0].ID,
	})
	require.NoError(t, err)
	assert.True(t, read.Success)
}

func TestRentalService_Auth(t *testing.T) {
	env := newTestEnv(t)

	t.Run("Missing token", func(t *testing.T) {
		_, err := env.client.CreateListing(context.Background(), &api.CreateListingRequest{})
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("Bad token", func(t *testing.T) {
		ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer nope")
		_, err := env.client.CreateListing(ctx, &api.CreateListingRequest{})
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("Public method without token", func(t *testing.T) {
		resp, err := env.client.CalculateRentalCost(context.Background(), &api.CalculateRentalCostRequest{
			DailyPrice: 100,
			RentalDays: 3,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(300), resp.Cost.BasePrice)
		assert.Equal(t, int64(30), resp.Cost.PlatformFee)
		assert.Equal(t, int64(270), resp.Cost.OwnerEarnings)
	})

	t.Run("Client wallet header is ignored", func(t *testing.T) {
		l := env.listing(t)
		b := env.bid(t, l.ID, 2)

		ctx := metadata.AppendToOutgoingContext(env.as(t, stranger), "wallet", owner)
		_, err := env.client.AcceptBid(ctx, &api.AcceptBidRequest{BidID: b.ID})
		assert.Equal(t, codes.PermissionDenied, status.Code(err))
	})
}

func TestRentalService_ErrorMapping(t *testing.T) {
	env := newTestEnv(t)

	t.Run("Validation", func(t *testing.T) {
		_, err := env.client.CreateListing(env.as(t, owner), &api.CreateListingRequest{
			Asset:       domain.AssetRef{Contract: nftContract, TokenID: "7"},
			PricePerDay: 0,
			MinDays:     1,
			MaxDays:     3,
		})
		st := status.Convert(err)
		assert.Equal(t, codes.InvalidArgument, st.Code())

		var field string
		for _, d := range st.Details() {
			if br, ok := d.(*errdetails.BadRequest); ok && len(br.FieldViolations) > 0 {
				field = br.FieldViolations[0].Field
			}
		}
		assert.Equal(t, "price_per_day", field)
	})

	t.Run("Not found", func(t *testing.T) {
		_, err := env.client.GetListing(context.Background(), &api.GetListingRequest{ID: "missing"})
		assert.Equal(t, codes.NotFound, status.Code(err))
	})

	t.Run("Invalid state", func(t *testing.T) {
		l := env.listing(t)
		b := env.bid(t, l.ID, 2)
		accepted, err := env.client.AcceptBid(env.as(t, owner), &api.AcceptBidRequest{BidID: b.ID})
		require.NoError(t, err)

		_, err = env.client.ReturnNFT(env.as(t, renter), &api.ReturnNFTRequest{RentalID: accepted.Rental.ID})
		require.NoError(t, err)
		_, err = env.client.ReturnNFT(env.as(t, renter), &api.ReturnNFTRequest{RentalID: accepted.Rental.ID})
		assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	})

	t.Run("Settlement pending", func(t *testing.T) {
		l := env.listing(t)
		b := env.bid(t, l.ID, 2)
		env.gateway.FailSubmits = 1

		_, err := env.client.AcceptBid(env.as(t, owner), &api.AcceptBidRequest{BidID: b.ID})
		st := status.Convert(err)
		require.Equal(t, codes.Unavailable, st.Code())

		var info *errdetails.ErrorInfo
		for _, d := range st.Details() {
			if ei, ok := d.(*errdetails.ErrorInfo); ok {
				info = ei
			}
		}
		require.NotNil(t, info)
		assert.Equal(t, string(domain.ErrorKindSettlementPending), info.Reason)
		assert.NotEmpty(t, info.Metadata["rental_id"])
		settlementID := info.Metadata["settlement_id"]
		require.NotEmpty(t, settlementID)

		retried, err := env.client.RetrySettlement(env.as(t, renter), &api.RetrySettlementRequest{SettlementID: settlementID})
		require.NoError(t, err)
		assert.Equal(t, domain.SettlementStatusSubmitted, retried.Settlement.Status)

		got, err := env.client.GetSettlement(env.as(t, owner), &api.GetSettlementRequest{ID: settlementID})
		require.NoError(t, err)
		assert.Equal(t, domain.SettlementKindEscrow, got.Settlement.Kind)

		_, err = env.client.GetSettlement(context.Background(), &api.GetSettlementRequest{ID: settlementID})
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
		_, err = env.client.GetSettlement(env.as(t, stranger), &api.GetSettlementRequest{ID: settlementID})
		assert.Equal(t, codes.PermissionDenied, status.Code(err))
	})
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	resp, err := healthpb.NewHealthClient(env.conn).Check(context.Background(), &healthpb.HealthCheckRequest{
		Service: api.ServiceName,
	})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}
