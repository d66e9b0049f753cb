package grpc

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "nftrental.v1.RentalService"

// RentalServiceServer is the server API of nftrental.v1.RentalService.
type RentalServiceServer interface {
	CreateListing(context.Context, *CreateListingRequest) (*CreateListingResponse, error)
	PlaceBid(context.Context, *PlaceBidRequest) (*PlaceBidResponse, error)
	AcceptBid(context.Context, *AcceptBidRequest) (*AcceptBidResponse, error)
	ReturnNFT(context.Context, *ReturnNFTRequest) (*ReturnNFTResponse, error)
	CancelListing(context.Context, *CancelListingRequest) (*CancelListingResponse, error)
	CancelBid(context.Context, *CancelBidRequest) (*CancelBidResponse, error)
	CalculateRentalCost(context.Context, *CalculateRentalCostRequest) (*CalculateRentalCostResponse, error)
	GetListing(context.Context, *GetListingRequest) (*GetListingResponse, error)
	GetRental(context.Context, *GetRentalRequest) (*GetRentalResponse, error)
	GetReputation(context.Context, *GetReputationRequest) (*GetReputationResponse, error)
	GetSettlement(context.Context, *GetSettlementRequest) (*GetSettlementResponse, error)
	RetrySettlement(context.Context, *RetrySettlementRequest) (*RetrySettlementResponse, error)
	GetNotifications(context.Context, *GetNotificationsRequest) (*GetNotificationsResponse, error)
	MarkNotificationRead(context.Context, *MarkNotificationReadRequest) (*MarkNotificationReadResponse, error)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// unary builds the method descriptor for one RPC the way generated code does:
// decode, then run through the interceptor chain.
func unary[Req, Resp any](name string, call func(RentalServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(RentalServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(RentalServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// RentalServiceDesc describes nftrental.v1.RentalService. Messages travel with
// the json codec.
var RentalServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RentalServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateListing", RentalServiceServer.CreateListing),
		unary("PlaceBid", RentalServiceServer.PlaceBid),
		unary("AcceptBid", RentalServiceServer.AcceptBid),
		unary("ReturnNFT", RentalServiceServer.ReturnNFT),
		unary("CancelListing", RentalServiceServer.CancelListing),
		unary("CancelBid", RentalServiceServer.CancelBid),
		unary("CalculateRentalCost", RentalServiceServer.CalculateRentalCost),
		unary("GetListing", RentalServiceServer.GetListing),
		unary("GetRental", RentalServiceServer.GetRental),
		unary("GetReputation", RentalServiceServer.GetReputation),
		unary("GetSettlement", RentalServiceServer.GetSettlement),
		unary("RetrySettlement", RentalServiceServer.RetrySettlement),
		unary("GetNotifications", RentalServiceServer.GetNotifications),
		unary("MarkNotificationRead", RentalServiceServer.MarkNotificationRead),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "nftrental/v1/rental.json",
}

func RegisterRentalServiceServer(s grpc.ServiceRegistrar, srv RentalServiceServer) {
	s.RegisterService(&RentalServiceDesc, srv)
}

// RentalServiceClient calls nftrental.v1.RentalService with the json codec.
type RentalServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewRentalServiceClient(cc grpc.ClientConnInterface) *RentalServiceClient {
	return &RentalServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *RentalServiceClient, name string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, fullMethod(name), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RentalServiceClient) CreateListing(ctx context.Context, in *CreateListingRequest, opts ...grpc.CallOption) (*CreateListingResponse, error) {
	return invoke[CreateListingResponse](ctx, c, "CreateListing", in, opts)
}

func (c *RentalServiceClient) PlaceBid(ctx context.Context, in *PlaceBidRequest, opts ...grpc.CallOption) (*PlaceBidResponse, error) {
	return invoke[PlaceBidResponse](ctx, c, "PlaceBid", in, opts)
}

func (c *RentalServiceClient) AcceptBid(ctx context.Context, in *AcceptBidRequest, opts ...grpc.CallOption) (*AcceptBidResponse, error) {
	return invoke[AcceptBidResponse](ctx, c, "AcceptBid", in, opts)
}

func (c *RentalServiceClient) ReturnNFT(ctx context.Context, in *ReturnNFTRequest, opts ...grpc.CallOption) (*ReturnNFTResponse, error) {
	return invoke[ReturnNFTResponse](ctx, c, "ReturnNFT", in, opts)
}

func (c *RentalServiceClient) CancelListing(ctx context.Context, in *CancelListingRequest, opts ...grpc.CallOption) (*CancelListingResponse, error) {
	return invoke[CancelListingResponse](ctx, c, "CancelListing", in, opts)
}

func (c *RentalServiceClient) CancelBid(ctx context.Context, in *CancelBidRequest, opts ...grpc.CallOption) (*CancelBidResponse, error) {
	return invoke[CancelBidResponse](ctx, c, "CancelBid", in, opts)
}

func (c *RentalServiceClient) CalculateRentalCost(ctx context.Context, in *CalculateRentalCostRequest, opts ...grpc.CallOption) (*CalculateRentalCostResponse, error) {
	return invoke[CalculateRentalCostResponse](ctx, c, "CalculateRentalCost", in, opts)
}

func (c *RentalServiceClient) GetListing(ctx context.Context, in *GetListingRequest, opts ...grpc.CallOption) (*GetListingResponse, error) {
	return invoke[GetListingResponse](ctx, c, "GetListing", in, opts)
}

func (c *RentalServiceClient) GetRental(ctx context.Context, in *GetRentalRequest, opts ...grpc.CallOption) (*GetRentalResponse, error) {
	return invoke[GetRentalResponse](ctx, c, "GetRental", in, opts)
}

func (c *RentalServiceClient) GetReputation(ctx context.Context, in *GetReputationRequest, opts ...grpc.CallOption) (*GetReputationResponse, error) {
	return invoke[GetReputationResponse](ctx, c, "GetReputation", in, opts)
}

func (c *RentalServiceClient) GetSettlement(ctx context.Context, in *GetSettlementRequest, opts ...grpc.CallOption) (*GetSettlementResponse, error) {
	return invoke[GetSettlementResponse](ctx, c, "GetSettlement", in, opts)
}

func (c *RentalServiceClient) RetrySettlement(ctx context.Context, in *RetrySettlementRequest, opts ...grpc.CallOption) (*RetrySettlementResponse, error) {
	return invoke[RetrySettlementResponse](ctx, c, "RetrySettlement", in, opts)
}

func (c *RentalServiceClient) GetNotifications(ctx context.Context, in *GetNotificationsRequest, opts ...grpc.CallOption) (*GetNotificationsResponse, error) {
	return invoke[GetNotificationsResponse](ctx, c, "GetNotifications", in, opts)
}

func (c *RentalServiceClient) MarkNotificationRead(ctx context.Context, in *MarkNotificationReadRequest, opts ...grpc.CallOption) (*MarkNotificationReadResponse, error) {
	return invoke[MarkNotificationReadResponse](ctx, c, "MarkNotificationRead", in, opts)
}
