package grpc

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"nftrental-backend/internal/api/grpc/interceptor"
	"nftrental-backend/internal/security"
)

// NewServer builds the gRPC server with the rental service, the standard
// health service and reflection registered. The returned health server is
// flipped to NOT_SERVING on shutdown.
func NewServer(handler RentalServiceServer, tm security.TokenManager, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	authInterceptor := interceptor.NewAuthInterceptor(tm)
	opts = append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(interceptor.Logging(), authInterceptor.Unary()),
	}, opts...)

	s := grpc.NewServer(opts...)
	RegisterRentalServiceServer(s, handler)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)

	// Register reflection service for grpcurl
	reflection.Register(s)
	return s, hs
}
