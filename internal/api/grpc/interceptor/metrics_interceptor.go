package interceptor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"nftrental-backend/internal/logger"
	"nftrental-backend/internal/metrics"
)

const requestIDKey = "x-request-id"

// Logging tags each call with a request id (the client's x-request-id when
// present), counts it by status code and logs its outcome.
func Logging() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		requestID := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if ids := md.Get(requestIDKey); len(ids) > 0 {
				requestID = ids[0]
			}
		}
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = logger.WithRequestID(ctx, requestID)

		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		metrics.RecordGRPC(info.FullMethod, code.String())
		if err != nil {
			logger.WarnContext(ctx, "gRPC call failed", "method", info.FullMethod, "code", code.String(), "error", err, "duration", time.Since(start))
		} else {
			logger.InfoContext(ctx, "gRPC call", "method", info.FullMethod, "duration", time.Since(start))
		}
		return resp, err
	}
}
