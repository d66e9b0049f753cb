package grpc

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// WalletMetadataKey is set by the auth interceptor from the token subject.
const WalletMetadataKey = "wallet"

// GetCallerFromContext extracts the caller's wallet address from the gRPC
// metadata. It expects a header named "wallet".
func GetCallerFromContext(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", status.Errorf(codes.Unauthenticated, "metadata is not provided")
	}

	wallets := md.Get(WalletMetadataKey)
	if len(wallets) == 0 || wallets[0] == "" {
		return "", status.Errorf(codes.Unauthenticated, "wallet is not provided in metadata")
	}
	return wallets[0], nil
}
