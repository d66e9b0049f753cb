package grpc

import (
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"nftrental-backend/internal/domain"
	"nftrental-backend/internal/logger"
)

const errorDomain = "nftrental"

// toStatus maps an engine error to a gRPC status. Errors that already carry a
// status pass through. Infrastructure errors are logged and hidden behind
// codes.Internal.
func toStatus(method string, err error, attrs map[string]string) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var (
		validation *domain.ValidationError
		pending    *domain.SettlementPendingError
	)
	switch domain.KindOf(err) {
	case domain.ErrorKindValidation:
		st := status.New(codes.InvalidArgument, err.Error())
		if errors.As(err, &validation) {
			st = withDetails(st, &errdetails.BadRequest{
				FieldViolations: []*errdetails.BadRequest_FieldViolation{
					{Field: validation.Field, Description: validation.Reason},
				},
			})
		}
		return st.Err()
	case domain.ErrorKindNotFound:
		return status.Error(codes.NotFound, err.Error())
	case domain.ErrorKindAuthorization:
		return status.Error(codes.PermissionDenied, err.Error())
	case domain.ErrorKindInvalidState:
		return status.Error(codes.FailedPrecondition, err.Error())
	case domain.ErrorKindSettlementPending:
		st := status.New(codes.Unavailable, err.Error())
		if errors.As(err, &pending) {
			md := map[string]string{
				"settlement_id": pending.SettlementID,
				"operation_id":  pending.OperationID,
			}
			for k, v := range attrs {
				md[k] = v
			}
			st = withDetails(st, &errdetails.ErrorInfo{
				Reason:   string(domain.ErrorKindSettlementPending),
				Domain:   errorDomain,
				Metadata: md,
			})
		}
		return st.Err()
	default:
		logger.Error("gRPC call failed", "method", method, "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}

// protoDetail is the method set status.WithDetails requires.
type protoDetail interface {
	ProtoMessage()
	Reset()
	String() string
}

// withDetails attaches detail, keeping the bare status if it cannot be encoded.
func withDetails(st *status.Status, detail protoDetail) *status.Status {
	if ds, err := st.WithDetails(detail); err == nil {
		return ds
	}
	return st
}
