package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jehnsen/coopledger/internal/domain/model"
)

// toStatus maps a use-case error to a gRPC status. Unclassified errors are
// reported as Internal without their message.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch model.KindOf(err) {
	case model.KindValidation:
		return status.Error(codes.InvalidArgument, err.Error())
	case model.KindState, model.KindEligibility:
		return status.Error(codes.FailedPrecondition, err.Error())
	case model.KindNotFound:
		return status.Error(codes.NotFound, err.Error())
	case model.KindConflict:
		return status.Error(codes.AlreadyExists, err.Error())
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}
	return status.Error(codes.Internal, "internal error")
}
