package handler

import (
	"context"
	"errors"

	"github.com/ogurasousui/istakip/internal/core/finance"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func toStatusError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errInvalidRequest),
		errors.Is(err, finance.ErrInvalidPersonnelID),
		errors.Is(err, finance.ErrInvalidCustomerID),
		errors.Is(err, finance.ErrInvalidJobID),
		errors.Is(err, finance.ErrInvalidMonth),
		errors.Is(err, finance.ErrInvalidDateRange):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, finance.ErrCustomerNotFound), errors.Is(err, finance.ErrJobNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
