// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	"github.com/oggyb/match-engine/internal/auth"
	"github.com/oggyb/match-engine/internal/engine"
	"github.com/oggyb/match-engine/internal/utils/pagination"
)

const (
	msgUnavailable = "temporarily unavailable, please try again"
	msgInternal    = "internal error"
)

// Map converts engine/repo/infra errors into gRPC-friendly status errors.
// Keeps service layer clean by centralizing error mapping. Storage and
// internal failures never expose their cause to the caller.
func Map(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, engine.ErrUserNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return status.Error(codes.NotFound, "user not found")

	case errors.Is(err, pagination.ErrInvalidToken):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, "invalid or missing credentials")

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")

	case errors.Is(err, engine.ErrInvariantViolation):
		return status.Error(codes.Internal, msgInternal)

	case errors.Is(err, engine.ErrStorage):
		return status.Error(codes.Unavailable, msgUnavailable)

	default:
		return status.Error(codes.Internal, msgInternal)
	}
}

// InvalidArgument creates a gRPC InvalidArgument error.
// Use this in service layer for bad input validation.
func InvalidArgument(msg string) error {
	return status.Error(codes.InvalidArgument, msg)
}

// PermissionDenied is returned when the caller acts for another user.
func PermissionDenied(msg string) error {
	return status.Error(codes.PermissionDenied, msg)
}

// Unauthenticated is returned when credentials are required but missing.
func Unauthenticated(msg string) error {
	return status.Error(codes.Unauthenticated, msg)
}
