package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var grpcCodes = map[error]codes.Code{
	ErrNotFound:           codes.NotFound,
	ErrInvalidArgument:    codes.InvalidArgument,
	ErrConflict:           codes.AlreadyExists,
	ErrStorageUnavailable: codes.Unavailable,
	ErrUnauthenticated:    codes.Unauthenticated,
}

var httpStatuses = map[error]int{
	ErrNotFound:           http.StatusNotFound,
	ErrInvalidArgument:    http.StatusBadRequest,
	ErrConflict:           http.StatusConflict,
	ErrStorageUnavailable: http.StatusServiceUnavailable,
	ErrUnauthenticated:    http.StatusUnauthorized,
}

// MapToGRPCError converts a domain failure into a gRPC status carrying the public message.
func MapToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok && Kind(err) == nil {
		return err
	}
	code, ok := grpcCodes[Kind(err)]
	if !ok {
		code = codes.Internal
	}
	return status.Error(code, Public(err))
}

// FromGRPCError restores the kind of a status produced by MapToGRPCError.
func FromGRPCError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	for kind, code := range grpcCodes {
		if st.Code() == code {
			return newError(kind, st.Message())
		}
	}
	return err
}

// HTTPStatus returns the response status for err.
func HTTPStatus(err error) int {
	if s, ok := httpStatuses[Kind(err)]; ok {
		return s
	}
	return http.StatusInternalServerError
}
