package callable

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind classifies a callable failure for caller-facing branching
type Kind string

const (
	KindUnauthenticated    Kind = "unauthenticated"
	KindInvalidArgument    Kind = "invalid-argument"
	KindFailedPrecondition Kind = "failed-precondition"
	KindPermissionDenied   Kind = "permission-denied"
	KindInternal           Kind = "internal"
)

type kindInfo struct {
	code       codes.Code
	status     string
	httpStatus int
}

var kinds = map[Kind]kindInfo{
	KindUnauthenticated:    {codes.Unauthenticated, "UNAUTHENTICATED", http.StatusUnauthorized},
	KindInvalidArgument:    {codes.InvalidArgument, "INVALID_ARGUMENT", http.StatusBadRequest},
	KindFailedPrecondition: {codes.FailedPrecondition, "FAILED_PRECONDITION", http.StatusBadRequest},
	KindPermissionDenied:   {codes.PermissionDenied, "PERMISSION_DENIED", http.StatusForbidden},
	KindInternal:           {codes.Internal, "INTERNAL", http.StatusInternalServerError},
}

func (k Kind) info() kindInfo {
	if info, ok := kinds[k]; ok {
		return info
	}
	return kinds[KindInternal]
}

// Code returns the gRPC code for the kind
func (k Kind) Code() codes.Code { return k.info().code }

// Status returns the wire status string, e.g. INVALID_ARGUMENT
func (k Kind) Status() string { return k.info().status }

// HTTPStatus returns the HTTP status code used on the wire
func (k Kind) HTTPStatus() int { return k.info().httpStatus }

// KindFromCode maps a gRPC code back to a Kind. Unknown codes are internal.
func KindFromCode(c codes.Code) Kind {
	for k, info := range kinds {
		if info.code == c {
			return k
		}
	}
	return KindInternal
}

// KindFromStatus maps a wire status string back to a Kind. Unknown statuses are internal.
func KindFromStatus(s string) Kind {
	for k, info := range kinds {
		if info.status == s {
			return k
		}
	}
	return KindInternal
}

// Error is a classified error returned to callers
type Error struct {
	Kind    Kind
	Message string
}

// NewError creates a classified error
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// GRPCStatus lets status.FromError and status.Code understand classified errors
func (e *Error) GRPCStatus() *status.Status {
	return status.New(e.Kind.Code(), e.Message)
}

// Classify returns err as a classified error. Already classified errors are
// returned unchanged; errors carrying a gRPC status keep their code; anything
// else becomes internal.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}

	if s, ok := status.FromError(err); ok && s.Code() != codes.Unknown {
		return NewError(KindFromCode(s.Code()), s.Message())
	}

	return NewError(KindInternal, err.Error())
}
