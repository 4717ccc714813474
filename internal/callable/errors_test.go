package callable

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestKind_Mapping(t *testing.T) {
	tests := []struct {
		kind       Kind
		code       codes.Code
		status     string
		httpStatus int
	}{
		{KindUnauthenticated, codes.Unauthenticated, "UNAUTHENTICATED", http.StatusUnauthorized},
		{KindInvalidArgument, codes.InvalidArgument, "INVALID_ARGUMENT", http.StatusBadRequest},
		{KindFailedPrecondition, codes.FailedPrecondition, "FAILED_PRECONDITION", http.StatusBadRequest},
		{KindPermissionDenied, codes.PermissionDenied, "PERMISSION_DENIED", http.StatusForbidden},
		{KindInternal, codes.Internal, "INTERNAL", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.code, tt.kind.Code())
			assert.Equal(t, tt.status, tt.kind.Status())
			assert.Equal(t, tt.httpStatus, tt.kind.HTTPStatus())
			assert.Equal(t, tt.kind, KindFromCode(tt.code))
			assert.Equal(t, tt.kind, KindFromStatus(tt.status))
		})
	}
}

func TestKind_UnknownIsInternal(t *testing.T) {
	assert.Equal(t, KindInternal, KindFromCode(codes.DataLoss))
	assert.Equal(t, KindInternal, KindFromStatus("RESOURCE_EXHAUSTED"))
	assert.Equal(t, http.StatusInternalServerError, Kind("bogus").HTTPStatus())
}

func TestError_GRPCStatus(t *testing.T) {
	err := NewError(KindPermissionDenied, "denied")

	assert.Equal(t, codes.PermissionDenied, status.Code(err))
	assert.Equal(t, "permission-denied: denied", err.Error())
}

func TestClassify(t *testing.T) {
	classified := NewError(KindInvalidArgument, "Text content is required")

	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, Classify(nil))
	})

	t.Run("already classified is unchanged", func(t *testing.T) {
		assert.Same(t, classified, Classify(classified))
	})

	t.Run("wrapped classified is unwrapped", func(t *testing.T) {
		assert.Same(t, classified, Classify(fmt.Errorf("handler: %w", classified)))
	})

	t.Run("grpc status keeps its code", func(t *testing.T) {
		ce := Classify(status.Error(codes.FailedPrecondition, "not configured"))
		assert.Equal(t, KindFailedPrecondition, ce.Kind)
		assert.Equal(t, "not configured", ce.Message)
	})

	t.Run("anything else is internal", func(t *testing.T) {
		ce := Classify(errors.New("connection reset by peer"))
		assert.Equal(t, KindInternal, ce.Kind)
		assert.Equal(t, "connection reset by peer", ce.Message)
	})
}
