// Package callable implements the callable-function wire protocol.
//
// A call is POST /<name> with body {"data": ...} and an optional
// "Authorization: Bearer <token>" header. Success answers 200 with
// {"result": ...}; failure answers the kind's HTTP status with
// {"error": {"status": "INVALID_ARGUMENT", "message": "..."}}.
package callable

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/lexiqai/speech-gateway/internal/auth"
	"github.com/lexiqai/speech-gateway/internal/observability"
)

// maxBodyBytes bounds the request envelope. Inline images are base64 in the body.
const maxBodyBytes = 32 << 20

// Request is one callable invocation
type Request struct {
	// Data is the raw "data" member of the envelope. It is "null" when the
	// caller sent null.
	Data json.RawMessage

	// Auth is nil when the caller is unauthenticated
	Auth *auth.Identity
}

// Bind decodes Data into v. A null payload leaves v untouched.
func (r *Request) Bind(v any) error {
	if len(r.Data) == 0 || bytes.Equal(r.Data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return NewError(KindInvalidArgument, "Bad Request: "+err.Error())
	}
	return nil
}

// Func is the body of a callable operation
type Func func(ctx context.Context, req *Request) (any, error)

type envelope struct {
	Data json.RawMessage `json:"data"`
}

type resultEnvelope struct {
	Result any `json:"result"`
}

type errorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// Handler serves fn under the callable protocol. A bearer token, when present,
// must verify; an absent token yields an unauthenticated Request.
func Handler(name string, fn Func, verifier auth.Verifier) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics := observability.NewCallMetrics(name)
		logger := observability.FromContext(r.Context()).With().Str("function", name).Logger()
		ctx := logger.WithContext(r.Context())

		result, err := serve(ctx, w, r, fn, verifier)
		if err != nil {
			ce := Classify(err)
			logger.Error().
				Str("kind", string(ce.Kind)).
				Str("message", ce.Message).
				Msg("Callable failed")
			metrics.RecordEnd(string(ce.Kind))
			writeJSON(w, ce.Kind.HTTPStatus(), errorEnvelope{Error: errorBody{
				Status:  ce.Kind.Status(),
				Message: ce.Message,
			}})
			return
		}

		logger.Info().Msg("Callable succeeded")
		metrics.RecordEnd("ok")
		writeJSON(w, http.StatusOK, resultEnvelope{Result: result})
	})
}

func serve(ctx context.Context, w http.ResponseWriter, r *http.Request, fn Func, verifier auth.Verifier) (any, error) {
	if r.Method != http.MethodPost {
		return nil, NewError(KindInvalidArgument, "Request method must be POST")
	}

	req := &Request{}

	if token, ok := auth.BearerToken(r.Header.Get("Authorization")); ok {
		if verifier == nil {
			return nil, NewError(KindUnauthenticated, "Unauthenticated")
		}
		id, err := verifier.Verify(ctx, token)
		if err != nil {
			observability.FromContext(ctx).Warn().Err(err).Msg("Rejected caller token")
			return nil, NewError(KindUnauthenticated, "Unauthenticated")
		}
		req.Auth = id
	}

	var env envelope
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&env); err != nil || len(env.Data) == 0 {
		return nil, NewError(KindInvalidArgument, "Bad Request")
	}
	req.Data = env.Data

	if req.Auth != nil {
		observability.FromContext(ctx).Debug().Str("uid", req.Auth.UID).Msg("Authenticated caller")
	}

	return fn(ctx, req)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
