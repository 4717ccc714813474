// Package server wires callable operations and service endpoints onto a chi router.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lexiqai/speech-gateway/internal/auth"
	"github.com/lexiqai/speech-gateway/internal/callable"
	"github.com/lexiqai/speech-gateway/internal/observability"
)

// Callable operation names
const (
	FnSynthesizeSpeech      = "synthesizeSpeech"
	FnSynthesizeSpeechAlias = "synthesizeSpeechFn"
	FnProcessTranscript     = "processTranscript"
)

// Options configure the router
type Options struct {
	Verifier       auth.Verifier
	Synthesize     callable.Func
	Transcript     callable.Func
	Readiness      map[string]observability.HealthCheckFunc
	AllowedOrigins []string
	MetricsEnabled bool
}

// NewRouter builds the HTTP handler for the gateway
func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RealIP,
		requestLogger,
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", observability.CorrelationHeader},
			ExposedHeaders: []string{observability.CorrelationHeader},
			MaxAge:         300,
		}),
	)

	synthesize := callable.Handler(FnSynthesizeSpeech, opts.Synthesize, opts.Verifier)
	r.Method(http.MethodPost, "/"+FnSynthesizeSpeech, synthesize)
	r.Method(http.MethodPost, "/"+FnSynthesizeSpeechAlias, synthesize)
	r.Method(http.MethodPost, "/"+FnProcessTranscript, callable.Handler(FnProcessTranscript, opts.Transcript, opts.Verifier))

	r.Get("/health", observability.HealthCheckHandler())
	r.Get("/ready", observability.ReadinessHandler(opts.Readiness))

	if opts.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// requestLogger attaches a correlation-scoped logger to each request and logs its completion
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := r.Header.Get(observability.CorrelationHeader)
		if correlationID == "" {
			correlationID = observability.NewCorrelationID()
		}
		logger := observability.WithCorrelationID(correlationID)
		w.Header().Set(observability.CorrelationHeader, correlationID)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context())))

		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}
