package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lexiqai/speech-gateway/internal/auth"
	"github.com/lexiqai/speech-gateway/internal/config"
	"github.com/lexiqai/speech-gateway/internal/credentials"
	"github.com/lexiqai/speech-gateway/internal/gemini"
	"github.com/lexiqai/speech-gateway/internal/handlers"
	"github.com/lexiqai/speech-gateway/internal/observability"
	"github.com/lexiqai/speech-gateway/internal/secrets"
	"github.com/lexiqai/speech-gateway/internal/server"
	"github.com/lexiqai/speech-gateway/internal/tts"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not initialized yet
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("project_id", cfg.GoogleCloudProjectID).
		Str("gemini_model", cfg.GeminiModel).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Speech Gateway Service starting")

	ctx := context.Background()

	speechCreds := credentials.NewSecretKeyProvider(secrets.EnvStore{}, cfg.SpeechAPIKeySecret)

	var generativeCreds credentials.Provider
	if provider, err := credentials.NewGoogleDefault(ctx); err != nil {
		logger.Warn().Err(err).Msg("Application default credentials unavailable, processTranscript will fail")
		generativeCreds = credentials.Unavailable{Reason: err}
	} else {
		generativeCreds = provider
	}

	if cfg.GoogleCloudProjectID == "" {
		logger.Warn().Msg("No Google Cloud project configured, processTranscript will fail")
	}

	speech := handlers.NewSpeech(
		tts.NewGoogleClient(cfg.TTSAPIURL, cfg.TTSTimeoutDuration()),
		speechCreds,
	)
	transcript := handlers.NewTranscript(
		gemini.NewClient(cfg.GeminiURL(), cfg.GeminiTimeoutDuration()),
		generativeCreds,
		handlers.TranscriptOptions{
			Prompt:          cfg.TranscriptPrompt,
			Temperature:     cfg.TranscriptTemperature,
			MaxOutputTokens: cfg.TranscriptMaxOutputTokens,
			TopP:            cfg.TranscriptTopP,
		},
	)

	// Readiness only checks that credentials resolve; no billable upstream calls
	readiness := map[string]observability.HealthCheckFunc{
		"speech-credential":     credentialCheck(speechCreds),
		"generative-credential": credentialCheck(generativeCreds),
	}

	router := server.NewRouter(server.Options{
		Verifier:       auth.NewHMACVerifier(cfg.AuthSecret),
		Synthesize:     speech.Call,
		Transcript:     transcript.Call,
		Readiness:      readiness,
		AllowedOrigins: cfg.AllowedOrigins(),
		MetricsEnabled: cfg.MetricsEnabled,
	})
	if cfg.MetricsEnabled {
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	// Write timeout must outlast the slowest upstream
	writeTimeout := max(cfg.TTSTimeoutDuration(), cfg.GeminiTimeoutDuration()) + 5*time.Second

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Strs("functions", []string{server.FnSynthesizeSpeech, server.FnSynthesizeSpeechAlias, server.FnProcessTranscript}).
			Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}

func credentialCheck(p credentials.Provider) observability.HealthCheckFunc {
	return func(ctx context.Context) (bool, error) {
		if _, err := p.Credential(ctx); err != nil {
			return false, err
		}
		return true, nil
	}
}
