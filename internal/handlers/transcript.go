package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/lexiqai/speech-gateway/internal/callable"
	"github.com/lexiqai/speech-gateway/internal/credentials"
	"github.com/lexiqai/speech-gateway/internal/gemini"
	"github.com/lexiqai/speech-gateway/internal/observability"
)

const (
	msgNoImage       = "No image data provided"
	msgNoAccessToken = "Failed to get access token"
	msgParseFailed   = "Failed to parse transcript data"
)

// TranscriptRequest is the processTranscript argument
type TranscriptRequest struct {
	Base64Image string `json:"base64Image"`
	Type        string `json:"type"`
}

// TranscriptOptions are the fixed generation parameters for every call
type TranscriptOptions struct {
	Prompt          string
	Temperature     float64
	MaxOutputTokens int
	TopP            float64
}

// GenerativeClient is the upstream used by Transcript
type GenerativeClient interface {
	StreamGenerateContent(ctx context.Context, cred credentials.Credential, req *gemini.GenerateContentRequest) ([]gemini.StreamChunk, error)
}

// Transcript serves processTranscript
type Transcript struct {
	client GenerativeClient
	creds  credentials.Provider
	opts   TranscriptOptions
}

func NewTranscript(client GenerativeClient, creds credentials.Provider, opts TranscriptOptions) *Transcript {
	return &Transcript{client: client, creds: creds, opts: opts}
}

// Call adapts Process to callable.Func
func (t *Transcript) Call(ctx context.Context, req *callable.Request) (any, error) {
	return t.Process(ctx, req)
}

// BuildRequest assembles the upstream request for one image
func (t *Transcript) BuildRequest(data TranscriptRequest) *gemini.GenerateContentRequest {
	return &gemini.GenerateContentRequest{
		Contents: []gemini.Content{{
			Role: "user",
			Parts: []gemini.Part{
				{InlineData: &gemini.InlineData{MimeType: data.Type, Data: data.Base64Image}},
				{Text: t.opts.Prompt},
			},
		}},
		GenerationConfig: gemini.GenerationConfig{
			ResponseModalities: []string{"TEXT"},
			Temperature:        t.opts.Temperature,
			MaxOutputTokens:    t.opts.MaxOutputTokens,
			TopP:               t.opts.TopP,
		},
		SafetySettings: gemini.DisabledSafetySettings,
	}
}

// Process sends the image to the generative model and returns the JSON it answered with
func (t *Transcript) Process(ctx context.Context, req *callable.Request) (any, error) {
	logger := observability.FromContext(ctx)
	logger.Debug().Msg("Starting processTranscript")

	var data TranscriptRequest
	if err := req.Bind(&data); err != nil {
		return nil, err
	}
	if data.Base64Image == "" {
		logger.Error().Msg("No image data provided")
		return nil, callable.NewError(callable.KindInvalidArgument, msgNoImage)
	}
	logger.Info().Int("image_length", len(data.Base64Image)).Str("mime_type", data.Type).Msg("Received image")

	cred, err := t.creds.Credential(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to get access token")
		return nil, callable.NewError(callable.KindInternal, msgNoAccessToken)
	}

	chunks, err := t.client.StreamGenerateContent(ctx, cred, t.BuildRequest(data))
	if err != nil {
		var apiErr *gemini.APIError
		if errors.As(err, &apiErr) {
			logger.Error().
				Int("status_code", apiErr.StatusCode).
				Str("body", apiErr.Body).
				Msg("Gemini API error")
			return nil, callable.NewError(callable.KindInternal, apiErr.Error())
		}
		if errors.Is(err, gemini.ErrUndecodableBody) {
			logger.Error().Err(err).Msg("Error parsing Gemini API response")
			return nil, callable.NewError(callable.KindInternal, msgParseFailed)
		}
		logger.Error().Err(err).Msg("Error processing transcript")
		return nil, callable.Classify(err)
	}

	text := gemini.StripCodeFences(gemini.CombinedText(chunks))
	parsed, err := parseJSON(text)
	if err != nil {
		logger.Error().Err(err).Str("raw", text).Msg("Error parsing Gemini API response")
		return nil, callable.NewError(callable.KindInternal, msgParseFailed)
	}

	logger.Info().Msg("Parsed transcript data")
	return parsed, nil
}

// parseJSON decodes exactly one JSON value, keeping numbers as written
func parseJSON(text string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("failed to unmarshal JSON: trailing data")
	}
	return v, nil
}
