// Package handlers implements the callable operations exposed by the gateway.
package handlers

import (
	"context"
	"errors"

	"github.com/lexiqai/speech-gateway/internal/callable"
	"github.com/lexiqai/speech-gateway/internal/credentials"
	"github.com/lexiqai/speech-gateway/internal/observability"
	"github.com/lexiqai/speech-gateway/internal/tts"
)

// Synthesis defaults
const (
	DefaultLanguageCode = "en-GB"
	DefaultVoiceName    = "en-GB-Journey-F"
	DefaultSpeakingRate = 1.0
	DefaultPitch        = 0.0

	// SpeechFileName is the download name reported for every result
	SpeechFileName = "speech.mp3"
)

// Caller-facing messages
const (
	msgUnauthenticated  = "User must be authenticated"
	msgTextRequired     = "Text content is required"
	msgAPIKeyMissing    = "Google Cloud API key not configured"
	msgPermissionDenied = "API access denied. Please ensure the Cloud Text-to-Speech API is enabled and the API key has proper permissions."
	msgNoAudio          = "No audio content received from TTS API"
)

// SpeechSynthesisRequest is the synthesizeSpeech argument. Numeric fields are
// pointers so an explicit zero is kept and only absence takes the default.
type SpeechSynthesisRequest struct {
	Text         string   `json:"text"`
	LanguageCode string   `json:"languageCode,omitempty"`
	VoiceName    string   `json:"voiceName,omitempty"`
	SpeakingRate *float64 `json:"speakingRate,omitempty"`
	Pitch        *float64 `json:"pitch,omitempty"`
}

// SpeechSynthesisResult is the synthesizeSpeech result
type SpeechSynthesisResult struct {
	Success      bool   `json:"success"`
	AudioContent string `json:"audioContent"`
	FileName     string `json:"fileName"`
}

// DataURL wraps the audio payload for direct playback
func (r *SpeechSynthesisResult) DataURL() string {
	return "data:audio/mp3;base64," + r.AudioContent
}

// Speech serves synthesizeSpeech
type Speech struct {
	client tts.TTSClient
	creds  credentials.Provider
}

func NewSpeech(client tts.TTSClient, creds credentials.Provider) *Speech {
	return &Speech{client: client, creds: creds}
}

// Effective applies defaults to the optional fields
func (r SpeechSynthesisRequest) Effective() tts.SynthesizeRequest {
	out := tts.SynthesizeRequest{
		Text:         r.Text,
		LanguageCode: r.LanguageCode,
		VoiceName:    r.VoiceName,
		SpeakingRate: DefaultSpeakingRate,
		Pitch:        DefaultPitch,
	}
	if out.LanguageCode == "" {
		out.LanguageCode = DefaultLanguageCode
	}
	if out.VoiceName == "" {
		out.VoiceName = DefaultVoiceName
	}
	if r.SpeakingRate != nil {
		out.SpeakingRate = *r.SpeakingRate
	}
	if r.Pitch != nil {
		out.Pitch = *r.Pitch
	}
	return out
}

// Call adapts Synthesize to callable.Func
func (s *Speech) Call(ctx context.Context, req *callable.Request) (any, error) {
	return s.Synthesize(ctx, req)
}

// Synthesize authenticates, validates, and forwards one synthesis request
func (s *Speech) Synthesize(ctx context.Context, req *callable.Request) (*SpeechSynthesisResult, error) {
	logger := observability.FromContext(ctx)

	if req.Auth == nil {
		logger.Error().Msg("Unauthorized: User must be authenticated")
		return nil, callable.NewError(callable.KindUnauthenticated, msgUnauthenticated)
	}

	var data SpeechSynthesisRequest
	if err := req.Bind(&data); err != nil {
		return nil, err
	}
	if data.Text == "" {
		logger.Error().Msg("No text content provided")
		return nil, callable.NewError(callable.KindInvalidArgument, msgTextRequired)
	}

	effective := data.Effective()

	cred, err := s.creds.Credential(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Google Cloud API key not configured")
		return nil, callable.NewError(callable.KindFailedPrecondition, msgAPIKeyMissing)
	}

	logger.Info().
		Int("text_length", len(effective.Text)).
		Str("language_code", effective.LanguageCode).
		Str("voice_name", effective.VoiceName).
		Float64("speaking_rate", effective.SpeakingRate).
		Float64("pitch", effective.Pitch).
		Msg("Synthesizing speech")

	resp, err := s.client.Synthesize(ctx, cred, effective)
	if err != nil {
		return nil, classifySpeechError(ctx, err)
	}

	logger.Info().Int("audio_length", len(resp.AudioContent)).Msg("Successfully generated audio")

	return &SpeechSynthesisResult{
		Success:      true,
		AudioContent: resp.AudioContent,
		FileName:     SpeechFileName,
	}, nil
}

func classifySpeechError(ctx context.Context, err error) error {
	logger := observability.FromContext(ctx)

	var apiErr *tts.APIError
	switch {
	case errors.As(err, &apiErr):
		logger.Error().
			Int("status_code", apiErr.StatusCode).
			Str("status", apiErr.Status).
			Str("body", apiErr.Body).
			Msg("Text-to-Speech API error")
		if apiErr.Status == tts.StatusPermissionDenied {
			return callable.NewError(callable.KindPermissionDenied, msgPermissionDenied)
		}
		msg := apiErr.Message
		if msg == "" {
			msg = apiErr.StatusText
		}
		if msg == "" {
			msg = "Unknown error"
		}
		return callable.NewError(callable.KindInternal, "Failed to synthesize speech: "+msg)

	case errors.Is(err, tts.ErrNoAudioContent):
		logger.Error().Msg("No audio content in response")
		return callable.NewError(callable.KindInternal, msgNoAudio)

	default:
		logger.Error().Err(err).Msg("Error in synthesizeSpeech")
		return callable.Classify(err)
	}
}
