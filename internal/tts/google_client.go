package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lexiqai/speech-gateway/internal/credentials"
	"github.com/lexiqai/speech-gateway/internal/observability"
)

// Fixed voice and audio settings
const (
	SSMLGender             = "FEMALE"
	AudioEncoding          = "MP3"
	EffectsProfile         = "headphone-class-device"
	StatusPermissionDenied = "PERMISSION_DENIED"
)

// ErrNoAudioContent is returned when a successful response carries no audio
var ErrNoAudioContent = errors.New("no audio content in response")

// APIError is a non-2xx answer from the Text-to-Speech API
type APIError struct {
	StatusCode int
	StatusText string
	Status     string // error.status from the body, e.g. PERMISSION_DENIED
	Message    string // error.message from the body
	Body       string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.StatusText
	}
	return fmt.Sprintf("text-to-speech API returned %d (%s): %s", e.StatusCode, e.Status, msg)
}

// GoogleRequest is the text:synthesize payload
type GoogleRequest struct {
	Input       SynthesisInput `json:"input"`
	Voice       VoiceSelection `json:"voice"`
	AudioConfig AudioConfig    `json:"audioConfig"`
}

type SynthesisInput struct {
	Text string `json:"text"`
}

type VoiceSelection struct {
	LanguageCode string `json:"languageCode"`
	Name         string `json:"name"`
	SSMLGender   string `json:"ssmlGender"`
}

type AudioConfig struct {
	AudioEncoding    string   `json:"audioEncoding"`
	Pitch            float64  `json:"pitch"`
	SpeakingRate     float64  `json:"speakingRate"`
	EffectsProfileID []string `json:"effectsProfileId"`
}

type googleResponse struct {
	AudioContent string `json:"audioContent"`
}

type googleErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// GoogleClient implements TTSClient against the Cloud Text-to-Speech REST API
type GoogleClient struct {
	apiURL     string
	httpClient *http.Client
}

// NewGoogleClient creates a client posting to apiURL
func NewGoogleClient(apiURL string, timeout time.Duration) *GoogleClient {
	return &GoogleClient{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NewGoogleRequest builds the upstream payload for req
func NewGoogleRequest(req SynthesizeRequest) GoogleRequest {
	return GoogleRequest{
		Input: SynthesisInput{Text: req.Text},
		Voice: VoiceSelection{
			LanguageCode: req.LanguageCode,
			Name:         req.VoiceName,
			SSMLGender:   SSMLGender,
		},
		AudioConfig: AudioConfig{
			AudioEncoding:    AudioEncoding,
			Pitch:            req.Pitch,
			SpeakingRate:     req.SpeakingRate,
			EffectsProfileID: []string{EffectsProfile},
		},
	}
}

// Synthesize converts text to base64 MP3 with a single upstream call
func (c *GoogleClient) Synthesize(ctx context.Context, cred credentials.Credential, req SynthesizeRequest) (*SynthesizeResponse, error) {
	logger := observability.FromContext(ctx)

	payload := NewGoogleRequest(req)
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if cred != nil {
		cred.Apply(httpReq)
	}

	logger.Debug().
		Str("url", c.apiURL).
		RawJSON("request", jsonData).
		Msg("Making request to Text-to-Speech API")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		observability.RecordUpstream(observability.UpstreamSpeech, start, false)
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	logger.Info().
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("Text-to-Speech API responded")

	body, err := io.ReadAll(resp.Body)
	observability.RecordUpstream(observability.UpstreamSpeech, start, err == nil && isSuccess(resp.StatusCode))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if !isSuccess(resp.StatusCode) {
		return nil, parseAPIError(resp.StatusCode, body)
	}

	var out googleResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if out.AudioContent == "" {
		return nil, ErrNoAudioContent
	}

	return &SynthesizeResponse{AudioContent: out.AudioContent}, nil
}

func parseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: statusCode,
		StatusText: http.StatusText(statusCode),
		Body:       string(body),
	}

	var parsed googleErrorResponse
	if err := json.Unmarshal(body, &parsed); err == nil {
		apiErr.Status = parsed.Error.Status
		apiErr.Message = parsed.Error.Message
	}
	return apiErr
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
