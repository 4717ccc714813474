// Package gemini calls the Vertex AI streamGenerateContent endpoint.
//
// The streamed body is awaited in full and decoded as a JSON array of
// chunks; there is no incremental processing.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lexiqai/speech-gateway/internal/credentials"
	"github.com/lexiqai/speech-gateway/internal/observability"
)

// ErrUndecodableBody is returned when a 2xx body is not a JSON array of chunks
var ErrUndecodableBody = errors.New("response body is not a chunk array")

// APIError is a non-2xx answer from the generative endpoint
type APIError struct {
	StatusCode int
	StatusText string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Gemini API error: %s. Details: %s", e.StatusText, e.Body)
}

// Client posts to a single model endpoint
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a client for the model endpoint url
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// StreamGenerateContent performs one upstream call and returns every chunk
func (c *Client) StreamGenerateContent(ctx context.Context, cred credentials.Credential, req *GenerateContentRequest) ([]StreamChunk, error) {
	logger := observability.FromContext(ctx)

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if cred != nil {
		cred.Apply(httpReq)
	}

	logger.Debug().Str("url", c.url).Int("request_bytes", len(jsonData)).Msg("Making request to Gemini API")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		observability.RecordUpstream(observability.UpstreamGenerative, start, false)
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	ok := err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300
	observability.RecordUpstream(observability.UpstreamGenerative, start, ok)

	logger.Info().
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("Gemini API responded")

	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if !ok {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Body:       string(body),
		}
	}

	var chunks []StreamChunk
	if err := json.Unmarshal(body, &chunks); err != nil {
		logger.Error().Err(err).Str("body", string(body)).Msg("Undecodable Gemini API response")
		return nil, fmt.Errorf("failed to decode response: %w: %w", ErrUndecodableBody, err)
	}
	return chunks, nil
}

// CombinedText joins the first part of the first candidate of every chunk.
// Chunks without text contribute nothing.
func CombinedText(chunks []StreamChunk) string {
	var sb strings.Builder
	for _, chunk := range chunks {
		if len(chunk.Candidates) == 0 || len(chunk.Candidates[0].Content.Parts) == 0 {
			continue
		}
		sb.WriteString(chunk.Candidates[0].Content.Parts[0].Text)
	}
	return sb.String()
}

var fenceReplacer = strings.NewReplacer("```json", "", "```", "")

// StripCodeFences removes markdown code fence markers
func StripCodeFences(s string) string {
	return fenceReplacer.Replace(s)
}
