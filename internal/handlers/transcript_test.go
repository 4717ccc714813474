package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/lexiqai/speech-gateway/internal/callable"
	"github.com/lexiqai/speech-gateway/internal/credentials"
	"github.com/lexiqai/speech-gateway/internal/gemini"
)

type fakeGenerative struct {
	calls   int
	gotCred credentials.Credential
	gotReq  *gemini.GenerateContentRequest
	chunks  []gemini.StreamChunk
	err     error
}

func (f *fakeGenerative) StreamGenerateContent(ctx context.Context, cred credentials.Credential, req *gemini.GenerateContentRequest) ([]gemini.StreamChunk, error) {
	f.calls++
	f.gotCred = cred
	f.gotReq = req
	return f.chunks, f.err
}

func chunks(texts ...string) []gemini.StreamChunk {
	out := make([]gemini.StreamChunk, 0, len(texts))
	for _, text := range texts {
		out = append(out, gemini.StreamChunk{Candidates: []gemini.Candidate{{
			Content: gemini.Content{Parts: []gemini.Part{{Text: text}}},
		}}})
	}
	return out
}

func tokenProvider() credentials.Provider {
	return credentials.NewTokenSourceProvider(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "ya29.test"}))
}

var testOptions = TranscriptOptions{
	Prompt:          "Transcribe this image as JSON.",
	Temperature:     1.0,
	MaxOutputTokens: 8192,
	TopP:            0.95,
}

func imageRequest() *callable.Request {
	return &callable.Request{Data: json.RawMessage(`{"base64Image":"iVBORw0KGgo=","type":"image/png"}`)}
}

func TestProcess_Success(t *testing.T) {
	client := &fakeGenerative{chunks: chunks("```json\n{\"subjects\": [", "\"Maths\", \"Physics\"], \"score\": 12.50}", "\n```")}
	h := NewTranscript(client, tokenProvider(), testOptions)

	out, err := h.Process(context.Background(), imageRequest())
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"subjects": []any{"Maths", "Physics"},
		"score":    json.Number("12.50"),
	}, out)
	assert.Equal(t, credentials.BearerToken("ya29.test"), client.gotCred)
	assert.Equal(t, 1, client.calls)
}

func TestProcess_BuildsRequest(t *testing.T) {
	client := &fakeGenerative{chunks: chunks("{}")}
	h := NewTranscript(client, tokenProvider(), testOptions)

	_, err := h.Process(context.Background(), imageRequest())
	require.NoError(t, err)

	req := client.gotReq
	require.Len(t, req.Contents, 1)
	assert.Equal(t, "user", req.Contents[0].Role)
	require.Len(t, req.Contents[0].Parts, 2)
	assert.Equal(t, &gemini.InlineData{MimeType: "image/png", Data: "iVBORw0KGgo="}, req.Contents[0].Parts[0].InlineData)
	assert.Equal(t, "Transcribe this image as JSON.", req.Contents[0].Parts[1].Text)
	assert.Equal(t, gemini.GenerationConfig{
		ResponseModalities: []string{"TEXT"},
		Temperature:        1.0,
		MaxOutputTokens:    8192,
		TopP:               0.95,
	}, req.GenerationConfig)
	assert.Len(t, req.SafetySettings, 4)
	for _, s := range req.SafetySettings {
		assert.Equal(t, "OFF", s.Threshold)
	}
}

func TestProcess_MissingImage(t *testing.T) {
	client := &fakeGenerative{}
	h := NewTranscript(client, tokenProvider(), testOptions)

	for _, data := range []string{`{}`, `{"type":"image/png"}`, `{"base64Image":""}`, `null`} {
		_, err := h.Process(context.Background(), &callable.Request{Data: json.RawMessage(data)})
		ce := requireKind(t, err, callable.KindInvalidArgument)
		assert.Equal(t, "No image data provided", ce.Message)
	}
	assert.Zero(t, client.calls)
}

func TestProcess_NoToken(t *testing.T) {
	client := &fakeGenerative{}
	h := NewTranscript(client, credentials.Unavailable{Reason: errors.New("no ADC")}, testOptions)

	_, err := h.Process(context.Background(), imageRequest())
	ce := requireKind(t, err, callable.KindInternal)
	assert.Equal(t, "Failed to get access token", ce.Message)
	assert.Zero(t, client.calls)
}

func TestProcess_UpstreamError(t *testing.T) {
	client := &fakeGenerative{err: &gemini.APIError{StatusCode: 400, StatusText: "Bad Request", Body: `{"error":"bad image"}`}}
	h := NewTranscript(client, tokenProvider(), testOptions)

	_, err := h.Process(context.Background(), imageRequest())
	ce := requireKind(t, err, callable.KindInternal)
	assert.Equal(t, `Gemini API error: Bad Request. Details: {"error":"bad image"}`, ce.Message)
}

func TestProcess_TransportError(t *testing.T) {
	client := &fakeGenerative{err: errors.New("failed to make request: i/o timeout")}
	h := NewTranscript(client, tokenProvider(), testOptions)

	_, err := h.Process(context.Background(), imageRequest())
	ce := requireKind(t, err, callable.KindInternal)
	assert.Equal(t, "failed to make request: i/o timeout", ce.Message)
}

func TestProcess_ParseFailure(t *testing.T) {
	tests := map[string][]gemini.StreamChunk{
		"not json":      chunks("Here is your transcript: Maths, Physics"),
		"truncated":     chunks("```json\n{\"subjects\": [\"Maths\""),
		"empty":         nil,
		"trailing data": chunks(`{"a":1} {"b":2}`),
		"no candidates": {{}},
	}

	for name, upstream := range tests {
		t.Run(name, func(t *testing.T) {
			h := NewTranscript(&fakeGenerative{chunks: upstream}, tokenProvider(), testOptions)

			out, err := h.Process(context.Background(), imageRequest())
			assert.Nil(t, out)
			ce := requireKind(t, err, callable.KindInternal)
			assert.Equal(t, "Failed to parse transcript data", ce.Message)
		})
	}
}

func TestProcess_ObjectBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"a\":1}"}]}}]}`))
	}))
	defer srv.Close()

	h := NewTranscript(gemini.NewClient(srv.URL, 5*time.Second), tokenProvider(), testOptions)

	out, err := h.Process(context.Background(), imageRequest())
	assert.Nil(t, out)
	ce := requireKind(t, err, callable.KindInternal)
	assert.Equal(t, "Failed to parse transcript data", ce.Message)
	assert.NotContains(t, ce.Message, "StreamChunk")
}

func TestProcess_ArrayResult(t *testing.T) {
	h := NewTranscript(&fakeGenerative{chunks: chunks("[1, ", "2]")}, tokenProvider(), testOptions)

	out, err := h.Call(context.Background(), imageRequest())
	require.NoError(t, err)
	assert.Equal(t, []any{json.Number("1"), json.Number("2")}, out)
}
