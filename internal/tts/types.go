package tts

import (
	"context"

	"github.com/lexiqai/speech-gateway/internal/credentials"
)

// SynthesizeRequest carries the effective, already defaulted synthesis parameters
type SynthesizeRequest struct {
	Text         string
	LanguageCode string
	VoiceName    string
	SpeakingRate float64
	Pitch        float64
}

// SynthesizeResponse holds the upstream audio payload
type SynthesizeResponse struct {
	AudioContent string // Base64 MP3, exactly as the upstream returned it
}

// TTSClient defines the interface for a Text-to-Speech client
type TTSClient interface {
	// Synthesize performs one upstream call authorized by cred
	Synthesize(ctx context.Context, cred credentials.Credential, req SynthesizeRequest) (*SynthesizeResponse, error)
}
