package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lexiqai/speech-gateway/internal/callable"
	"github.com/lexiqai/speech-gateway/internal/config"
	"github.com/lexiqai/speech-gateway/internal/handlers"
	"github.com/lexiqai/speech-gateway/internal/server"
)

type sayOptions struct {
	url          string
	token        string
	text         string
	languageCode string
	voiceName    string
	out          string
	dataURL      bool
	timeout      time.Duration
}

func NewSayCommand() *cobra.Command {
	opts := sayOptions{}

	cmd := &cobra.Command{
		Use:     "say",
		Short:   "Synthesize text to an MP3",
		Example: `speechctl say --token "$(speechctl token --uid alice)" --text "Hello" --out hello.mp3`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSay(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", config.GetEnv("SPEECH_GATEWAY_URL", "http://localhost:8080"), "Gateway base URL")
	cmd.Flags().StringVar(&opts.token, "token", config.GetEnv("SPEECH_GATEWAY_TOKEN", ""), "Caller token")
	cmd.Flags().StringVar(&opts.text, "text", "", "Text to speak")
	cmd.Flags().StringVar(&opts.languageCode, "language-code", "", "BCP-47 language code")
	cmd.Flags().StringVar(&opts.voiceName, "voice-name", "", "Voice name")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Write audio to this file (default "+handlers.SpeechFileName+")")
	cmd.Flags().BoolVar(&opts.dataURL, "data-url", false, "Print a data URL instead of writing a file")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 60*time.Second, "Request timeout")

	return cmd
}

func runSay(cmd *cobra.Command, opts sayOptions) error {
	if opts.text == "" {
		return errors.New("--text is required")
	}

	client := callable.NewClient(opts.url, opts.timeout).WithToken(opts.token)
	req := handlers.SpeechSynthesisRequest{
		Text:         opts.text,
		LanguageCode: opts.languageCode,
		VoiceName:    opts.voiceName,
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	var res handlers.SpeechSynthesisResult
	if err := client.Call(ctx, server.FnSynthesizeSpeech, req, &res); err != nil {
		return fmt.Errorf("synthesize speech: %w", err)
	}

	if opts.dataURL {
		fmt.Fprintln(cmd.OutOrStdout(), res.DataURL())
		return nil
	}

	audio, err := base64.StdEncoding.DecodeString(res.AudioContent)
	if err != nil {
		return fmt.Errorf("decode audio: %w", err)
	}

	out := opts.out
	if out == "" {
		out = res.FileName
	}
	if err := os.WriteFile(out, audio, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes to %s\n", len(audio), out)
	return nil
}
