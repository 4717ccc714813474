package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexiqai/speech-gateway/internal/auth"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	if cmd.Use != "speechctl" {
		t.Errorf("expected command name 'speechctl', got %q", cmd.Use)
	}

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"token", "say"} {
		if !names[want] {
			t.Errorf("expected subcommand %q", want)
		}
	}
}

func TestTokenCommand(t *testing.T) {
	out, err := execute(t, "token", "--secret", "s3cret", "--uid", "alice")
	require.NoError(t, err)

	id, err := auth.NewHMACVerifier("s3cret").Verify(context.Background(), strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "alice", id.UID)
}

func TestTokenCommand_MissingUID(t *testing.T) {
	_, err := execute(t, "token", "--secret", "s3cret")
	assert.ErrorContains(t, err, "--uid")
}

func fakeGateway(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/synthesizeSpeech" || r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var env struct {
			Data map[string]any `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil || env.Data["text"] != "Hello" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSayCommand_WritesFile(t *testing.T) {
	srv := fakeGateway(t, http.StatusOK, `{"result":{"success":true,"audioContent":"QUJD","fileName":"speech.mp3"}}`)
	path := filepath.Join(t.TempDir(), "hello.mp3")

	out, err := execute(t, "say", "--url", srv.URL, "--token", "tok", "--text", "Hello", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 3 bytes")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("ABC"), data)
}

func TestSayCommand_DataURL(t *testing.T) {
	srv := fakeGateway(t, http.StatusOK, `{"result":{"success":true,"audioContent":"QUJD","fileName":"speech.mp3"}}`)

	out, err := execute(t, "say", "--url", srv.URL, "--token", "tok", "--text", "Hello", "--data-url")
	require.NoError(t, err)
	assert.Equal(t, "data:audio/mp3;base64,QUJD\n", out)
}

func TestSayCommand_GatewayError(t *testing.T) {
	srv := fakeGateway(t, http.StatusForbidden, `{"error":{"status":"PERMISSION_DENIED","message":"API access denied"}}`)

	_, err := execute(t, "say", "--url", srv.URL, "--token", "tok", "--text", "Hello", "--data-url")
	assert.ErrorContains(t, err, "API access denied")
}

func TestSayCommand_RequiresText(t *testing.T) {
	_, err := execute(t, "say", "--url", "http://127.0.0.1:0")
	assert.ErrorContains(t, err, "--text")
}
