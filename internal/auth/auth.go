// Package auth verifies caller identity for callable operations.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// ErrInvalidToken is returned for malformed or badly signed tokens.
var ErrInvalidToken = errors.New("invalid token")

// Identity is the authenticated caller.
type Identity struct {
	UID   string
	Token string
}

// Verifier turns a bearer token into an Identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// HMACVerifier issues and verifies tokens of the form <uid>.<hex hmac-sha256(uid)>.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

// Issue mints a token for uid.
func (v *HMACVerifier) Issue(uid string) string {
	return uid + "." + v.sign(uid)
}

func (v *HMACVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	i := strings.LastIndexByte(token, '.')
	if i <= 0 || i == len(token)-1 {
		return nil, ErrInvalidToken
	}

	uid, sig := token[:i], token[i+1:]
	if !hmac.Equal([]byte(sig), []byte(v.sign(uid))) {
		return nil, ErrInvalidToken
	}

	return &Identity{UID: uid, Token: token}, nil
}

func (v *HMACVerifier) sign(msg string) string {
	h := hmac.New(sha256.New, v.secret)
	h.Write([]byte(msg))
	return hex.EncodeToString(h.Sum(nil))
}

// BearerToken extracts the token from an Authorization header value.
// The second result is false when no bearer token is present.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
