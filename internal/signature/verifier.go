// Package signature verifies timestamped HMAC-SHA256 webhook signatures.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
)

var (
	// ErrNoSecret means no secret is configured; requests must be refused.
	ErrNoSecret = errors.New("webhook secret is not configured")
	// ErrMissingSignature means the signature or timestamp header is absent.
	ErrMissingSignature = errors.New("missing signature or timestamp header")
	// ErrInvalidSignature means the signature does not match the body.
	ErrInvalidSignature = errors.New("invalid signature")
)

// Secret is a versioned HMAC key together with where it was loaded from
type Secret struct {
	Value   string
	Version int
	Source  string // "settings" or "env"
}

// Configured reports whether the secret can be used for verification
func (s Secret) Configured() bool {
	return s.Value != ""
}

// Sign returns the hex HMAC-SHA256 of timestamp + "." + body under key
func Sign(key, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a claimed signature against the raw body.
// The comparison is constant-time over the hex text, so case matters.
func Verify(secret Secret, claimed, timestamp string, body []byte) error {
	if !secret.Configured() {
		return ErrNoSecret
	}
	if claimed == "" || timestamp == "" {
		return ErrMissingSignature
	}

	expected := Sign(secret.Value, timestamp, body)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(claimed)) != 1 {
		return ErrInvalidSignature
	}
	return nil
}
