// Package oauthstate signs and verifies the short-lived state token
// carried through the LinkedIn OAuth redirect round-trip. The token binds
// the redirect back to the user who initiated it without server-side
// session storage.
package oauthstate

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

var (
	// ErrMissingSecret is returned when the codec is invoked without a configured secret.
	ErrMissingSecret = errors.New("oauthstate: signing secret is not configured")
	// ErrInvalidFormat is returned when the state token is not payload.signature.
	ErrInvalidFormat = errors.New("oauthstate: invalid state format")
	// ErrInvalidSignature is returned when the signature does not match the payload.
	ErrInvalidSignature = errors.New("oauthstate: invalid state signature")
	// ErrInvalidPayload is returned when the payload decodes but carries no user id.
	ErrInvalidPayload = errors.New("oauthstate: invalid state payload")
	// ErrExpired is returned when the state token has passed its expiry.
	ErrExpired = errors.New("oauthstate: state expired")
)

// DefaultTTL bounds how long an OAuth authorization round-trip may take.
const DefaultTTL = 10 * time.Minute

const nonceLength = 16

// Payload is the signed content of a state token. Timestamps are Unix
// milliseconds so that sub-second TTLs stay exact.
type Payload struct {
	UserID   string `json:"user_id"`
	IssuedAt int64  `json:"iat"`
	Expiry   int64  `json:"exp"`
	Nonce    string `json:"nonce"`
}

// Codec creates and verifies signed state tokens with a shared secret.
type Codec struct {
	secret []byte
	now    func() time.Time
	random io.Reader
}

// New constructs a codec for the given secret. An empty secret is accepted
// here and reported as ErrMissingSecret on first use, so that a
// misconfigured deployment fails on the OAuth path rather than at startup.
func New(secret string) *Codec {
	return &Codec{secret: []byte(secret), now: time.Now, random: rand.Reader}
}

// NewWithClock constructs a codec with an injected time source for tests.
func NewWithClock(secret string, now func() time.Time) *Codec {
	c := New(secret)
	if now != nil {
		c.now = now
	}
	return c
}

// Create issues a signed state token for the given user. A non-positive ttl
// falls back to DefaultTTL.
func (c *Codec) Create(userID string, ttl time.Duration) (string, error) {
	if len(c.secret) == 0 {
		return "", ErrMissingSecret
	}
	if ttl == 0 {
		ttl = DefaultTTL
	}

	nonce := make([]byte, nonceLength)
	if _, err := io.ReadFull(c.random, nonce); err != nil {
		return "", fmt.Errorf("oauthstate: generate nonce: %w", err)
	}

	issued := c.now()
	payload := Payload{
		UserID:   userID,
		IssuedAt: issued.UnixMilli(),
		Expiry:   issued.Add(ttl).UnixMilli(),
		Nonce:    base64.RawURLEncoding.EncodeToString(nonce),
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("oauthstate: encode payload: %w", err)
	}

	encoded := base64.RawURLEncoding.EncodeToString(raw)
	return encoded + "." + c.sign(encoded), nil
}

// Verify checks the signature and expiry of a state token and returns its
// payload. The signature comparison is constant-time.
func (c *Codec) Verify(state string) (Payload, error) {
	if len(c.secret) == 0 {
		return Payload{}, ErrMissingSecret
	}

	parts := strings.Split(state, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Payload{}, ErrInvalidFormat
	}

	expected := c.sign(parts[0])
	if !hmac.Equal([]byte(expected), []byte(parts[1])) {
		return Payload{}, ErrInvalidSignature
	}

	raw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return Payload{}, ErrInvalidPayload
	}

	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Payload{}, ErrInvalidPayload
	}
	if payload.UserID == "" {
		return Payload{}, ErrInvalidPayload
	}

	if payload.Expiry < c.now().UnixMilli() {
		return Payload{}, ErrExpired
	}

	return payload, nil
}

func (c *Codec) sign(encodedPayload string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(encodedPayload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
