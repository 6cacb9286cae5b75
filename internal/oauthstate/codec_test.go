package oauthstate

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_RoundTrip(t *testing.T) {
	codec := New("test-secret")

	state, err := codec.Create("user-42", 0)
	require.NoError(t, err)

	payload, err := codec.Verify(state)
	require.NoError(t, err)
	assert.Equal(t, "user-42", payload.UserID)
	assert.Greater(t, payload.Expiry, payload.IssuedAt)
	assert.NotEmpty(t, payload.Nonce)
}

func TestCodec_MissingSecret(t *testing.T) {
	codec := New("")

	_, err := codec.Create("user-1", 0)
	assert.ErrorIs(t, err, ErrMissingSecret)

	_, err = codec.Verify("abc.def")
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestCodec_InvalidFormat(t *testing.T) {
	codec := New("test-secret")

	for _, state := range []string{"", "no-separator", "a.b.c", ".sig", "payload."} {
		_, err := codec.Verify(state)
		assert.ErrorIs(t, err, ErrInvalidFormat, "state %q", state)
	}
}

func TestCodec_TamperedSignature(t *testing.T) {
	codec := New("test-secret")

	state, err := codec.Create("user-42", 0)
	require.NoError(t, err)

	// Flip one bit in the signature.
	tampered := []byte(state)
	tampered[len(tampered)-1] ^= 0x01

	_, err = codec.Verify(string(tampered))
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestCodec_TamperedPayload(t *testing.T) {
	codec := New("test-secret")

	state, err := codec.Create("user-42", 0)
	require.NoError(t, err)

	parts := strings.SplitN(state, ".", 2)
	raw, err := base64.RawURLEncoding.DecodeString(parts[0])
	require.NoError(t, err)
	raw[0] ^= 0x01
	forged := base64.RawURLEncoding.EncodeToString(raw) + "." + parts[1]

	_, err = codec.Verify(forged)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestCodec_WrongSecret(t *testing.T) {
	state, err := New("secret-a").Create("user-42", 0)
	require.NoError(t, err)

	_, err = New("secret-b").Verify(state)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestCodec_Expired(t *testing.T) {
	codec := New("test-secret")

	state, err := codec.Create("user-42", -time.Millisecond)
	require.NoError(t, err)

	_, err = codec.Verify(state)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestCodec_PayloadWithoutUserID(t *testing.T) {
	codec := New("test-secret")

	encoded := base64.RawURLEncoding.EncodeToString([]byte(`{"iat":1,"exp":99999999999}`))
	state := encoded + "." + codec.sign(encoded)

	_, err := codec.Verify(state)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestCodec_ClockControlsExpiry(t *testing.T) {
	current := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	codec := NewWithClock("test-secret", func() time.Time { return current })

	state, err := codec.Create("user-42", 10*time.Minute)
	require.NoError(t, err)

	current = current.Add(9 * time.Minute)
	_, err = codec.Verify(state)
	assert.NoError(t, err)

	current = current.Add(2 * time.Minute)
	_, err = codec.Verify(state)
	assert.ErrorIs(t, err, ErrExpired)
}
