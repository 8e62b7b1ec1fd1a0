package cryptox

import (
	"crypto/ed25519"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateEphemeralKeyPair(t *testing.T) {
	now := time.Unix(1_700_000_000, 500)
	kp, err := GenerateEphemeralKeyPair(now, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, int64(1_700_003_600), kp.ExpiresAt.Unix())
	assert.Len(t, kp.Blinder, BlinderSize)
	assert.Equal(t, ComputeNonce(kp.PublicKey(), kp.ExpiresAt, kp.Blinder), kp.Nonce)
	assert.False(t, kp.Expired(now))
	assert.True(t, kp.Expired(kp.ExpiresAt))

	other, err := GenerateEphemeralKeyPair(now, time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, kp.Nonce, other.Nonce)
}

func TestEphemeralKeyPair_SignVerifies(t *testing.T) {
	kp, err := GenerateEphemeralKeyPair(time.Now(), time.Minute)
	require.NoError(t, err)

	msg := []byte("payload")
	sig := kp.Sign(msg)
	assert.True(t, ed25519.Verify(kp.PublicKey(), msg, sig))
	assert.Len(t, kp.PublicKeyHex(), 2+2*ed25519.PublicKeySize)
}

func TestEphemeralKeyPair_JSONRoundTrip(t *testing.T) {
	kp, err := GenerateEphemeralKeyPair(time.Now(), time.Hour)
	require.NoError(t, err)

	data, err := json.Marshal(kp)
	require.NoError(t, err)

	var restored EphemeralKeyPair
	require.NoError(t, json.Unmarshal(data, &restored))

	assert.Equal(t, kp.Nonce, restored.Nonce)
	assert.Equal(t, kp.ExpiresAt, restored.ExpiresAt)
	assert.Equal(t, kp.PrivateKey, restored.PrivateKey)
	assert.Equal(t, kp.Blinder, restored.Blinder)
}

func TestEphemeralKeyPair_UnmarshalRejectsTamperedNonce(t *testing.T) {
	kp, err := GenerateEphemeralKeyPair(time.Now(), time.Hour)
	require.NoError(t, err)

	var raw map[string]any
	data, _ := json.Marshal(kp)
	require.NoError(t, json.Unmarshal(data, &raw))
	raw["expiry_date_secs"] = kp.ExpiresAt.Unix() + 3600
	data, _ = json.Marshal(raw)

	var restored EphemeralKeyPair
	require.ErrorIs(t, json.Unmarshal(data, &restored), ErrCorruptKeyPair)
}

func TestEphemeralKeyPair_UnmarshalBadSeed(t *testing.T) {
	var kp EphemeralKeyPair
	err := json.Unmarshal([]byte(`{"seed":"zz","blinder":"","expiry_date_secs":1,"nonce":"x"}`), &kp)
	require.ErrorIs(t, err, ErrCorruptKeyPair)
}

func TestEphemeralKeyPair_Wipe(t *testing.T) {
	kp, err := GenerateEphemeralKeyPair(time.Now(), time.Hour)
	require.NoError(t, err)
	kp.Wipe()
	for _, b := range kp.PrivateKey {
		require.Zero(t, b)
	}
	for _, b := range kp.Blinder {
		require.Zero(t, b)
	}
}
