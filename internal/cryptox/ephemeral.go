// Package cryptox holds the key material used by keyless login: short-lived
// ed25519 key pairs, the nonce that binds an identity token to one of them,
// and the derivation of the on-chain account address.
package cryptox

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/sha3"
)

// BlinderSize is the length of the random blinder mixed into the nonce.
const BlinderSize = 31

const nonceDomain = "keyless-nonce"

// ErrCorruptKeyPair is returned when a stored key pair does not hash to its
// recorded nonce.
var ErrCorruptKeyPair = errors.New("corrupt ephemeral key pair")

// EphemeralKeyPair is a short-lived signing key scoped to one login attempt.
// The nonce commits to the public key, the expiry and the blinder; the
// identity provider echoes it back inside the identity token.
type EphemeralKeyPair struct {
	PrivateKey ed25519.PrivateKey
	Blinder    []byte
	ExpiresAt  time.Time
	Nonce      string
}

// GenerateEphemeralKeyPair creates a fresh key pair valid for ttl from now.
// Expiry is truncated to whole seconds.
func GenerateEphemeralKeyPair(now time.Time, ttl time.Duration) (*EphemeralKeyPair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key: %w", err)
	}

	blinder := make([]byte, BlinderSize)
	if _, err := rand.Read(blinder); err != nil {
		return nil, fmt.Errorf("generate blinder: %w", err)
	}

	kp := &EphemeralKeyPair{
		PrivateKey: priv,
		Blinder:    blinder,
		ExpiresAt:  time.Unix(now.Add(ttl).Unix(), 0).UTC(),
	}
	kp.Nonce = ComputeNonce(kp.PublicKey(), kp.ExpiresAt, blinder)
	return kp, nil
}

// ComputeNonce returns base64url(sha3-256(domain || pub || u64be(expiry) || blinder)).
func ComputeNonce(pub ed25519.PublicKey, expiresAt time.Time, blinder []byte) string {
	h := sha3.New256()
	h.Write([]byte(nonceDomain))
	h.Write(pub)
	var exp [8]byte
	binary.BigEndian.PutUint64(exp[:], uint64(expiresAt.Unix()))
	h.Write(exp[:])
	h.Write(blinder)
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

func (k *EphemeralKeyPair) PublicKey() ed25519.PublicKey {
	return k.PrivateKey.Public().(ed25519.PublicKey)
}

// PublicKeyHex is the 0x-prefixed hex encoding of the public key.
func (k *EphemeralKeyPair) PublicKeyHex() string {
	return "0x" + hex.EncodeToString(k.PublicKey())
}

// Expired reports whether the pair can no longer be used at now.
func (k *EphemeralKeyPair) Expired(now time.Time) bool {
	return !k.ExpiresAt.After(now)
}

func (k *EphemeralKeyPair) Sign(msg []byte) []byte {
	return ed25519.Sign(k.PrivateKey, msg)
}

// Wipe zeroes the private key and blinder.
func (k *EphemeralKeyPair) Wipe() {
	for i := range k.PrivateKey {
		k.PrivateKey[i] = 0
	}
	for i := range k.Blinder {
		k.Blinder[i] = 0
	}
}

type storedKeyPair struct {
	Seed       string `json:"seed"`
	Blinder    string `json:"blinder"`
	ExpirySecs int64  `json:"expiry_date_secs"`
	Nonce      string `json:"nonce"`
}

func (k *EphemeralKeyPair) MarshalJSON() ([]byte, error) {
	return json.Marshal(storedKeyPair{
		Seed:       hex.EncodeToString(k.PrivateKey.Seed()),
		Blinder:    hex.EncodeToString(k.Blinder),
		ExpirySecs: k.ExpiresAt.Unix(),
		Nonce:      k.Nonce,
	})
}

// UnmarshalJSON restores a stored pair and checks it against its nonce.
func (k *EphemeralKeyPair) UnmarshalJSON(data []byte) error {
	var s storedKeyPair
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	seed, err := hex.DecodeString(s.Seed)
	if err != nil || len(seed) != ed25519.SeedSize {
		return fmt.Errorf("%w: bad seed", ErrCorruptKeyPair)
	}
	blinder, err := hex.DecodeString(s.Blinder)
	if err != nil {
		return fmt.Errorf("%w: bad blinder", ErrCorruptKeyPair)
	}

	priv := ed25519.NewKeyFromSeed(seed)
	expiresAt := time.Unix(s.ExpirySecs, 0).UTC()
	if ComputeNonce(priv.Public().(ed25519.PublicKey), expiresAt, blinder) != s.Nonce {
		return fmt.Errorf("%w: nonce does not match key", ErrCorruptKeyPair)
	}

	k.PrivateKey = priv
	k.Blinder = blinder
	k.ExpiresAt = expiresAt
	k.Nonce = s.Nonce
	return nil
}
