package session

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/dmitrijs2005/keylessvault/internal/cryptox"
	"github.com/google/uuid"
)

// Scopes requested from the identity provider.
const Scopes = "openid email profile"

// Navigation is the intent to send the user to the identity provider.
type Navigation struct {
	URL   string
	State string
}

// loginState is the opaque state blob round-tripped through the provider.
type loginState struct {
	ID    string `json:"id"`
	Nonce string `json:"ephemeralKeyPair"`
}

// RedirectBuilder builds implicit-flow authorization URLs.
type RedirectBuilder struct {
	AuthURL     string
	ClientID    string
	RedirectURI string
}

func (b *RedirectBuilder) Build(kp *cryptox.EphemeralKeyPair) (*Navigation, error) {
	if b.ClientID == "" {
		return nil, errors.New("oauth client id is not configured")
	}
	if kp == nil || kp.Nonce == "" {
		return nil, errors.New("missing ephemeral key pair")
	}
	u, err := url.Parse(b.AuthURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid authorization url %q", b.AuthURL)
	}

	state, err := EncodeState(kp.Nonce)
	if err != nil {
		return nil, err
	}

	q := u.Query()
	q.Set("client_id", b.ClientID)
	q.Set("redirect_uri", b.RedirectURI)
	q.Set("response_type", "id_token")
	q.Set("scope", Scopes)
	q.Set("nonce", kp.Nonce)
	q.Set("state", state)
	u.RawQuery = q.Encode()

	return &Navigation{URL: u.String(), State: state}, nil
}

// EncodeState returns base64url(JSON{id, ephemeralKeyPair: nonce}).
func EncodeState(nonce string) (string, error) {
	b, err := json.Marshal(loginState{ID: uuid.NewString(), Nonce: nonce})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DecodeState returns the nonce carried by a state blob.
func DecodeState(state string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(state)
	if err != nil {
		return "", fmt.Errorf("decode state: %w", err)
	}
	var s loginState
	if err := json.Unmarshal(b, &s); err != nil {
		return "", fmt.Errorf("decode state: %w", err)
	}
	if s.Nonce == "" {
		return "", errors.New("decode state: no nonce")
	}
	return s.Nonce, nil
}
