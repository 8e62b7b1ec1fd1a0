package session

import (
	"context"
	"encoding/hex"
	"errors"
	"time"

	"github.com/dmitrijs2005/keylessvault/internal/client/client"
	"github.com/dmitrijs2005/keylessvault/internal/client/models"
	"github.com/dmitrijs2005/keylessvault/internal/common"
	"github.com/dmitrijs2005/keylessvault/internal/cryptox"
	"github.com/golang-jwt/jwt/v5"
)

type identityClaims struct {
	jwt.RegisteredClaims
	Nonce   string `json:"nonce"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// ParseIdentityToken decodes the token payload without checking its
// signature; the prover and the chain verify it.
func ParseIdentityToken(token string) (*models.IdentityClaims, error) {
	var c identityClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		return nil, err
	}
	if c.Issuer == "" || c.Subject == "" || len(c.Audience) == 0 {
		return nil, errors.New("token lacks iss, sub or aud")
	}
	out := &models.IdentityClaims{
		Issuer:   c.Issuer,
		Subject:  c.Subject,
		Audience: c.Audience[0],
		Nonce:    c.Nonce,
		Email:    c.Email,
		Name:     c.Name,
		Picture:  c.Picture,
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out, nil
}

// Deriver turns an identity token and the pending key pair into an account.
type Deriver struct {
	keyless client.KeylessClient
	deps    AccountDeps
}

func NewDeriver(keyless client.KeylessClient, deps AccountDeps) *Deriver {
	return &Deriver{keyless: keyless, deps: deps}
}

// Derive fails with *common.AuthError when the token is malformed or
// expired, the key pair is expired, the nonce does not match kp, or the
// pepper service fails. No account is produced on failure.
func (d *Deriver) Derive(ctx context.Context, idToken string, kp *cryptox.EphemeralKeyPair, now time.Time) (*KeylessAccount, error) {
	claims, err := ParseIdentityToken(idToken)
	if err != nil {
		return nil, common.NewAuthError("malformed token", err)
	}
	if !claims.ExpiresAt.IsZero() && !claims.ExpiresAt.After(now) {
		return nil, common.NewAuthError("token expired", nil)
	}
	if kp == nil {
		return nil, common.NewAuthError("no pending login", ErrNoPendingLogin)
	}
	if kp.Expired(now) {
		return nil, common.NewAuthError("ephemeral key expired", ErrKeyPairExpired)
	}
	if claims.Nonce != kp.Nonce {
		return nil, common.NewAuthError("nonce mismatch", common.ErrNonceMismatch)
	}

	pepper, err := d.keyless.FetchPepper(ctx, client.PepperRequest{IDToken: idToken, KeyPair: kp, UIDKey: cryptox.UIDKey})
	if err != nil {
		return nil, common.NewAuthError("pepper service unavailable", err)
	}

	idc := cryptox.IdentityCommitment(claims.Audience, cryptox.UIDKey, claims.Subject, pepper)
	rec := models.SessionRecord{
		Address:         cryptox.KeylessAddress(claims.Issuer, idc),
		Email:           claims.Email,
		Name:            claims.Name,
		Picture:         claims.Picture,
		IDToken:         idToken,
		Pepper:          hex.EncodeToString(pepper),
		EphemeralExpiry: kp.ExpiresAt,
	}
	return newKeylessAccount(rec, kp, pepper, d.deps), nil
}
