package models

import "time"

// IdentityClaims are the fields read from an identity token payload.
// Email, Name and Picture are for display only.
type IdentityClaims struct {
	Issuer    string
	Subject   string
	Audience  string
	Nonce     string
	Email     string
	Name      string
	Picture   string
	ExpiresAt time.Time
}

// SessionRecord is what survives a restart. It is valid only while
// EphemeralExpiry is in the future.
type SessionRecord struct {
	Address         string    `json:"address"`
	Email           string    `json:"email,omitempty"`
	Name            string    `json:"name,omitempty"`
	Picture         string    `json:"picture,omitempty"`
	IDToken         string    `json:"id_token"`
	Pepper          string    `json:"pepper"`
	EphemeralExpiry time.Time `json:"ephemeral_expiry"`
}

func (r *SessionRecord) Valid(now time.Time) bool {
	return r != nil && r.EphemeralExpiry.After(now)
}

// DisplayName prefers Name, then Email, then the address.
func (r *SessionRecord) DisplayName() string {
	switch {
	case r == nil:
		return ""
	case r.Name != "":
		return r.Name
	case r.Email != "":
		return r.Email
	default:
		return r.Address
	}
}
