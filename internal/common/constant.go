// Package common contains shared constants, the error taxonomy and small
// helpers used across the keyless vault client.
package common

// Keys of the local key-value store. Both keys belong to one login and are
// always removed together.
const (
	EphemeralKeyPairKey = "ephemeral_key_pair"
	SessionRecordKey    = "keyless_user"
)

// SessionKeys lists every key owned by a session.
var SessionKeys = []string{EphemeralKeyPairKey, SessionRecordKey}
