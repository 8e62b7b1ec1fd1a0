package cryptox

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/sha3"
)

// KeylessScheme is the authentication-key scheme byte of keyless accounts.
const KeylessScheme byte = 0x05

// UIDKey is the identity token claim the account is bound to.
const UIDKey = "sub"

// IdentityCommitment hides the user identifier behind the pepper:
// sha3-256(aud || 0 || uidKey || 0 || uidVal || 0 || pepper).
func IdentityCommitment(aud, uidKey, uidVal string, pepper []byte) []byte {
	h := sha3.New256()
	h.Write([]byte(aud))
	h.Write([]byte{0})
	h.Write([]byte(uidKey))
	h.Write([]byte{0})
	h.Write([]byte(uidVal))
	h.Write([]byte{0})
	h.Write(pepper)
	return h.Sum(nil)
}

// KeylessAddress derives the account address for an issuer and identity
// commitment. The same (iss, aud, sub, pepper) always yields the same address.
func KeylessAddress(iss string, idc []byte) string {
	h := sha3.New256()
	writeBytes(h, []byte(iss))
	writeBytes(h, idc)
	h.Write([]byte{KeylessScheme})
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// SigningMessage prefixes body with the hash of a domain separator, the way
// the chain expects raw transactions to be signed.
func SigningMessage(domain string, body []byte) []byte {
	prefix := sha3.Sum256([]byte(domain))
	msg := make([]byte, 0, len(prefix)+len(body))
	msg = append(msg, prefix[:]...)
	return append(msg, body...)
}

// NormalizeAddress lower-cases addr and left-pads it to 64 hex digits.
func NormalizeAddress(addr string) (string, error) {
	a := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(addr)), "0x")
	if a == "" || len(a) > 64 {
		return "", fmt.Errorf("invalid account address %q", addr)
	}
	if _, err := hex.DecodeString(padEven(a)); err != nil {
		return "", fmt.Errorf("invalid account address %q: %w", addr, err)
	}
	return "0x" + strings.Repeat("0", 64-len(a)) + a, nil
}

func padEven(s string) string {
	if len(s)%2 == 1 {
		return "0" + s
	}
	return s
}

func writeBytes(w io.Writer, b []byte) {
	var l [4]byte
	binary.BigEndian.PutUint32(l[:], uint32(len(b)))
	w.Write(l[:])
	w.Write(b)
}
