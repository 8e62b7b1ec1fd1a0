package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWipeByteArray(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
	}{
		{"nil", nil},
		{"empty", []byte{}},
		{"pepper", []byte{0xde, 0xad, 0xbe, 0xef, 0x01}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			WipeByteArray(tt.in)
			assert.Equal(t, make([]byte, len(tt.in)), append([]byte{}, tt.in...))
		})
	}
}

func TestWipeByteArray_SharedBacking(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	seed := key[:16]

	WipeByteArray(seed)
	assert.Equal(t, make([]byte, 16), key[:16])
	assert.Equal(t, []byte("0123456789abcdef"), key[16:], "only the slice passed in is wiped")
}

func TestSessionKeys(t *testing.T) {
	assert.ElementsMatch(t, []string{EphemeralKeyPairKey, SessionRecordKey}, SessionKeys)
}
