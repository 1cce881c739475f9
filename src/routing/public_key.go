package routing

import (
	"bytes"
	"encoding/hex"
)

// PublicKey is the wire representation of a public key: a section key, or the
// payout wallet of a node or client. The underlying scheme is owned by the
// crypto collaborators; here it is an opaque byte string.
type PublicKey []byte

// PublicKeyFromHex parses the hexadecimal representation of a PublicKey.
func PublicKeyFromHex(s string) (PublicKey, error) {
	return hex.DecodeString(s)
}

// Name projects the key into the xor address space. Sections and wallets are
// addressed by the name of their key.
func (k PublicKey) Name() XorName {
	return HashedName(k)
}

// Hex returns the hexadecimal representation of the key.
func (k PublicKey) Hex() string {
	return hex.EncodeToString(k)
}

// Equal reports whether two keys are byte-identical.
func (k PublicKey) Equal(other PublicKey) bool {
	return bytes.Equal(k, other)
}

// String returns a short form of the key for logging.
func (k PublicKey) String() string {
	if len(k) < 3 {
		return hex.EncodeToString(k)
	}
	return hex.EncodeToString(k[:3]) + ".."
}
