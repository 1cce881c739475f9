package routing

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// MessageID identifies a network message. IDs produced by CombineID are
// deterministic functions of their inputs, which lets receivers correlate a
// response, or an expected instruction, with the exchange that produced it,
// and discard stale duplicates.
type MessageID [32]byte

// RandomMessageID returns a fresh random MessageID.
func RandomMessageID() MessageID {
	var id MessageID
	rand.Read(id[:])
	return id
}

// CombineID derives a MessageID from an ordered list of names. Any two nodes
// combining the same names obtain the same ID.
func CombineID(names ...XorName) MessageID {
	h := sha256.New()
	for _, n := range names {
		h.Write(n[:])
	}
	var id MessageID
	copy(id[:], h.Sum(nil))
	return id
}

// String returns a short form of the ID for logging.
func (id MessageID) String() string {
	return hex.EncodeToString(id[:4])
}
