package routing

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// NameLen is the size in bytes of an XorName.
const NameLen = 32

// XorName is a 256-bit identifier in the network's xor address space. Node
// identities, chunk addresses, and section keys all project into this space.
type XorName [NameLen]byte

// HashedName derives the XorName of a blob of data.
func HashedName(data []byte) XorName {
	return XorName(sha256.Sum256(data))
}

// RandomName returns a cryptographically random XorName.
func RandomName() XorName {
	var n XorName
	rand.Read(n[:])
	return n
}

// NameFromHex parses a full hexadecimal representation of an XorName.
func NameFromHex(s string) (XorName, error) {
	var n XorName
	raw, err := hex.DecodeString(s)
	if err != nil {
		return n, err
	}
	if len(raw) != NameLen {
		return n, fmt.Errorf("wrong name length: got %d bytes, want %d", len(raw), NameLen)
	}
	copy(n[:], raw)
	return n, nil
}

// Bit returns the i-th bit of the name, most significant first.
func (n XorName) Bit(i uint) bool {
	return n[i/8]&(1<<(7-i%8)) != 0
}

// Hex returns the full hexadecimal representation of the name.
func (n XorName) Hex() string {
	return hex.EncodeToString(n[:])
}

// String returns a short form of the name for logging.
func (n XorName) String() string {
	return hex.EncodeToString(n[:3]) + ".."
}

// Prefix identifies a section: the partition of the address space whose names
// share the prefix's leading bits.
type Prefix struct {
	name     XorName
	bitCount uint
}

// NewPrefix returns the prefix of name truncated to bitCount bits.
func NewPrefix(name XorName, bitCount uint) Prefix {
	if bitCount > NameLen*8 {
		bitCount = NameLen * 8
	}
	p := Prefix{bitCount: bitCount}
	// Zero the bits beyond bitCount so that equal prefixes compare equal.
	for i := uint(0); i < bitCount; i++ {
		if name.Bit(i) {
			p.name[i/8] |= 1 << (7 - i%8)
		}
	}
	return p
}

// Matches reports whether the name's leading bits equal the prefix.
func (p Prefix) Matches(name XorName) bool {
	for i := uint(0); i < p.bitCount; i++ {
		if p.name.Bit(i) != name.Bit(i) {
			return false
		}
	}
	return true
}

// Name returns the canonical XorName of the prefix, with all bits beyond
// BitCount set to zero.
func (p Prefix) Name() XorName {
	return p.name
}

// BitCount returns the number of significant bits in the prefix.
func (p Prefix) BitCount() uint {
	return p.bitCount
}

// Extended returns the prefix lengthened by one bit. It is what a section
// prefix becomes on either side of a split.
func (p Prefix) Extended(bit bool) Prefix {
	name := p.name
	if bit {
		name[p.bitCount/8] |= 1 << (7 - p.bitCount%8)
	}
	return NewPrefix(name, p.bitCount+1)
}

// Equal reports whether two prefixes are identical.
func (p Prefix) Equal(other Prefix) bool {
	return p.bitCount == other.bitCount && p.name == other.name
}

// String returns the binary representation of the prefix bits.
func (p Prefix) String() string {
	var b bytes.Buffer
	for i := uint(0); i < p.bitCount; i++ {
		if p.name.Bit(i) {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}
