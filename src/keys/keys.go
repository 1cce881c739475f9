package keys

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec"

	"github.com/vaultnet/vaultnode/src/routing"
)

/*
Node identities and payout wallets are secp256k1 key pairs. We use btcsuite's
golang implementation of the curve, as Bitcoin and Ethereum do. Section keys
are produced by the routing collaborator and only handled here as opaque
routing.PublicKey values.
*/

// Parameters of the secp256k1 curve, used to verify that a private key is
// valid.
var (
	secp256k1N, _  = new(big.Int).SetString("fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141", 16)
	secp256k1halfN = new(big.Int).Div(secp256k1N, big.NewInt(2))
)

const (
	// number of bits in a big.Word
	wordBits = 32 << (uint64(^big.Word(0)) >> 63)
	// number of bytes in a big.Word
	wordBytes = wordBits / 8
)

// Curve returns the secp256k1 elliptic.Curve.
func Curve() elliptic.Curve {
	return btcec.S256()
}

// GenerateKey creates a new ecdsa.PrivateKey on the secp256k1 curve.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	return ecdsa.GenerateKey(Curve(), rand.Reader)
}

// DumpPrivateKey exports a private key into a binary dump.
func DumpPrivateKey(priv *ecdsa.PrivateKey) []byte {
	if priv == nil {
		return nil
	}
	return paddedBigBytes(priv.D, priv.Params().BitSize/8)
}

// ParsePrivateKey creates a private key with the given D value.
func ParsePrivateKey(d []byte) (*ecdsa.PrivateKey, error) {
	priv := new(ecdsa.PrivateKey)
	priv.PublicKey.Curve = Curve()

	if 8*len(d) != priv.Params().BitSize {
		return nil, fmt.Errorf("invalid length, need %d bits", priv.Params().BitSize)
	}

	priv.D = new(big.Int).SetBytes(d)

	// The priv.D must < N
	if priv.D.Cmp(secp256k1N) >= 0 {
		return nil, fmt.Errorf("invalid private key, >=N")
	}

	// The priv.D must not be zero or negative.
	if priv.D.Sign() <= 0 {
		return nil, fmt.Errorf("invalid private key, zero or negative")
	}

	priv.PublicKey.X, priv.PublicKey.Y = priv.PublicKey.Curve.ScalarBaseMult(d)
	if priv.PublicKey.X == nil {
		return nil, errors.New("invalid private key")
	}

	return priv, nil
}

// PrivateKeyHex returns the hexadecimal representation of a raw private key
// as returned by DumpPrivateKey.
func PrivateKeyHex(priv *ecdsa.PrivateKey) string {
	return hex.EncodeToString(DumpPrivateKey(priv))
}

// FromPublicKey marshals a public key into the uncompressed point form used
// on the wire.
func FromPublicKey(pub *ecdsa.PublicKey) routing.PublicKey {
	if pub == nil || pub.X == nil || pub.Y == nil {
		return nil
	}
	return elliptic.Marshal(Curve(), pub.X, pub.Y)
}

// ToPublicKey unmarshals an uncompressed point as produced by FromPublicKey.
func ToPublicKey(pub routing.PublicKey) *ecdsa.PublicKey {
	if len(pub) == 0 {
		return nil
	}
	x, y := elliptic.Unmarshal(Curve(), pub)
	if x == nil {
		return nil
	}
	return &ecdsa.PublicKey{Curve: Curve(), X: x, Y: y}
}

// NodeName derives the network identity of a key pair: the XorName of the
// marshaled public key.
func NodeName(pub *ecdsa.PublicKey) routing.XorName {
	return routing.HashedName(FromPublicKey(pub))
}

// Sign hashes data with SHA256 and signs the digest. The signature is encoded
// with EncodeSignature.
func Sign(priv *ecdsa.PrivateKey, data []byte) ([]byte, error) {
	digest := sha256.Sum256(data)
	r, s, err := ecdsa.Sign(rand.Reader, priv, digest[:])
	if err != nil {
		return nil, err
	}
	return EncodeSignature(r, s), nil
}

// Verify checks an encoded signature over data against a public key.
func Verify(pub *ecdsa.PublicKey, data []byte, sig []byte) bool {
	r, s, err := DecodeSignature(sig)
	if err != nil {
		return false
	}
	digest := sha256.Sum256(data)
	return ecdsa.Verify(pub, digest[:], r, s)
}

// EncodeSignature encodes the r and s values of a signature as two 32-byte
// big-endian words.
func EncodeSignature(r, s *big.Int) []byte {
	out := make([]byte, 64)
	copy(out[:32], paddedBigBytes(r, 32))
	copy(out[32:], paddedBigBytes(s, 32))
	return out
}

// DecodeSignature parses a signature as produced by EncodeSignature.
func DecodeSignature(sig []byte) (r, s *big.Int, err error) {
	if len(sig) != 64 {
		return nil, nil, fmt.Errorf("wrong signature length: got %d, want 64", len(sig))
	}
	r = new(big.Int).SetBytes(sig[:32])
	s = new(big.Int).SetBytes(sig[32:])
	return r, s, nil
}

// paddedBigBytes encodes a big integer as a big-endian byte slice. The length
// of the slice is at least n bytes.
func paddedBigBytes(bigint *big.Int, n int) []byte {
	if bigint.BitLen()/8 >= n {
		return bigint.Bytes()
	}
	ret := make([]byte, n)
	readBits(bigint, ret)
	return ret
}

// readBits encodes the absolute value of bigint as big-endian bytes. Callers
// must ensure that buf has enough space. If buf is too short the result will
// be incomplete.
func readBits(bigint *big.Int, buf []byte) {
	i := len(buf)
	for _, d := range bigint.Bits() {
		for j := 0; j < wordBytes && i > 0; j++ {
			i--
			buf[i] = byte(d)
			d >>= 8
		}
	}
}
