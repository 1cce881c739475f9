package node

import (
	"crypto/ecdsa"

	"github.com/vaultnet/vaultnode/src/keys"
	"github.com/vaultnet/vaultnode/src/routing"
)

// Validator is a wrapper around the private key controlling this node.
type Validator struct {
	Key     *ecdsa.PrivateKey
	Moniker string

	name     routing.XorName
	pubBytes routing.PublicKey
}

// NewValidator is a factory method for a Validator.
func NewValidator(key *ecdsa.PrivateKey, moniker string) *Validator {
	return &Validator{
		Key:     key,
		Moniker: moniker,
	}
}

// Name returns the validator's network identity: the XorName of its public
// key.
func (v *Validator) Name() routing.XorName {
	if v.name == (routing.XorName{}) {
		v.name = keys.NodeName(&v.Key.PublicKey)
	}
	return v.name
}

// PublicKeyBytes returns the validator's public key in wire form.
func (v *Validator) PublicKeyBytes() routing.PublicKey {
	if len(v.pubBytes) == 0 {
		v.pubBytes = keys.FromPublicKey(&v.Key.PublicKey)
	}
	return v.pubBytes
}

// Sign signs data with the validator's key. It implements the funds.Signer
// contract used in reward rounds.
func (v *Validator) Sign(data []byte) ([]byte, error) {
	return keys.Sign(v.Key, data)
}
