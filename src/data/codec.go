package data

import (
	"bytes"

	"github.com/ugorji/go/codec"
)

// CanonicalBytes encodes a value with the canonical JSON handle, so that the
// same value produces the same bytes on every node. It is the input to credit
// id derivation and share signing.
func CanonicalBytes(v interface{}) ([]byte, error) {
	b := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(b, jh)

	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// FromCanonicalBytes decodes a value encoded with CanonicalBytes.
func FromCanonicalBytes(raw []byte, v interface{}) error {
	b := bytes.NewBuffer(raw)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	dec := codec.NewDecoder(b, jh)

	return dec.Decode(v)
}
