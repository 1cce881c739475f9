package keys

import (
	"path/filepath"
	"testing"
)

func TestSignVerify(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}

	msg := []byte("signable bytes")
	sig, err := Sign(key, msg)
	if err != nil {
		t.Fatal(err)
	}
	if len(sig) != 64 {
		t.Fatalf("Signature should be 64 bytes, not %d", len(sig))
	}

	if !Verify(&key.PublicKey, msg, sig) {
		t.Fatal("Signature should verify")
	}
	if Verify(&key.PublicKey, []byte("other bytes"), sig) {
		t.Fatal("Signature over other bytes should not verify")
	}

	other, _ := GenerateKey()
	if Verify(&other.PublicKey, msg, sig) {
		t.Fatal("Signature should not verify under another key")
	}
}

func TestDumpParseRoundTrip(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}

	parsed, err := ParsePrivateKey(DumpPrivateKey(key))
	if err != nil {
		t.Fatal(err)
	}
	if parsed.D.Cmp(key.D) != 0 {
		t.Fatal("Dump and parse should preserve the key")
	}
	if NodeName(&parsed.PublicKey) != NodeName(&key.PublicKey) {
		t.Fatal("The derived node name should be stable across a round trip")
	}
}

func TestPublicKeyMarshalling(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}

	wire := FromPublicKey(&key.PublicKey)
	back := ToPublicKey(wire)
	if back == nil {
		t.Fatal("Marshalled key should unmarshal")
	}
	if back.X.Cmp(key.PublicKey.X) != 0 || back.Y.Cmp(key.PublicKey.Y) != 0 {
		t.Fatal("Round trip should preserve the point")
	}

	if ToPublicKey([]byte("junk")) != nil {
		t.Fatal("Junk bytes should not unmarshal")
	}
}

func TestKeyfile(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "priv_key")
	keyfile := NewKeyfile(keyPath)

	if _, err := keyfile.ReadKey(); err == nil {
		t.Fatal("Reading a missing keyfile should fail")
	}

	key, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	if err := keyfile.WriteKey(key); err != nil {
		t.Fatal(err)
	}
	if err := keyfile.CheckFileInfo(); err != nil {
		t.Fatal(err)
	}

	read, err := keyfile.ReadKey()
	if err != nil {
		t.Fatal(err)
	}
	if read.D.Cmp(key.D) != 0 {
		t.Fatal("The keyfile should preserve the key")
	}
}
