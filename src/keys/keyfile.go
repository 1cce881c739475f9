package keys

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"strings"
	"sync"
)

// Keyfile reads and writes a node's private key from/to an unencrypted,
// unformatted file: a raw hex dump of the key's D value.
type Keyfile struct {
	l    sync.Mutex
	path string
}

// NewKeyfile instantiates a Keyfile with an underlying file.
func NewKeyfile(path string) *Keyfile {
	return &Keyfile{path: path}
}

// CheckFileInfo verifies that the file exists and has user permissions only.
func (k *Keyfile) CheckFileInfo() error {
	info, err := os.Stat(k.path)
	if err != nil {
		return err
	}

	perm := info.Mode().Perm()

	// build 000111111 mask
	var nonUserMask os.FileMode = (1 << 6) - 1

	nonUserPerm := perm & nonUserMask

	if nonUserPerm != 0 {
		return fmt.Errorf("key file permissions should exclude 'groups' and 'others'. Got %o", perm)
	}

	return nil
}

// ReadKey reads the private key from the underlying file.
func (k *Keyfile) ReadKey() (*ecdsa.PrivateKey, error) {
	k.l.Lock()
	defer k.l.Unlock()

	if err := k.CheckFileInfo(); err != nil {
		return nil, err
	}

	buf, err := ioutil.ReadFile(k.path)
	if err != nil {
		return nil, err
	}

	raw, err := hex.DecodeString(strings.TrimSpace(string(buf)))
	if err != nil {
		return nil, err
	}

	return ParsePrivateKey(raw)
}

// WriteKey writes a raw hex dump of the key's D value to the underlying file.
func (k *Keyfile) WriteKey(key *ecdsa.PrivateKey) error {
	k.l.Lock()
	defer k.l.Unlock()

	if err := os.MkdirAll(path.Dir(k.path), 0700); err != nil {
		return err
	}

	return ioutil.WriteFile(k.path, []byte(PrivateKeyHex(key)), 0600)
}
