package keystore

import (
	"context"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/chacha20poly1305"

	"waymark/pkg/platform/sentinel"
)

// File seals the signing key at rest with ChaCha20-Poly1305. The sealing key
// is derived from a passphrase; the file layout is nonce || ciphertext with
// mode 0600. Writes go through a temp file and rename so a crash mid-write
// never leaves a truncated keystore.
type File struct {
	path       string
	passphrase []byte
}

func NewFile(path, passphrase string) *File {
	return &File{path: path, passphrase: []byte(passphrase)}
}

func (f *File) aead() (cipher.AEAD, error) {
	sealKey := sha256.Sum256(f.passphrase)
	return chacha20poly1305.NewX(sealKey[:])
}

func (f *File) Load(_ context.Context) (*ecdsa.PrivateKey, error) {
	sealed, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read keystore: %w", err)
	}

	aead, err := f.aead()
	if err != nil {
		return nil, fmt.Errorf("derive sealing key: %w", err)
	}
	if len(sealed) < aead.NonceSize() {
		return nil, fmt.Errorf("keystore file too short: %w", sentinel.ErrInvalidState)
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("unseal keystore: %w", err)
	}

	key, err := x509.ParseECPrivateKey(plaintext)
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}
	return key, nil
}

func (f *File) Store(_ context.Context, key *ecdsa.PrivateKey) error {
	plaintext, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return fmt.Errorf("marshal signing key: %w", err)
	}

	aead, err := f.aead()
	if err != nil {
		return fmt.Errorf("derive sealing key: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}
	sealed := append(nonce, aead.Seal(nil, nonce, plaintext, nil)...)

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create keystore dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, sealed, 0o600); err != nil {
		return fmt.Errorf("write keystore: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("commit keystore: %w", err)
	}
	return nil
}
