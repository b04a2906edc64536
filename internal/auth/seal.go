package auth

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

const (
	saltLen = 16

	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// seal returns base64(salt | nonce | ciphertext).
func seal(passphrase string, plain []byte) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}
	aead, err := newAEAD(passphrase, salt)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	buf := make([]byte, 0, saltLen+len(nonce)+len(plain)+aead.Overhead())
	buf = append(buf, salt...)
	buf = append(buf, nonce...)
	buf = aead.Seal(buf, nonce, plain, nil)
	return base64.StdEncoding.EncodeToString(buf), nil
}

// unseal reverses seal. A wrong passphrase yields ErrPassphrase.
func unseal(passphrase, encoded string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("auth: sealed credential: %w", err)
	}
	if len(data) < saltLen+chacha20poly1305.NonceSizeX {
		return nil, fmt.Errorf("auth: sealed credential too short")
	}
	salt := data[:saltLen]
	aead, err := newAEAD(passphrase, salt)
	if err != nil {
		return nil, err
	}
	nonce := data[saltLen : saltLen+aead.NonceSize()]
	plain, err := aead.Open(nil, nonce, data[saltLen+aead.NonceSize():], nil)
	if err != nil {
		return nil, ErrPassphrase
	}
	return plain, nil
}

func newAEAD(passphrase string, salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("auth: derive key: %w", err)
	}
	return chacha20poly1305.NewX(key)
}
