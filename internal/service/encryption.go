package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
)

// CardCipher decrypts card numbers stored by the host platform. The host
// encrypts with AES-256-GCM, nonce prepended, base64 encoded.
type CardCipher struct {
	key []byte
}

func NewCardCipher(key string) *CardCipher {
	if key == "" {
		return &CardCipher{}
	}
	sum := sha256.Sum256([]byte(key))
	return &CardCipher{key: sum[:]}
}

// Decrypt returns the plaintext card number. Empty input decrypts to the
// empty string; an unset key behaves the same so orders paid without a card
// pass through untouched.
func (c *CardCipher) Decrypt(encrypted string) (string, error) {
	if encrypted == "" || c.key == nil {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	if len(raw) < gcm.NonceSize() {
		return "", errors.New("ciphertext too short")
	}
	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]

	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// Encrypt is the inverse of Decrypt. The service itself never stores card
// numbers; this exists for fixtures and round-trip tests.
func (c *CardCipher) Encrypt(plain string) (string, error) {
	if plain == "" || c.key == nil {
		return "", nil
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}
