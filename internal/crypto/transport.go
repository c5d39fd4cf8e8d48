// Package crypto provides the symmetric transport cipher used to wrap tokens
// and session ids before they are handed to clients.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// KeySize is the required pre-shared key length. Anything else is a fatal
// configuration error at startup, not a runtime condition.
const KeySize = 32

const (
	nonceSize = 12
	tagSize   = 16
)

// ErrInvalidToken is the single failure mode of Decrypt. A failed tag check,
// a malformed payload and a bad encoding are indistinguishable on purpose, so
// the cipher cannot be used as an oracle.
var ErrInvalidToken = errors.New("tampered or invalid token")

// TransportCipher encrypts opaque strings with AES-256-GCM for safe
// client-side carriage. It is stateless and safe for concurrent use.
type TransportCipher struct {
	aead cipher.AEAD
}

// NewTransportCipher builds a cipher from the pre-shared key.
func NewTransportCipher(key []byte) (*TransportCipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("transport key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return &TransportCipher{aead: aead}, nil
}

// Encrypt seals plaintext and returns a base64url token laid out as
// nonce || tag || ciphertext. Every call draws a fresh random nonce; reusing
// one under the same key would break GCM entirely.
func (c *TransportCipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}

	// Seal appends the tag after the ciphertext; the wire layout wants it
	// between nonce and ciphertext.
	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	ctLen := len(sealed) - tagSize

	payload := make([]byte, 0, nonceSize+len(sealed))
	payload = append(payload, nonce...)
	payload = append(payload, sealed[ctLen:]...)
	payload = append(payload, sealed[:ctLen]...)
	return base64.RawURLEncoding.EncodeToString(payload), nil
}

// Decrypt opens a token produced by Encrypt. All failures return
// ErrInvalidToken.
func (c *TransportCipher) Decrypt(token string) (string, error) {
	payload, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", ErrInvalidToken
	}
	if len(payload) < nonceSize+tagSize {
		return "", ErrInvalidToken
	}

	nonce := payload[:nonceSize]
	tag := payload[nonceSize : nonceSize+tagSize]
	ciphertext := payload[nonceSize+tagSize:]

	sealed := make([]byte, 0, len(ciphertext)+tagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrInvalidToken
	}
	return string(plaintext), nil
}
