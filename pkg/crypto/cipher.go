// Package crypto provides AES-256-GCM helpers for protecting payloads passed
// between clients and verification logic. Keys are always supplied by the caller.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	KeySize   = 32 // AES-256
	NonceSize = 12 // 96-bit GCM nonce
)

var (
	ErrInvalidKey           = errors.New("invalid encryption key")
	ErrAuthenticationFailed = errors.New("message authentication failed")
)

// CryptoError reports which operation failed. Kind is one of the sentinel
// errors above, so callers match with errors.Is.
type CryptoError struct {
	Op   string
	Kind error
}

func (e *CryptoError) Error() string {
	return e.Op + ": " + e.Kind.Error()
}

func (e *CryptoError) Unwrap() error {
	return e.Kind
}

// EncryptedPayload is the output of Encrypt. Byte fields encode as base64 in JSON.
type EncryptedPayload struct {
	Ciphertext []byte `json:"ciphertext"`
	IV         []byte `json:"iv"`
}

// Encrypt seals plaintext with a fresh random nonce
func Encrypt(plaintext, key []byte) (*EncryptedPayload, error) {
	gcm, err := newGCM("encrypt", key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("encrypt: failed to generate nonce: %w", err)
	}

	return &EncryptedPayload{
		Ciphertext: gcm.Seal(nil, nonce, plaintext, nil),
		IV:         nonce,
	}, nil
}

// Decrypt opens a payload produced by Encrypt. A malformed nonce, truncated
// ciphertext and tag mismatch all return the same ErrAuthenticationFailed.
func Decrypt(payload *EncryptedPayload, key []byte) ([]byte, error) {
	gcm, err := newGCM("decrypt", key)
	if err != nil {
		return nil, err
	}

	if payload == nil || len(payload.IV) != NonceSize || len(payload.Ciphertext) < gcm.Overhead() {
		return nil, &CryptoError{Op: "decrypt", Kind: ErrAuthenticationFailed}
	}

	plaintext, err := gcm.Open(nil, payload.IV, payload.Ciphertext, nil)
	if err != nil {
		return nil, &CryptoError{Op: "decrypt", Kind: ErrAuthenticationFailed}
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}

// GenerateKey returns a random 256-bit key
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}

// DeriveKey derives a 256-bit key from a caller-held secret with HKDF-SHA256.
// Different info strings yield independent keys from the same secret.
func DeriveKey(secret []byte, info string) ([]byte, error) {
	if len(secret) == 0 {
		return nil, &CryptoError{Op: "derive", Kind: ErrInvalidKey}
	}
	h := hkdf.New(sha256.New, secret, nil, []byte(info))
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(h, key); err != nil {
		return nil, fmt.Errorf("derive: %w", err)
	}
	return key, nil
}

func newGCM(op string, key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, &CryptoError{Op: op, Kind: ErrInvalidKey}
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, &CryptoError{Op: op, Kind: ErrInvalidKey}
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return gcm, nil
}
